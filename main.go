package main

import (
	"fmt"
	"os"

	"zaphook/ui"
)

func main() {
	if err := ui.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
