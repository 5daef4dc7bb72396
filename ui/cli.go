package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zaphook/config"
	"zaphook/core/logger"
	"zaphook/core/normalizer"
	"zaphook/service/callback"
	"zaphook/service/storage"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// Execute - точка входа CLI
func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "zaphook",
		Short:         "Receiver for asynchronous automation callbacks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCommand(), newNormalizeCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the callback HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	log := logger.Default()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := normalizer.New(normalizer.WithDefaultStatus(cfg.DefaultStatus))
	svc := callback.NewService(n, storage.NewStorage())
	web := NewWebInterface(cfg, svc, log)

	if cfg.IsDevelopment() && cfg.OpenBrowser {
		statusURL := "http://localhost" + cfg.Addr() + "/"
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := open.Run(statusURL); err != nil {
				log.Warn("could not open browser", "url", statusURL, "error", err)
			}
		}()
	}

	return web.Start(ctx)
}

func newNormalizeCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Print the normalized record for a callback payload (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening payload: %w", err)
				}
				defer f.Close()
				in = f
			}

			body, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}

			record, ok := normalizer.New(normalizer.WithDefaultStatus(status)).Normalize(callback.DecodePayload(body))
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no identifier found, record would not be stored")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}

	cmd.Flags().StringVar(&status, "default-status", normalizer.DefaultStatus, "status used when the payload has none")
	return cmd
}
