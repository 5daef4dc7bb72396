package command

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"zaphook/models"

	"github.com/google/shlex"
)

var (
	ErrEmpty      = errors.New("command is empty")
	ErrNotCurl    = errors.New("command is not a curl invocation")
	ErrMissingURL = errors.New("URL required for curl")
)

// Prefixes - префиксы, по которым строка считается командой целиком
var Prefixes = []string{"curl"}

// LooksLikeCommand - начинается ли строка с известного префикса команды
func LooksLikeCommand(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range Prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ParseCurl разбирает команду curl в HTTP запрос. Поддерживаются
// -X/--request, -H/--header, -d/--data*, --url и позиционный URL;
// прочие флаги пропускаются.
func ParseCurl(cmd string) (*models.HTTPRequest, error) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil, ErrEmpty
	}

	// Продолжения строк shell'а
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	args, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("lexing command: %w", err)
	}
	if len(args) == 0 {
		return nil, ErrEmpty
	}
	if args[0] != "curl" {
		return nil, ErrNotCurl
	}

	req := &models.HTTPRequest{Headers: make(map[string]string)}
	for i := 1; i < len(args); i++ {
		arg := args[i]
		next := func() (string, bool) {
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch {
		case arg == "-X" || arg == "--request":
			if v, ok := next(); ok {
				req.Method = strings.ToUpper(v)
			}
		case strings.HasPrefix(arg, "-X") && len(arg) > 2:
			req.Method = strings.ToUpper(arg[2:])
		case arg == "-H" || arg == "--header":
			if v, ok := next(); ok {
				addHeader(req, v)
			}
		case arg == "-d" || arg == "--data" || arg == "--data-raw" || arg == "--data-binary" || arg == "--json":
			if v, ok := next(); ok {
				if req.Body != "" {
					req.Body += "&"
				}
				req.Body += v
				if arg == "--json" {
					req.Headers["Content-Type"] = "application/json"
				}
			}
		case arg == "--url":
			if v, ok := next(); ok {
				req.URL = v
			}
		case strings.HasPrefix(arg, "-"):
			// флаги без значения (-s, -L, -k, ...)
		default:
			if req.URL == "" {
				req.URL = arg
			}
		}
	}

	if req.URL == "" {
		return nil, ErrMissingURL
	}
	if req.Method == "" {
		req.Method = http.MethodGet
		if req.Body != "" {
			req.Method = http.MethodPost
		}
	}
	if len(req.Headers) == 0 {
		req.Headers = nil
	}
	return req, nil
}

func addHeader(req *models.HTTPRequest, raw string) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok {
		return
	}
	req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
}
