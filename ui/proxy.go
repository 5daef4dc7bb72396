package ui

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"zaphook/core/logger"
)

// newDevProxy пересылает запросы на внешний сервис с тем же путём.
// Подключается только в режиме разработки.
func newDevProxy(target string, log logger.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy target must be an absolute URL: %q", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		ErrorHandler: func(wr http.ResponseWriter, r *http.Request, err error) {
			log.Warn("dev proxy request failed", "path", r.URL.Path, "error", err)
			writeJSON(wr, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		},
	}, nil
}
