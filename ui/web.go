package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"zaphook/config"
	"zaphook/core/logger"
	"zaphook/metrics"
	"zaphook/service/callback"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const (
	allowedMethods = "GET,POST,OPTIONS"
	allowedHeaders = "Content-Type, Authorization"
)

type WebInterface struct {
	cfg      *config.Config
	service  *callback.Service
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewWebInterface(cfg *config.Config, service *callback.Service, log logger.Logger) *WebInterface {
	if log == nil {
		log = logger.Default()
	}
	return &WebInterface{
		cfg:     cfg,
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Middleware для метрик
func metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrapper для захвата статус кода
		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(wrapped, r)

		duration := time.Since(start).Seconds()

		metrics.HttpRequestsTotal.WithLabelValues(
			r.Method,
			endpoint,
			strconv.Itoa(wrapped.statusCode),
		).Inc()

		metrics.HttpRequestDuration.WithLabelValues(
			r.Method,
			endpoint,
		).Observe(duration)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack нужен websocket upgrader'у
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not implement http.Hijacker")
	}
	return h.Hijack()
}

// requestMiddleware выдаёт запросу correlation id, кладёт логгер в контекст
// и превращает панику обработчика в ответ 400
func (w *WebInterface) requestMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Request-ID")
		if corrID == "" {
			corrID = uuid.New().String()
		}
		wr.Header().Set("X-Request-ID", corrID)

		log := w.log.With("correlation_id", corrID)
		r = r.WithContext(logger.WithContext(r.Context(), log))

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("handler panic", "panic", rec, "path", r.URL.Path)
				writeJSON(wr, http.StatusBadRequest, map[string]any{"ok": false, "error": fmt.Sprint(rec)})
			}
		}()

		next(wr, r)
	}
}

func (w *WebInterface) route(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return metricsMiddleware(endpoint, w.requestMiddleware(h))
}

// Handler собирает все маршруты сервера
func (w *WebInterface) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc(w.cfg.CallbackPath, w.route(w.cfg.CallbackPath, w.handleCallback))
	mux.HandleFunc(w.cfg.CallbackPath+"/ws", w.route(w.cfg.CallbackPath+"/ws", w.handleWatch))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if w.cfg.IsDevelopment() {
		proxy, err := newDevProxy(w.cfg.ProxyTarget, w.log)
		if err != nil {
			return nil, err
		}
		mux.Handle(w.cfg.ProxyPrefix, proxy)
		w.log.Info("dev proxy enabled", "prefix", w.cfg.ProxyPrefix, "target", w.cfg.ProxyTarget)
	}

	mux.HandleFunc("/", w.route("/", w.handleRoot))

	handler := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		OptionsPassthrough: true,
	}).Handler(mux)

	return handler, nil
}

// Start запускает сервер и останавливает его при отмене ctx
func (w *WebInterface) Start(ctx context.Context) error {
	handler, err := w.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              w.cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		w.log.Info("callback receiver listening", "addr", srv.Addr, "path", w.cfg.CallbackPath, "mode", w.cfg.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func setCORSHeaders(wr http.ResponseWriter) {
	h := wr.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowedMethods)
	h.Set("Access-Control-Allow-Headers", allowedHeaders)
}

func (w *WebInterface) handleCallback(wr http.ResponseWriter, r *http.Request) {
	setCORSHeaders(wr)

	switch r.Method {
	case http.MethodPost:
		w.handlePost(wr, r)
	case http.MethodGet:
		w.handleGet(wr, r)
	case http.MethodOptions:
		wr.WriteHeader(http.StatusNoContent)
	default:
		wr.Header().Set("Allow", allowedMethods)
		writeJSON(wr, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
	}
}

func (w *WebInterface) handlePost(wr http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(wr, r.Body, w.cfg.MaxBodyBytes))
	if err != nil {
		logger.FromContext(r.Context()).Warn("reading callback body failed", "error", err)
		writeJSON(wr, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	payload := callback.DecodePayload(body)
	record, stored := w.service.Receive(r.Context(), payload)

	resp := map[string]any{"ok": true}
	if stored {
		resp["request_id"] = record.RequestID
	}
	writeJSON(wr, http.StatusOK, resp)
}

func (w *WebInterface) handleGet(wr http.ResponseWriter, r *http.Request) {
	id := requestIDParam(r)

	record, err := w.service.Lookup(id)
	switch {
	case errors.Is(err, callback.ErrMissingIdentifier):
		writeJSON(wr, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, callback.ErrPending):
		writeJSON(wr, http.StatusNotFound, map[string]any{"pending": true, "request_id": id})
	case err != nil:
		writeJSON(wr, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
	default:
		writeJSON(wr, http.StatusOK, record)
	}
}

func (w *WebInterface) handleRoot(wr http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(wr, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	writeJSON(wr, http.StatusOK, map[string]any{
		"service":       "zaphook",
		"mode":          w.cfg.Mode,
		"callback_path": w.cfg.CallbackPath,
		"records":       w.service.Count(),
	})
}

// requestIDParam - request_id из query, id как запасной вариант
func requestIDParam(r *http.Request) string {
	q := r.URL.Query()
	if id := q.Get("request_id"); id != "" {
		return id
	}
	return q.Get("id")
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(status)
	json.NewEncoder(wr).Encode(v)
}
