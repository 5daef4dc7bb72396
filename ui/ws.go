package ui

import (
	"net/http"
	"time"

	"zaphook/core/logger"
	"zaphook/metrics"

	"github.com/gorilla/websocket"
)

// handleWatch отдаёт запись по websocket, как только она появится.
// Если записи нет дольше WSWaitTimeout, отправляется {pending:true}.
func (w *WebInterface) handleWatch(wr http.ResponseWriter, r *http.Request) {
	id := requestIDParam(r)
	if id == "" {
		writeJSON(wr, http.StatusBadRequest, map[string]any{"error": "request_id required"})
		return
	}

	log := logger.FromContext(r.Context()).With("request_id", id)

	conn, err := w.upgrader.Upgrade(wr, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	records, cancel := w.service.Watch(id)
	defer cancel()

	metrics.ActiveWatchers.Inc()
	defer metrics.ActiveWatchers.Dec()

	// Чтение нужно только чтобы заметить закрытие соединения клиентом
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(w.cfg.WSWaitTimeout)
	defer timer.Stop()

	var msg any
	select {
	case record := <-records:
		msg = record
	case <-timer.C:
		msg = map[string]any{"pending": true, "request_id": id}
	case <-closed:
		log.Debug("websocket closed by client")
		return
	case <-r.Context().Done():
		return
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn("websocket write failed", "error", err)
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
