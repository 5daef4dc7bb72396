package callback

import (
	"context"
	"encoding/json"
	"errors"

	"zaphook/core/logger"
	"zaphook/core/normalizer"
	"zaphook/metrics"
	"zaphook/models"
	"zaphook/service/storage"
)

var (
	ErrMissingIdentifier = errors.New("request_id required")
	ErrPending           = errors.New("record not received yet")
)

// Service - приём callback'ов и выдача последнего результата по идентификатору
type Service struct {
	normalizer *normalizer.Normalizer
	storage    *storage.Storage
}

func NewService(n *normalizer.Normalizer, s *storage.Storage) *Service {
	return &Service{
		normalizer: n,
		storage:    s,
	}
}

// DecodePayload - тело запроса как JSON объект; всё остальное становится {}
func DecodePayload(body []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return map[string]any{}
	}
	return payload
}

// Receive нормализует payload и сохраняет запись, если есть идентификатор.
// Второе значение - была ли запись сохранена.
func (s *Service) Receive(ctx context.Context, payload map[string]any) (models.Record, bool) {
	record, ok := s.normalizer.Normalize(payload)

	log := logger.FromContext(ctx).With("request_id", record.RequestID)
	if pretty, err := json.MarshalIndent(payload, "", "  "); err == nil {
		log.Info("callback received", "payload", string(pretty))
	}

	if ok {
		s.storage.Put(record.RequestID, record)
		log.Info("callback stored",
			"status", record.Status,
			"result_kind", record.Result.Kind.String(),
			"command_source", record.CommandSource,
		)
	} else {
		log.Warn("callback without identifier, not stored")
	}

	metrics.ObserveCallback(ok, record.CommandSource, record.Result.Kind.String(), s.storage.Len())
	return record, ok
}

// Lookup - последняя запись для id
func (s *Service) Lookup(id string) (models.Record, error) {
	if id == "" {
		return models.Record{}, ErrMissingIdentifier
	}
	record, ok := s.storage.Get(id)
	if !ok {
		return models.Record{}, ErrPending
	}
	return record, nil
}

// Watch - см. storage.Storage.Watch
func (s *Service) Watch(id string) (<-chan models.Record, func()) {
	return s.storage.Watch(id)
}

func (s *Service) Count() int {
	return s.storage.Len()
}
