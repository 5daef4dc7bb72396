package storage

import (
	"sync"

	"zaphook/models"
)

// Storage - последние записи callback'ов по идентификатору.
// Живёт столько же, сколько процесс: без вытеснения и без сохранения на диск.
// Запись с тем же идентификатором перезаписывается целиком (last-write-wins).
type Storage struct {
	mu       sync.RWMutex
	records  map[string]models.Record
	watchers map[string]map[chan models.Record]struct{}
}

func NewStorage() *Storage {
	return &Storage{
		records:  make(map[string]models.Record),
		watchers: make(map[string]map[chan models.Record]struct{}),
	}
}

// Put сохраняет запись и уведомляет подписчиков на этот идентификатор
func (s *Storage) Put(id string, record models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = record

	for ch := range s.watchers[id] {
		// канал буферизован на одно значение, старое заменяем новым
		select {
		case <-ch:
		default:
		}
		ch <- record
	}
}

// Get возвращает запись; false, если её ещё нет
func (s *Storage) Get(id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	return record, exists
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Watch подписывает на следующие Put для id. Если запись уже есть,
// она сразу лежит в канале. cancel обязателен к вызову.
func (s *Storage) Watch(id string) (<-chan models.Record, func()) {
	ch := make(chan models.Record, 1)

	s.mu.Lock()
	if record, exists := s.records[id]; exists {
		ch <- record
	}
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[chan models.Record]struct{})
	}
	s.watchers[id][ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[id], ch)
		if len(s.watchers[id]) == 0 {
			delete(s.watchers, id)
		}
	}
	return ch, cancel
}
