package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"zaphook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	s := NewStorage()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Put("a", models.Record{RequestID: "a", Status: "received"})
	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "received", rec.Status)
	assert.Equal(t, 1, s.Len())
}

func TestLastWriteWins(t *testing.T) {
	s := NewStorage()

	s.Put("a", models.Record{RequestID: "a", Status: "first", FixedCurl: "curl http://old"})
	s.Put("a", models.Record{RequestID: "a", Status: "second"})

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", rec.Status)
	assert.Empty(t, rec.FixedCurl, "overwrite must replace the record wholesale")
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentPut(t *testing.T) {
	s := NewStorage()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%d", i%5)
			s.Put(id, models.Record{RequestID: id, Status: fmt.Sprint(i)})
			s.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}

func TestWatchReceivesNextPut(t *testing.T) {
	s := NewStorage()

	ch, cancel := s.Watch("w")
	defer cancel()

	go s.Put("w", models.Record{RequestID: "w", Status: "completed"})

	select {
	case rec := <-ch:
		assert.Equal(t, "completed", rec.Status)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for record")
	}
}

func TestWatchExistingRecord(t *testing.T) {
	s := NewStorage()
	s.Put("w", models.Record{RequestID: "w", Status: "done"})

	ch, cancel := s.Watch("w")
	defer cancel()

	select {
	case rec := <-ch:
		assert.Equal(t, "done", rec.Status)
	default:
		t.Fatal("Expected record to be available immediately")
	}
}

func TestWatchKeepsLatest(t *testing.T) {
	s := NewStorage()

	ch, cancel := s.Watch("w")
	defer cancel()

	s.Put("w", models.Record{Status: "1"})
	s.Put("w", models.Record{Status: "2"})

	rec := <-ch
	assert.Equal(t, "2", rec.Status)
}

func TestWatchCancel(t *testing.T) {
	s := NewStorage()

	_, cancel := s.Watch("w")
	cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.watchers)
}
