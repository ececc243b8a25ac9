package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/repository"
)

const subscriberBuffer = 64

// ActivityLogService accumulates log entries in arrival order for the
// current activation cycle, mirrors each entry to the durable audit sink
// (best-effort), and fans new entries out to live subscribers.
type ActivityLogService struct {
	sink repository.LogRepo
	log  *logger.Logger

	mu        sync.Mutex
	entries   []models.LogEntry
	subs      map[int]chan models.LogEntry
	nextSubID int
}

var _ ActivityLog = (*ActivityLogService)(nil)

func NewActivityLogService(sink repository.LogRepo, log *logger.Logger) *ActivityLogService {
	return &ActivityLogService{
		sink: sink,
		log:  log,
		subs: make(map[int]chan models.LogEntry),
	}
}

// Append stamps the entry with the wall clock at call time and appends it.
// Prior entries are never mutated or removed within an activation.
func (s *ActivityLogService) Append(severity, message string) {
	e := models.LogEntry{
		EntryID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Severity:   severity,
		Message:    message,
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	chans := make([]chan models.LogEntry, 0, len(s.subs))
	for _, ch := range s.subs {
		chans = append(chans, ch)
	}
	s.mu.Unlock()

	// A slow live consumer loses entries; the pipeline never blocks on it.
	for _, ch := range chans {
		select {
		case ch <- e:
		default:
		}
	}

	if s.sink != nil {
		if err := s.sink.Append(context.Background(), e); err != nil && s.log != nil {
			s.log.Errorw("activity_sink_append_failed", "err", err)
		}
	}
}

// Entries returns a snapshot of the current activation's entries.
func (s *ActivityLogService) Entries() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset clears the in-memory log for a new activation cycle. The durable
// audit copy is untouched.
func (s *ActivityLogService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Subscribe registers a live consumer and returns its id and channel.
func (s *ActivityLogService) Subscribe() (int, <-chan models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	ch := make(chan models.LogEntry, subscriberBuffer)
	s.subs[s.nextSubID] = ch
	return s.nextSubID, ch
}

// Unsubscribe removes a live consumer. The channel is left open so an append
// racing the removal cannot panic; it is garbage collected with the reader.
func (s *ActivityLogService) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
