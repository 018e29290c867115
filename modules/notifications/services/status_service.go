package services

import (
	"sync"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/pkg/eventbus"
	"github.com/finenotify/finenotify/pkg/metrics"
)

// StatusService is the authoritative store of provider message ids and their
// latest known delivery state. Storage is volatile by contract: the map
// lives exactly as long as the process, ids are never deleted, and a write
// never fails. Last write wins; the provider guarantees no ordering beyond
// delivered/read arriving after sent.
type StatusService struct {
	publisher eventbus.EventBus

	mu       sync.RWMutex
	statuses map[string]delivery.Status
}

func NewStatusService(publisher eventbus.EventBus) *StatusService {
	return &StatusService{
		publisher: publisher,
		statuses:  make(map[string]delivery.Status),
	}
}

// RecordStatus upserts the state for id. A write that changes visible state
// is announced on the event bus so connected observers hear about it.
func (s *StatusService) RecordStatus(id string, status delivery.Status) {
	s.mu.Lock()
	prev, existed := s.statuses[id]
	s.statuses[id] = status
	s.mu.Unlock()

	if existed && prev == status {
		return
	}
	metrics.StatusesRecorded.WithLabelValues(status.String()).Inc()
	if s.publisher != nil {
		s.publisher.Publish(&StatusRecordedEvent{MessageID: id, Status: status})
	}
}

// GetStatus returns the latest state for id and whether the id is known.
func (s *StatusService) GetStatus(id string) (delivery.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[id]
	return status, ok
}

// AllStatuses returns a copy of the full store content; callers may
// mutate it freely.
func (s *StatusService) AllStatuses() map[string]delivery.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]delivery.Status, len(s.statuses))
	for id, status := range s.statuses {
		out[id] = status
	}
	return out
}

// Len reports the number of distinct ids ever recorded.
func (s *StatusService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses)
}
