/*
Package audit records who changed what and the human-readable timeline
of assignment activity.

Recording is fire-and-forget: the services hand records to a buffered
channel and move on. A single worker drains the channel into the sink.
When the buffer is full the record is dropped and the drop is logged;
audit must never slow down or fail the operation it describes.
*/
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/asset-inventory/inventory"
)

// ChangeRecord is a persisted audit entry.
type ChangeRecord struct {
	ID         string
	EntityType string
	EntityID   string
	ActorID    string
	Field      string
	OldValue   string // JSON-encoded, empty for creates/deletes
	NewValue   string
	RecordedAt time.Time
}

// TimelineEvent is a persisted timeline entry.
type TimelineEvent struct {
	ID          string
	Title       string
	Description string
	Metadata    map[string]string
	RecordedAt  time.Time
}

// Sink persists audit records. Implemented by the sqlite store and by
// MemorySink for tests.
type Sink interface {
	SaveChange(ctx context.Context, c ChangeRecord) error
	SaveEvent(ctx context.Context, e TimelineEvent) error
}

// DefaultBuffer is the channel depth before records are dropped.
const DefaultBuffer = 256

type record struct {
	change *ChangeRecord
	event  *TimelineEvent
}

// Emitter implements inventory.Recorder over a Sink.
type Emitter struct {
	sink Sink
	log  *zap.Logger

	queue chan record
	done  chan struct{}
	once  sync.Once
}

func NewEmitter(sink Sink, buffer int, log *zap.Logger) *Emitter {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Emitter{
		sink:  sink,
		log:   log,
		queue: make(chan record, buffer),
		done:  make(chan struct{}),
	}
	go e.drain()
	return e
}

// Change implements inventory.Recorder. Never blocks.
func (e *Emitter) Change(_ context.Context, c inventory.Change) {
	rec := ChangeRecord{
		ID:         inventory.NewID(),
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		ActorID:    c.ActorID,
		Field:      c.Field,
		OldValue:   encode(c.OldValue),
		NewValue:   encode(c.NewValue),
		RecordedAt: time.Now().UTC(),
	}
	select {
	case e.queue <- record{change: &rec}:
	default:
		e.log.Warn("audit buffer full, change dropped",
			zap.String("entity_type", c.EntityType),
			zap.String("entity_id", c.EntityID),
			zap.String("field", c.Field))
	}
}

// Timeline implements inventory.Recorder. Never blocks.
func (e *Emitter) Timeline(_ context.Context, ev inventory.Event) {
	rec := TimelineEvent{
		ID:          inventory.NewID(),
		Title:       ev.Title,
		Description: ev.Description,
		Metadata:    ev.Metadata,
		RecordedAt:  time.Now().UTC(),
	}
	select {
	case e.queue <- record{event: &rec}:
	default:
		e.log.Warn("audit buffer full, timeline event dropped",
			zap.String("title", ev.Title))
	}
}

// Close stops accepting records, flushes the queue, and waits for the
// worker to finish.
func (e *Emitter) Close() {
	e.once.Do(func() {
		close(e.queue)
		<-e.done
	})
}

func (e *Emitter) drain() {
	defer close(e.done)
	// Sink writes get their own deadline; the caller's context is long
	// gone by the time the worker picks the record up.
	for rec := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		switch {
		case rec.change != nil:
			err = e.sink.SaveChange(ctx, *rec.change)
		case rec.event != nil:
			err = e.sink.SaveEvent(ctx, *rec.event)
		}
		cancel()
		if err != nil {
			e.log.Error("audit sink write failed", zap.Error(err))
		}
	}
}

func encode(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// =============================================================================
// MEMORY SINK
// =============================================================================

// MemorySink collects records in memory. Used in tests.
type MemorySink struct {
	mu      sync.Mutex
	changes []ChangeRecord
	events  []TimelineEvent
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) SaveChange(_ context.Context, c ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, c)
	return nil
}

func (s *MemorySink) SaveEvent(_ context.Context, e TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *MemorySink) Changes() []ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChangeRecord(nil), s.changes...)
}

func (s *MemorySink) Events() []TimelineEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TimelineEvent(nil), s.events...)
}
