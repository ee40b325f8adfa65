// Package journal records encounter events (deaths and boss phase changes)
// off the simulation goroutine.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/event"
)

// Record is one persisted encounter event.
type Record struct {
	ID          uuid.UUID
	SceneID     string
	Event       string
	SubjectID   string
	SubjectKind string
	At          time.Time
	Data        map[string]any
}

// FromEvent converts a bus event into a Record with a fresh ID.
func FromEvent(e event.Event) Record {
	rec := Record{
		ID:      uuid.New(),
		SceneID: e.SceneID,
		Event:   e.Name,
		At:      e.At,
		Data:    e.Data,
	}
	if e.Subject != nil {
		rec.SubjectID = e.Subject.ID()
		rec.SubjectKind = e.Subject.Kind()
	}
	return rec
}

// Repository persists records.
type Repository interface {
	RecordEvent(ctx context.Context, rec Record) error
}

// Events lists the bus events a Recorder attaches to.
var Events = []string{event.EnemyDied, event.PlayerDied, event.PhaseChanged}

// Recorder queues records from the bus and writes them on its Run goroutine.
//
// Invariant: Enqueue never blocks; a full queue drops the record.
type Recorder struct {
	repo    Repository
	queue   chan Record
	timeout time.Duration
	logger  *zap.Logger

	dropped atomic.Uint64
	written atomic.Uint64

	mu     sync.Mutex
	unsubs []func()
}

// NewRecorder creates a Recorder.
//
// Precondition: repo must be non-nil; bufferSize >= 1; writeTimeout > 0.
func NewRecorder(repo Repository, bufferSize int, writeTimeout time.Duration, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Recorder{
		repo:    repo,
		queue:   make(chan Record, bufferSize),
		timeout: writeTimeout,
		logger:  logger,
	}
}

// Attach subscribes the recorder to every journaled event on bus.
func (r *Recorder) Attach(bus *event.Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range Events {
		r.unsubs = append(r.unsubs, bus.Subscribe(name, func(e event.Event) { r.Enqueue(e) }))
	}
}

// Detach removes every subscription made by Attach.
func (r *Recorder) Detach() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// Enqueue queues e for writing and reports whether it was accepted.
func (r *Recorder) Enqueue(e event.Event) bool {
	rec := FromEvent(e)
	select {
	case r.queue <- rec:
		return true
	default:
		n := r.dropped.Add(1)
		r.logger.Warn("journal queue full, record dropped",
			zap.String("event", rec.Event),
			zap.String("scene", rec.SceneID),
			zap.Uint64("dropped", n),
		)
		return false
	}
}

// Dropped returns the number of records dropped so far.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns the number of records written so far.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Run writes queued records until ctx is cancelled, then flushes whatever is
// still queued using fresh per-write timeouts.
//
// Postcondition: returns nil; write failures are logged, not returned.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return nil
		case rec := <-r.queue:
			r.write(ctx, rec)
		}
	}
}

func (r *Recorder) flush() {
	for {
		select {
		case rec := <-r.queue:
			r.write(context.Background(), rec)
		default:
			return
		}
	}
}

func (r *Recorder) write(parent context.Context, rec Record) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()
	if err := r.repo.RecordEvent(ctx, rec); err != nil {
		r.logger.Warn("journal write failed",
			zap.String("event", rec.Event),
			zap.String("id", rec.ID.String()),
			zap.Error(err),
		)
		return
	}
	r.written.Add(1)
}
