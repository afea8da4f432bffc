// Package history archives completed scans without blocking the request
// path. Records are queued to a background worker; when the queue is full
// the record is dropped and counted rather than stalling a response. The
// scan result itself is always returned inline, so a lost record costs an
// archive entry, never an answer.
package history

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/flagops/flagscrub/internal/report"
	"github.com/flagops/flagscrub/internal/store"
	"github.com/flagops/flagscrub/internal/telemetry"
)

const (
	persistTimeout = 5 * time.Second
	maxSaveRetries = 3
	retryBase      = 100 * time.Millisecond
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Recorder queues scan records and persists them in the background.
type Recorder struct {
	store  store.Store
	clock  Clock
	queue  chan store.Record
	stopCh chan struct{}
	done   chan struct{}
	closed int32 // atomic flag to prevent double-close
}

// NewRecorder creates a recorder writing to st and starts its worker.
func NewRecorder(st store.Store, clock Clock, queueSize int) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	if queueSize < 1 {
		queueSize = 1
	}

	r := &Recorder{
		store:  st,
		clock:  clock,
		queue:  make(chan store.Record, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go r.worker()

	return r
}

// Record queues rep for archival and returns the new record's ID. The
// second return is false when the record was dropped (queue full or
// recorder closed); archival is best-effort.
func (r *Recorder) Record(raw string, rep *report.Report) (uuid.UUID, bool) {
	if atomic.LoadInt32(&r.closed) == 1 {
		return uuid.Nil, false
	}

	rec := store.Record{
		ID:           uuid.New(),
		CreatedAt:    r.clock.Now().UTC(),
		InputHash:    store.HashInput(raw),
		Mode:         string(rep.Mode),
		InputKeys:    rep.InputKeys,
		KeptCount:    len(rep.Kept),
		RemovedCount: len(rep.RemovedIllegal),
		DroppedCount: len(rep.DroppedInvalid),
		CoercedCount: len(rep.Coercions),
		Fingerprint:  rep.Fingerprint,
		Output:       rep.Cleaned,
		Detail: store.Detail{
			RemovedIllegal: rep.RemovedIllegal,
			DroppedInvalid: rep.DroppedInvalid,
			Coercions:      rep.Coercions,
		},
	}

	select {
	case r.queue <- rec:
		return rec.ID, true
	default:
		telemetry.HistoryQueueDrops.Inc()
		log.Warn().Str("fingerprint", rec.Fingerprint).Msg("history queue full, dropping scan record")
		return uuid.Nil, false
	}
}

// worker persists queued records until stopped, then drains what remains.
func (r *Recorder) worker() {
	defer close(r.done)
	for {
		select {
		case rec := <-r.queue:
			r.persist(rec)
		case <-r.stopCh:
			for {
				select {
				case rec := <-r.queue:
					r.persist(rec)
				default:
					return
				}
			}
		}
	}
}

// persist writes one record, retrying transient store failures with
// fibonacci backoff before giving up.
func (r *Recorder) persist(rec store.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(maxSaveRetries, retry.NewFibonacci(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.store.SaveScan(ctx, rec); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("scan_id", rec.ID.String()).Msg("failed to archive scan")
	}
}

// Close stops the worker after draining pending records. Safe to call
// multiple times; records submitted after Close are dropped.
func (r *Recorder) Close() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil // Already closed
	}
	close(r.stopCh)
	<-r.done
	return nil
}
