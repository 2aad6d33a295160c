package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/store"
	"go.uber.org/zap"
)

// DefaultProgressInterval bounds how often in-flight counters are written.
const DefaultProgressInterval = time.Second

// Recorder persists scan events from the bus into the journal database.
// It subscribes to "scan." events.
type Recorder struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger

	progressEvery time.Duration
	lastProgress  map[string]time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRecorder creates a recorder. Progress counters of a run are written at
// most once per progressEvery; zero uses DefaultProgressInterval.
func NewRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger, progressEvery time.Duration) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progressEvery <= 0 {
		progressEvery = DefaultProgressInterval
	}
	return &Recorder{
		db:            db,
		bus:           b,
		logger:        logger,
		progressEvery: progressEvery,
		lastProgress:  make(map[string]time.Time),
	}
}

// Start closes runs a previous daemon left open and begins recording.
func (r *Recorder) Start(ctx context.Context) {
	if n, err := r.db.MarkInterrupted(); err != nil {
		r.logger.Error("failed to close interrupted runs", zap.Error(err))
	} else if n > 0 {
		r.logger.Warn("closed runs interrupted by a previous daemon", zap.Int64("count", n))
	}

	ctx, r.cancel = context.WithCancel(ctx)
	ch, unsub := r.bus.Subscribe("scan.", 4096)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsub()
		for {
			select {
			case evt := <-ch:
				r.handleEvent(evt)
			case <-ctx.Done():
				// Drain what is already queued so a final outcome is not lost.
				for {
					select {
					case evt := <-ch:
						r.handleEvent(evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop stops recording and waits for queued events to be written.
func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Recorder) handleEvent(evt bus.Event) {
	var err error
	switch p := evt.Payload.(type) {
	case scan.Started:
		err = r.RecordStarted(p)
	case scan.Progress:
		err = r.RecordProgress(p, evt.Timestamp)
	case scan.Forwarded:
		err = r.RecordForwarded(p)
	case scan.Finished:
		err = r.RecordFinished(p)
	default:
		return
	}
	if err != nil {
		r.logger.Error("failed to journal scan event", zap.Error(err), zap.String("kind", evt.Kind))
	}
}

// RecordStarted inserts the run row.
func (r *Recorder) RecordStarted(p scan.Started) error {
	if err := r.db.InsertRun(&store.Run{
		ID:        p.RunID,
		Session:   p.Session,
		Target:    p.Target,
		Keywords:  p.Keywords,
		StartedAt: p.StartedAt.UnixMilli(),
	}); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordProgress writes in-flight counters, throttled per run.
func (r *Recorder) RecordProgress(p scan.Progress, at time.Time) error {
	if last, ok := r.lastProgress[p.RunID]; ok && at.Sub(last) < r.progressEvery {
		return nil
	}
	r.lastProgress[p.RunID] = at
	if err := r.db.UpdateRunProgress(p.RunID, p.Scanned, p.Matched, p.Forwarded, p.LastMsgID); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// RecordForwarded journals one forwarded message.
func (r *Recorder) RecordForwarded(p scan.Forwarded) error {
	if err := r.db.InsertForward(&store.Forward{
		RunID:       p.RunID,
		MsgID:       p.MsgID,
		Keyword:     p.Keyword,
		ForwardedAt: p.ForwardedAt.UnixMilli(),
	}); err != nil {
		return fmt.Errorf("insert forward: %w", err)
	}
	return nil
}

// RecordFinished stores the outcome. The run row is created if its start
// event never arrived.
func (r *Recorder) RecordFinished(p scan.Finished) error {
	delete(r.lastProgress, p.RunID)

	run := &store.Run{
		ID:         p.RunID,
		Session:    p.Session,
		Target:     p.Target,
		StartedAt:  p.FinishedAt.UnixMilli(),
		FinishedAt: p.FinishedAt.UnixMilli(),
		Outcome:    string(p.Outcome),
		ErrorKind:  p.ErrorKind,
		Error:      p.Error,
		Scanned:    p.Scanned,
		Matched:    p.Matched,
		Forwarded:  p.Forwarded,
		LastMsgID:  p.LastMsgID,
	}
	if err := r.db.InsertRun(&store.Run{ID: run.ID, Session: run.Session, Target: run.Target, StartedAt: run.StartedAt}); err != nil {
		return fmt.Errorf("ensure run: %w", err)
	}
	if err := r.db.FinishRun(run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
