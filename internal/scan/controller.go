package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/matcher"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/status"
	"go.uber.org/zap"
)

// Options tunes the scan loop.
type Options struct {
	// MinInterval is the pause after every message before the next one is
	// fetched, to stay gentle with the remote service.
	MinInterval time.Duration
}

// run is one execution of a Request.
type run struct {
	id        string
	session   string
	req       Request
	startedAt time.Time
	cancel    *Signal

	scanned   atomic.Int64
	matched   atomic.Int64
	forwarded atomic.Int64
	lastMsgID atomic.Int64
}

func (r *run) progress() Progress {
	return Progress{
		RunID:     r.id,
		Scanned:   r.scanned.Load(),
		Matched:   r.matched.Load(),
		Forwarded: r.forwarded.Load(),
		LastMsgID: int(r.lastMsgID.Load()),
	}
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State    status.State
	Session  string
	Current  *Progress
	Target   string
	Keywords []string
	Started  time.Time
	Last     *Finished
}

// Controller owns the scan state and drives at most one scan at a time on a
// background goroutine. Progress and completion are published on the bus.
type Controller struct {
	client   Client
	machine  *status.Machine
	selector *session.Selector
	bus      *bus.Bus
	logger   *zap.Logger
	opts     Options

	ctx        context.Context
	cancelBase context.CancelFunc

	mu      sync.Mutex
	current *run
	last    *Finished
	done    chan struct{}
}

// NewController creates a stopped controller.
func NewController(client Client, machine *status.Machine, selector *session.Selector, b *bus.Bus, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		client:     client,
		machine:    machine,
		selector:   selector,
		bus:        b,
		logger:     logger,
		opts:       opts,
		ctx:        ctx,
		cancelBase: cancel,
	}
}

// Start validates req, moves the state to Running with the active session
// pinned, and launches the scan. An invalid request leaves the state Stopped
// and never touches the messaging client.
func (c *Controller) Start(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if c.ctx.Err() != nil {
		return "", fmt.Errorf("controller closed: %w", c.ctx.Err())
	}

	var (
		r    *run
		done chan struct{}
	)
	err := c.selector.Pin(func(active string) error {
		// Stop blocks on c.mu, so it never sees Running without the run.
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.machine.Transition(status.Running); err != nil {
			return ErrAlreadyRunning
		}
		r = &run{
			id:        uuid.NewString(),
			session:   active,
			req:       req,
			startedAt: time.Now(),
			cancel:    NewSignal(),
		}
		done = make(chan struct{})
		c.current = r
		c.done = done
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("scan started",
		zap.String("run_id", r.id),
		zap.String("session", r.session),
		zap.String("target", req.Target),
		zap.Strings("keywords", req.Keywords))
	c.bus.Emit(bus.KindScanStarted, Started{
		RunID:     r.id,
		Session:   r.session,
		Target:    req.Target,
		Keywords:  req.Keywords,
		StartedAt: r.startedAt,
	})

	go func() {
		defer close(done)
		err := c.execute(c.ctx, r)
		c.finish(r, err)
	}()

	return r.id, nil
}

// Stop requests cancellation of the running scan. It returns false when
// nothing is running. The scan observes the request after the current
// message and its pause, before fetching more history.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return false
	}
	r.cancel.Request()
	c.logger.Info("scan stop requested", zap.String("run_id", r.id))
	return true
}

// Done returns a channel closed when the most recently started scan ends.
// It is closed already if no scan was ever started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Shutdown stops any running scan, aborts in-flight network calls and waits
// for the scan goroutine to exit or ctx to expire.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Stop()
	c.cancelBase()
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state, the in-flight run and the last result.
func (c *Controller) Snapshot() Snapshot {
	// The selector is locked before c.mu in Start.
	active := c.selector.Active()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:   c.machine.Current(),
		Session: active,
		Last:    c.last,
	}
	if c.current != nil {
		p := c.current.progress()
		snap.Current = &p
		snap.Session = c.current.session
		snap.Target = c.current.req.Target
		snap.Keywords = c.current.req.Keywords
		snap.Started = c.current.startedAt
	}
	return snap
}

// Run executes req against sessionName synchronously, polling cancel once
// per message. It does not touch the scan state; Start wraps it for that.
func (c *Controller) Run(ctx context.Context, req Request, sessionName string, cancel *Signal) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if cancel == nil {
		cancel = NewSignal()
	}
	return c.execute(ctx, &run{
		id:        uuid.NewString(),
		session:   sessionName,
		req:       req,
		startedAt: time.Now(),
		cancel:    cancel,
	})
}

func (c *Controller) execute(ctx context.Context, r *run) error {
	m := matcher.New(r.req.Keywords)

	entered := false
	err := c.client.Connect(ctx, r.session, func(ctx context.Context, conn Conn) error {
		entered = true
		return c.scan(ctx, conn, r, m)
	})
	if err == nil {
		return nil
	}

	var scanErr *Error
	if errors.As(err, &scanErr) {
		return scanErr
	}
	if ctx.Err() != nil {
		// Daemon shutdown.
		return nil
	}
	if !entered {
		return &Error{Kind: ErrConnectionFailed, Err: err}
	}
	return &Error{Kind: ErrUnclassified, Err: err}
}

func (c *Controller) scan(ctx context.Context, conn Conn, r *run, m *matcher.Matcher) error {
	history, err := conn.History(ctx, r.req.Target)
	if err != nil {
		return &Error{Kind: ErrUnclassified, Err: fmt.Errorf("open history of %q: %w", r.req.Target, err)}
	}

	for history.Next(ctx) {
		if r.cancel.Requested() {
			return nil
		}

		msg := history.Message()
		r.scanned.Add(1)
		r.lastMsgID.Store(int64(msg.ID))

		if msg.Text != "" {
			if kw, ok := m.Match(msg.Text); ok {
				r.matched.Add(1)
				if err := conn.Forward(ctx, r.req.Target, msg.ID); err != nil {
					return &Error{Kind: ErrForwardFailed, MsgID: msg.ID, Err: err}
				}
				r.forwarded.Add(1)
				c.logger.Debug("message forwarded",
					zap.String("run_id", r.id),
					zap.Int("msg_id", msg.ID),
					zap.String("keyword", kw))
				c.bus.Emit(bus.KindScanForwarded, Forwarded{
					RunID:       r.id,
					MsgID:       msg.ID,
					Keyword:     kw,
					ForwardedAt: time.Now(),
				})
			}
		}

		c.bus.Emit(bus.KindScanProgress, r.progress())

		if err := c.yield(ctx); err != nil {
			return err
		}
		if r.cancel.Requested() {
			return nil
		}
	}

	if err := history.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: ErrUnclassified, Err: fmt.Errorf("read history: %w", err)}
	}
	return nil
}

func (c *Controller) yield(ctx context.Context) error {
	if c.opts.MinInterval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.opts.MinInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) finish(r *run, err error) {
	fin := Finished{
		Progress:   r.progress(),
		Session:    r.session,
		Target:     r.req.Target,
		Outcome:    OutcomeCompleted,
		FinishedAt: time.Now(),
	}
	switch {
	case err != nil:
		fin.Outcome = OutcomeFailed
		fin.ErrorKind = KindName(err)
		fin.Error = err.Error()
	case r.cancel.Requested() || c.ctx.Err() != nil:
		fin.Outcome = OutcomeCancelled
	}

	c.mu.Lock()
	if c.current == r {
		c.current = nil
	}
	c.last = &fin
	c.mu.Unlock()

	if terr := c.machine.Transition(status.Stopped); terr != nil {
		c.logger.Error("scan state out of sync", zap.Error(terr), zap.String("run_id", r.id))
	}

	fields := []zap.Field{
		zap.String("run_id", r.id),
		zap.String("outcome", string(fin.Outcome)),
		zap.Int64("scanned", fin.Scanned),
		zap.Int64("matched", fin.Matched),
		zap.Int64("forwarded", fin.Forwarded),
	}
	if err != nil {
		c.logger.Error("scan failed", append(fields, zap.Error(err))...)
	} else {
		c.logger.Info("scan finished", fields...)
	}
	c.bus.Emit(bus.KindScanFinished, fin)
}
