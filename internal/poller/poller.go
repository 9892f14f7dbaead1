// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
)

// ErrClosed is returned by refresh calls once the coordinator is closed.
var ErrClosed = errors.New("poller: closed")

const refreshKey = "refresh"

// Fetcher abstracts the device transport. One attempt per call.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// DecodeFunc turns a raw payload into a snapshot.
type DecodeFunc func(raw string) (decoder.Snapshot, error)

// Config is the minimal runtime config the coordinator needs.
// Interval is trusted as given; the config layer enforces its floor.
type Config struct {
	DeviceID string
	Interval time.Duration
}

// Coordinator owns the polling cadence and the device state.
// At most one cycle runs at a time; concurrent refresh requests share it.
type Coordinator struct {
	cfg       Config
	fetcher   Fetcher
	decode    DecodeFunc
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	state State

	life     context.Context
	cancel   context.CancelFunc
	lifeMu   sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithListener registers a listener. Listeners are called in order.
func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithDecoder(fn DecodeFunc) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.decode = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a coordinator with immutable config.
func New(cfg Config, fetcher Fetcher, opts ...Option) (*Coordinator, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if fetcher == nil {
		return nil, errors.New("poller: fetcher required")
	}

	c := &Coordinator{
		cfg:     cfg,
		fetcher: fetcher,
		decode:  decoder.Decode,
		logger:  slog.Default(),
		now:     time.Now,
		state: State{
			DeviceID: cfg.DeviceID,
			Snapshot: decoder.Empty(),
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("device", cfg.DeviceID)
	c.life, c.cancel = context.WithCancel(context.Background())

	return c, nil
}

// Interval returns the polling interval.
func (c *Coordinator) Interval() time.Duration { return c.cfg.Interval }

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// PollOnce fetches and decodes once. It does not touch State.
// All-or-nothing: any failure aborts the cycle.
func (c *Coordinator) PollOnce(ctx context.Context) PollResult {
	start := c.now()
	res := PollResult{
		DeviceID: c.cfg.DeviceID,
		At:       start,
	}

	raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		res.Err = err
		res.Duration = c.now().Sub(start)
		return res
	}

	snap, err := c.decode(raw)
	res.Duration = c.now().Sub(start)
	if err != nil {
		res.Err = err
		return res
	}

	res.Snapshot = snap
	return res
}

// FirstRefresh runs one cycle at startup. Unlike later cycles, its
// failure is returned: the caller must not bring consumers online.
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	st, err := c.RequestRefresh(ctx)
	if err != nil {
		return fmt.Errorf("poller: device unreachable at startup: %w", err)
	}
	if !st.Success {
		return fmt.Errorf("poller: device unreachable at startup: %w", st.Err)
	}
	return nil
}

// RequestRefresh runs a cycle out of band, or joins the one in flight,
// and returns the resulting state. Cycle failures are reported in the
// state, not as an error; err is non-nil only for ctx or ErrClosed.
func (c *Coordinator) RequestRefresh(ctx context.Context) (State, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.cycle()
	})

	select {
	case <-ctx.Done():
		return c.State(), ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return c.State(), r.Err
		}
		return r.Val.(State), nil
	}
}

// Close stops the coordinator. An in-flight fetch is aborted and its
// result discarded; Close returns once no cycle is running.
func (c *Coordinator) Close() {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return
	}
	c.closed = true
	c.lifeMu.Unlock()

	c.cancel()
	c.inflight.Wait()
}

func (c *Coordinator) cycle() (State, error) {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return State{}, ErrClosed
	}
	c.inflight.Add(1)
	c.lifeMu.Unlock()
	defer c.inflight.Done()

	res := c.PollOnce(c.life)

	// Torn down mid-cycle: drop the result.
	if c.life.Err() != nil {
		return State{}, ErrClosed
	}

	prev, next := c.commit(res)
	c.report(prev, next)

	for _, l := range c.listeners {
		if next.Success {
			l.Updated(next)
		} else {
			l.Unavailable(next)
		}
	}

	return next, nil
}

// commit applies a result as one unit.
func (c *Coordinator) commit(res PollResult) (prev, next State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev = c.state
	next = prev
	next.Initialized = true
	next.UpdatedAt = res.At
	next.Duration = res.Duration

	if res.Err == nil {
		next.Snapshot = res.Snapshot
		next.Success = true
		next.Err = nil
		next.LastSuccessAt = res.At
	} else {
		// previous snapshot stays
		next.Success = false
		next.Err = res.Err
	}

	c.state = next
	return prev, next
}

func (c *Coordinator) report(prev, next State) {
	if next.Success {
		if !prev.Available() {
			c.logger.Info("device available",
				"chlorine", next.Snapshot.Chlorine,
				"ph", next.Snapshot.PH,
				"temperature", next.Snapshot.Temperature,
			)
		}
		c.logger.Debug("poll ok", "duration", next.Duration, "snapshot", next.Snapshot)
		return
	}

	if prev.Available() || !prev.Initialized {
		c.logger.Info("device unavailable", "err", next.Err)
	}
	c.logger.Warn("poll failed", "err", next.Err, "duration", next.Duration)
}
