package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rpggio/tygron-connector/internal/obs"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/tidwall/gjson"
)

// DefaultInitTimeout bounds how long CreateProject waits for the platform to
// confirm the map width and stakeholders.
const DefaultInitTimeout = 15 * time.Second

// WaitState is the lifecycle of an InitWaiter.
type WaitState int32

const (
	StateIdle WaitState = iota
	StateWaiting
	StateCompleted
	StateFailed
)

func (s WaitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("WaitState(%d)", int32(s))
	}
}

// InitWaiter blocks until a new project's stakeholder list and map width have
// both been confirmed by the platform. It subscribes when constructed, so it
// must be created before the requests that trigger the confirmations.
type InitWaiter struct {
	timeout time.Duration
	logger  *slog.Logger

	stakeholders <-chan remote.Notification
	mapWidth     <-chan remote.Notification
	cancels      []func()
	closeOnce    sync.Once

	state atomic.Int32
	err   error
}

// NewInitWaiter subscribes to the confirmation notifications of sub. A
// non-positive timeout means DefaultInitTimeout.
func NewInitWaiter(sub Subscriber, timeout time.Duration, logger *slog.Logger) *InitWaiter {
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &InitWaiter{timeout: timeout, logger: logger}

	var cancelStakeholders, cancelWidth func()
	w.stakeholders, cancelStakeholders = sub.Subscribe(remote.LinkStakeholders, "")
	w.mapWidth, cancelWidth = sub.Subscribe(remote.LinkSettings, remote.SettingMapWidthMeters)
	w.cancels = []func(){cancelStakeholders, cancelWidth}
	w.state.Store(int32(StateWaiting))
	return w
}

// State reports where the waiter is in its lifecycle.
func (w *InitWaiter) State() WaitState {
	return WaitState(w.state.Load())
}

// Wait returns nil as soon as both confirmations have arrived, ErrTimeout if
// the timeout elapses first, or the context error. Calling Wait after it has
// finished returns the same outcome.
func (w *InitWaiter) Wait(ctx context.Context) error {
	switch w.State() {
	case StateCompleted:
		return nil
	case StateFailed:
		return w.err
	}

	start := time.Now()
	defer func() { obs.InitWaitSeconds.Observe(time.Since(start).Seconds()) }()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	stakeholders, mapWidth := w.stakeholders, w.mapWidth
	for stakeholders != nil || mapWidth != nil {
		select {
		case n := <-stakeholders:
			w.logger.Info("stakeholders updated", "count", len(gjson.ParseBytes(n.Items).Array()))
			stakeholders = nil
		case n := <-mapWidth:
			width, err := n.IntValue()
			if err != nil {
				w.logger.Warn("map width notification without integer value", "error", err)
			} else {
				w.logger.Info("map width set", "meters", width)
			}
			mapWidth = nil
		case <-timer.C:
			return w.fail(fmt.Errorf("%w after %s (map width confirmed: %t, stakeholders confirmed: %t)",
				ErrTimeout, w.timeout, mapWidth == nil, stakeholders == nil))
		case <-ctx.Done():
			return w.fail(fmt.Errorf("waiting for project initialization: %w", ctx.Err()))
		}
	}

	w.state.Store(int32(StateCompleted))
	return nil
}

// Close cancels the subscriptions.
func (w *InitWaiter) Close() {
	w.closeOnce.Do(func() {
		for _, cancel := range w.cancels {
			cancel()
		}
	})
}

func (w *InitWaiter) fail(err error) error {
	w.err = err
	w.state.Store(int32(StateFailed))
	return err
}
