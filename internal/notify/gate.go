package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDisplayWindow is how long a delivered notification stays on screen.
const DefaultDisplayWindow = 6 * time.Second

// ErrUnsupported is returned by RequestPermission when the platform has no
// notification capability.
var ErrUnsupported = errors.New("notifications not supported")

// ErrDelivery wraps a panic raised while showing a notification.
var ErrDelivery = errors.New("notification delivery failed")

type permissionRequest struct {
	done  chan struct{}
	state State
	err   error
}

// Gate guards notification delivery behind user consent. The consent prompt
// is shown at most once at a time and never again after the user answered,
// unless RequestAgain is called.
type Gate struct {
	mu        sync.Mutex
	platform  Platform
	supported bool
	state     State
	inflight  *permissionRequest
	display   time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGate detects platform support once and seeds the state from the
// platform's current decision. A nil platform is treated as unsupported.
func NewGate(platform Platform, display time.Duration, logger *slog.Logger) *Gate {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gate{
		platform: platform,
		state:    StateUnsupported,
		display:  display,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	if platform != nil && platform.Supported() {
		g.supported = true
		g.state = StateUnknown
		if s := platform.Permission(); s.Decided() {
			g.state = s
		}
	}

	logger.Info("notification gate ready", "supported", g.supported, "state", g.state)
	return g
}

// CheckSupport reports whether the platform can show notifications at all.
func (g *Gate) CheckSupport() bool {
	return g.supported
}

// CurrentState returns the current authorization state.
func (g *Gate) CurrentState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CanNotify reports whether a notification may be delivered right now.
func (g *Gate) CanNotify() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.supported && g.state == StateGranted
}

// RequestPermission shows the consent prompt if the user has not decided
// yet and waits for the answer. Callers arriving while a prompt is open
// share its result. Once granted or denied it returns immediately without
// prompting. There is no timeout; only ctx releases a waiting caller, the
// prompt itself stays open.
func (g *Gate) RequestPermission(ctx context.Context) (State, error) {
	g.mu.Lock()
	if !g.supported {
		g.mu.Unlock()
		return StateUnsupported, ErrUnsupported
	}
	if g.state.Decided() {
		s := g.state
		g.mu.Unlock()
		return s, nil
	}

	req := g.inflight
	if req == nil {
		req = &permissionRequest{done: make(chan struct{})}
		g.inflight = req
		go g.prompt(req)
	}
	g.mu.Unlock()

	select {
	case <-req.done:
		return req.state, req.err
	case <-ctx.Done():
		return StateUnknown, ctx.Err()
	}
}

// RequestAgain is the explicit user-initiated retry after a denial. It
// resets a denied gate to unknown and prompts again.
func (g *Gate) RequestAgain(ctx context.Context) (State, error) {
	g.mu.Lock()
	if g.state == StateDenied {
		g.state = StateUnknown
	}
	g.mu.Unlock()
	return g.RequestPermission(ctx)
}

// Resolve records a decision the platform reported outside of a prompt the
// gate started, e.g. a browser that subscribed on its own.
func (g *Gate) Resolve(s State) {
	if !s.Decided() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.supported {
		return
	}
	if g.state != s {
		g.logger.Info("notification permission changed", "from", g.state, "to", s)
	}
	g.state = s
}

// Revoke returns a granted gate to unknown once nothing is left to deliver
// to, so the next reminder asks for consent again. Other states are kept.
func (g *Gate) Revoke() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateGranted {
		return
	}
	g.logger.Info("notification permission changed", "from", g.state, "to", StateUnknown)
	g.state = StateUnknown
}

func (g *Gate) prompt(req *permissionRequest) {
	s, err := g.platform.RequestPermission(g.ctx)

	g.mu.Lock()
	switch {
	case err != nil:
		req.err = fmt.Errorf("request permission: %w", err)
		g.logger.Warn("permission prompt failed", "error", err)
	case s.Decided() && !g.state.Decided():
		g.state = s
		g.logger.Info("notification permission decided", "state", s)
	}
	req.state = g.state
	g.inflight = nil
	g.mu.Unlock()

	close(req.done)
}

// Deliver shows a notification and dismisses it after the display window.
// It never fails loudly: without permission it does nothing, and platform
// errors are logged and dropped.
func (g *Gate) Deliver(title, body string) {
	if !g.CanNotify() {
		g.logger.Debug("notification suppressed", "title", title, "state", g.CurrentState())
		return
	}

	n, err := g.show(title, body)
	if err != nil {
		g.logger.Warn("deliver notification", "title", title, "error", err)
		return
	}
	if n == nil || g.display <= 0 {
		return
	}

	time.AfterFunc(g.display, func() {
		if err := n.Close(); err != nil {
			g.logger.Debug("dismiss notification", "title", title, "error", err)
		}
	})
}

func (g *Gate) show(title, body string) (n Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = nil
			err = fmt.Errorf("%w: %v", ErrDelivery, r)
		}
	}()
	return g.platform.Show(title, body)
}

// Close abandons any open consent prompt.
func (g *Gate) Close() {
	g.cancel()
}
