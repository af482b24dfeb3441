package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/mom/internal/model"
	"github.com/dukerupert/mom/internal/notify"
	"github.com/dukerupert/mom/internal/websocket"
	"github.com/google/uuid"
)

// ErrNoSubscribers is returned by Show when no browser has subscribed.
var ErrNoSubscribers = errors.New("no push subscriptions")

const sendTimeout = 15 * time.Second

// Subscriptions is the subscription storage the platform reads and prunes.
type Subscriptions interface {
	List() ([]model.PushSubscription, error)
	Count() (int, error)
	DeleteByEndpoint(endpoint string) error
}

// Broadcaster relays events to open browser sessions.
type Broadcaster interface {
	Broadcast(msg websocket.Message) int
}

// Platform shows reminders as web push notifications. The consent prompt
// is relayed to open browser sessions over the websocket; the browser
// answers through Answer once the user has decided.
type Platform struct {
	svc    *Service
	subs   Subscriptions
	hub    Broadcaster
	logger *slog.Logger

	mu      sync.Mutex
	pending chan notify.State
}

var _ notify.Platform = (*Platform)(nil)

func NewPlatform(svc *Service, subs Subscriptions, hub Broadcaster, logger *slog.Logger) *Platform {
	return &Platform{
		svc:    svc,
		subs:   subs,
		hub:    hub,
		logger: logger,
	}
}

// Supported reports whether VAPID keys are configured.
func (p *Platform) Supported() bool {
	return p.svc.Enabled()
}

// Permission treats an existing subscription as a standing grant. Denials
// are not persisted, so anything else is unknown.
func (p *Platform) Permission() notify.State {
	if !p.Supported() {
		return notify.StateUnsupported
	}
	n, err := p.subs.Count()
	if err != nil {
		p.logger.Warn("count push subscriptions", "error", err)
		return notify.StateUnknown
	}
	if n > 0 {
		return notify.StateGranted
	}
	return notify.StateUnknown
}

// RequestPermission asks every open browser session to show the consent
// prompt and waits for the first answer.
func (p *Platform) RequestPermission(ctx context.Context) (notify.State, error) {
	p.mu.Lock()
	if p.pending == nil {
		p.pending = make(chan notify.State, 1)
	}
	ch := p.pending
	p.mu.Unlock()

	n := p.hub.Broadcast(websocket.NewMessage(websocket.EntityPermission, "request", "", nil))
	p.logger.Info("permission prompt sent", "sessions", n)

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.pending == ch {
			p.pending = nil
		}
		p.mu.Unlock()
		return notify.StateUnknown, ctx.Err()
	}
}

// Prompting reports whether a consent prompt is waiting for an answer.
func (p *Platform) Prompting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Answer hands the user's decision to a waiting RequestPermission. It
// reports whether a prompt was waiting.
func (p *Platform) Answer(s notify.State) bool {
	p.mu.Lock()
	ch := p.pending
	p.pending = nil
	p.mu.Unlock()

	if ch == nil {
		return false
	}
	ch <- s
	return true
}

// Show pushes the notification to every subscription. Expired
// subscriptions are removed. It fails only when no subscription accepted
// the message.
func (p *Platform) Show(title, body string) (notify.Notification, error) {
	subs, err := p.subs.List()
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrNoSubscribers
	}

	tag := strings.ReplaceAll(uuid.NewString(), "-", "")
	payload := Payload{Type: "reminder", Title: title, Body: body, URL: "/", Tag: tag}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	var errs []error
	sent := 0
	for i := range subs {
		sub := &subs[i]
		err := p.svc.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			p.logger.Info("removing expired push subscription", "id", sub.ID, "device", sub.DeviceName)
			if err := p.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				p.logger.Warn("delete expired push subscription", "id", sub.ID, "error", err)
			}
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
		default:
			p.logger.Warn("send push", "id", sub.ID, "device", sub.DeviceName, "error", err)
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
		}
	}

	if sent == 0 {
		return nil, errors.Join(errs...)
	}
	return &notification{platform: p, tag: tag}, nil
}

type notification struct {
	platform *Platform
	tag      string
	once     sync.Once
}

// Close asks open sessions to dismiss the notification by tag.
func (n *notification) Close() error {
	n.once.Do(func() {
		n.platform.hub.Broadcast(websocket.NewMessage(websocket.EntityNotification, "dismiss", n.tag, nil))
	})
	return nil
}
