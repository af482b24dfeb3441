package notify

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=platform.go -destination=platform_mock.go -package=notify

// State is the notification authorization state of the host platform.
type State int

const (
	StateUnsupported State = iota
	StateUnknown
	StateGranted
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnsupported:
		return "unsupported"
	case StateUnknown:
		return "unknown"
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state as its lowercase name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decided reports whether the user has answered the consent prompt.
func (s State) Decided() bool {
	return s == StateGranted || s == StateDenied
}

// Platform is the notification capability of the host: it knows whether
// notifications exist at all, shows the consent prompt and displays
// notifications.
type Platform interface {
	Supported() bool
	Permission() State
	// RequestPermission shows the consent prompt and blocks until the user
	// answers or ctx is done.
	RequestPermission(ctx context.Context) (State, error)
	Show(title, body string) (Notification, error)
}

// Notification is a displayed notification that can be dismissed.
type Notification interface {
	Close() error
}
