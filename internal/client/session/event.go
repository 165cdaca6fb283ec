package session

import "github.com/dmitrijs2005/gophloyalty/internal/client/models"

// State is the identity lifecycle state of the device.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// EventKind tags session transitions.
type EventKind int

const (
	// EventInitialSession carries the session found at startup, possibly nil.
	EventInitialSession EventKind = iota + 1
	// EventSignedIn fires when a session was just established on this device.
	EventSignedIn
	EventTokenRefreshed
	EventSignedOut
)

func (k EventKind) String() string {
	switch k {
	case EventInitialSession:
		return "initial_session"
	case EventSignedIn:
		return "signed_in"
	case EventTokenRefreshed:
		return "token_refreshed"
	case EventSignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event is one session transition. Session is a private copy.
type Event struct {
	Kind    EventKind
	Session *models.Session
	// Seq increases with every transition of the manager.
	Seq uint64
}

// JustEstablished reports whether the event is a fresh sign-in, as opposed
// to a session that already existed when the process started.
func (e Event) JustEstablished() bool {
	return e.Kind == EventSignedIn
}

// UserID returns the user of the event's session, or "".
func (e Event) UserID() string {
	if e.Session == nil {
		return ""
	}
	return e.Session.User.ID
}
