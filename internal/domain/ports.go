package domain

import (
	"context"
	"errors"
)

// ErrLocalIdentifier is returned by the remote backend when a guest-mode id
// reaches an operation that would send it to the document store.
var ErrLocalIdentifier = errors.New("local identifier cannot be sent to the remote store")

// SnapshotSink receives full collection snapshots from the active backend.
// Backends always deliver the whole current state, never diffs.
type SnapshotSink interface {
	ApplyGroups(groups []Group)
	ApplyMessages(messages []Message)
}

// GroupPatch is a partial update of a group document. Nil fields are left
// untouched.
type GroupPatch struct {
	Title      *string
	LastActive *int64
	Snippet    *string
	IsArchived *bool
}

// Backend is one storage variant of the dual-mode data layer. The sync engine
// holds exactly one active Backend at a time and swaps it on identity
// transitions.
//
// The guest variant applies snapshots synchronously inside each mutation; the
// remote variant acknowledges writes asynchronously and redelivers state
// through its live subscription.
type Backend interface {
	// Start binds the sink and begins snapshot delivery. The first snapshot
	// pair arrives before Start returns for the guest variant, and whenever
	// the store answers for the remote variant.
	Start(ctx context.Context, sink SnapshotSink) error
	// Stop tears down subscriptions. Safe to call more than once.
	Stop()

	// CreateGroup persists g and returns its id synchronously, before any
	// write acknowledgement. g.ID is ignored.
	CreateGroup(ctx context.Context, g Group) (DocID, error)
	PatchGroup(ctx context.Context, id DocID, p GroupPatch) error

	// AppendMessage persists m and returns its id synchronously. m.ID is
	// ignored.
	AppendMessage(ctx context.Context, m Message) (DocID, error)
	UpdateMessageText(ctx context.Context, id DocID, text string) error
	DeleteMessage(ctx context.Context, id DocID) error
}

// AuthProvider tracks the current identity. State changes (restored session,
// sign-in, sign-out) are pushed through StateChanges; a nil user means no
// identity.
type AuthProvider interface {
	SignIn(ctx context.Context) (*User, error)
	SignOut(ctx context.Context) error
	StateChanges() <-chan *User
}

// EventSource fetches the external agenda. A missing credential yields an
// empty slice, not an error.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]CalendarEvent, error)
}

// TextGenerator defines how the application talks to the text-generation
// service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CredentialCache stores the calendar access token for the lifetime of a
// session. Load returns "" without error when nothing is cached.
type CredentialCache interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
