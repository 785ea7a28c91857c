package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/anota/internal/domain"
	"github.com/PabloGalante/anota/internal/observability"
)

// State of the engine's session machine.
type State string

const (
	StateUndetermined  State = "undetermined"
	StateGuest         State = "guest"
	StateAuthenticated State = "authenticated"
)

// DefaultGroupTitle is used when a group is created with a blank title.
const DefaultGroupTitle = "Novo Grupo"

// Options wires the engine's collaborators. NewGuestBackend must return a
// fresh seeded guest store; NewRemoteBackend opens the remote variant for one
// owner.
type Options struct {
	Provider         domain.AuthProvider
	Events           domain.EventSource
	NewGuestBackend  func() domain.Backend
	NewRemoteBackend func(owner domain.UserID) (domain.Backend, error)
	Now              func() time.Time
}

// Engine reconciles local state with the remote store and exposes one CRUD
// surface regardless of mode. It is the only writer of the exposed
// collections; presentation code receives copies.
type Engine struct {
	provider  domain.AuthProvider
	events    domain.EventSource
	newGuest  func() domain.Backend
	newRemote func(owner domain.UserID) (domain.Backend, error)
	now       func() time.Time

	mu        sync.Mutex
	state     State
	user      *domain.User
	active    domain.Backend
	groups    []domain.Group
	messages  []domain.Message
	agenda    []domain.CalendarEvent
}

func NewEngine(o Options) *Engine {
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Engine{
		provider:  o.Provider,
		events:    o.Events,
		newGuest:  o.NewGuestBackend,
		newRemote: o.NewRemoteBackend,
		now:       o.Now,
		state:     StateUndetermined,
	}
}

// Run consumes identity changes until ctx is done. Intended to run on its own
// goroutine for the lifetime of the application.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return
		case u, ok := <-e.provider.StateChanges():
			if !ok {
				e.teardown()
				return
			}
			if u != nil {
				e.enterAuthenticated(ctx, u)
			} else {
				e.enterGuest(ctx)
			}
		}
	}
}

// teardown stops the active backend, exactly once per transition. The
// backends' Stop is idempotent, so a racing ctx cancellation is harmless.
func (e *Engine) teardown() {
	e.mu.Lock()
	active := e.active
	e.active = nil
	e.mu.Unlock()

	if active != nil {
		active.Stop()
	}
}

func (e *Engine) enterGuest(ctx context.Context) {
	e.teardown()

	backend := e.newGuest()

	e.mu.Lock()
	e.state = StateGuest
	e.user = nil
	e.active = backend
	e.groups = nil
	e.messages = nil
	e.agenda = PlaceholderAgenda()
	e.mu.Unlock()

	if err := backend.Start(ctx, &backendSink{engine: e, backend: backend}); err != nil {
		observability.Logger().Error("starting guest backend", "error", err)
	}
	observability.Logger().Info("entered guest mode")
}

func (e *Engine) enterAuthenticated(ctx context.Context, u *domain.User) {
	e.teardown()

	log := observability.Logger().With("uid", u.UID)

	backend, err := e.newRemote(u.UID)
	if err != nil {
		// Without a remote backend the session is unusable; stay guest.
		log.Error("opening remote backend", "error", err)
		e.enterGuest(ctx)
		return
	}

	e.mu.Lock()
	e.state = StateAuthenticated
	e.user = u
	e.active = backend
	e.groups = nil
	e.messages = nil
	e.mu.Unlock()

	if err := backend.Start(ctx, &backendSink{engine: e, backend: backend}); err != nil {
		log.Error("starting remote backend", "error", err)
	}

	go e.RefreshAgenda(ctx)
	log.Info("entered authenticated mode")
}

// backendSink forwards snapshots into the engine, but only while its backend
// is still the active one. Late deliveries from a torn-down subscription are
// dropped.
type backendSink struct {
	engine  *Engine
	backend domain.Backend
}

func (s *backendSink) ApplyGroups(groups []domain.Group) {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != s.backend {
		return
	}
	// Groups are kept sorted by recency; snapshots arrive in store order.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastActive > groups[j].LastActive
	})
	e.groups = groups
}

func (s *backendSink) ApplyMessages(messages []domain.Message) {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != s.backend {
		return
	}
	e.messages = messages
}

// ─────────────────────────────────────────────
// Session intents
// ─────────────────────────────────────────────

func (e *Engine) SignIn(ctx context.Context) error {
	if _, err := e.provider.SignIn(ctx); err != nil {
		observability.Logger().Error("sign-in failed", "error", err)
		return fmt.Errorf("sign-in failed: %w", err)
	}
	return nil
}

func (e *Engine) SignOut(ctx context.Context) error {
	if err := e.provider.SignOut(ctx); err != nil {
		observability.Logger().Error("sign-out failed", "error", err)
		return fmt.Errorf("sign-out failed: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────
// Read surface
// ─────────────────────────────────────────────

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) CurrentUser() *domain.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user == nil {
		return nil
	}
	u := *e.user
	return &u
}

func (e *Engine) Groups() []domain.Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Group, len(e.groups))
	copy(out, e.groups)
	return out
}

func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) Agenda() []domain.CalendarEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.CalendarEvent, len(e.agenda))
	copy(out, e.agenda)
	return out
}

// MessagesForGroup returns the group's messages in ascending timestamp order.
// Recomputed on every call; the exposed collection is always the latest known
// snapshot.
func (e *Engine) MessagesForGroup(groupID domain.DocID) []domain.Message {
	e.mu.Lock()
	var out []domain.Message
	for _, m := range e.messages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	e.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// ─────────────────────────────────────────────
// Write surface
// ─────────────────────────────────────────────

// activeBackend snapshots the current backend and owner together, so an
// operation never straddles an identity transition.
func (e *Engine) activeBackend() (domain.Backend, *domain.User) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.user
}

// CreateGroup allocates and returns the new group's id synchronously. The
// optional initial note becomes the group's first message and snippet.
func (e *Engine) CreateGroup(ctx context.Context, title, initialNote string) (domain.DocID, error) {
	backend, user := e.activeBackend()
	if backend == nil {
		return domain.DocID{}, fmt.Errorf("no active backend")
	}

	if strings.TrimSpace(title) == "" {
		title = DefaultGroupTitle
	}
	nowMs := e.now().UnixMilli()

	g := domain.Group{
		Title:      title,
		LastActive: nowMs,
		Snippet:    initialNote,
	}
	if user != nil {
		g.OwnerID = user.UID
	}

	id, err := backend.CreateGroup(ctx, g)
	if err != nil {
		observability.Logger().Error("create group failed", "error", err)
		return domain.DocID{}, err
	}

	if initialNote != "" {
		m := domain.Message{
			GroupID:   id,
			Text:      initialNote,
			Sender:    domain.SenderMe,
			Timestamp: nowMs,
			OwnerID:   g.OwnerID,
		}
		if _, err := backend.AppendMessage(ctx, m); err != nil {
			observability.Logger().Error("seeding group note failed", "group_id", id.Value, "error", err)
		}
	}
	return id, nil
}

// AddMessage appends a note and touches the parent group's recency and
// snippet.
func (e *Engine) AddMessage(ctx context.Context, groupID domain.DocID, text string) error {
	backend, user := e.activeBackend()
	if backend == nil {
		return fmt.Errorf("no active backend")
	}

	nowMs := e.now().UnixMilli()
	m := domain.Message{
		GroupID:   groupID,
		Text:      text,
		Sender:    domain.SenderMe,
		Timestamp: nowMs,
	}
	if user != nil {
		m.OwnerID = user.UID
	}

	if _, err := backend.AppendMessage(ctx, m); err != nil {
		observability.Logger().Error("add message failed", "group_id", groupID.Value, "error", err)
		return err
	}

	patch := domain.GroupPatch{LastActive: &nowMs, Snippet: &text}
	if err := backend.PatchGroup(ctx, groupID, patch); err != nil {
		observability.Logger().Error("touching group failed", "group_id", groupID.Value, "error", err)
		return err
	}
	return nil
}

func (e *Engine) UpdateMessage(ctx context.Context, id domain.DocID, text string) error {
	backend, _ := e.activeBackend()
	if backend == nil {
		return fmt.Errorf("no active backend")
	}
	if err := backend.UpdateMessageText(ctx, id, text); err != nil {
		observability.Logger().Error("update message failed", "message_id", id.Value, "error", err)
		return err
	}
	return nil
}

func (e *Engine) DeleteMessage(ctx context.Context, id domain.DocID) error {
	backend, _ := e.activeBackend()
	if backend == nil {
		return fmt.Errorf("no active backend")
	}
	if err := backend.DeleteMessage(ctx, id); err != nil {
		observability.Logger().Error("delete message failed", "message_id", id.Value, "error", err)
		return err
	}
	return nil
}

// ArchiveGroup soft-deletes: the group is excluded from the primary listing
// but never removed. Repeating the call is a no-op.
func (e *Engine) ArchiveGroup(ctx context.Context, id domain.DocID) error {
	backend, _ := e.activeBackend()
	if backend == nil {
		return fmt.Errorf("no active backend")
	}
	archived := true
	return backend.PatchGroup(ctx, id, domain.GroupPatch{IsArchived: &archived})
}

// UpdateGroupTitle renames a group. Blank titles are ignored.
func (e *Engine) UpdateGroupTitle(ctx context.Context, id domain.DocID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	backend, _ := e.activeBackend()
	if backend == nil {
		return fmt.Errorf("no active backend")
	}
	return backend.PatchGroup(ctx, id, domain.GroupPatch{Title: &title})
}

// ─────────────────────────────────────────────
// Agenda
// ─────────────────────────────────────────────

// RefreshAgenda replaces the exposed agenda with the external calendar's view
// of the next days. Errors and empty fetches fall back to the placeholder set
// so the agenda is never blank.
func (e *Engine) RefreshAgenda(ctx context.Context) {
	events, err := e.events.FetchEvents(ctx)
	if err != nil {
		observability.Logger().Error("fetching agenda", "error", err)
	}
	if err != nil || len(events) == 0 {
		events = PlaceholderAgenda()
	}

	e.mu.Lock()
	e.agenda = events
	e.mu.Unlock()
}
