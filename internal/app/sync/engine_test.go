package sync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	memorybackend "github.com/PabloGalante/anota/internal/adapters/storage/memory"
	appsync "github.com/PabloGalante/anota/internal/app/sync"
	"github.com/PabloGalante/anota/internal/app/view"
	"github.com/PabloGalante/anota/internal/domain"
)

// fakeProvider pushes identity states on demand.
type fakeProvider struct {
	ch chan *domain.User
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{ch: make(chan *domain.User, 8)}
}

func (p *fakeProvider) SignIn(ctx context.Context) (*domain.User, error) {
	u := &domain.User{UID: "user-1", DisplayName: "Teste"}
	p.ch <- u
	return u, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.ch <- nil
	return nil
}

func (p *fakeProvider) StateChanges() <-chan *domain.User { return p.ch }

func (p *fakeProvider) push(u *domain.User) { p.ch <- u }

// fakeEvents returns a fixed agenda, or nothing.
type fakeEvents struct {
	events []domain.CalendarEvent
	err    error
}

func (f *fakeEvents) FetchEvents(ctx context.Context) ([]domain.CalendarEvent, error) {
	return f.events, f.err
}

// fakeBackend records every call so tests can assert which variant an
// operation reached.
type fakeBackend struct {
	mu       sync.Mutex
	starts   int
	stops    int
	creates  int
	appends  int
	patches  int
	updates  int
	deletes  int
	sink     domain.SnapshotSink
}

func (b *fakeBackend) Start(ctx context.Context, sink domain.SnapshotSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts++
	b.sink = sink
	return nil
}

func (b *fakeBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
}

func (b *fakeBackend) CreateGroup(ctx context.Context, g domain.Group) (domain.DocID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	return domain.RemoteID("remote-group"), nil
}

func (b *fakeBackend) PatchGroup(ctx context.Context, id domain.DocID, p domain.GroupPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patches++
	return nil
}

func (b *fakeBackend) AppendMessage(ctx context.Context, m domain.Message) (domain.DocID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appends++
	return domain.RemoteID("remote-message"), nil
}

func (b *fakeBackend) UpdateMessageText(ctx context.Context, id domain.DocID, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
	return nil
}

func (b *fakeBackend) DeleteMessage(ctx context.Context, id domain.DocID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes++
	return nil
}

func (b *fakeBackend) counts() (starts, stops, writes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.starts, b.stops, b.creates + b.appends + b.patches + b.updates + b.deletes
}

// testClock is a settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type engineFixture struct {
	engine   *appsync.Engine
	provider *fakeProvider
	remote   *fakeBackend
	clock    *testClock
	cancel   context.CancelFunc
}

func newFixture(t *testing.T, events domain.EventSource) *engineFixture {
	t.Helper()

	if events == nil {
		events = &fakeEvents{}
	}
	provider := newFakeProvider()
	remote := &fakeBackend{}
	clock := newTestClock()

	engine := appsync.NewEngine(appsync.Options{
		Provider:        provider,
		Events:          events,
		NewGuestBackend: func() domain.Backend { return memorybackend.NewBackend().WithClock(clock.now) },
		NewRemoteBackend: func(owner domain.UserID) (domain.Backend, error) {
			return remote, nil
		},
		Now: clock.now,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	t.Cleanup(cancel)

	return &engineFixture{engine: engine, provider: provider, remote: remote, clock: clock, cancel: cancel}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func (f *engineFixture) enterGuest(t *testing.T) {
	t.Helper()
	f.provider.push(nil)
	waitFor(t, func() bool { return f.engine.State() == appsync.StateGuest })
}

func (f *engineFixture) enterAuthenticated(t *testing.T) {
	t.Helper()
	f.provider.push(&domain.User{UID: "user-1", DisplayName: "Teste"})
	waitFor(t, func() bool { return f.engine.State() == appsync.StateAuthenticated })
}

func TestGuestDefaults(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)

	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	if u := f.engine.CurrentUser(); u != nil {
		t.Fatalf("expected no user in guest mode, got %v", u)
	}
	groups := f.engine.Groups()
	if groups[0].Title != "Ideias de Projetos" {
		t.Fatalf("expected most recent seed group first, got %q", groups[0].Title)
	}
}

func TestCreateGroupWithSeedNote(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	id, err := f.engine.CreateGroup(context.Background(), "Trip", "Book flights")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if id.IsZero() {
		t.Fatalf("expected synchronous non-empty id")
	}
	if id.Kind != domain.KindLocal {
		t.Fatalf("expected local id in guest mode, got %v", id.Kind)
	}

	msgs := f.engine.MessagesForGroup(id)
	if len(msgs) != 1 || msgs[0].Text != "Book flights" {
		t.Fatalf("expected seed note, got %v", msgs)
	}

	groups := f.engine.Groups()
	if groups[0].ID != id || groups[0].Snippet != "Book flights" {
		t.Fatalf("expected new group first with seed snippet, got %+v", groups[0])
	}
}

func TestCreateGroupDefaultsTitle(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	id, err := f.engine.CreateGroup(context.Background(), "   ", "")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	for _, g := range f.engine.Groups() {
		if g.ID == id {
			if g.Title != appsync.DefaultGroupTitle {
				t.Fatalf("expected default title, got %q", g.Title)
			}
			return
		}
	}
	t.Fatalf("created group not found")
}

func TestMessageOrdering(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	id, err := f.engine.CreateGroup(context.Background(), "Ordenação", "")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	base := f.clock.now()
	f.clock.set(base.Add(2 * time.Hour))
	if err := f.engine.AddMessage(context.Background(), id, "depois"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	f.clock.set(base.Add(1 * time.Hour))
	if err := f.engine.AddMessage(context.Background(), id, "antes"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	msgs := f.engine.MessagesForGroup(id)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "antes" || msgs[1].Text != "depois" {
		t.Fatalf("expected ascending timestamp order, got %q then %q", msgs[0].Text, msgs[1].Text)
	}
}

func TestAddMessageTouchesGroup(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	// Seed group "2" is the older one; adding a note must move it to the top.
	target := domain.LocalID("2")
	if err := f.engine.AddMessage(context.Background(), target, "nova nota"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	groups := f.engine.Groups()
	if groups[0].ID != target {
		t.Fatalf("expected touched group first, got %+v", groups[0])
	}
	if groups[0].Snippet != "nova nota" {
		t.Fatalf("expected snippet update, got %q", groups[0].Snippet)
	}
	if groups[0].LastActive != f.clock.now().UnixMilli() {
		t.Fatalf("expected lastActive == message timestamp")
	}
}

func TestArchiveGroupIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	id := domain.LocalID("1")
	for i := 0; i < 2; i++ {
		if err := f.engine.ArchiveGroup(context.Background(), id); err != nil {
			t.Fatalf("ArchiveGroup failed: %v", err)
		}
	}

	groups := f.engine.Groups()
	active := view.ActiveGroups(groups)
	archived := view.ArchivedGroups(groups)

	for _, g := range active {
		if g.ID == id {
			t.Fatalf("archived group still in active listing")
		}
	}
	if len(archived) != 1 || archived[0].ID != id || !archived[0].IsArchived {
		t.Fatalf("expected exactly one archived group, got %+v", archived)
	}
}

func TestUpdateGroupTitleBlankIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	id := domain.LocalID("1")
	before := f.engine.Groups()[0].Title

	if err := f.engine.UpdateGroupTitle(context.Background(), id, "   "); err != nil {
		t.Fatalf("UpdateGroupTitle failed: %v", err)
	}
	if got := f.engine.Groups()[0].Title; got != before {
		t.Fatalf("blank rename mutated title: %q", got)
	}

	if err := f.engine.UpdateGroupTitle(context.Background(), id, "  Renomeado  "); err != nil {
		t.Fatalf("UpdateGroupTitle failed: %v", err)
	}
	if got := f.engine.Groups()[0].Title; got != "Renomeado" {
		t.Fatalf("expected trimmed rename, got %q", got)
	}
}

func TestModeIsolation(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })

	// Guest operations never reach the remote variant.
	if _, err := f.engine.CreateGroup(context.Background(), "Guest", "nota"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, _, writes := f.remote.counts(); writes != 0 {
		t.Fatalf("guest operation reached remote backend: %d writes", writes)
	}

	// Authenticated operations never mutate guest state.
	f.enterAuthenticated(t)
	guestGroups := len(f.engine.Groups()) // remote snapshot not delivered: empty

	if _, err := f.engine.CreateGroup(context.Background(), "Remote", ""); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := f.engine.AddMessage(context.Background(), domain.RemoteID("remote-group"), "oi"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	if _, _, writes := f.remote.counts(); writes == 0 {
		t.Fatalf("authenticated operations did not reach remote backend")
	}
	if len(f.engine.Groups()) != guestGroups {
		t.Fatalf("exposed groups changed without a remote snapshot")
	}

	// Back to guest: seeds restored, untouched by the remote session.
	f.enterGuest(t)
	waitFor(t, func() bool { return len(f.engine.Groups()) == 2 })
}

func TestTeardownExactlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.enterGuest(t)

	f.enterAuthenticated(t)
	f.enterGuest(t)
	f.enterAuthenticated(t)

	starts, stops, _ := f.remote.counts()
	if starts != 2 {
		t.Fatalf("expected one subscription start per authenticated session, got %d", starts)
	}
	if stops != 1 {
		t.Fatalf("expected the first session torn down exactly once, got %d stops", stops)
	}
}

func TestAgendaPlaceholderFallback(t *testing.T) {
	f := newFixture(t, &fakeEvents{events: []domain.CalendarEvent{}})
	f.enterAuthenticated(t)

	waitFor(t, func() bool { return len(f.engine.Agenda()) == 4 })

	agenda := f.engine.Agenda()
	labels := map[string]bool{}
	for _, ev := range agenda {
		labels[ev.DateLabel] = true
	}
	if !labels["Hoje"] || !labels["Amanhã"] {
		t.Fatalf("expected placeholder labels Hoje/Amanhã, got %v", labels)
	}
}

func TestAgendaUsesFetchedEvents(t *testing.T) {
	fetched := []domain.CalendarEvent{
		{ID: "g1", Title: "Consulta", StartTime: "09:00", EndTime: "09:30", DateLabel: "Hoje"},
	}
	f := newFixture(t, &fakeEvents{events: fetched})
	f.enterAuthenticated(t)

	waitFor(t, func() bool {
		a := f.engine.Agenda()
		return len(a) == 1 && a[0].ID == "g1"
	})
}
