package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/PabloGalante/anota/internal/domain"
)

// Backend is the guest-mode storage variant: synchronous, in-memory, with
// timestamp-derived decimal ids. Every mutation publishes a fresh snapshot to
// the sink before returning, so guest reads always see the latest write.
type Backend struct {
	mu       sync.Mutex
	groups   []domain.Group
	messages []domain.Message
	sink     domain.SnapshotSink
	now      func() time.Time
	lastID   int64
}

// NewBackend creates a guest backend seeded with the fixed default groups and
// messages shown to visitors.
func NewBackend() *Backend {
	b := &Backend{now: time.Now}
	b.seed()
	return b
}

// NewEmptyBackend creates a guest backend with no seed data. Used as a cheap
// stand-in for the remote variant in development setups without GCP.
func NewEmptyBackend() *Backend {
	return &Backend{now: time.Now}
}

// WithClock overrides the backend clock. Test helper.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

func (b *Backend) seed() {
	nowMs := b.now().UnixMilli()
	b.groups = []domain.Group{
		{
			ID:         domain.LocalID("1"),
			Title:      "Ideias de Projetos",
			LastActive: nowMs - 30*60*1000,
			Snippet:    "Precisamos validar a API...",
		},
		{
			ID:         domain.LocalID("2"),
			Title:      "Tarefas de Casa",
			LastActive: nowMs - 24*60*60*1000,
			Snippet:    "Comprar leite e ovos",
		},
	}
	b.messages = []domain.Message{
		{
			ID:        domain.LocalID("m1"),
			GroupID:   domain.LocalID("1"),
			Text:      "Bom dia! Vamos revisar o material de hoje.",
			Sender:    domain.SenderOther,
			Timestamp: nowMs - 1000000,
		},
		{
			ID:        domain.LocalID("m2"),
			GroupID:   domain.LocalID("1"),
			Text:      "Claro, estou pronto.",
			Sender:    domain.SenderMe,
			Timestamp: nowMs - 900000,
		},
	}
}

func (b *Backend) Start(ctx context.Context, sink domain.SnapshotSink) error {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
	b.publish()
	return nil
}

func (b *Backend) Stop() {
	b.mu.Lock()
	b.sink = nil
	b.mu.Unlock()
}

// publish pushes copies of both collections to the sink, if bound.
func (b *Backend) publish() {
	b.mu.Lock()
	sink := b.sink
	groups := make([]domain.Group, len(b.groups))
	copy(groups, b.groups)
	messages := make([]domain.Message, len(b.messages))
	copy(messages, b.messages)
	b.mu.Unlock()

	if sink == nil {
		return
	}
	sink.ApplyGroups(groups)
	sink.ApplyMessages(messages)
}

// nextID derives an id from the creation timestamp, kept strictly increasing
// so two writes in the same millisecond cannot collide.
func (b *Backend) nextID() domain.DocID {
	ms := b.now().UnixMilli()
	if ms <= b.lastID {
		ms = b.lastID + 1
	}
	b.lastID = ms
	return domain.LocalID(strconv.FormatInt(ms, 10))
}

func (b *Backend) CreateGroup(ctx context.Context, g domain.Group) (domain.DocID, error) {
	b.mu.Lock()
	g.ID = b.nextID()
	b.groups = append([]domain.Group{g}, b.groups...)
	b.mu.Unlock()

	b.publish()
	return g.ID, nil
}

func (b *Backend) PatchGroup(ctx context.Context, id domain.DocID, p domain.GroupPatch) error {
	b.mu.Lock()
	for i := range b.groups {
		if b.groups[i].ID != id {
			continue
		}
		if p.Title != nil {
			b.groups[i].Title = *p.Title
		}
		if p.LastActive != nil {
			b.groups[i].LastActive = *p.LastActive
		}
		if p.Snippet != nil {
			b.groups[i].Snippet = *p.Snippet
		}
		if p.IsArchived != nil {
			b.groups[i].IsArchived = *p.IsArchived
		}
		break
	}
	b.mu.Unlock()

	b.publish()
	return nil
}

func (b *Backend) AppendMessage(ctx context.Context, m domain.Message) (domain.DocID, error) {
	b.mu.Lock()
	m.ID = b.nextID()
	b.messages = append(b.messages, m)
	b.mu.Unlock()

	b.publish()
	return m.ID, nil
}

func (b *Backend) UpdateMessageText(ctx context.Context, id domain.DocID, text string) error {
	b.mu.Lock()
	for i := range b.messages {
		if b.messages[i].ID == id {
			b.messages[i].Text = text
			break
		}
	}
	b.mu.Unlock()

	b.publish()
	return nil
}

func (b *Backend) DeleteMessage(ctx context.Context, id domain.DocID) error {
	b.mu.Lock()
	kept := b.messages[:0]
	for _, m := range b.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	b.messages = kept
	b.mu.Unlock()

	b.publish()
	return nil
}
