package firestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/anota/internal/domain"
	"github.com/PabloGalante/anota/internal/observability"
)

const writeTimeout = 10 * time.Second

// NewClient creates a Firestore client for the given project.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore backend")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return client, nil
}

// Backend is the authenticated-mode storage variant. It keeps no collection
// state of its own: it owns the two live subscriptions for the current owner
// and forwards full snapshots to the sink. Writes are detached; their effect
// is observed when the subscription redelivers.
type Backend struct {
	client *firestore.Client
	owner  domain.UserID

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBackend(client *firestore.Client, owner domain.UserID) *Backend {
	return &Backend{client: client, owner: owner}
}

// ─────────────────────────────────────────
// Firestore documents
// ─────────────────────────────────────────

// Field names match the documents written by the web client.
type groupDoc struct {
	Title      string `firestore:"title"`
	LastActive int64  `firestore:"lastActive"`
	Snippet    string `firestore:"snippet"`
	IsArchived bool   `firestore:"isArchived"`
	UserID     string `firestore:"userId"`
}

type messageDoc struct {
	GroupID   string `firestore:"groupId"`
	Text      string `firestore:"text"`
	SenderID  string `firestore:"senderId"`
	Timestamp int64  `firestore:"timestamp"`
	IsSystem  bool   `firestore:"isSystem"`
	UserID    string `firestore:"userId"`
}

func (b *Backend) groupsCol() *firestore.CollectionRef {
	return b.client.Collection("groups")
}

func (b *Backend) messagesCol() *firestore.CollectionRef {
	return b.client.Collection("messages")
}

// ─────────────────────────────────────────
// Subscription lifecycle
// ─────────────────────────────────────────

func (b *Backend) Start(ctx context.Context, sink domain.SnapshotSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return fmt.Errorf("firestore backend already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go b.listenGroups(ctx, sink)
	go b.listenMessages(ctx, sink)
	return nil
}

func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

// listenGroups forwards every groups snapshot for the owner. A listener error
// is logged and the collection freezes at the last good snapshot; recovery
// happens on the next identity transition.
func (b *Backend) listenGroups(ctx context.Context, sink domain.SnapshotSink) {
	log := observability.Logger().With("owner", b.owner, "collection", "groups")

	it := b.groupsCol().Where("userId", "==", string(b.owner)).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				log.Error("groups listener stopped", "error", err)
			}
			return
		}

		groups, err := decodeGroups(snap.Documents)
		if err != nil {
			log.Error("decoding groups snapshot", "error", err)
			continue
		}
		sink.ApplyGroups(groups)
	}
}

func (b *Backend) listenMessages(ctx context.Context, sink domain.SnapshotSink) {
	log := observability.Logger().With("owner", b.owner, "collection", "messages")

	it := b.messagesCol().Where("userId", "==", string(b.owner)).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				log.Error("messages listener stopped", "error", err)
			}
			return
		}

		messages, err := decodeMessages(snap.Documents)
		if err != nil {
			log.Error("decoding messages snapshot", "error", err)
			continue
		}
		sink.ApplyMessages(messages)
	}
}

func decodeGroups(docs *firestore.DocumentIterator) ([]domain.Group, error) {
	out := []domain.Group{}
	for {
		d, err := docs.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterating groups: %w", err)
		}

		var gd groupDoc
		if err := d.DataTo(&gd); err != nil {
			return nil, fmt.Errorf("decode groupDoc %s: %w", d.Ref.ID, err)
		}
		out = append(out, domain.Group{
			ID:         domain.RemoteID(d.Ref.ID),
			Title:      gd.Title,
			LastActive: gd.LastActive,
			Snippet:    gd.Snippet,
			IsArchived: gd.IsArchived,
			OwnerID:    domain.UserID(gd.UserID),
		})
	}
}

func decodeMessages(docs *firestore.DocumentIterator) ([]domain.Message, error) {
	out := []domain.Message{}
	for {
		d, err := docs.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterating messages: %w", err)
		}

		var md messageDoc
		if err := d.DataTo(&md); err != nil {
			return nil, fmt.Errorf("decode messageDoc %s: %w", d.Ref.ID, err)
		}
		out = append(out, domain.Message{
			ID:        domain.RemoteID(d.Ref.ID),
			GroupID:   domain.RemoteID(md.GroupID),
			Text:      md.Text,
			Sender:    domain.Sender(md.SenderID),
			Timestamp: md.Timestamp,
			IsSystem:  md.IsSystem,
			OwnerID:   domain.UserID(md.UserID),
		})
	}
}

// ─────────────────────────────────────────
// Writes
// ─────────────────────────────────────────

// detach runs a store write in its own goroutine with a fresh context, so the
// caller never waits for the acknowledgement. Failures are only observable in
// the log.
func detach(op string, write func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			observability.Logger().Error("firestore write failed", "op", op, "error", err)
		}
	}()
}

// CreateGroup allocates the document id synchronously and dispatches the
// write, so callers can navigate to the new group without waiting for the
// subscription to echo it back.
func (b *Backend) CreateGroup(ctx context.Context, g domain.Group) (domain.DocID, error) {
	ref := b.groupsCol().NewDoc()
	doc := groupDoc{
		Title:      g.Title,
		LastActive: g.LastActive,
		Snippet:    g.Snippet,
		IsArchived: g.IsArchived,
		UserID:     string(b.owner),
	}
	detach("CreateGroup", func(ctx context.Context) error {
		_, err := ref.Set(ctx, doc)
		return err
	})
	return domain.RemoteID(ref.ID), nil
}

func (b *Backend) PatchGroup(ctx context.Context, id domain.DocID, p domain.GroupPatch) error {
	fields := map[string]interface{}{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.LastActive != nil {
		fields["lastActive"] = *p.LastActive
	}
	if p.Snippet != nil {
		fields["snippet"] = *p.Snippet
	}
	if p.IsArchived != nil {
		fields["isArchived"] = *p.IsArchived
	}
	if len(fields) == 0 {
		return nil
	}

	ref := b.groupsCol().Doc(id.Value)
	detach("PatchGroup", func(ctx context.Context) error {
		_, err := ref.Set(ctx, fields, firestore.MergeAll)
		return err
	})
	return nil
}

func (b *Backend) AppendMessage(ctx context.Context, m domain.Message) (domain.DocID, error) {
	ref := b.messagesCol().NewDoc()
	doc := messageDoc{
		GroupID:   m.GroupID.Value,
		Text:      m.Text,
		SenderID:  string(m.Sender),
		Timestamp: m.Timestamp,
		IsSystem:  m.IsSystem,
		UserID:    string(b.owner),
	}
	detach("AppendMessage", func(ctx context.Context) error {
		_, err := ref.Set(ctx, doc)
		return err
	})
	return domain.RemoteID(ref.ID), nil
}

// UpdateMessageText refuses guest-mode ids: a local id left over from before a
// sign-in must never be sent to the store.
func (b *Backend) UpdateMessageText(ctx context.Context, id domain.DocID, text string) error {
	if !id.IsRemote() {
		return domain.ErrLocalIdentifier
	}
	ref := b.messagesCol().Doc(id.Value)
	detach("UpdateMessageText", func(ctx context.Context) error {
		_, err := ref.Set(ctx, map[string]interface{}{"text": text}, firestore.MergeAll)
		return err
	})
	return nil
}

func (b *Backend) DeleteMessage(ctx context.Context, id domain.DocID) error {
	if !id.IsRemote() {
		return domain.ErrLocalIdentifier
	}
	ref := b.messagesCol().Doc(id.Value)
	detach("DeleteMessage", func(ctx context.Context) error {
		_, err := ref.Delete(ctx)
		return err
	})
	return nil
}
