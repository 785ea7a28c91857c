package domain

type UserID string

// User is the authenticated identity, as reported by the auth provider.
type User struct {
	UID         UserID
	DisplayName string
	Email       string
	PhotoURL    string
}

type Sender string

const (
	SenderMe     Sender = "me"
	SenderOther  Sender = "other"
	SenderSystem Sender = "system"
)

// IDKind tags where a document identifier was minted. Local ids are
// timestamp-derived strings that only exist in guest mode; remote ids are
// allocated by the document store. Update/delete paths branch on the tag
// instead of guessing from the id length.
type IDKind string

const (
	KindLocal  IDKind = "local"
	KindRemote IDKind = "remote"
)

// DocID is a tagged document identifier.
type DocID struct {
	Kind  IDKind
	Value string
}

func LocalID(v string) DocID  { return DocID{Kind: KindLocal, Value: v} }
func RemoteID(v string) DocID { return DocID{Kind: KindRemote, Value: v} }

func (id DocID) IsZero() bool   { return id.Value == "" }
func (id DocID) IsRemote() bool { return id.Kind == KindRemote }
func (id DocID) String() string { return id.Value }

// Group is a named thread of notes.
type Group struct {
	ID         DocID
	Title      string
	LastActive int64 // unix milliseconds of the last appended note
	Snippet    string
	IsArchived bool
	OwnerID    UserID
}

// Message is a single note inside a group.
type Message struct {
	ID        DocID
	GroupID   DocID
	Text      string
	Sender    Sender
	Timestamp int64 // unix milliseconds
	IsSystem  bool
	OwnerID   UserID
}

// CalendarEvent is a read-only projection of an external calendar entry,
// already formatted for display.
type CalendarEvent struct {
	ID        string
	Title     string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	DateLabel string // "Hoje", "Amanhã" or a long pt-BR date
}
