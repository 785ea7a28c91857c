package view

import (
	"testing"
	"time"

	"github.com/PabloGalante/anota/internal/domain"
)

func TestSortedMessages(t *testing.T) {
	g := domain.LocalID("g1")
	other := domain.LocalID("g2")
	msgs := []domain.Message{
		{ID: domain.LocalID("3"), GroupID: g, Text: "terceira", Timestamp: 300},
		{ID: domain.LocalID("x"), GroupID: other, Text: "outro grupo", Timestamp: 50},
		{ID: domain.LocalID("1"), GroupID: g, Text: "primeira", Timestamp: 100},
		{ID: domain.LocalID("2"), GroupID: g, Text: "segunda", Timestamp: 200},
	}

	got := SortedMessages(msgs, g)
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"primeira", "segunda", "terceira"} {
		if got[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, got[i].Text)
		}
	}
}

func TestActiveAndArchivedGroups(t *testing.T) {
	groups := []domain.Group{
		{ID: domain.LocalID("1"), Title: "Ativo"},
		{ID: domain.LocalID("2"), Title: "Arquivado", IsArchived: true},
	}

	active := ActiveGroups(groups)
	if len(active) != 1 || active[0].Title != "Ativo" {
		t.Fatalf("unexpected active listing: %+v", active)
	}
	archived := ArchivedGroups(groups)
	if len(archived) != 1 || archived[0].Title != "Arquivado" {
		t.Fatalf("unexpected archived listing: %+v", archived)
	}
}

func TestGroupEventsByDateKeepsFirstSeenOrder(t *testing.T) {
	events := []domain.CalendarEvent{
		{ID: "1", DateLabel: "Hoje"},
		{ID: "2", DateLabel: "Amanhã"},
		{ID: "3", DateLabel: "Hoje"},
	}

	sections := GroupEventsByDate(events)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Label != "Hoje" || len(sections[0].Events) != 2 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Label != "Amanhã" || len(sections[1].Events) != 1 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
}

func TestFormatRelativeTime(t *testing.T) {
	// A Wednesday at noon.
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"same day", time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC), "09:30"},
		{"yesterday", time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC), "Ontem"},
		{"this week", time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC), "Sáb"},
		{"older", time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC), "02/04"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatRelativeTime(tc.ts.UnixMilli(), now)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
