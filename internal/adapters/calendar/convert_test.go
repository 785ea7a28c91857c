package calendar

import (
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

func TestConvertEvents(t *testing.T) {
	// A Monday.
	now := time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC)

	items := []*gcal.Event{
		{
			Id:      "ev-today",
			Summary: "Reunião de alinhamento",
			Start:   &gcal.EventDateTime{DateTime: "2024-05-13T10:00:00Z"},
			End:     &gcal.EventDateTime{DateTime: "2024-05-13T11:30:00Z"},
		},
		{
			Id:      "ev-tomorrow",
			Summary: "Dentista",
			Start:   &gcal.EventDateTime{DateTime: "2024-05-14T14:00:00Z"},
			End:     &gcal.EventDateTime{DateTime: "2024-05-14T15:00:00Z"},
		},
		{
			Id:      "ev-later",
			Summary: "Viagem",
			Start:   &gcal.EventDateTime{DateTime: "2024-05-17T09:15:00Z"},
			End:     &gcal.EventDateTime{DateTime: "2024-05-17T10:00:00Z"},
		},
	}

	got := ConvertEvents(items, now)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}

	if got[0].DateLabel != "Hoje" || got[0].StartTime != "10:00" || got[0].EndTime != "11:30" {
		t.Fatalf("unexpected today event: %+v", got[0])
	}
	if got[1].DateLabel != "Amanhã" {
		t.Fatalf("expected Amanhã, got %q", got[1].DateLabel)
	}
	if got[2].DateLabel != "sexta-feira, 17 de maio" {
		t.Fatalf("unexpected long label: %q", got[2].DateLabel)
	}
}

func TestConvertEventsAllDayAndUntitled(t *testing.T) {
	now := time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC)

	items := []*gcal.Event{
		{
			Id:    "ev-allday",
			Start: &gcal.EventDateTime{Date: "2024-05-13"},
			End:   &gcal.EventDateTime{Date: "2024-05-14"},
		},
	}

	got := ConvertEvents(items, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Title != untitledEvent {
		t.Fatalf("expected untitled fallback, got %q", got[0].Title)
	}
	if got[0].StartTime != "00:00" {
		t.Fatalf("expected midnight start for all-day event, got %q", got[0].StartTime)
	}
	if got[0].DateLabel != "Hoje" {
		t.Fatalf("expected Hoje for all-day today, got %q", got[0].DateLabel)
	}
}

func TestConvertEventsEmpty(t *testing.T) {
	got := ConvertEvents(nil, time.Now())
	if len(got) != 0 {
		t.Fatalf("expected empty conversion, got %d", len(got))
	}
}
