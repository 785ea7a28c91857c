// Package view holds pure projections over the engine's exposed collections.
// Nothing here mutates state; everything is recomputed per call.
package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/PabloGalante/anota/internal/domain"
)

// ActiveGroups filters out archived groups, preserving order.
func ActiveGroups(groups []domain.Group) []domain.Group {
	out := []domain.Group{}
	for _, g := range groups {
		if !g.IsArchived {
			out = append(out, g)
		}
	}
	return out
}

// ArchivedGroups returns only archived groups, preserving order.
func ArchivedGroups(groups []domain.Group) []domain.Group {
	out := []domain.Group{}
	for _, g := range groups {
		if g.IsArchived {
			out = append(out, g)
		}
	}
	return out
}

// SortedMessages returns the subset belonging to groupID in ascending
// timestamp order, regardless of insertion order.
func SortedMessages(messages []domain.Message, groupID domain.DocID) []domain.Message {
	out := []domain.Message{}
	for _, m := range messages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// AgendaSection is one date heading plus its events.
type AgendaSection struct {
	Label  string
	Events []domain.CalendarEvent
}

// GroupEventsByDate groups events by their date label, sections ordered by
// first appearance.
func GroupEventsByDate(events []domain.CalendarEvent) []AgendaSection {
	index := map[string]int{}
	sections := []AgendaSection{}
	for _, ev := range events {
		i, ok := index[ev.DateLabel]
		if !ok {
			i = len(sections)
			index[ev.DateLabel] = i
			sections = append(sections, AgendaSection{Label: ev.DateLabel})
		}
		sections[i].Events = append(sections[i].Events, ev)
	}
	return sections
}

var shortWeekdays = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// FormatRelativeTime renders a group's last-activity timestamp the way the
// group list shows it: clock time today, "Ontem", a short weekday within a
// week, else dd/mm.
func FormatRelativeTime(tsMillis int64, now time.Time) string {
	t := time.UnixMilli(tsMillis).In(now.Location())
	diff := now.Sub(t)
	const day = 24 * time.Hour

	switch {
	case diff < day && t.Day() == now.Day():
		return t.Format("15:04")
	case diff < 2*day:
		return "Ontem"
	case diff < 7*day:
		return shortWeekdays[int(t.Weekday())]
	default:
		return fmt.Sprintf("%02d/%02d", t.Day(), int(t.Month()))
	}
}
