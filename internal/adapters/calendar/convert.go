package calendar

import (
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/PabloGalante/anota/internal/domain"
)

const untitledEvent = "Sem título"

var (
	longWeekdays = [7]string{
		"domingo", "segunda-feira", "terça-feira", "quarta-feira",
		"quinta-feira", "sexta-feira", "sábado",
	}
	months = [12]string{
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
	}
)

// ConvertEvents maps raw calendar entries to the app's display shape.
func ConvertEvents(items []*gcal.Event, now time.Time) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(items))
	for _, it := range items {
		title := it.Summary
		if title == "" {
			title = untitledEvent
		}
		out = append(out, domain.CalendarEvent{
			ID:        it.Id,
			Title:     title,
			StartTime: formatTime(eventTime(it.Start), now.Location()),
			EndTime:   formatTime(eventTime(it.End), now.Location()),
			DateLabel: dateLabel(eventTime(it.Start), now),
		})
	}
	return out
}

// eventTime prefers the timed variant; all-day events only carry a date.
func eventTime(dt *gcal.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}

func parseEventTime(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func formatTime(value string, loc *time.Location) string {
	t, ok := parseEventTime(value, loc)
	if !ok {
		return ""
	}
	return t.Format("15:04")
}

// dateLabel renders "Hoje", "Amanhã" or a long pt-BR date for the event's
// calendar day.
func dateLabel(value string, now time.Time) string {
	t, ok := parseEventTime(value, now.Location())
	if !ok {
		return ""
	}

	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	}
	today := day(now)
	eventDay := day(t)

	switch {
	case eventDay.Equal(today):
		return "Hoje"
	case eventDay.Equal(today.AddDate(0, 0, 1)):
		return "Amanhã"
	default:
		return fmt.Sprintf("%s, %d de %s",
			longWeekdays[int(t.Weekday())], t.Day(), months[int(t.Month())-1])
	}
}
