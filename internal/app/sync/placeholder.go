package sync

import "github.com/PabloGalante/anota/internal/domain"

// PlaceholderAgenda is shown whenever the external calendar yields nothing,
// so the agenda screen is never empty.
func PlaceholderAgenda() []domain.CalendarEvent {
	return []domain.CalendarEvent{
		{ID: "e1", Title: "Reunião de planejamento", StartTime: "10:00", EndTime: "11:00", DateLabel: "Hoje"},
		{ID: "e2", Title: "Sessão de brainstorming", StartTime: "14:00", EndTime: "15:00", DateLabel: "Hoje"},
		{ID: "e3", Title: "Revisão de design", StartTime: "16:00", EndTime: "17:00", DateLabel: "Hoje"},
		{ID: "e4", Title: "Almoço com equipe", StartTime: "12:00", EndTime: "13:00", DateLabel: "Amanhã"},
	}
}
