// Package assist holds the AI note operations. Every operation degrades to a
// safe fallback instead of surfacing a text-generation failure.
package assist

import (
	"context"
	"strings"

	"github.com/PabloGalante/anota/internal/adapters/llm"
	"github.com/PabloGalante/anota/internal/domain"
	"github.com/PabloGalante/anota/internal/observability"
)

const (
	// FallbackTitle is returned when no title can be suggested.
	FallbackTitle = "Nova Nota"
	// FallbackSummary is returned when the day summary cannot be generated.
	FallbackSummary = "Não foi possível gerar o resumo."
	emptyDaySummary = "Sem anotações para este dia."
)

type Service struct {
	gen domain.TextGenerator
}

func NewService(gen domain.TextGenerator) *Service {
	return &Service{gen: gen}
}

// EnhanceNote rewrites a quick note for clarity. On blank input or any
// generation failure the original text comes back unchanged.
func (s *Service) EnhanceNote(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	out, err := s.gen.Generate(ctx, llm.EnhancePrompt(text))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("enhance note failed", "error", err)
		return text
	}
	return out
}

// SuggestTitle proposes a short group title for the first note. Blank content
// returns the fallback without calling the generator.
func (s *Service) SuggestTitle(ctx context.Context, content string) string {
	if strings.TrimSpace(content) == "" {
		return FallbackTitle
	}

	out, err := s.gen.Generate(ctx, llm.TitlePrompt(content))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("suggest title failed", "error", err)
		return FallbackTitle
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return FallbackTitle
	}
	return out
}

// SummarizeDay produces the two-section digest (informational notes, action
// items) for one day's messages.
func (s *Service) SummarizeDay(ctx context.Context, dateLabel string, notes []domain.Message) string {
	texts := make([]string, 0, len(notes))
	for _, n := range notes {
		if strings.TrimSpace(n.Text) != "" {
			texts = append(texts, n.Text)
		}
	}
	if len(texts) == 0 {
		return emptyDaySummary
	}

	out, err := s.gen.Generate(ctx, llm.SummaryPrompt(dateLabel, texts))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("summarize day failed", "date", dateLabel, "error", err)
		return FallbackSummary
	}
	return out
}
