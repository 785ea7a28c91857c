package llm

import (
	"fmt"
	"strings"
)

// EnhancePrompt asks for a cleaned-up version of a quick note, same language,
// bullets if it reads like a list.
func EnhancePrompt(text string) string {
	return fmt.Sprintf("Melhore e formate a seguinte nota para ficar mais clara e profissional, "+
		"mantendo o idioma original (Português). Se for uma lista, formate como bullets. "+
		"Mantenha conciso:\n\n%q", text)
}

// TitlePrompt asks for a short group title, four words at most.
func TitlePrompt(content string) string {
	return fmt.Sprintf("Gere um título curto (máximo 4 palavras) para um grupo de anotações "+
		"que começa com este texto:\n\n%q\n\nResponda apenas com o título.", content)
}

// SummaryPrompt asks for a two-section digest of one day's notes: purely
// informational notes first, action items second.
func SummaryPrompt(dateLabel string, notes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resuma as anotações do dia %s em duas seções, em Português:\n", dateLabel)
	b.WriteString("1. \"Anotações informativas\": fatos e registros.\n")
	b.WriteString("2. \"Itens de ação\": tarefas e pendências, como checklist.\n\n")
	b.WriteString("Anotações:\n")
	for _, n := range notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}
