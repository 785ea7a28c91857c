package llm

import (
	"context"
	"fmt"
)

// MockGenerator is used in local mode and tests, no network.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("Resposta simulada para: %.60s", prompt), nil
}
