package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/anota/internal/domain"
)

// StubProvider fakes the identity provider for local development: sign-in
// mints a throwaway identity instead of opening a browser flow.
type StubProvider struct {
	ch chan *domain.User

	mu   sync.Mutex
	user *domain.User
}

func NewStubProvider() *StubProvider {
	ch := make(chan *domain.User, 4)
	ch <- nil
	return &StubProvider{ch: ch}
}

func (p *StubProvider) StateChanges() <-chan *domain.User {
	return p.ch
}

func (p *StubProvider) SignIn(ctx context.Context) (*domain.User, error) {
	user := &domain.User{
		UID:         domain.UserID(uuid.NewString()),
		DisplayName: "Visitante",
		Email:       "visitante@example.com",
	}

	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
	p.ch <- user
	return user, nil
}

func (p *StubProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
	p.ch <- nil
	return nil
}
