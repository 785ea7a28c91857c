package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/PabloGalante/anota/internal/domain"
	"github.com/PabloGalante/anota/internal/observability"
)

const (
	calendarReadonlyScope = "https://www.googleapis.com/auth/calendar.readonly"
	userinfoEndpoint      = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleProvider runs the interactive Google sign-in through a loopback
// redirect. On success it caches the calendar access token for the session;
// sign-out discards it. There is no persisted session to restore, so the
// initial pushed state is always "no identity".
type GoogleProvider struct {
	cfg   *oauth2.Config
	cache domain.CredentialCache
	ch    chan *domain.User

	mu   sync.Mutex
	user *domain.User
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, cache domain.CredentialCache) *GoogleProvider {
	ch := make(chan *domain.User, 4)
	ch <- nil

	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email", calendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		cache: cache,
		ch:    ch,
	}
}

func (p *GoogleProvider) StateChanges() <-chan *domain.User {
	return p.ch
}

// SignIn opens the browser flow and blocks until the redirect lands or ctx is
// done. Any failure leaves the provider signed out with nothing cached.
func (p *GoogleProvider) SignIn(ctx context.Context) (*domain.User, error) {
	state := uuid.NewString()
	authURL := p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
	observability.Logger().Info("open this URL to sign in", "url", authURL)

	code, err := p.waitForCode(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("waiting for sign-in redirect: %w", err)
	}

	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	user, err := p.fetchUserinfo(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	if err := p.cache.Save(ctx, tok.AccessToken); err != nil {
		observability.Logger().Error("caching calendar credential", "error", err)
	}

	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
	p.ch <- user

	observability.Logger().Info("signed in", "uid", user.UID)
	return user, nil
}

func (p *GoogleProvider) SignOut(ctx context.Context) error {
	if err := p.cache.Clear(ctx); err != nil {
		observability.Logger().Error("clearing calendar credential", "error", err)
	}

	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
	p.ch <- nil

	observability.Logger().Info("signed out")
	return nil
}

// waitForCode serves the loopback redirect once and returns the authorization
// code.
func (p *GoogleProvider) waitForCode(ctx context.Context, state string) (string, error) {
	redirect, err := url.Parse(p.cfg.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", redirect.Host, err)
	}
	defer ln.Close()

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("state mismatch")}
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, e, http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("provider error: %s", e)}
			return
		}
		fmt.Fprintln(w, "Login concluído. Pode fechar esta janela.")
		ch <- result{code: q.Get("code")}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.code, res.err
	}
}

func (p *GoogleProvider) fetchUserinfo(ctx context.Context, tok *oauth2.Token) (*domain.User, error) {
	res, err := p.cfg.Client(ctx, tok).Get(userinfoEndpoint)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", res.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}

	return &domain.User{
		UID:         domain.UserID(info.ID),
		DisplayName: info.Name,
		Email:       info.Email,
		PhotoURL:    info.Picture,
	}, nil
}
