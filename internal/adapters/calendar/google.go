package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/PabloGalante/anota/internal/domain"
	"github.com/PabloGalante/anota/internal/observability"
)

const (
	calendarID = "primary"
	lookAhead  = 7 * 24 * time.Hour
	maxResults = 50
)

// GoogleSource fetches the user's upcoming events with the access token
// captured at sign-in. Without a cached token it reports an empty agenda, not
// an error.
type GoogleSource struct {
	cache domain.CredentialCache
	now   func() time.Time
}

func NewGoogleSource(cache domain.CredentialCache) *GoogleSource {
	return &GoogleSource{cache: cache, now: time.Now}
}

// WithClock overrides the source clock. Test helper.
func (s *GoogleSource) WithClock(now func() time.Time) *GoogleSource {
	s.now = now
	return s
}

func (s *GoogleSource) FetchEvents(ctx context.Context) ([]domain.CalendarEvent, error) {
	token, err := s.cache.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading calendar credential: %w", err)
	}
	if token == "" {
		observability.Logger().Info("no calendar credential cached, skipping fetch")
		return []domain.CalendarEvent{}, nil
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	now := s.now()
	res, err := svc.Events.List(calendarID).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(lookAhead).Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}

	observability.Logger().Info("calendar events fetched", "count", len(res.Items))
	return ConvertEvents(res.Items, now), nil
}
