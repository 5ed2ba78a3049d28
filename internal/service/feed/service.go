package feed

import (
	"context"
	"strings"

	"github.com/oggyb/rndvu/internal/app"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/caller"
	"github.com/oggyb/rndvu/internal/service/view"
	"github.com/oggyb/rndvu/internal/utils/dates"
)

const maxAgeFilter = 150

// Service serves the candidate feed of the game.
type Service struct {
	appCtx  *app.AppContext
	players *repository.PlayerRepository
	feed    *repository.FeedRepository
}

func NewFeedService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		players: repository.NewPlayerRepository(appCtx.DB),
		feed:    repository.NewFeedRepository(appCtx.DB),
	}
}

// Filters are the caller-controlled inputs of the feed.
type Filters struct {
	City    string
	MinAge  *int
	MaxAge  *int
	Page    int
	Premium bool
}

// Response is one page of cards plus the pagination envelope.
type Response struct {
	Results []view.Card `json:"results"`
	httpx.PageInfo
	Premium bool `json:"premium"`
}

func checkAge(name string, v *int) error {
	if v != nil && (*v < 0 || *v > maxAgeFilter) {
		return svcErr.InvalidArgument(name + " должен быть от 0 до 150")
	}
	return nil
}

// Users returns one page of opposite-gender candidates for the caller.
//
// Behavior:
//   - Game mode hides people the caller already sympathized with, mutual
//     matches in either direction and live skips; order is random.
//   - Premium mode shows everyone in the universe, newest registration first.
//   - Age bounds are inclusive and translated into birth-date bounds.
//
// Example:
//
//	svc.Users(ctx, feed.Filters{City: "mos", MinAge: &min, Page: 2})
func (s *Service) Users(ctx context.Context, f Filters) (*Response, error) {
	if err := checkAge("min_age", f.MinAge); err != nil {
		return nil, err
	}
	if err := checkAge("max_age", f.MaxAge); err != nil {
		return nil, err
	}

	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}

	earliest, latest := dates.BirthRange(s.appCtx.Today(), f.MinAge, f.MaxAge)
	q := repository.FeedQuery{
		ViewerID:      p.ID,
		Gender:        p.Gender.Opposite(),
		City:          strings.TrimSpace(f.City),
		BirthEarliest: earliest,
		BirthLatest:   latest,
		Premium:       f.Premium,
		SkipsSince:    s.appCtx.Now().Add(-s.appCtx.Config.Feed.SkipRetention),
		Page:          f.Page,
		PageSize:      s.appCtx.Config.Feed.PageSize,
	}

	page, err := s.feed.Feed(ctx, q)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("feed page served",
		"tg_id", p.TgID, "premium", f.Premium, "total", page.Page.TotalCount, "page", page.Page.Number)

	resp := &Response{
		Results:  make([]view.Card, 0, len(page.Candidates)),
		PageInfo: httpx.NewPageInfo(page.Page),
		Premium:  f.Premium,
	}
	for i := range page.Candidates {
		c := &page.Candidates[i]
		resp.Results = append(resp.Results, view.NewCard(ctx, s.appCtx, &c.Player, c.BirthDate, c.Photo))
	}
	return resp, nil
}
