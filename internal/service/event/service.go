package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/db"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/caller"
	"github.com/oggyb/rndvu/internal/service/view"
)

const (
	minEventAge = 18
	maxEventAge = 99

	msgNotOwned = "Ивент не найден или нет прав"
)

// Service implements the event directory: owner CRUD and the opposite-gender feed.
type Service struct {
	appCtx  *app.AppContext
	players *repository.PlayerRepository
	events  *repository.EventRepository
}

func NewEventService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		players: repository.NewPlayerRepository(appCtx.DB),
		events:  repository.NewEventRepository(appCtx.DB),
	}
}

// Event is the JSON shape of an event.
type Event struct {
	ID          uint64    `json:"id"`
	CreatorID   uint64    `json:"creator_id"`
	City        string    `json:"city"`
	Date        *string   `json:"date"`
	Duration    *int      `json:"duration"`
	ExactTime   *string   `json:"exact_time"`
	Place       *string   `json:"place"`
	MinAge      int       `json:"min_age"`
	MaxAge      int       `json:"max_age"`
	Reward      int64     `json:"reward"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newEvent(ev *db.Event) Event {
	out := Event{
		ID:          ev.ID,
		CreatorID:   ev.CreatorID,
		City:        ev.City,
		Duration:    ev.Duration,
		ExactTime:   ev.ExactTime,
		Place:       ev.Place,
		MinAge:      ev.MinAge,
		MaxAge:      ev.MaxAge,
		Reward:      ev.Reward,
		Currency:    ev.Currency,
		Description: ev.Description,
		IsActive:    ev.IsActive,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
	if ev.Date != nil {
		d := ev.Date.Format("2006-01-02")
		out.Date = &d
	}
	return out
}

// OppositeEvent is an event seen by a player of the other gender.
// CreatorProfile is null when the creator has no profile.
type OppositeEvent struct {
	Event
	CreatorProfile *view.Profile `json:"creator_profile"`
}

// Input is a create or partial-update request. Nil fields are absent.
type Input struct {
	City        *string `json:"city"`
	Date        *string `json:"date"`
	Duration    *int    `json:"duration"`
	ExactTime   *string `json:"exact_time"`
	Place       *string `json:"place"`
	MinAge      *int    `json:"min_age"`
	MaxAge      *int    `json:"max_age"`
	Reward      *int64  `json:"reward"`
	Currency    *string `json:"currency"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// fields validates in against the current state cur (nil on create) and
// returns the column values to write.
func (in Input) fields(cur *db.Event) (map[string]any, error) {
	f := map[string]any{}

	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		if city == "" {
			return nil, svcErr.InvalidArgument("city: обязательное поле")
		}
		if utf8.RuneCountInString(city) > 150 {
			return nil, svcErr.InvalidArgument("city: не более 150 символов")
		}
		f["city"] = city
	} else if cur == nil {
		return nil, svcErr.InvalidArgument("city: обязательное поле")
	}

	if in.Date != nil {
		d, err := view.ParseDate(*in.Date)
		if err != nil {
			return nil, svcErr.InvalidArgument("date: ожидается формат YYYY-MM-DD")
		}
		f["date"] = d
	}
	if in.Duration != nil {
		if !slices.Contains(db.EventDurations, *in.Duration) {
			return nil, svcErr.InvalidArgument(fmt.Sprintf("duration: допустимые значения %v", db.EventDurations))
		}
		f["duration"] = *in.Duration
	}
	if in.ExactTime != nil {
		t, err := time.Parse("15:04", strings.TrimSpace(*in.ExactTime))
		if err != nil {
			return nil, svcErr.InvalidArgument("exact_time: ожидается формат HH:MM")
		}
		f["exact_time"] = t.Format("15:04")
	}
	if in.Place != nil {
		if !slices.Contains(db.EventPlaces, *in.Place) {
			return nil, svcErr.InvalidArgument(fmt.Sprintf("place: недопустимое значение %q", *in.Place))
		}
		f["place"] = *in.Place
	}

	minAge, maxAge := minEventAge, maxEventAge
	if cur != nil {
		minAge, maxAge = cur.MinAge, cur.MaxAge
	}
	if in.MinAge != nil {
		minAge = *in.MinAge
		f["min_age"] = minAge
	}
	if in.MaxAge != nil {
		maxAge = *in.MaxAge
		f["max_age"] = maxAge
	}
	if minAge < minEventAge || minAge > maxEventAge || maxAge < minEventAge || maxAge > maxEventAge {
		return nil, svcErr.InvalidArgument("min_age и max_age должны быть от 18 до 99")
	}
	if minAge > maxAge {
		return nil, svcErr.InvalidArgument("min_age не может быть больше max_age")
	}

	if in.Reward != nil {
		if *in.Reward < 0 {
			return nil, svcErr.InvalidArgument("reward не может быть отрицательным")
		}
		f["reward"] = *in.Reward
	}
	if in.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if c != "RUB" {
			return nil, svcErr.InvalidArgument("currency: поддерживается только RUB")
		}
		f["currency"] = c
	}
	if in.Description != nil {
		f["description"] = *in.Description
	}
	if in.IsActive != nil {
		f["is_active"] = *in.IsActive
	}
	return f, nil
}

// List returns the caller's own events, newest first.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	rows, err := s.events.ListOwned(ctx, me.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]Event, 0, len(rows))
	for i := range rows {
		out = append(out, newEvent(&rows[i]))
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, id uint64) (*db.Event, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.GetOwned(ctx, id, me.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(msgNotOwned)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return ev, nil
}

// Get returns one of the caller's events.
func (s *Service) Get(ctx context.Context, id uint64) (*Event, error) {
	ev, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	out := newEvent(ev)
	return &out, nil
}

// Create publishes a new event owned by the caller.
func (s *Service) Create(ctx context.Context, in Input) (*Event, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	f, err := in.fields(nil)
	if err != nil {
		return nil, err
	}

	ev := &db.Event{CreatorID: me.ID, MinAge: minEventAge, MaxAge: maxEventAge, Currency: "RUB"}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, svcErr.Map(err)
	}
	// Insert applies column defaults to zero values (is_active=false included),
	// so the validated fields go in as an update.
	if err := s.events.Update(ctx, ev, f); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("event created", "event_id", ev.ID, "tg_id", me.TgID)
	out := newEvent(ev)
	return &out, nil
}

// Update applies a partial update to one of the caller's events.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*Event, error) {
	ev, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := in.fields(ev)
	if err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, ev, f); err != nil {
		return nil, svcErr.Map(err)
	}
	out := newEvent(ev)
	return &out, nil
}

// Delete removes one of the caller's events.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return err
	}
	deleted, err := s.events.DeleteOwned(ctx, id, me.ID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !deleted {
		return svcErr.NotFound(msgNotOwned)
	}
	return nil
}

// OppositeFilters are the caller-controlled inputs of the opposite feed.
type OppositeFilters struct {
	City         string
	MinAge       *int
	MaxAge       *int
	VerifiedOnly bool
	Page         int
}

type OppositeResponse struct {
	Results []OppositeEvent `json:"results"`
	httpx.PageInfo
}

// Opposite lists active events created by players of the other gender.
//
// Behavior:
//   - city matches exactly, ignoring case.
//   - min_age (default 18) keeps events whose min_age >= it; max_age
//     (default 99) keeps events whose max_age <= it.
//   - verification keeps only verified creators.
//   - Newest first, same pagination as the game feed.
func (s *Service) Opposite(ctx context.Context, f OppositeFilters) (*OppositeResponse, error) {
	me, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	q := repository.EventQuery{
		ViewerID:      me.ID,
		CreatorGender: me.Gender.Opposite(),
		City:          strings.TrimSpace(f.City),
		MinAge:        minEventAge,
		MaxAge:        maxEventAge,
		VerifiedOnly:  f.VerifiedOnly,
		Page:          f.Page,
		PageSize:      s.appCtx.Config.Feed.PageSize,
	}
	if f.MinAge != nil {
		q.MinAge = *f.MinAge
	}
	if f.MaxAge != nil {
		q.MaxAge = *f.MaxAge
	}

	page, err := s.events.Opposite(ctx, q)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	results, err := s.withCreators(ctx, page.Events)
	if err != nil {
		return nil, err
	}
	return &OppositeResponse{Results: results, PageInfo: httpx.NewPageInfo(page.Page)}, nil
}

// GetOpposite returns one event from the opposite feed.
func (s *Service) GetOpposite(ctx context.Context, id uint64) (*OppositeEvent, error) {
	me, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.GetOpposite(ctx, id, me.ID, me.Gender.Opposite())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Ивент не найден")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out, err := s.withCreators(ctx, []db.Event{*ev})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// withCreators attaches each creator's full profile, dispatching on the profile variant.
func (s *Service) withCreators(ctx context.Context, events []db.Event) ([]OppositeEvent, error) {
	out := make([]OppositeEvent, 0, len(events))
	if len(events) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.CreatorID)
	}
	creators, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	list := make([]*db.Player, 0, len(creators))
	for _, p := range creators {
		list = append(list, p)
	}
	profiles, err := s.players.GetProfiles(ctx, list)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	photos, err := s.players.ListPhotosFor(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	for i := range events {
		ev := &events[i]
		item := OppositeEvent{Event: newEvent(ev)}
		if prof, ok := profiles[ev.CreatorID]; ok {
			showAge := !creators[ev.CreatorID].HideAgeInProfile
			item.CreatorProfile = view.NewProfile(ctx, s.appCtx, prof, photosOf(photos[ev.CreatorID], prof.Gender()), showAge)
		}
		out = append(out, item)
	}
	return out, nil
}

func photosOf(photos []db.Photo, g db.Gender) []db.Photo {
	out := make([]db.Photo, 0, len(photos))
	for _, ph := range photos {
		if ph.Gender == g {
			out = append(out, ph)
		}
	}
	return out
}
