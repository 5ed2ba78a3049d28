// Package view turns db rows into the JSON shapes of the HTTP API.
package view

import (
	"context"
	"time"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/utils/dates"
)

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// ParseDate parses a YYYY-MM-DD civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

type Photo struct {
	ID         uint64    `json:"id"`
	URL        string    `json:"url"`
	IsMain     bool      `json:"is_main"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func NewPhoto(ctx context.Context, a *app.AppContext, ph *db.Photo) *Photo {
	if ph == nil {
		return nil
	}
	return &Photo{ID: ph.ID, URL: a.PhotoURL(ctx, ph.ObjectKey), IsMain: ph.IsMain, UploadedAt: ph.UploadedAt}
}

func NewPhotos(ctx context.Context, a *app.AppContext, photos []db.Photo) []Photo {
	out := make([]Photo, 0, len(photos))
	for i := range photos {
		out = append(out, *NewPhoto(ctx, a, &photos[i]))
	}
	return out
}

// Player is the full player row as its owner sees it.
type Player struct {
	ID                        uint64    `json:"id"`
	TgID                      int64     `json:"tg_id"`
	FirstName                 string    `json:"first_name"`
	Username                  string    `json:"username"`
	LanguageCode              string    `json:"language_code"`
	Gender                    *string   `json:"gender"`
	City                      string    `json:"city"`
	RegistrationDate          time.Time `json:"registration_date"`
	HideAgeInProfile          bool      `json:"hide_age_in_profile"`
	IsActive                  bool      `json:"is_active"`
	Verification              bool      `json:"verification"`
	LikesCount                int64     `json:"likes_count"`
	DislikesCount             int64     `json:"dislikes_count"`
	LikeRatio                 float64   `json:"like_ratio"`
	PaidSubscription          bool      `json:"paid_subscription"`
	CountDaysPaidSubscription *int64    `json:"count_days_paid_subscription"`
	SubscriptionEndDate       *string   `json:"subscription_end_date"`
}

func gender(g db.Gender) *string {
	if !g.Valid() {
		return nil
	}
	s := string(g)
	return &s
}

func NewPlayer(p *db.Player) *Player {
	return &Player{
		ID:                        p.ID,
		TgID:                      p.TgID,
		FirstName:                 p.FirstName,
		Username:                  p.Username,
		LanguageCode:              p.LanguageCode,
		Gender:                    gender(p.Gender),
		City:                      p.City,
		RegistrationDate:          p.RegistrationDate,
		HideAgeInProfile:          p.HideAgeInProfile,
		IsActive:                  p.IsActive,
		Verification:              p.Verification,
		LikesCount:                p.LikesCount,
		DislikesCount:             p.DislikesCount,
		LikeRatio:                 p.LikeRatio(),
		PaidSubscription:          p.PaidSubscription,
		CountDaysPaidSubscription: p.CountDaysPaidSubscription,
		SubscriptionEndDate:       formatDate(p.SubscriptionEndDate),
	}
}

// Card is the compact public shape used by the feed and favorites.
type Card struct {
	ID        uint64  `json:"id"`
	TgID      int64   `json:"tg_id"`
	FirstName string  `json:"first_name"`
	Username  string  `json:"username"`
	Gender    *string `json:"gender"`
	City      string  `json:"city"`
	IsActive  bool    `json:"is_active"`
	Age       *int    `json:"age"`
	Photo     *Photo  `json:"photo"`
}

// NewCard builds a card. Age is null when the player hides it.
func NewCard(ctx context.Context, a *app.AppContext, p *db.Player, birth *time.Time, photo *db.Photo) Card {
	c := Card{
		ID:        p.ID,
		TgID:      p.TgID,
		FirstName: p.FirstName,
		Username:  p.Username,
		Gender:    gender(p.Gender),
		City:      p.City,
		IsActive:  p.IsActive,
		Photo:     NewPhoto(ctx, a, photo),
	}
	if !p.HideAgeInProfile {
		c.Age = dates.AgePtr(birth, a.Today())
	}
	return c
}

// Profile renders either profile variant. Woman-only fields are omitted for
// men, except languages which is null for them.
type Profile struct {
	Type      string   `json:"type"`
	PlayerID  uint64   `json:"player_id"`
	BirthDate *string  `json:"birth_date"`
	Age       *int     `json:"age"`
	About     string   `json:"about"`
	Height    *int     `json:"height,omitempty"`
	Weight    *int     `json:"weight,omitempty"`
	BustSize  *int     `json:"bust_size,omitempty"`
	WaistSize *int     `json:"waist_size,omitempty"`
	HipsSize  *int     `json:"hips_size,omitempty"`
	Languages []string `json:"languages"`
	Interests *string  `json:"interests,omitempty"`
	Photos    []Photo  `json:"photos"`
}

// NewProfile renders prof with its photos. showAge controls the derived age
// and the raw birth date for viewers other than the owner.
func NewProfile(ctx context.Context, a *app.AppContext, prof db.Profile, photos []db.Photo, showAge bool) *Profile {
	if prof == nil {
		return nil
	}
	out := &Profile{PlayerID: prof.OwnerID(), Photos: NewPhotos(ctx, a, photos)}
	if showAge {
		out.BirthDate = formatDate(prof.Birth())
		out.Age = dates.AgePtr(prof.Birth(), a.Today())
	}

	switch p := prof.(type) {
	case *db.ManProfile:
		out.Type = "man"
		out.About = p.About
	case *db.WomanProfile:
		out.Type = "woman"
		out.About = p.About
		out.Height = p.Height
		out.Weight = p.Weight
		out.BustSize = p.BustSize
		out.WaistSize = p.WaistSize
		out.HipsSize = p.HipsSize
		out.Languages = []string(p.Languages)
		if out.Languages == nil {
			out.Languages = []string{}
		}
		interests := p.Interests
		out.Interests = &interests
	}
	return out
}

type Sympathy struct {
	ID         uint64    `json:"id"`
	FromPlayer *Player   `json:"from_player"`
	ToPlayer   *Player   `json:"to_player"`
	IsMutual   bool      `json:"is_mutual"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSympathy renders s with both parties looked up in players. Missing
// parties render as null.
func NewSympathy(s *db.Sympathy, players map[uint64]*db.Player) Sympathy {
	out := Sympathy{ID: s.ID, IsMutual: s.IsMutual, CreatedAt: s.CreatedAt}
	if p, ok := players[s.FromPlayerID]; ok {
		out.FromPlayer = NewPlayer(p)
	}
	if p, ok := players[s.ToPlayerID]; ok {
		out.ToPlayer = NewPlayer(p)
	}
	return out
}
