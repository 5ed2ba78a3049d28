package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/utils/pagination"
)

// FeedQuery describes one page of the candidate feed.
//
// Fields:
//   - ViewerID: the requester, never part of the result.
//   - Gender: the candidates' gender (opposite of the viewer's).
//   - City: case-insensitive substring, empty means any.
//   - BirthEarliest/BirthLatest: inclusive birth-date bounds derived from age filters.
//   - Premium: drops relationship exclusions and orders by registration.
//   - SkipsSince: skips created after this instant still hide a candidate.
type FeedQuery struct {
	ViewerID      uint64
	Gender        db.Gender
	City          string
	BirthEarliest *time.Time
	BirthLatest   *time.Time
	Premium       bool
	SkipsSince    time.Time
	Page          int
	PageSize      int
}

// Candidate is one feed entry with what the response needs.
type Candidate struct {
	Player    db.Player
	BirthDate *time.Time
	Photo     *db.Photo
}

// FeedPage is a materialized page of candidates.
type FeedPage struct {
	Candidates []Candidate
	Page       pagination.Page
}

// FeedRepository evaluates FeedQuery values against the database.
type FeedRepository struct {
	db      *gorm.DB
	players *PlayerRepository
}

// NewFeedRepository creates a new repository bound to the given DB connection.
func NewFeedRepository(database *gorm.DB) *FeedRepository {
	return &FeedRepository{db: database, players: NewPlayerRepository(database)}
}

func profileTable(g db.Gender) string {
	if g == db.GenderMan {
		return "man_profiles"
	}
	return "woman_profiles"
}

// likePattern escapes LIKE wildcards with '!' and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// candidates scopes players to the feed universe plus the query's filters.
func (q FeedQuery) candidates(tx *gorm.DB) *gorm.DB {
	tx = tx.Joins("JOIN "+profileTable(q.Gender)+" pr ON pr.player_id = players.id").
		Where("players.gender = ? AND players.is_active = ? AND players.id <> ?", q.Gender, true, q.ViewerID).
		Where("EXISTS (SELECT 1 FROM photos ph WHERE ph.player_id = players.id AND ph.gender = players.gender)")

	if q.City != "" {
		tx = tx.Where("LOWER(players.city) LIKE ? ESCAPE '!'", likePattern(q.City))
	}
	if q.BirthLatest != nil {
		tx = tx.Where("pr.birth_date <= ?", *q.BirthLatest)
	}
	if q.BirthEarliest != nil {
		tx = tx.Where("pr.birth_date >= ?", *q.BirthEarliest)
	}

	if !q.Premium {
		tx = tx.
			Where("NOT EXISTS (SELECT 1 FROM sympathies s WHERE s.from_player_id = ? AND s.to_player_id = players.id)", q.ViewerID).
			Where("NOT EXISTS (SELECT 1 FROM sympathies s WHERE s.is_mutual = ? AND s.from_player_id = players.id AND s.to_player_id = ?)", true, q.ViewerID).
			Where("NOT EXISTS (SELECT 1 FROM passed_users pu WHERE pu.from_player_id = ? AND pu.to_player_id = players.id AND pu.created_at > ?)", q.ViewerID, q.SkipsSince)
	}
	return tx
}

type candidateRow struct {
	db.Player `gorm:"embedded"`
	BirthDate *time.Time
}

// Feed returns one page of candidates for q.
//
// Behavior:
//   - Counts first; zero → empty page without a second query.
//   - Page is clamped into [1, total_pages].
//   - Game order is random per request, premium order is registration_date DESC, id DESC.
//   - Each candidate carries one photo: the main one, else the earliest.
func (r *FeedRepository) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&db.Player{}).Scopes(q.candidates).Count(&total).Error; err != nil {
		return nil, err
	}

	page := pagination.New(q.Page, q.PageSize, total)
	out := &FeedPage{Page: page, Candidates: []Candidate{}}
	if page.Empty() {
		return out, nil
	}

	order := db.RandomFunc(r.db)
	if q.Premium {
		order = "players.registration_date DESC, players.id DESC"
	}

	var rows []candidateRow
	err := r.db.WithContext(ctx).Model(&db.Player{}).
		Scopes(q.candidates).
		Select("players.*, pr.birth_date AS birth_date").
		Order(order).
		Offset(page.Offset()).
		Limit(page.Size).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Player.ID)
	}
	photos, err := r.players.MainPhotos(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out.Candidates = append(out.Candidates, Candidate{
			Player:    row.Player,
			BirthDate: row.BirthDate,
			Photo:     photos[row.Player.ID],
		})
	}
	return out, nil
}
