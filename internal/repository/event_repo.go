package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/utils/pagination"
)

// EventQuery describes one page of the opposite-gender event feed.
type EventQuery struct {
	ViewerID      uint64
	CreatorGender db.Gender
	City          string
	MinAge        int
	MaxAge        int
	VerifiedOnly  bool
	Page          int
	PageSize      int
}

// EventPage is a materialized page of events.
type EventPage struct {
	Events []db.Event
	Page   pagination.Page
}

// EventRepository provides data access for events.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new repository bound to the given DB connection.
func NewEventRepository(database *gorm.DB) *EventRepository {
	return &EventRepository{db: database}
}

func (r *EventRepository) Create(ctx context.Context, ev *db.Event) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// GetOwned loads an event only if ownerID created it. Otherwise gorm.ErrRecordNotFound.
func (r *EventRepository) GetOwned(ctx context.Context, id, ownerID uint64) (*db.Event, error) {
	var ev db.Event
	if err := r.db.WithContext(ctx).Where("id = ? AND creator_id = ?", id, ownerID).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListOwned returns the owner's events, newest first.
func (r *EventRepository) ListOwned(ctx context.Context, ownerID uint64) ([]db.Event, error) {
	var events []db.Event
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	return events, err
}

// Update applies fields to an owned event and reloads it.
func (r *EventRepository) Update(ctx context.Context, ev *db.Event, fields map[string]any) error {
	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).Model(ev).Updates(fields).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).First(ev, ev.ID).Error
}

// DeleteOwned removes an event the owner created. Returns false if nothing matched.
func (r *EventRepository) DeleteOwned(ctx context.Context, id, ownerID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND creator_id = ?", id, ownerID).Delete(&db.Event{})
	return res.RowsAffected > 0, res.Error
}

// visible scopes events to active ones by a creator of the given gender, excluding the viewer's own.
func visible(viewerID uint64, g db.Gender) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Joins("JOIN players c ON c.id = events.creator_id").
			Where("events.is_active = ? AND c.gender = ? AND events.creator_id <> ?", true, g, viewerID)
	}
}

func (q EventQuery) filters(tx *gorm.DB) *gorm.DB {
	tx = visible(q.ViewerID, q.CreatorGender)(tx)
	if q.City != "" {
		tx = tx.Where("LOWER(events.city) = LOWER(?)", q.City)
	}
	tx = tx.Where("events.min_age >= ? AND events.max_age <= ?", q.MinAge, q.MaxAge)
	if q.VerifiedOnly {
		tx = tx.Where("c.verification = ?", true)
	}
	return tx
}

// Opposite returns one page of events created by players of q.CreatorGender, newest first.
func (r *EventRepository) Opposite(ctx context.Context, q EventQuery) (*EventPage, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&db.Event{}).Scopes(q.filters).Count(&total).Error; err != nil {
		return nil, err
	}

	page := pagination.New(q.Page, q.PageSize, total)
	out := &EventPage{Page: page, Events: []db.Event{}}
	if page.Empty() {
		return out, nil
	}

	err := r.db.WithContext(ctx).Model(&db.Event{}).
		Scopes(q.filters).
		Select("events.*").
		Order("events.created_at DESC, events.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out.Events).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOpposite loads one event visible to the viewer in the opposite feed.
func (r *EventRepository) GetOpposite(ctx context.Context, id, viewerID uint64, g db.Gender) (*db.Event, error) {
	var ev db.Event
	err := r.db.WithContext(ctx).Model(&db.Event{}).
		Scopes(visible(viewerID, g)).
		Select("events.*").
		Where("events.id = ?", id).
		First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
