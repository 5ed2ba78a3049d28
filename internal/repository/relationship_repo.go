package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/rndvu/internal/db"
)

// SympathyOutcome is the result of expressing sympathy.
type SympathyOutcome int

const (
	SympathyCreated SympathyOutcome = iota
	SympathyExists
	SympathyMatched
	SympathyAlreadyMutual
)

// Reaction selects the ledger a toggle works on.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// ReactionStats are the target's counters after a reaction change.
type ReactionStats struct {
	LikesCount    int64
	DislikesCount int64
}

// ReactionFlags tell how a viewer currently reacts to a target.
type ReactionFlags struct {
	Liked    bool
	Disliked bool
}

// RelationshipRepository owns sympathies, favorites (likes), dislikes and skips.
// Every multi-step mutation runs in one transaction.
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new repository bound to the given DB connection.
func NewRelationshipRepository(database *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: database}
}

func pair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// ExpressSympathy records from→to interest and converges reciprocal interest into a match.
//
// Behavior:
//  1. Deletes any from→to skip.
//  2. Inserts the pair row with ON CONFLICT(pair_low, pair_high) DO NOTHING.
//  3. Inserted → SympathyCreated.
//  4. Otherwise the existing row decides:
//     - already mutual → SympathyAlreadyMutual
//     - written by from → SympathyExists
//     - written by to → conditional flip of is_mutual → SympathyMatched
//
// Two players expressing at the same time both hit the unique index; exactly
// one insert wins and the other flips the flag, so the pair always ends mutual.
//
// Example:
//
//	outcome, row, err := repo.ExpressSympathy(ctx, 1, 2)
func (r *RelationshipRepository) ExpressSympathy(ctx context.Context, from, to uint64) (SympathyOutcome, *db.Sympathy, error) {
	var (
		outcome SympathyOutcome
		row     db.Sympathy
	)
	low, high := pair(from, to)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_player_id = ? AND to_player_id = ?", from, to).
			Delete(&db.PassedUser{}).Error; err != nil {
			return err
		}

		row = db.Sympathy{FromPlayerID: from, ToPlayerID: to, PairLow: low, PairHigh: high}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_low"}, {Name: "pair_high"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			outcome = SympathyCreated
			return nil
		}

		row = db.Sympathy{}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pair_low = ? AND pair_high = ?", low, high).
			First(&row).Error; err != nil {
			return err
		}

		switch {
		case row.IsMutual:
			outcome = SympathyAlreadyMutual
		case row.FromPlayerID == from:
			outcome = SympathyExists
		default:
			flip := tx.Model(&db.Sympathy{}).
				Where("id = ? AND is_mutual = ?", row.ID, false).
				Update("is_mutual", true)
			if flip.Error != nil {
				return flip.Error
			}
			if flip.RowsAffected == 1 {
				outcome = SympathyMatched
			} else {
				outcome = SympathyAlreadyMutual
			}
			row.IsMutual = true
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return outcome, &row, nil
}

// Skip hides `to` from `from`'s game feed and drops any sympathy between them.
//
// Behavior:
//   - The pair's sympathy row is deleted whatever its direction or mutuality.
//   - The skip row is upserted; a repeated skip refreshes created_at.
func (r *RelationshipRepository) Skip(ctx context.Context, from, to uint64, at time.Time) error {
	low, high := pair(from, to)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pair_low = ? AND pair_high = ?", low, high).
			Delete(&db.Sympathy{}).Error; err != nil {
			return err
		}
		skip := db.PassedUser{FromPlayerID: from, ToPlayerID: to, CreatedAt: at}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_player_id"}, {Name: "to_player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
		}).Create(&skip).Error
	})
}

// RemoveSympathy deletes the pair's sympathy row. Returns false when there was none.
func (r *RelationshipRepository) RemoveSympathy(ctx context.Context, a, b uint64) (bool, error) {
	low, high := pair(a, b)
	res := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		Delete(&db.Sympathy{})
	return res.RowsAffected > 0, res.Error
}

// GetSympathy returns the pair's row, or gorm.ErrRecordNotFound.
func (r *RelationshipRepository) GetSympathy(ctx context.Context, a, b uint64) (*db.Sympathy, error) {
	low, high := pair(a, b)
	var s db.Sympathy
	if err := r.db.WithContext(ctx).Where("pair_low = ? AND pair_high = ?", low, high).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// MutualSympathies lists matches the player takes part in, newest first.
func (r *RelationshipRepository) MutualSympathies(ctx context.Context, playerID uint64) ([]db.Sympathy, error) {
	var rows []db.Sympathy
	err := r.db.WithContext(ctx).
		Where("is_mutual = ? AND (from_player_id = ? OR to_player_id = ?)", true, playerID, playerID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// --- likes / dislikes ---

type edge struct {
	model   any
	fromCol string
	toCol   string
	counter string
}

func edgeFor(kind Reaction) edge {
	if kind == ReactionDislike {
		return edge{model: &db.Dislike{}, fromCol: "from_player_id", toCol: "to_player_id", counter: "dislikes_count"}
	}
	return edge{model: &db.Favorite{}, fromCol: "owner_id", toCol: "target_id", counter: "likes_count"}
}

func opposite(kind Reaction) Reaction {
	if kind == ReactionDislike {
		return ReactionLike
	}
	return ReactionDislike
}

func newEdgeRow(kind Reaction, from, to uint64) any {
	if kind == ReactionDislike {
		return &db.Dislike{FromPlayerID: from, ToPlayerID: to}
	}
	return &db.Favorite{OwnerID: from, TargetID: to}
}

func deleteEdge(tx *gorm.DB, kind Reaction, from, to uint64) (bool, error) {
	e := edgeFor(kind)
	res := tx.Where(e.fromCol+" = ? AND "+e.toCol+" = ?", from, to).Delete(e.model)
	return res.RowsAffected > 0, res.Error
}

func insertEdge(tx *gorm.DB, kind Reaction, from, to uint64) (bool, error) {
	e := edgeFor(kind)
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: e.fromCol}, {Name: e.toCol}},
		DoNothing: true,
	}).Create(newEdgeRow(kind, from, to))
	return res.RowsAffected == 1, res.Error
}

func bump(tx *gorm.DB, playerID uint64, kind Reaction, delta int) error {
	col := edgeFor(kind).counter
	expr := gorm.Expr(col + " + 1")
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
	}
	return tx.Model(&db.Player{}).Where("id = ?", playerID).UpdateColumn(col, expr).Error
}

func lockTarget(tx *gorm.DB, playerID uint64) error {
	var p db.Player
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&p, playerID).Error
}

func readStats(tx *gorm.DB, playerID uint64) (ReactionStats, error) {
	var p db.Player
	if err := tx.Select("likes_count", "dislikes_count").First(&p, playerID).Error; err != nil {
		return ReactionStats{}, err
	}
	return ReactionStats{LikesCount: p.LikesCount, DislikesCount: p.DislikesCount}, nil
}

// ToggleReaction flips from's like or dislike on `to`.
//
// Behavior:
//   - Requested edge exists → delete it, decrement its counter, removed=true.
//   - Otherwise delete the opposite edge (decrementing if it existed), insert
//     the requested edge and increment its counter.
//   - Counters move only with the edge that produced them, inside the same transaction.
func (r *RelationshipRepository) ToggleReaction(ctx context.Context, from, to uint64, kind Reaction) (removed bool, stats ReactionStats, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, to); err != nil {
			return err
		}

		gone, err := deleteEdge(tx, kind, from, to)
		if err != nil {
			return err
		}
		if gone {
			removed = true
			if err := bump(tx, to, kind, -1); err != nil {
				return err
			}
		} else {
			if err := r.setEdge(tx, from, to, kind); err != nil {
				return err
			}
		}

		stats, err = readStats(tx, to)
		return err
	})
	return removed, stats, err
}

// setEdge makes kind the only reaction from→to. Returns nil when it was already set.
func (r *RelationshipRepository) setEdge(tx *gorm.DB, from, to uint64, kind Reaction) error {
	other := opposite(kind)
	gone, err := deleteEdge(tx, other, from, to)
	if err != nil {
		return err
	}
	if gone {
		if err := bump(tx, to, other, -1); err != nil {
			return err
		}
	}
	inserted, err := insertEdge(tx, kind, from, to)
	if err != nil {
		return err
	}
	if inserted {
		return bump(tx, to, kind, +1)
	}
	return nil
}

// AddFavorite sets a like from owner to target if it is not set yet.
//
// Behavior:
//   - Idempotent: a second call returns created=false and the existing row.
//   - An existing dislike is removed with its counter.
func (r *RelationshipRepository) AddFavorite(ctx context.Context, owner, target uint64) (bool, *db.Favorite, error) {
	var (
		created bool
		fav     db.Favorite
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, target); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&db.Favorite{}).
			Where("owner_id = ? AND target_id = ?", owner, target).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := r.setEdge(tx, owner, target, ReactionLike); err != nil {
				return err
			}
			created = true
		}
		return tx.Where("owner_id = ? AND target_id = ?", owner, target).First(&fav).Error
	})
	if err != nil {
		return false, nil, err
	}
	return created, &fav, nil
}

// RemoveFavorite unsets owner's like on target. Returns false when there was none.
func (r *RelationshipRepository) RemoveFavorite(ctx context.Context, owner, target uint64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, target); err != nil {
			return err
		}
		gone, err := deleteEdge(tx, ReactionLike, owner, target)
		if err != nil {
			return err
		}
		deleted = gone
		if gone {
			return bump(tx, target, ReactionLike, -1)
		}
		return nil
	})
	return deleted, err
}

// ListFavorites returns owner's favorites, newest first.
func (r *RelationshipRepository) ListFavorites(ctx context.Context, owner uint64) ([]db.Favorite, error) {
	var rows []db.Favorite
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// Flags reports viewer's current reactions on target.
func (r *RelationshipRepository) Flags(ctx context.Context, viewer, target uint64) (ReactionFlags, error) {
	var flags ReactionFlags
	var n int64
	if err := r.db.WithContext(ctx).Model(&db.Favorite{}).
		Where("owner_id = ? AND target_id = ?", viewer, target).Count(&n).Error; err != nil {
		return flags, err
	}
	flags.Liked = n > 0
	if err := r.db.WithContext(ctx).Model(&db.Dislike{}).
		Where("from_player_id = ? AND to_player_id = ?", viewer, target).Count(&n).Error; err != nil {
		return flags, err
	}
	flags.Disliked = n > 0
	return flags, nil
}

// PurgeExpiredSkips deletes skips created at or before `before`.
func (r *RelationshipRepository) PurgeExpiredSkips(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at <= ?", before).Delete(&db.PassedUser{})
	return res.RowsAffected, res.Error
}
