package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/rndvu/internal/db"
)

// ErrGenderLocked is returned when a player tries to change an already set gender.
var ErrGenderLocked = errors.New("gender already set")

// Identity is what the auth gate knows about a Telegram user.
type Identity struct {
	TgID         int64
	FirstName    string
	Username     string
	LanguageCode string
}

// PlayerRepository provides data access for players, their profiles and photos.
type PlayerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository creates a new repository bound to the given DB connection.
func NewPlayerRepository(database *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: database}
}

// GetByTgID loads a player by Telegram id. Returns gorm.ErrRecordNotFound when absent.
func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*db.Player, error) {
	var p db.Player
	if err := r.db.WithContext(ctx).Where("tg_id = ?", tgID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id uint64) (*db.Player, error) {
	var p db.Player
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads players keyed by id. Missing ids are simply absent from the map.
func (r *PlayerRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*db.Player, error) {
	out := make(map[uint64]*db.Player, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var players []db.Player
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	for i := range players {
		out[players[i].ID] = &players[i]
	}
	return out, nil
}

// GetOrCreate returns the player for the identity, inserting it on first sight.
//
// Behavior:
//   - Insert uses ON CONFLICT(tg_id) DO NOTHING, so concurrent first requests
//     converge on one row.
//   - created is true only for the request whose insert won.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, id Identity) (*db.Player, bool, error) {
	lang := id.LanguageCode
	if lang == "" {
		lang = "ru"
	}
	p := db.Player{
		TgID:         id.TgID,
		FirstName:    id.FirstName,
		Username:     id.Username,
		LanguageCode: lang,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tg_id"}},
			DoNothing: true,
		}).
		Create(&p)
	if res.Error != nil {
		return nil, false, res.Error
	}

	loaded, err := r.GetByTgID(ctx, id.TgID)
	if err != nil {
		return nil, false, err
	}
	return loaded, res.RowsAffected == 1, nil
}

// UpdatePlayer applies a column→value map to the player row.
func (r *PlayerRepository) UpdatePlayer(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&db.Player{ID: id}).Updates(fields).Error
}

// SetGender sets the player's gender once and creates the matching empty profile.
//
// Behavior:
//   - Unset gender → set it and create the profile variant.
//   - Same gender again → no-op, profile ensured.
//   - Different gender → ErrGenderLocked.
func (r *PlayerRepository) SetGender(ctx context.Context, playerID uint64, g db.Gender) (*db.Player, db.Profile, error) {
	var (
		player db.Player
		prof   db.Profile
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			return err
		}
		if player.Gender.Valid() && player.Gender != g {
			return ErrGenderLocked
		}
		if player.Gender != g {
			if err := tx.Model(&player).Update("gender", g).Error; err != nil {
				return err
			}
			player.Gender = g
		}

		prof = db.NewProfile(playerID, g)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(prof).Error; err != nil {
			return err
		}
		return tx.Where("player_id = ?", playerID).First(prof).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &player, prof, nil
}

// GetProfile loads the profile variant matching the player's gender.
// Returns gorm.ErrRecordNotFound when the gender is unset or the row is missing.
func (r *PlayerRepository) GetProfile(ctx context.Context, p *db.Player) (db.Profile, error) {
	prof := db.NewProfile(p.ID, p.Gender)
	if prof == nil {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.db.WithContext(ctx).Where("player_id = ?", p.ID).First(prof).Error; err != nil {
		return nil, err
	}
	return prof, nil
}

// GetProfiles loads profiles for many players, dispatching on each gender.
func (r *PlayerRepository) GetProfiles(ctx context.Context, players []*db.Player) (map[uint64]db.Profile, error) {
	out := make(map[uint64]db.Profile, len(players))
	var menIDs, womenIDs []uint64
	for _, p := range players {
		switch p.Gender {
		case db.GenderMan:
			menIDs = append(menIDs, p.ID)
		case db.GenderWoman:
			womenIDs = append(womenIDs, p.ID)
		}
	}
	if len(menIDs) > 0 {
		var men []db.ManProfile
		if err := r.db.WithContext(ctx).Where("player_id IN ?", menIDs).Find(&men).Error; err != nil {
			return nil, err
		}
		for i := range men {
			out[men[i].PlayerID] = &men[i]
		}
	}
	if len(womenIDs) > 0 {
		var women []db.WomanProfile
		if err := r.db.WithContext(ctx).Where("player_id IN ?", womenIDs).Find(&women).Error; err != nil {
			return nil, err
		}
		for i := range women {
			out[women[i].PlayerID] = &women[i]
		}
	}
	return out, nil
}

// UpdateProfile applies a column→value map to the profile row.
func (r *PlayerRepository) UpdateProfile(ctx context.Context, prof db.Profile, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(prof).Where("player_id = ?", prof.OwnerID()).Updates(fields).Error
}

// SetVerification marks the player verified.
func (r *PlayerRepository) SetVerification(ctx context.Context, playerID uint64) error {
	return r.db.WithContext(ctx).Model(&db.Player{ID: playerID}).Update("verification", true).Error
}

// --- photos ---

// ListPhotos returns the photos of one profile, main first, then by upload time.
func (r *PlayerRepository) ListPhotos(ctx context.Context, playerID uint64, g db.Gender) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND gender = ?", playerID, g).
		Order("is_main DESC, uploaded_at ASC, id ASC").
		Find(&photos).Error
	return photos, err
}

// ListPhotosFor returns photos grouped by owner for many players.
func (r *PlayerRepository) ListPhotosFor(ctx context.Context, playerIDs []uint64) (map[uint64][]db.Photo, error) {
	out := make(map[uint64][]db.Photo, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("player_id IN ?", playerIDs).
		Order("is_main DESC, uploaded_at ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	for _, ph := range photos {
		out[ph.PlayerID] = append(out[ph.PlayerID], ph)
	}
	return out, nil
}

// MainPhotos picks one photo per player: the main one, else the earliest uploaded.
func (r *PlayerRepository) MainPhotos(ctx context.Context, playerIDs []uint64) (map[uint64]*db.Photo, error) {
	grouped, err := r.ListPhotosFor(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*db.Photo, len(grouped))
	for id, photos := range grouped {
		if len(photos) > 0 {
			ph := photos[0]
			out[id] = &ph
		}
	}
	return out, nil
}

func (r *PlayerRepository) AddPhoto(ctx context.Context, ph *db.Photo) error {
	return r.db.WithContext(ctx).Create(ph).Error
}

// DeletePhotos removes the given photos owned by the player and returns how many went.
func (r *PlayerRepository) DeletePhotos(ctx context.Context, playerID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("player_id = ? AND id IN ?", playerID, ids).
		Delete(&db.Photo{})
	return res.RowsAffected, res.Error
}

// SetMainPhoto makes photoID the only main photo of the profile.
//
// Behavior:
//   - Photo must belong to the player's current profile variant, else gorm.ErrRecordNotFound.
//   - All flags are cleared first, then the chosen one is set, in one transaction.
func (r *PlayerRepository) SetMainPhoto(ctx context.Context, playerID uint64, g db.Gender, photoID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ph db.Photo
		if err := tx.Where("id = ? AND player_id = ? AND gender = ?", photoID, playerID, g).First(&ph).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Photo{}).
			Where("player_id = ? AND gender = ?", playerID, g).
			Update("is_main", false).Error; err != nil {
			return err
		}
		return tx.Model(&db.Photo{}).Where("id = ?", photoID).Update("is_main", true).Error
	})
}
