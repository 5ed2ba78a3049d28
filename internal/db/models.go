package db

import (
	"time"

	"gorm.io/datatypes"
)

// Gender is the player's declared gender. The empty value means "not set yet".
type Gender string

const (
	GenderUnset Gender = ""
	GenderMan   Gender = "Man"
	GenderWoman Gender = "Woman"
)

// Valid reports whether g is one of the settable genders.
func (g Gender) Valid() bool { return g == GenderMan || g == GenderWoman }

// Opposite returns the gender a player of g is matched against.
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMan:
		return GenderWoman
	case GenderWoman:
		return GenderMan
	default:
		return GenderUnset
	}
}

// Player table.
//
// TgID is the immutable external key coming from Telegram. ID is the internal
// surrogate used by every relation.
type Player struct {
	ID                        uint64     `gorm:"primaryKey;autoIncrement"`
	TgID                      int64      `gorm:"uniqueIndex;not null"`
	FirstName                 string     `gorm:"size:50"`
	Username                  string     `gorm:"size:100"`
	LanguageCode              string     `gorm:"size:30;default:ru"`
	Gender                    Gender     `gorm:"size:10;index:idx_player_feed,priority:1"`
	City                      string     `gorm:"size:100"`
	RegistrationDate          time.Time  `gorm:"autoCreateTime;index:idx_player_feed,priority:3,sort:desc"`
	HideAgeInProfile          bool       `gorm:"not null;default:true"`
	IsActive                  bool       `gorm:"not null;default:true;index:idx_player_feed,priority:2"`
	Verification              bool       `gorm:"not null;default:false"`
	LikesCount                int64      `gorm:"not null;default:0"`
	DislikesCount             int64      `gorm:"not null;default:0"`
	PaidSubscription          bool       `gorm:"not null;default:false"`
	CountDaysPaidSubscription *int64     `gorm:""`
	SubscriptionEndDate       *time.Time `gorm:"type:date"`
	UpdatedAt                 time.Time  `gorm:"autoUpdateTime"`
}

// LikeRatio is the share of likes among all reactions, in percent rounded to one decimal.
func (p *Player) LikeRatio() float64 {
	return LikeRatio(p.LikesCount, p.DislikesCount)
}

// Profile is the gendered questionnaire attached to a player.
// The concrete type is always *ManProfile or *WomanProfile.
type Profile interface {
	OwnerID() uint64
	Gender() Gender
	Birth() *time.Time
	profile()
}

// ManProfile is the profile of a player with GenderMan.
type ManProfile struct {
	PlayerID  uint64     `gorm:"primaryKey"`
	BirthDate *time.Time `gorm:"type:date;index"`
	About     string     `gorm:"size:1000"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (p *ManProfile) OwnerID() uint64   { return p.PlayerID }
func (p *ManProfile) Gender() Gender    { return GenderMan }
func (p *ManProfile) Birth() *time.Time { return p.BirthDate }
func (p *ManProfile) profile()          {}

// WomanProfile is the profile of a player with GenderWoman.
type WomanProfile struct {
	PlayerID  uint64                      `gorm:"primaryKey"`
	BirthDate *time.Time                  `gorm:"type:date;index"`
	Height    *int                        `gorm:""`
	Weight    *int                        `gorm:""`
	BustSize  *int                        `gorm:""`
	WaistSize *int                        `gorm:""`
	HipsSize  *int                        `gorm:""`
	Languages datatypes.JSONSlice[string] `gorm:""`
	Interests string                      `gorm:"size:255"`
	About     string                      `gorm:"size:2000"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (p *WomanProfile) OwnerID() uint64   { return p.PlayerID }
func (p *WomanProfile) Gender() Gender    { return GenderWoman }
func (p *WomanProfile) Birth() *time.Time { return p.BirthDate }
func (p *WomanProfile) profile()          {}

// Languages a woman profile may list.
var ProfileLanguages = []string{"RU", "EN", "FR", "DE", "ES", "IT", "ZH", "JA", "AR", "PT"}

// NewProfile returns an empty profile of the variant matching g.
func NewProfile(playerID uint64, g Gender) Profile {
	switch g {
	case GenderMan:
		return &ManProfile{PlayerID: playerID}
	case GenderWoman:
		return &WomanProfile{PlayerID: playerID, Languages: datatypes.JSONSlice[string]{}}
	default:
		return nil
	}
}

// Photo belongs to exactly one profile. Gender is the variant tag of that
// profile, so a ManPhoto and a WomanPhoto never share an owner.
//
// Indexes:
//   - idx_photo_owner(player_id, gender, is_main) serves the feed's EXISTS
//     check and the main-photo lookup.
type Photo struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	PlayerID   uint64    `gorm:"not null;index:idx_photo_owner,priority:1"`
	Gender     Gender    `gorm:"size:10;not null;index:idx_photo_owner,priority:2"`
	ObjectKey  string    `gorm:"size:512;not null"`
	IsMain     bool      `gorm:"not null;default:false;index:idx_photo_owner,priority:3"`
	UploadedAt time.Time `gorm:"autoCreateTime"`
}

// Sympathy is a directed interest from one player to another.
//
// PairLow/PairHigh hold the unordered pair (min, max) under a unique index, so
// at most one row exists per pair whatever the direction. The first expressed
// direction stays the canonical row; reciprocity only flips IsMutual.
type Sympathy struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	FromPlayerID uint64    `gorm:"not null;index:idx_sympathy_from_created,priority:1"`
	ToPlayerID   uint64    `gorm:"not null;index:idx_sympathy_to_created,priority:1"`
	PairLow      uint64    `gorm:"not null;uniqueIndex:uniq_sympathy_pair,priority:1"`
	PairHigh     uint64    `gorm:"not null;uniqueIndex:uniq_sympathy_pair,priority:2"`
	IsMutual     bool      `gorm:"not null;default:false;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_sympathy_from_created,priority:2;index:idx_sympathy_to_created,priority:2"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Other returns the counterpart of playerID in the pair.
func (s *Sympathy) Other(playerID uint64) uint64 {
	if s.FromPlayerID == playerID {
		return s.ToPlayerID
	}
	return s.FromPlayerID
}

// Favorite is a directed like. Unique per ordered pair.
type Favorite struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"not null;uniqueIndex:uniq_favorite_owner_target,priority:1;index:idx_favorite_owner_created,priority:1"`
	TargetID  uint64    `gorm:"not null;uniqueIndex:uniq_favorite_owner_target,priority:2;index:idx_favorite_target_created,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_favorite_owner_created,priority:2;index:idx_favorite_target_created,priority:2"`
}

// Dislike is a directed dislike. Never coexists with a Favorite for the same ordered pair.
type Dislike struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	FromPlayerID uint64    `gorm:"not null;uniqueIndex:uniq_dislike_from_to,priority:1"`
	ToPlayerID   uint64    `gorm:"not null;uniqueIndex:uniq_dislike_from_to,priority:2;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Dislike) TableName() string { return "user_reaction_dislikes" }

// PassedUser is a skip. It hides the target from the skipper's game feed
// while CreatedAt is inside the retention window.
type PassedUser struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	FromPlayerID uint64    `gorm:"not null;uniqueIndex:uniq_passed_from_to,priority:1"`
	ToPlayerID   uint64    `gorm:"not null;uniqueIndex:uniq_passed_from_to,priority:2"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

// Event is a meetup offer published by a player.
type Event struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	CreatorID   uint64     `gorm:"not null;index"`
	City        string     `gorm:"size:150;not null"`
	Date        *time.Time `gorm:"type:date"`
	Duration    *int       `gorm:""`
	ExactTime   *string    `gorm:"size:5"`
	Place       *string    `gorm:"size:50"`
	MinAge      int        `gorm:"not null;default:18"`
	MaxAge      int        `gorm:"not null;default:99"`
	Reward      int64      `gorm:"not null;default:0"`
	Currency    string     `gorm:"size:3;not null;default:RUB"`
	Description string     `gorm:"type:text"`
	IsActive    bool       `gorm:"not null;default:true;index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:,sort:desc"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// Allowed event durations in hours. 5 means "5 or more".
var EventDurations = []int{1, 2, 3, 4, 5, 24}

// Allowed event places.
var EventPlaces = []string{
	"restaurant", "cafe", "hotel", "apartments", "restaurant_and_apartments",
	"yacht", "villa", "bath_complex", "private_house", "country_complex",
	"private_sector", "club", "club_and_hotel", "travel_together",
}

// SubscriptionType is the billing period of a product.
type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "monthly"
	SubscriptionYearly  SubscriptionType = "yearly"
)

// Product is something a player can buy; currently only subscriptions.
type Product struct {
	ID               uint64           `gorm:"primaryKey;autoIncrement"`
	Name             string           `gorm:"size:100;not null"`
	SubscriptionType SubscriptionType `gorm:"size:20"`
	DurationDays     int              `gorm:"not null;default:0"`
	Price            int64            `gorm:"not null"`
}

// Purchase records a payment attempt. IsSuccessful flips false→true at most once.
type Purchase struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	PlayerID     uint64    `gorm:"not null;index"`
	ProductID    uint64    `gorm:"not null"`
	PaymentID    string    `gorm:"size:100;not null;uniqueIndex"`
	IsSuccessful bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// JobRun marks a scheduled job as applied for one run key (for example a date).
type JobRun struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:uniq_job_run,priority:1"`
	RunKey    string    `gorm:"size:32;not null;uniqueIndex:uniq_job_run,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Player{}, &ManProfile{}, &WomanProfile{}, &Photo{},
		&Sympathy{}, &Favorite{}, &Dislike{}, &PassedUser{},
		&Event{}, &Product{}, &Purchase{}, &JobRun{},
	}
}
