package player

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/auth"
	"github.com/oggyb/rndvu/internal/db"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/caller"
	"github.com/oggyb/rndvu/internal/service/view"
	"github.com/oggyb/rndvu/internal/storage"
)

// Service owns the caller's own player row, profile and photos.
type Service struct {
	appCtx  *app.AppContext
	players *repository.PlayerRepository
}

func NewPlayerService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		players: repository.NewPlayerRepository(appCtx.DB),
	}
}

type InfoResponse struct {
	Created bool         `json:"created"`
	Player  *view.Player `json:"player"`
}

// Info returns the caller's player, creating it from the Telegram claims on first visit.
//
// Behavior:
//   - Created is true when the row was just inserted or the gender is still unset,
//     which tells the client to run onboarding.
func (s *Service) Info(ctx context.Context, u auth.User) (*InfoResponse, error) {
	lang := u.LanguageCode
	if lang == "" {
		lang = "ru"
	}
	p, created, err := s.players.GetOrCreate(ctx, repository.Identity{
		TgID:         u.ID,
		FirstName:    u.FirstName,
		Username:     u.Username,
		LanguageCode: lang,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if created {
		s.appCtx.Logger.Info("player registered", "tg_id", u.ID)
	}
	return &InfoResponse{Created: created || !p.Gender.Valid(), Player: view.NewPlayer(p)}, nil
}

type GenderResponse struct {
	Player  *view.Player  `json:"player"`
	Profile *view.Profile `json:"profile"`
}

// SetGender sets the caller's gender once and creates the matching profile.
func (s *Service) SetGender(ctx context.Context, raw string) (*GenderResponse, error) {
	g := db.Gender(raw)
	if !g.Valid() {
		return nil, svcErr.InvalidArgument("Параметр gender обязателен (Man, Woman)")
	}
	p, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}

	p, prof, err := s.players.SetGender(ctx, p.ID, g)
	if errors.Is(err, repository.ErrGenderLocked) {
		return nil, svcErr.InvalidArgument("Пол уже указан и не может быть изменён")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GenderResponse{
		Player:  view.NewPlayer(p),
		Profile: view.NewProfile(ctx, s.appCtx, prof, nil, true),
	}, nil
}

// OwnProfile is what the owner sees: the profile plus the player row.
type OwnProfile struct {
	*view.Profile
	Player *view.Player `json:"player"`
}

func (s *Service) ownProfile(ctx context.Context, p *db.Player) (*OwnProfile, error) {
	prof, err := s.players.GetProfile(ctx, p)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Анкета не найдена")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	photos, err := s.players.ListPhotos(ctx, p.ID, p.Gender)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &OwnProfile{
		Profile: view.NewProfile(ctx, s.appCtx, prof, photos, true),
		Player:  view.NewPlayer(p),
	}, nil
}

// Profile returns the caller's own profile with all photos.
func (s *Service) Profile(ctx context.Context) (*OwnProfile, error) {
	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	return s.ownProfile(ctx, p)
}

// ProfilePatch is a partial update. Nil fields are left untouched.
type ProfilePatch struct {
	BirthDate *string   `json:"birth_date"`
	About     *string   `json:"about"`
	Height    *int      `json:"height"`
	Weight    *int      `json:"weight"`
	BustSize  *int      `json:"bust_size"`
	WaistSize *int      `json:"waist_size"`
	HipsSize  *int      `json:"hips_size"`
	Languages *[]string `json:"languages"`
	Interests *string   `json:"interests"`

	FirstName        *string `json:"first_name"`
	Username         *string `json:"username"`
	LanguageCode     *string `json:"language_code"`
	HideAgeInProfile *bool   `json:"hide_age_in_profile"`
	IsActive         *bool   `json:"is_active"`
	City             *string `json:"city"`

	DeletePhotoIDs []uint64 `json:"delete_photo_ids"`
}

func (in ProfilePatch) hasWomanFields() bool {
	return in.Height != nil || in.Weight != nil || in.BustSize != nil || in.WaistSize != nil ||
		in.HipsSize != nil || in.Languages != nil || in.Interests != nil
}

func maxLen(field string, v *string, n int) error {
	if v != nil && utf8.RuneCountInString(*v) > n {
		return svcErr.InvalidArgument(fmt.Sprintf("%s: не более %d символов", field, n))
	}
	return nil
}

func between(field string, v *int, lo, hi int) error {
	if v != nil && (*v < lo || *v > hi) {
		return svcErr.InvalidArgument(fmt.Sprintf("%s: значение должно быть от %d до %d", field, lo, hi))
	}
	return nil
}

func validLanguages(langs []string) error {
	for _, l := range langs {
		ok := false
		for _, allowed := range db.ProfileLanguages {
			if l == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return svcErr.InvalidArgument(fmt.Sprintf("languages: недопустимый язык %q", l))
		}
	}
	return nil
}

// profileFields validates the profile part of in against the variant g.
func (in ProfilePatch) profileFields(g db.Gender, today time.Time) (map[string]any, error) {
	fields := map[string]any{}

	if in.BirthDate != nil {
		if *in.BirthDate == "" {
			fields["birth_date"] = nil
		} else {
			bd, err := view.ParseDate(*in.BirthDate)
			if err != nil {
				return nil, svcErr.InvalidArgument("birth_date: ожидается формат YYYY-MM-DD")
			}
			if bd.After(today) {
				return nil, svcErr.InvalidArgument("Дата рождения не может быть в будущем")
			}
			fields["birth_date"] = bd
		}
	}

	switch g {
	case db.GenderMan:
		if in.hasWomanFields() {
			return nil, svcErr.InvalidArgument("Эти поля доступны только для женской анкеты")
		}
		if err := maxLen("about", in.About, 1000); err != nil {
			return nil, err
		}
	case db.GenderWoman:
		if err := maxLen("about", in.About, 2000); err != nil {
			return nil, err
		}
		if err := maxLen("interests", in.Interests, 255); err != nil {
			return nil, err
		}
		checks := []error{
			between("height", in.Height, 0, 250),
			between("weight", in.Weight, 0, 200),
			between("bust_size", in.BustSize, 0, 200),
			between("waist_size", in.WaistSize, 0, 200),
			between("hips_size", in.HipsSize, 0, 200),
		}
		for _, err := range checks {
			if err != nil {
				return nil, err
			}
		}
		if in.Languages != nil {
			if err := validLanguages(*in.Languages); err != nil {
				return nil, err
			}
			fields["languages"] = datatypes.JSONSlice[string](*in.Languages)
		}
		for col, v := range map[string]*int{
			"height": in.Height, "weight": in.Weight, "bust_size": in.BustSize,
			"waist_size": in.WaistSize, "hips_size": in.HipsSize,
		} {
			if v != nil {
				fields[col] = *v
			}
		}
		if in.Interests != nil {
			fields["interests"] = *in.Interests
		}
	}

	if in.About != nil {
		fields["about"] = *in.About
	}
	return fields, nil
}

func (in ProfilePatch) playerFields() (map[string]any, error) {
	fields := map[string]any{}
	if err := maxLen("first_name", in.FirstName, 50); err != nil {
		return nil, err
	}
	if err := maxLen("username", in.Username, 100); err != nil {
		return nil, err
	}
	if err := maxLen("language_code", in.LanguageCode, 30); err != nil {
		return nil, err
	}
	if err := maxLen("city", in.City, 100); err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.Username != nil {
		fields["username"] = *in.Username
	}
	if in.LanguageCode != nil {
		fields["language_code"] = *in.LanguageCode
	}
	if in.HideAgeInProfile != nil {
		fields["hide_age_in_profile"] = *in.HideAgeInProfile
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.City != nil {
		fields["city"] = strings.TrimSpace(*in.City)
	}
	return fields, nil
}

// UpdateProfile applies a partial update to the caller's profile and player row.
//
// Behavior:
//   - Everything is validated before anything is written.
//   - Woman-only fields on a man's profile are rejected.
//   - delete_photo_ids removes only photos the caller owns; unknown ids are ignored.
//   - Returns the refreshed profile.
func (s *Service) UpdateProfile(ctx context.Context, in ProfilePatch) (*OwnProfile, error) {
	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	prof, err := s.players.GetProfile(ctx, p)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Анкета не найдена")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	profFields, err := in.profileFields(p.Gender, s.appCtx.Today())
	if err != nil {
		return nil, err
	}
	playerFields, err := in.playerFields()
	if err != nil {
		return nil, err
	}

	if err := s.players.UpdateProfile(ctx, prof, profFields); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.players.UpdatePlayer(ctx, p.ID, playerFields); err != nil {
		return nil, svcErr.Map(err)
	}
	if n, err := s.players.DeletePhotos(ctx, p.ID, in.DeletePhotoIDs); err != nil {
		return nil, svcErr.Map(err)
	} else if n > 0 {
		s.appCtx.Logger.Debug("photos deleted", "tg_id", p.TgID, "count", n)
	}

	p, err = s.players.GetByID(ctx, p.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return s.ownProfile(ctx, p)
}

type UploadURL struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// UploadURL hands out a presigned PUT for a new photo of the caller's profile.
func (s *Service) UploadURL(ctx context.Context, fileName, contentType string) (*UploadURL, error) {
	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, svcErr.InvalidArgument("content_type должен быть изображением")
	}
	if s.appCtx.Storage == nil {
		return nil, svcErr.Internal(errors.New("photo storage is not configured"))
	}

	key := storage.PhotoKey(p.Gender, p.TgID, path.Base(fileName))
	u, err := s.appCtx.Storage.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, svcErr.Internal(fmt.Errorf("presign upload: %w", err))
	}
	return &UploadURL{UploadURL: u, ObjectKey: key}, nil
}

// AddPhoto registers an uploaded object as a photo of the caller's profile.
// The key must live under the caller's own prefix.
func (s *Service) AddPhoto(ctx context.Context, key string) (*view.Photo, error) {
	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	if !storage.OwnsKey(p.Gender, p.TgID, key) {
		return nil, svcErr.InvalidArgument("Недопустимый object_key")
	}
	ph := &db.Photo{PlayerID: p.ID, Gender: p.Gender, ObjectKey: key}
	if err := s.players.AddPhoto(ctx, ph); err != nil {
		return nil, svcErr.Map(err)
	}
	return view.NewPhoto(ctx, s.appCtx, ph), nil
}

type MainPhotoResponse struct {
	Message     string `json:"message"`
	MainPhotoID uint64 `json:"main_photo_id"`
}

// SetMainPhoto makes photoID the caller's only main photo.
func (s *Service) SetMainPhoto(ctx context.Context, photoID uint64) (*MainPhotoResponse, error) {
	if photoID == 0 {
		return nil, svcErr.InvalidArgument("Не указан photo_id")
	}
	p, err := caller.PlayerWithGender(ctx, s.players)
	if err != nil {
		return nil, err
	}
	err = s.players.SetMainPhoto(ctx, p.ID, p.Gender, photoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Фото не найдено")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MainPhotoResponse{Message: "Главное фото обновлено", MainPhotoID: photoID}, nil
}

// Verify marks the caller verified.
func (s *Service) Verify(ctx context.Context) error {
	p, err := caller.Player(ctx, s.players)
	if err != nil {
		return err
	}
	if err := s.players.SetVerification(ctx, p.ID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}
