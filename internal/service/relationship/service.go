package relationship

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/db"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/caller"
	"github.com/oggyb/rndvu/internal/service/view"
)

const (
	selfOperate = "Нельзя оперировать на себе"
	selfReact   = "Нельзя реагировать на себя"
)

var sympathyMessages = map[repository.SympathyOutcome]string{
	repository.SympathyCreated:       "Симпатия создана",
	repository.SympathyExists:        "Симпатия уже есть",
	repository.SympathyMatched:       "Совпадение! Взаимная симпатия",
	repository.SympathyAlreadyMutual: "Симпатия уже взаимная",
}

// Service implements the relationship ledger API: sympathies, skips,
// likes/dislikes and favorites.
type Service struct {
	appCtx  *app.AppContext
	players *repository.PlayerRepository
	rel     *repository.RelationshipRepository
}

func NewRelationshipService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		players: repository.NewPlayerRepository(appCtx.DB),
		rel:     repository.NewRelationshipRepository(appCtx.DB),
	}
}

func (s *Service) pair(ctx context.Context, tgID int64, selfMsg string) (me, target *db.Player, err error) {
	me, err = caller.Player(ctx, s.players)
	if err != nil {
		return nil, nil, err
	}
	target, err = caller.Target(ctx, s.players, me, tgID, selfMsg)
	if err != nil {
		return nil, nil, err
	}
	return me, target, nil
}

type SympathyResponse struct {
	Message  string         `json:"message"`
	Skipped  bool           `json:"skipped,omitempty"`
	Matched  bool           `json:"matched,omitempty"`
	Sympathy *view.Sympathy `json:"sympathy,omitempty"`
}

// Express records the caller's sympathy toward tgID, or a skip when skip is set.
//
// Behavior:
//   - skip=true deletes the pair's sympathy in either direction and (re)arms the skip.
//   - skip=false clears the caller's skip and upserts the pair row; a pending
//     row from the target converges into a match.
//   - A fresh match notifies both players after the transaction commits.
//     Notification failures are logged only.
func (s *Service) Express(ctx context.Context, tgID int64, skip bool) (*SympathyResponse, error) {
	me, target, err := s.pair(ctx, tgID, selfOperate)
	if err != nil {
		return nil, err
	}

	if skip {
		if err := s.rel.Skip(ctx, me.ID, target.ID, s.appCtx.Now()); err != nil {
			return nil, svcErr.Map(err)
		}
		return &SympathyResponse{Message: "Пользователь пропущен", Skipped: true}, nil
	}

	outcome, row, err := s.rel.ExpressSympathy(ctx, me.ID, target.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	players := map[uint64]*db.Player{me.ID: me, target.ID: target}
	out := view.NewSympathy(row, players)
	resp := &SympathyResponse{
		Message:  sympathyMessages[outcome],
		Matched:  outcome == repository.SympathyMatched,
		Sympathy: &out,
	}

	if outcome == repository.SympathyMatched {
		s.appCtx.Logger.Info("mutual sympathy", "a", me.TgID, "b", target.TgID)
		s.notifyMatch(ctx, me, target)
	}
	return resp, nil
}

func (s *Service) notifyMatch(ctx context.Context, a, b *db.Player) {
	if s.appCtx.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.appCtx.Notifier.NotifyMatch(nctx, a, b); err != nil {
		s.appCtx.Logger.Warn("match notification failed", "a", a.TgID, "b", b.TgID, "err", err)
	}
}

type RemoveResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// Remove deletes the sympathy between the caller and tgID in whatever direction it exists.
func (s *Service) Remove(ctx context.Context, tgID int64) (*RemoveResponse, error) {
	me, target, err := s.pair(ctx, tgID, selfOperate)
	if err != nil {
		return nil, err
	}
	deleted, err := s.rel.RemoveSympathy(ctx, me.ID, target.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !deleted {
		return &RemoveResponse{Deleted: false, Message: "Симпатия не найдена"}, nil
	}
	return &RemoveResponse{Deleted: true}, nil
}

type MutualResponse struct {
	Mutual []view.Sympathy `json:"mutual"`
}

// Mutual lists the caller's matches, newest first.
func (s *Service) Mutual(ctx context.Context) (*MutualResponse, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	rows, err := s.rel.MutualSympathies(ctx, me.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Other(me.ID))
	}
	players, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	players[me.ID] = me

	resp := &MutualResponse{Mutual: make([]view.Sympathy, 0, len(rows))}
	for i := range rows {
		resp.Mutual = append(resp.Mutual, view.NewSympathy(&rows[i], players))
	}
	return resp, nil
}

type Stats struct {
	LikesCount    int64   `json:"likes_count"`
	DislikesCount int64   `json:"dislikes_count"`
	LikeRatio     float64 `json:"like_ratio"`
}

type ReactionResponse struct {
	Message string `json:"message"`
	Removed bool   `json:"removed"`
	Stats   Stats  `json:"stats"`
}

var reactionMessages = map[repository.Reaction][2]string{
	repository.ReactionLike:    {"Лайк поставлен", "Лайк убран"},
	repository.ReactionDislike: {"Дизлайк поставлен", "Дизлайк убран"},
}

// React toggles the caller's like or dislike on tgID.
//
// Behavior:
//   - Same reaction again removes it.
//   - The opposite reaction is replaced.
//   - Stats are the target's counters after the change.
func (s *Service) React(ctx context.Context, tgID int64, kind string) (*ReactionResponse, error) {
	reaction := repository.Reaction(kind)
	msgs, ok := reactionMessages[reaction]
	if !ok {
		return nil, svcErr.InvalidArgument("reaction_type обязателен и должен быть 'like' или 'dislike'")
	}
	if tgID == 0 {
		return nil, svcErr.InvalidArgument("tg_id обязателен")
	}
	me, target, err := s.pair(ctx, tgID, selfReact)
	if err != nil {
		return nil, err
	}

	removed, stats, err := s.rel.ToggleReaction(ctx, me.ID, target.ID, reaction)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	msg := msgs[0]
	if removed {
		msg = msgs[1]
	}
	return &ReactionResponse{
		Message: msg,
		Removed: removed,
		Stats: Stats{
			LikesCount:    stats.LikesCount,
			DislikesCount: stats.DislikesCount,
			LikeRatio:     db.LikeRatio(stats.LikesCount, stats.DislikesCount),
		},
	}, nil
}

type Favorite struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Target    view.Card `json:"target"`
}

// cards renders public cards for ids, keyed by player id. Unknown ids are skipped.
func (s *Service) cards(ctx context.Context, ids []uint64) (map[uint64]view.Card, error) {
	players, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	list := make([]*db.Player, 0, len(players))
	for _, p := range players {
		list = append(list, p)
	}
	profiles, err := s.players.GetProfiles(ctx, list)
	if err != nil {
		return nil, err
	}
	photos, err := s.players.MainPhotos(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]view.Card, len(players))
	for id, p := range players {
		var birth *time.Time
		if prof, ok := profiles[id]; ok {
			birth = prof.Birth()
		}
		out[id] = view.NewCard(ctx, s.appCtx, p, birth, photos[id])
	}
	return out, nil
}

type FavoritesResponse struct {
	Results []Favorite `json:"results"`
	Count   int        `json:"count"`
}

// Favorites lists the caller's favorites, newest first.
func (s *Service) Favorites(ctx context.Context) (*FavoritesResponse, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	rows, err := s.rel.ListFavorites(ctx, me.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	ids := make([]uint64, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.TargetID)
	}
	cards, err := s.cards(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &FavoritesResponse{Results: make([]Favorite, 0, len(rows))}
	for _, f := range rows {
		c, ok := cards[f.TargetID]
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, Favorite{ID: f.ID, CreatedAt: f.CreatedAt, Target: c})
	}
	resp.Count = len(resp.Results)
	return resp, nil
}

type AddFavoriteResponse struct {
	Created  bool      `json:"created"`
	Favorite *Favorite `json:"favorite"`
}

// AddFavorite likes tgID if not liked yet. Repeated calls are no-ops.
func (s *Service) AddFavorite(ctx context.Context, tgID int64) (*AddFavoriteResponse, error) {
	me, target, err := s.pair(ctx, tgID, selfOperate)
	if err != nil {
		return nil, err
	}
	created, fav, err := s.rel.AddFavorite(ctx, me.ID, target.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	cards, err := s.cards(ctx, []uint64{target.ID})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &AddFavoriteResponse{
		Created:  created,
		Favorite: &Favorite{ID: fav.ID, CreatedAt: fav.CreatedAt, Target: cards[target.ID]},
	}, nil
}

// RemoveFavorite unlikes tgID. Missing favorites are not an error.
func (s *Service) RemoveFavorite(ctx context.Context, tgID int64) (*RemoveResponse, error) {
	me, target, err := s.pair(ctx, tgID, selfOperate)
	if err != nil {
		return nil, err
	}
	deleted, err := s.rel.RemoveFavorite(ctx, me.ID, target.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &RemoveResponse{Deleted: deleted}, nil
}

// ProfileDetail is another player's profile as the caller sees it.
type ProfileDetail struct {
	*view.Profile
	Player     view.Card `json:"player"`
	IsFavorite bool      `json:"is_favorite"`
	IsLiked    bool      `json:"is_liked"`
	IsDisliked bool      `json:"is_disliked"`
}

// Detail returns tgID's profile with photos and the caller's reaction flags.
// The birth date and age are withheld when the target hides its age.
func (s *Service) Detail(ctx context.Context, tgID int64) (*ProfileDetail, error) {
	me, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	if tgID == 0 {
		return nil, svcErr.InvalidArgument("Укажите tg_id")
	}
	target, err := s.players.GetByTgID(ctx, tgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Пользователь не найден")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !target.Gender.Valid() {
		return nil, svcErr.InvalidArgument("У пользователя не указан пол")
	}

	prof, err := s.players.GetProfile(ctx, target)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Анкета не найдена")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	photos, err := s.players.ListPhotos(ctx, target.ID, target.Gender)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	flags, err := s.rel.Flags(ctx, me.ID, target.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	var main *db.Photo
	if len(photos) > 0 {
		main = &photos[0]
	}
	showAge := me.ID == target.ID || !target.HideAgeInProfile
	return &ProfileDetail{
		Profile:    view.NewProfile(ctx, s.appCtx, prof, photos, showAge),
		Player:     view.NewCard(ctx, s.appCtx, target, prof.Birth(), main),
		IsFavorite: flags.Liked,
		IsLiked:    flags.Liked,
		IsDisliked: flags.Disliked,
	}, nil
}
