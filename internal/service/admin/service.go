package admin

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/rndvu/internal/app"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/jobs"
)

// Service exposes operator actions: the blacklist, the product cache and
// manual job runs.
type Service struct {
	appCtx *app.AppContext
	runner *jobs.Runner
}

func NewAdminService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, runner: jobs.NewRunner(appCtx)}
}

// Authorize checks an operator token against the configured bcrypt hash.
// Without a configured hash every token is refused.
func (s *Service) Authorize(token string) error {
	hash := s.appCtx.Config.Auth.AdminTokenHash
	if hash == "" || token == "" {
		return svcErr.Forbidden("Доступ запрещён")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return svcErr.Forbidden("Доступ запрещён")
	}
	return nil
}

type BlacklistStatus struct {
	TgID        int64 `json:"tg_id"`
	Blacklisted bool  `json:"blacklisted"`
	Changed     bool  `json:"changed"`
}

func (s *Service) Blacklist(ctx context.Context, tgID int64) (*BlacklistStatus, error) {
	if tgID <= 0 {
		return nil, svcErr.InvalidArgument("tg_id должен быть положительным числом")
	}
	was, err := s.appCtx.RedisCache.IsBlacklisted(ctx, tgID)
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	if err := s.appCtx.RedisCache.Blacklist(ctx, tgID); err != nil {
		return nil, svcErr.Internal(err)
	}
	s.appCtx.Logger.Info("player blacklisted", "tg_id", tgID)
	return &BlacklistStatus{TgID: tgID, Blacklisted: true, Changed: !was}, nil
}

func (s *Service) Unblacklist(ctx context.Context, tgID int64) (*BlacklistStatus, error) {
	if tgID <= 0 {
		return nil, svcErr.InvalidArgument("tg_id должен быть положительным числом")
	}
	removed, err := s.appCtx.RedisCache.Unblacklist(ctx, tgID)
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	if removed {
		s.appCtx.Logger.Info("player unblacklisted", "tg_id", tgID)
	}
	return &BlacklistStatus{TgID: tgID, Blacklisted: false, Changed: removed}, nil
}

// InvalidateProducts drops the cached catalog after a price change.
func (s *Service) InvalidateProducts(ctx context.Context) error {
	if err := s.appCtx.RedisCache.InvalidateProducts(ctx); err != nil {
		return svcErr.Internal(err)
	}
	return nil
}

// RunJob executes a maintenance job immediately, bypassing the schedule.
func (s *Service) RunJob(ctx context.Context, name string) (*jobs.Result, error) {
	res, err := s.runner.Run(ctx, name)
	if errors.Is(err, jobs.ErrUnknownJob) {
		return nil, svcErr.NotFound("Неизвестная задача")
	}
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	return res, nil
}
