// Package caller resolves the authenticated Telegram user to a player row.
package caller

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/auth"
	"github.com/oggyb/rndvu/internal/db"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/repository"
)

// TgID returns the caller's Telegram id or an Unauthorized error.
func TgID(ctx context.Context) (int64, error) {
	u, ok := auth.UserFrom(ctx)
	if !ok || u.ID == 0 {
		return 0, svcErr.Unauthorized("init_data отсутствует")
	}
	return u.ID, nil
}

// Player loads the caller's player row. A caller without one gets NotFound.
func Player(ctx context.Context, players *repository.PlayerRepository) (*db.Player, error) {
	tgID, err := TgID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := players.GetByTgID(ctx, tgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Игрок не найден")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return p, nil
}

// PlayerWithGender is Player that also rejects callers without a gender.
func PlayerWithGender(ctx context.Context, players *repository.PlayerRepository) (*db.Player, error) {
	p, err := Player(ctx, players)
	if err != nil {
		return nil, err
	}
	if !p.Gender.Valid() {
		return nil, svcErr.GenderNotSet()
	}
	return p, nil
}

// Target loads another player by Telegram id, rejecting the caller itself.
func Target(ctx context.Context, players *repository.PlayerRepository, self *db.Player, tgID int64, selfMsg string) (*db.Player, error) {
	if tgID == 0 {
		return nil, svcErr.InvalidArgument("Укажите tg_id")
	}
	if tgID == self.TgID {
		return nil, svcErr.SelfReference(selfMsg)
	}
	p, err := players.GetByTgID(ctx, tgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Пользователь не найден")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return p, nil
}
