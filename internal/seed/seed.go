// Package seed fills a development database with demo players, relationships and events.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/logger"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/storage"
)

// Demo Telegram ids start here so they never collide with real accounts.
const BaseTgID int64 = 900_000_000

var (
	cities     = []string{"Moscow", "Saint Petersburg", "Kazan"}
	manNames   = []string{"Ivan", "Petr", "Alexey", "Dmitry", "Sergey", "Nikolay", "Andrey", "Maxim", "Egor", "Artem"}
	womanNames = []string{"Anna", "Olga", "Maria", "Elena", "Daria", "Irina", "Polina", "Sofia", "Alina", "Vera"}
)

// Stats counts what one run produced.
type Stats struct {
	Players    int
	Sympathies int
	Mutual     int
	Reactions  int
	Events     int
}

// Reset deletes every demo player and everything they own or touched, then
// recounts the reactions of the remaining players.
func Reset(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&db.Player{}).Select("id").Where("tg_id >= ?", BaseTgID)
		steps := []struct {
			model any
			cols  []string
		}{
			{&db.Event{}, []string{"creator_id"}},
			{&db.Photo{}, []string{"player_id"}},
			{&db.ManProfile{}, []string{"player_id"}},
			{&db.WomanProfile{}, []string{"player_id"}},
			{&db.Sympathy{}, []string{"from_player_id", "to_player_id"}},
			{&db.Favorite{}, []string{"owner_id", "target_id"}},
			{&db.Dislike{}, []string{"from_player_id", "to_player_id"}},
			{&db.PassedUser{}, []string{"from_player_id", "to_player_id"}},
			{&db.Purchase{}, []string{"player_id"}},
		}
		for _, s := range steps {
			q := tx.Where(s.cols[0]+" IN (?)", ids)
			for _, col := range s.cols[1:] {
				q = q.Or(col+" IN (?)", ids)
			}
			if err := q.Delete(s.model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", s.model, err)
			}
		}
		if err := tx.Where("tg_id >= ?", BaseTgID).Delete(&db.Player{}).Error; err != nil {
			return err
		}

		// Real players may have been rated by demo ones.
		return tx.Model(&db.Player{}).Where("1 = 1").UpdateColumns(map[string]any{
			"likes_count":    gorm.Expr("(SELECT COUNT(*) FROM favorites WHERE favorites.target_id = players.id)"),
			"dislikes_count": gorm.Expr("(SELECT COUNT(*) FROM user_reaction_dislikes d WHERE d.to_player_id = players.id)"),
		}).Error
	})
}

// Run seeds 10 men and 10 women with profiles and photos, then lets them
// express sympathies and reactions through the ledger and publish events.
//
// Behavior:
//  1. Existing demo rows are removed first, so Run can be repeated.
//  2. Relationships go through the repository, so counters and the mutual
//     flag stay consistent with the edges.
//  3. Every third sympathy is answered to produce a mutual match.
func Run(ctx context.Context, gdb *gorm.DB, r *rand.Rand) (*Stats, error) {
	if err := Reset(ctx, gdb); err != nil {
		return nil, err
	}
	logger.Info("cleared demo data")

	if err := repository.NewBillingRepository(gdb).SeedProducts(ctx); err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}

	players := repository.NewPlayerRepository(gdb)
	ledger := repository.NewRelationshipRepository(gdb)
	events := repository.NewEventRepository(gdb)
	stats := &Stats{}

	var men, women []*db.Player
	for i := 0; i < 20; i++ {
		g, name := db.GenderMan, manNames[i%10]
		if i >= 10 {
			g, name = db.GenderWoman, womanNames[i%10]
		}
		p, err := createPlayer(ctx, gdb, players, r, BaseTgID+int64(i), name, g)
		if err != nil {
			return nil, err
		}
		if g == db.GenderMan {
			men = append(men, p)
		} else {
			women = append(women, p)
		}
		stats.Players++
	}
	logger.Info("seeded demo players", "count", stats.Players)

	for i, m := range men {
		for _, w := range pick(r, women, 4) {
			outcome, _, err := ledger.ExpressSympathy(ctx, m.ID, w.ID)
			if err != nil {
				return nil, fmt.Errorf("sympathy %d→%d: %w", m.TgID, w.TgID, err)
			}
			if outcome == repository.SympathyCreated {
				stats.Sympathies++
			}
			if (i+int(w.ID))%3 == 0 {
				outcome, _, err = ledger.ExpressSympathy(ctx, w.ID, m.ID)
				if err != nil {
					return nil, fmt.Errorf("sympathy %d→%d: %w", w.TgID, m.TgID, err)
				}
				if outcome == repository.SympathyMatched {
					stats.Mutual++
				}
			}
		}
	}

	for _, w := range women {
		for _, m := range pick(r, men, 3) {
			kind := repository.ReactionLike
			if r.Intn(10) < 3 {
				kind = repository.ReactionDislike
			}
			if _, _, err := ledger.ToggleReaction(ctx, w.ID, m.ID, kind); err != nil {
				return nil, fmt.Errorf("reaction %d→%d: %w", w.TgID, m.TgID, err)
			}
			stats.Reactions++
		}
	}
	logger.Info("seeded demo relationships", "sympathies", stats.Sympathies, "mutual", stats.Mutual, "reactions", stats.Reactions)

	for _, p := range append(append([]*db.Player{}, men[:5]...), women[:5]...) {
		date := time.Now().UTC().AddDate(0, 0, 1+r.Intn(30)).Truncate(24 * time.Hour)
		duration := db.EventDurations[r.Intn(len(db.EventDurations))]
		place := db.EventPlaces[r.Intn(len(db.EventPlaces))]
		exact := fmt.Sprintf("%02d:%02d", 12+r.Intn(10), 15*r.Intn(4))
		ev := &db.Event{
			CreatorID:   p.ID,
			City:        p.City,
			Date:        &date,
			Duration:    &duration,
			ExactTime:   &exact,
			Place:       &place,
			MinAge:      18 + r.Intn(10),
			MaxAge:      35 + r.Intn(30),
			Reward:      int64(r.Intn(20)) * 1000,
			Currency:    "RUB",
			Description: fmt.Sprintf("Встреча от %s", p.FirstName),
		}
		if err := events.Create(ctx, ev); err != nil {
			return nil, fmt.Errorf("event for %d: %w", p.TgID, err)
		}
		stats.Events++
	}
	logger.Info("seeded demo events", "count", stats.Events)

	return stats, nil
}

func createPlayer(ctx context.Context, gdb *gorm.DB, players *repository.PlayerRepository, r *rand.Rand, tgID int64, name string, g db.Gender) (*db.Player, error) {
	p, _, err := players.GetOrCreate(ctx, repository.Identity{TgID: tgID, FirstName: name, Username: fmt.Sprintf("demo_%d", tgID)})
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", tgID, err)
	}
	if err := players.UpdatePlayer(ctx, p.ID, map[string]any{
		"city":                cities[r.Intn(len(cities))],
		"hide_age_in_profile": r.Intn(2) == 0,
		"verification":        r.Intn(3) == 0,
	}); err != nil {
		return nil, fmt.Errorf("player %d: %w", tgID, err)
	}

	p, prof, err := players.SetGender(ctx, p.ID, g)
	if err != nil {
		return nil, fmt.Errorf("gender %d: %w", tgID, err)
	}

	birth := time.Now().UTC().AddDate(-(20 + r.Intn(25)), -r.Intn(12), -r.Intn(28)).Truncate(24 * time.Hour)
	fields := map[string]any{"birth_date": birth, "about": fmt.Sprintf("Привет, я %s", name)}
	if g == db.GenderWoman {
		fields["height"] = 155 + r.Intn(30)
		fields["interests"] = "travel, music"
	}
	if err := players.UpdateProfile(ctx, prof, fields); err != nil {
		return nil, fmt.Errorf("profile %d: %w", tgID, err)
	}

	for i := 0; i < 1+r.Intn(3); i++ {
		if err := players.AddPhoto(ctx, &db.Photo{
			PlayerID:  p.ID,
			Gender:    g,
			ObjectKey: storage.PhotoKey(g, tgID, "demo.jpg"),
			IsMain:    i == 0,
		}); err != nil {
			return nil, fmt.Errorf("photo %d: %w", tgID, err)
		}
	}
	return p, nil
}

// pick returns n distinct random elements of from.
func pick(r *rand.Rand, from []*db.Player, n int) []*db.Player {
	idx := r.Perm(len(from))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]*db.Player, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}
