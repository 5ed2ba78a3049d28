package seed_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/seed"
	"github.com/oggyb/rndvu/internal/testutil"
)

func TestRun(t *testing.T) {
	gdb := testutil.NewDB(t)
	own := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 5, Name: "Real", Gender: db.GenderMan})

	stats, err := seed.Run(t.Context(), gdb, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Players)
	assert.Equal(t, 10, stats.Events)

	var mutual int64
	require.NoError(t, gdb.Model(&db.Sympathy{}).Where("is_mutual = ?", true).Count(&mutual).Error)
	assert.EqualValues(t, stats.Mutual, mutual)

	var favorites, dislikes int64
	gdb.Model(&db.Favorite{}).Count(&favorites)
	gdb.Model(&db.Dislike{}).Count(&dislikes)
	assert.EqualValues(t, stats.Reactions, favorites+dislikes)

	var likes struct{ Likes, Dislikes int64 }
	require.NoError(t, gdb.Model(&db.Player{}).
		Select("SUM(likes_count) AS likes, SUM(dislikes_count) AS dislikes").Scan(&likes).Error)
	assert.Equal(t, favorites, likes.Likes, "counters follow edges")
	assert.Equal(t, dislikes, likes.Dislikes)

	var products int64
	gdb.Model(&db.Product{}).Count(&products)
	assert.EqualValues(t, 2, products)

	_, err = seed.Run(t.Context(), gdb, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	var players int64
	gdb.Model(&db.Player{}).Count(&players)
	assert.EqualValues(t, 21, players, "rerun replaces demo players only")
	require.NoError(t, gdb.First(&db.Player{}, own.ID).Error)
}
