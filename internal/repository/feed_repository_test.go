package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/testutil"
	"github.com/oggyb/rndvu/internal/utils/dates"
)

func gameQuery(viewer uint64) repository.FeedQuery {
	return repository.FeedQuery{
		ViewerID:   viewer,
		Gender:     db.GenderWoman,
		SkipsSince: time.Now().UTC().Add(-48 * time.Hour),
		Page:       1,
		PageSize:   10,
	}
}

func feedIDs(p *repository.FeedPage) []uint64 {
	ids := make([]uint64, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		ids = append(ids, c.Player.ID)
	}
	return ids
}

func TestFeed_UniverseRequiresProfilePhotoAndActivity(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan, Photos: 1})
	ok := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 2, Name: "Anna", Gender: db.GenderWoman, Photos: 2})
	testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 3, Name: "NoPhoto", Gender: db.GenderWoman})
	testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 4, Name: "Hidden", Gender: db.GenderWoman, Photos: 1, Inactive: true})
	testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 5, Name: "Petr", Gender: db.GenderMan, Photos: 1})
	testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 6, Name: "NoGender"})

	page, err := repo.Feed(ctx, gameQuery(viewer.ID))
	require.NoError(t, err)
	assert.Equal(t, []uint64{ok.ID}, feedIDs(page))
	require.NotNil(t, page.Candidates[0].Photo)
	assert.Equal(t, "photos/2/0.jpg", page.Candidates[0].Photo.ObjectKey)
}

func TestFeed_MainPhotoWins(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)
	players := repository.NewPlayerRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})
	anna := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 2, Name: "Anna", Gender: db.GenderWoman, Photos: 3})

	photos, err := players.ListPhotos(ctx, anna.ID, db.GenderWoman)
	require.NoError(t, err)
	require.NoError(t, players.SetMainPhoto(ctx, anna.ID, db.GenderWoman, photos[2].ID))

	page, err := repo.Feed(ctx, gameQuery(viewer.ID))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, photos[2].ID, page.Candidates[0].Photo.ID)
}

func TestFeed_GameExclusions(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)
	rel := repository.NewRelationshipRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan, Photos: 1})
	var w []*db.Player
	for i := int64(0); i < 6; i++ {
		w = append(w, testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 10 + i, Name: fmt.Sprintf("W%d", i), Gender: db.GenderWoman, Photos: 1}))
	}
	now := time.Now().UTC()

	// (a) own pending sympathy hides the target.
	_, _, _ = rel.ExpressSympathy(ctx, viewer.ID, w[0].ID)
	// Pending sympathy toward the viewer keeps the sender visible.
	_, _, _ = rel.ExpressSympathy(ctx, w[1].ID, viewer.ID)
	// (b) mutual pair.
	_, _, _ = rel.ExpressSympathy(ctx, w[2].ID, viewer.ID)
	_, _, _ = rel.ExpressSympathy(ctx, viewer.ID, w[2].ID)
	// (c) live skip hides, expired skip does not.
	require.NoError(t, rel.Skip(ctx, viewer.ID, w[3].ID, now.Add(-time.Hour)))
	require.NoError(t, rel.Skip(ctx, viewer.ID, w[4].ID, now.Add(-72*time.Hour)))
	// A skip by the other side does not hide.
	require.NoError(t, rel.Skip(ctx, w[5].ID, viewer.ID, now))

	page, err := repo.Feed(ctx, gameQuery(viewer.ID))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{w[1].ID, w[4].ID, w[5].ID}, feedIDs(page))

	q := gameQuery(viewer.ID)
	q.Premium = true
	page, err = repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Candidates, 6)
}

func TestFeed_PremiumOrdersByRegistration(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})
	base := time.Now().UTC().Add(-24 * time.Hour)
	old := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 2, Name: "Old", Gender: db.GenderWoman, Photos: 1, Registered: base})
	mid := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 3, Name: "Mid", Gender: db.GenderWoman, Photos: 1, Registered: base.Add(time.Hour)})
	recent := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 4, Name: "New", Gender: db.GenderWoman, Photos: 1, Registered: base.Add(2 * time.Hour)})

	q := gameQuery(viewer.ID)
	q.Premium = true
	page, err := repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{recent.ID, mid.ID, old.ID}, feedIDs(page))
}

func TestFeed_CityAndAgeFilters(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})
	msk25 := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 2, Name: "A", Gender: db.GenderWoman, Photos: 1, City: "Москва", Birth: testutil.Birth(25)})
	msk30 := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 3, Name: "B", Gender: db.GenderWoman, Photos: 1, City: "moscow", Birth: testutil.Birth(30)})
	testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 4, Name: "C", Gender: db.GenderWoman, Photos: 1, City: "Moscow", Birth: testutil.Birth(31)})
	kzn27 := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 5, Name: "D", Gender: db.GenderWoman, Photos: 1, City: "Kazan", Birth: testutil.Birth(27)})

	today := dates.Date(time.Now())
	minAge, maxAge := 25, 30
	q := gameQuery(viewer.ID)
	q.BirthEarliest, q.BirthLatest = dates.BirthRange(today, &minAge, &maxAge)

	page, err := repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{msk25.ID, msk30.ID, kzn27.ID}, feedIDs(page), "age bounds only, any city")

	q.City = "MOSC"
	page, err = repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{msk30.ID}, feedIDs(page))

	q.City = "kaz"
	q.BirthEarliest, q.BirthLatest = nil, nil
	page, err = repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{kzn27.ID}, feedIDs(page))

	q.City = "%"
	page, err = repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
}

func TestFeed_PaginationClampAndEmpty(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewFeedRepository(gdb)

	viewer := testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})

	q := gameQuery(viewer.ID)
	q.Page = 5
	page, err := repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
	assert.Equal(t, 1, page.Page.Number)
	assert.Equal(t, 0, page.Page.TotalPages)

	for i := int64(0); i < 23; i++ {
		testutil.CreatePlayer(t, gdb, testutil.PlayerSpec{TgID: 100 + i, Name: "W", Gender: db.GenderWoman, Photos: 1})
	}

	q.Page = 99
	page, err = repo.Feed(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page.Number)
	assert.Equal(t, 3, page.Page.TotalPages)
	assert.Equal(t, int64(23), page.Page.TotalCount)
	assert.Len(t, page.Candidates, 3)
	assert.False(t, page.Page.HasNext())

	q.Premium = true
	seen := map[uint64]bool{}
	for n := 1; n <= 3; n++ {
		q.Page = n
		page, err = repo.Feed(ctx, q)
		require.NoError(t, err)
		for _, id := range feedIDs(page) {
			assert.False(t, seen[id], "duplicate candidate across premium pages")
			seen[id] = true
		}
	}
	assert.Len(t, seen, 23)
}
