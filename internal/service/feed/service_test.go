package feed_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/feed"
	"github.com/oggyb/rndvu/internal/testutil"
)

type card struct {
	ID    uint64 `json:"id"`
	TgID  int64  `json:"tg_id"`
	Age   *int   `json:"age"`
	Photo *struct {
		URL string `json:"url"`
	} `json:"photo"`
}

type page struct {
	Results []card `json:"results"`
	httpx.PageInfo
	Premium bool `json:"premium"`
}

func TestUsers_Errors(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	h := testutil.Router(feed.NewRegistrar(appCtx))
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "NoGender"})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 2, Name: "Ivan", Gender: db.GenderMan})

	cases := []struct {
		name   string
		tgID   int64
		target string
		status int
		code   string
	}{
		{"unknown player", 99, "/game/users", http.StatusNotFound, "not_found"},
		{"gender not set", 1, "/game/users", http.StatusBadRequest, "gender_not_set"},
		{"non numeric age", 2, "/game/users?min_age=abc", http.StatusBadRequest, "validation_error"},
		{"negative age", 2, "/game/users?max_age=-1", http.StatusBadRequest, "validation_error"},
		{"bad page", 2, "/game/users?page=x", http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.Do(t, h, tc.tgID, http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, testutil.DecodeJSON[httpx.ErrorBody](t, rec).Code)
		})
	}
}

func TestUsers_EmptyShape(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	h := testutil.Router(feed.NewRegistrar(appCtx))
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 2, Name: "Ivan", Gender: db.GenderMan})

	rec := testutil.Do(t, h, 2, http.MethodGet, "/game/users?page=4", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"results": [], "page": 1, "page_size": 10, "total_count": 0, "total_pages": 0,
		"has_prev": false, "has_next": false, "prev_page": null, "next_page": null, "premium": false
	}`, rec.Body.String())
}

func TestUsers_GameAndPremium(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Storage = testutil.FakeStorage{}
	h := testutil.Router(feed.NewRegistrar(appCtx))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	me := testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan, Photos: 1})
	anna := testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{
		TgID: 10, Name: "Anna", Gender: db.GenderWoman, Photos: 2, Birth: testutil.Birth(25), ShowAge: true, Registered: base,
	})
	olga := testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{
		TgID: 11, Name: "Olga", Gender: db.GenderWoman, Photos: 1, Birth: testutil.Birth(30), Registered: base.Add(time.Minute),
	})
	// Never part of any feed.
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 12, Name: "NoPhoto", Gender: db.GenderWoman})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 13, Name: "Off", Gender: db.GenderWoman, Photos: 1, Inactive: true})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 14, Name: "Petr", Gender: db.GenderMan, Photos: 1})

	rel := repository.NewRelationshipRepository(appCtx.DB)
	_, _, err := rel.ExpressSympathy(ctx, me.ID, olga.ID)
	require.NoError(t, err)

	t.Run("game hides sympathy targets", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodGet, "/game/users", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := testutil.DecodeJSON[page](t, rec)
		require.Len(t, got.Results, 1)
		assert.Equal(t, anna.TgID, got.Results[0].TgID)
		require.NotNil(t, got.Results[0].Age)
		assert.Equal(t, 25, *got.Results[0].Age)
		require.NotNil(t, got.Results[0].Photo)
		assert.Equal(t, "https://s3.test/photos/10/0.jpg", got.Results[0].Photo.URL)
		assert.False(t, got.Premium)
	})

	t.Run("premium shows everyone newest first", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodGet, "/game/users?premium=true", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := testutil.DecodeJSON[page](t, rec)
		require.Len(t, got.Results, 2)
		assert.Equal(t, olga.TgID, got.Results[0].TgID)
		assert.Nil(t, got.Results[0].Age, "age is hidden by default")
		assert.Equal(t, anna.TgID, got.Results[1].TgID)
		assert.True(t, got.Premium)
		assert.EqualValues(t, 2, got.TotalCount)
	})

	t.Run("age filter", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodGet, "/game/users?premium=true&min_age=26&max_age=30", nil)
		got := testutil.DecodeJSON[page](t, rec)
		require.Len(t, got.Results, 1)
		assert.Equal(t, olga.TgID, got.Results[0].TgID)

		rec = testutil.Do(t, h, 1, http.MethodGet, "/game/users?premium=true&max_age=25", nil)
		got = testutil.DecodeJSON[page](t, rec)
		require.Len(t, got.Results, 1)
		assert.Equal(t, anna.TgID, got.Results[0].TgID)
	})

	t.Run("skip expires after retention", func(t *testing.T) {
		require.NoError(t, rel.Skip(ctx, me.ID, anna.ID, time.Now().UTC()))
		rec := testutil.Do(t, h, 1, http.MethodGet, "/game/users", nil)
		assert.Empty(t, testutil.DecodeJSON[page](t, rec).Results)

		appCtx.Now = func() time.Time { return time.Now().UTC().Add(49 * time.Hour) }
		defer func() { appCtx.Now = func() time.Time { return time.Now().UTC() } }()
		rec = testutil.Do(t, h, 1, http.MethodGet, "/game/users", nil)
		got := testutil.DecodeJSON[page](t, rec)
		require.Len(t, got.Results, 1)
		assert.Equal(t, anna.TgID, got.Results[0].TgID)
	})
}
