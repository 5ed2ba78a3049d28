package event_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/service/event"
	"github.com/oggyb/rndvu/internal/testutil"
)

func create(t *testing.T, h http.Handler, tgID int64, body map[string]any) event.Event {
	t.Helper()
	rec := testutil.Do(t, h, tgID, http.MethodPost, "/events", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return testutil.DecodeJSON[event.Event](t, rec)
}

func TestEvents_CRUD(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	h := testutil.Router(event.NewRegistrar(appCtx))
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 2, Name: "Petr", Gender: db.GenderMan})

	ev := create(t, h, 1, map[string]any{
		"city": " Moscow ", "date": "2026-12-31", "duration": 3, "exact_time": "19:30",
		"place": "yacht", "reward": 5000, "description": "party",
	})
	assert.Equal(t, "Moscow", ev.City)
	require.NotNil(t, ev.Date)
	assert.Equal(t, "2026-12-31", *ev.Date)
	require.NotNil(t, ev.ExactTime)
	assert.Equal(t, "19:30", *ev.ExactTime)
	assert.Equal(t, 18, ev.MinAge)
	assert.Equal(t, 99, ev.MaxAge)
	assert.Equal(t, "RUB", ev.Currency)
	assert.True(t, ev.IsActive)

	inactive := create(t, h, 1, map[string]any{"city": "Kazan", "is_active": false, "min_age": 25, "max_age": 40})
	assert.False(t, inactive.IsActive)
	assert.Equal(t, 25, inactive.MinAge)

	rec := testutil.Do(t, h, 1, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.DecodeJSON[[]event.Event](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, inactive.ID, list[0].ID)

	path := fmt.Sprintf("/events/%d", ev.ID)

	t.Run("foreign owner", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
			rec := testutil.Do(t, h, 2, method, path, map[string]any{"reward": 1})
			assert.Equal(t, http.StatusNotFound, rec.Code, method)
			assert.Equal(t, "Ивент не найден или нет прав", testutil.DecodeJSON[httpx.ErrorBody](t, rec).Error)
		}
	})

	t.Run("patch keeps age bounds consistent", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodPatch, path, map[string]any{"min_age": 50, "max_age": 30})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = testutil.Do(t, h, 1, http.MethodPatch, fmt.Sprintf("/events/%d", inactive.ID), map[string]any{"max_age": 20})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "max_age below the stored min_age")

		rec = testutil.Do(t, h, 1, http.MethodPatch, path, map[string]any{"min_age": 30, "place": "club"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := testutil.DecodeJSON[event.Event](t, rec)
		assert.Equal(t, 30, got.MinAge)
		assert.Equal(t, "club", *got.Place)
		assert.Equal(t, "Moscow", got.City)
	})

	t.Run("delete", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Ивент удален"}`, rec.Body.String())

		rec = testutil.Do(t, h, 1, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEvents_Validation(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	h := testutil.Router(event.NewRegistrar(appCtx))
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})

	invalid := []map[string]any{
		{},
		{"city": "  "},
		{"city": "Moscow", "duration": 6},
		{"city": "Moscow", "place": "moon"},
		{"city": "Moscow", "min_age": 17},
		{"city": "Moscow", "max_age": 100},
		{"city": "Moscow", "min_age": 40, "max_age": 30},
		{"city": "Moscow", "reward": -1},
		{"city": "Moscow", "currency": "USD"},
		{"city": "Moscow", "exact_time": "25:00"},
		{"city": "Moscow", "date": "31.12.2026"},
	}
	for _, body := range invalid {
		rec := testutil.Do(t, h, 1, http.MethodPost, "/events", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	var n int64
	require.NoError(t, appCtx.DB.Model(&db.Event{}).Count(&n).Error)
	assert.Zero(t, n)

	rec := testutil.Do(t, h, 1, http.MethodGet, "/events/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "non numeric ids do not route")
}

func TestEvents_Opposite(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Storage = testutil.FakeStorage{}
	h := testutil.Router(event.NewRegistrar(appCtx))

	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 2, Name: "Anna", Gender: db.GenderWoman, Verified: true, Photos: 1, Birth: testutil.Birth(25), ShowAge: true})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 3, Name: "Olga", Gender: db.GenderWoman, Birth: testutil.Birth(30)})
	testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 4, Name: "Nogender"})

	own := create(t, h, 1, map[string]any{"city": "Moscow"})
	annaMoscow := create(t, h, 2, map[string]any{"city": "Moscow", "min_age": 20, "max_age": 40})
	annaKazan := create(t, h, 2, map[string]any{"city": "Kazan"})
	olgaMoscow := create(t, h, 3, map[string]any{"city": "moscow"})
	create(t, h, 3, map[string]any{"city": "Moscow", "is_active": false})

	type page struct {
		Results []event.OppositeEvent `json:"results"`
		httpx.PageInfo
	}
	ids := func(p page) []uint64 {
		var out []uint64
		for _, e := range p.Results {
			out = append(out, e.ID)
		}
		return out
	}
	get := func(t *testing.T, tgID int64, target string) page {
		t.Helper()
		rec := testutil.Do(t, h, tgID, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return testutil.DecodeJSON[page](t, rec)
	}

	t.Run("defaults", func(t *testing.T) {
		got := get(t, 1, "/events/opposite")
		assert.Equal(t, []uint64{olgaMoscow.ID, annaKazan.ID, annaMoscow.ID}, ids(got))
		assert.EqualValues(t, 3, got.TotalCount)
		assert.Equal(t, 1, got.TotalPages)
	})

	t.Run("city ignores case", func(t *testing.T) {
		got := get(t, 1, "/events/opposite?city=MOSCOW")
		assert.Equal(t, []uint64{olgaMoscow.ID, annaMoscow.ID}, ids(got))
	})

	t.Run("age window", func(t *testing.T) {
		got := get(t, 1, "/events/opposite?min_age=20&max_age=40")
		assert.Equal(t, []uint64{annaMoscow.ID}, ids(got))
	})

	t.Run("verified creators", func(t *testing.T) {
		got := get(t, 1, "/events/opposite?verification=true")
		assert.Equal(t, []uint64{annaKazan.ID, annaMoscow.ID}, ids(got))
	})

	t.Run("creator profile", func(t *testing.T) {
		got := get(t, 1, "/events/opposite?verification=1&city=kazan")
		require.Len(t, got.Results, 1)
		prof := got.Results[0].CreatorProfile
		require.NotNil(t, prof)
		assert.Equal(t, "woman", prof.Type)
		require.NotNil(t, prof.Age)
		assert.Equal(t, 25, *prof.Age)
		require.Len(t, prof.Photos, 1)
		assert.Equal(t, "https://s3.test/photos/2/0.jpg", prof.Photos[0].URL)
	})

	t.Run("single event", func(t *testing.T) {
		rec := testutil.Do(t, h, 1, http.MethodGet, fmt.Sprintf("/events/opposite/%d", olgaMoscow.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := testutil.DecodeJSON[event.OppositeEvent](t, rec)
		require.NotNil(t, got.CreatorProfile)
		assert.Nil(t, got.CreatorProfile.Age, "Olga hides her age")

		rec = testutil.Do(t, h, 1, http.MethodGet, fmt.Sprintf("/events/opposite/%d", own.ID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Ивент не найден", testutil.DecodeJSON[httpx.ErrorBody](t, rec).Error)
	})

	t.Run("women see men", func(t *testing.T) {
		got := get(t, 2, "/events/opposite")
		assert.Equal(t, []uint64{own.ID}, ids(got))
	})

	t.Run("gender required", func(t *testing.T) {
		rec := testutil.Do(t, h, 4, http.MethodGet, "/events/opposite", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
