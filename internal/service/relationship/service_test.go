package relationship_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/service/relationship"
	"github.com/oggyb/rndvu/internal/testutil"
)

// fixture seeds Ivan (1), Anna (2) and Olga (3).
//
// Anna shows her age, Olga hides it; both have photos.
type fixture struct {
	appCtx   *app.AppContext
	h        http.Handler
	notifier *testutil.RecordingNotifier
	ivan     *db.Player
	anna     *db.Player
	olga     *db.Player
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Storage = testutil.FakeStorage{}
	n := &testutil.RecordingNotifier{}
	appCtx.Notifier = n
	return &fixture{
		appCtx:   appCtx,
		h:        testutil.Router(relationship.NewRegistrar(appCtx)),
		notifier: n,
		ivan:     testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 1, Name: "Ivan", Gender: db.GenderMan, Photos: 1, Birth: testutil.Birth(30)}),
		anna:     testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 2, Name: "Anna", Gender: db.GenderWoman, Photos: 2, Birth: testutil.Birth(25), ShowAge: true}),
		olga:     testutil.CreatePlayer(t, appCtx.DB, testutil.PlayerSpec{TgID: 3, Name: "Olga", Gender: db.GenderWoman, Photos: 1, Birth: testutil.Birth(28)}),
	}
}

func (f *fixture) do(t *testing.T, tgID int64, method, target string, body any) (int, map[string]any) {
	t.Helper()
	rec := testutil.Do(t, f.h, tgID, method, target, body)
	return rec.Code, testutil.DecodeJSON[map[string]any](t, rec)
}

func TestSympathy_Outcomes(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, 1, http.MethodPost, "/sympathy", map[string]any{"tg_id": 2})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Симпатия создана", body["message"])
	sym := body["sympathy"].(map[string]any)
	assert.Equal(t, false, sym["is_mutual"])
	assert.EqualValues(t, 1, sym["from_player"].(map[string]any)["tg_id"])
	assert.EqualValues(t, 2, sym["to_player"].(map[string]any)["tg_id"])

	_, body = f.do(t, 1, http.MethodPost, "/sympathy", map[string]any{"tg_id": "2"})
	assert.Equal(t, "Симпатия уже есть", body["message"])

	_, body = f.do(t, 2, http.MethodPost, "/sympathy", map[string]any{"tg_id": 1})
	assert.Equal(t, "Совпадение! Взаимная симпатия", body["message"])
	assert.Equal(t, true, body["matched"])
	assert.Equal(t, true, body["sympathy"].(map[string]any)["is_mutual"])
	assert.Equal(t, 1, f.notifier.Count())

	_, body = f.do(t, 1, http.MethodPost, "/sympathy", map[string]any{"tg_id": 2})
	assert.Equal(t, "Симпатия уже взаимная", body["message"])
	assert.Equal(t, 1, f.notifier.Count(), "only a fresh match notifies")

	status, body = f.do(t, 1, http.MethodGet, "/sympathy", nil)
	require.Equal(t, http.StatusOK, status)
	mutual := body["mutual"].([]any)
	require.Len(t, mutual, 1)
}

func TestSympathy_Errors(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		body   map[string]any
		status int
		msg    string
	}{
		{"missing tg_id", map[string]any{}, http.StatusBadRequest, "Укажите tg_id"},
		{"self", map[string]any{"tg_id": 1}, http.StatusBadRequest, "Нельзя оперировать на себе"},
		{"unknown target", map[string]any{"tg_id": 404}, http.StatusNotFound, "Пользователь не найден"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.do(t, 1, http.MethodPost, "/sympathy", tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, body["error"])
		})
	}

	t.Run("unknown caller", func(t *testing.T) {
		status, body := f.do(t, 77, http.MethodPost, "/sympathy", map[string]any{"tg_id": 2})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Игрок не найден", body["error"])
	})
}

func TestSympathy_SkipAndRemove(t *testing.T) {
	f := newFixture(t)

	f.do(t, 1, http.MethodPost, "/sympathy", map[string]any{"tg_id": 2})
	f.do(t, 2, http.MethodPost, "/sympathy", map[string]any{"tg_id": 1})

	status, body := f.do(t, 1, http.MethodPost, "/sympathy", map[string]any{"tg_id": 2, "skip": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Пользователь пропущен", body["message"])
	assert.Equal(t, true, body["skipped"])

	var n int64
	require.NoError(t, f.appCtx.DB.Model(&db.Sympathy{}).Count(&n).Error)
	assert.Zero(t, n, "skip removes the match")

	_, body = f.do(t, 1, http.MethodDelete, "/sympathy", map[string]any{"tg_id": 2})
	assert.Equal(t, false, body["deleted"])
	assert.Equal(t, "Симпатия не найдена", body["message"])

	f.do(t, 3, http.MethodPost, "/sympathy", map[string]any{"tg_id": 1})
	_, body = f.do(t, 1, http.MethodDelete, "/sympathy", map[string]any{"tg_id": 3})
	assert.Equal(t, true, body["deleted"])
}

func TestSympathy_ConcurrentReciprocalMatchesOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
		wg.Add(1)
		go func(from, to int64) {
			defer wg.Done()
			testutil.Do(t, f.h, from, http.MethodPost, "/sympathy", map[string]any{"tg_id": to})
		}(pair[0], pair[1])
	}
	wg.Wait()

	var rows []db.Sympathy
	require.NoError(t, f.appCtx.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsMutual)
	assert.Equal(t, 1, f.notifier.Count())
}

func TestUserLikes_Toggle(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "like"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Лайк поставлен", body["message"])
	assert.Equal(t, false, body["removed"])
	assert.Equal(t, map[string]any{"likes_count": 1.0, "dislikes_count": 0.0, "like_ratio": 100.0}, body["stats"])

	_, body = f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "dislike"})
	assert.Equal(t, "Дизлайк поставлен", body["message"])
	assert.Equal(t, map[string]any{"likes_count": 0.0, "dislikes_count": 1.0, "like_ratio": 0.0}, body["stats"])

	f.do(t, 3, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "like"})
	_, body = f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "dislike"})
	assert.Equal(t, "Дизлайк убран", body["message"])
	assert.Equal(t, true, body["removed"])
	assert.Equal(t, map[string]any{"likes_count": 1.0, "dislikes_count": 0.0, "like_ratio": 100.0}, body["stats"])

	_, body = f.do(t, 3, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "like"})
	assert.Equal(t, "Лайк убран", body["message"])

	t.Run("validation", func(t *testing.T) {
		status, body := f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 2, "reaction_type": "love"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "reaction_type обязателен и должен быть 'like' или 'dislike'", body["error"])

		_, body = f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"reaction_type": "like"})
		assert.Equal(t, "tg_id обязателен", body["error"])

		_, body = f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 1, "reaction_type": "like"})
		assert.Equal(t, "Нельзя реагировать на себя", body["error"])
	})
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, 1, http.MethodPost, "/favorites", map[string]any{"tg_id": 2})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["created"])
	target := body["favorite"].(map[string]any)["target"].(map[string]any)
	assert.EqualValues(t, 2, target["tg_id"])
	assert.EqualValues(t, 25, target["age"])
	assert.Equal(t, "https://s3.test/photos/2/0.jpg", target["photo"].(map[string]any)["url"])

	_, body = f.do(t, 1, http.MethodPost, "/favorites", map[string]any{"tg_id": 2})
	assert.Equal(t, false, body["created"])

	f.do(t, 1, http.MethodPost, "/favorites", map[string]any{"tg_id": 3})

	_, body = f.do(t, 1, http.MethodGet, "/favorites", nil)
	assert.EqualValues(t, 2, body["count"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	newest := results[0].(map[string]any)["target"].(map[string]any)
	assert.EqualValues(t, 3, newest["tg_id"])
	assert.Nil(t, newest["age"], "Olga hides her age")

	var anna db.Player
	require.NoError(t, f.appCtx.DB.First(&anna, f.anna.ID).Error)
	assert.EqualValues(t, 1, anna.LikesCount, "favorite counts as a like")

	_, body = f.do(t, 1, http.MethodDelete, "/favorites", map[string]any{"tg_id": 2})
	assert.Equal(t, true, body["deleted"])
	_, body = f.do(t, 1, http.MethodDelete, "/favorites", map[string]any{"tg_id": 2})
	assert.Equal(t, false, body["deleted"])

	require.NoError(t, f.appCtx.DB.First(&anna, f.anna.ID).Error)
	assert.Zero(t, anna.LikesCount)
}

func TestProfileDetail(t *testing.T) {
	f := newFixture(t)
	f.do(t, 1, http.MethodPost, "/user-likes", map[string]any{"to_player_tg_id": 3, "reaction_type": "dislike"})

	status, body := f.do(t, 1, http.MethodGet, "/player/profile/detail?tg_id=3", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "woman", body["type"])
	assert.Nil(t, body["birth_date"], "hidden age withholds the birth date")
	assert.Nil(t, body["age"])
	assert.Len(t, body["photos"].([]any), 1)
	assert.Equal(t, false, body["is_favorite"])
	assert.Equal(t, false, body["is_liked"])
	assert.Equal(t, true, body["is_disliked"])

	f.do(t, 1, http.MethodPost, "/favorites", map[string]any{"tg_id": 2})
	_, body = f.do(t, 1, http.MethodGet, "/player/profile/detail?tg_id=2", nil)
	assert.EqualValues(t, 25, body["age"])
	assert.Equal(t, true, body["is_favorite"])
	assert.Equal(t, true, body["is_liked"])

	t.Run("errors", func(t *testing.T) {
		testutil.CreatePlayer(t, f.appCtx.DB, testutil.PlayerSpec{TgID: 9, Name: "Blank"})
		cases := map[string]struct {
			status int
			msg    string
		}{
			"/player/profile/detail":         {http.StatusBadRequest, "Укажите tg_id"},
			"/player/profile/detail?tg_id=x": {http.StatusBadRequest, "tg_id должен быть числом"},
			"/player/profile/detail?tg_id=8": {http.StatusNotFound, "Пользователь не найден"},
			"/player/profile/detail?tg_id=9": {http.StatusBadRequest, "У пользователя не указан пол"},
		}
		for target, want := range cases {
			rec := testutil.Do(t, f.h, 1, http.MethodGet, target, nil)
			assert.Equal(t, want.status, rec.Code, target)
			assert.Equal(t, want.msg, testutil.DecodeJSON[httpx.ErrorBody](t, rec).Error, target)
		}
	})
}
