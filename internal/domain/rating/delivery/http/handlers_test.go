package http

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	"github.com/Conte777/newsdigest/internal/domain/rating/repository/file"
	kafkaRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/kafka"
	"github.com/Conte777/newsdigest/internal/domain/rating/selection"
	"github.com/Conte777/newsdigest/internal/domain/rating/store"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
)

const (
	owner    int64 = 42
	apiToken       = "owner-secret"
)

type testAPI struct {
	router *router.Router
	store  *store.Store
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithToken(t, apiToken)
}

func newTestAPIWithToken(t *testing.T, token string) *testAPI {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	st := store.New(entities.RatingConfig{PrivilegedUserID: owner}, clock)
	repo, err := file.NewSnapshotRepository(filepath.Join(t.TempDir(), "snap.json"), zerolog.Nop())
	require.NoError(t, err)

	uc := buissines.NewUseCase(
		st,
		selection.NewEngine(st, 0.3),
		repo,
		kafkaRepo.NoopPublisher{},
		clock,
		&config.RatingConfig{PrivilegedUserID: owner, ExplorationRatio: 0.3, MessageRetentionDays: 30},
		&config.DigestConfig{Categories: []string{"AI"}, PerCategory: map[string]int{"AI": 2}},
		zerolog.Nop(),
	)

	r := router.New()
	NewHandlers(uc, token, zerolog.Nop()).RegisterRoutes(r)
	health := NewHealthHandler(uc,
		&config.StorageConfig{Backend: config.StorageBackendFile},
		&config.KafkaConfig{},
		clock, zerolog.Nop())
	r.GET("/health", health.Handle)

	return &testAPI{router: r, store: st, token: token}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, uri, body string) (int, envelope) {
	t.Helper()
	return a.doWithAuth(t, method, uri, body, "Bearer "+a.token)
}

func (a *testAPI) doWithAuth(t *testing.T, method, uri, body, authorization string) (int, envelope) {
	t.Helper()

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	if authorization != "" {
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, authorization)
	}
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}

	a.router.Handler(&ctx)

	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return ctx.Response.StatusCode(), env
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	for _, body := range []string{
		`{"kind":"source","id":"Alpha","category":"AI"}`,
		`{"kind":"source","id":"Beta","category":"AI"}`,
		`{"kind":"expert","id":"Karpathy","category":"AI"}`,
	} {
		status, _ := a.do(t, "POST", "/api/items", body)
		require.Equal(t, fasthttp.StatusOK, status)
	}
	status, env := a.do(t, "POST", "/api/messages", `{"messageId":"m1","chatId":"c","sourceId":"Alpha","expertId":"Karpathy"}`)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
}

func TestRegisterItem(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, "POST", "/api/items", `{"kind":"source","id":"Alpha","category":"AI"}`)
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"created":true}`, string(env.Data))

	_, env = api.do(t, "POST", "/api/items", `{"kind":"source","id":"Alpha","category":"Tech"}`)
	assert.JSONEq(t, `{"created":false}`, string(env.Data))

	status, env = api.do(t, "POST", "/api/items", `{"kind":"podcast","id":"x"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = api.do(t, "POST", "/api/items", `not json`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
}

func TestRegisterMessage_UnknownItem(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, "POST", "/api/messages", `{"messageId":"m1","sourceId":"Ghost"}`)
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Contains(t, env.Error, "Ghost")
}

func TestApplyReaction(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	status, env := api.do(t, "POST", "/api/reactions", `{"messageId":"m1","emoji":"🔥","userId":42}`)
	require.Equal(t, fasthttp.StatusOK, status)

	var outcome struct {
		Applied []entities.ReactionResult `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	require.Len(t, outcome.Applied, 1)
	assert.Equal(t, "Alpha", outcome.Applied[0].ItemID)

	_, env = api.do(t, "POST", "/api/reactions", `{"messageId":"m1","emoji":"🔥","userId":7}`)
	assert.Contains(t, string(env.Data), string(entities.SkipNotPrivileged))

	item, _ := api.store.GetItem(entities.KindSource, "Alpha")
	assert.Equal(t, 1, item.ReactionCount)
}

func TestSelect(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	status, env := api.do(t, "POST", "/api/select",
		`{"kind":"source","candidatePool":["Alpha","Beta","Nope"],"targetCount":2,"explorationRatio":0.5}`)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)

	var sel entities.Selection
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Len(t, sel.Selected, 2)
	assert.Len(t, sel.Exploitation, 1)
	assert.Len(t, sel.Exploration, 1)

	status, env = api.do(t, "POST", "/api/select", `{"kind":"source","candidatePool":[],"targetCount":2}`)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Empty(t, sel.Selected)
	assert.Zero(t, sel.Stats.TotalAvailable)
}

func TestPlanDigest_EmptyBody(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	status, env := api.do(t, "POST", "/api/digest", "")
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), `"category":"AI"`)
}

func TestTop(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)
	api.do(t, "POST", "/api/reactions", `{"messageId":"m1","emoji":"👍","userId":42}`)

	status, env := api.do(t, "GET", "/api/top?kind=source&limit=5", "")
	require.Equal(t, fasthttp.StatusOK, status)

	var items []entities.RatedItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Alpha", items[0].ID)

	status, _ = api.do(t, "GET", "/api/top?limit=abc", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, _ = api.do(t, "GET", "/api/top?kind=podcast", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
}

func TestReport(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	status, env := api.do(t, "GET", "/api/report", "")
	require.Equal(t, fasthttp.StatusOK, status)

	var report entities.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Sources.Total)
	assert.Equal(t, 1, report.ActiveMessages)
	assert.Equal(t, owner, report.PrivilegedUserID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	var exportCtx fasthttp.RequestCtx
	exportCtx.Request.Header.SetMethod("GET")
	exportCtx.Request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+apiToken)
	exportCtx.Request.SetRequestURI("/api/snapshot")
	api.router.Handler(&exportCtx)
	require.Equal(t, fasthttp.StatusOK, exportCtx.Response.StatusCode())
	snapshot := string(exportCtx.Response.Body())

	other := newTestAPI(t)
	status, env := other.do(t, "PUT", "/api/snapshot", snapshot)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)

	_, ok := other.store.GetMessage("m1")
	assert.True(t, ok)

	status, _ = other.do(t, "PUT", "/api/snapshot", `{"sources":{"x":{"kind":"expert","id":"x"}}}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	_, ok = other.store.GetItem(entities.KindSource, "Alpha")
	assert.True(t, ok, "failed import keeps state")
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer guess"},
		{"wrong scheme", "Basic " + apiToken},
		{"bare token", apiToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				status, env := api.doWithAuth(t, "POST", "/api/reactions",
					`{"messageId":"m1","emoji":"👎","userId":42}`, tt.authorization)
				assert.Equal(t, fasthttp.StatusUnauthorized, status)
				assert.False(t, env.Success)
			}

			status, _ := api.doWithAuth(t, "PUT", "/api/snapshot",
				`{"sources":{},"experts":{},"messages":{}}`, tt.authorization)
			assert.Equal(t, fasthttp.StatusUnauthorized, status)

			status, _ = api.doWithAuth(t, "GET", "/api/snapshot", "", tt.authorization)
			assert.Equal(t, fasthttp.StatusUnauthorized, status)
		})
	}

	item, ok := api.store.GetItem(entities.KindSource, "Alpha")
	require.True(t, ok, "rejected snapshot import keeps state")
	assert.Zero(t, item.ReactionCount)
	assert.Equal(t, entities.StatusCandidate, item.Status)

	status, _ := api.doWithAuth(t, "GET", "/api/report", "", "bearer "+apiToken)
	assert.Equal(t, fasthttp.StatusOK, status, "scheme is case-insensitive")
}

func TestAPI_LockedWithoutConfiguredToken(t *testing.T) {
	api := newTestAPIWithToken(t, "")

	status, _ := api.do(t, "POST", "/api/items", `{"kind":"source","id":"Alpha","category":"AI"}`)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)

	status, _ = api.doWithAuth(t, "GET", "/api/report", "", "Bearer ")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)

	_, ok := api.store.GetItem(entities.KindSource, "Alpha")
	assert.False(t, ok)

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/health")
	api.router.Handler(&ctx)
	assert.NotEqual(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode(), "health stays public")
}
