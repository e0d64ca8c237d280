package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mangopixel04/portfliomango/config"
	"github.com/Mangopixel04/portfliomango/internal/application/command"
	"github.com/Mangopixel04/portfliomango/internal/application/query"
	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/memory"
	"github.com/Mangopixel04/portfliomango/internal/interface/http/handlers"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

const adminKey = "s3cret-admin-key"

var t0 = time.Date(2026, 6, 12, 9, 0, 0, 0, time.UTC)

type frozenClock struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (frozenClock) Now() time.Time                                     { return t0 }
func (frozenClock) AfterFunc(time.Duration, func()) notification.Timer { return idleTimer{} }

type fixture struct {
	handler  http.Handler
	registry *tracker.Registry
	storage  *memory.Storage
	flags    *config.FeatureFlags
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New(logger.Options{Output: io.Discard})
	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	require.NoError(t, err)

	flags := config.NewFeatureFlags()
	storage := memory.NewSeededStorage(t0)
	repos := storage.Repositories()
	presence := memory.NewPresence(time.Minute)
	registry := tracker.NewRegistry(memory.NewDeviceStore(), nil, presence,
		tracker.Config{Clock: frozenClock{}, Flags: flags}, log)

	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("memory", func(context.Context) error { return nil })

	srv := NewServer(DefaultConfig(), Dependencies{
		Sessions:       registry,
		RecordEvent:    command.NewRecordGameEventHandler(registry),
		RecordSignal:   command.NewRecordSignalHandler(),
		ResetProgress:  command.NewResetProgressHandler(registry),
		Notifications:  command.NewNotificationCommands(registry),
		Game:           query.NewGameQueries(registry),
		SubmitContact:  command.NewSubmitContactHandler(repos.Contacts, nil, log),
		UpdateContact:  command.NewUpdateContactStatusHandler(repos.Contacts),
		TrackAnalytics: command.NewTrackAnalyticsHandler(repos.Analytics, flags, config.FeatureAnalyticsIngest),
		Skills:         command.NewSkillCommands(repos.Skills),
		Projects:       command.NewProjectCommands(repos.Projects),
		Analytics:      query.NewAnalyticsQueries(repos.Analytics, presence, flags, config.FeatureLiveVisitors, log),
		Portfolio:      query.NewPortfolioQueries(repos),
		Admin:          handlers.NewAPIKeyAuth(handlers.DefaultAPIKeyHeader, string(hash)),
		HealthChecker:  checker,
		Logger:         log,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &fixture{handler: srv.Handler(), registry: registry, storage: storage, flags: flags}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *ResponseMeta   `json:"meta"`
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	status := decodeData[handlers.HealthStatus](t, env)
	assert.True(t, status.Healthy)
	assert.Equal(t, "test", status.Version)
	assert.Contains(t, status.Checks, "memory")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDPropagates(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/skills", nil, "X-Request-ID", "req-123")
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	require.NotNil(t, env.Meta)
	assert.Equal(t, "req-123", env.Meta.RequestID)
}

func TestGamificationFlow(t *testing.T) {
	f := newFixture(t)
	base := "/api/gamification/visitor-http-01"

	rec, env := f.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	state := decodeData[gamification.GameState](t, env)
	assert.True(t, state.IsFirstTimeUser)

	rec, env = f.do(t, http.MethodPost, base+"/events", map[string]any{
		"type":        "SECTION_VISIT",
		"sectionId":   "home",
		"sectionName": "Home",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[command.RecordGameEventResult](t, env)
	require.Len(t, result.Unlocked, 1)
	assert.Equal(t, gamification.AchievementFirstVisitor, result.Unlocked[0].ID)
	assert.Equal(t, 10, result.Summary.TotalPoints)

	rec, env = f.do(t, http.MethodGet, base+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[query.ProgressView](t, env)
	assert.Equal(t, 10, view.Points)

	rec, env = f.do(t, http.MethodDelete, base+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeData[command.GameSummary](t, env)
	assert.Zero(t, summary.TotalPoints)
	assert.Equal(t, 1, summary.Level)
}

func TestGamificationRejects(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/gamification/x/events", map[string]any{"type": "SESSION_START"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/api/gamification/visitor-http-02/events", map[string]any{"type": "DANCE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/gamification/visitor-http-02/events", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGamificationIgnoresClientClock(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/gamification/visitor-http-04/events", map[string]any{
		"type":       "PROJECT_VIEW",
		"projectId":  "p1",
		"occurredAt": t0.Add(20 * time.Minute).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[command.RecordGameEventResult](t, env)
	assert.NotContains(t, result.Summary.UnlockedAchievements, gamification.AchievementDeepDiver)
	assert.NotContains(t, result.Summary.UnlockedAchievements, gamification.AchievementMarathonReader)
}

func TestGamificationSignals(t *testing.T) {
	f := newFixture(t)
	device := shared.DeviceID("visitor-http-05")
	base := "/api/gamification/" + string(device)

	for _, sig := range []map[string]any{
		{"kind": "section_enter", "sectionId": "projects", "sectionName": "Projects"},
		{"kind": "click", "target": "link"},
		{"kind": "hover", "target": "skill"},
		{"kind": "scroll", "depth": 75},
		{"kind": "project_view", "projectId": "p1"},
		{"kind": "voice_command"},
		{"kind": "form_submit", "formType": "contact"},
		{"kind": "section_leave", "sectionId": "projects"},
	} {
		rec, env := f.do(t, http.MethodPost, base+"/signals", sig)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, env.Success)
	}

	s, ok := f.registry.Lookup(device)
	require.True(t, ok)
	state := s.Snapshot()
	sec, ok := state.Section("projects")
	require.True(t, ok)
	assert.Equal(t, 1, sec.Visits)
	assert.Equal(t, 1, state.InteractionStats.LinkClicks)
	assert.Equal(t, 1, state.InteractionStats.ButtonClicks)
	assert.Equal(t, 1, state.InteractionStats.SkillHovers)
	assert.Equal(t, 75, state.InteractionStats.ScrollDepth)
	assert.Equal(t, 1, state.InteractionStats.ProjectViews)
	assert.Equal(t, 1, state.InteractionStats.VoiceCommands)
	assert.Equal(t, 1, state.InteractionStats.FormSubmissions)

	rec, env := f.do(t, http.MethodPost, base+"/signals", map[string]any{"kind": "wiggle"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/gamification/x/signals", map[string]any{"kind": "click"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsEndpoints(t *testing.T) {
	f := newFixture(t)
	device := shared.DeviceID("visitor-http-03")
	base := "/api/gamification/" + string(device)

	s, err := f.registry.Open(context.Background(), device)
	require.NoError(t, err)
	a, ok := gamification.LookupAchievement(gamification.AchievementFirstVisitor)
	require.True(t, ok)
	shown := s.Notifications().Show(a)

	rec, env := f.do(t, http.MethodGet, base+"/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeData[notification.Snapshot](t, env)
	require.NotNil(t, snap.Active)
	assert.Equal(t, shown.ID, snap.Active.ID)

	rec, _ = f.do(t, http.MethodPost, base+"/notifications/"+shown.ID+"/dismiss", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do(t, http.MethodPost, base+"/notifications/missing/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, _ = f.do(t, http.MethodDelete, base+"/notifications", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, active := s.Notifications().Active()
	assert.False(t, active)
}

func TestContactEndpoints(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Let's build something",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[map[string]any](t, env)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "new", created["status"])

	rec, env = f.do(t, http.MethodPost, "/api/contact", map[string]any{"name": "Ada", "email": "nope", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/api/contact/messages", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_api_key", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/api/contact/messages", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_api_key", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/api/contact/messages", nil, "Authorization", "Bearer "+adminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.TotalCount)

	rec, env = f.do(t, http.MethodPatch, "/api/contact/messages/"+id, map[string]any{"status": "replied"}, "X-API-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "replied", decodeData[map[string]any](t, env)["status"])

	rec, _ = f.do(t, http.MethodPatch, "/api/contact/messages/"+id, map[string]any{"status": "archived"}, "X-API-Key", adminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/analytics/events", map[string]any{
		"eventType": "page_view",
		"eventData": map[string]any{"page": "/projects"},
	}, "X-Session-ID", "sess-1", "User-Agent", "test-agent")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decodeData[map[string]any](t, env)
	assert.Equal(t, "page_view", event["eventType"])
	assert.Equal(t, `{"page":"/projects"}`, event["eventData"])
	assert.Equal(t, "sess-1", event["sessionId"])
	assert.Equal(t, "test-agent", event["userAgent"])

	rec, _ = f.do(t, http.MethodPost, "/api/analytics/events", map[string]any{
		"eventType": "click",
		"eventData": "plain text",
		"sessionId": "sess-2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/analytics/events?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.TotalCount)
	assert.Equal(t, 1, env.Meta.Limit)

	rec, env = f.do(t, http.MethodGet, "/api/analytics/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decodeData[map[string]any](t, env)
	assert.EqualValues(t, 1, metrics["pageViews"])

	require.NoError(t, f.flags.SetRolloutPercent(config.FeatureAnalyticsIngest, 0))
	rec, _ = f.do(t, http.MethodPost, "/api/analytics/events", map[string]any{"eventType": "page_view"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	all, err := f.storage.AllEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rec, _ = f.do(t, http.MethodPost, "/api/analytics/events", map[string]any{"eventType": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowcaseEndpoints(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeData[[]map[string]any](t, env))

	rec, _ = f.do(t, http.MethodPost, "/api/skills", map[string]any{"name": "Go", "category": "Backend", "proficiency": 80})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/api/skills",
		map[string]any{"name": "Go", "category": "Backend", "proficiency": 80}, "X-API-Key", adminKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	skillID, _ := decodeData[map[string]any](t, env)["id"].(string)
	require.NotEmpty(t, skillID)

	rec, env = f.do(t, http.MethodPatch, "/api/skills/"+skillID, map[string]any{"proficiency": 90}, "X-API-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 90, decodeData[map[string]any](t, env)["proficiency"])

	rec, _ = f.do(t, http.MethodPatch, "/api/skills/"+skillID, map[string]any{"proficiency": 150}, "X-API-Key", adminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodDelete, "/api/skills/"+skillID, nil, "X-API-Key", adminKey)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodDelete, "/api/skills/"+skillID, nil, "X-API-Key", adminKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/api/projects", map[string]any{
		"title":       "Tracker",
		"description": "Visitor gamification",
		"isFeatured":  true,
	}, "X-API-Key", adminKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	projectID, _ := decodeData[map[string]any](t, env)["id"].(string)

	rec, env = f.do(t, http.MethodGet, "/api/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tracker", decodeData[map[string]any](t, env)["title"])

	rec, env = f.do(t, http.MethodGet, "/api/projects/featured", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	featured := decodeData[[]map[string]any](t, env)
	ids := make([]string, 0, len(featured))
	for _, p := range featured {
		id, _ := p["id"].(string)
		ids = append(ids, id)
	}
	assert.Contains(t, ids, projectID)

	rec, env = f.do(t, http.MethodGet, "/api/projects/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/skills", nil)
	req.Header.Set("Origin", "https://portfolio.example")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portfolio.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
