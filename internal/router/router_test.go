package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moodtracker/internal/auth"
	"moodtracker/internal/cache"
	"moodtracker/internal/db"
	"moodtracker/internal/handler"
	"moodtracker/internal/repository"
	"moodtracker/internal/service"
)

var pinnedNow = time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC)

type testServer struct {
	e     *echo.Echo
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.NewSQLite(db.InMemory)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	cacheClient := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	users := repository.NewUserRepository(database)
	entries := repository.NewMoodEntryRepository(database)
	tokens := auth.NewTokenStore(cacheClient)
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	opts := service.Options{
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return pinnedNow },
	}

	authService := service.NewAuthService(users, entries, jwtService, tokens, opts)
	userService := service.NewUserService(users, entries, tokens, cacheClient, opts)
	moodService := service.NewMoodEntryService(users, entries, opts)

	e := echo.New()
	Register(e, authService,
		handler.NewAuthHandler(authService, userService),
		handler.NewUserHandler(userService),
		handler.NewMoodEntryHandler(moodService),
	)
	return &testServer{e: e, redis: mr}
}

type response struct {
	Code int
	Body map[string]interface{}
}

func (r response) data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

func (r response) meta() map[string]interface{} {
	m, _ := r.Body["meta"].(map[string]interface{})
	return m
}

func (r response) fieldErrors() map[string]interface{} {
	m, _ := r.Body["errors"].(map[string]interface{})
	return m
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := response{Code: rec.Code}
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != echo.MIMETextPlainCharsetUTF8 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":                  "User",
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	return res.data()["token"].(string)
}

func (s *testServer) login(t *testing.T, email, password string) response {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
}

func (s *testServer) createEntry(t *testing.T, token string, level int, date string) uint {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/mood-entries", token, map[string]interface{}{
		"mood_level": level,
		"entry_date": date,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	return uint(res.data()["id"].(float64))
}

func TestProtectedRoutesRequireCredential(t *testing.T) {
	s := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user"},
		{http.MethodGet, "/api/auth/check"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/mood-entries"},
		{http.MethodPost, "/api/mood-entries"},
		{http.MethodGet, "/api/mood-entries/1"},
		{http.MethodGet, "/api/mood-entries-stats"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			res := s.do(t, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
			assert.Equal(t, "error", res.Body["status"])
			assert.Equal(t, "UNAUTHENTICATED", res.Body["code"])

			res = s.do(t, rt.method, rt.path, "not-a-token", nil)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestRegisterAndCheck(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":                  "Asha",
		"email":                 "asha@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	}, handler.HeaderTimezone, "Asia/Kolkata")
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(t, "success", res.Body["status"])
	assert.Equal(t, "Bearer", res.data()["token_type"])

	user := res.data()["user"].(map[string]interface{})
	assert.Equal(t, "Asia/Kolkata", user["timezone"])
	assert.Equal(t, float64(0), user["average_mood"])
	assert.Nil(t, user["latest_mood_emoji"])

	token := res.data()["token"].(string)
	res = s.do(t, http.MethodGet, "/api/auth/check", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.data()["authenticated"])
	assert.Equal(t, "asha@example.com", res.data()["user"].(map[string]interface{})["email"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "taken@example.com")

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name: "invalid timezone",
			body: map[string]interface{}{
				"name": "A", "email": "a@example.com",
				"password": "password123", "password_confirmation": "password123",
				"timezone": "Mars/Olympus",
			},
			field: "timezone",
		},
		{
			name: "duplicate email",
			body: map[string]interface{}{
				"name": "A", "email": "taken@example.com",
				"password": "password123", "password_confirmation": "password123",
			},
			field: "email",
		},
		{
			name: "confirmation mismatch",
			body: map[string]interface{}{
				"name": "A", "email": "b@example.com",
				"password": "password123", "password_confirmation": "password124",
			},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
			assert.Equal(t, "VALIDATION_ERROR", res.Body["code"])
			assert.Contains(t, res.fieldErrors(), tt.field)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	res := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_REQUEST", res.Body["code"])

	res = s.do(t, http.MethodPut, "/api/user/profile", token, `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@example.com")

	wrongPassword := s.login(t, "a@example.com", "wrong-password")
	unknownEmail := s.login(t, "nobody@example.com", "password123")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body, unknownEmail.Body)
}

func TestCrossUserAccess(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com")
	other := s.register(t, "other@example.com")

	id := s.createEntry(t, owner, 4, "2025-06-19")
	path := "/api/mood-entries/" + strconv.FormatUint(uint64(id), 10)

	res := s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "FORBIDDEN", res.Body["code"])

	res = s.do(t, http.MethodPut, path, other, map[string]interface{}{"mood_level": 1})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(4), res.data()["mood_level"])
	assert.Equal(t, "Good", res.meta()["mood_description"])

	res = s.do(t, http.MethodGet, "/api/mood-entries/99999", owner, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = s.do(t, http.MethodGet, "/api/mood-entries/abc", owner, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodGet, "/api/mood-entries", other, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.Body["data"])
}

func TestPasswordChangeRevokesEveryCredential(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "a@example.com")
	second := s.login(t, "a@example.com", "password123").data()["token"].(string)

	res := s.do(t, http.MethodPut, "/api/user/password", first, map[string]interface{}{
		"current_password":      "password123",
		"password":              "new-password",
		"password_confirmation": "new-password",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, true, res.data()["reauthenticate"])
	assert.Equal(t, "Password changed successfully. Please login again.", res.Body["message"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user", first, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user", second, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, s.login(t, "a@example.com", "password123").Code)
	assert.Equal(t, http.StatusOK, s.login(t, "a@example.com", "new-password").Code)
}

func TestWrongCurrentPassword(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	res := s.do(t, http.MethodPut, "/api/user/password", token, map[string]interface{}{
		"current_password":      "nope-nope",
		"password":              "new-password",
		"password_confirmation": "new-password",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.fieldErrors(), "current_password")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/user", token, nil).Code)
}

func TestLogoutRevokesOnlyCurrentCredential(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "a@example.com")
	second := s.login(t, "a@example.com", "password123").data()["token"].(string)

	res := s.do(t, http.MethodPost, "/api/auth/logout", first, nil)
	require.Equal(t, http.StatusOK, res.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user", first, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/user", second, nil).Code)
}

func TestCredentialStoreDown(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	s.redis.Close()
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user", token, nil).Code)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	s.register(t, "b@example.com")

	res := s.do(t, http.MethodPut, "/api/user/profile", token, map[string]interface{}{
		"name":     "Renamed",
		"timezone": "Europe/Berlin",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "Renamed", res.data()["name"])
	assert.Equal(t, "Europe/Berlin", res.data()["timezone"])

	res = s.do(t, http.MethodPut, "/api/user/profile", token, map[string]interface{}{"timezone": nil})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Nil(t, res.data()["timezone"])
	assert.Equal(t, "Renamed", res.data()["name"])

	res = s.do(t, http.MethodPut, "/api/user/profile", token, map[string]interface{}{"email": "b@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.fieldErrors(), "email")

	res = s.do(t, http.MethodPut, "/api/user/profile", token, map[string]interface{}{"timezone": "Nowhere/Land"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.fieldErrors(), "timezone")
}

func TestCreateAndUpdateEntry(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	res := s.do(t, http.MethodPost, "/api/mood-entries", token, map[string]interface{}{
		"mood_level": 5,
		"entry_time": "08:15",
		"notes":      "sunny",
		"activities": []string{"run", "coffee"},
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	entry := res.data()
	assert.Equal(t, "2025-06-20", entry["entry_date"])
	assert.Equal(t, "08:15", entry["entry_time"])
	assert.Equal(t, "Very Good", entry["mood_description"])
	assert.Equal(t, []interface{}{"run", "coffee"}, entry["activities"])
	assert.Equal(t, "User", entry["user"].(map[string]interface{})["name"])
	path := "/api/mood-entries/" + strconv.FormatFloat(entry["id"].(float64), 'f', 0, 64)

	res = s.do(t, http.MethodPut, path, token, map[string]interface{}{"notes": nil, "mood_level": 2})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Nil(t, res.data()["notes"])
	assert.Equal(t, float64(2), res.data()["mood_level"])
	assert.Equal(t, "08:15", res.data()["entry_time"])
	assert.Equal(t, []interface{}{"run", "coffee"}, res.data()["activities"])

	res = s.do(t, http.MethodPost, "/api/mood-entries", token, map[string]interface{}{
		"mood_level": 6,
		"entry_date": "2025-06-21",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.fieldErrors(), "mood_level")
	assert.Contains(t, res.fieldErrors(), "entry_date")

	res = s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code)
}

func TestListFiltersAndMeta(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	s.createEntry(t, token, 2, "2025-06-01")
	s.createEntry(t, token, 3, "2025-06-10")
	s.createEntry(t, token, 4, "2025-06-15")
	s.createEntry(t, token, 4, "2025-06-18")

	res := s.do(t, http.MethodGet, "/api/mood-entries?start_date=2025-06-10&end_date=2025-06-15", token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	data := res.Body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "2025-06-15", data[0].(map[string]interface{})["entry_date"])
	assert.Equal(t, "2025-06-10", data[1].(map[string]interface{})["entry_date"])

	meta := res.meta()
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, float64(4), meta["total_entries"])
	assert.InDelta(t, 3.25, meta["average_mood"], 1e-9)
	assert.Equal(t, "2025-06-18", meta["latest_entry"].(map[string]interface{})["entry_date"])

	res = s.do(t, http.MethodGet, "/api/mood-entries?mood_level=4&per_page=1&page=2", token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Len(t, res.Body["data"], 1)
	assert.Equal(t, float64(2), res.meta()["last_page"])
	assert.Equal(t, float64(2), res.meta()["current_page"])

	res = s.do(t, http.MethodGet, "/api/mood-entries?start_date=2025-06-15&end_date=2025-06-10", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.fieldErrors(), "end_date")

	res = s.do(t, http.MethodGet, "/api/mood-entries?mood_level=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	res := s.do(t, http.MethodGet, "/api/mood-entries-stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(0), res.data()["total_entries"])
	assert.Equal(t, float64(0), res.data()["average_mood"])
	assert.Nil(t, res.data()["latest_entry"])

	s.createEntry(t, token, 1, "2025-05-30")
	s.createEntry(t, token, 3, "2025-06-02")
	last := s.createEntry(t, token, 5, "2025-06-19")

	res = s.do(t, http.MethodGet, "/api/mood-entries-stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	stats := res.data()
	assert.Equal(t, float64(3), stats["total_entries"])
	assert.InDelta(t, 3.0, stats["average_mood"], 1e-9)
	assert.Equal(t, float64(last), stats["latest_entry"].(map[string]interface{})["id"])

	month := stats["this_month"].(map[string]interface{})
	assert.Equal(t, float64(2), month["count"])
	assert.InDelta(t, 4.0, month["average"], 1e-9)

	dist := stats["mood_distribution"].(map[string]interface{})
	require.Len(t, dist, 3)
	for _, level := range []string{"1", "3", "5"} {
		bucket := dist[level].(map[string]interface{})
		assert.Equal(t, float64(1), bucket["count"])
	}
	assert.Equal(t, "Very Bad", dist["1"].(map[string]interface{})["description"])
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	res := s.do(t, http.MethodGet, "/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "error", res.Body["status"])
	assert.Equal(t, "NOT_FOUND", res.Body["code"])
}
