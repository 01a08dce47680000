package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/cache/memory"
	"github.com/prn-tf/linkday/internal/metrics"
	"github.com/prn-tf/linkday/internal/pkg/crypto"
	"github.com/prn-tf/linkday/internal/repository/sqlite"
	"github.com/prn-tf/linkday/internal/service"
	"github.com/prn-tf/linkday/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	handler http.Handler
	db      *sqlite.DB
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(sqlite.MemoryPath), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	userRepo := sqlite.NewUserRepository(db)
	linkRepo := sqlite.NewLinkRepository(db)

	cache := memory.NewCache(time.Hour)
	t.Cleanup(func() { cache.Close() })
	profiles := service.NewProfileCache(cache, time.Minute, logger)

	tokens, err := auth.NewTokenManager(testSecret, "linkday", time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	users := service.NewUserService(userRepo, linkRepo, profiles, logger)
	links := service.NewLinkService(linkRepo, profiles, m, logger)
	accounts := service.NewAuthService(userRepo, crypto.NewPasswordHasher(bcrypt.MinCost), tokens, logger)

	store, err := storage.NewFilesystemStore(t.TempDir(), "", logger)
	require.NoError(t, err)
	avatars := service.NewAvatarService(store, users, 1024, logger)

	router := NewRouter(RouterConfig{
		AuthHandler:    NewAuthHandler(accounts, users, logger),
		LinkHandler:    NewLinkHandler(links, logger),
		UserHandler:    NewUserHandler(users, avatars, logger),
		AuthMiddleware: auth.Middleware(tokens, users, logger),
		Database:       db,
		Metrics:        m,
		MetricsPath:    "/metrics",
		AvatarFiles:    store.Handler(),
		CORSOrigins:    []string{"*"},
		MaxBodySize:    1 << 20,
		Logger:         logger,
	})

	return &testServer{handler: router.Handler(), db: db, metrics: m}
}

// do sends a JSON request and decodes the JSON response.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// register creates an account and returns its token and user id.
func (s *testServer) register(t *testing.T, username string) (string, string) {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test " + username,
		"email":    username + "@example.com",
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func (s *testServer) createLink(t *testing.T, token, title string) string {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/api/links", token, map[string]string{
		"title": title,
		"url":   "https://example.com/" + title,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["link"].(map[string]interface{})["id"].(string)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "LinkDay API is running!", body["message"])

	status, body = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["status"])

	status, body = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found", body["message"])
}

func TestHealth_Unhealthy(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Close())

	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "unhealthy", body["status"])
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	token, id := s.register(t, "alice")

	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "ALICE@example.com", "username": "alice2", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already exists", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "Alice@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	status, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, id, user["id"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
}

func TestAuth_BearerFailures(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{name: "missing", token: "", message: auth.MessageMissingToken},
		{name: "garbage", token: "not-a-jwt", message: auth.MessageInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/api/links", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestAuth_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please provide all required fields", body["message"])
}

func TestLinks_CRUD(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "bob")

	status, body := s.do(t, http.MethodPost, "/api/links", token, map[string]string{"title": "only"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Title and URL are required", body["message"])

	a := s.createLink(t, token, "a")
	b := s.createLink(t, token, "b")

	status, body = s.do(t, http.MethodGet, "/api/links", token, nil)
	require.Equal(t, http.StatusOK, status)
	links := body["links"].([]interface{})
	require.Len(t, links, 2)
	assert.Equal(t, float64(1), links[1].(map[string]interface{})["order"])

	status, body = s.do(t, http.MethodPut, "/api/links/"+a, token, map[string]interface{}{
		"title":    "",
		"isActive": false,
	})
	require.Equal(t, http.StatusOK, status)
	link := body["link"].(map[string]interface{})
	assert.Equal(t, "a", link["title"], "empty title is ignored")
	assert.Equal(t, false, link["isActive"])

	status, body = s.do(t, http.MethodPut, "/api/links/"+a, token, map[string]interface{}{"description": "d"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["link"].(map[string]interface{})["isActive"], "omitted isActive is unchanged")

	status, body = s.do(t, http.MethodDelete, "/api/links/"+b, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Link deleted successfully", body["message"])

	status, body = s.do(t, http.MethodDelete, "/api/links/"+b, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Link not found", body["message"])

	status, _ = s.do(t, http.MethodPut, "/api/links/not-a-uuid", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLinks_OwnershipIsNotFound(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "owner")
	other, _ := s.register(t, "other")

	id := s.createLink(t, owner, "mine")

	status, body := s.do(t, http.MethodPut, "/api/links/"+id, other, map[string]string{"title": "stolen"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Link not found", body["message"])

	status, _ = s.do(t, http.MethodDelete, "/api/links/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLinks_Reorder(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "carol")
	other, _ := s.register(t, "dave")

	l1 := s.createLink(t, token, "one")
	l2 := s.createLink(t, token, "two")
	foreign := s.createLink(t, other, "foreign")

	status, body := s.do(t, http.MethodPatch, "/api/links/reorder", token, map[string]interface{}{
		"linkIds": []interface{}{l2, foreign, 7, l1},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Links reordered successfully", body["message"])

	_, body = s.do(t, http.MethodGet, "/api/links", token, nil)
	links := body["links"].([]interface{})
	require.Len(t, links, 2)
	assert.Equal(t, l2, links[0].(map[string]interface{})["id"])
	assert.Equal(t, float64(0), links[0].(map[string]interface{})["order"])
	assert.Equal(t, l1, links[1].(map[string]interface{})["id"])
	assert.Equal(t, float64(3), links[1].(map[string]interface{})["order"])

	_, body = s.do(t, http.MethodGet, "/api/user/dave", "", nil)
	foreignLink := body["links"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(0), foreignLink["order"], "foreign link is untouched")

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing", body: map[string]interface{}{}},
		{name: "string", body: map[string]interface{}{"linkIds": "abc"}},
		{name: "null", body: `{"linkIds":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPatch, "/api/links/reorder", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "linkIds must be an array", body["message"])
		})
	}
}

func TestClick(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "erin")
	id := s.createLink(t, token, "clickme")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, body := s.do(t, http.MethodPost, "/api/click/"+id, "", nil)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "https://example.com/clickme", body["redirectUrl"])
		}()
	}
	wg.Wait()

	_, body := s.do(t, http.MethodGet, "/api/links", token, nil)
	assert.Equal(t, float64(10), body["links"].([]interface{})[0].(map[string]interface{})["clicks"])

	status, _ := s.do(t, http.MethodPut, "/api/links/"+id, token, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/click/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Link not found", body["message"])

	status, _ = s.do(t, http.MethodPost, "/api/click/garbage", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPublicProfile(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "frank")
	visible := s.createLink(t, token, "visible")
	hidden := s.createLink(t, token, "hidden")

	status, _ := s.do(t, http.MethodPut, "/api/links/"+hidden, token, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, status)

	for _, prefix := range []string{"/api/user/", "/u/"} {
		status, body := s.do(t, http.MethodGet, prefix+"frank", "", nil)
		require.Equal(t, http.StatusOK, status)
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "frank", user["username"])
		assert.NotContains(t, user, "email")

		links := body["links"].([]interface{})
		require.Len(t, links, 1)
		assert.Equal(t, visible, links[0].(map[string]interface{})["id"])
	}

	status, body := s.do(t, http.MethodGet, "/u/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

func TestUser_UpdateProfileAndUsername(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "grace")
	s.register(t, "taken")

	status, body := s.do(t, http.MethodPut, "/api/user/profile", token, map[string]string{
		"bio":   "hello",
		"theme": "neon",
	})
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "hello", user["bio"])
	assert.Equal(t, "light", user["theme"], "invalid theme is ignored")

	_, body = s.do(t, http.MethodGet, "/u/grace", "", nil)
	assert.Equal(t, "hello", body["user"].(map[string]interface{})["bio"])

	status, body = s.do(t, http.MethodPut, "/api/user/username", token, map[string]string{"username": "TAKEN"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", body["message"])

	status, body = s.do(t, http.MethodPut, "/api/user/username", token, map[string]string{"username": "ab"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username must be between 3 and 30 characters", body["message"])

	status, body = s.do(t, http.MethodPut, "/api/user/username", token, map[string]string{"username": "Grace2"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "grace2", body["user"].(map[string]interface{})["username"])

	status, _ = s.do(t, http.MethodGet, "/u/grace", "", nil)
	assert.Equal(t, http.StatusNotFound, status, "old username is no longer served from cache")

	status, _ = s.do(t, http.MethodGet, "/u/grace2", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func uploadAvatar(t *testing.T, s *testServer, token string, content []byte) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestUser_UploadAvatar(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "heidi")

	status, body := uploadAvatar(t, s, token, pngHeader)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Avatar updated successfully", body["message"])

	avatar := body["user"].(map[string]interface{})["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatar, "/avatars/"), avatar)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, avatar, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	status, body = uploadAvatar(t, s, token, []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Avatar must be a PNG, JPEG, GIF or WebP image", body["message"])

	status, body = uploadAvatar(t, s, token, append(append([]byte{}, pngHeader...), make([]byte, 2048)...))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Avatar exceeds maximum size", body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "ivan")
	id := s.createLink(t, token, "m")
	s.do(t, http.MethodPost, "/api/click/"+id, "", nil)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	text := rec.Body.String()
	assert.Contains(t, text, "linkday_link_clicks_total 1")
	assert.Contains(t, text, `route="/api/click/{linkId}"`)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: service.ErrMissingFields, status: http.StatusBadRequest, message: "Please provide all required fields"},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError, message: "Server Error"},
		{name: "wrapped internal", err: service.ErrInternalError, status: http.StatusInternalServerError, message: "Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), zerolog.Nop(), tt.err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := recoverer(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server Error"}`, rec.Body.String())
}
