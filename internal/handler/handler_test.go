package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study_dashboard/internal/model"
	"study_dashboard/internal/repository"
	"study_dashboard/internal/service"
	"study_dashboard/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	repo    repository.UserRepository
	jwtUtil *utils.JWTUtil
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("no route to host") }

// brokenRepo fails every call the way an unreachable database would.
type brokenRepo struct{ err error }

func (b brokenRepo) Create(context.Context, *model.User) error { return b.err }
func (b brokenRepo) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, b.err
}
func (b brokenRepo) FindByID(context.Context, string) (*model.User, error) { return nil, b.err }
func (b brokenRepo) Ping(context.Context) error                            { return b.err }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	repo := repository.NewUserMemoryRepository()
	jwtUtil := utils.NewJWTUtil("test-secret", "study-dashboard", 1)
	svc := service.NewAuthService(repo, jwtUtil, "", &logger)
	return &testEnv{router: NewRouter(svc, jwtUtil, repo, &logger), repo: repo, jwtUtil: jwtUtil}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (e *testEnv) register(t *testing.T, username, email, password, role string) map[string]any {
	t.Helper()
	w, out := e.do(t, http.MethodPost, "/api/register", gin.H{"username": username, "email": email, "password": password, "role": role}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return out
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w, out := e.do(t, http.MethodPost, "/api/login", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return out["token"].(string)
}

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	out := env.register(t, "a", "a@x.com", "secret123", "")

	assert.Equal(t, true, out["success"])
	assert.Equal(t, "User registered successfully", out["message"])
	user := out["user"].(map[string]any)
	assert.NotEmpty(t, user["id"])
	assert.Equal(t, "a", user["username"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, model.RoleStudent, user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a", "a@x.com", "secret123", "")

	w, out := env.do(t, http.MethodPost, "/api/register", gin.H{"username": "b", "email": "a@x.com", "password": "zzz"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "User already exists", out["message"])

	stored, err := env.repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("secret123", stored.PasswordHash))
}

func TestRegister_BadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing password", gin.H{"username": "a", "email": "a@x.com"}},
		{"missing email", gin.H{"username": "a", "password": "p"}},
		{"missing username", gin.H{"email": "a@x.com", "password": "p"}},
		{"unknown role", gin.H{"username": "a", "email": "a@x.com", "password": "p", "role": "root"}},
		{"not json", "{username:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := env.do(t, http.MethodPost, "/api/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["message"])
		})
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t)

	w, out := env.do(t, http.MethodPost, "/api/register", gin.H{"username": "a", "email": "a@x.com", "password": strings.Repeat("p", 73)}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["message"], "72 bytes")

	_, err := env.repo.FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorageFailuresAreHidden(t *testing.T) {
	logger := zerolog.New(io.Discard)
	repo := brokenRepo{err: errors.New("pq: connection refused to 10.0.0.7:5432")}
	jwtUtil := utils.NewJWTUtil("test-secret", "study-dashboard", 1)
	env := &testEnv{
		router:  NewRouter(service.NewAuthService(repo, jwtUtil, "", &logger), jwtUtil, repo, &logger),
		repo:    repo,
		jwtUtil: jwtUtil,
	}

	tests := []struct {
		path    string
		body    gin.H
		message string
	}{
		{"/api/register", gin.H{"username": "a", "email": "a@x.com", "password": "secret123"}, "Registration failed"},
		{"/api/login", gin.H{"email": "a@x.com", "password": "secret123"}, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, out := env.do(t, http.MethodPost, tt.path, tt.body, "")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.message, out["message"])
			assert.NotContains(t, w.Body.String(), "connection refused")
			assert.NotContains(t, w.Body.String(), "10.0.0.7")
		})
	}
}

func TestLogin_ReturnsTokenAndRole(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "m", "m@x.com", "secret123", model.RoleMentor)

	w, out := env.do(t, http.MethodPost, "/api/login", gin.H{"email": "m@x.com", "password": "secret123"}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])
	user := out["user"].(map[string]any)
	assert.Equal(t, model.RoleMentor, user["role"])

	claims, err := env.jwtUtil.ValidateToken(out["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, model.RoleMentor, claims.Role)
	assert.Equal(t, user["id"], claims.UserID)
}

func TestLogin_UniformFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a", "a@x.com", "secret123", "")

	wrongPass, wrongPassBody := env.do(t, http.MethodPost, "/api/login", gin.H{"email": "a@x.com", "password": "nope"}, "")
	unknown, unknownBody := env.do(t, http.MethodPost, "/api/login", gin.H{"email": "ghost@x.com", "password": "secret123"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongPassBody, unknownBody)
	assert.Equal(t, "Invalid credentials", unknownBody["message"])
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	w, out := env.do(t, http.MethodPost, "/api/login", gin.H{"email": "a@x.com"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a", "a@x.com", "secret123", "")
	token := env.login(t, "a@x.com", "secret123")

	w, out := env.do(t, http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", out["user"].(map[string]any)["email"])

	w, _ = env.do(t, http.MethodGet, "/api/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_DeletedAccount(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtUtil.GenerateToken("ghost-id", "ghost", model.RoleStudent)
	require.NoError(t, err)

	w, out := env.do(t, http.MethodGet, "/api/me", nil, token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, out["success"])
}

func TestDashboard_Dispatch(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "adm", "adm@x.com", "secret123", model.RoleAdmin)
	token := env.login(t, "adm@x.com", "secret123")

	w, out := env.do(t, http.MethodGet, "/api/dashboard", nil, token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard/admin", out["redirect"])
}

func TestDashboard_RoleViews(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "s", "s@x.com", "secret123", model.RoleStudent)
	env.register(t, "m", "m@x.com", "secret123", model.RoleMentor)
	student := env.login(t, "s@x.com", "secret123")
	mentor := env.login(t, "m@x.com", "secret123")

	w, out := env.do(t, http.MethodGet, "/api/dashboard/student", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleStudent, out["view"])

	w, _ = env.do(t, http.MethodGet, "/api/dashboard/mentor", nil, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/dashboard/admin", nil, mentor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out = env.do(t, http.MethodGet, "/api/dashboard/mentor", nil, mentor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleMentor, out["view"])

	w, _ = env.do(t, http.MethodGet, "/api/dashboard/student", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboard_ForgedRoleClaimRejectedByStore(t *testing.T) {
	env := newTestEnv(t)
	out := env.register(t, "s", "s@x.com", "secret123", model.RoleStudent)
	id := out["user"].(map[string]any)["id"].(string)

	// Validly signed, but the role disagrees with the stored account.
	token, err := env.jwtUtil.GenerateToken(id, "s", model.RoleAdmin)
	require.NoError(t, err)

	w, _ := env.do(t, http.MethodGet, "/api/dashboard/admin", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w, out := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", out["db"])

	logger := zerolog.Nop()
	svc := service.NewAuthService(env.repo, env.jwtUtil, "", &logger)
	router := NewRouter(svc, env.jwtUtil, downStore{}, &logger)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
