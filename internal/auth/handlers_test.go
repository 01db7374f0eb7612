package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seacable/atlas-backend/internal/auth"
	"github.com/seacable/atlas-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore implements auth.Store in memory.
type memStore struct {
	mu       sync.Mutex
	users    map[string]auth.User
	sessions map[string]auth.Session
}

func newMemStore() *memStore {
	return &memStore{users: map[string]auth.User{}, sessions: map[string]auth.Session{}}
}

func (m *memStore) CreateUser(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrEmailTaken
		}
	}
	m.users[u.UserID] = *u
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *memStore) FindUserByID(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) FindRole(ctx context.Context, id string) (string, error) {
	u, err := m.FindUserByID(ctx, id)
	return u.Role, err
}

func (m *memStore) UpdatePassword(_ context.Context, id, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.HashedPassword = hashed
	m.users[id] = u
	return nil
}

func (m *memStore) SaveSession(_ context.Context, s auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.sessions {
		if existing.UserID == s.UserID {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.SessionID] = s
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return auth.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memStore) FindSessionByID(id string) (utils.SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return utils.SessionData{}, auth.ErrSessionNotFound
	}
	return utils.SessionData{UserID: s.UserID, ExpiresAt: s.ExpiresAt}, nil
}

const (
	testEmail    = "doe.j@example.com"
	testPassword = "correct horse"
)

func newServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	_, err := auth.Register(context.Background(), store, "Jane Doe", testEmail, testPassword, auth.RoleAdmin)
	require.NoError(t, err)

	h := auth.NewHandler(store, time.Hour, false, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/auth", auth.SetupRoutes(h, store))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestLogin(t *testing.T) {
	srv, _ := newServer(t)

	cases := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{"missing password", map[string]string{"email": testEmail}, http.StatusBadRequest},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "x"}, http.StatusUnauthorized},
		{"wrong password", map[string]string{"email": testEmail, "password": "wrong"}, http.StatusUnauthorized},
		{"ok", map[string]string{"email": testEmail, "password": testPassword}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, newClient(t), srv.URL+"/auth/login", tc.body)
			assert.Equal(t, tc.wantCode, resp.StatusCode)
			if tc.wantCode == http.StatusOK {
				assert.Equal(t, testEmail, body["email"])
				assert.Equal(t, auth.RoleAdmin, body["role"])
				assert.NotContains(t, body, "hashed_password")
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestSessionFlow(t *testing.T) {
	srv, _ := newServer(t)
	client := newClient(t)

	resp, err := client.Get(srv.URL + "/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, client, srv.URL+"/auth/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/auth/me")
	require.NoError(t, err)
	var me auth.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jane Doe", me.Name)

	resp, _ = postJSON(t, client, srv.URL+"/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	srv, _ := newServer(t)
	client := newClient(t)

	resp, _ := postJSON(t, client, srv.URL+"/auth/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cases := []struct {
		name    string
		body    map[string]string
		wantErr string
	}{
		{"missing field", map[string]string{"current_password": testPassword, "new_password": "n"}, "All password fields are required"},
		{"bad current", map[string]string{"current_password": "nope", "new_password": "n", "confirm_password": "n"}, "Current password is incorrect"},
		{"mismatch", map[string]string{"current_password": testPassword, "new_password": "a", "confirm_password": "b"}, "do not match"},
	}
	for _, tc := range cases {
		resp, body := postJSON(t, client, srv.URL+"/auth/password", tc.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tc.name)
		assert.Contains(t, body["error"], tc.wantErr, tc.name)
	}

	resp, body := postJSON(t, client, srv.URL+"/auth/password", map[string]string{
		"current_password": testPassword, "new_password": "new secret", "confirm_password": "new secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password updated successfully", body["success"])

	resp, _ = postJSON(t, newClient(t), srv.URL+"/auth/login", map[string]string{"email": testEmail, "password": "new secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	_, err := auth.Register(ctx, store, "", "a@b.c", "pw", "")
	assert.Error(t, err)
	_, err = auth.Register(ctx, store, "A", "not-an-email", "pw", "")
	assert.Error(t, err)
	_, err = auth.Register(ctx, store, "A", "a@b.c", "pw", "Captain")
	assert.EqualError(t, err, `unknown role "Captain"`)

	u, err := auth.Register(ctx, store, "A", " A@B.C ", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)
	assert.Equal(t, auth.RoleAnalyst, u.Role)

	_, err = auth.Register(ctx, store, "B", "a@b.c", "pw", "")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}
