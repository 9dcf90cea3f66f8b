package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"meditrack/m/internal/migrations"
	"meditrack/m/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	migrations.Run(db)

	handler := New(db, session.NewMemoryStore(time.Hour), time.Hour)
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	decoded := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))
	return res.StatusCode, decoded
}

// registerUser creates an account; adminToken is only needed when minting
// an admin after the first one.
func registerUser(t *testing.T, srv *httptest.Server, username, role, adminToken string) {
	t.Helper()
	status, body := doRequest(t, srv, http.MethodPost, "/auth/register", adminToken, map[string]any{
		"username":  username,
		"password":  "secret123",
		"full_name": "Test " + username,
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %v", username, body)
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	status, body := doRequest(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login %s: %v", username, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// adminToken bootstraps the first admin account and logs it in.
func adminToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	registerUser(t, srv, "admin", "admin", "")
	return login(t, srv, "admin", "secret123")
}

func createMedicine(t *testing.T, srv *httptest.Server, token string, fields map[string]any) int64 {
	t.Helper()
	status, body := doRequest(t, srv, http.MethodPost, "/medicines", token, fields)
	require.Equal(t, http.StatusCreated, status, "create medicine: %v", body)
	id, ok := body["id"].(float64)
	require.True(t, ok)
	return int64(id)
}
