package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEndpointsAreAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	adminToken(t, srv)
	registerUser(t, srv, "clerk", "staff", "")
	staff := login(t, srv, "clerk", "secret123")

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/1"},
		{http.MethodPut, "/users/1"},
		{http.MethodDelete, "/users/1"},
	} {
		var payload map[string]any
		if route.method == http.MethodPut {
			payload = map[string]any{"full_name": "X"}
		}
		status, _ := doRequest(t, srv, route.method, route.path, staff, payload)
		assert.Equal(t, http.StatusForbidden, status, "%s %s", route.method, route.path)
	}
}

func TestUserListAndGet(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)
	registerUser(t, srv, "clerk", "staff", "")

	status, body := doRequest(t, srv, http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	for _, item := range data {
		// Hashes never leave the server.
		_, hasPassword := item.(map[string]any)["password"]
		assert.False(t, hasPassword)
	}

	status, body = doRequest(t, srv, http.MethodGet, "/users/1", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["data"].(map[string]any)["username"])

	status, _ = doRequest(t, srv, http.MethodGet, "/users/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserUpdate(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)
	registerUser(t, srv, "clerk", "staff", "")

	var clerkID int64
	_, body := doRequest(t, srv, http.MethodGet, "/users", admin, nil)
	for _, item := range body["data"].([]any) {
		user := item.(map[string]any)
		if user["username"] == "clerk" {
			clerkID = int64(user["id"].(float64))
		}
	}
	require.NotZero(t, clerkID)

	status, _ := doRequest(t, srv, http.MethodPut, fmt.Sprintf("/users/%d", clerkID), admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/users/%d", clerkID), admin, map[string]any{
		"role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/users/%d", clerkID), admin, map[string]any{
		"password": "tiny",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/users/%d", clerkID), admin, map[string]any{
		"full_name": "Chief Clerk", "role": "admin", "password": "newsecret",
	})
	require.Equal(t, http.StatusOK, status)

	// Re-hashed password and new role take effect immediately.
	token := login(t, srv, "clerk", "newsecret")
	status, body = doRequest(t, srv, http.MethodGet, "/auth/check", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Chief Clerk", user["full_name"])
	assert.Equal(t, "admin", user["role"])
}

func TestUserDelete(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)
	registerUser(t, srv, "clerk", "staff", "")

	// Admins cannot remove their own account.
	status, body := doRequest(t, srv, http.MethodDelete, "/users/1", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot delete your own account", body["message"])

	var clerkID int64
	_, body = doRequest(t, srv, http.MethodGet, "/users", admin, nil)
	for _, item := range body["data"].([]any) {
		user := item.(map[string]any)
		if user["username"] == "clerk" {
			clerkID = int64(user["id"].(float64))
		}
	}

	status, _ = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/users/%d", clerkID), admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "clerk", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/users/%d", clerkID), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
