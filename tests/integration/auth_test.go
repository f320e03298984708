//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginRefreshLogout(t *testing.T) {
	env := SetupTestEnv(t)

	email := fmt.Sprintf("auth-%d@test.com", uniqueID())

	// Register
	result := RegisterUser(t, env, email, "password123")
	data := result["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])

	// Duplicate email rejected
	resp := DoRequest(t, env, "POST", "/api/v1/auth/register",
		map[string]string{"email": email, "password": "password123"}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login
	token := LoginUser(t, env, email, "password123")
	assert.NotEmpty(t, token)

	// Wrong password
	resp = DoRequest(t, env, "POST", "/api/v1/auth/login",
		map[string]string{"email": email, "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Refresh
	refreshToken := data["refresh_token"].(string)
	resp = DoRequest(t, env, "POST", "/api/v1/auth/refresh",
		map[string]string{"refresh_token": refreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := ParseResponse(t, resp)["data"].(map[string]any)
	assert.NotEmpty(t, refreshed["access_token"])

	// Old refresh token is revoked after rotation
	resp = DoRequest(t, env, "POST", "/api/v1/auth/refresh",
		map[string]string{"refresh_token": refreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Logout
	resp = DoRequest(t, env, "POST", "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAuth_RoleAssignment(t *testing.T) {
	env := SetupTestEnv(t)

	email := fmt.Sprintf("sme-%d@test.com", uniqueID())
	resp := DoRequest(t, env, "POST", "/api/v1/auth/register",
		map[string]string{"email": email, "password": "password123", "role": "sme"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	token := LoginUser(t, env, email, "password123")

	// SME role gets the 25000-token daily limit
	resp = DoRequest(t, env, "GET", "/api/v1/assistant/usage", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	usage := ParseResponse(t, resp)["data"].(map[string]any)
	daily := usage["daily"].(map[string]any)
	assert.Equal(t, float64(25000), daily["limit"])
	assert.Equal(t, float64(0), daily["used"])
}

func TestAuth_ProtectedRoutesRequireToken(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "GET", "/api/v1/projects", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = DoRequest(t, env, "GET", "/api/v1/assistant/usage", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
