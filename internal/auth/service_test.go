package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	jwtMgr := NewJWTManager("access-secret-32-chars-long!!!!!", "refresh-secret-32-chars-long!!!!", 15*time.Minute, 168*time.Hour)
	return NewService(jwtMgr, client), mr
}

func staticLookup(email, role string) func(context.Context, string) (string, string, error) {
	return func(context.Context, string) (string, string, error) {
		return email, role, nil
	}
}

func TestService_GenerateTokensStoresRefreshID(t *testing.T) {
	svc, mr := setupService(t)

	pair, err := svc.GenerateTokens("user-1", "dev@devpad.io", "developer")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "refresh:user-1:")
}

func TestService_RefreshRotatesToken(t *testing.T) {
	svc, _ := setupService(t)

	pair, err := svc.GenerateTokens("user-1", "dev@devpad.io", "developer")
	require.NoError(t, err)

	rotated, err := svc.RefreshTokens(context.Background(), pair.RefreshToken, staticLookup("dev@devpad.io", "developer"))
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old token is revoked after rotation
	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken, staticLookup("dev@devpad.io", "developer"))
	assert.Error(t, err)

	// The rotated token still works
	_, err = svc.RefreshTokens(context.Background(), rotated.RefreshToken, staticLookup("dev@devpad.io", "developer"))
	assert.NoError(t, err)
}

func TestService_RefreshPicksUpRoleChange(t *testing.T) {
	svc, _ := setupService(t)

	pair, err := svc.GenerateTokens("user-1", "dev@devpad.io", "developer")
	require.NoError(t, err)

	// Lookup reflects a promotion applied since the last login
	rotated, err := svc.RefreshTokens(context.Background(), pair.RefreshToken, staticLookup("dev@devpad.io", "admin"))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestService_RefreshRejectsGarbage(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.RefreshTokens(context.Background(), "not-a-token", staticLookup("dev@devpad.io", "developer"))
	assert.Error(t, err)
}

func TestService_LogoutRevokesAllSessions(t *testing.T) {
	svc, mr := setupService(t)

	first, err := svc.GenerateTokens("user-1", "dev@devpad.io", "developer")
	require.NoError(t, err)
	second, err := svc.GenerateTokens("user-1", "dev@devpad.io", "developer")
	require.NoError(t, err)

	// Another user's session survives the logout
	other, err := svc.GenerateTokens("user-2", "sme@devpad.io", "sme")
	require.NoError(t, err)

	require.NoError(t, svc.Logout("user-1"))
	assert.Len(t, mr.Keys(), 1)

	_, err = svc.RefreshTokens(context.Background(), first.RefreshToken, staticLookup("dev@devpad.io", "developer"))
	assert.Error(t, err)
	_, err = svc.RefreshTokens(context.Background(), second.RefreshToken, staticLookup("dev@devpad.io", "developer"))
	assert.Error(t, err)

	_, err = svc.RefreshTokens(context.Background(), other.RefreshToken, staticLookup("sme@devpad.io", "sme"))
	assert.NoError(t, err)
}
