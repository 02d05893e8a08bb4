package service

import (
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTokenStore(t *testing.T) {
	client, mr := testhelpers.NewRedisClient(t)
	store := NewRedisTokenStore(client)

	revoked, err := store.IsRevoked(bg, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(bg, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(bg, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(bg, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(bg, "jti-2", 0))
	assert.False(t, mr.Exists(revokedTokenPrefix+"jti-2"))

	mr.Close()
	_, err = store.IsRevoked(bg, "jti-1")
	assert.Error(t, err)
}
