package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"space-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizerPolicy(t *testing.T) {
	store := newFakeSpaceStore()
	store.addSpace(1, models.SpaceTypePublic, 10)
	store.addSpace(2, models.SpaceTypePrivate, 10)
	store.addMember(7, 2)

	auth := NewAuthorizer(store, time.Minute)
	ctx := context.Background()

	t.Run("PublicSpaceAllowsAnyone", func(t *testing.T) {
		d, err := auth.Authorize(ctx, 99, 1)
		require.NoError(t, err)
		assert.Equal(t, VerdictAllowed, d.Verdict)
		require.NotNil(t, d.Space)
		assert.Equal(t, uint(1), d.Space.ID)
	})

	t.Run("PrivateSpaceAllowsMember", func(t *testing.T) {
		d, err := auth.Authorize(ctx, 7, 2)
		require.NoError(t, err)
		assert.Equal(t, VerdictAllowed, d.Verdict)
	})

	t.Run("PrivateSpaceDeniesNonMember", func(t *testing.T) {
		d, err := auth.Authorize(ctx, 8, 2)
		require.NoError(t, err)
		assert.Equal(t, VerdictDenied, d.Verdict)
		assert.NotEmpty(t, d.Reason)
	})

	t.Run("UnknownSpaceIsNotFound", func(t *testing.T) {
		d, err := auth.Authorize(ctx, 7, 404)
		require.NoError(t, err)
		assert.Equal(t, VerdictNotFound, d.Verdict)
		assert.Nil(t, d.Space)
	})
}

func TestAuthorizerCache(t *testing.T) {
	store := newFakeSpaceStore()
	store.addSpace(2, models.SpaceTypePrivate, 10)

	auth := NewAuthorizer(store, time.Minute)
	ctx := context.Background()

	d, err := auth.Authorize(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictDenied, d.Verdict)
	lookupsAfterFirst := store.spaceCalls

	// A repeat within the TTL is served from cache, even though the
	// membership has changed underneath.
	store.addMember(7, 2)
	d, err = auth.Authorize(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictDenied, d.Verdict, "cached decision should survive until invalidated")
	assert.Equal(t, lookupsAfterFirst, store.spaceCalls, "cache hit should not touch the store")

	// Invalidation forces a fresh evaluation and picks up the new membership.
	auth.Invalidate(7, 2)
	d, err = auth.Authorize(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictAllowed, d.Verdict)
	assert.Greater(t, store.spaceCalls, lookupsAfterFirst)
}

func TestAuthorizerExpiredEntryReevaluates(t *testing.T) {
	store := newFakeSpaceStore()
	store.addSpace(2, models.SpaceTypePrivate, 10)

	auth := NewAuthorizer(store, time.Millisecond)
	ctx := context.Background()

	d, err := auth.Authorize(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictDenied, d.Verdict)

	store.addMember(7, 2)
	time.Sleep(5 * time.Millisecond)

	d, err = auth.Authorize(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictAllowed, d.Verdict, "expired entry should be re-evaluated")
}

func TestAuthorizerStoreFailure(t *testing.T) {
	store := newFakeSpaceStore()
	store.err = errors.New("connection refused")

	auth := NewAuthorizer(store, time.Minute)

	_, err := auth.Authorize(context.Background(), 7, 2)
	require.Error(t, err)

	// Failures are never cached.
	store.err = nil
	store.addSpace(2, models.SpaceTypePublic, 10)
	d, err := auth.Authorize(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, VerdictAllowed, d.Verdict)
}
