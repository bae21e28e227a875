package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentdesk/pkg/sentinel"
)

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "sarah.wilson", "hash1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.Get(ctx, 99)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestInMemoryStore_GetByUsernameFirstMatchWins(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, "michael.chen", "hash1")
	require.NoError(t, err)
	// Store layer does not enforce uniqueness; the scan returns the earliest.
	_, err = store.Create(ctx, "michael.chen", "hash2")
	require.NoError(t, err)

	got, err := store.GetByUsername(ctx, "michael.chen")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = store.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}
