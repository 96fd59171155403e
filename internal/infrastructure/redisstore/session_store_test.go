package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb), mr
}

func TestSessionStore_SaveGet(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	sess := &entity.Session{
		ID:          "sid-1",
		AccountID:   "acc-1",
		Username:    "jane",
		Email:       "jane.doe@x.com",
		AccountType: entity.AccountTypeClinician,
		FirstName:   "Jane",
		LastName:    "Doe",
		CreatedAt:   now,
		RenewedAt:   now,
	}
	require.NoError(t, store.Save(ctx, sess, 8*time.Hour))
	assert.Equal(t, 8*time.Hour, mr.TTL("account:session:sid-1"))
	assert.Equal(t, "clinician", mr.HGet("account:session:sid-1", "role"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Equal(t, entity.AccountTypeClinician, got.AccountType)
	assert.Equal(t, "Doe", got.LastName)
	assert.True(t, got.CreatedAt.Equal(now))
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestSessionStore_GetMissing(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionStore_ExpiresAfterWindow(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &entity.Session{ID: "sid-2", AccountID: "acc"}, time.Hour))

	mr.FastForward(61 * time.Minute)
	_, err := store.Get(ctx, "sid-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionStore_Renew(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &entity.Session{ID: "sid-3", AccountID: "acc"}, time.Hour))

	mr.FastForward(45 * time.Minute)
	later := time.Now().UTC()
	require.NoError(t, store.Renew(ctx, "sid-3", later, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("account:session:sid-3"))

	assert.ErrorIs(t, store.Renew(ctx, "missing", later, time.Hour), repository.ErrNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &entity.Session{ID: "sid-4", AccountID: "acc"}, time.Hour))

	require.NoError(t, store.Delete(ctx, "sid-4"))
	assert.False(t, mr.Exists("account:session:sid-4"))
	assert.NoError(t, store.Delete(ctx, "sid-4"))
}
