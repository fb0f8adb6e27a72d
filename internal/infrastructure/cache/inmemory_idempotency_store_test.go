package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	t.Helper()
	s := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = s.Close() })
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestInMemory_ReserveSaveGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	key := Key("t1", "POST /api/sales", "abc")

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := s.Reserve(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "segunda reserva con la misma llave")

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, s.Save(ctx, key, StoredResponse{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"1"}`)}, time.Hour))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.Status)
	assert.JSONEq(t, `{"id":"1"}`, string(got.Body))
}

func TestInMemory_ExpiraYRelease(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	*now = now.Add(2 * time.Minute)
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "entrada vencida")

	ok, err = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "reservable de nuevo tras vencer")

	require.NoError(t, s.Release(ctx, "k"))
	ok, err = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "reservable de nuevo tras liberar")

	*now = now.Add(time.Hour)
	s.purgeExpired()
	assert.Zero(t, s.Len())
}

func TestKey_SeparaTenants(t *testing.T) {
	assert.NotEqual(t, Key("t1", "POST /api/sales", "k"), Key("t2", "POST /api/sales", "k"))
}

func TestNewIdempotencyStore_SinRedisUsaMemoria(t *testing.T) {
	s, closer, err := NewIdempotencyStore(context.Background(), RedisConfig{}, false, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	_, ok := s.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}
