package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind-labs/storefront/pkg/config"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	delete(m.data, key)
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string { return "sess:" + accessID }

var testJWT = config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}

func newTestManager(t *testing.T) (*Manager, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	m, err := newManager(store, testJWT)
	require.NoError(t, err)
	return m, store
}

func TestNewManagerValidatesTTLs(t *testing.T) {
	_, err := newManager(newMemoryStore(), config.JWTConfig{ExpirationMinutes: 15})
	assert.Error(t, err)
	_, err = newManager(newMemoryStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60})
	assert.ErrorContains(t, err, "must exceed")
	_, err = NewManager(nil, testJWT)
	assert.Error(t, err)
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	m, store := newTestManager(t)
	userID := uuid.New()

	token, err := m.Generate(context.Background(), "access-1", userID)
	require.NoError(t, err)

	raw := store.data["sess:access-1"]
	assert.NotContains(t, raw, token)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, userID, rec.UserID)
	assert.True(t, rec.matches(token))
	assert.Equal(t, time.Hour, store.ttls["sess:access-1"])
}

func TestRotateIssuesNewSessionOnce(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	_, err = m.Rotate(ctx, "access-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Contains(t, store.data, "sess:access-1", "a wrong token leaves the session alone")

	rotation, err := m.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	assert.Equal(t, userID, rotation.UserID)
	assert.NotEqual(t, token, rotation.RefreshToken)
	assert.NotContains(t, store.data, "sess:access-1")
	assert.Contains(t, store.data, "sess:"+rotation.AccessID)

	_, err = m.Rotate(ctx, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateConcurrentUseHasOneWinner(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	token, err := m.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Rotate(ctx, "access-1", token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRevokeAndHasSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	live, err := m.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, live)

	require.NoError(t, m.Revoke(ctx, "access-1"))
	live, err = m.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, live)

	_, err = m.HasSession(ctx, " ")
	assert.Error(t, err)
}

func TestRotateRejectsCorruptRecords(t *testing.T) {
	m, store := newTestManager(t)
	store.data["sess:bad"] = "not-json"

	_, err := m.Rotate(context.Background(), "bad", "anything")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = m.Generate(context.Background(), "access", uuid.Nil)
	assert.Error(t, err)
}
