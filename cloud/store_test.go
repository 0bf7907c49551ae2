package cloud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waqasraz/ockam/enroll"
)

func TestTokenStoreSingleUse(t *testing.T) {
	store := NewTokenStore(0)
	store.Put("tok-123", enroll.Attributes{"role": "admin"})

	attributes, ok := store.Redeem("tok-123")
	require.True(t, ok)
	assert.Equal(t, "admin", attributes["role"])

	_, ok = store.Redeem("tok-123")
	assert.False(t, ok)
}

func TestTokenStoreUnknownToken(t *testing.T) {
	store := NewTokenStore(0)
	_, ok := store.Redeem("never-issued")
	assert.False(t, ok)
}

func TestTokenStoreExpiry(t *testing.T) {
	now := time.Now()
	store := NewTokenStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Put("tok-123", nil)
	now = now.Add(2 * time.Minute)

	_, ok := store.Redeem("tok-123")
	assert.False(t, ok)
}

func TestTokenStoreSweepsExpiredOnPut(t *testing.T) {
	now := time.Now()
	store := NewTokenStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Put("stale-1", nil)
	store.Put("stale-2", nil)
	require.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Minute)
	store.Put("fresh", nil)
	assert.Equal(t, 1, store.Len())
}
