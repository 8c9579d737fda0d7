package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type operatorConfig struct {
	ShortCode string
	Passkey   string
}

func TestCache_PutAndGet(t *testing.T) {
	cache := NewCache[operatorConfig](time.Minute)

	cache.Put("mpesa", operatorConfig{ShortCode: "174379", Passkey: "secret"})

	got, ok := cache.Get("mpesa")
	require.True(t, ok)
	assert.Equal(t, "174379", got.ShortCode)
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	cache := NewCache[operatorConfig](time.Minute)

	_, ok := cache.Get("airtel")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	cache := NewCache[operatorConfig](10 * time.Millisecond)

	cache.Put("mpesa", operatorConfig{ShortCode: "174379"})
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get("mpesa")
	assert.False(t, ok)
}

func TestCache_Bust(t *testing.T) {
	cache := NewCache[operatorConfig](time.Minute)

	cache.Put("mpesa", operatorConfig{ShortCode: "174379"})
	cache.Bust("mpesa")

	_, ok := cache.Get("mpesa")
	assert.False(t, ok)
}
