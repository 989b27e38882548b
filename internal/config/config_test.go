package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 60*time.Second, cfg.Engine.RefreshInterval)
	assert.Equal(t, 60, cfg.Engine.RefreshTicks())
	assert.Equal(t, time.Second, cfg.Engine.TickInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.PrefetchDelay)
	assert.Equal(t, []string{"hot", "new", "rising", "controversial", "top"}, cfg.Engine.SortModes)
	assert.Equal(t, "https://www.reddit.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 50, cfg.Upstream.Limit)
	assert.Equal(t, "badger", cfg.Store.Driver)
}

func TestLoadOverrides(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(map[string]any{
		"engine.refresh_interval": "30s",
		"upstream.limit":          25,
		"store.driver":            "sqlite",
	}, "."), nil))

	cfg := &Config{}
	require.NoError(t, Load(k, cfg))

	assert.Equal(t, 30*time.Second, cfg.Engine.RefreshInterval)
	assert.Equal(t, 25, cfg.Upstream.Limit)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		values map[string]any
	}{
		{name: "unknown driver", values: map[string]any{"store.driver": "redis"}},
		{name: "limit too large", values: map[string]any{"upstream.limit": 500}},
		{name: "unknown sort mode", values: map[string]any{"engine.sort_modes": []string{"best"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k := koanf.New(".")
			require.NoError(t, k.Load(confmap.Provider(tc.values, "."), nil))
			assert.ErrorIs(t, Load(k, &Config{}), ErrInvalidConfig)
		})
	}
}
