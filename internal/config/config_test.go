package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.015, cfg.Triggers.PriceMoveThreshold)
	assert.Equal(t, 1.30, cfg.Triggers.VolumeSpikeThreshold)
	assert.Equal(t, 7, cfg.Triggers.FocusListMaxSize)
	assert.Equal(t, 30, cfg.Triggers.MinHistoryBars)
	assert.Equal(t, 10.0, cfg.Trading.Commission)
	assert.Equal(t, 500.0, cfg.Trading.MinTradeSize)
	assert.Equal(t, 45*time.Second, cfg.Scalpel.TaskTimeout)
	assert.Len(t, cfg.Regime.Splits, 4)
	assert.True(t, cfg.Schedule.Enabled)
}

func TestLoadScheduleDisabled(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())
	t.Setenv("SCHEDULE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Schedule.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())
	t.Setenv("FOCUS_LIST_MAX_SIZE", "3")
	t.Setenv("COMMISSION", "2.5")
	t.Setenv("SCALPEL_API_BUDGET", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Triggers.FocusListMaxSize)
	assert.Equal(t, 2.5, cfg.Trading.Commission)
	assert.Equal(t, 5, cfg.Scalpel.APIBudget)
}

func TestValidateSplitsSumToOne(t *testing.T) {
	t.Setenv("ENGINE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	for regime, split := range cfg.Regime.Splits {
		assert.InDelta(t, 1.0, split.Sum(), 1e-6, "split for %s", regime)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "non-positive price move threshold",
			mutate: func(c *Config) { c.Triggers.PriceMoveThreshold = 0 },
			want:   "PRICE_MOVE_THRESHOLD",
		},
		{
			name:   "volume threshold below one",
			mutate: func(c *Config) { c.Triggers.VolumeSpikeThreshold = 0.9 },
			want:   "VOLUME_SPIKE_THRESHOLD",
		},
		{
			name:   "inverted RSI thresholds",
			mutate: func(c *Config) { c.Triggers.RSIOversold = 80 },
			want:   "RSI_OVERSOLD",
		},
		{
			name:   "non-increasing volatility bands",
			mutate: func(c *Config) { c.Regime.NormalBelow = 40 },
			want:   "volatility bands",
		},
		{
			name: "split not summing to one",
			mutate: func(c *Config) {
				c.Regime.Splits[domain.RegimeNormal] = domain.MacroSplit{Equity: 0.5}
			},
			want: "macro split",
		},
		{
			name:   "inverted core band",
			mutate: func(c *Config) { c.Limits.CoreMin = 0.5 },
			want:   "CORE_MIN",
		},
		{
			name:   "negative commission",
			mutate: func(c *Config) { c.Trading.Commission = -1 },
			want:   "COMMISSION",
		},
		{
			name:   "zero fan-out",
			mutate: func(c *Config) { c.Scalpel.FanOutLimit = 0 },
			want:   "SCALPEL_FANOUT_LIMIT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENGINE_DATA_DIR", t.TempDir())
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
