package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
)

// writeConfig drops a yaml file where NewConfig will pick it up and points
// CONFIG_FILE at it.
func writeConfig(t *testing.T, yaml string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "values_test.yaml"), []byte(yaml), 0o644))
	t.Setenv("CONFIG_FILE", "values_test.yaml")
}

func TestDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "does_not_exist.yaml")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "signal_bridge", cfg.Service.Name)
	assert.Equal(t, 80.0, cfg.Risk.SafetyPct)
	assert.Equal(t, 75, cfg.Risk.MaxLeverage)
	assert.Equal(t, []int{20, 80}, cfg.Order.TakeProfitSplit)
	assert.Equal(t, 15, cfg.Order.ExpirationMinutes)
	assert.Equal(t, "limit", cfg.Touch.OrderType)
	assert.Equal(t, "off", cfg.Basis.Mode)
	assert.Equal(t, time.Minute, cfg.PollBase())
	assert.Equal(t, 3*time.Second, cfg.PollOffset())
	assert.Equal(t, 15*time.Minute, cfg.TouchMaxWait())
	assert.Equal(t, 5*time.Second, cfg.TouchPollInterval())
}

func TestFileOverridesDefaults(t *testing.T) {
	writeConfig(t, `
risk:
  safety_pct: 60
  max_leverage: 20
touch:
  order_type: market
  max_wait_seconds: 120
  poll_interval_seconds: 2
  tolerance_pct: 0.1
basis:
  mode: adjust
  clamp_pct: 0.3
`)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Risk.SafetyPct)
	assert.Equal(t, 20, cfg.Risk.MaxLeverage)
	assert.Equal(t, "market", cfg.Touch.OrderType)
	assert.Equal(t, 2*time.Minute, cfg.TouchMaxWait())
	assert.Equal(t, "adjust", cfg.Basis.Mode)
}

func TestSecretsComeFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "does_not_exist.yaml")
	t.Setenv("DISCORD_TOKEN", "d-token")
	t.Setenv("GATEWAY_API_KEY", "g-key")
	t.Setenv("GATEWAY_API_SECRET", "g-secret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "d-token", cfg.Discord.Token)
	assert.Equal(t, "g-key", cfg.Gateway.APIKey)
	assert.Equal(t, "g-secret", cfg.Gateway.APISecret)
}

func TestValidateRejectsBadSplit(t *testing.T) {
	writeConfig(t, `
order:
  take_profit_split: [30, 80]
`)

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "take_profit_split")
}

func TestValidateRejectsBadTouchOrderType(t *testing.T) {
	writeConfig(t, `
touch:
  order_type: stop
`)

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_type")
}

func TestValidateRejectsBadBasisMode(t *testing.T) {
	writeConfig(t, `
basis:
  mode: sideways
`)

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "basis.mode")
}

func TestValidateRejectsBadKeywordSide(t *testing.T) {
	writeConfig(t, `
signals:
  keywords:
    PUMP: upward
`)

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords")
}

func TestSideKeywordsUppercased(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "does_not_exist.yaml")

	cfg, err := NewConfig()
	require.NoError(t, err)

	kws := cfg.SideKeywords()
	assert.Equal(t, models.SideLong, kws["BUY"])
	assert.Equal(t, models.SideShort, kws["SELL"])
}
