package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
)

func TestDefaultTableNormalization(t *testing.T) {
	tbl := Default("BIFU")

	assert.Equal(t, "LUNA2", tbl.NormalizeBase("LUNA"))
	assert.Equal(t, "1000SHIB", tbl.NormalizeBase("shib"))
	assert.Equal(t, "SOL", tbl.NormalizeBase("SOL")) // unknown bases pass through

	q, ok := tbl.RewriteQuote("USD")
	require.True(t, ok)
	assert.Equal(t, "USDT", q)

	q, ok = tbl.RewriteQuote("USDT")
	require.True(t, ok)
	assert.Equal(t, "USDT", q)

	_, ok = tbl.RewriteQuote("BTC")
	assert.False(t, ok)
}

func TestTradingSymbolFormat(t *testing.T) {
	tbl := Default("BIFU")

	assert.Equal(t, "BIFU_USDT_SOL", tbl.TradingSymbol("USDT", "SOL"))
	assert.Equal(t, "BIFU_USDT_1000SHIB", tbl.TradingSymbol("USDT", "1000SHIB"))
}

func TestPrecisionLookup(t *testing.T) {
	tbl := Default("BIFU")

	assert.Equal(t, 2, tbl.PrecisionFor("SOL"))
	assert.Equal(t, 8, tbl.PrecisionFor("SHIB"))
	assert.Equal(t, DefaultPrecision, tbl.PrecisionFor("NEVERHEARDOFIT"))
}

func TestRoundTick(t *testing.T) {
	tbl := Default("BIFU")

	assert.Equal(t, 123.46, tbl.RoundTick("SOL", 123.456))   // 2 decimals
	assert.Equal(t, 0.1235, tbl.RoundTick("UNKNOWN", 0.12345678)) // fallback 4

	// banker's rounding on the midpoint
	assert.Equal(t, 0.12, tbl.RoundTick("SOL", 0.125))
	assert.Equal(t, 0.14, tbl.RoundTick("SOL", 0.135))
}

func TestRoundLevelsRoundsAllFour(t *testing.T) {
	tbl := Default("BIFU")
	sig := models.Signal{
		Side: models.SideLong, Instrument: "SOL",
		Entry: 100.1234, TakeProfit1: 105.5678, TakeProfit2: 110.9999, StopLoss: 95.0049,
	}

	out := tbl.RoundLevels(sig)
	assert.Equal(t, 100.12, out.Entry)
	assert.Equal(t, 105.57, out.TakeProfit1)
	assert.Equal(t, 111.0, out.TakeProfit2)
	assert.Equal(t, 95.0, out.StopLoss)
}

func TestLoadTableFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
exchange: BIFU
aliases:
  LUNA: LUNA2
quotes:
  USD: USDT
  USDT: USDT
precision:
  SOL: 2
fallback_precision: 4
leverage_caps:
  LUNA2: 25
`), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "LUNA2", tbl.NormalizeBase("luna"))
	assert.Equal(t, 2, tbl.PrecisionFor("SOL"))

	lc, ok := tbl.LeverageCap("LUNA2")
	require.True(t, ok)
	assert.Equal(t, 25, lc)
}

func TestLoadTableRequiresExchange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases: {}\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
