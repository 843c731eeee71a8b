// Package symbols maps signal instrument names onto trading-venue terms:
// base-asset aliases, quote rewrites, tick precision and the venue symbol
// format.
package symbols

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultPrecision is used for instruments missing from the tick table.
const DefaultPrecision = 4

// Table holds the per-instrument lookup tables. All keys are upper-case base
// asset symbols. The tables ship in a standalone yaml file so that renames
// (delistings, thousand-denominated variants) never require a rebuild.
type Table struct {
	Exchange          string         `yaml:"exchange"`
	Aliases           map[string]string `yaml:"aliases"`
	Quotes            map[string]string `yaml:"quotes"` // accepted quote -> tradable quote
	Precision         map[string]int    `yaml:"precision"`
	FallbackPrecision int               `yaml:"fallback_precision"`
	LeverageCaps      map[string]int    `yaml:"leverage_caps"`
}

// Load reads the symbol table file and normalizes its keys.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read symbol table")
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrap(err, "decode symbol table")
	}
	if t.Exchange == "" {
		return nil, errors.New("symbol table: exchange is required")
	}
	t.normalize()
	return &t, nil
}

// Default returns the table used when no file is configured.
func Default(exchange string) *Table {
	t := &Table{
		Exchange: exchange,
		Aliases: map[string]string{
			"LUNA": "LUNA2",
			"SHIB": "1000SHIB",
		},
		Quotes: map[string]string{
			"USD":  "USDT",
			"USDT": "USDT",
		},
		Precision: map[string]int{
			"SHIB": 8, "1000SHIB": 8, "DOGE": 5, "XRP": 4, "SOL": 2, "AVAX": 3,
			"AAVE": 2, "LINK": 3, "BTC": 2, "ETH": 2, "BNB": 2, "LTC": 2,
			"ADA": 5, "MATIC": 5, "EOS": 4, "BCH": 2, "ATOM": 3, "ALGO": 5,
			"LUNA2": 3,
		},
		FallbackPrecision: DefaultPrecision,
	}
	t.normalize()
	return t
}

func (t *Table) normalize() {
	if t.FallbackPrecision <= 0 {
		t.FallbackPrecision = DefaultPrecision
	}
	t.Aliases = upperKeys(t.Aliases)
	t.Quotes = upperKeys(t.Quotes)
	up := make(map[string]int, len(t.Precision))
	for k, v := range t.Precision {
		up[strings.ToUpper(k)] = v
	}
	t.Precision = up
	caps := make(map[string]int, len(t.LeverageCaps))
	for k, v := range t.LeverageCaps {
		caps[strings.ToUpper(k)] = v
	}
	t.LeverageCaps = caps
}

func upperKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return out
}

// NormalizeBase applies the alias table to a base asset symbol.
func (t *Table) NormalizeBase(base string) string {
	base = strings.ToUpper(base)
	if alias, ok := t.Aliases[base]; ok {
		return alias
	}
	return base
}

// RewriteQuote maps an accepted quote asset onto its tradable form.
// ok is false when the quote is not in the accepted set.
func (t *Table) RewriteQuote(quote string) (string, bool) {
	q, ok := t.Quotes[strings.ToUpper(quote)]
	return q, ok
}

// LeverageCap returns the per-instrument leverage cap, if one is configured.
func (t *Table) LeverageCap(instrument string) (int, bool) {
	lc, ok := t.LeverageCaps[strings.ToUpper(instrument)]
	return lc, ok
}

// TradingSymbol builds the venue identifier. The EXCHANGE_QUOTE_BASE format
// is a hard external contract; ordering and casing must not change.
func (t *Table) TradingSymbol(quote, base string) string {
	return fmt.Sprintf("%s_%s_%s", t.Exchange, strings.ToUpper(quote), strings.ToUpper(base))
}
