// Package universe defines the static catalog of tradable instruments.
package universe

import (
	"fmt"
	"sort"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// CashEquivalentSymbol is the designated cash-equivalent instrument. It is
// exempt from the overnight cash cap and is the sink for cash-bucket
// rebalancing.
const CashEquivalentSymbol = "SGOV"

// Catalog is the read-only instrument universe for a run.
type Catalog struct {
	bySymbol map[string]domain.Instrument
	symbols  []string // sorted, for deterministic iteration
}

// New builds a catalog from a set of instruments.
func New(instruments []domain.Instrument) *Catalog {
	bySymbol := make(map[string]domain.Instrument, len(instruments))
	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		if _, dup := bySymbol[inst.Symbol]; dup {
			continue
		}
		bySymbol[inst.Symbol] = inst
		symbols = append(symbols, inst.Symbol)
	}
	sort.Strings(symbols)
	return &Catalog{bySymbol: bySymbol, symbols: symbols}
}

// Default returns the standard 30-ETF core-satellite universe.
func Default() *Catalog {
	return New(defaultInstruments)
}

// Get returns the instrument for a symbol.
func (c *Catalog) Get(symbol string) (domain.Instrument, error) {
	inst, ok := c.bySymbol[symbol]
	if !ok {
		return domain.Instrument{}, fmt.Errorf("unknown symbol: %s", symbol)
	}
	return inst, nil
}

// Has reports whether the symbol is part of the universe.
func (c *Catalog) Has(symbol string) bool {
	_, ok := c.bySymbol[symbol]
	return ok
}

// Symbols returns all symbols in sorted order.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// Size returns the number of instruments in the universe.
func (c *Catalog) Size() int { return len(c.symbols) }

// DisplayName returns the instrument name, falling back to the symbol.
func (c *Catalog) DisplayName(symbol string) string {
	if inst, ok := c.bySymbol[symbol]; ok {
		return inst.Name
	}
	return symbol
}

// ByCategory returns sorted symbols belonging to a category.
func (c *Catalog) ByCategory(cat domain.Category) []string {
	var out []string
	for _, sym := range c.symbols {
		if c.bySymbol[sym].Category == cat {
			out = append(out, sym)
		}
	}
	return out
}

// ByAssetClass returns sorted symbols belonging to an asset class.
func (c *Catalog) ByAssetClass(class domain.AssetClass) []string {
	var out []string
	for _, sym := range c.symbols {
		if c.bySymbol[sym].AssetClass == class {
			out = append(out, sym)
		}
	}
	return out
}

// MacroBucket maps an instrument to the macro allocation bucket it counts
// toward. Commodities are grouped with equity as risk assets.
func MacroBucket(inst domain.Instrument) string {
	switch inst.AssetClass {
	case domain.AssetClassFixedIncome:
		return "fixed_income"
	case domain.AssetClassCashEquivalent:
		return "cash_equivalent"
	default:
		return "equity"
	}
}

// BucketSink returns the instrument that absorbs macro additions for a bucket.
func BucketSink(bucket string) string {
	switch bucket {
	case "fixed_income":
		return "AGG"
	case "cash_equivalent":
		return CashEquivalentSymbol
	default:
		return "IVV"
	}
}
