package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

func TestDefaultCatalogSize(t *testing.T) {
	c := Default()
	assert.Equal(t, 30, c.Size())
	assert.Len(t, c.Symbols(), 30)
}

func TestDefaultCatalogCategories(t *testing.T) {
	c := Default()
	assert.Len(t, c.ByCategory(domain.CategoryCore), 2)
	assert.Len(t, c.ByCategory(domain.CategoryMajorSatellite), 8)
	assert.Len(t, c.ByCategory(domain.CategoryTacticalSatellite), 16)
	assert.Len(t, c.ByCategory(domain.CategoryHedge), 4)
}

func TestCatalogGet(t *testing.T) {
	c := Default()

	inst, err := c.Get("IVV")
	require.NoError(t, err)
	assert.Equal(t, "iShares Core S&P 500 ETF", inst.Name)
	assert.Equal(t, domain.CategoryCore, inst.Category)
	assert.Equal(t, domain.AssetClassEquity, inst.AssetClass)

	_, err = c.Get("SPY")
	assert.Error(t, err)
	assert.False(t, c.Has("SPY"))
	assert.True(t, c.Has("SGOV"))
}

func TestCatalogSymbolsSorted(t *testing.T) {
	c := Default()
	syms := c.Symbols()
	for i := 1; i < len(syms); i++ {
		assert.Less(t, syms[i-1], syms[i])
	}
}

func TestCatalogDisplayName(t *testing.T) {
	c := Default()
	assert.Equal(t, "iShares Gold Trust", c.DisplayName("IAU"))
	assert.Equal(t, "XYZ", c.DisplayName("XYZ"))
}

func TestNewDeduplicates(t *testing.T) {
	c := New([]domain.Instrument{
		{Symbol: "AAA", Name: "first"},
		{Symbol: "AAA", Name: "second"},
	})
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, "first", c.DisplayName("AAA"))
}

func TestMacroBucket(t *testing.T) {
	tests := []struct {
		name   string
		class  domain.AssetClass
		bucket string
	}{
		{"equity", domain.AssetClassEquity, "equity"},
		{"fixed income", domain.AssetClassFixedIncome, "fixed_income"},
		{"cash equivalent", domain.AssetClassCashEquivalent, "cash_equivalent"},
		{"commodities count as equity", domain.AssetClassCommodities, "equity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MacroBucket(domain.Instrument{AssetClass: tt.class})
			assert.Equal(t, tt.bucket, got)
		})
	}
}

func TestBucketSink(t *testing.T) {
	assert.Equal(t, "AGG", BucketSink("fixed_income"))
	assert.Equal(t, "SGOV", BucketSink("cash_equivalent"))
	assert.Equal(t, "IVV", BucketSink("equity"))
}
