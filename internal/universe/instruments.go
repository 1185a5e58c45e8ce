package universe

import "github.com/holiuunc/etf-justification-engine/internal/domain"

// defaultInstruments is the 30-ETF core-satellite universe: two core
// holdings, eight major satellites for macro themes, sixteen tactical
// satellites for sector bets, and four hedging instruments.
var defaultInstruments = []domain.Instrument{
	// Core
	{Symbol: "IVV", Name: "iShares Core S&P 500 ETF", Category: domain.CategoryCore, Sector: "Broad Market", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0003},
	{Symbol: "AGG", Name: "iShares Core U.S. Aggregate Bond ETF", Category: domain.CategoryCore, Sector: "Fixed Income", Geography: "US", AssetClass: domain.AssetClassFixedIncome, ExpenseRatio: 0.0003},

	// Major satellites
	{Symbol: "IEMG", Name: "iShares Core MSCI Emerging Markets ETF", Category: domain.CategoryMajorSatellite, Sector: "Broad Market", Geography: "Emerging Markets", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0009},
	{Symbol: "IJR", Name: "iShares Core S&P Small-Cap ETF", Category: domain.CategoryMajorSatellite, Sector: "Small Cap", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0006},
	{Symbol: "IJH", Name: "iShares Core S&P Mid-Cap ETF", Category: domain.CategoryMajorSatellite, Sector: "Mid Cap", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0005},
	{Symbol: "IUSG", Name: "iShares Core S&P U.S. Growth ETF", Category: domain.CategoryMajorSatellite, Sector: "Growth", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0004},
	{Symbol: "IYW", Name: "iShares U.S. Technology ETF", Category: domain.CategoryMajorSatellite, Sector: "Technology", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IEV", Name: "iShares Europe ETF", Category: domain.CategoryMajorSatellite, Sector: "Broad Market", Geography: "Europe", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0059},
	{Symbol: "TLT", Name: "iShares 20+ Year Treasury Bond ETF", Category: domain.CategoryMajorSatellite, Sector: "Government Bonds", Geography: "US", AssetClass: domain.AssetClassFixedIncome, ExpenseRatio: 0.0015},
	{Symbol: "LQD", Name: "iShares iBoxx $ Investment Grade Corporate Bond ETF", Category: domain.CategoryMajorSatellite, Sector: "Corporate Bonds", Geography: "US", AssetClass: domain.AssetClassFixedIncome, ExpenseRatio: 0.0014},

	// Tactical satellites
	{Symbol: "ITA", Name: "iShares U.S. Aerospace & Defense ETF", Category: domain.CategoryTacticalSatellite, Sector: "Aerospace", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "MCHI", Name: "iShares MSCI China ETF", Category: domain.CategoryTacticalSatellite, Sector: "Broad Market", Geography: "China", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0059},
	{Symbol: "IBB", Name: "iShares Biotechnology ETF", Category: domain.CategoryTacticalSatellite, Sector: "Biotechnology", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0044},
	{Symbol: "IYF", Name: "iShares U.S. Financials ETF", Category: domain.CategoryTacticalSatellite, Sector: "Financials", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "EWC", Name: "iShares MSCI Canada ETF", Category: domain.CategoryTacticalSatellite, Sector: "Broad Market", Geography: "Canada", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0047},
	{Symbol: "IFRA", Name: "iShares U.S. Infrastructure ETF", Category: domain.CategoryTacticalSatellite, Sector: "Infrastructure", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0030},
	{Symbol: "IYH", Name: "iShares U.S. Healthcare ETF", Category: domain.CategoryTacticalSatellite, Sector: "Healthcare", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYG", Name: "iShares U.S. Financial Services ETF", Category: domain.CategoryTacticalSatellite, Sector: "Financial Services", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYJ", Name: "iShares U.S. Industrials ETF", Category: domain.CategoryTacticalSatellite, Sector: "Industrials", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYC", Name: "iShares U.S. Consumer Discretionary ETF", Category: domain.CategoryTacticalSatellite, Sector: "Consumer Discretionary", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYK", Name: "iShares U.S. Consumer Staples ETF", Category: domain.CategoryTacticalSatellite, Sector: "Consumer Staples", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYE", Name: "iShares U.S. Energy ETF", Category: domain.CategoryTacticalSatellite, Sector: "Energy", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYZ", Name: "iShares U.S. Telecommunications ETF", Category: domain.CategoryTacticalSatellite, Sector: "Telecommunications", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "MBB", Name: "iShares MBS ETF", Category: domain.CategoryTacticalSatellite, Sector: "Mortgage-Backed Securities", Geography: "US", AssetClass: domain.AssetClassFixedIncome, ExpenseRatio: 0.0004},
	{Symbol: "IYR", Name: "iShares U.S. Real Estate ETF", Category: domain.CategoryTacticalSatellite, Sector: "Real Estate", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},
	{Symbol: "IYT", Name: "iShares U.S. Transportation ETF", Category: domain.CategoryTacticalSatellite, Sector: "Transportation", Geography: "US", AssetClass: domain.AssetClassEquity, ExpenseRatio: 0.0039},

	// Hedging
	{Symbol: "SGOV", Name: "iShares 0-3 Month Treasury Bond ETF", Category: domain.CategoryHedge, Sector: "Cash Equivalent", Geography: "US", AssetClass: domain.AssetClassCashEquivalent, ExpenseRatio: 0.0005},
	{Symbol: "TIP", Name: "iShares TIPS Bond ETF", Category: domain.CategoryHedge, Sector: "Inflation-Protected", Geography: "US", AssetClass: domain.AssetClassFixedIncome, ExpenseRatio: 0.0019},
	{Symbol: "IAU", Name: "iShares Gold Trust", Category: domain.CategoryHedge, Sector: "Gold", Geography: "Global", AssetClass: domain.AssetClassCommodities, ExpenseRatio: 0.0025},
	{Symbol: "GSG", Name: "iShares S&P GSCI Commodity-Indexed Trust", Category: domain.CategoryHedge, Sector: "Commodities", Geography: "Global", AssetClass: domain.AssetClassCommodities, ExpenseRatio: 0.0075},
}
