package model

import "strings"

// Category distinguishes listed equities from real-estate funds (FIIs).
type Category string

const (
	CategoryEquity Category = "equity"
	CategoryFund   Category = "fund"
)

// DefaultSector labels instruments the source did not classify.
const DefaultSector = "Geral"

// MarketSuffix is the Yahoo suffix for B3 listings.
const MarketSuffix = ".SA"

// Instrument is one normalized row of the fundamentals universe.
// It is built once per run and treated as read-only afterwards.
type Instrument struct {
	Ticker          string
	Category        Category
	Sector          string
	Price           float64
	Liquidity       float64
	DividendYield   float64
	PriceToBook     float64 // 0 means unknown
	PriceToEarnings float64 // <= 0 means loss-making
	ROE             float64
	ROIC            float64
	NetMargin       float64
	Growth5y        float64
	GrossDebt       float64
	NetEquity       float64
	IgnoreSolvency  bool
	EPS             float64
	BVPS            float64

	// Defaulted lists the fields that were missing or malformed and coerced to zero.
	Defaulted []string
}

// IsFund reports whether the instrument is a real-estate fund.
func (i Instrument) IsFund() bool { return i.Category == CategoryFund }

// Symbol returns the ticker without the market suffix, for display.
func (i Instrument) Symbol() string { return BaseTicker(i.Ticker) }

// NormalizeTicker upper-cases a ticker and enforces the .SA suffix.
func NormalizeTicker(t string) string {
	return BaseTicker(t) + MarketSuffix
}

// BaseTicker upper-cases a ticker and strips the .SA suffix.
func BaseTicker(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	return strings.TrimSuffix(t, MarketSuffix)
}
