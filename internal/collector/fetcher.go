package collector

import (
	"context"

	"B3Sentinel/internal/model"
)

// RawRow is one table row keyed by the source's own column names.
type RawRow struct {
	Ticker string
	Fields map[string]string
}

// RawTable is an untyped fundamentals table exactly as the provider served it.
type RawTable struct {
	Source  string
	Columns []string
	Rows    []RawRow
}

// Len returns the number of rows.
func (t RawTable) Len() int { return len(t.Rows) }

// FundamentalsProvider fetches one fundamentals table (equities or funds).
type FundamentalsProvider interface {
	Fetch(ctx context.Context) (RawTable, error)
	Name() string
}

// HistoryProvider fetches daily closes for many tickers in one call.
// Tickers missing from the result have no usable history.
type HistoryProvider interface {
	History(ctx context.Context, tickers []string, lookback string) (map[string][]model.Bar, error)
	Name() string
}

// Quote is the snapshot used to price and classify a holding.
type Quote struct {
	Ticker        string
	Price         float64
	DividendYield float64
	Category      model.Category
	Sector        string
}

// QuoteProvider fetches a quote snapshot for a single ticker.
type QuoteProvider interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
	Name() string
}
