package collector

import (
	"context"
	"hash/fnv"
	"time"

	"B3Sentinel/internal/model"
)

// MockFundamentals serves a fixed table, or Err when set.
type MockFundamentals struct {
	Label string
	Table RawTable
	Err   error
}

func (m *MockFundamentals) Name() string {
	if m.Label == "" {
		return "mock-fundamentals"
	}
	return m.Label
}

func (m *MockFundamentals) Fetch(ctx context.Context) (RawTable, error) {
	if err := ctx.Err(); err != nil {
		return RawTable{Source: m.Name()}, err
	}
	if m.Err != nil {
		return RawTable{Source: m.Name()}, m.Err
	}
	t := m.Table
	t.Source = m.Name()
	return t, nil
}

// MockHistory serves Bars for known tickers. With Generate set, unknown
// tickers get a deterministic synthetic series instead.
type MockHistory struct {
	Bars     map[string][]model.Bar
	Generate bool
	Err      error
	Calls    int
}

func (m *MockHistory) Name() string { return "mock-history" }

func (m *MockHistory) History(ctx context.Context, tickers []string, lookback string) (map[string][]model.Bar, error) {
	m.Calls++
	if err := ctx.Err(); err != nil {
		return map[string][]model.Bar{}, err
	}
	if m.Err != nil {
		return map[string][]model.Bar{}, m.Err
	}
	out := make(map[string][]model.Bar, len(tickers))
	for _, t := range tickers {
		if bars, ok := m.Bars[t]; ok {
			out[t] = bars
		} else if m.Generate {
			out[t] = SyntheticBars(t, syntheticCount(lookback))
		}
	}
	return out, nil
}

// MockQuotes serves fixed quotes keyed by normalized ticker.
type MockQuotes struct {
	Quotes map[string]Quote
	Err    error
}

func (m *MockQuotes) Name() string { return "mock-quotes" }

func (m *MockQuotes) Quote(_ context.Context, ticker string) (Quote, error) {
	if m.Err != nil {
		return Quote{}, m.Err
	}
	q, ok := m.Quotes[model.NormalizeTicker(ticker)]
	if !ok {
		return Quote{Ticker: model.NormalizeTicker(ticker)}, ErrEmptyValue
	}
	return q, nil
}

// BarsFromCloses builds a daily series ending today.
func BarsFromCloses(closes ...float64) []model.Bar {
	end := time.Now().Truncate(24 * time.Hour)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Date: end.AddDate(0, 0, i-len(closes)+1), Close: c}
	}
	return bars
}

// syntheticCount approximates the trading sessions in a lookback period.
func syntheticCount(lookback string) int {
	switch lookback {
	case "1y":
		return 252
	case "2y":
		return 504
	case "3mo":
		return 63
	case "1mo":
		return 21
	}
	return 126
}

// SyntheticBars returns a reproducible series whose drift depends on the ticker.
func SyntheticBars(ticker string, count int) []model.Bar {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	seed := h.Sum32()

	base := 5 + float64(seed%4000)/100
	drift := (float64(seed%31) - 12) / 10000
	closes := make([]float64, count)
	p := base
	for i := range closes {
		wobble := float64((seed>>uint(i%24))&7) - 3.5
		p *= 1 + drift + wobble/1000
		closes[i] = p
	}
	return BarsFromCloses(closes...)
}
