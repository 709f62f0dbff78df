package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

func newTestHistory(fn downloadFunc) *YahooHistory {
	cfg := config.Default().Providers
	cfg.Timeout = time.Second
	h := NewYahooHistory(cfg, zerolog.Nop())
	h.download = fn
	h.retry = fastRetry(1)
	return h
}

func TestYahooHistory_Batch(t *testing.T) {
	var requested []string
	h := newTestHistory(func(symbols []string, period string) (map[string][]model.Bar, map[string]error, error) {
		requested = symbols
		assert.Equal(t, "6mo", period)
		return map[string][]model.Bar{
			"PETR4.SA": BarsFromCloses(10, 11),
		}, map[string]error{"XXXX3.SA": errors.New("delisted")}, nil
	})

	got, err := h.History(context.Background(), []string{"PETR4.SA", "XXXX3.SA"}, "6mo")
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4.SA", "XXXX3.SA"}, requested)
	assert.Len(t, got["PETR4.SA"], 2)
	assert.NotContains(t, got, "XXXX3.SA")
}

func TestYahooHistory_RekeysSingleTicker(t *testing.T) {
	h := newTestHistory(func(symbols []string, _ string) (map[string][]model.Bar, map[string]error, error) {
		return map[string][]model.Bar{"petr4.sa": BarsFromCloses(1, 2, 3)}, nil, nil
	})
	got, err := h.History(context.Background(), []string{"PETR4.SA"}, "6mo")
	require.NoError(t, err)
	assert.Len(t, got["PETR4.SA"], 3)
}

func TestYahooHistory_FailureIsEmpty(t *testing.T) {
	calls := 0
	h := newTestHistory(func([]string, string) (map[string][]model.Bar, map[string]error, error) {
		calls++
		return nil, nil, errors.New("rate limited")
	})
	got, err := h.History(context.Background(), []string{"A.SA", "B.SA"}, "6mo")
	assert.ErrorContains(t, err, "rate limited")
	assert.Empty(t, got)
	assert.Equal(t, 2, calls)
}

func TestYahooHistory_TimeoutAbandonsCall(t *testing.T) {
	h := newTestHistory(func([]string, string) (map[string][]model.Bar, map[string]error, error) {
		time.Sleep(200 * time.Millisecond)
		return map[string][]model.Bar{"A.SA": BarsFromCloses(1)}, nil, nil
	})
	h.timeout = 20 * time.Millisecond
	h.retry = fastRetry(0)

	got, err := h.History(context.Background(), []string{"A.SA", "B.SA"}, "6mo")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, got)
}

func TestYahooQuotes_PriceFallbacks(t *testing.T) {
	cfg := config.Default().Providers
	tests := []struct {
		name      string
		info      yahooInfo
		infoErr   error
		history   *MockHistory
		wantPrice float64
		wantErr   bool
	}{
		{"current price", yahooInfo{CurrentPrice: 10, PreviousClose: 9}, nil, nil, 10, false},
		{"previous close", yahooInfo{PreviousClose: 9}, nil, nil, 9, false},
		{"history close", yahooInfo{}, errors.New("404"), &MockHistory{Bars: map[string][]model.Bar{"PETR4.SA": BarsFromCloses(7, 8)}}, 8, false},
		{"nothing", yahooInfo{}, errors.New("404"), &MockHistory{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hp HistoryProvider
			if tt.history != nil {
				hp = tt.history
			}
			q := NewYahooQuotes(cfg, hp, zerolog.Nop())
			q.retry = fastRetry(0)
			q.info = func(sym string) (yahooInfo, error) {
				assert.Equal(t, "PETR4.SA", sym)
				return tt.info, tt.infoErr
			}
			got, err := q.Quote(context.Background(), "petr4")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, got.Price)
		})
	}
}

func TestYahooQuotes_Classification(t *testing.T) {
	q := NewYahooQuotes(config.Default().Providers, nil, zerolog.Nop())
	q.info = func(string) (yahooInfo, error) {
		return yahooInfo{CurrentPrice: 10, DividendYield: 12.5, QuoteType: "MUTUALFUND", Industry: "real estate"}, nil
	}
	got, err := q.Quote(context.Background(), "MXRF11.SA")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryFund, got.Category)
	assert.InDelta(t, 0.125, got.DividendYield, 1e-9)
	assert.Equal(t, "Real Estate", got.Sector)
}

func TestClassifyQuote(t *testing.T) {
	assert.Equal(t, model.CategoryFund, ClassifyQuote("HGLG11.SA", ""))
	assert.Equal(t, model.CategoryEquity, ClassifyQuote("TAEE11.SA", "EQUITY"))
	assert.Equal(t, model.CategoryEquity, ClassifyQuote("BOVA11.SA", "etf"))
	assert.Equal(t, model.CategoryEquity, ClassifyQuote("PETR4.SA", "MUTUALFUND"))
}

func TestNormalizeYield(t *testing.T) {
	assert.Equal(t, 0.08, NormalizeYield(0.08))
	assert.Equal(t, 1.5, NormalizeYield(1.5))
	assert.InDelta(t, 0.085, NormalizeYield(8.5), 1e-9)
}

func TestSectorLabel(t *testing.T) {
	assert.Equal(t, "Outros", sectorLabel(" "))
	assert.Equal(t, "Utilities Regulated Electric", sectorLabel("UTILITIES regulated electric"))
}
