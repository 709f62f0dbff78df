package enrich

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/valuation"
)

func inst(ticker string, eps, bvps float64) model.Instrument {
	return model.Instrument{Ticker: ticker, Category: model.CategoryEquity, Price: 10, EPS: eps, BVPS: bvps}
}

func TestEnrich_DropsAndKeepsOrder(t *testing.T) {
	history := &collector.MockHistory{Bars: map[string][]model.Bar{
		"AAAA3.SA": collector.BarsFromCloses(10, 11, 12),
		"BBBB3.SA": collector.BarsFromCloses(10, math.NaN()),
		"CCCC3.SA": collector.BarsFromCloses(100, 150),
		"DDDD3.SA": collector.BarsFromCloses(20, 18),
	}}
	in := []model.Instrument{
		inst("AAAA3.SA", 1, 10),
		inst("BBBB3.SA", 1, 10),
		inst("CCCC3.SA", 1, 10),
		inst("DDDD3.SA", -1, 10),
		inst("EEEE3.SA", 1, 10),
	}

	res := New(history, zerolog.Nop()).Enrich(context.Background(), in, Options{Lookback: "6mo", Capital: 100, Parallelism: 2})

	require.NoError(t, res.HistoryErr)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, 1, history.Calls, "single batch call")

	a, d := res.Candidates[0], res.Candidates[1]
	assert.Equal(t, "AAAA3.SA", a.Ticker)
	assert.Equal(t, 12.0, a.Price)
	assert.InDelta(t, 0.2, a.Momentum, 1e-9)
	assert.True(t, a.ValueDefined)
	assert.InDelta(t, 12/math.Sqrt(22.5*10), a.MarginRatio, 1e-9)

	assert.Equal(t, "DDDD3.SA", d.Ticker)
	assert.InDelta(t, -0.1, d.Momentum, 1e-9)
	assert.False(t, d.ValueDefined)
	assert.Equal(t, valuation.UndefinedMargin, d.MarginRatio)

	assert.Equal(t, 10.0, in[0].Price, "input not mutated")
}

func TestEnrich_MomentumBars(t *testing.T) {
	history := &collector.MockHistory{Bars: map[string][]model.Bar{
		"AAAA3.SA": collector.BarsFromCloses(5, 10, 11),
	}}
	res := New(history, zerolog.Nop()).Enrich(context.Background(),
		[]model.Instrument{inst("AAAA3.SA", 1, 1)}, Options{MomentumBars: 2})
	require.Len(t, res.Candidates, 1)
	assert.InDelta(t, 0.1, res.Candidates[0].Momentum, 1e-9)
}

func TestEnrich_HistoryFailureDropsAll(t *testing.T) {
	history := &collector.MockHistory{Err: errors.New("yahoo down")}
	res := New(history, zerolog.Nop()).Enrich(context.Background(),
		[]model.Instrument{inst("A.SA", 1, 1), inst("B.SA", 1, 1)}, Options{})
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 2, res.Dropped)
	assert.ErrorContains(t, res.HistoryErr, "yahoo down")
}

func TestEnrich_Empty(t *testing.T) {
	history := &collector.MockHistory{}
	res := New(history, zerolog.Nop()).Enrich(context.Background(), nil, Options{})
	assert.Empty(t, res.Candidates)
	assert.Zero(t, history.Calls)
}
