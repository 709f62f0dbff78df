package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

func fundTable(rows ...[]string) collector.RawTable {
	t := collector.RawTable{Columns: collector.FundColumns}
	for _, r := range rows {
		fields := make(map[string]string, len(r))
		for i, c := range collector.FundColumns {
			fields[c] = r[i]
		}
		t.Rows = append(t.Rows, collector.RawRow{Ticker: r[0], Fields: fields})
	}
	return t
}

var (
	strongFund = []string{"AAAA11", "Papel", "10,00", "11,00%", "12,00%", "0,80", "1.000.000", "500.000,00", "0", "0", "0", "0", "0"}
	weakFund   = []string{"BBBB11", "Lajes", "20,00", "6,00%", "7,00%", "1,25", "1.000.000", "500.000,00", "0", "0", "0", "0", "0"}
)

func newPipeline(t *testing.T, equities, funds collector.FundamentalsProvider, history collector.HistoryProvider, quotes collector.QuoteProvider) *Pipeline {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	return New(cfg, Providers{Equities: equities, Funds: funds, History: history, Quotes: quotes}, zerolog.Nop())
}

func history() *collector.MockHistory {
	return &collector.MockHistory{Bars: map[string][]model.Bar{
		"AAAA11.SA": collector.BarsFromCloses(9.25, 9.6, 10),
		"BBBB11.SA": collector.BarsFromCloses(20, 20),
	}}
}

func TestScreen_EmptyProvidersIsNoCandidates(t *testing.T) {
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities"},
		&collector.MockFundamentals{Label: "funds", Err: errors.New("status 503")},
		history(), nil)

	res, err := p.Screen(context.Background(), 1000)
	require.ErrorIs(t, err, ErrNoCandidates)
	assert.Empty(t, res.Plan.Orders)
	assert.True(t, res.Plan.NoEligible)
	assert.Equal(t, 1000.0, res.Plan.Leftover)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "funds", res.Diagnostics[0].Provider)
	assert.NotEmpty(t, res.RunID)
}

func TestScreen_PicksTopAndSizesOrder(t *testing.T) {
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities", Err: errors.New("timeout")},
		&collector.MockFundamentals{Label: "funds", Table: fundTable(strongFund, weakFund)},
		history(), nil)

	res, err := p.Screen(context.Background(), 105)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parsed)
	assert.Equal(t, 2, res.Eligible)
	require.Len(t, res.Ranked, 1)

	top := res.Plan.TopPick
	require.NotNil(t, top)
	assert.Equal(t, "AAAA11", top.Symbol())
	assert.InDelta(t, 6.5, top.Score, 1e-9)
	assert.Equal(t, model.ProfileExceptional, top.Profile)

	require.Len(t, res.Plan.Orders, 1)
	assert.Equal(t, 10, res.Plan.Orders[0].Quantity)
	assert.InDelta(t, 5.0, res.Plan.Leftover, 1e-9)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "equities", res.Diagnostics[0].Provider)
}

func TestScreenBasket_SpreadsCash(t *testing.T) {
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities"},
		&collector.MockFundamentals{Label: "funds", Table: fundTable(strongFund, weakFund)},
		history(), nil)

	res, err := p.ScreenBasket(context.Background(), 105)
	require.NoError(t, err)
	assert.True(t, res.Basket)
	require.Len(t, res.Plan.Orders, 1)
	assert.Equal(t, "AAAA11.SA", res.Plan.Orders[0].Ticker)
	assert.Equal(t, 1, res.Plan.Orders[0].Quantity)
	assert.InDelta(t, 95.0, res.Plan.Leftover, 1e-9)
}

func TestScreen_NoneQualified(t *testing.T) {
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities"},
		&collector.MockFundamentals{Label: "funds", Table: fundTable(weakFund)},
		history(), nil)

	res, err := p.Screen(context.Background(), 1000)
	require.ErrorIs(t, err, ErrNoneQualified)
	assert.Empty(t, res.Ranked)
	assert.True(t, res.Plan.NoEligible)
	assert.Empty(t, res.Plan.Orders)
}

func TestScreen_HistoryFailureIsDiagnosed(t *testing.T) {
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities"},
		&collector.MockFundamentals{Label: "funds", Table: fundTable(strongFund)},
		&collector.MockHistory{Err: errors.New("rate limited")}, nil)

	res, err := p.Screen(context.Background(), 1000)
	require.ErrorIs(t, err, ErrNoCandidates)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "mock-history", res.Diagnostics[0].Provider)
}

func TestRebalance_FallsBackToQualifiedPool(t *testing.T) {
	quotes := &collector.MockQuotes{Quotes: map[string]collector.Quote{
		"AAAA11.SA": {Ticker: "AAAA11.SA", Price: 10, DividendYield: 0.12, Category: model.CategoryFund, Sector: "Outros"},
	}}
	p := newPipeline(t, nil, nil, history(), quotes)

	res, err := p.Rebalance(context.Background(), []model.Holding{{Ticker: "aaaa11", Quantity: 10}}, 50, false)
	require.NoError(t, err)
	require.Len(t, res.Holdings, 1)
	assert.Equal(t, 10.0, res.Holdings[0].Price)
	require.Len(t, res.Held, 1)
	// three bars are shorter than the rebalance window: no momentum points
	assert.Zero(t, res.Held[0].Momentum)
	assert.InDelta(t, 2.5, res.Held[0].Score, 1e-9)

	plan := res.Plan
	assert.InDelta(t, 150.0, plan.TotalValue, 1e-9)
	assert.Equal(t, model.BucketGrowth, plan.Priority)
	require.Len(t, plan.Orders, 1)
	assert.Equal(t, 5, plan.Orders[0].Quantity)
	assert.InDelta(t, 0.0, plan.Leftover, 1e-9)
}

func TestRebalance_EmptyPortfolioNoCash(t *testing.T) {
	p := newPipeline(t, nil, nil, history(), &collector.MockQuotes{})

	res, err := p.Rebalance(context.Background(), nil, 0, false)
	require.NoError(t, err)
	assert.True(t, res.Plan.NoEligible)
	assert.Empty(t, res.Plan.Orders)
	for _, b := range res.Plan.Buckets {
		assert.Zero(t, b.CurrentPct)
	}
}

func TestRebalance_UnpricedHoldingIsDiagnosed(t *testing.T) {
	p := newPipeline(t, nil, nil, history(), &collector.MockQuotes{})

	res, err := p.Rebalance(context.Background(), []model.Holding{{Ticker: "ZZZZ3", Quantity: 5}}, 0, false)
	require.NoError(t, err)
	assert.Empty(t, res.Holdings)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "mock-quotes", res.Diagnostics[0].Provider)
}

func TestRebalance_DiscoverAddsMarketCandidates(t *testing.T) {
	quotes := &collector.MockQuotes{Quotes: map[string]collector.Quote{
		"BBBB11.SA": {Ticker: "BBBB11.SA", Price: 20, DividendYield: 0.07, Category: model.CategoryFund},
	}}
	p := newPipeline(t,
		&collector.MockFundamentals{Label: "equities"},
		&collector.MockFundamentals{Label: "funds", Table: fundTable(strongFund, weakFund)},
		history(), quotes)

	res, err := p.Rebalance(context.Background(), []model.Holding{{Ticker: "BBBB11", Quantity: 1}}, 100, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Discovered)
	require.NotEmpty(t, res.Plan.Orders)
	assert.Equal(t, "AAAA11.SA", res.Plan.Orders[0].Ticker)
}
