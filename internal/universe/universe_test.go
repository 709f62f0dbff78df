package universe

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

func table(cols []string, rows ...[]string) collector.RawTable {
	t := collector.RawTable{Source: "test", Columns: cols}
	for _, r := range rows {
		f := make(map[string]string)
		for i, c := range cols {
			if i < len(r) {
				f[c] = r[i]
			}
		}
		t.Rows = append(t.Rows, collector.RawRow{Ticker: r[0], Fields: f})
	}
	return t
}

func incomeBuilder() *Builder {
	return NewBuilder(config.Default().Universe, zerolog.Nop())
}

func TestCleanColumn(t *testing.T) {
	tests := map[string]string{
		"Cotação":           "cotacao",
		"Div.Yield":         "divyield",
		"Liq.2meses":        "liq2meses",
		"Patrim. Líq":       "patrimliq",
		"Dív.Brut/ Patrim.": "divbrutpatrim",
		"Cresc. Rec.5a":     "crescrec5a",
		"Mrg. Líq.":         "mrgliq",
		"Vacância_Média":    "vacanciamedia",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanColumn(in), in)
	}
}

func TestCanonicalField(t *testing.T) {
	tests := map[string]string{
		"Cotação":           FieldPrice,
		"P/L":               FieldPE,
		"P/VP":              FieldPB,
		"Div.Yield":         FieldDY,
		"Dividend Yield":    FieldDY,
		"Liq.2meses":        FieldLiquidity,
		"Liquidez":          FieldLiquidity,
		"Patrim. Líq":       FieldNetEquity,
		"Dív.Brut/ Patrim.": FieldGrossDebtRatio,
		"Mrg. Líq.":         FieldNetMargin,
		"ROE":               FieldROE,
		"ROIC":              FieldROIC,
		"Cresc. Rec.5a":     FieldGrowth5y,
		"Segmento":          FieldSector,
		"Papel":             "",
		"FFO Yield":         "",
		"EV/EBITDA":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalField(in), in)
	}
}

func TestMapColumns_FirstWins(t *testing.T) {
	mapping, dups := MapColumns([]string{"Papel", "Liq.2meses", "Liquidez", "Cotação"})
	assert.Equal(t, "Liq.2meses", mapping[FieldLiquidity])
	assert.Equal(t, "Cotação", mapping[FieldPrice])
	assert.Equal(t, []string{"Liquidez"}, dups)
}

func TestNormalize_EquityRow(t *testing.T) {
	cols := []string{"Papel", "Cotação", "P/L", "P/VP", "Div.Yield", "ROE", "Liq.2meses", "Patrim. Líq", "Dív.Brut/ Patrim."}
	raw := table(cols, []string{"petr4", "30,00", "5,00", "1,50", "10,00%", "20,00%", "1.000.000,00", "500,00", "0,50"})

	got := incomeBuilder().Normalize(raw, model.CategoryEquity)
	require.Len(t, got, 1)
	inst := got[0]

	assert.Equal(t, "PETR4.SA", inst.Ticker)
	assert.Equal(t, "PETR4", inst.Symbol())
	assert.Equal(t, model.DefaultSector, inst.Sector)
	assert.Equal(t, 30.0, inst.Price)
	assert.InDelta(t, 0.10, inst.DividendYield, 1e-9)
	assert.InDelta(t, 0.20, inst.ROE, 1e-9)
	assert.InDelta(t, 6.0, inst.EPS, 1e-9)
	assert.InDelta(t, 20.0, inst.BVPS, 1e-9)
	assert.InDelta(t, 250.0, inst.GrossDebt, 1e-9)
	assert.False(t, inst.IgnoreSolvency)
	assert.Empty(t, inst.Defaulted)
}

func TestNormalize_MalformedFieldsAreAudited(t *testing.T) {
	cols := []string{"Papel", "Cotação", "P/L", "Div.Yield"}
	raw := table(cols, []string{"ABCD3", "12,00", "n/a", ""})

	got := incomeBuilder().Normalize(raw, model.CategoryEquity)
	require.Len(t, got, 1)
	assert.Equal(t, []string{FieldDY, FieldPE}, got[0].Defaulted)
	assert.Zero(t, got[0].DividendYield)
	assert.Zero(t, got[0].EPS)
}

func TestNormalize_SolvencyRecovery(t *testing.T) {
	cols := []string{"Papel", "Cotação", "Dív.Brut/ Patrim."}
	got := incomeBuilder().Normalize(table(cols, []string{"ABCD3", "10,00", "2,00"}), model.CategoryEquity)
	require.Len(t, got, 1)
	assert.True(t, got[0].IgnoreSolvency)
	assert.Equal(t, 1.0, got[0].NetEquity)
	assert.Equal(t, 2.0, got[0].GrossDebt)
}

func TestNormalize_PercentScaleHeuristic(t *testing.T) {
	cols := []string{"Papel", "Cotação", "DY"}
	raw := table(cols,
		[]string{"AAAA3", "10,00", "8,00"},
		[]string{"BBBB3", "10,00", "12,00"},
	)
	got := incomeBuilder().Normalize(raw, model.CategoryEquity)
	assert.InDelta(t, 0.08, got[0].DividendYield, 1e-9)
	assert.InDelta(t, 0.12, got[1].DividendYield, 1e-9)

	// fractions stay untouched
	raw = table(cols, []string{"AAAA3", "10,00", "0,08"})
	got = incomeBuilder().Normalize(raw, model.CategoryEquity)
	assert.InDelta(t, 0.08, got[0].DividendYield, 1e-9)
}

func TestNormalize_NonFiniteCellsDefaultToZero(t *testing.T) {
	cols := []string{"Papel", "Cotação", "P/L", "Div.Yield", "Liq.2meses"}
	raw := table(cols,
		[]string{"AAAA3", "10,00", "8,00", "9,0%", "500.000"},
		[]string{"BBBB3", "NaN", "nan", "NaN", "Inf"},
	)
	b := incomeBuilder()

	got := b.Normalize(raw, model.CategoryEquity)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.09, got[0].DividendYield, 1e-9, "clean column is not rescaled")
	assert.Equal(t, []string{FieldDY, FieldLiquidity, FieldPE, FieldPrice}, got[1].Defaulted)
	assert.Zero(t, got[1].Price)
	assert.Zero(t, got[1].DividendYield)

	res := b.Build(raw, collector.RawTable{}, 1000)
	require.Len(t, res.Instruments, 1)
	assert.Equal(t, "AAAA3.SA", res.Instruments[0].Ticker)
}

func TestBuild_EmptyTables(t *testing.T) {
	res := incomeBuilder().Build(collector.RawTable{}, collector.RawTable{}, 1000)
	assert.Empty(t, res.Instruments)
	assert.Zero(t, res.Parsed)
}

func TestBuild_Demo(t *testing.T) {
	res := incomeBuilder().Build(collector.DemoEquities(), collector.DemoFunds(), 0)

	tickers := make([]string, 0, len(res.Instruments))
	for _, inst := range res.Instruments {
		tickers = append(tickers, inst.Symbol())
		assert.Greater(t, inst.Price, 0.0)
		assert.GreaterOrEqual(t, inst.DividendYield, 0.06)
	}
	assert.Contains(t, tickers, "PETR4")
	assert.Contains(t, tickers, "MXRF11")
	assert.NotContains(t, tickers, "MGLU3", "zero yield and negative p/l")
	assert.NotContains(t, tickers, "BCFF11", "below liquidity minimum")
}

func TestEligible(t *testing.T) {
	b := incomeBuilder()
	equity := model.Instrument{Ticker: "ABCD3.SA", Category: model.CategoryEquity, Price: 10, Liquidity: 300_000, DividendYield: 0.07, PriceToEarnings: 8}
	fund := model.Instrument{Ticker: "ABCD11.SA", Category: model.CategoryFund, Price: 10, Liquidity: 300_000, DividendYield: 0.09, PriceToBook: 0.95}

	tests := []struct {
		name    string
		inst    model.Instrument
		capital float64
		ok      bool
	}{
		{"equity passes", equity, 100, true},
		{"fund passes", fund, 100, true},
		{"above capital", equity, 9, false},
		{"capital disabled", equity, 0, true},
		{"liquidity equal to minimum", with(equity, func(i *model.Instrument) { i.Liquidity = 200_000 }), 0, false},
		{"yield below minimum", with(equity, func(i *model.Instrument) { i.DividendYield = 0.059 }), 0, false},
		{"loss making", with(equity, func(i *model.Instrument) { i.PriceToEarnings = -3 }), 0, false},
		{"fund expensive", with(fund, func(i *model.Instrument) { i.PriceToBook = 1.3 }), 0, false},
		{"no price", with(fund, func(i *model.Instrument) { i.Price = 0 }), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := b.Eligible(tt.inst, tt.capital)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestEligible_ValueModeSafetyAndExclusions(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeValue
	cfg.Universe = config.UniverseConfig{}
	config.ApplyMode(cfg)
	b := NewBuilder(cfg.Universe, zerolog.Nop())

	good := model.Instrument{Ticker: "GOOD3.SA", Category: model.CategoryEquity, Price: 10, Liquidity: 2e6,
		DividendYield: 0.08, PriceToEarnings: 6, EPS: 10.0 / 6, BVPS: 12, NetEquity: 1000, GrossDebt: 500}

	_, ok := b.Eligible(good, 0)
	assert.True(t, ok)

	_, ok = b.Eligible(with(good, func(i *model.Instrument) { i.Ticker = "OIBR3.SA" }), 0)
	assert.False(t, ok, "excluded ticker")

	reason, ok := b.Eligible(with(good, func(i *model.Instrument) { i.GrossDebt = 4000 }), 0)
	assert.False(t, ok)
	assert.Equal(t, "overleveraged", reason)

	reason, ok = b.Eligible(with(good, func(i *model.Instrument) { i.NetEquity = -5 }), 0)
	assert.False(t, ok)
	assert.Equal(t, "negative equity", reason)

	reason, ok = b.Eligible(with(good, func(i *model.Instrument) { i.PriceToEarnings = 30 }), 0)
	assert.False(t, ok)
	assert.Equal(t, "no safety margin", reason)

	_, ok = b.Eligible(with(good, func(i *model.Instrument) { i.NetEquity = 1; i.IgnoreSolvency = true; i.GrossDebt = 9 }), 0)
	assert.True(t, ok, "unknown solvency skips the leverage check")
}

func TestBuild_LiquidityMonotonic(t *testing.T) {
	eq, funds := collector.DemoEquities(), collector.DemoFunds()
	prev := -1
	for _, minLiq := range []float64{1e8, 1e7, 1e6, 1e5, 1e4} {
		cfg := config.Default().Universe
		cfg.MinLiquidity = minLiq
		n := len(NewBuilder(cfg, zerolog.Nop()).Build(eq, funds, 0).Instruments)
		assert.GreaterOrEqual(t, n, prev, "min liquidity %v", minLiq)
		prev = n
	}
}

func with(i model.Instrument, f func(*model.Instrument)) model.Instrument {
	f(&i)
	return i
}
