// Package universe turns raw fundamentals tables into the eligible instrument set.
package universe

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

// percentMeanThreshold flags a column as percent points when its mean exceeds it.
// Small clean samples can misfire; the rule is kept for compatibility with the source data.
const percentMeanThreshold = 5.0

// Builder normalizes and filters the fundamentals universe.
type Builder struct {
	cfg      config.UniverseConfig
	minYield float64
	log      zerolog.Logger
}

// NewBuilder creates a Builder for the given thresholds.
func NewBuilder(cfg config.UniverseConfig, log zerolog.Logger) *Builder {
	return &Builder{cfg: cfg, minYield: cfg.MinYield, log: log.With().Str("component", "universe").Logger()}
}

// Result is the eligible universe plus counters for the report.
type Result struct {
	Instruments []model.Instrument
	Parsed      int
	Rejected    int
}

// Build normalizes both tables and keeps the eligible rows. capital <= 0
// disables the price ceiling.
func (b *Builder) Build(equities, funds collector.RawTable, capital float64) Result {
	all := append(b.Normalize(equities, model.CategoryEquity), b.Normalize(funds, model.CategoryFund)...)

	res := Result{Parsed: len(all)}
	for _, inst := range all {
		if reason, ok := b.Eligible(inst, capital); !ok {
			res.Rejected++
			b.log.Debug().Str("ticker", inst.Ticker).Str("reason", reason).Msg("filtered out")
			continue
		}
		res.Instruments = append(res.Instruments, inst)
	}
	b.log.Info().
		Int("parsed", res.Parsed).
		Int("eligible", len(res.Instruments)).
		Int("rejected", res.Rejected).
		Msg("universe built")
	return res
}

type parsedRow struct {
	ticker    string
	values    map[string]float64
	sector    string
	defaulted []string
}

// Normalize converts a raw table into instruments of one category, without filtering.
func (b *Builder) Normalize(table collector.RawTable, category model.Category) []model.Instrument {
	if table.Len() == 0 {
		return nil
	}
	mapping, dups := MapColumns(table.Columns)
	for _, d := range dups {
		b.log.Debug().Str("source", table.Source).Str("column", d).Msg("duplicate column ignored")
	}

	rows := make([]parsedRow, 0, table.Len())
	for _, raw := range table.Rows {
		row := parsedRow{ticker: raw.Ticker, values: make(map[string]float64)}
		for field, col := range mapping {
			cell := raw.Fields[col]
			if field == FieldSector {
				row.sector = strings.TrimSpace(cell)
				continue
			}
			v, err := collector.ParseNumber(cell)
			if err != nil {
				row.defaulted = append(row.defaulted, field)
				v = 0
			}
			row.values[field] = v
		}
		sort.Strings(row.defaulted)
		rows = append(rows, row)
	}

	b.rescale(table.Source, mapping, rows)

	_, hasEquity := mapping[FieldNetEquity]
	_, hasDebt := mapping[FieldGrossDebtRatio]

	out := make([]model.Instrument, 0, len(rows))
	for _, row := range rows {
		v := row.values
		inst := model.Instrument{
			Ticker:          model.NormalizeTicker(row.ticker),
			Category:        category,
			Sector:          row.sector,
			Price:           v[FieldPrice],
			Liquidity:       v[FieldLiquidity],
			DividendYield:   v[FieldDY],
			PriceToBook:     v[FieldPB],
			PriceToEarnings: v[FieldPE],
			ROE:             v[FieldROE],
			ROIC:            v[FieldROIC],
			NetMargin:       v[FieldNetMargin],
			Growth5y:        v[FieldGrowth5y],
			NetEquity:       v[FieldNetEquity],
			Defaulted:       row.defaulted,
		}
		if inst.Sector == "" {
			inst.Sector = model.DefaultSector
		}
		if !hasEquity || contains(row.defaulted, FieldNetEquity) {
			inst.NetEquity = 1
			inst.IgnoreSolvency = true
		}
		if hasDebt {
			inst.GrossDebt = v[FieldGrossDebtRatio] * inst.NetEquity
		}
		if inst.PriceToEarnings > 0 {
			inst.EPS = inst.Price / inst.PriceToEarnings
		}
		if inst.PriceToBook > 0 {
			inst.BVPS = inst.Price / inst.PriceToBook
		}
		if len(row.defaulted) > 0 {
			b.log.Debug().Str("ticker", inst.Ticker).Strs("fields", row.defaulted).Msg("fields defaulted to zero")
		}
		out = append(out, inst)
	}
	return out
}

// rescale divides a percent-scaled column by 100 when its mean is above the threshold.
func (b *Builder) rescale(source string, mapping map[string]string, rows []parsedRow) {
	if len(rows) == 0 {
		return
	}
	for _, field := range scaledFields {
		if _, ok := mapping[field]; !ok {
			continue
		}
		sum := 0.0
		for _, r := range rows {
			sum += r.values[field]
		}
		mean := sum / float64(len(rows))
		if mean <= percentMeanThreshold {
			continue
		}
		b.log.Warn().Str("source", source).Str("field", field).Float64("mean", mean).
			Msg("column looks like percent points, dividing by 100")
		for _, r := range rows {
			r.values[field] /= 100
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
