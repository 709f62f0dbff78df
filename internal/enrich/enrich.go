// Package enrich attaches price-history metrics to universe instruments.
package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"B3Sentinel/internal/calculator"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/valuation"
)

// Options tune one enrichment pass.
type Options struct {
	Lookback     string
	MomentumBars int     // 0 uses the whole lookback window
	Capital      float64 // <= 0 disables the price ceiling
	Parallelism  int
}

// Enricher runs the single batch history call and derives per-instrument metrics.
type Enricher struct {
	history collector.HistoryProvider
	log     zerolog.Logger
}

// New creates an Enricher.
func New(history collector.HistoryProvider, log zerolog.Logger) *Enricher {
	return &Enricher{history: history, log: log.With().Str("component", "enrich").Logger()}
}

// Result holds the surviving candidates in input order.
type Result struct {
	Candidates []model.Candidate
	Dropped    int
	// HistoryErr is set when the batch call failed; all instruments are dropped then.
	HistoryErr error
}

// Enrich fetches history for all instruments and computes momentum, volatility
// and valuation. Instruments without usable history are dropped, never fatal.
func (e *Enricher) Enrich(ctx context.Context, instruments []model.Instrument, opts Options) Result {
	if len(instruments) == 0 {
		return Result{}
	}
	tickers := make([]string, len(instruments))
	for i, inst := range instruments {
		tickers[i] = inst.Ticker
	}

	bars, err := e.history.History(ctx, tickers, opts.Lookback)
	if err != nil {
		e.log.Warn().Err(err).Msg("history unavailable, dropping all instruments")
		return Result{Dropped: len(instruments), HistoryErr: fmt.Errorf("%s: %w", e.history.Name(), err)}
	}

	slots := make([]*model.Candidate, len(instruments))
	g := new(errgroup.Group)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i := range instruments {
		g.Go(func() error {
			c, reason := Metrics(instruments[i], bars[instruments[i].Ticker], opts)
			if reason != "" {
				e.log.Debug().Str("ticker", instruments[i].Ticker).Str("reason", reason).Msg("dropped")
				return nil
			}
			slots[i] = &c
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Candidates: make([]model.Candidate, 0, len(instruments))}
	for _, c := range slots {
		if c == nil {
			res.Dropped++
			continue
		}
		res.Candidates = append(res.Candidates, *c)
	}
	e.log.Info().Int("enriched", len(res.Candidates)).Int("dropped", res.Dropped).Msg("enrichment done")
	return res
}

// Metrics derives one candidate from its history. A non-empty reason means drop.
func Metrics(inst model.Instrument, bars []model.Bar, opts Options) (model.Candidate, string) {
	if len(bars) == 0 {
		return model.Candidate{}, "empty history"
	}
	closes := calculator.Closes(bars)
	last, ok := calculator.LastClose(closes)
	if !ok {
		return model.Candidate{}, "invalid last close"
	}
	if opts.Capital > 0 && last > opts.Capital {
		return model.Candidate{}, "last close above capital"
	}
	momentum, err := calculator.Momentum(closes, opts.MomentumBars)
	if err != nil {
		return model.Candidate{}, err.Error()
	}

	c := model.Candidate{Instrument: inst}
	c.Price = last
	c.Momentum = momentum
	c.Volatility = calculator.Volatility(closes)
	est := valuation.Intrinsic(c.EPS, c.BVPS)
	c.IntrinsicValue = est.Value
	c.ValueDefined = est.Defined
	c.MarginRatio = valuation.Margin(c.Price, est)
	return c, ""
}
