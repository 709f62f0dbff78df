package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/enrich"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/strategy"
)

// rebalanceLookback covers the 126-bar momentum window of held positions.
const rebalanceLookback = "1y"

// RebalanceResult is the outcome of one rebalancing run.
type RebalanceResult struct {
	RunID       string
	StartedAt   time.Time
	Holdings    []model.Holding
	Held        []model.Candidate
	Discovered  int
	Plan        model.Plan
	Diagnostics []Diagnostic
}

// Rebalance prices and scores the holdings, measures them against the bucket
// targets and plans purchases with cash. With discover set, screened market
// candidates join the purchase pool next to the holdings.
func (p *Pipeline) Rebalance(ctx context.Context, holdings []model.Holding, cash float64, discover bool) (RebalanceResult, error) {
	res := RebalanceResult{RunID: uuid.NewString(), StartedAt: p.now()}
	log := p.log.With().Str("run_id", res.RunID).Logger()
	log.Info().Int("holdings", len(holdings)).Float64("cash", cash).Bool("discover", discover).Msg("rebalance started")

	priced, instruments, diags := p.quoteHoldings(ctx, holdings)
	res.Diagnostics = diags

	held, hdiags := p.scoreHeld(ctx, priced, instruments)
	res.Held = held
	res.Diagnostics = append(res.Diagnostics, hdiags...)

	// Holdings without usable history are left out of the totals, like unpriced ones.
	known := make(map[string]bool, len(held))
	for _, c := range held {
		known[c.Ticker] = true
	}
	for _, h := range priced {
		if known[h.Ticker] {
			res.Holdings = append(res.Holdings, h)
		}
	}

	pool := append([]model.Candidate(nil), held...)
	if discover {
		market, mdiags, _ := p.discover(ctx, cash, strategy.Rebalancing)
		res.Diagnostics = append(res.Diagnostics, mdiags...)
		for _, c := range market {
			if known[c.Ticker] {
				continue
			}
			pool = append(pool, c)
			res.Discovered++
		}
	}

	res.Plan = p.planner.Rebalance(res.Holdings, held, pool, cash)
	log.Info().
		Int("orders", len(res.Plan.Orders)).
		Float64("spent", res.Plan.TotalSpent).
		Str("priority", string(res.Plan.Priority)).
		Msg("rebalance done")
	return res, nil
}

// quoteHoldings fetches a quote per holding concurrently. Unpriced holdings are
// dropped and reported.
func (p *Pipeline) quoteHoldings(ctx context.Context, holdings []model.Holding) ([]model.Holding, map[string]model.Instrument, []Diagnostic) {
	type slot struct {
		holding model.Holding
		inst    model.Instrument
		err     error
	}
	slots := make([]slot, len(holdings))

	g := new(errgroup.Group)
	if p.cfg.History.Parallelism > 0 {
		g.SetLimit(p.cfg.History.Parallelism)
	}
	for i, h := range holdings {
		g.Go(func() error {
			q, err := p.providers.Quotes.Quote(ctx, h.Ticker)
			if err != nil {
				slots[i].err = err
				return nil
			}
			h.Ticker = model.NormalizeTicker(h.Ticker)
			h.Price = q.Price
			slots[i] = slot{holding: h, inst: quoteInstrument(q)}
			return nil
		})
	}
	_ = g.Wait()

	var (
		priced []model.Holding
		diags  []Diagnostic
	)
	instruments := make(map[string]model.Instrument, len(holdings))
	for i, s := range slots {
		if s.err != nil {
			p.log.Warn().Err(s.err).Str("ticker", holdings[i].Ticker).Msg("holding not priced")
			diags = append(diags, Diagnostic{Provider: p.providers.Quotes.Name(), Err: s.err})
			continue
		}
		priced = append(priced, s.holding)
		instruments[s.holding.Ticker] = s.inst
	}
	return priced, instruments, diags
}

// scoreHeld enriches the priced holdings with history and scores them with the
// rebalancing rules. Current quotes stay the reference price.
func (p *Pipeline) scoreHeld(ctx context.Context, priced []model.Holding, instruments map[string]model.Instrument) ([]model.Candidate, []Diagnostic) {
	if len(priced) == 0 {
		return nil, nil
	}
	list := make([]model.Instrument, 0, len(priced))
	for _, h := range priced {
		list = append(list, instruments[h.Ticker])
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Ticker < list[j].Ticker })

	hctx, cancel := p.withTimeout(ctx)
	defer cancel()
	enriched := p.enricher.Enrich(hctx, list, enrich.Options{
		Lookback:     rebalanceLookback,
		MomentumBars: p.cfg.History.RebalanceBars,
		Parallelism:  p.cfg.History.Parallelism,
	})
	var diags []Diagnostic
	if enriched.HistoryErr != nil {
		diags = append(diags, Diagnostic{Provider: p.providers.History.Name(), Err: enriched.HistoryErr})
	}

	engine := strategy.NewEngine(p.cfg.Scoring, strategy.Rebalancing)
	out := make([]model.Candidate, len(enriched.Candidates))
	for i, c := range enriched.Candidates {
		c.Price = instruments[c.Ticker].Price
		out[i] = engine.Evaluate(c)
	}
	return out, diags
}

func quoteInstrument(q collector.Quote) model.Instrument {
	sector := q.Sector
	if sector == "" {
		sector = model.DefaultSector
	}
	return model.Instrument{
		Ticker:        model.NormalizeTicker(q.Ticker),
		Category:      q.Category,
		Sector:        sector,
		Price:         q.Price,
		DividendYield: q.DividendYield,
	}
}
