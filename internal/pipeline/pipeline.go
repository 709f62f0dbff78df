// Package pipeline wires the providers, universe, enrichment, scoring, ranking
// and allocation stages into the screening and rebalancing runs.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"B3Sentinel/internal/allocation"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/enrich"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/ranking"
	"B3Sentinel/internal/strategy"
	"B3Sentinel/internal/universe"
)

// Degenerate terminal states. Both are reported, never treated as crashes.
var (
	ErrNoCandidates  = errors.New("no candidates")
	ErrNoneQualified = errors.New("candidates found but none qualified")
)

// Diagnostic records a provider that failed during a run.
type Diagnostic struct {
	Provider string
	Err      error
}

func (d Diagnostic) String() string { return d.Provider + ": " + d.Err.Error() }

// Providers groups the external collaborators of a run.
type Providers struct {
	Equities collector.FundamentalsProvider
	Funds    collector.FundamentalsProvider
	History  collector.HistoryProvider
	Quotes   collector.QuoteProvider
}

// Pipeline runs screening and rebalancing passes. It keeps no per-run state.
type Pipeline struct {
	cfg       *config.Config
	providers Providers
	builder   *universe.Builder
	enricher  *enrich.Enricher
	planner   *allocation.Planner
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a Pipeline.
func New(cfg *config.Config, p Providers, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		providers: p,
		builder:   universe.NewBuilder(cfg.Universe, log),
		enricher:  enrich.New(p.History, log),
		planner:   allocation.NewPlanner(cfg.Allocation, cfg.Scoring.MinYield),
		log:       log.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
	}
}

// ScreenResult is the outcome of one screening run.
type ScreenResult struct {
	RunID       string
	StartedAt   time.Time
	Cash        float64
	Basket      bool
	Parsed      int
	Eligible    int
	Dropped     int
	Ranked      []model.Candidate
	Plan        model.Plan
	Diagnostics []Diagnostic
}

// Screen ranks the market for a single purchase sized to cash. The returned
// result is always populated; the error is ErrNoCandidates or ErrNoneQualified
// for the degenerate outcomes.
func (p *Pipeline) Screen(ctx context.Context, cash float64) (ScreenResult, error) {
	return p.screen(ctx, cash, false)
}

// ScreenBasket ranks the market like Screen but spreads cash over several
// ranked candidates.
func (p *Pipeline) ScreenBasket(ctx context.Context, cash float64) (ScreenResult, error) {
	return p.screen(ctx, cash, true)
}

func (p *Pipeline) screen(ctx context.Context, cash float64, basket bool) (ScreenResult, error) {
	res := ScreenResult{RunID: uuid.NewString(), StartedAt: p.now(), Cash: cash, Basket: basket}
	log := p.log.With().Str("run_id", res.RunID).Logger()
	log.Info().Float64("cash", cash).Str("mode", p.cfg.Mode).Bool("basket", basket).Msg("screening started")

	scored, diags, counts := p.discover(ctx, cash, strategy.Screening)
	res.Diagnostics = diags
	res.Parsed, res.Eligible, res.Dropped = counts.parsed, counts.eligible, counts.dropped

	if len(scored) == 0 {
		res.Plan = model.Plan{Cash: cash, Leftover: cash, NoEligible: true}
		log.Warn().Int("diagnostics", len(diags)).Msg("no candidates")
		return res, ErrNoCandidates
	}

	res.Ranked = ranking.Admit(ranking.Rank(scored, ranking.TieBreakPrice), p.cfg.Scoring.MinScore)
	if basket {
		res.Plan = p.planner.Basket(res.Ranked, cash)
	} else {
		res.Plan = p.planner.PickTop(res.Ranked, cash)
	}
	if len(res.Ranked) == 0 {
		log.Info().Int("scored", len(scored)).Msg("none qualified")
		return res, ErrNoneQualified
	}
	log.Info().Str("top", res.Plan.TopPick.Symbol()).Float64("score", res.Plan.TopPick.Score).Msg("screening done")
	return res, nil
}

type stageCounts struct {
	parsed, eligible, dropped int
}

// discover fetches both fundamentals tables, builds the universe and returns
// the enriched candidates scored by the given variant.
func (p *Pipeline) discover(ctx context.Context, capital float64, variant strategy.Variant) ([]model.Candidate, []Diagnostic, stageCounts) {
	equities, funds, diags := p.fetchTables(ctx)

	uni := p.builder.Build(equities, funds, capital)
	counts := stageCounts{parsed: uni.Parsed, eligible: len(uni.Instruments)}
	if len(uni.Instruments) == 0 {
		return nil, diags, counts
	}

	hctx, cancel := p.withTimeout(ctx)
	defer cancel()
	lookback, bars := p.cfg.History.Lookback, p.cfg.History.MomentumBars
	if variant == strategy.Rebalancing {
		lookback, bars = rebalanceLookback, p.cfg.History.RebalanceBars
	}
	enriched := p.enricher.Enrich(hctx, uni.Instruments, enrich.Options{
		Lookback:     lookback,
		MomentumBars: bars,
		Capital:      capital,
		Parallelism:  p.cfg.History.Parallelism,
	})
	counts.dropped = enriched.Dropped
	if enriched.HistoryErr != nil {
		diags = append(diags, Diagnostic{Provider: p.providers.History.Name(), Err: enriched.HistoryErr})
	}

	engine := strategy.NewEngine(p.cfg.Scoring, variant)
	return engine.EvaluateAll(enriched.Candidates), diags, counts
}

// fetchTables runs both fundamentals providers concurrently. A failed provider
// contributes an empty table and a diagnostic.
func (p *Pipeline) fetchTables(ctx context.Context) (equities, funds collector.RawTable, diags []Diagnostic) {
	var errs [2]error
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(i int, prov collector.FundamentalsProvider, out *collector.RawTable) {
		g.Go(func() error {
			if prov == nil {
				return nil
			}
			fctx, cancel := p.withTimeout(gctx)
			defer cancel()
			t, err := prov.Fetch(fctx)
			if err != nil {
				errs[i] = err
				*out = collector.RawTable{Source: prov.Name()}
				return nil
			}
			*out = t
			return nil
		})
	}
	fetch(0, p.providers.Equities, &equities)
	fetch(1, p.providers.Funds, &funds)
	_ = g.Wait()

	for i, prov := range []collector.FundamentalsProvider{p.providers.Equities, p.providers.Funds} {
		if errs[i] == nil {
			continue
		}
		p.log.Warn().Err(errs[i]).Str("provider", prov.Name()).Msg("provider failed, continuing without it")
		diags = append(diags, Diagnostic{Provider: prov.Name(), Err: errs[i]})
	}
	return equities, funds, diags
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.Providers.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.Providers.Timeout)
}
