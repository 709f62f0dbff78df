// Package allocation turns ranked candidates and cash into integer purchase plans.
package allocation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/ranking"
)

// Bucket deviation bands.
const (
	onTargetBand = 0.05
	riskBand     = 0.10
)

// Bucket status labels.
const (
	StatusOnTarget = "Na Meta"
	StatusUnder    = "Sub-alocado"
	StatusOver     = "Super-alocado"
)

// Planner sizes purchases. It holds configuration only and is safe for concurrent use.
type Planner struct {
	cfg      config.AllocationConfig
	minYield float64
}

// NewPlanner creates a Planner. minYield decides the income bucket.
func NewPlanner(cfg config.AllocationConfig, minYield float64) *Planner {
	return &Planner{cfg: cfg, minYield: minYield}
}

// BucketOf classifies an instrument: funds and yielders are income.
func (p *Planner) BucketOf(inst model.Instrument) model.Bucket {
	if inst.IsFund() || inst.DividendYield >= p.minYield {
		return model.BucketIncome
	}
	return model.BucketGrowth
}

// PickTop buys as many units of the best candidate as cash allows and lists the next alternatives.
func (p *Planner) PickTop(ranked []model.Candidate, cash float64) model.Plan {
	cash = usableCash(cash)
	plan := model.Plan{Cash: cash, Leftover: cash}
	if len(ranked) == 0 {
		plan.NoEligible = true
		return plan
	}

	top := ranked[0]
	plan.TopPick = &top
	end := 1 + p.cfg.Alternatives
	if end > len(ranked) {
		end = len(ranked)
	}
	plan.Alternatives = append([]model.Candidate(nil), ranked[1:end]...)

	remaining := decimal.NewFromFloat(cash)
	if order, ok := buy(top, &remaining); ok {
		plan.Orders = []model.PurchaseOrder{order}
	}
	p.finish(&plan)
	return plan
}

// Basket spreads cash over the ranked candidates instead of a single pick. Below the
// balanced threshold it takes one unit of each candidate in rank order while cash
// lasts; otherwise it splits cash over the top slots and refills the remainder.
func (p *Planner) Basket(ranked []model.Candidate, cash float64) model.Plan {
	cash = usableCash(cash)
	plan := model.Plan{Cash: cash, Leftover: cash}
	if len(ranked) == 0 {
		plan.NoEligible = true
		return plan
	}
	top := ranked[0]
	plan.TopPick = &top

	if cash < p.cfg.BalancedThreshold {
		plan.Orders = oneEach(ranked, cash)
		plan.Strategy = "Capital pequeno: uma unidade de cada ativo, na ordem do ranking"
	} else {
		plan.Orders = p.balanced(ranked, cash)
		plan.Strategy = fmt.Sprintf("Divisão entre até %d ativos com reforço do troco", p.cfg.BalancedSlots)
	}
	p.finish(&plan)
	return plan
}

// Rebalance measures the portfolio against the bucket targets and spends cash on the
// qualified candidates of the most underweight bucket. held carries the scored view of
// each holding and feeds the review list.
func (p *Planner) Rebalance(holdings []model.Holding, held, candidates []model.Candidate, cash float64) model.Plan {
	cash = usableCash(cash)
	plan := model.Plan{Cash: cash, Leftover: cash}

	info := make(map[string]model.Candidate, len(held))
	for _, c := range held {
		info[model.NormalizeTicker(c.Ticker)] = c
	}

	values := map[model.Bucket]float64{}
	invested := 0.0
	for _, h := range holdings {
		v := h.PositionValue()
		invested += v
		c, ok := info[model.NormalizeTicker(h.Ticker)]
		bucket := model.BucketGrowth
		if ok {
			bucket = p.BucketOf(c.Instrument)
		}
		values[bucket] += v
	}
	// Targets apply to holdings plus new cash; the current mix is measured on holdings.
	total := invested + cash
	plan.TotalValue = round2(total)

	targets := []struct {
		bucket model.Bucket
		pct    float64
	}{
		{model.BucketIncome, p.cfg.IncomeTarget},
		{model.BucketGrowth, p.cfg.GrowthTarget},
	}
	gaps := map[model.Bucket]float64{}
	for _, t := range targets {
		alloc := model.BucketAllocation{Bucket: t.bucket, TargetPct: t.pct, CurrentValue: round2(values[t.bucket])}
		if invested > 0 {
			alloc.CurrentPct = values[t.bucket] / invested
		}
		alloc.Gap = round2(t.pct*total - values[t.bucket])
		alloc.Deviation = alloc.CurrentPct - t.pct
		switch {
		case math.Abs(alloc.Deviation) < onTargetBand:
			alloc.Status = StatusOnTarget
		case alloc.Deviation < 0:
			alloc.Status = StatusUnder
		default:
			alloc.Status = StatusOver
		}
		if t.bucket == model.BucketIncome && math.Abs(alloc.Deviation) > riskBand {
			plan.RiskAlert = true
		}
		gaps[t.bucket] = alloc.Gap
		plan.Buckets = append(plan.Buckets, alloc)
	}

	plan.Priority = model.BucketGrowth
	if gaps[model.BucketIncome] > gaps[model.BucketGrowth] {
		plan.Priority = model.BucketIncome
	}

	for _, c := range held {
		if c.Profile == model.ProfileReview {
			plan.Review = append(plan.Review, c)
		}
	}

	qualified := ranking.Admit(candidates, p.cfg.QualifyScore)
	var pool []model.Candidate
	for _, c := range qualified {
		if p.BucketOf(c.Instrument) == plan.Priority {
			pool = append(pool, c)
		}
	}
	plan.Strategy = fmt.Sprintf("Prioridade %s: faltam R$ %.2f para a meta", plan.Priority, math.Max(gaps[plan.Priority], 0))
	if len(pool) == 0 && len(qualified) > 0 {
		pool = qualified
		plan.Strategy += fmt.Sprintf("; nenhum ativo qualificado em %s, usando todos os qualificados", plan.Priority)
	}
	pool = ranking.Rank(pool, ranking.TieBreakYield)

	if len(pool) == 0 || cash <= 0 {
		plan.NoEligible = len(pool) == 0
		p.finish(&plan)
		return plan
	}

	if cash <= p.cfg.BalancedThreshold {
		plan.Orders = greedy(pool, cash)
	} else {
		plan.Orders = p.balanced(pool, cash)
		plan.Strategy += fmt.Sprintf("; divisão entre até %d ativos", p.cfg.BalancedSlots)
	}
	p.finish(&plan)
	return plan
}

// greedy buys floor(remaining/price) of each pool member in order.
func greedy(pool []model.Candidate, cash float64) []model.PurchaseOrder {
	remaining := decimal.NewFromFloat(cash)
	var orders []model.PurchaseOrder
	for _, c := range pool {
		if order, ok := buy(c, &remaining); ok {
			orders = append(orders, order)
		}
	}
	return orders
}

// oneEach buys a single unit of every candidate that still fits.
func oneEach(pool []model.Candidate, cash float64) []model.PurchaseOrder {
	remaining := decimal.NewFromFloat(cash)
	var orders []model.PurchaseOrder
	for _, c := range pool {
		price := priceOf(c)
		if !price.IsPositive() || price.GreaterThan(remaining) {
			continue
		}
		remaining = remaining.Sub(price)
		orders = append(orders, order(c, price, 1))
	}
	return orders
}

// balanced splits cash evenly over the top slots, then refills the bought orders with
// the rest, cheapest first, until no unit fits.
func (p *Planner) balanced(pool []model.Candidate, cash float64) []model.PurchaseOrder {
	k := p.cfg.BalancedSlots
	if k > len(pool) {
		k = len(pool)
	}
	remaining := decimal.NewFromFloat(cash)
	share, _ := remaining.QuoRem(decimal.NewFromInt(int64(k)), 2)

	type line struct {
		cand  model.Candidate
		price decimal.Decimal
		qty   int64
	}
	var lines []*line
	for _, c := range pool[:k] {
		price := priceOf(c)
		if !price.IsPositive() {
			continue
		}
		qty := units(share, price)
		if qty <= 0 {
			continue
		}
		remaining = remaining.Sub(price.Mul(decimal.NewFromInt(qty)))
		lines = append(lines, &line{cand: c, price: price, qty: qty})
	}
	if len(lines) == 0 {
		return greedy(pool, cash)
	}

	// Refilling one unit at a time into the cheapest order that fits always lands on
	// the cheapest order, so the remainder goes there in one step.
	cheapest := lines[0]
	for _, l := range lines[1:] {
		if l.price.LessThan(cheapest.price) {
			cheapest = l
		}
	}
	cheapest.qty += units(remaining, cheapest.price)

	orders := make([]model.PurchaseOrder, 0, len(lines))
	for _, l := range lines {
		orders = append(orders, order(l.cand, l.price, l.qty))
	}
	return orders
}

// priceOf quotes a candidate in cents, the unit all costs are computed in.
func priceOf(c model.Candidate) decimal.Decimal {
	return decimal.NewFromFloat(c.Price).Round(2)
}

// units is the whole number of price that fits in amount.
func units(amount, price decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	q, _ := amount.QuoRem(price, 0)
	return q.IntPart()
}

// buy takes floor(remaining/price) units and debits remaining.
func buy(c model.Candidate, remaining *decimal.Decimal) (model.PurchaseOrder, bool) {
	price := priceOf(c)
	if !price.IsPositive() {
		return model.PurchaseOrder{}, false
	}
	qty := units(*remaining, price)
	if qty <= 0 {
		return model.PurchaseOrder{}, false
	}
	*remaining = remaining.Sub(price.Mul(decimal.NewFromInt(qty)))
	return order(c, price, qty), true
}

func order(c model.Candidate, price decimal.Decimal, qty int64) model.PurchaseOrder {
	cost, _ := price.Mul(decimal.NewFromInt(qty)).Float64()
	unit, _ := price.Float64()
	return model.PurchaseOrder{
		Ticker:        c.Ticker,
		Price:         unit,
		Quantity:      int(qty),
		Cost:          cost,
		DividendYield: c.DividendYield,
		Justification: c.Reason(),
	}
}

// finish fills the plan totals from its orders.
func (p *Planner) finish(plan *model.Plan) {
	spent := decimal.Zero
	income := decimal.Zero
	for _, o := range plan.Orders {
		cost := decimal.NewFromFloat(o.Cost)
		spent = spent.Add(cost)
		income = income.Add(cost.Mul(decimal.NewFromFloat(o.DividendYield)))
	}
	plan.TotalSpent, _ = spent.Round(2).Float64()
	plan.ProjectedIncome, _ = income.Round(2).Float64()
	plan.Leftover, _ = decimal.NewFromFloat(plan.Cash).Sub(spent).Round(2).Float64()
}

// usableCash maps negative and non-finite amounts to zero.
func usableCash(cash float64) float64 {
	if math.IsNaN(cash) || math.IsInf(cash, 0) || cash < 0 {
		return 0
	}
	return cash
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
