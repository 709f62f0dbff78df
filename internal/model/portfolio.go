package model

// Bucket is a target-allocation category.
type Bucket string

const (
	BucketIncome Bucket = "RENDA"
	BucketGrowth Bucket = "CRESCIMENTO"
)

// Holding is a position the user already owns.
type Holding struct {
	Ticker   string
	Quantity int
	Price    float64
}

// PositionValue is quantity times current price.
func (h Holding) PositionValue() float64 {
	return float64(h.Quantity) * h.Price
}

// BucketAllocation is the gap analysis of one bucket against its target.
type BucketAllocation struct {
	Bucket       Bucket
	TargetPct    float64
	CurrentValue float64
	CurrentPct   float64
	Gap          float64
	Deviation    float64
	Status       string
}

// PurchaseOrder is one line of a purchase plan.
type PurchaseOrder struct {
	Ticker        string
	Price         float64
	Quantity      int
	Cost          float64
	DividendYield float64
	Justification string
}

// ProjectedIncome is the yearly dividend estimate added by the order.
func (o PurchaseOrder) ProjectedIncome() float64 {
	return o.Cost * o.DividendYield
}

// Plan is the output of the allocation planner.
type Plan struct {
	Cash            float64
	Orders          []PurchaseOrder
	TotalSpent      float64
	ProjectedIncome float64
	Leftover        float64
	NoEligible      bool

	// Screening only.
	TopPick      *Candidate
	Alternatives []Candidate

	// Rebalancing only.
	TotalValue float64
	Buckets    []BucketAllocation
	Priority   Bucket
	Strategy   string
	RiskAlert  bool
	Review     []Candidate
}
