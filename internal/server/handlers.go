package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"B3Sentinel/internal/model"
	"B3Sentinel/internal/pipeline"
	"B3Sentinel/internal/portfolio"
)

// Run states reported in responses.
const (
	StatusOK           = "ok"
	StatusNoCandidates = "no_candidates"
	StatusNoneQualify  = "none_qualified"
)

type screenRequest struct {
	Cash   float64 `json:"cash"`
	Basket bool    `json:"basket"`
}

type rebalanceRequest struct {
	Cash     float64        `json:"cash"`
	Holdings map[string]int `json:"holdings"`
	Discover bool           `json:"discover"`
}

// CandidateDTO is the wire form of a scored candidate.
type CandidateDTO struct {
	Ticker        string   `json:"ticker"`
	Category      string   `json:"category"`
	Sector        string   `json:"sector"`
	Price         float64  `json:"price"`
	DividendYield float64  `json:"dividend_yield"`
	Momentum      float64  `json:"momentum"`
	Score         float64  `json:"score"`
	Profile       string   `json:"profile"`
	Justification []string `json:"justification"`
	Premises      []string `json:"premises,omitempty"`
}

// OrderDTO is the wire form of a purchase order.
type OrderDTO struct {
	Ticker          string  `json:"ticker"`
	Price           float64 `json:"price"`
	Quantity        int     `json:"quantity"`
	Cost            float64 `json:"cost"`
	ProjectedIncome float64 `json:"projected_income"`
	Justification   string  `json:"justification,omitempty"`
}

// BucketDTO is the wire form of a bucket allocation.
type BucketDTO struct {
	Bucket       string  `json:"bucket"`
	TargetPct    float64 `json:"target_pct"`
	CurrentValue float64 `json:"current_value"`
	CurrentPct   float64 `json:"current_pct"`
	Gap          float64 `json:"gap"`
	Deviation    float64 `json:"deviation"`
	Status       string  `json:"status"`
}

// ScreenResponse is returned by POST /api/screen.
type ScreenResponse struct {
	RunID        string         `json:"run_id"`
	Status       string         `json:"status"`
	Cash         float64        `json:"cash"`
	Basket       bool           `json:"basket"`
	Strategy     string         `json:"strategy,omitempty"`
	TopPick      *CandidateDTO  `json:"top_pick,omitempty"`
	Orders       []OrderDTO     `json:"orders"`
	Leftover     float64        `json:"leftover"`
	Alternatives []CandidateDTO `json:"alternatives"`
	Diagnostics  []string       `json:"diagnostics,omitempty"`
}

// RebalanceResponse is returned by POST /api/rebalance.
type RebalanceResponse struct {
	RunID           string         `json:"run_id"`
	TotalValue      float64        `json:"total_value"`
	Buckets         []BucketDTO    `json:"buckets"`
	Priority        string         `json:"priority"`
	Strategy        string         `json:"strategy"`
	RiskAlert       bool           `json:"risk_alert"`
	Orders          []OrderDTO     `json:"orders"`
	TotalSpent      float64        `json:"total_spent"`
	ProjectedIncome float64        `json:"projected_income"`
	Leftover        float64        `json:"leftover"`
	NoEligible      bool           `json:"no_eligible"`
	Review          []CandidateDTO `json:"review,omitempty"`
	Diagnostics     []string       `json:"diagnostics,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Cash <= 0 {
		s.writeError(w, http.StatusBadRequest, "cash must be positive")
		return
	}

	screen := s.runner.Screen
	if req.Basket {
		screen = s.runner.ScreenBasket
	}
	res, err := screen(r.Context(), req.Cash)
	status := StatusOK
	switch {
	case errors.Is(err, pipeline.ErrNoCandidates):
		status = StatusNoCandidates
	case errors.Is(err, pipeline.ErrNoneQualified):
		status = StatusNoneQualify
	case err != nil:
		s.log.Error().Err(err).Msg("screen failed")
		s.writeError(w, http.StatusInternalServerError, "screen failed")
		return
	}

	resp := ScreenResponse{
		RunID:        res.RunID,
		Status:       status,
		Cash:         res.Cash,
		Basket:       res.Basket,
		Strategy:     res.Plan.Strategy,
		Orders:       orders(res.Plan.Orders),
		Leftover:     res.Plan.Leftover,
		Alternatives: candidates(res.Plan.Alternatives),
		Diagnostics:  diagnostics(res.Diagnostics),
	}
	if res.Plan.TopPick != nil {
		top := candidate(*res.Plan.TopPick)
		resp.TopPick = &top
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Cash < 0 {
		s.writeError(w, http.StatusBadRequest, "cash must not be negative")
		return
	}
	holdings, err := portfolio.FromMap(req.Holdings)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.runner.Rebalance(r.Context(), holdings, req.Cash, req.Discover)
	if err != nil {
		s.log.Error().Err(err).Msg("rebalance failed")
		s.writeError(w, http.StatusInternalServerError, "rebalance failed")
		return
	}

	plan := res.Plan
	resp := RebalanceResponse{
		RunID:           res.RunID,
		TotalValue:      plan.TotalValue,
		Priority:        string(plan.Priority),
		Strategy:        plan.Strategy,
		RiskAlert:       plan.RiskAlert,
		Orders:          orders(plan.Orders),
		TotalSpent:      plan.TotalSpent,
		ProjectedIncome: plan.ProjectedIncome,
		Leftover:        plan.Leftover,
		NoEligible:      plan.NoEligible,
		Review:          candidates(plan.Review),
		Diagnostics:     diagnostics(res.Diagnostics),
	}
	for _, b := range plan.Buckets {
		resp.Buckets = append(resp.Buckets, BucketDTO{
			Bucket:       string(b.Bucket),
			TargetPct:    b.TargetPct,
			CurrentValue: b.CurrentValue,
			CurrentPct:   b.CurrentPct,
			Gap:          b.Gap,
			Deviation:    b.Deviation,
			Status:       b.Status,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func candidate(c model.Candidate) CandidateDTO {
	return CandidateDTO{
		Ticker:        c.Symbol(),
		Category:      string(c.Category),
		Sector:        c.Sector,
		Price:         c.Price,
		DividendYield: c.DividendYield,
		Momentum:      c.Momentum,
		Score:         c.Score,
		Profile:       string(c.Profile),
		Justification: c.Justification,
		Premises:      c.Premises,
	}
}

func candidates(cs []model.Candidate) []CandidateDTO {
	out := make([]CandidateDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, candidate(c))
	}
	return out
}

func orders(list []model.PurchaseOrder) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, OrderDTO{
			Ticker:          model.BaseTicker(o.Ticker),
			Price:           o.Price,
			Quantity:        o.Quantity,
			Cost:            o.Cost,
			ProjectedIncome: o.ProjectedIncome(),
			Justification:   o.Justification,
		})
	}
	return out
}

func diagnostics(ds []pipeline.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
