// Package portfolio reads the holdings file.
package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"B3Sentinel/internal/model"
)

// ErrNotFound is returned when the portfolio file does not exist.
var ErrNotFound = errors.New("portfolio file not found")

// Load reads a JSON object of ticker to integer quantity. Tickers are normalized
// and duplicates after normalization are summed. Holdings come back sorted by ticker
// with zero price; pricing is the caller's job.
func Load(filePath string) ([]model.Holding, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	return Parse(data)
}

// Parse decodes the portfolio JSON document.
func Parse(data []byte) ([]model.Holding, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse portfolio: %w", err)
	}
	return FromMap(raw)
}

// FromMap validates and normalizes a ticker to quantity map.
func FromMap(raw map[string]int) ([]model.Holding, error) {
	qty := make(map[string]int, len(raw))
	for ticker, n := range raw {
		if n < 0 {
			return nil, fmt.Errorf("parse portfolio: negative quantity %d for %s", n, ticker)
		}
		if model.BaseTicker(ticker) == "" {
			return nil, errors.New("parse portfolio: empty ticker")
		}
		qty[model.NormalizeTicker(ticker)] += n
	}

	holdings := make([]model.Holding, 0, len(qty))
	for ticker, n := range qty {
		holdings = append(holdings, model.Holding{Ticker: ticker, Quantity: n})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Ticker < holdings[j].Ticker })
	return holdings, nil
}

// Save writes holdings in the same format Load reads.
func Save(filePath string, holdings []model.Holding) error {
	out := make(map[string]int, len(holdings))
	for _, h := range holdings {
		out[model.BaseTicker(h.Ticker)] += h.Quantity
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
