package collector

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyValue is returned for blank or placeholder cells.
var ErrEmptyValue = errors.New("empty value")

// ErrNotFinite is returned for NaN and infinity spellings.
var ErrNotFinite = errors.New("not a finite number")

// ParseNumber parses a pt-BR formatted number such as "1.234,56", "10,5%"
// or "R$ 12,30". A trailing percent sign yields a fraction.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "-" || s == "--" {
		return 0, ErrEmptyValue
	}

	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") == 4:
		// "1.234" is a thousands separator in pt-BR
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, s)
	}
	if percent {
		v /= 100
	}
	return v, nil
}
