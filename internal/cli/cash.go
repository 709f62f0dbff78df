package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"B3Sentinel/internal/collector"
)

// ErrInvalidCash is returned for a cash amount that is not a usable number.
var ErrInvalidCash = errors.New("invalid cash amount")

// ParseCash accepts "1500", "1.500,00" or "R$ 1500,50". allowZero admits 0,
// used when rebalancing without new money.
func ParseCash(s string, allowZero bool) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := collector.ParseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCash, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidCash, s)
	}
	if v < 0 || (v == 0 && !allowZero) {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidCash, s)
	}
	return v, nil
}

// promptCash asks for the amount to invest.
func promptCash(message string, allowZero bool) (float64, error) {
	var raw string
	prompt := &survey.Input{
		Message: message,
		Help:    "Valor em reais, por exemplo 1500 ou 1.500,00",
	}
	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		_, err := ParseCash(val.(string), allowZero)
		return err
	}))
	if err != nil {
		return 0, err
	}
	return ParseCash(raw, allowZero)
}

// resolveCash uses the flag when given, otherwise prompts.
func resolveCash(flag string, message string, allowZero bool) (float64, error) {
	if flag != "" {
		return ParseCash(flag, allowZero)
	}
	return promptCash(message, allowZero)
}
