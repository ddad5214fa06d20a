package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// ErrInvalidCurrency is returned for codes that are not ISO 4217 currencies.
var ErrInvalidCurrency = errors.New("invalid currency")

// ParseCurrency validates an ISO 4217 code and returns its canonical form.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}
