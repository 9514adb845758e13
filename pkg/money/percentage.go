package money

import (
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Percentage is a bounded percentage value in [0, 100].
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage validates the [0, 100] bound at construction.
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return Percentage{}, errors.Validationf("percentage: %s outside [0, 100]", value.String())
	}
	return Percentage{value: value}, nil
}

// NewPercentageFromString parses and validates a percentage string.
func NewPercentageFromString(value string) (Percentage, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Percentage{}, errors.Validationf("percentage: malformed value %q: %v", value, err)
	}
	return NewPercentage(d)
}

// MustPercentage panics on invalid input; for static tables and tests.
func MustPercentage(value string) Percentage {
	p, err := NewPercentageFromString(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the percentage as a decimal in [0, 100].
func (p Percentage) Value() decimal.Decimal { return p.value }

// Fraction returns the percentage as a fraction in [0, 1].
func (p Percentage) Fraction() decimal.Decimal { return p.value.Div(hundred) }

func (p Percentage) IsZero() bool { return p.value.IsZero() }

// ExceededBy reports whether v is strictly greater than p, where v is a
// percentage-scaled decimal.
func (p Percentage) ExceededBy(v decimal.Decimal) bool { return v.GreaterThan(p.value) }

// ReachedBy reports whether v is greater than or equal to p.
func (p Percentage) ReachedBy(v decimal.Decimal) bool { return v.GreaterThanOrEqual(p.value) }

func (p Percentage) String() string { return p.value.String() + "%" }
