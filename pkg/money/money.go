// Package money provides currency-safe decimal value types for equity,
// P&L and threshold arithmetic. All amounts are exact decimals; binary
// floating point is never used for monetary values.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/errors"
)

// Money is an immutable amount tagged with an ISO-4217 currency code.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New creates a Money value. The currency code must be a non-empty
// upper-case tag; the amount may be negative (P&L deltas are signed).
func New(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, errors.Validationf("money: currency code is required")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewFromString parses a decimal string into a Money value.
func NewFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, errors.Validationf("money: malformed amount %q: %v", amount, err)
	}
	return New(d, currency)
}

// MustNew is New for static initialisers and tests; it panics on error.
func MustNew(amount decimal.Decimal, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. Mixing currencies is a validation error.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Mixing currencies is a validation error.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// FloorZero returns m, or zero if m is negative. Equity is floored at
// zero after extreme losses.
func (m Money) FloorZero() Money {
	if m.amount.IsNegative() {
		return Money{amount: decimal.Zero, currency: m.currency}
	}
	return m
}

// Max returns the larger of m and other.
func (m Money) Max(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount.GreaterThan(m.amount) {
		return other, nil
	}
	return m, nil
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount.LessThan(m.amount) {
		return other, nil
	}
	return m, nil
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Cmp compares amounts, ignoring currency. Callers that need currency
// safety should use Add/Sub/Max which enforce it.
func (m Money) Cmp(other Money) int { return m.amount.Cmp(other.amount) }

// Equal reports whether amount and currency both match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// PercentOf returns m as a percentage of base, e.g. 500 of 10000 is 5%.
// A zero base yields zero rather than dividing.
func (m Money) PercentOf(base Money) (decimal.Decimal, error) {
	if err := m.sameCurrency(base); err != nil {
		return decimal.Zero, err
	}
	if base.amount.IsZero() {
		return decimal.Zero, nil
	}
	return m.amount.Div(base.amount).Mul(decimal.NewFromInt(100)), nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.String(), m.currency)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON encodes the amount as a decimal string with its currency tag.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON decodes and validates a currency-tagged amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Validationf("money: malformed json: %v", err)
	}
	parsed, err := New(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return errors.Validationf("money: currency mismatch %s vs %s", m.currency, other.currency)
	}
	return nil
}
