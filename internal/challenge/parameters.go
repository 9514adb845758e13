package challenge

import (
	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/money"
)

// Parameters is the immutable rule set fixed when a challenge is
// created: starting balance, drawdown limits and the profit target.
type Parameters struct {
	InitialBalance   money.Money
	MaxDailyDrawdown money.Percentage
	MaxTotalDrawdown money.Percentage
	ProfitTarget     money.Percentage
	ChallengeType    string
}

// NewParameters validates the rule set at construction. The balance
// must be positive and every bound non-zero; percentage range checks
// already happened inside money.Percentage.
func NewParameters(initialBalance money.Money, maxDailyDrawdown, maxTotalDrawdown, profitTarget money.Percentage, challengeType string) (Parameters, error) {
	if !initialBalance.IsPositive() {
		return Parameters{}, errors.Validationf("challenge: initial balance %s must be positive", initialBalance)
	}
	if maxDailyDrawdown.IsZero() {
		return Parameters{}, errors.Validationf("challenge: max daily drawdown must be non-zero")
	}
	if maxTotalDrawdown.IsZero() {
		return Parameters{}, errors.Validationf("challenge: max total drawdown must be non-zero")
	}
	if profitTarget.IsZero() {
		return Parameters{}, errors.Validationf("challenge: profit target must be non-zero")
	}
	if challengeType == "" {
		return Parameters{}, errors.Validationf("challenge: challenge type tag is required")
	}
	return Parameters{
		InitialBalance:   initialBalance,
		MaxDailyDrawdown: maxDailyDrawdown,
		MaxTotalDrawdown: maxTotalDrawdown,
		ProfitTarget:     profitTarget,
		ChallengeType:    challengeType,
	}, nil
}
