// Package errors defines the closed set of domain error kinds produced
// by the challenge and risk aggregates. Callers branch on the kind with
// errors.Is, never on message text.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Each failure returned by the core wraps exactly one of
// these sentinels.
var (
	// ErrValidation marks malformed input rejected before any state
	// mutation: negative balances, out-of-range percentages,
	// mis-ordered thresholds. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrInvalidChallengeState marks an attempt to mutate a terminal
	// (FAILED or FUNDED) challenge. Fatal for that aggregate.
	ErrInvalidChallengeState = errors.New("invalid challenge state")

	// ErrConcurrentTrade marks a trade whose timestamp is not strictly
	// greater than the last recorded one. Indicates an upstream
	// ordering bug; the caller must re-sequence, not retry.
	ErrConcurrentTrade = errors.New("concurrent trade")

	// ErrBusinessRuleViolation marks cross-aggregate mismatches, such
	// as a risk profile whose owner is not the engine's account.
	ErrBusinessRuleViolation = errors.New("business rule violation")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// InvalidChallengeStatef wraps ErrInvalidChallengeState.
func InvalidChallengeStatef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidChallengeState)...)
}

// ConcurrentTradef wraps ErrConcurrentTrade.
func ConcurrentTradef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConcurrentTrade)...)
}

// BusinessRuleViolationf wraps ErrBusinessRuleViolation.
func BusinessRuleViolationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrBusinessRuleViolation)...)
}

// Is reports whether err wraps the given kind. Thin alias so callers
// outside the module do not need a second errors import.
func Is(err, kind error) bool { return errors.Is(err, kind) }
