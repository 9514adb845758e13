package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel bands the composite score for consumers that want a coarse
// label instead of the raw number.
type RiskLevel string

const (
	LevelMinimal RiskLevel = "MINIMAL"
	LevelLow     RiskLevel = "LOW"
	LevelMedium  RiskLevel = "MEDIUM"
	LevelHigh    RiskLevel = "HIGH"
	LevelExtreme RiskLevel = "EXTREME"
)

// LevelFromScore maps a clipped [0,100] score onto its band:
// 0-20 MINIMAL, 21-40 LOW, 41-60 MEDIUM, 61-80 HIGH, 81-100 EXTREME.
func LevelFromScore(score decimal.Decimal) RiskLevel {
	switch {
	case score.LessThanOrEqual(decimal.NewFromInt(20)):
		return LevelMinimal
	case score.LessThanOrEqual(decimal.NewFromInt(40)):
		return LevelLow
	case score.LessThanOrEqual(decimal.NewFromInt(60)):
		return LevelMedium
	case score.LessThanOrEqual(decimal.NewFromInt(80)):
		return LevelHigh
	default:
		return LevelExtreme
	}
}

// Score is the latest composite risk snapshot. It is recomputed on
// every P&L event and never persisted as history.
type Score struct {
	Overall      decimal.Decimal
	Level        RiskLevel
	Components   map[MetricType]decimal.Decimal
	ActiveAlerts []Alert
	CalculatedAt time.Time
}

// Component weights and caps. Each component contributes at most its
// cap; absent components contribute zero.
var (
	capDrawdown      = decimal.NewFromInt(30)
	capConcentration = decimal.NewFromInt(25)
	capVelocity      = decimal.NewFromInt(20)
	capVolatility    = decimal.NewFromInt(15)
	capAlerts        = decimal.NewFromInt(10)

	// Normalisation anchors: 10% drawdown, 100 trades/day and 5% daily
	// volatility each saturate their component.
	normDrawdownPct  = decimal.NewFromInt(10)
	normTradesPerDay = decimal.NewFromInt(100)
	normVolatility   = decimal.NewFromInt(5)

	pointsPerAlert = decimal.NewFromInt(2)
	maxScore       = decimal.NewFromInt(100)
)

// cappedRatio scales value/norm into [0, cap].
func cappedRatio(value, norm, cap decimal.Decimal) decimal.Decimal {
	if norm.IsZero() {
		return decimal.Zero
	}
	scaled := value.Div(norm).Mul(cap)
	if scaled.IsNegative() {
		return decimal.Zero
	}
	if scaled.GreaterThan(cap) {
		return cap
	}
	return scaled
}

// clipScore bounds the weighted sum to [0, 100].
func clipScore(sum decimal.Decimal) decimal.Decimal {
	if sum.IsNegative() {
		return decimal.Zero
	}
	if sum.GreaterThan(maxScore) {
		return maxScore
	}
	return sum
}
