package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/money"
)

// Decision is the outcome of a pre-trade permission check.
type Decision struct {
	Allowed  bool
	Reason   string
	Severity Severity
}

func deny(severity Severity, format string, args ...interface{}) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...), Severity: severity}
}

// stricterPct picks the lower of two percentage caps; a zero cap means
// unset and defers to the other.
func stricterPct(a, b money.Percentage) money.Percentage {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.Value().LessThan(b.Value()):
		return a
	default:
		return b
	}
}

// stricterLeverage picks the lower of two leverage caps; a non-positive
// cap means unset and defers to the other.
func stricterLeverage(a, b decimal.Decimal) decimal.Decimal {
	switch {
	case !a.IsPositive():
		return b
	case !b.IsPositive():
		return a
	case a.LessThan(b):
		return a
	default:
		return b
	}
}

// EvaluateTradingPermission gates an intended order against the hard
// limits and the current risk state. It is a pure query: no counters,
// alerts or score state change.
func (e *Engine) EvaluateTradingPermission(symbol string, side string, quantity, price decimal.Decimal, at time.Time) Decision {
	if e.halted {
		return deny(SeverityCritical, "trading halted: %s", e.haltReason)
	}
	if !e.profile.SymbolAllowed(symbol) {
		return deny(SeverityCritical, "symbol %s is not permitted", symbol)
	}
	if !e.profile.WithinTradingHours(at) {
		return deny(SeverityWarning, "outside permitted trading hours")
	}
	if e.limits.MaxTradesPerDay > 0 && e.dailyTrades >= e.limits.MaxTradesPerDay {
		return deny(SeverityWarning, "daily trade limit %d reached", e.limits.MaxTradesPerDay)
	}
	if e.limits.MaxTradesPerHour > 0 && e.hourTrades >= e.limits.MaxTradesPerHour &&
		!e.hourStart.IsZero() && at.Sub(e.hourStart) < time.Hour {
		return deny(SeverityWarning, "hourly trade limit %d reached", e.limits.MaxTradesPerHour)
	}
	if !e.limits.MaxDailyLossPct.IsZero() {
		if loss := e.dailyLossPercent(); e.limits.MaxDailyLossPct.ExceededBy(loss) {
			return deny(SeverityCritical, "daily loss %s%% exceeds limit %s",
				loss.StringFixed(2), e.limits.MaxDailyLossPct)
		}
	}
	if !e.limits.MaxTotalLossPct.IsZero() && e.limits.MaxTotalLossPct.ExceededBy(e.currentDrawdown) {
		return deny(SeverityCritical, "drawdown %s%% exceeds limit %s",
			e.currentDrawdown.StringFixed(2), e.limits.MaxTotalLossPct)
	}
	notional := quantity.Mul(price)
	if sizeCap := stricterPct(e.profile.MaxPositionSizePct, e.limits.MaxPositionSizePct); !sizeCap.IsZero() && e.currentBalance.IsPositive() {
		pct := notional.Div(e.currentBalance.Amount()).Mul(decimal.NewFromInt(100))
		if sizeCap.ExceededBy(pct) {
			return deny(SeverityCritical, "position size %s%% exceeds limit %s",
				pct.StringFixed(2), sizeCap)
		}
	}
	if levCap := stricterLeverage(e.profile.MaxLeverage, e.limits.MaxLeverage); levCap.IsPositive() && e.currentBalance.IsPositive() {
		exposure := notional
		for _, pos := range e.openPositions {
			exposure = exposure.Add(pos.PositionValue.Amount())
		}
		leverage := exposure.Div(e.currentBalance.Amount())
		if leverage.GreaterThan(levCap) {
			return deny(SeverityCritical, "leverage %sx exceeds limit %sx",
				leverage.StringFixed(2), levCap)
		}
	}
	if e.score.Level == LevelExtreme {
		return deny(SeverityEmergency, "risk level is EXTREME (score %s)", e.score.Overall.StringFixed(0))
	}
	if e.score.Level == LevelHigh {
		return Decision{
			Allowed:  true,
			Reason:   fmt.Sprintf("risk level is HIGH (score %s)", e.score.Overall.StringFixed(0)),
			Severity: SeverityWarning,
		}
	}
	return Decision{Allowed: true, Severity: SeverityInfo}
}
