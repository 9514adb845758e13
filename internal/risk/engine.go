// Package risk implements the real-time risk engine: a second safety
// layer that watches raw trading activity and can halt an account
// before the challenge rules would trip. Like the challenge aggregate
// it is a pure, single-writer state machine with an event outbox.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/internal/domain"
	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/money"
)

// dailyReturnsWindow caps the rolling returns history used for
// volatility; volatility needs at least minVolatilitySamples entries.
const (
	dailyReturnsWindow   = 30
	minVolatilitySamples = 5
)

// Engine is the aggregate root scoring one account's live risk.
type Engine struct {
	domain.Outbox

	challengeID uuid.UUID
	traderID    uuid.UUID
	profile     *Profile
	limits      Limits

	currentBalance money.Money
	dailyPnL       money.Money
	totalPnL       money.Money

	openPositions map[string]domain.PositionEvent

	dailyTrades int
	totalTrades int
	hourStart   time.Time
	hourTrades  int

	peakBalance     money.Money
	currentDrawdown decimal.Decimal // percent decline from peak
	maxDrawdown     decimal.Decimal

	dailyReturns []decimal.Decimal // percent returns, newest last

	halted     bool
	haltReason string
	haltedAt   time.Time

	score        Score
	activeAlerts map[string]Alert

	currentDate time.Time // UTC midnight of the day in progress
}

// NewEngine builds an engine for one account. The profile must be
// owned by the same account; a mismatch is a business rule violation.
func NewEngine(traderID, challengeID uuid.UUID, initialBalance money.Money, profile *Profile, limits Limits) (*Engine, error) {
	if !initialBalance.IsPositive() {
		return nil, errors.Validationf("risk engine: initial balance %s must be positive", initialBalance)
	}
	if profile == nil {
		return nil, errors.Validationf("risk engine: profile is required")
	}
	if err := profile.OwnedBy(traderID, challengeID); err != nil {
		return nil, err
	}
	return &Engine{
		challengeID:    challengeID,
		traderID:       traderID,
		profile:        profile,
		limits:         limits,
		currentBalance: initialBalance,
		dailyPnL:       money.Zero(initialBalance.Currency()),
		totalPnL:       money.Zero(initialBalance.Currency()),
		peakBalance:    initialBalance,
		openPositions:  map[string]domain.PositionEvent{},
		activeAlerts:   map[string]Alert{},
		score: Score{
			Level:      LevelMinimal,
			Components: map[MetricType]decimal.Decimal{},
		},
	}, nil
}

func (e *Engine) ChallengeID() uuid.UUID  { return e.challengeID }
func (e *Engine) TraderID() uuid.UUID     { return e.traderID }
func (e *Engine) CurrentBalance() money.Money { return e.currentBalance }
func (e *Engine) PeakBalance() money.Money    { return e.peakBalance }
func (e *Engine) CurrentDrawdown() decimal.Decimal { return e.currentDrawdown }
func (e *Engine) MaxDrawdown() decimal.Decimal     { return e.maxDrawdown }
func (e *Engine) DailyTrades() int        { return e.dailyTrades }
func (e *Engine) TotalTrades() int        { return e.totalTrades }
func (e *Engine) IsTradingHalted() bool   { return e.halted }
func (e *Engine) HaltReason() string      { return e.haltReason }
func (e *Engine) Score() Score            { return e.score }

// OpenPositions returns a copy of the position snapshot map.
func (e *Engine) OpenPositions() map[string]domain.PositionEvent {
	out := make(map[string]domain.PositionEvent, len(e.openPositions))
	for k, v := range e.openPositions {
		out[k] = v
	}
	return out
}

// ActiveAlerts returns the active alerts, unordered.
func (e *Engine) ActiveAlerts() []Alert {
	out := make([]Alert, 0, len(e.activeAlerts))
	for _, a := range e.activeAlerts {
		out = append(out, a)
	}
	return out
}

// ProcessTradeEvent counts the fill and evaluates trading-velocity,
// symbol and trading-hours restrictions.
func (e *Engine) ProcessTradeEvent(trade domain.TradeEvent) error {
	if trade.Symbol == "" {
		return errors.Validationf("risk engine: trade symbol is required")
	}
	e.rollDay(trade.ExecutedAt)

	if e.hourStart.IsZero() || trade.ExecutedAt.Sub(e.hourStart) >= time.Hour {
		e.hourStart = trade.ExecutedAt
		e.hourTrades = 0
	}
	e.hourTrades++
	e.dailyTrades++
	e.totalTrades++

	if th, ok := e.profile.Threshold(MetricTradeVelocity); ok {
		count := decimal.NewFromInt(int64(e.dailyTrades))
		e.raiseIfBreached(th, count, dailyAlertID(MetricTradeVelocity, e.currentDate),
			fmt.Sprintf("%d trades today", e.dailyTrades), trade.ExecutedAt)
	}
	if e.profile.MaxDailyTrades > 0 && e.dailyTrades > e.profile.MaxDailyTrades {
		e.raiseAlert(Alert{
			ID:          capAlertID(MetricTradeVelocity, e.currentDate),
			Metric:      MetricTradeVelocity,
			Severity:    SeverityCritical,
			Value:       decimal.NewFromInt(int64(e.dailyTrades)),
			Message:     fmt.Sprintf("daily trade cap %d exceeded", e.profile.MaxDailyTrades),
			TriggeredAt: trade.ExecutedAt,
		})
	}
	if !e.profile.SymbolAllowed(trade.Symbol) {
		e.raiseAlert(Alert{
			ID:          symbolAlertID(MetricSymbolRestriction, trade.Symbol),
			Metric:      MetricSymbolRestriction,
			Severity:    SeverityCritical,
			Value:       decimal.NewFromInt(1),
			Message:     fmt.Sprintf("trade in restricted symbol %s", trade.Symbol),
			TriggeredAt: trade.ExecutedAt,
		})
	}
	if !e.profile.WithinTradingHours(trade.ExecutedAt) {
		e.raiseAlert(Alert{
			ID:          dailyAlertID(MetricTradingHours, e.currentDate),
			Metric:      MetricTradingHours,
			Severity:    SeverityWarning,
			Value:       decimal.NewFromInt(1),
			Message:     "trade outside permitted trading hours",
			TriggeredAt: trade.ExecutedAt,
		})
	}
	return nil
}

// ProcessPositionEvent maintains the open-position snapshot map
// (replace on update, delete on close) and evaluates position-size and
// aggregate-exposure thresholds.
func (e *Engine) ProcessPositionEvent(pos domain.PositionEvent) error {
	if pos.Symbol == "" {
		return errors.Validationf("risk engine: position symbol is required")
	}
	if pos.EventType == domain.PositionClosed {
		delete(e.openPositions, pos.Symbol)
		e.resolveAlert(symbolAlertID(MetricPositionSize, pos.Symbol), pos.OccurredAt)
		return nil
	}
	e.openPositions[pos.Symbol] = pos

	if th, ok := e.profile.Threshold(MetricPositionSize); ok {
		pct, err := pos.PositionValue.PercentOf(e.currentBalance)
		if err != nil {
			return err
		}
		e.raiseIfBreached(th, pct, symbolAlertID(MetricPositionSize, pos.Symbol),
			fmt.Sprintf("position %s is %s%% of balance", pos.Symbol, pct.StringFixed(2)), pos.OccurredAt)
	}
	if th, ok := e.profile.Threshold(MetricTotalExposure); ok {
		pct, err := e.totalExposurePercent()
		if err != nil {
			return err
		}
		e.raiseIfBreached(th, pct, string(MetricTotalExposure),
			fmt.Sprintf("aggregate exposure is %s%% of balance", pct.StringFixed(2)), pos.OccurredAt)
	}
	return nil
}

// ProcessPnLEvent updates balance and drawdown bookkeeping, extends the
// rolling returns window, evaluates drawdown and volatility thresholds
// and recomputes the composite score.
func (e *Engine) ProcessPnLEvent(pnl domain.PnLEvent) error {
	if pnl.CurrentBalance.Currency() != e.currentBalance.Currency() {
		return errors.Validationf("risk engine: balance currency %s does not match account currency %s",
			pnl.CurrentBalance.Currency(), e.currentBalance.Currency())
	}
	e.rollDay(pnl.EventDate)

	e.currentBalance = pnl.CurrentBalance
	e.dailyPnL = pnl.DailyPnL
	e.totalPnL = pnl.TotalPnL
	e.peakBalance, _ = e.peakBalance.Max(e.currentBalance)

	if drop, err := e.peakBalance.Sub(e.currentBalance); err == nil && drop.IsPositive() {
		if pct, err := drop.PercentOf(e.peakBalance); err == nil {
			e.currentDrawdown = pct
		}
	} else {
		e.currentDrawdown = decimal.Zero
	}
	if e.currentDrawdown.GreaterThan(e.maxDrawdown) {
		e.maxDrawdown = e.currentDrawdown
	}

	e.appendDailyReturn()

	if th, ok := e.profile.Threshold(MetricDailyDrawdown); ok {
		pct := e.dailyLossPercent()
		level := e.raiseIfBreached(th, pct, dailyAlertID(MetricDailyDrawdown, e.currentDate),
			fmt.Sprintf("daily loss is %s%%", pct.StringFixed(2)), pnl.EventDate)
		if level == SeverityEmergency {
			e.haltAt(fmt.Sprintf("emergency daily drawdown %s%%", pct.StringFixed(2)),
				SeverityEmergency, MetricDailyDrawdown, pct, pnl.EventDate)
		}
	}
	if th, ok := e.profile.Threshold(MetricTotalDrawdown); ok {
		level := e.raiseIfBreached(th, e.currentDrawdown, string(MetricTotalDrawdown),
			fmt.Sprintf("drawdown from peak is %s%%", e.currentDrawdown.StringFixed(2)), pnl.EventDate)
		if level == SeverityEmergency {
			e.haltAt(fmt.Sprintf("emergency total drawdown %s%%", e.currentDrawdown.StringFixed(2)),
				SeverityEmergency, MetricTotalDrawdown, e.currentDrawdown, pnl.EventDate)
		}
	}
	if th, ok := e.profile.Threshold(MetricPnLVolatility); ok && len(e.dailyReturns) >= minVolatilitySamples {
		vol := e.volatilityPercent()
		e.raiseIfBreached(th, vol, string(MetricPnLVolatility),
			fmt.Sprintf("daily return volatility is %s%%", vol.StringFixed(2)), pnl.EventDate)
	}

	e.recomputeScore(pnl.EventDate)
	return nil
}

// HaltTrading suspends trading. Calling it while already halted is a
// no-op: exactly one TradingHalted event per halt.
func (e *Engine) HaltTrading(reason string, severity Severity) {
	e.haltAt(reason, severity, MetricManualHalt, decimal.Zero, time.Now().UTC())
}

func (e *Engine) haltAt(reason string, severity Severity, metric MetricType, value decimal.Decimal, at time.Time) {
	if e.halted {
		return
	}
	e.halted = true
	e.haltReason = reason
	e.haltedAt = at
	e.Record(domain.TradingHalted{
		EventMeta: domain.NewEventMeta(e.challengeID, e.traderID, at),
		Reason:    reason,
		Severity:  severity.String(),
	})
	if severity == SeverityEmergency {
		e.Record(domain.EmergencyRiskEvent{
			EventMeta:                  domain.NewEventMeta(e.challengeID, e.traderID, at),
			Metric:                     string(metric),
			Value:                      value,
			Message:                    reason,
			RequiresManualIntervention: true,
		})
	}
}

// ResumeTrading lifts the halt and reports how long it lasted. Calling
// it while not halted is a no-op.
func (e *Engine) ResumeTrading(reason string) {
	if !e.halted {
		return
	}
	now := time.Now().UTC()
	duration := now.Sub(e.haltedAt)
	e.halted = false
	e.haltReason = ""
	e.haltedAt = time.Time{}
	e.Record(domain.TradingResumed{
		EventMeta:       domain.NewEventMeta(e.challengeID, e.traderID, now),
		Reason:          reason,
		HaltDurationSec: duration.Seconds(),
	})
}

// ApplyProfile swaps in a new threshold configuration for the same
// account and announces the change.
func (e *Engine) ApplyProfile(profile *Profile, challengeType Type) error {
	if profile == nil {
		return errors.Validationf("risk engine: profile is required")
	}
	if err := profile.OwnedBy(e.traderID, e.challengeID); err != nil {
		return err
	}
	e.profile = profile
	e.Record(domain.RiskProfileUpdated{
		EventMeta:     domain.NewEventMeta(e.challengeID, e.traderID, time.Now().UTC()),
		ChallengeType: string(challengeType),
	})
	return nil
}

// rollDay resets daily counters when the event moves to a later UTC
// day, resolving the previous day's daily-scoped alerts.
func (e *Engine) rollDay(at time.Time) {
	day := utcDay(at)
	if !day.After(e.currentDate) {
		return
	}
	if !e.currentDate.IsZero() {
		for id := range e.activeAlerts {
			if isDailyScoped(id, e.currentDate) {
				e.resolveAlert(id, at)
			}
		}
	}
	e.dailyTrades = 0
	e.dailyPnL = money.Zero(e.currentBalance.Currency())
	e.currentDate = day
}

// raiseIfBreached evaluates a threshold and raises the matching alert,
// returning the severity tier the value reached.
func (e *Engine) raiseIfBreached(th Threshold, value decimal.Decimal, id, message string, at time.Time) Severity {
	level := th.EvaluateLevel(value)
	if level == SeverityInfo {
		return level
	}
	e.raiseAlert(Alert{
		ID:          id,
		Metric:      th.Metric,
		Severity:    level,
		Value:       value,
		Message:     message,
		TriggeredAt: at,
	})
	return level
}

// raiseAlert inserts or escalates an alert. Re-raising the same ID at
// an unchanged severity is a no-op.
func (e *Engine) raiseAlert(a Alert) {
	if existing, ok := e.activeAlerts[a.ID]; ok && existing.Severity == a.Severity {
		return
	}
	e.activeAlerts[a.ID] = a
	e.Record(domain.RiskAlertTriggered{
		EventMeta: domain.NewEventMeta(e.challengeID, e.traderID, a.TriggeredAt),
		AlertID:   a.ID,
		Metric:    string(a.Metric),
		Severity:  a.Severity.String(),
		Value:     a.Value,
		Message:   a.Message,
	})
}

// resolveAlert removes an active alert and announces the resolution.
// Unknown IDs are a no-op.
func (e *Engine) resolveAlert(id string, at time.Time) {
	alert, ok := e.activeAlerts[id]
	if !ok {
		return
	}
	delete(e.activeAlerts, id)
	e.Record(domain.RiskAlertResolved{
		EventMeta: domain.NewEventMeta(e.challengeID, e.traderID, at),
		AlertID:   id,
		Metric:    string(alert.Metric),
		Duration:  at.Sub(alert.TriggeredAt),
	})
}

// appendDailyReturn pushes the day's percent return into the rolling
// window, evicting the oldest entry past the cap.
func (e *Engine) appendDailyReturn() {
	base, err := e.currentBalance.Sub(e.dailyPnL)
	if err != nil || !base.IsPositive() {
		return
	}
	pct, err := e.dailyPnL.PercentOf(base)
	if err != nil {
		return
	}
	e.dailyReturns = append(e.dailyReturns, pct)
	if len(e.dailyReturns) > dailyReturnsWindow {
		e.dailyReturns = e.dailyReturns[len(e.dailyReturns)-dailyReturnsWindow:]
	}
}

// dailyLossPercent is the day's loss as a positive percentage of the
// day-start balance; profit days yield zero.
func (e *Engine) dailyLossPercent() decimal.Decimal {
	if !e.dailyPnL.IsNegative() {
		return decimal.Zero
	}
	base, err := e.currentBalance.Sub(e.dailyPnL)
	if err != nil || !base.IsPositive() {
		return decimal.Zero
	}
	pct, err := e.dailyPnL.PercentOf(base)
	if err != nil {
		return decimal.Zero
	}
	return pct.Abs()
}

// volatilityPercent is the standard deviation of the rolling daily
// returns. Statistics tolerate float math; money never does.
func (e *Engine) volatilityPercent() decimal.Decimal {
	n := len(e.dailyReturns)
	if n < 2 {
		return decimal.Zero
	}
	var sum float64
	samples := make([]float64, n)
	for i, r := range e.dailyReturns {
		samples[i] = r.InexactFloat64()
		sum += samples[i]
	}
	mean := sum / float64(n)
	var variance float64
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(n)
	return decimal.NewFromFloat(math.Sqrt(variance))
}

// totalExposurePercent sums open position values as a percentage of
// the current balance.
func (e *Engine) totalExposurePercent() (decimal.Decimal, error) {
	total := money.Zero(e.currentBalance.Currency())
	for _, pos := range e.openPositions {
		next, err := total.Add(pos.PositionValue)
		if err != nil {
			return decimal.Zero, err
		}
		total = next
	}
	return total.PercentOf(e.currentBalance)
}

// largestPositionPercent is the single biggest open position's share
// of the balance, or zero with no positions.
func (e *Engine) largestPositionPercent() decimal.Decimal {
	largest := decimal.Zero
	for _, pos := range e.openPositions {
		pct, err := pos.PositionValue.PercentOf(e.currentBalance)
		if err != nil {
			continue
		}
		if pct.GreaterThan(largest) {
			largest = pct
		}
	}
	return largest
}

// recomputeScore rebuilds the composite score from the weighted,
// capped components and emits the snapshot event.
func (e *Engine) recomputeScore(at time.Time) {
	components := map[MetricType]decimal.Decimal{}

	components[MetricTotalDrawdown] = cappedRatio(e.currentDrawdown, normDrawdownPct, capDrawdown)

	if len(e.openPositions) > 0 {
		concentration := e.largestPositionPercent()
		if concentration.GreaterThan(capConcentration) {
			concentration = capConcentration
		}
		components[MetricPositionSize] = concentration
	}

	components[MetricTradeVelocity] = cappedRatio(
		decimal.NewFromInt(int64(e.dailyTrades)), normTradesPerDay, capVelocity)

	if len(e.dailyReturns) >= minVolatilitySamples {
		components[MetricPnLVolatility] = cappedRatio(e.volatilityPercent(), normVolatility, capVolatility)
	}

	alertPoints := pointsPerAlert.Mul(decimal.NewFromInt(int64(len(e.activeAlerts))))
	if alertPoints.GreaterThan(capAlerts) {
		alertPoints = capAlerts
	}
	components[MetricActiveAlerts] = alertPoints

	sum := decimal.Zero
	for _, c := range components {
		sum = sum.Add(c)
	}
	overall := clipScore(sum)

	e.score = Score{
		Overall:      overall,
		Level:        LevelFromScore(overall),
		Components:   components,
		ActiveAlerts: e.ActiveAlerts(),
		CalculatedAt: at,
	}

	snapshot := make(map[string]decimal.Decimal, len(components))
	for k, v := range components {
		snapshot[string(k)] = v
	}
	e.Record(domain.RiskScoreCalculated{
		EventMeta:    domain.NewEventMeta(e.challengeID, e.traderID, at),
		OverallScore: overall,
		RiskLevel:    string(e.score.Level),
		Components:   snapshot,
		ActiveAlerts: len(e.activeAlerts),
	})
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
