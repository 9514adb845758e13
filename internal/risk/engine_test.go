package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundedlabs/propcore/internal/domain"
	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/money"
)

var engineDay = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	traderID, challengeID := uuid.New(), uuid.New()
	profile := PresetProfile(TypePhaseOne, traderID, challengeID)
	eng, err := NewEngine(traderID, challengeID,
		money.MustNew(decimal.NewFromInt(10000), "USD"),
		profile, PresetLimits(TypePhaseOne))
	require.NoError(t, err)
	return eng
}

func engineTrade(symbol string, at time.Time) domain.TradeEvent {
	return domain.TradeEvent{
		Symbol:      symbol,
		Side:        domain.SideBuy,
		Quantity:    decimal.NewFromInt(1),
		Price:       decimal.NewFromInt(100),
		RealizedPnL: money.MustNew(decimal.Zero, "USD"),
		Commission:  money.MustNew(decimal.NewFromInt(1), "USD"),
		ExecutedAt:  at,
	}
}

func pnlEvent(balance, dailyPnL string, date time.Time) domain.PnLEvent {
	return domain.PnLEvent{
		CurrentBalance: money.MustNew(decimal.RequireFromString(balance), "USD"),
		DailyPnL:       money.MustNew(decimal.RequireFromString(dailyPnL), "USD"),
		TotalPnL:       money.MustNew(decimal.Zero, "USD"),
		UnrealizedPnL:  money.MustNew(decimal.Zero, "USD"),
		EventDate:      date,
	}
}

func positionEvent(symbol, value string, eventType domain.PositionEventType, at time.Time) domain.PositionEvent {
	return domain.PositionEvent{
		Symbol:        symbol,
		Side:          domain.SideBuy,
		Quantity:      decimal.NewFromInt(1),
		EntryPrice:    decimal.RequireFromString(value),
		CurrentPrice:  decimal.RequireFromString(value),
		UnrealizedPnL: money.MustNew(decimal.Zero, "USD"),
		PositionValue: money.MustNew(decimal.RequireFromString(value), "USD"),
		EventType:     eventType,
		OccurredAt:    at,
	}
}

func eventsOfType(events []domain.Event, et domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func TestNewEngineValidation(t *testing.T) {
	traderID, challengeID := uuid.New(), uuid.New()
	profile := PresetProfile(TypePhaseOne, traderID, challengeID)

	_, err := NewEngine(traderID, challengeID, money.MustNew(decimal.Zero, "USD"), profile, PresetLimits(TypePhaseOne))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = NewEngine(uuid.New(), challengeID, money.MustNew(decimal.NewFromInt(10000), "USD"), profile, PresetLimits(TypePhaseOne))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBusinessRuleViolation))
}

func TestHaltIdempotent(t *testing.T) {
	eng := newTestEngine(t)
	eng.HaltTrading("manual risk review", SeverityCritical)
	eng.HaltTrading("manual risk review", SeverityCritical)

	assert.True(t, eng.IsTradingHalted())
	halts := eventsOfType(eng.Drain(), domain.EvtTradingHalted)
	assert.Len(t, halts, 1, "double halt must emit exactly one TradingHalted")
}

func TestEmergencyHaltEmitsEmergencyEvent(t *testing.T) {
	eng := newTestEngine(t)
	eng.HaltTrading("catastrophic exposure", SeverityEmergency)

	events := eng.Drain()
	require.Len(t, eventsOfType(events, domain.EvtTradingHalted), 1)
	emergencies := eventsOfType(events, domain.EvtEmergencyRisk)
	require.Len(t, emergencies, 1)
	emergency := emergencies[0].(domain.EmergencyRiskEvent)
	assert.True(t, emergency.RequiresManualIntervention)
	assert.Equal(t, string(MetricManualHalt), emergency.Metric)
}

func TestResumeTrading(t *testing.T) {
	eng := newTestEngine(t)
	eng.HaltTrading("daily loss cap", SeverityCritical)
	eng.Drain()

	eng.ResumeTrading("operator cleared")
	assert.False(t, eng.IsTradingHalted())
	resumes := eventsOfType(eng.Drain(), domain.EvtTradingResumed)
	require.Len(t, resumes, 1)
	assert.GreaterOrEqual(t, resumes[0].(domain.TradingResumed).HaltDurationSec, 0.0)

	// Resuming an engine that is not halted is a no-op.
	eng.ResumeTrading("again")
	assert.Empty(t, eng.Drain())
}

func TestEmergencyDrawdownAutoHalts(t *testing.T) {
	eng := newTestEngine(t)

	// A 7% daily loss is past the 6% emergency tier.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9300", "-700", engineDay)))

	assert.True(t, eng.IsTradingHalted())
	events := eng.Drain()
	assert.Len(t, eventsOfType(events, domain.EvtTradingHalted), 1)
	assert.NotEmpty(t, eventsOfType(events, domain.EvtRiskScoreCalculated))

	emergencies := eventsOfType(events, domain.EvtEmergencyRisk)
	require.Len(t, emergencies, 1)
	emergency := emergencies[0].(domain.EmergencyRiskEvent)
	assert.Equal(t, string(MetricDailyDrawdown), emergency.Metric)
	assert.Equal(t, "7", emergency.Value.String())

	var found bool
	for _, e := range eventsOfType(events, domain.EvtRiskAlertTriggered) {
		alert := e.(domain.RiskAlertTriggered)
		if alert.Metric == string(MetricDailyDrawdown) {
			found = true
			assert.Equal(t, "EMERGENCY", alert.Severity)
		}
	}
	assert.True(t, found, "expected an EMERGENCY daily drawdown alert")
}

func TestAlertDeduplication(t *testing.T) {
	eng := newTestEngine(t)

	// 3.5% daily loss sits in the warning band.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9650", "-350", engineDay)))
	first := eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered)
	require.Len(t, first, 1)

	// Same alert, same severity: no re-trigger.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9640", "-360", engineDay.Add(time.Hour))))
	assert.Empty(t, eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered))

	// Escalation to critical re-emits.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9480", "-520", engineDay.Add(2*time.Hour))))
	escalated := eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered)
	require.Len(t, escalated, 1)
	assert.Equal(t, "CRITICAL", escalated[0].(domain.RiskAlertTriggered).Severity)
}

func TestDailyResetResolvesDailyAlerts(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9650", "-350", engineDay)))
	require.NotEmpty(t, eng.ActiveAlerts())
	eng.Drain()

	nextDay := engineDay.AddDate(0, 0, 1)
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9650", "0", nextDay)))

	resolved := eventsOfType(eng.Drain(), domain.EvtRiskAlertResolved)
	require.Len(t, resolved, 1)
	resolution := resolved[0].(domain.RiskAlertResolved)
	assert.Equal(t, string(MetricDailyDrawdown), resolution.Metric)
	assert.Greater(t, resolution.Duration, time.Duration(0))
	assert.Empty(t, eng.ActiveAlerts())
	assert.Zero(t, eng.DailyTrades())
}

func TestDailyCapAlertResolvedOnReset(t *testing.T) {
	eng := newTestEngine(t)
	eng.profile.MaxDailyTrades = 2
	for i := 0; i < 3; i++ {
		require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.Add(time.Duration(i)*time.Minute))))
	}
	require.NotEmpty(t, eng.ActiveAlerts())
	eng.Drain()

	require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.AddDate(0, 0, 1))))

	resolved := eventsOfType(eng.Drain(), domain.EvtRiskAlertResolved)
	require.Len(t, resolved, 1)
	resolution := resolved[0].(domain.RiskAlertResolved)
	assert.Equal(t, capAlertID(MetricTradeVelocity, engineDay), resolution.AlertID)
	assert.Empty(t, eng.ActiveAlerts(), "cap alert must not survive the daily reset")
}

func TestTradeCountersAndDailyReset(t *testing.T) {
	eng := newTestEngine(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.Add(time.Duration(i)*time.Minute))))
	}
	assert.Equal(t, 3, eng.DailyTrades())
	assert.Equal(t, 3, eng.TotalTrades())

	require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.AddDate(0, 0, 1))))
	assert.Equal(t, 1, eng.DailyTrades())
	assert.Equal(t, 4, eng.TotalTrades())
}

func TestTradeVelocityAlert(t *testing.T) {
	eng := newTestEngine(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.Add(time.Duration(i)*time.Second))))
	}

	var velocity *domain.RiskAlertTriggered
	for _, e := range eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered) {
		alert := e.(domain.RiskAlertTriggered)
		if alert.Metric == string(MetricTradeVelocity) {
			velocity = &alert
		}
	}
	require.NotNil(t, velocity, "50 trades reaches the velocity warning tier")
	assert.Equal(t, "WARNING", velocity.Severity)
}

func TestSymbolRestrictionAlert(t *testing.T) {
	eng := newTestEngine(t)
	eng.profile.ForbiddenSymbols["XAUUSD"] = struct{}{}

	require.NoError(t, eng.ProcessTradeEvent(engineTrade("XAUUSD", engineDay)))

	alerts := eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered)
	require.Len(t, alerts, 1)
	alert := alerts[0].(domain.RiskAlertTriggered)
	assert.Equal(t, string(MetricSymbolRestriction), alert.Metric)
	assert.Equal(t, "CRITICAL", alert.Severity)
}

func TestTradingHoursAlert(t *testing.T) {
	eng := newTestEngine(t)
	eng.profile.TradingHours = &HoursWindow{StartMinute: 8 * 60, EndMinute: 17 * 60}

	afterHours := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
	require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", afterHours)))

	alerts := eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered)
	require.Len(t, alerts, 1)
	assert.Equal(t, string(MetricTradingHours), alerts[0].(domain.RiskAlertTriggered).Metric)
}

func TestPositionLifecycle(t *testing.T) {
	eng := newTestEngine(t)

	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "1000", domain.PositionOpened, engineDay)))
	require.Len(t, eng.OpenPositions(), 1)

	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "1400", domain.PositionUpdated, engineDay.Add(time.Minute))))
	positions := eng.OpenPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, "1400", positions["EURUSD"].PositionValue.Amount().String())

	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "1400", domain.PositionClosed, engineDay.Add(2*time.Minute))))
	assert.Empty(t, eng.OpenPositions())
}

func TestPositionSizeAlert(t *testing.T) {
	eng := newTestEngine(t)

	// 45% of a 10000 balance is past the 40% emergency tier.
	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "4500", domain.PositionOpened, engineDay)))

	var sized *domain.RiskAlertTriggered
	for _, e := range eventsOfType(eng.Drain(), domain.EvtRiskAlertTriggered) {
		alert := e.(domain.RiskAlertTriggered)
		if alert.Metric == string(MetricPositionSize) {
			sized = &alert
		}
	}
	require.NotNil(t, sized)
	assert.Equal(t, "EMERGENCY", sized.Severity)
}

func TestPositionCloseResolvesSizeAlert(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "4500", domain.PositionOpened, engineDay)))
	require.NotEmpty(t, eng.ActiveAlerts())
	eng.Drain()

	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "4500", domain.PositionClosed, engineDay.Add(time.Hour))))

	resolved := eventsOfType(eng.Drain(), domain.EvtRiskAlertResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, string(MetricPositionSize), resolved[0].(domain.RiskAlertResolved).Metric)
	assert.Empty(t, eng.ActiveAlerts())
}

func TestVolatilityNeedsFiveSamples(t *testing.T) {
	eng := newTestEngine(t)

	// Four alternating days: no volatility component yet.
	day := engineDay
	balances := []string{"10100", "9950", "10150", "9900"}
	pnls := []string{"100", "-150", "200", "-250"}
	for i := range balances {
		require.NoError(t, eng.ProcessPnLEvent(pnlEvent(balances[i], pnls[i], day)))
		day = day.AddDate(0, 0, 1)
	}
	_, ok := eng.Score().Components[MetricPnLVolatility]
	assert.False(t, ok)

	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("10200", "300", day)))
	_, ok = eng.Score().Components[MetricPnLVolatility]
	assert.True(t, ok, "fifth sample enables the volatility component")
}

func TestApplyProfile(t *testing.T) {
	eng := newTestEngine(t)

	replacement := PresetProfile(TypePhaseTwo, eng.TraderID(), eng.ChallengeID())
	require.NoError(t, eng.ApplyProfile(replacement, TypePhaseTwo))
	updates := eventsOfType(eng.Drain(), domain.EvtRiskProfileUpdated)
	require.Len(t, updates, 1)

	foreign := PresetProfile(TypePhaseTwo, uuid.New(), uuid.New())
	err := eng.ApplyProfile(foreign, TypePhaseTwo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBusinessRuleViolation))
}

// buildElevatedEngine drives an engine into a high-scoring state:
// 10% drawdown from peak, heavy trade velocity and a concentrated
// position.
func buildElevatedEngine(t *testing.T, positionValue string) *Engine {
	t.Helper()
	eng := newTestEngine(t)

	// Lift the peak to 11000 first.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("11000", "1000", engineDay)))

	for i := 0; i < 100; i++ {
		require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", positionValue, domain.PositionOpened, engineDay.Add(time.Hour))))

	// Balance 9900 against an 11000 peak is a 10% drawdown; the small
	// daily loss stays under the daily alert tiers.
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9900", "-100", engineDay.Add(2*time.Hour))))
	return eng
}

func TestScoreHighBand(t *testing.T) {
	eng := buildElevatedEngine(t, "1500")
	score := eng.Score()

	assert.Equal(t, LevelHigh, score.Level, "score %s", score.Overall)
	assert.True(t, score.Overall.GreaterThan(decimal.NewFromInt(60)))
	assert.True(t, score.Overall.LessThanOrEqual(decimal.NewFromInt(80)))
}

func TestScoreExtremeBand(t *testing.T) {
	eng := newTestEngine(t)
	eng.profile.ForbiddenSymbols["XAUUSD"] = struct{}{}

	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("11000", "1000", engineDay)))
	for i := 0; i < 100; i++ {
		require.NoError(t, eng.ProcessTradeEvent(engineTrade("EURUSD", engineDay.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, eng.ProcessTradeEvent(engineTrade("XAUUSD", engineDay.Add(5*time.Minute))))
	require.NoError(t, eng.ProcessPositionEvent(positionEvent("EURUSD", "3500", domain.PositionOpened, engineDay.Add(time.Hour))))
	require.NoError(t, eng.ProcessPnLEvent(pnlEvent("9900", "-100", engineDay.Add(2*time.Hour))))

	score := eng.Score()
	assert.Equal(t, LevelExtreme, score.Level, "score %s", score.Overall)
	assert.False(t, eng.IsTradingHalted(), "extreme score alone does not halt")
}

func TestScoreAlwaysWithinBounds(t *testing.T) {
	fresh := newTestEngine(t)
	require.NoError(t, fresh.ProcessPnLEvent(pnlEvent("10000", "0", engineDay)))
	score := fresh.Score()
	assert.False(t, score.Overall.IsNegative())
	assert.Equal(t, LevelMinimal, score.Level)

	// Saturate every component: the clipped sum still fits [0, 100].
	maxed := buildElevatedEngine(t, "9900")
	for i := 0; i < 5; i++ {
		day := engineDay.AddDate(0, 0, i+1)
		balance := fmt.Sprintf("%d", 9900-i*500)
		require.NoError(t, maxed.ProcessPnLEvent(pnlEvent(balance, "-500", day)))
	}
	score = maxed.Score()
	assert.False(t, score.Overall.GreaterThan(decimal.NewFromInt(100)))
	assert.False(t, score.Overall.IsNegative())
}
