package risk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundedlabs/propcore/pkg/errors"
)

func TestProfileThresholdSet(t *testing.T) {
	p := NewProfile(uuid.New(), uuid.New())
	p.SetThreshold(MustThreshold(MetricTotalDrawdown, dec("8"), dec("10"), decPtr("12")))
	p.SetThreshold(MustThreshold(MetricDailyDrawdown, dec("3"), dec("5"), nil))

	th, ok := p.Threshold(MetricDailyDrawdown)
	require.True(t, ok)
	assert.True(t, th.Warning.Equal(dec("3")))

	_, ok = p.Threshold(MetricPnLVolatility)
	assert.False(t, ok)

	// One threshold per metric: setting again replaces.
	p.SetThreshold(MustThreshold(MetricDailyDrawdown, dec("2"), dec("4"), nil))
	th, _ = p.Threshold(MetricDailyDrawdown)
	assert.True(t, th.Warning.Equal(dec("2")))

	// Ordered iteration by metric type.
	all := p.Thresholds()
	require.Len(t, all, 2)
	assert.Equal(t, MetricDailyDrawdown, all[0].Metric)
	assert.Equal(t, MetricTotalDrawdown, all[1].Metric)
}

func TestProfileSymbolRestrictions(t *testing.T) {
	p := NewProfile(uuid.New(), uuid.New())
	assert.True(t, p.SymbolAllowed("EURUSD"), "empty allow list admits everything")

	p.ForbiddenSymbols["XAUUSD"] = struct{}{}
	assert.False(t, p.SymbolAllowed("XAUUSD"))

	p.AllowedSymbols["EURUSD"] = struct{}{}
	assert.True(t, p.SymbolAllowed("EURUSD"))
	assert.False(t, p.SymbolAllowed("GBPUSD"), "non-empty allow list excludes the rest")
}

func TestHoursWindow(t *testing.T) {
	w := HoursWindow{StartMinute: 8 * 60, EndMinute: 17 * 60}
	assert.True(t, w.Contains(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 3, 10, 7, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)), "end is exclusive")

	// Overnight session wrapping midnight.
	overnight := HoursWindow{StartMinute: 22 * 60, EndMinute: 6 * 60}
	assert.True(t, overnight.Contains(time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)))
	assert.True(t, overnight.Contains(time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)))
	assert.False(t, overnight.Contains(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestProfileOwnership(t *testing.T) {
	traderID, challengeID := uuid.New(), uuid.New()
	p := NewProfile(traderID, challengeID)

	require.NoError(t, p.OwnedBy(traderID, challengeID))

	err := p.OwnedBy(uuid.New(), challengeID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBusinessRuleViolation))
}

func TestPresets(t *testing.T) {
	traderID, challengeID := uuid.New(), uuid.New()

	p1 := PresetProfile(TypePhaseOne, traderID, challengeID)
	p2 := PresetProfile(TypePhaseTwo, traderID, challengeID)
	funded := PresetProfile(TypeFunded, traderID, challengeID)

	// Same drawdown bands across phases.
	d1, _ := p1.Threshold(MetricDailyDrawdown)
	d2, _ := p2.Threshold(MetricDailyDrawdown)
	assert.True(t, d1.Warning.Equal(d2.Warning))

	// Phase two sizes positions tighter than phase one.
	s1, _ := p1.Threshold(MetricPositionSize)
	s2, _ := p2.Threshold(MetricPositionSize)
	assert.True(t, s2.Critical.LessThan(s1.Critical))

	// Funded accounts have no daily trade cap and more leverage.
	assert.Zero(t, funded.MaxDailyTrades)
	assert.True(t, funded.MaxLeverage.GreaterThan(p1.MaxLeverage))
	assert.Zero(t, PresetLimits(TypeFunded).MaxTradesPerDay)
	assert.NotZero(t, PresetLimits(TypePhaseOne).MaxTradesPerDay)
}
