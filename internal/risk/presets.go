package risk

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/money"
)

// Challenge type tags for the stock profile presets.
const (
	TypePhaseOne Type = "PHASE_1"
	TypePhaseTwo Type = "PHASE_2"
	TypeFunded   Type = "FUNDED"
)

// Type tags the challenge phase a profile preset applies to.
type Type string

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// PresetProfile builds the stock risk profile for a challenge type.
// Unknown types get the PHASE_1 profile, the most conservative default.
func PresetProfile(t Type, traderID, challengeID uuid.UUID) *Profile {
	p := NewProfile(traderID, challengeID)
	p.SetThreshold(MustThreshold(MetricDailyDrawdown, dec("3"), dec("5"), decPtr("6")))
	p.SetThreshold(MustThreshold(MetricTotalDrawdown, dec("8"), dec("10"), decPtr("12")))
	p.SetThreshold(MustThreshold(MetricTradeVelocity, dec("50"), dec("80"), decPtr("100")))
	p.SetThreshold(MustThreshold(MetricPnLVolatility, dec("3"), dec("5"), decPtr("8")))

	switch t {
	case TypePhaseTwo:
		p.MaxDailyTrades = 100
		p.MaxPositionSizePct = money.MustPercentage("25")
		p.MaxLeverage = dec("5")
		p.SetThreshold(MustThreshold(MetricPositionSize, dec("15"), dec("20"), decPtr("25")))
		p.SetThreshold(MustThreshold(MetricTotalExposure, dec("40"), dec("60"), decPtr("80")))
	case TypeFunded:
		p.MaxDailyTrades = 0 // no daily cap for funded accounts
		p.MaxPositionSizePct = money.MustPercentage("50")
		p.MaxLeverage = dec("20")
		p.SetThreshold(MustThreshold(MetricPositionSize, dec("25"), dec("40"), decPtr("50")))
		p.SetThreshold(MustThreshold(MetricTotalExposure, dec("60"), dec("80"), decPtr("95")))
	default: // TypePhaseOne
		p.MaxDailyTrades = 100
		p.MaxPositionSizePct = money.MustPercentage("40")
		p.MaxLeverage = dec("10")
		p.SetThreshold(MustThreshold(MetricPositionSize, dec("20"), dec("30"), decPtr("40")))
		p.SetThreshold(MustThreshold(MetricTotalExposure, dec("50"), dec("70"), decPtr("90")))
	}
	return p
}

// PresetLimits builds the stock hard caps for a challenge type.
func PresetLimits(t Type) Limits {
	switch t {
	case TypePhaseTwo:
		return Limits{
			MaxDailyLossPct:    money.MustPercentage("5"),
			MaxTotalLossPct:    money.MustPercentage("10"),
			MaxPositionSizePct: money.MustPercentage("25"),
			MaxLeverage:        dec("5"),
			MaxTradesPerDay:    100,
			MaxTradesPerHour:   30,
		}
	case TypeFunded:
		return Limits{
			MaxDailyLossPct:    money.MustPercentage("5"),
			MaxTotalLossPct:    money.MustPercentage("10"),
			MaxPositionSizePct: money.MustPercentage("50"),
			MaxLeverage:        dec("20"),
			MaxTradesPerDay:    0,
			MaxTradesPerHour:   0,
		}
	default:
		return Limits{
			MaxDailyLossPct:    money.MustPercentage("5"),
			MaxTotalLossPct:    money.MustPercentage("10"),
			MaxPositionSizePct: money.MustPercentage("40"),
			MaxLeverage:        dec("10"),
			MaxTradesPerDay:    100,
			MaxTradesPerHour:   40,
		}
	}
}
