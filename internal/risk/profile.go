package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/money"
)

// HoursWindow restricts trading to a UTC time-of-day window, expressed
// in minutes from midnight. Windows may wrap midnight (start > end).
type HoursWindow struct {
	StartMinute int
	EndMinute   int
}

// Contains reports whether the UTC time-of-day of t falls inside the
// window. The end minute is exclusive.
func (w HoursWindow) Contains(t time.Time) bool {
	u := t.UTC()
	m := u.Hour()*60 + u.Minute()
	if w.StartMinute <= w.EndMinute {
		return m >= w.StartMinute && m < w.EndMinute
	}
	return m >= w.StartMinute || m < w.EndMinute
}

// Profile is the declarative alerting configuration for one account:
// one threshold per metric plus trade-rate, sizing and symbol
// restrictions. Thresholds are an ordered set keyed by metric type.
type Profile struct {
	TraderID    uuid.UUID
	ChallengeID uuid.UUID

	thresholds *btree.BTreeG[Threshold]

	MaxDailyTrades     int // 0 means uncapped
	MaxPositionSizePct money.Percentage
	MaxLeverage        decimal.Decimal
	AllowedSymbols     map[string]struct{} // empty means all symbols allowed
	ForbiddenSymbols   map[string]struct{}
	TradingHours       *HoursWindow // nil means unrestricted
}

func thresholdLess(a, b Threshold) bool { return a.Metric < b.Metric }

// NewProfile creates an empty profile owned by the given account.
func NewProfile(traderID, challengeID uuid.UUID) *Profile {
	return &Profile{
		TraderID:         traderID,
		ChallengeID:      challengeID,
		thresholds:       btree.NewBTreeG(thresholdLess),
		AllowedSymbols:   map[string]struct{}{},
		ForbiddenSymbols: map[string]struct{}{},
	}
}

// SetThreshold inserts or replaces the threshold for its metric.
func (p *Profile) SetThreshold(t Threshold) {
	p.thresholds.Set(t)
}

// Threshold looks up the threshold configured for a metric.
func (p *Profile) Threshold(metric MetricType) (Threshold, bool) {
	return p.thresholds.Get(Threshold{Metric: metric})
}

// Thresholds returns all thresholds in metric order.
func (p *Profile) Thresholds() []Threshold {
	out := make([]Threshold, 0, p.thresholds.Len())
	p.thresholds.Scan(func(t Threshold) bool {
		out = append(out, t)
		return true
	})
	return out
}

// SymbolAllowed applies the forbidden list first, then the allow list
// (an empty allow list admits every symbol not forbidden).
func (p *Profile) SymbolAllowed(symbol string) bool {
	if _, bad := p.ForbiddenSymbols[symbol]; bad {
		return false
	}
	if len(p.AllowedSymbols) == 0 {
		return true
	}
	_, ok := p.AllowedSymbols[symbol]
	return ok
}

// WithinTradingHours reports whether t falls in the configured window;
// an unset window allows all hours.
func (p *Profile) WithinTradingHours(t time.Time) bool {
	if p.TradingHours == nil {
		return true
	}
	return p.TradingHours.Contains(t)
}

// OwnedBy verifies the profile belongs to the given account.
func (p *Profile) OwnedBy(traderID, challengeID uuid.UUID) error {
	if p.TraderID != traderID || p.ChallengeID != challengeID {
		return errors.BusinessRuleViolationf("risk profile owner %s/%s does not match account %s/%s",
			p.TraderID, p.ChallengeID, traderID, challengeID)
	}
	return nil
}

// Limits are the hard caps used by the pre-trade permission check,
// distinct from the alerting thresholds above.
type Limits struct {
	MaxDailyLossPct    money.Percentage
	MaxTotalLossPct    money.Percentage
	MaxPositionSizePct money.Percentage
	MaxLeverage        decimal.Decimal
	MaxTradesPerDay    int // 0 means uncapped
	MaxTradesPerHour   int // 0 means uncapped
}
