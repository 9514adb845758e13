// Package challenge implements the per-account evaluation state
// machine: PENDING -> ACTIVE -> {FAILED | FUNDED}. The aggregate is a
// single writer and performs no I/O; domain events accumulate on its
// outbox until the caller drains them.
package challenge

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/internal/domain"
	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/money"
)

// Challenge is the aggregate root for one evaluation account.
type Challenge struct {
	domain.Outbox

	id       uuid.UUID
	traderID uuid.UUID
	params   Parameters
	status   Status

	currentEquity    money.Money
	dailyStartEquity money.Money
	dailyMaxEquity   money.Money
	dailyMinEquity   money.Money
	maxEquityEver    money.Money

	currentDate time.Time // UTC midnight of the trading day in progress
	totalTrades int
	lastTradeAt time.Time
}

// New creates a PENDING challenge holding its full initial balance.
// The first trade activates it.
func New(id, traderID uuid.UUID, params Parameters) *Challenge {
	return &Challenge{
		id:               id,
		traderID:         traderID,
		params:           params,
		status:           StatusPending,
		currentEquity:    params.InitialBalance,
		dailyStartEquity: params.InitialBalance,
		dailyMaxEquity:   params.InitialBalance,
		dailyMinEquity:   params.InitialBalance,
		maxEquityEver:    params.InitialBalance,
	}
}

func (c *Challenge) ID() uuid.UUID                   { return c.id }
func (c *Challenge) TraderID() uuid.UUID             { return c.traderID }
func (c *Challenge) Params() Parameters              { return c.params }
func (c *Challenge) Status() Status                  { return c.status }
func (c *Challenge) CurrentEquity() money.Money      { return c.currentEquity }
func (c *Challenge) DailyStartEquity() money.Money   { return c.dailyStartEquity }
func (c *Challenge) DailyMaxEquity() money.Money     { return c.dailyMaxEquity }
func (c *Challenge) DailyMinEquity() money.Money     { return c.dailyMinEquity }
func (c *Challenge) MaxEquityEver() money.Money      { return c.maxEquityEver }
func (c *Challenge) CurrentDate() time.Time          { return c.currentDate }
func (c *Challenge) TotalTrades() int                { return c.totalTrades }
func (c *Challenge) LastTradeTimestamp() time.Time   { return c.lastTradeAt }

// OnTradeExecuted applies one fill to the challenge: activation on the
// first trade, UTC day-boundary baseline reset, P&L application with a
// zero floor, then rule evaluation in fixed priority order (daily
// drawdown, total drawdown, profit target). The first matching rule
// wins; reordering changes outcomes when one trade crosses several
// thresholds at once.
func (c *Challenge) OnTradeExecuted(trade domain.TradeEvent) error {
	if c.status.IsTerminal() {
		return errors.InvalidChallengeStatef("challenge %s is %s", c.id, c.status)
	}
	if !trade.ExecutedAt.After(c.lastTradeAt) {
		return errors.ConcurrentTradef("challenge %s: trade at %s not after last trade at %s",
			c.id, trade.ExecutedAt.UTC().Format(time.RFC3339Nano), c.lastTradeAt.UTC().Format(time.RFC3339Nano))
	}
	if trade.RealizedPnL.Currency() != c.currentEquity.Currency() {
		return errors.Validationf("challenge %s: trade P&L currency %s does not match account currency %s",
			c.id, trade.RealizedPnL.Currency(), c.currentEquity.Currency())
	}

	if c.status == StatusPending {
		c.transitionAt(StatusActive, "", trade.ExecutedAt)
	}

	// Day boundary moves the daily baseline to the pre-trade equity so
	// the trade itself is attributed to the new day.
	tradeDay := utcDay(trade.ExecutedAt)
	if tradeDay.After(c.currentDate) {
		c.dailyStartEquity = c.currentEquity
		c.dailyMaxEquity = c.currentEquity
		c.dailyMinEquity = c.currentEquity
		c.currentDate = tradeDay
	}

	next, err := c.currentEquity.Add(trade.RealizedPnL)
	if err != nil {
		return err
	}
	c.currentEquity = next.FloorZero()

	c.dailyMaxEquity, _ = c.dailyMaxEquity.Max(c.currentEquity)
	c.dailyMinEquity, _ = c.dailyMinEquity.Min(c.currentEquity)
	c.maxEquityEver, _ = c.maxEquityEver.Max(c.currentEquity)
	c.totalTrades++
	c.lastTradeAt = trade.ExecutedAt

	c.Record(domain.TradeRecorded{
		EventMeta:   domain.NewEventMeta(c.id, c.traderID, trade.ExecutedAt),
		Symbol:      trade.Symbol,
		Side:        trade.Side,
		Quantity:    trade.Quantity,
		Price:       trade.Price,
		RealizedPnL: trade.RealizedPnL,
		Equity:      c.currentEquity,
		TradeNumber: c.totalTrades,
	})

	c.evaluateRules(trade.ExecutedAt)
	return nil
}

// evaluateRules applies the challenge rules in their fixed priority
// order against the post-trade equity.
func (c *Challenge) evaluateRules(at time.Time) {
	if dd := declinePercent(c.dailyStartEquity, c.currentEquity); c.params.MaxDailyDrawdown.ExceededBy(dd) {
		c.fail(ReasonMaxDailyDrawdown, at)
		return
	}
	if dd := declinePercent(c.params.InitialBalance, c.currentEquity); c.params.MaxTotalDrawdown.ExceededBy(dd) {
		c.fail(ReasonMaxTotalDrawdown, at)
		return
	}
	if gain := gainPercent(c.params.InitialBalance, c.currentEquity); c.params.ProfitTarget.ReachedBy(gain) {
		c.fund(ReasonProfitTarget, at)
	}
}

func (c *Challenge) fail(reason Reason, at time.Time) {
	c.transitionAt(StatusFailed, string(reason), at)
	c.Record(domain.ChallengeFailed{
		EventMeta:   domain.NewEventMeta(c.id, c.traderID, at),
		Reason:      string(reason),
		FinalEquity: c.currentEquity,
	})
}

func (c *Challenge) fund(reason Reason, at time.Time) {
	c.transitionAt(StatusFunded, string(reason), at)
	c.Record(domain.ChallengeFunded{
		EventMeta:   domain.NewEventMeta(c.id, c.traderID, at),
		Reason:      string(reason),
		FinalEquity: c.currentEquity,
	})
}

func (c *Challenge) transitionAt(to Status, reason string, at time.Time) {
	from := c.status
	c.status = to
	c.Record(domain.ChallengeStatusChanged{
		EventMeta:  domain.NewEventMeta(c.id, c.traderID, at),
		FromStatus: string(from),
		ToStatus:   string(to),
		Reason:     reason,
	})
}

// declinePercent is the percentage drop from baseline to current,
// floored at zero. A zero baseline yields zero instead of dividing.
func declinePercent(baseline, current money.Money) decimal.Decimal {
	drop, err := baseline.Sub(current)
	if err != nil || !drop.IsPositive() {
		return decimal.Zero
	}
	pct, err := drop.PercentOf(baseline)
	if err != nil {
		return decimal.Zero
	}
	return pct
}

// gainPercent is the percentage rise from baseline to current, floored
// at zero.
func gainPercent(baseline, current money.Money) decimal.Decimal {
	rise, err := current.Sub(baseline)
	if err != nil || !rise.IsPositive() {
		return decimal.Zero
	}
	pct, err := rise.PercentOf(baseline)
	if err != nil {
		return decimal.Zero
	}
	return pct
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
