// Package domain holds the event contract shared by the challenge and
// risk aggregates: inbound flat event records, outbound domain events,
// and the per-aggregate outbox the caller drains after each operation.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/money"
)

// TradeSide is the direction of a fill.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// PositionEventType distinguishes position lifecycle updates.
type PositionEventType string

const (
	PositionOpened  PositionEventType = "OPENED"
	PositionUpdated PositionEventType = "UPDATED"
	PositionClosed  PositionEventType = "CLOSED"
)

// TradeEvent is a read-only record of one executed fill. ExecutedAt
// must be strictly greater than the aggregate's last recorded trade
// timestamp.
type TradeEvent struct {
	Symbol      string          `json:"symbol"`
	Side        TradeSide       `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnL money.Money     `json:"realized_pnl"`
	Commission  money.Money     `json:"commission"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// PositionEvent is a read-only snapshot of one open position update.
type PositionEvent struct {
	Symbol        string            `json:"symbol"`
	Side          TradeSide         `json:"side"`
	Quantity      decimal.Decimal   `json:"quantity"`
	EntryPrice    decimal.Decimal   `json:"entry_price"`
	CurrentPrice  decimal.Decimal   `json:"current_price"`
	UnrealizedPnL money.Money       `json:"unrealized_pnl"`
	PositionValue money.Money       `json:"position_value"`
	EventType     PositionEventType `json:"event_type"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// PnLEvent is a read-only account P&L snapshot.
type PnLEvent struct {
	CurrentBalance money.Money `json:"current_balance"`
	DailyPnL       money.Money `json:"daily_pnl"`
	TotalPnL       money.Money `json:"total_pnl"`
	UnrealizedPnL  money.Money `json:"unrealized_pnl"`
	EventDate      time.Time   `json:"event_date"`
}
