package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/money"
)

// EventType identifies an outbound domain event on the bus.
type EventType string

const (
	EvtTradeRecorded          EventType = "challenge.trade_recorded"
	EvtChallengeStatusChanged EventType = "challenge.status_changed"
	EvtChallengeFailed        EventType = "challenge.failed"
	EvtChallengeFunded        EventType = "challenge.funded"
	EvtRiskAlertTriggered     EventType = "risk.alert_triggered"
	EvtRiskAlertResolved      EventType = "risk.alert_resolved"
	EvtRiskScoreCalculated    EventType = "risk.score_calculated"
	EvtTradingHalted          EventType = "risk.trading_halted"
	EvtTradingResumed         EventType = "risk.trading_resumed"
	EvtEmergencyRisk          EventType = "risk.emergency"
	EvtRiskProfileUpdated     EventType = "risk.profile_updated"
)

// Event is an outbound domain event produced by an aggregate. Events
// are buffered on the aggregate's outbox and drained by the caller;
// the core itself never publishes.
type Event interface {
	EventType() EventType
	Identity() uuid.UUID
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// EventMeta carries the fields common to every domain event.
type EventMeta struct {
	EventID     uuid.UUID `json:"event_id"`
	ChallengeID uuid.UUID `json:"challenge_id"`
	TraderID    uuid.UUID `json:"trader_id"`
	At          time.Time `json:"occurred_at"`
}

// NewEventMeta stamps a fresh event identity for an aggregate.
func NewEventMeta(challengeID, traderID uuid.UUID, at time.Time) EventMeta {
	return EventMeta{EventID: uuid.New(), ChallengeID: challengeID, TraderID: traderID, At: at}
}

func (m EventMeta) Identity() uuid.UUID    { return m.EventID }
func (m EventMeta) AggregateID() uuid.UUID { return m.ChallengeID }
func (m EventMeta) OccurredAt() time.Time  { return m.At }

// TradeRecorded echoes an applied trade with the post-trade equity.
type TradeRecorded struct {
	EventMeta
	Symbol      string          `json:"symbol"`
	Side        TradeSide       `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnL money.Money     `json:"realized_pnl"`
	Equity      money.Money     `json:"equity"`
	TradeNumber int             `json:"trade_number"`
}

func (TradeRecorded) EventType() EventType { return EvtTradeRecorded }

// ChallengeStatusChanged signals any challenge lifecycle transition.
type ChallengeStatusChanged struct {
	EventMeta
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Reason     string `json:"reason,omitempty"`
}

func (ChallengeStatusChanged) EventType() EventType { return EvtChallengeStatusChanged }

// ChallengeFailed is the terminal failure event with the breached rule.
type ChallengeFailed struct {
	EventMeta
	Reason      string      `json:"reason"`
	FinalEquity money.Money `json:"final_equity"`
}

func (ChallengeFailed) EventType() EventType { return EvtChallengeFailed }

// ChallengeFunded is the terminal pass event.
type ChallengeFunded struct {
	EventMeta
	Reason      string      `json:"reason"`
	FinalEquity money.Money `json:"final_equity"`
}

func (ChallengeFunded) EventType() EventType { return EvtChallengeFunded }

// RiskAlertTriggered signals a new or escalated risk alert.
type RiskAlertTriggered struct {
	EventMeta
	AlertID  string          `json:"alert_id"`
	Metric   string          `json:"metric"`
	Severity string          `json:"severity"`
	Value    decimal.Decimal `json:"value"`
	Message  string          `json:"message"`
}

func (RiskAlertTriggered) EventType() EventType { return EvtRiskAlertTriggered }

// RiskAlertResolved signals an alert clearing, with its lifetime.
type RiskAlertResolved struct {
	EventMeta
	AlertID  string        `json:"alert_id"`
	Metric   string        `json:"metric"`
	Duration time.Duration `json:"duration"`
}

func (RiskAlertResolved) EventType() EventType { return EvtRiskAlertResolved }

// RiskScoreCalculated carries the latest composite score snapshot.
type RiskScoreCalculated struct {
	EventMeta
	OverallScore decimal.Decimal            `json:"overall_score"`
	RiskLevel    string                     `json:"risk_level"`
	Components   map[string]decimal.Decimal `json:"component_scores"`
	ActiveAlerts int                        `json:"active_alerts"`
}

func (RiskScoreCalculated) EventType() EventType { return EvtRiskScoreCalculated }

// TradingHalted signals the risk engine suspended trading.
type TradingHalted struct {
	EventMeta
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

func (TradingHalted) EventType() EventType { return EvtTradingHalted }

// TradingResumed signals the halt was lifted.
type TradingResumed struct {
	EventMeta
	Reason          string  `json:"reason"`
	HaltDurationSec float64 `json:"halt_duration_seconds"`
}

func (TradingResumed) EventType() EventType { return EvtTradingResumed }

// EmergencyRiskEvent flags a breach that requires manual intervention.
type EmergencyRiskEvent struct {
	EventMeta
	Metric                     string          `json:"metric"`
	Value                      decimal.Decimal `json:"value"`
	Message                    string          `json:"message"`
	RequiresManualIntervention bool            `json:"requires_manual_intervention"`
}

func (EmergencyRiskEvent) EventType() EventType { return EvtEmergencyRisk }

// RiskProfileUpdated signals a threshold/limit configuration change.
type RiskProfileUpdated struct {
	EventMeta
	ChallengeType string `json:"challenge_type"`
}

func (RiskProfileUpdated) EventType() EventType { return EvtRiskProfileUpdated }
