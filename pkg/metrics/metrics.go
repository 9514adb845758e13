package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EventsProcessed counts inbound events handled, by event type
// (trade/position/pnl) and outcome (ok/rejected).
var EventsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "propcore_events_processed_total",
		Help: "Total number of inbound events processed by the core",
	},
	[]string{"event", "outcome"},
)

// AlertsTriggered counts risk alerts raised, by severity
var AlertsTriggered = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "propcore_risk_alerts_triggered_total",
		Help: "Total number of risk alerts raised by the risk engine",
	},
	[]string{"severity"},
)

// TradingHalts counts halt decisions taken by the risk engine
var TradingHalts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "propcore_trading_halts_total",
		Help: "Total number of trading halts issued",
	},
)

// ChallengesTerminal counts challenges that reached a terminal state
var ChallengesTerminal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "propcore_challenges_terminal_total",
		Help: "Total number of challenges that reached FAILED or FUNDED",
	},
	[]string{"status"},
)

// RiskScore tracks the latest composite risk score per challenge
var RiskScore = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "propcore_risk_score",
		Help: "Latest composite risk score (0-100) per challenge",
	},
	[]string{"challenge_id"},
)

func init() {
	prometheus.MustRegister(EventsProcessed, AlertsTriggered, TradingHalts)
	prometheus.MustRegister(ChallengesTerminal, RiskScore)
}
