package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Alert is one active risk condition. Alerts are keyed by ID in the
// engine's active map; re-triggering an ID at the same severity is a
// no-op.
type Alert struct {
	ID          string
	Metric      MetricType
	Severity    Severity
	Value       decimal.Decimal
	Message     string
	TriggeredAt time.Time
}

// dailyAlertID scopes an alert to one UTC trading day so the daily
// reset can resolve it.
func dailyAlertID(metric MetricType, day time.Time) string {
	return fmt.Sprintf("%s:%s", metric, day.UTC().Format("2006-01-02"))
}

// capAlertID marks a hard-cap breach for a metric, keeping the date
// component last so the daily reset still resolves it.
func capAlertID(metric MetricType, day time.Time) string {
	return fmt.Sprintf("%s:cap:%s", metric, day.UTC().Format("2006-01-02"))
}

// symbolAlertID scopes an alert to one symbol.
func symbolAlertID(metric MetricType, symbol string) string {
	return fmt.Sprintf("%s:%s", metric, symbol)
}

// isDailyScoped reports whether an alert ID carries the given day's
// date component.
func isDailyScoped(id string, day time.Time) bool {
	suffix := ":" + day.UTC().Format("2006-01-02")
	return len(id) >= len(suffix) && id[len(id)-len(suffix):] == suffix
}
