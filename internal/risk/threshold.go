package risk

import (
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/pkg/errors"
)

// Threshold is a three-tier alerting band for one metric. Emergency is
// optional; when present the tiers must be strictly increasing.
type Threshold struct {
	Metric    MetricType
	Warning   decimal.Decimal
	Critical  decimal.Decimal
	Emergency *decimal.Decimal
}

// NewThreshold validates tier ordering at construction:
// 0 <= warning < critical < emergency.
func NewThreshold(metric MetricType, warning, critical decimal.Decimal, emergency *decimal.Decimal) (Threshold, error) {
	if metric == "" {
		return Threshold{}, errors.Validationf("threshold: metric type is required")
	}
	if warning.IsNegative() {
		return Threshold{}, errors.Validationf("threshold %s: warning level %s is negative", metric, warning)
	}
	if warning.GreaterThanOrEqual(critical) {
		return Threshold{}, errors.Validationf("threshold %s: warning %s must be below critical %s", metric, warning, critical)
	}
	if emergency != nil && critical.GreaterThanOrEqual(*emergency) {
		return Threshold{}, errors.Validationf("threshold %s: critical %s must be below emergency %s", metric, critical, *emergency)
	}
	return Threshold{Metric: metric, Warning: warning, Critical: critical, Emergency: emergency}, nil
}

// MustThreshold panics on invalid tiers; for preset tables and tests.
func MustThreshold(metric MetricType, warning, critical decimal.Decimal, emergency *decimal.Decimal) Threshold {
	t, err := NewThreshold(metric, warning, critical, emergency)
	if err != nil {
		panic(err)
	}
	return t
}

// EvaluateLevel maps a metric value to the highest tier its magnitude
// reaches: emergency first (when set), then critical, then warning.
// Below warning the value is informational and raises no alert.
func (t Threshold) EvaluateLevel(value decimal.Decimal) Severity {
	v := value.Abs()
	if t.Emergency != nil && v.GreaterThanOrEqual(*t.Emergency) {
		return SeverityEmergency
	}
	if v.GreaterThanOrEqual(t.Critical) {
		return SeverityCritical
	}
	if v.GreaterThanOrEqual(t.Warning) {
		return SeverityWarning
	}
	return SeverityInfo
}
