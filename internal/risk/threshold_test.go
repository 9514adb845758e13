package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundedlabs/propcore/pkg/errors"
)

func TestThresholdOrderingValidation(t *testing.T) {
	cases := []struct {
		name      string
		warning   string
		critical  string
		emergency *decimal.Decimal
		wantErr   bool
	}{
		{"valid without emergency", "3", "5", nil, false},
		{"valid with emergency", "3", "5", decPtr("6"), false},
		{"warning equals critical", "5", "5", nil, true},
		{"warning above critical", "6", "5", nil, true},
		{"critical equals emergency", "3", "5", decPtr("5"), true},
		{"critical above emergency", "3", "6", decPtr("5"), true},
		{"negative warning", "-1", "5", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewThreshold(MetricDailyDrawdown, dec(tc.warning), dec(tc.critical), tc.emergency)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestThresholdRequiresMetric(t *testing.T) {
	_, err := NewThreshold("", dec("3"), dec("5"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestEvaluateLevel(t *testing.T) {
	th := MustThreshold(MetricDailyDrawdown, dec("3"), dec("5"), decPtr("6"))

	assert.Equal(t, SeverityInfo, th.EvaluateLevel(dec("2.99")))
	assert.Equal(t, SeverityWarning, th.EvaluateLevel(dec("3")))
	assert.Equal(t, SeverityWarning, th.EvaluateLevel(dec("4.99")))
	assert.Equal(t, SeverityCritical, th.EvaluateLevel(dec("5")))
	assert.Equal(t, SeverityEmergency, th.EvaluateLevel(dec("6")))
	assert.Equal(t, SeverityEmergency, th.EvaluateLevel(dec("50")))

	// Magnitude matters, not sign.
	assert.Equal(t, SeverityEmergency, th.EvaluateLevel(dec("-7")))
}

func TestEvaluateLevelWithoutEmergency(t *testing.T) {
	th := MustThreshold(MetricTradeVelocity, dec("50"), dec("80"), nil)
	assert.Equal(t, SeverityCritical, th.EvaluateLevel(dec("500")))
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityInfo < SeverityWarning)
	assert.True(t, SeverityWarning < SeverityCritical)
	assert.True(t, SeverityCritical < SeverityEmergency)
	assert.Equal(t, "EMERGENCY", SeverityEmergency.String())
}
