package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	cases := []struct {
		score string
		want  RiskLevel
	}{
		{"0", LevelMinimal},
		{"20", LevelMinimal},
		{"20.5", LevelLow},
		{"40", LevelLow},
		{"41", LevelMedium},
		{"60", LevelMedium},
		{"61", LevelHigh},
		{"80", LevelHigh},
		{"80.01", LevelExtreme},
		{"100", LevelExtreme},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFromScore(dec(tc.score)), "score %s", tc.score)
	}
}

func TestCappedRatio(t *testing.T) {
	// Half the norm contributes half the cap.
	assert.True(t, cappedRatio(dec("5"), dec("10"), dec("30")).Equal(dec("15")))
	// At and beyond the norm the cap holds.
	assert.True(t, cappedRatio(dec("10"), dec("10"), dec("30")).Equal(dec("30")))
	assert.True(t, cappedRatio(dec("200"), dec("10"), dec("30")).Equal(dec("30")))
	// Negative values clamp to zero, as does a zero norm.
	assert.True(t, cappedRatio(dec("-1"), dec("10"), dec("30")).IsZero())
	assert.True(t, cappedRatio(dec("5"), decimal.Zero, dec("30")).IsZero())
}

func TestClipScore(t *testing.T) {
	assert.True(t, clipScore(dec("150")).Equal(dec("100")))
	assert.True(t, clipScore(dec("-3")).IsZero())
	assert.True(t, clipScore(dec("42")).Equal(dec("42")))
}
