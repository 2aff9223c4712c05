package usecase

import (
	"testing"

	"FraudShield/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func cred(score int, src models.CredibilitySource, expl string) models.CredibilityResult {
	return models.CredibilityResult{
		RiskScore:   score,
		RiskLevel:   models.LevelForScore(score),
		Explanation: expl,
		Source:      src,
	}
}

func TestFuseAveragesWithFloor(t *testing.T) {
	agg := NewRiskAggregator()

	v := agg.Fuse(85, nil, cred(70, models.SourceJudge, ""))
	assert.Equal(t, 77, v.FinalScore) // (85+70)/2 truncates
	assert.Equal(t, models.RiskHigh, v.RiskLevel)
}

func TestFuseLevelBoundaries(t *testing.T) {
	agg := NewRiskAggregator()

	cases := []struct {
		score int
		level models.RiskLevel
	}{
		{30, models.RiskLow},
		{31, models.RiskMedium},
		{60, models.RiskMedium},
		{61, models.RiskHigh},
	}
	for _, tc := range cases {
		v := agg.Fuse(tc.score, nil, cred(tc.score, models.SourceJudge, ""))
		assert.Equal(t, tc.score, v.FinalScore)
		assert.Equal(t, tc.level, v.RiskLevel, "score %d", tc.score)
	}
}

func TestFuseNeverExceedsCap(t *testing.T) {
	agg := NewRiskAggregator()

	v := agg.Fuse(130, nil, cred(95, models.SourceJudge, ""))
	assert.Equal(t, 95, v.FinalScore)

	// Cap holds across the whole plausible input range.
	for base := 0; base <= 160; base += 7 {
		for c := 5; c <= 95; c += 9 {
			got := agg.Fuse(base, nil, cred(c, models.SourceJudge, ""))
			assert.LessOrEqual(t, got.FinalScore, 95)
			assert.GreaterOrEqual(t, got.FinalScore, 0)
		}
	}
}

func TestFuseMonotonicInBase(t *testing.T) {
	agg := NewRiskAggregator()

	prev := -1
	for base := 0; base <= 120; base++ {
		v := agg.Fuse(base, nil, cred(50, models.SourceJudge, ""))
		assert.GreaterOrEqual(t, v.FinalScore, prev)
		prev = v.FinalScore
	}
}

func TestFuseReasonOrder(t *testing.T) {
	agg := NewRiskAggregator()

	v := agg.Fuse(70, []string{"No matching official filing found"},
		cred(40, models.SourceFallback, "Automated analysis flagged moderate risk signals in this content."))

	assert.Equal(t, []string{
		"No matching official filing found",
		degradedReason,
		"Automated analysis flagged moderate risk signals in this content.",
	}, v.Reasons)
	assert.Equal(t, "Automated analysis flagged moderate risk signals in this content.", v.CredibilityExplanation)
}

func TestFuseJudgeResultHasNoDegradedNote(t *testing.T) {
	agg := NewRiskAggregator()

	v := agg.Fuse(20, []string{"Advisor found in SEBI registry"},
		cred(30, models.SourceJudge, "Registered advisors are generally credible."))

	assert.Equal(t, []string{
		"Advisor found in SEBI registry",
		"Registered advisors are generally credible.",
	}, v.Reasons)
}

func TestFusePartialParseCarriesNoDegradedNote(t *testing.T) {
	agg := NewRiskAggregator()

	// A judge reply without a score line still came from the judge; only a
	// full fallback marks the verdict as degraded.
	v := agg.Fuse(30, nil, cred(45, models.SourceJudgeUnparsed, "raw judge text without a score line"))
	assert.NotContains(t, v.Reasons, degradedReason)
	assert.Equal(t, []string{"raw judge text without a score line"}, v.Reasons)
}
