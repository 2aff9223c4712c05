package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCleanText(t *testing.T) {
	s := NewScorer(nil)

	score, reasons := s.Score("Quarterly results were in line with analyst expectations")
	assert.Equal(t, BaseScore, score)
	assert.Empty(t, reasons)
}

func TestScoreKnownCombination(t *testing.T) {
	s := NewScorer(nil)

	score, reasons := s.Score("Guaranteed returns! Risk-free investment opportunity")
	assert.Equal(t, 70, score) // 30 + 20 + 20
	assert.Equal(t, []string{
		"Contains fraud indicator: 'guaranteed'",
		"Contains fraud indicator: 'risk-free'",
	}, reasons)
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := NewScorer(nil)

	upper, _ := s.Score("GUARANTEED RISK-FREE PROFITS")
	lower, _ := s.Score("guaranteed risk-free profits")
	assert.Equal(t, lower, upper)
}

func TestScoreUrgencyBundle(t *testing.T) {
	s := NewScorer(nil)

	score, reasons := s.Score("urgent: act now, offer expires today")
	// 30 + act now(10) + urgency urgent/expires (2*5)
	assert.Equal(t, 50, score)
	assert.Contains(t, reasons, "High urgency language detected (2 indicators)")
}

func TestScoreClampedAtMax(t *testing.T) {
	s := NewScorer(nil)

	score, _ := s.Score("guaranteed risk-free double your money triple your money insider hot tip sure shot can't lose secret easy money")
	assert.Equal(t, MaxScore, score)
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(nil)

	text := "exclusive hot tip, guaranteed easy money, hurry"
	s1, r1 := s.Score(text)
	s2, r2 := s.Score(text)
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}

func TestScoreReasonOrderFollowsLexicon(t *testing.T) {
	s := NewScorer(nil)

	// "act now" (medium) appears before "guaranteed" (high) in the text but
	// reasons follow lexicon order: high risk first.
	_, reasons := s.Score("act now for guaranteed profits")
	require.Len(t, reasons, 2)
	assert.Equal(t, "Contains fraud indicator: 'guaranteed'", reasons[0])
	assert.Equal(t, "Contains fraud indicator: 'act now'", reasons[1])
}

func TestLexiconValidate(t *testing.T) {
	assert.Error(t, (&Lexicon{}).Validate())
	assert.Error(t, (&Lexicon{HighRisk: []Term{{Phrase: "", Weight: 10}}}).Validate())
	assert.Error(t, (&Lexicon{HighRisk: []Term{{Phrase: "x", Weight: 0}}}).Validate())
	assert.NoError(t, DefaultLexicon().Validate())
}
