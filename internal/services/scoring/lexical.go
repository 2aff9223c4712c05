package scoring

import (
	"fmt"
	"strings"
)

const (
	// BaseScore is the starting score before any lexicon match.
	BaseScore = 30
	// MaxScore is the upper clamp on every lexical score.
	MaxScore = 95
	// MinScore is the lower clamp applied on the credibility fallback path.
	MinScore = 5
	// urgencyWeight is added per matched urgency term.
	urgencyWeight = 5
)

// Scorer scores free text against a weighted keyword lexicon. It is a pure
// function of its input: no I/O, no randomness, identical text always yields
// identical output. It also serves as the exclusive fallback body of the
// credibility judge.
type Scorer struct {
	lex *Lexicon
}

// NewScorer creates a lexical scorer. A nil lexicon uses the default.
func NewScorer(lex *Lexicon) *Scorer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Scorer{lex: lex}
}

// Score returns the lexical risk score and one reason per matched term, in
// lexicon order. The score starts at BaseScore, adds each matched term's
// weight plus 5 per urgency occurrence, and is clamped to at most MaxScore.
func (s *Scorer) Score(text string) (int, []string) {
	lower := strings.ToLower(text)
	score := BaseScore
	var reasons []string

	for _, t := range s.lex.HighRisk {
		if strings.Contains(lower, t.Phrase) {
			score += t.Weight
			reasons = append(reasons, fmt.Sprintf("Contains fraud indicator: '%s'", t.Phrase))
		}
	}
	for _, t := range s.lex.MediumRisk {
		if strings.Contains(lower, t.Phrase) {
			score += t.Weight
			reasons = append(reasons, fmt.Sprintf("Contains fraud indicator: '%s'", t.Phrase))
		}
	}

	urgency := 0
	for _, u := range s.lex.Urgency {
		if strings.Contains(lower, u) {
			urgency++
		}
	}
	if urgency > 0 {
		score += urgency * urgencyWeight
		reasons = append(reasons, fmt.Sprintf("High urgency language detected (%d indicators)", urgency))
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score, reasons
}
