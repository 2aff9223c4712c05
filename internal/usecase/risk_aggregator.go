package usecase

import "FraudShield/internal/domain/models"

// degradedReason is appended when the credibility signal came from the
// lexical fallback rather than the external judge.
const degradedReason = "Credibility analysis degraded: external judge unavailable, heuristic keyword scoring applied"

// RiskAggregator fuses a type-specific base signal with a credibility
// signal into one bounded verdict. It is pure arithmetic plus string
// assembly and never fails for valid numeric inputs.
type RiskAggregator struct{}

func NewRiskAggregator() *RiskAggregator { return &RiskAggregator{} }

// Fuse averages the base and credibility risk scores (integer floor),
// clamps to at most 95, and classifies with the shared thresholds.
//
// Reason order is significant and preserved: base-signal reasons first, a
// degraded-analysis note when the fallback ran, and the credibility
// explanation always last.
func (a *RiskAggregator) Fuse(baseScore int, baseReasons []string, cred models.CredibilityResult) models.RiskVerdict {
	final := (baseScore + cred.RiskScore) / 2
	if final > 95 {
		final = 95
	}
	if final < 0 {
		final = 0
	}

	reasons := make([]string, 0, len(baseReasons)+2)
	reasons = append(reasons, baseReasons...)
	if cred.Degraded() {
		reasons = append(reasons, degradedReason)
	}
	if cred.Explanation != "" {
		reasons = append(reasons, cred.Explanation)
	}

	return models.RiskVerdict{
		FinalScore:             final,
		RiskLevel:              models.LevelForScore(final),
		Reasons:                reasons,
		CredibilityExplanation: cred.Explanation,
	}
}
