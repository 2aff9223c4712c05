package service

import (
	"context"

	"FraudShield/internal/domain/models"
)

// CredibilityJudge assesses content credibility for a verification context.
// Implementations must never return a degenerate result: any internal
// failure degrades to the lexical fallback, so the result is always valid.
type CredibilityJudge interface {
	Assess(ctx context.Context, content string, vtype models.VerificationType) models.CredibilityResult
}

// LexicalScorer scores free text against the fraud keyword lexicon.
type LexicalScorer interface {
	Score(text string) (int, []string)
}

// AnomalyDetector derives anomaly flags from an ordered bar series.
type AnomalyDetector interface {
	Detect(bars []models.Bar) (models.AnomalySignal, error)
}
