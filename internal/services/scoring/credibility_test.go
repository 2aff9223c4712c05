package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"FraudShield/internal/domain/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply string
	err   error
	seen  openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.seen = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func TestAssessParsesScoreAndReasoning(t *testing.T) {
	stub := &stubCompleter{reply: "SCORE: 80\nREASONING: The content is consistent with a routine filing."}
	j := NewJudge(stub, "", time.Second, nil)

	res := j.Assess(context.Background(), "Board approves dividend", models.VerificationAnnouncement)

	assert.Equal(t, 20, res.RiskScore) // risk = 100 - trust
	assert.Equal(t, models.RiskLow, res.RiskLevel)
	assert.Equal(t, "The content is consistent with a routine filing.", res.Explanation)
	assert.Equal(t, models.SourceJudge, res.Source)
	assert.False(t, res.Degraded())
}

func TestAssessSelectsContextPrompt(t *testing.T) {
	stub := &stubCompleter{reply: "SCORE: 50\nREASONING: ok"}
	j := NewJudge(stub, "", time.Second, nil)

	j.Assess(context.Background(), "some post", models.VerificationSocial)

	require.Len(t, stub.seen.Messages, 2)
	assert.Equal(t, contextPrompts[models.VerificationSocial], stub.seen.Messages[0].Content)
	assert.Contains(t, stub.seen.Messages[1].Content, "some post")
}

func TestAssessClampsExtremeScores(t *testing.T) {
	j := NewJudge(&stubCompleter{reply: "SCORE: 0\nREASONING: fraud"}, "", time.Second, nil)
	res := j.Assess(context.Background(), "x", models.VerificationSocial)
	assert.Equal(t, MaxScore, res.RiskScore)

	j = NewJudge(&stubCompleter{reply: "SCORE: 100\nREASONING: clean"}, "", time.Second, nil)
	res = j.Assess(context.Background(), "x", models.VerificationSocial)
	assert.Equal(t, MinScore, res.RiskScore)
}

func TestAssessUnparsedScoreUsesLexicalNumber(t *testing.T) {
	raw := "This looks quite suspicious overall, though no score can be given."
	j := NewJudge(&stubCompleter{reply: raw}, "", time.Second, nil)

	content := "Guaranteed risk-free profits"
	res := j.Assess(context.Background(), content, models.VerificationSocial)

	lexScore, _ := NewScorer(nil).Score(content)
	assert.Equal(t, lexScore, res.RiskScore)
	assert.Equal(t, models.SourceJudgeUnparsed, res.Source)
	// The judge's prose is kept even though the score line was missing.
	assert.Equal(t, raw, res.Explanation)
	assert.False(t, res.Degraded())
}

func TestAssessTransportErrorFallsBack(t *testing.T) {
	j := NewJudge(&stubCompleter{err: errors.New("connection reset")}, "", time.Second, nil)

	content := "Guaranteed 300% returns, act now!"
	res := j.Assess(context.Background(), content, models.VerificationSocial)

	lexScore, _ := NewScorer(nil).Score(content)
	assert.Equal(t, lexScore, res.RiskScore)
	assert.Equal(t, models.SourceFallback, res.Source)
	assert.True(t, res.Degraded())
	assert.Equal(t, fallbackExplanations[res.RiskLevel], res.Explanation)
	assert.GreaterOrEqual(t, res.RiskScore, MinScore)
	assert.LessOrEqual(t, res.RiskScore, MaxScore)
}

func TestAssessNilClientAlwaysFallsBack(t *testing.T) {
	j := NewJudge(nil, "", 0, nil)

	res := j.Assess(context.Background(), "routine market update", models.VerificationAdvisor)
	assert.Equal(t, models.SourceFallback, res.Source)
	assert.Equal(t, models.RiskLow, res.RiskLevel)
	assert.NotEmpty(t, res.Explanation)
}

func TestFallbackExplanationMatchesLevel(t *testing.T) {
	j := NewJudge(nil, "", 0, nil)

	cases := []struct {
		content string
		level   models.RiskLevel
	}{
		{"nothing to see here", models.RiskLow},
		{"exclusive hot tip", models.RiskMedium},
		{"guaranteed risk-free double your money", models.RiskHigh},
	}
	for _, tc := range cases {
		res := j.Assess(context.Background(), tc.content, models.VerificationSocial)
		assert.Equal(t, tc.level, res.RiskLevel, tc.content)
		assert.Equal(t, fallbackExplanations[tc.level], res.Explanation)
	}
}
