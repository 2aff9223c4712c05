package scoring

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"FraudShield/internal/domain/models"
	"FraudShield/internal/service/ratelimit"
	applogger "FraudShield/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the slice of the OpenAI client the judge needs.
// *openai.Client satisfies it; tests substitute a stub.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// contextPrompts are the fixed system prompts keyed by verification type.
var contextPrompts = map[models.VerificationType]string{
	models.VerificationAdvisor:      "You are analyzing a financial advisor for potential fraud indicators. Check if they make unrealistic promises or lack proper credentials.",
	models.VerificationAnnouncement: "You are analyzing a corporate announcement for authenticity and potential market manipulation. Look for exaggerated claims or suspicious timing.",
	models.VerificationSocial:       "You are analyzing social media content for investment fraud. Look for guaranteed returns, urgency tactics, and other red flags.",
	models.VerificationAnomaly:      "You are analyzing stock market data for pump-and-dump schemes. Look for unusual volume/price patterns without fundamental justification.",
}

const defaultPrompt = "You are a financial fraud detection expert."

var (
	scoreRe  = regexp.MustCompile(`SCORE:\s*(\d+)`)
	reasonRe = regexp.MustCompile(`(?s)REASONING:\s*(.+)`)
)

// fallbackExplanations are the level-appropriate explanations used when the
// whole judge call fails and the lexical fallback supplies the result. Each
// notes that analysis ran in degraded mode.
var fallbackExplanations = map[models.RiskLevel]string{
	models.RiskHigh:   "Automated credibility check unavailable; keyword analysis flagged multiple fraud indicators. Treat this content as high risk.",
	models.RiskMedium: "Automated credibility check unavailable; keyword analysis found concerning elements that warrant caution.",
	models.RiskLow:    "Automated credibility check unavailable; keyword analysis found no strong fraud indicators, but always conduct your own research.",
}

// JudgeOption configures Judge.
type JudgeOption func(*Judge)

// Judge asks an external language model to rate content trustworthiness and
// converts the answer into a risk score. It never fails: a parse miss on the
// score line substitutes the lexical score (parse-level fallback) and any
// transport or quota error substitutes the full lexical result (call-level
// fallback). Callers distinguish the paths via the result's Source tag.
type Judge struct {
	client   ChatCompleter
	model    string
	timeout  time.Duration
	fallback *Scorer
	limiter  *ratelimit.Limiter
	rlCap    float64
	rlRate   float64
	l        *applogger.Logger
}

// NewJudge creates a credibility judge. A nil client disables remote calls
// entirely; every assessment then takes the fallback path.
func NewJudge(client ChatCompleter, model string, timeout time.Duration, fallback *Scorer, opts ...JudgeOption) *Judge {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if fallback == nil {
		fallback = NewScorer(nil)
	}
	j := &Judge{client: client, model: model, timeout: timeout, fallback: fallback}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// WithRateLimit bounds outbound judge calls with a token bucket. Calls over
// the limit degrade to the fallback instead of queueing.
func WithRateLimit(lim *ratelimit.Limiter, capacity, refillPerSec float64) JudgeOption {
	return func(j *Judge) {
		j.limiter = lim
		j.rlCap = capacity
		j.rlRate = refillPerSec
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) JudgeOption {
	return func(j *Judge) { j.l = l }
}

// Assess rates content credibility for the given verification context.
// The returned result is always valid with RiskScore in [5,95].
func (j *Judge) Assess(ctx context.Context, content string, vtype models.VerificationType) models.CredibilityResult {
	if j.client == nil {
		return j.fallbackResult(content)
	}
	if j.limiter != nil && !j.limiter.Allow("credibility_judge", j.rlCap, j.rlRate) {
		if j.l != nil {
			j.l.Warn("judge rate limited, using lexical fallback", applogger.String("context", string(vtype)))
		}
		return j.fallbackResult(content)
	}

	system, ok := contextPrompts[vtype]
	if !ok {
		system = defaultPrompt
	}

	cctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	resp, err := j.client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(content)},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil || len(resp.Choices) == 0 {
		if j.l != nil {
			j.l.Warn("judge call failed, using lexical fallback",
				applogger.String("context", string(vtype)),
				applogger.Error(fmt.Errorf("chat completion: %w", err)),
			)
		}
		return j.fallbackResult(content)
	}

	return j.parse(strings.TrimSpace(resp.Choices[0].Message.Content), content)
}

// parse extracts score and reasoning with two independent pattern matches.
func (j *Judge) parse(raw, content string) models.CredibilityResult {
	var (
		risk   int
		source models.CredibilitySource
	)
	if m := scoreRe.FindStringSubmatch(raw); m != nil {
		trust, _ := strconv.Atoi(m[1])
		risk = 100 - trust
		source = models.SourceJudge
	} else {
		risk, _ = j.fallback.Score(content)
		source = models.SourceJudgeUnparsed
	}

	explanation := raw
	if m := reasonRe.FindStringSubmatch(raw); m != nil {
		explanation = strings.TrimSpace(m[1])
	}

	risk = clampScore(risk)
	return models.CredibilityResult{
		RiskScore:   risk,
		RiskLevel:   models.LevelForScore(risk),
		Explanation: explanation,
		Source:      source,
	}
}

func (j *Judge) fallbackResult(content string) models.CredibilityResult {
	score, _ := j.fallback.Score(content)
	score = clampScore(score)
	level := models.LevelForScore(score)
	return models.CredibilityResult{
		RiskScore:   score,
		RiskLevel:   level,
		Explanation: fallbackExplanations[level],
		Source:      models.SourceFallback,
	}
}

func userPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following content and rate its credibility on a scale of 0-100
(0 = certain fraud, 100 = fully trustworthy).

Content: %s

Provide your analysis in this format:
SCORE: [your numeric score 0-100]
REASONING: [explain your reasoning in 2-3 sentences, focusing on specific red flags or positive indicators]

Focus on detecting:
- Unrealistic promises or guarantees
- Pressure tactics or urgency
- Lack of proper registration/credentials
- Vague or exaggerated claims
- Common fraud language patterns`, content)
}

func clampScore(v int) int {
	if v > MaxScore {
		return MaxScore
	}
	if v < MinScore {
		return MinScore
	}
	return v
}
