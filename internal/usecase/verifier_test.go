package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"FraudShield/internal/domain/models"
	"FraudShield/internal/services/analytics"
	"FraudShield/internal/services/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRegistry struct {
	rows []models.Intermediary
	err  error
}

func (f *fakeRegistry) Upsert(ctx context.Context, in *models.Intermediary) error { return nil }

func (f *fakeRegistry) Search(ctx context.Context, query string) ([]models.Intermediary, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Intermediary
	for _, r := range f.rows {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFilings struct {
	rows []models.Filing
	err  error
}

func (f *fakeFilings) Insert(ctx context.Context, fl *models.Filing) error { return nil }

func (f *fakeFilings) Search(ctx context.Context, query, ticker string) ([]models.Filing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeHistory struct {
	appended []*models.VerificationRecord
	err      error
}

func (f *fakeHistory) Append(ctx context.Context, rec *models.VerificationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int, since time.Time) ([]models.VerificationRecord, error) {
	out := make([]models.VerificationRecord, 0, len(f.appended))
	for i := len(f.appended) - 1; i >= 0 && len(out) < limit; i-- {
		if !since.IsZero() && f.appended[i].CreatedAt.Before(since) {
			continue
		}
		out = append(out, *f.appended[i])
	}
	return out, nil
}

type fakeBars struct {
	bars []models.Bar
	err  error
}

func (f *fakeBars) Store(ctx context.Context, b *models.Bar) error          { return nil }
func (f *fakeBars) StoreBatch(ctx context.Context, bars []*models.Bar) error { return nil }
func (f *fakeBars) Health(ctx context.Context) error                         { return nil }
func (f *fakeBars) Close() error                                             { return nil }

func (f *fakeBars) LatestBars(ctx context.Context, ticker string, n int) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeMetrics struct {
	verifications map[string]int
	errors        map[string]int
	fallbacks     int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{verifications: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordVerification(vtype, level string) { m.verifications[vtype+"/"+level]++ }
func (m *fakeMetrics) RecordMessageSent(backend, ticker string) {}
func (m *fakeMetrics) RecordError(kind string)                  { m.errors[kind]++ }
func (m *fakeMetrics) RecordJudgeFallback(reason string)        { m.fallbacks++ }
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

type fakeJudge struct {
	result models.CredibilityResult
}

func (j *fakeJudge) Assess(ctx context.Context, content string, vtype models.VerificationType) models.CredibilityResult {
	return j.result
}

// --- helpers ---

func judgeResult(score int) models.CredibilityResult {
	return models.CredibilityResult{
		RiskScore:   score,
		RiskLevel:   models.LevelForScore(score),
		Explanation: "judge explanation",
		Source:      models.SourceJudge,
	}
}

func newTestVerifier(reg *fakeRegistry, fil *fakeFilings, hist *fakeHistory, bars *fakeBars, judge *fakeJudge, m *fakeMetrics) *Verifier {
	return NewVerifier(
		reg, fil, hist, bars,
		analytics.NewDetector(),
		scoring.NewScorer(nil),
		judge,
		NewRiskAggregator(),
		m,
	)
}

func barSeries(ticker string, closes []float64, volumes []int64) []models.Bar {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i := range closes {
		bars[i] = models.Bar{Ticker: ticker, Day: day.AddDate(0, 0, i), Close: closes[i], Volume: volumes[i]}
	}
	return bars
}

// --- advisor ---

func TestVerifyAdvisorRegistered(t *testing.T) {
	reg := &fakeRegistry{rows: []models.Intermediary{{Name: "Acme Wealth Advisors", RegistrationNumber: "INA000001234"}}}
	hist := &fakeHistory{}
	m := newFakeMetrics()
	v := newTestVerifier(reg, &fakeFilings{}, hist, &fakeBars{}, &fakeJudge{result: judgeResult(30)}, m)

	resp, err := v.VerifyAdvisor(context.Background(), "Acme Wealth")
	require.NoError(t, err)

	assert.True(t, resp.SEBIRegistered)
	assert.Equal(t, 25, resp.FinalScore) // (20+30)/2
	assert.Equal(t, models.RiskLow, resp.RiskLevel)
	assert.Equal(t, "Advisor found in SEBI registry", resp.Reasons[0])
	assert.Equal(t, "judge explanation", resp.Reasons[len(resp.Reasons)-1])

	require.Len(t, hist.appended, 1)
	assert.Equal(t, models.VerificationAdvisor, hist.appended[0].Type)
	assert.NotEmpty(t, hist.appended[0].ID)
	assert.Equal(t, 1, m.verifications["advisor/Low"])
}

func TestVerifyAdvisorUnregistered(t *testing.T) {
	m := newFakeMetrics()
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(85)}, m)

	resp, err := v.VerifyAdvisor(context.Background(), "Quick Rich Advisory")
	require.NoError(t, err)

	assert.False(t, resp.SEBIRegistered)
	assert.Equal(t, 85, resp.FinalScore)
	assert.Equal(t, models.RiskHigh, resp.RiskLevel)
	assert.Equal(t, "Advisor not found in SEBI registry", resp.Reasons[0])
}

func TestVerifyAdvisorRegistryErrorDegrades(t *testing.T) {
	m := newFakeMetrics()
	reg := &fakeRegistry{err: errors.New("connection refused")}
	v := newTestVerifier(reg, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(50)}, m)

	resp, err := v.VerifyAdvisor(context.Background(), "Anyone")
	require.NoError(t, err)

	assert.False(t, resp.SEBIRegistered)
	assert.Equal(t, 1, m.errors["registry_lookup"])
}

// --- announcement ---

func TestVerifyAnnouncementFilingMatch(t *testing.T) {
	text := "Board approves final dividend of Rs 10 per share for FY26"
	fil := &fakeFilings{rows: []models.Filing{{Ticker: "RELIANCE", Content: text}}}
	v := newTestVerifier(&fakeRegistry{}, fil, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(25)}, newFakeMetrics())

	resp, err := v.VerifyAnnouncement(context.Background(), text, "RELIANCE")
	require.NoError(t, err)

	assert.True(t, resp.OfficialFilingFound)
	assert.Equal(t, 25, resp.FinalScore) // (25+25)/2
	assert.Equal(t, "Matches official corporate filing", resp.Reasons[0])
}

func TestVerifyAnnouncementSuspiciousPhrases(t *testing.T) {
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(90)}, newFakeMetrics())

	resp, err := v.VerifyAnnouncement(context.Background(),
		"Company announces guaranteed returns and risk-free profits for all shareholders", "")
	require.NoError(t, err)

	assert.False(t, resp.OfficialFilingFound)
	// base 70 + 15 + 15 = 100, (100+90)/2 = 95
	assert.Equal(t, 95, resp.FinalScore)
	assert.Equal(t, models.RiskHigh, resp.RiskLevel)
	assert.Contains(t, resp.Reasons, "Contains suspicious phrase: 'guaranteed returns'")
	assert.Contains(t, resp.Reasons, "Contains suspicious phrase: 'risk-free'")
}

func TestVerifyAnnouncementDissimilarFilingNoMatch(t *testing.T) {
	fil := &fakeFilings{rows: []models.Filing{{Ticker: "TCS", Content: "Quarterly results announcement for Q3"}}}
	v := newTestVerifier(&fakeRegistry{}, fil, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(70)}, newFakeMetrics())

	resp, err := v.VerifyAnnouncement(context.Background(), "Massive expansion into renewable energy sector confirmed", "TCS")
	require.NoError(t, err)

	assert.False(t, resp.OfficialFilingFound)
	assert.Equal(t, 70, resp.FinalScore)
}

// --- social ---

func TestVerifySocialCleanContent(t *testing.T) {
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(30)}, newFakeMetrics())

	resp, err := v.VerifySocial(context.Background(), "Market closed flat today after a quiet session")
	require.NoError(t, err)

	assert.Equal(t, 30, resp.FinalScore) // (30+30)/2
	assert.Equal(t, models.RiskLow, resp.RiskLevel)
	assert.Equal(t, 0, resp.FraudIndicatorsFound)
}

func TestVerifySocialFraudulentContentWithFallback(t *testing.T) {
	m := newFakeMetrics()
	scorer := scoring.NewScorer(nil)
	// Whole-call fallback: judge unreachable, lexical result substituted.
	baseScore, _ := scorer.Score("Guaranteed 200% returns! Risk-free investment, act now!")
	fb := models.CredibilityResult{
		RiskScore:   baseScore,
		RiskLevel:   models.LevelForScore(baseScore),
		Explanation: "Automated analysis flagged multiple high-risk signals in this content.",
		Source:      models.SourceFallback,
	}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: fb}, m)

	resp, err := v.VerifySocial(context.Background(), "Guaranteed 200% returns! Risk-free investment, act now!")
	require.NoError(t, err)

	// guaranteed(20) + risk-free(20) + act now(10) on base 30 = 80.
	assert.Equal(t, 80, resp.FinalScore) // (80+80)/2
	assert.Equal(t, models.RiskHigh, resp.RiskLevel)
	assert.Positive(t, resp.FraudIndicatorsFound)
	assert.Contains(t, resp.Reasons, degradedReason)
	assert.Equal(t, 1, m.fallbacks)
}

// --- anomaly ---

func TestVerifyAnomalyQuietSeries(t *testing.T) {
	closes := []float64{100, 101, 100.5, 101.2, 100.8, 101.1, 100.9, 101.3, 101, 101.2}
	volumes := []int64{1000, 1100, 950, 1050, 1000, 980, 1020, 1010, 990, 1005}
	bars := &fakeBars{bars: barSeries("TCS", closes, volumes)}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, bars, &fakeJudge{result: judgeResult(30)}, newFakeMetrics())

	resp, err := v.VerifyAnomaly(context.Background(), "tcs")
	require.NoError(t, err)

	assert.False(t, resp.MarketData.Flagged())
	assert.Equal(t, 30, resp.FinalScore) // (30+30)/2
	assert.Equal(t, models.RiskLow, resp.RiskLevel)
}

func TestVerifyAnomalyPumpPattern(t *testing.T) {
	// 4x volume spike with a 20% price jump on the last bar.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 120}
	volumes := []int64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 4000}
	bars := &fakeBars{bars: barSeries("PUMP", closes, volumes)}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, bars, &fakeJudge{result: judgeResult(80)}, newFakeMetrics())

	resp, err := v.VerifyAnomaly(context.Background(), "PUMP")
	require.NoError(t, err)

	assert.True(t, resp.MarketData.VolumeSpike)
	assert.True(t, resp.MarketData.PriceManipulation)
	assert.True(t, resp.MarketData.SocialBuzz)
	// base 30 + 25 + 30 + 20 = 105, (105+80)/2 = 92.
	assert.Equal(t, 92, resp.FinalScore)
	assert.Equal(t, models.RiskHigh, resp.RiskLevel)
	assert.Contains(t, resp.Reasons, "Potential price manipulation pattern detected")
}

func TestVerifyAnomalyNoDataIsNeutral(t *testing.T) {
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, &fakeBars{}, &fakeJudge{result: judgeResult(30)}, newFakeMetrics())

	resp, err := v.VerifyAnomaly(context.Background(), "UNKNOWN")
	require.NoError(t, err)

	assert.False(t, resp.MarketData.Flagged())
	assert.Equal(t, 30, resp.FinalScore)
}

func TestVerifyAnomalyStoreErrorDegrades(t *testing.T) {
	m := newFakeMetrics()
	bars := &fakeBars{err: errors.New("clickhouse down")}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, bars, &fakeJudge{result: judgeResult(30)}, m)

	resp, err := v.VerifyAnomaly(context.Background(), "TCS")
	require.NoError(t, err)

	assert.False(t, resp.MarketData.Flagged())
	assert.Contains(t, resp.Reasons[0], "Market data temporarily unavailable")
	assert.Equal(t, 1, m.errors["bar_store"])
}

func TestVerifyAnomalyContractViolationFails(t *testing.T) {
	bars := &fakeBars{bars: barSeries("BAD", []float64{100, 101, 102}, []int64{1000, -5, 1100})}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, &fakeHistory{}, bars, &fakeJudge{result: judgeResult(30)}, newFakeMetrics())

	_, err := v.VerifyAnomaly(context.Background(), "BAD")
	require.Error(t, err)
}

// --- persistence behavior ---

func TestHistoryAppendFailureDoesNotFailVerdict(t *testing.T) {
	m := newFakeMetrics()
	hist := &fakeHistory{err: errors.New("postgres down")}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, hist, &fakeBars{}, &fakeJudge{result: judgeResult(50)}, m)

	resp, err := v.VerifySocial(context.Background(), "hello world")
	require.NoError(t, err)
	assert.NotZero(t, resp.FinalScore)
	assert.Equal(t, 1, m.errors["history_append"])
}

func TestHistoryReturnsNewestFirst(t *testing.T) {
	hist := &fakeHistory{}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, hist, &fakeBars{}, &fakeJudge{result: judgeResult(50)}, newFakeMetrics())

	_, err := v.VerifySocial(context.Background(), "first post")
	require.NoError(t, err)
	_, err = v.VerifySocial(context.Background(), "second post")
	require.NoError(t, err)

	recs, err := v.History(context.Background(), 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "second post", recs[0].Content)
}

func TestHistorySinceFiltersOldRecords(t *testing.T) {
	hist := &fakeHistory{}
	v := newTestVerifier(&fakeRegistry{}, &fakeFilings{}, hist, &fakeBars{}, &fakeJudge{result: judgeResult(50)}, newFakeMetrics())

	_, err := v.VerifySocial(context.Background(), "old post")
	require.NoError(t, err)
	hist.appended[0].CreatedAt = time.Now().Add(-48 * time.Hour)
	_, err = v.VerifySocial(context.Background(), "new post")
	require.NoError(t, err)

	recs, err := v.History(context.Background(), 10, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new post", recs[0].Content)
}
