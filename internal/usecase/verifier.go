package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"FraudShield/internal/domain/models"
	domrepo "FraudShield/internal/domain/repository"
	domsvc "FraudShield/internal/domain/service"
	pkgcache "FraudShield/pkg/cache"
	applogger "FraudShield/pkg/logger"

	"github.com/google/uuid"
)

// Base risk scores per verification outcome. The advisor pair (85/20)
// deliberately differs from the generic 60/30 level thresholds; the numeric
// behavior is preserved as-is, not unified.
const (
	advisorUnregisteredScore = 85
	advisorRegisteredScore   = 20

	filingMatchScore    = 25
	filingNoMatchScore  = 70
	suspiciousPhraseAdd = 15

	anomalyBaseScore        = 30
	volumeSpikeAdd          = 25
	priceManipulationAdd    = 30
	socialBuzzAdd           = 20
	anomalyLookbackBars     = 30
	filingSimilarityCutoff  = 0.7
	defaultAnomalyCacheTTL  = 5 * time.Minute
)

// suspiciousPhrases are scanned in announcements on top of the filing match.
// Ordered so reasons are reproducible.
var suspiciousPhrases = []string{
	"guaranteed returns",
	"risk-free",
	"double your money",
	"extraordinary returns",
	"insider information",
	"hot tip",
}

// Verifier runs the four verification flows: it computes the type-specific
// base signal, obtains the credibility signal, fuses both, and persists the
// audit record. The fusion core never produces a user-visible error; only
// the anomaly flow can fail, and only on a contract-violating bar series.
type Verifier struct {
	registry domrepo.RegistryStore
	filings  domrepo.FilingStore
	history  domrepo.HistoryStore
	bars     domrepo.BarStore
	detector domsvc.AnomalyDetector
	lexical  domsvc.LexicalScorer
	judge    domsvc.CredibilityJudge
	agg      *RiskAggregator
	metrics  domrepo.Metrics

	audit    domrepo.AuditPublisher
	cache    pkgcache.Service
	cacheTTL time.Duration
	l        *applogger.Logger
}

func NewVerifier(
	registry domrepo.RegistryStore,
	filings domrepo.FilingStore,
	history domrepo.HistoryStore,
	bars domrepo.BarStore,
	detector domsvc.AnomalyDetector,
	lexical domsvc.LexicalScorer,
	judge domsvc.CredibilityJudge,
	agg *RiskAggregator,
	metrics domrepo.Metrics,
) *Verifier {
	return &Verifier{
		registry: registry,
		filings:  filings,
		history:  history,
		bars:     bars,
		detector: detector,
		lexical:  lexical,
		judge:    judge,
		agg:      agg,
		metrics:  metrics,
		cacheTTL: defaultAnomalyCacheTTL,
	}
}

// SetAudit injects the optional verification-event publisher.
func (v *Verifier) SetAudit(p domrepo.AuditPublisher) { v.audit = p }

// SetCache injects an optional cache for anomaly signals.
func (v *Verifier) SetCache(c pkgcache.Service, ttl time.Duration) {
	v.cache = c
	if ttl > 0 {
		v.cacheTTL = ttl
	}
}

// SetLogger injects a structured logger.
func (v *Verifier) SetLogger(l *applogger.Logger) { v.l = l }

// VerifyAdvisor checks an advisor name against the SEBI registry mirror and
// fuses the membership signal with the credibility signal.
func (v *Verifier) VerifyAdvisor(ctx context.Context, name string) (*models.AdvisorResponse, error) {
	var (
		cred models.CredibilityResult
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cred = v.judge.Assess(ctx, "Financial advisor: "+name, models.VerificationAdvisor)
	}()

	registered := v.advisorRegistered(ctx, name)
	wg.Wait()

	base := advisorUnregisteredScore
	reasons := []string{"Advisor not found in SEBI registry"}
	if registered {
		base = advisorRegisteredScore
		reasons = []string{"Advisor found in SEBI registry"}
	}

	verdict := v.agg.Fuse(base, reasons, cred)
	v.finish(ctx, models.VerificationAdvisor, name, verdict, cred)
	return &models.AdvisorResponse{RiskVerdict: verdict, SEBIRegistered: registered}, nil
}

// VerifyAnnouncement checks an announcement against mirrored filings, scans
// for suspicious phrases, and fuses with the credibility signal.
func (v *Verifier) VerifyAnnouncement(ctx context.Context, announcement, ticker string) (*models.AnnouncementResponse, error) {
	var (
		cred models.CredibilityResult
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cred = v.judge.Assess(ctx, announcement, models.VerificationAnnouncement)
	}()

	matched := v.filingMatch(ctx, announcement, ticker)
	wg.Wait()

	base := filingNoMatchScore
	reasons := []string{"No matching official filing found"}
	if matched {
		base = filingMatchScore
		reasons = []string{"Matches official corporate filing"}
	}

	lower := strings.ToLower(announcement)
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(lower, phrase) {
			reasons = append(reasons, fmt.Sprintf("Contains suspicious phrase: '%s'", phrase))
			base += suspiciousPhraseAdd
		}
	}

	verdict := v.agg.Fuse(base, reasons, cred)
	v.finish(ctx, models.VerificationAnnouncement, announcement, verdict, cred)
	return &models.AnnouncementResponse{RiskVerdict: verdict, OfficialFilingFound: matched}, nil
}

// VerifySocial scores social-media content with the lexical scanner and
// fuses with the credibility signal.
func (v *Verifier) VerifySocial(ctx context.Context, content string) (*models.SocialResponse, error) {
	base, reasons := v.lexical.Score(content)
	cred := v.judge.Assess(ctx, content, models.VerificationSocial)

	verdict := v.agg.Fuse(base, reasons, cred)
	v.finish(ctx, models.VerificationSocial, content, verdict, cred)
	return &models.SocialResponse{RiskVerdict: verdict, FraudIndicatorsFound: len(reasons)}, nil
}

// VerifyAnomaly screens a ticker's recent bars for pump-and-dump patterns.
// It fails only when the stored series violates the data contract; a missing
// or unreachable series degrades to a neutral signal with an explanatory
// reason.
func (v *Verifier) VerifyAnomaly(ctx context.Context, ticker string) (*models.AnomalyResponse, error) {
	ticker = strings.ToUpper(ticker)

	sig, degraded, err := v.anomalySignal(ctx, ticker)
	if err != nil {
		return nil, err
	}

	base := anomalyBaseScore
	var reasons []string
	if degraded {
		reasons = append(reasons, "Market data temporarily unavailable; anomaly screening ran without price history")
	}
	if sig.VolumeSpike {
		reasons = append(reasons, fmt.Sprintf("Unusual volume spike detected (%.2f%% increase)", sig.VolumeIncreasePct))
		base += volumeSpikeAdd
	}
	if sig.PriceManipulation {
		reasons = append(reasons, "Potential price manipulation pattern detected")
		base += priceManipulationAdd
	}
	if sig.SocialBuzz {
		reasons = append(reasons, "High social media buzz without fundamental news")
		base += socialBuzzAdd
	}

	content := fmt.Sprintf("Stock ticker %s with volume spike: %.2f%%, price change: %.2f%%",
		ticker, sig.VolumeIncreasePct, sig.PriceChangePct)
	cred := v.judge.Assess(ctx, content, models.VerificationAnomaly)

	verdict := v.agg.Fuse(base, reasons, cred)
	v.finish(ctx, models.VerificationAnomaly, ticker, verdict, cred)
	return &models.AnomalyResponse{RiskVerdict: verdict, MarketData: sig}, nil
}

// History returns the most recent verification records, optionally limited
// to those created at or after since.
func (v *Verifier) History(ctx context.Context, limit int, since time.Time) ([]models.VerificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	recs, err := v.history.Recent(ctx, limit, since)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return recs, nil
}

func (v *Verifier) advisorRegistered(ctx context.Context, name string) bool {
	results, err := v.registry.Search(ctx, name)
	if err != nil {
		// Lookup failure is treated as absence, same as the registry being
		// unreachable during a scrape.
		v.metrics.RecordError("registry_lookup")
		if v.l != nil {
			v.l.Warn("registry lookup failed", applogger.String("advisor", name), applogger.Error(err))
		}
		return false
	}
	return len(results) > 0
}

func (v *Verifier) filingMatch(ctx context.Context, announcement, ticker string) bool {
	results, err := v.filings.Search(ctx, announcement, ticker)
	if err != nil {
		v.metrics.RecordError("filing_lookup")
		if v.l != nil {
			v.l.Warn("filing lookup failed", applogger.String("ticker", ticker), applogger.Error(err))
		}
		return false
	}
	for _, f := range results {
		if wordSimilarity(announcement, f.Content) > filingSimilarityCutoff {
			return true
		}
	}
	return false
}

// anomalySignal loads the recent bar series and runs the detector, with a
// short-lived cache in front. degraded is true when the bar store errored.
func (v *Verifier) anomalySignal(ctx context.Context, ticker string) (sig models.AnomalySignal, degraded bool, err error) {
	cacheKey := pkgcache.GenerateKey("anomaly", ticker)
	if v.cache != nil {
		if cerr := v.cache.Get(ctx, cacheKey, &sig); cerr == nil {
			return sig, false, nil
		}
	}

	bars, serr := v.bars.LatestBars(ctx, ticker, anomalyLookbackBars)
	if serr != nil {
		v.metrics.RecordError("bar_store")
		if v.l != nil {
			v.l.Warn("bar store unavailable", applogger.String("ticker", ticker), applogger.Error(serr))
		}
		return models.AnomalySignal{}, true, nil
	}

	sig, err = v.detector.Detect(bars)
	if err != nil {
		v.metrics.RecordError("anomaly_contract")
		return models.AnomalySignal{}, false, fmt.Errorf("detect %s: %w", ticker, err)
	}

	if v.cache != nil {
		_ = v.cache.Set(ctx, cacheKey, sig, v.cacheTTL)
	}
	return sig, false, nil
}

// finish persists the audit record, publishes the verification event, and
// records metrics. Failures here are logged, never surfaced: a completed
// verdict is not invalidated by observability problems.
func (v *Verifier) finish(ctx context.Context, vtype models.VerificationType, content string, verdict models.RiskVerdict, cred models.CredibilityResult) {
	if cred.Source != models.SourceJudge {
		v.metrics.RecordJudgeFallback(string(cred.Source))
	}

	rec := &models.VerificationRecord{
		ID:                     uuid.NewString(),
		Type:                   vtype,
		Content:                content,
		FinalScore:             verdict.FinalScore,
		RiskLevel:              verdict.RiskLevel,
		Reasons:                strings.Join(verdict.Reasons, "; "),
		CredibilityExplanation: verdict.CredibilityExplanation,
		CreatedAt:              time.Now().UTC(),
	}
	if err := v.history.Append(ctx, rec); err != nil {
		v.metrics.RecordError("history_append")
		if v.l != nil {
			v.l.Error("history append failed", applogger.String("type", string(vtype)), applogger.Error(err))
		}
	}
	if v.audit != nil {
		if err := v.audit.PublishVerification(ctx, rec); err != nil {
			v.metrics.RecordError("audit_publish")
			if v.l != nil {
				v.l.Warn("audit publish failed", applogger.String("type", string(vtype)), applogger.Error(err))
			}
		}
	}
	v.metrics.RecordVerification(string(vtype), string(verdict.RiskLevel))
}

// wordSimilarity is Jaccard similarity over lowercased word sets.
func wordSimilarity(a, b string) float64 {
	aw := wordSet(a)
	bw := wordSet(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	inter := 0
	for w := range aw {
		if _, ok := bw[w]; ok {
			inter++
		}
	}
	union := len(aw) + len(bw) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
