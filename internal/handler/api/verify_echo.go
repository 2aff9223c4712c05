package api

import (
	"time"

	models "FraudShield/internal/domain/models"
	"FraudShield/internal/service/metrics"
	"FraudShield/internal/service/ratelimit"
	"FraudShield/internal/usecase"
	xhttp "FraudShield/pkg/http"
	xlogger "FraudShield/pkg/logger"
	"FraudShield/pkg/queue"

	"github.com/labstack/echo/v4"
)

const historyContentMax = 100

// VerifyEchoHandler exposes the verification API over Echo.
type VerifyEchoHandler struct {
	logger   *xlogger.Logger
	verifier *usecase.Verifier
	jobs     queue.QueueService
	rl       *ratelimit.Limiter
}

func NewVerifyEchoHandler(logger *xlogger.Logger, verifier *usecase.Verifier, jobs queue.QueueService) *VerifyEchoHandler {
	metrics.Register()
	return &VerifyEchoHandler{logger: logger, verifier: verifier, jobs: jobs, rl: ratelimit.New()}
}

func (h *VerifyEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/verify/advisor", h.Advisor)
	g.POST("/verify/announcement", h.Announcement)
	g.POST("/verify/social", h.Social)
	g.POST("/verify/anomaly", h.Anomaly)
	g.GET("/history", h.History)
	g.POST("/refresh/registry", h.RefreshRegistry)
	g.POST("/refresh/market", h.RefreshMarket)
}

func (h *VerifyEchoHandler) Advisor(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.VerifyLatency.WithLabelValues("advisor").Observe(time.Since(start).Seconds()) }()

	req := &models.AdvisorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "advisor") {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}

	res, err := h.verifier.VerifyAdvisor(c.Request().Context(), req.AdvisorName)
	if err != nil {
		metrics.VerifyErrors.WithLabelValues("advisor").Inc()
		h.logger.Error("advisor usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *VerifyEchoHandler) Announcement(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.VerifyLatency.WithLabelValues("announcement").Observe(time.Since(start).Seconds()) }()

	req := &models.AnnouncementRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "announcement") {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}

	res, err := h.verifier.VerifyAnnouncement(c.Request().Context(), req.Announcement, req.Ticker)
	if err != nil {
		metrics.VerifyErrors.WithLabelValues("announcement").Inc()
		h.logger.Error("announcement usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *VerifyEchoHandler) Social(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.VerifyLatency.WithLabelValues("social").Observe(time.Since(start).Seconds()) }()

	req := &models.SocialRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "social") {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}

	res, err := h.verifier.VerifySocial(c.Request().Context(), req.Content)
	if err != nil {
		metrics.VerifyErrors.WithLabelValues("social").Inc()
		h.logger.Error("social usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *VerifyEchoHandler) Anomaly(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.VerifyLatency.WithLabelValues("anomaly").Observe(time.Since(start).Seconds()) }()

	req := &models.AnomalyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "anomaly") {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}

	res, err := h.verifier.VerifyAnomaly(c.Request().Context(), req.Ticker)
	if err != nil {
		metrics.VerifyErrors.WithLabelValues("anomaly").Inc()
		h.logger.Error("anomaly usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *VerifyEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	since := xhttp.ParseTimeDefault(req.Since, time.Time{})
	recs, err := h.verifier.History(c.Request().Context(), req.Limit, since)
	if err != nil {
		metrics.VerifyErrors.WithLabelValues("history").Inc()
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	entries := make([]models.HistoryEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, models.HistoryEntry{
			ID:        r.ID,
			Type:      r.Type,
			Content:   previewContent(r.Content),
			RiskScore: r.FinalScore,
			RiskLevel: r.RiskLevel,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return xhttp.SuccessResponse(c, entries)
}

// previewContent truncates on rune boundaries so multi-byte characters are
// never split.
func previewContent(s string) string {
	r := []rune(s)
	if len(r) <= historyContentMax {
		return s
	}
	return string(r[:historyContentMax]) + "..."
}

// RefreshRegistry enqueues a background registry re-mirror.
func (h *VerifyEchoHandler) RefreshRegistry(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, errQueueDisabled())
	}
	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.TypeRegistryRefresh, nil); err != nil {
		metrics.VerifyErrors.WithLabelValues("refresh_registry").Inc()
		h.logger.Error("registry refresh enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
}

// RefreshMarket enqueues a background market-data backfill. An optional
// body selects tickers.
func (h *VerifyEchoHandler) RefreshMarket(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, errQueueDisabled())
	}
	payload := &usecase.MarketRefreshPayload{}
	// Body is optional; ignore bind errors for an empty body.
	_ = c.Bind(payload)

	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.TypeMarketRefresh, payload); err != nil {
		metrics.VerifyErrors.WithLabelValues("refresh_market").Inc()
		h.logger.Error("market refresh enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
}

// errQueueDisabled reports the refresh queue being absent, which happens
// when Redis is disabled in configuration.
func errQueueDisabled() *xhttp.AppError {
	return xhttp.NewAppError("queue_disabled", "", "refresh queue disabled", 503)
}

func (h *VerifyEchoHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl == nil {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return true
	}
	h.logger.Warn("rate limited", xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
	return false
}
