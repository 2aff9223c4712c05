package usecase

import (
	"context"
	"fmt"

	domrepo "FraudShield/internal/domain/repository"
	"FraudShield/internal/service/filings"
	"FraudShield/internal/service/marketfeed"
	"FraudShield/internal/service/registry"
	applogger "FraudShield/pkg/logger"
	"FraudShield/pkg/queue"
)

// Queue message types for refresh requests.
const (
	TypeRegistryRefresh = "refresh.registry"
	TypeMarketRefresh   = "refresh.market"
)

// RegistryRefreshJob re-mirrors the SEBI registry in the background.
type RegistryRefreshJob struct {
	fetcher *registry.Fetcher
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewRegistryRefreshJob(fetcher *registry.Fetcher, metrics domrepo.Metrics, l *applogger.Logger) *RegistryRefreshJob {
	return &RegistryRefreshJob{fetcher: fetcher, metrics: metrics, l: l}
}

func (j *RegistryRefreshJob) Name() string { return "registry_refresh" }
func (j *RegistryRefreshJob) Type() string { return TypeRegistryRefresh }

func (j *RegistryRefreshJob) Handle(ctx context.Context, _ interface{}) error {
	count, err := j.fetcher.Refresh(ctx)
	if err != nil {
		j.metrics.RecordError("registry_refresh")
		return fmt.Errorf("registry refresh: %w", err)
	}
	if j.l != nil {
		j.l.Info("registry refresh job done", applogger.Int("count", count))
	}
	return nil
}

// MarketRefreshPayload selects which tickers to refresh; empty means the
// configured watchlist.
type MarketRefreshPayload struct {
	Tickers []string `json:"tickers"`
}

// MarketRefreshJob backfills daily bars and re-mirrors filings for tracked
// tickers.
type MarketRefreshJob struct {
	history   *marketfeed.HistoryClient
	proc      *BarProcessor
	filings   *filings.Fetcher
	watchlist []string
	days      int
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewMarketRefreshJob(
	history *marketfeed.HistoryClient,
	proc *BarProcessor,
	fil *filings.Fetcher,
	watchlist []string,
	days int,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *MarketRefreshJob {
	if days <= 0 {
		days = 30
	}
	return &MarketRefreshJob{
		history:   history,
		proc:      proc,
		filings:   fil,
		watchlist: watchlist,
		days:      days,
		metrics:   metrics,
		l:         l,
	}
}

func (j *MarketRefreshJob) Name() string { return "market_refresh" }
func (j *MarketRefreshJob) Type() string { return TypeMarketRefresh }

func (j *MarketRefreshJob) Handle(ctx context.Context, payload interface{}) error {
	tickers := j.watchlist
	if payload != nil {
		p, err := queue.ParsePayload[MarketRefreshPayload](payload)
		if err == nil && len(p.Tickers) > 0 {
			tickers = p.Tickers
		}
	}

	var firstErr error
	for _, ticker := range tickers {
		bars, err := j.history.FetchDailyBars(ctx, ticker, j.days)
		if err != nil {
			j.metrics.RecordError("market_refresh_fetch")
			if j.l != nil {
				j.l.Warn("bar history fetch failed", applogger.String("ticker", ticker), applogger.Error(err))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(bars) == 0 {
			continue
		}
		if err := j.proc.ProcessBatch(ctx, bars); err != nil {
			j.metrics.RecordError("market_refresh_store")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if j.filings != nil {
		if _, err := j.filings.Refresh(ctx, tickers); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return fmt.Errorf("market refresh: %w", firstErr)
	}
	return nil
}

var (
	_ queue.Job = (*RegistryRefreshJob)(nil)
	_ queue.Job = (*MarketRefreshJob)(nil)
)
