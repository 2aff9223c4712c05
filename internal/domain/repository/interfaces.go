package repository

import (
	"context"
	"time"

	"FraudShield/internal/domain/models"
)

// BarStream is a live market feed pushing end-of-day bar updates for
// tracked tickers.
type BarStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher sends bars to the message bus.
type Publisher interface {
	Publish(ctx context.Context, b *models.Bar) error
	PublishBatch(ctx context.Context, bars []*models.Bar) error
	Close() error
}

// BarStore is the market-data store backing anomaly detection.
type BarStore interface {
	Store(ctx context.Context, b *models.Bar) error
	StoreBatch(ctx context.Context, bars []*models.Bar) error
	// LatestBars returns up to n most recent bars for a ticker, ordered
	// ascending by day.
	LatestBars(ctx context.Context, ticker string, n int) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// RegistryStore holds the SEBI intermediary registry mirror.
type RegistryStore interface {
	Upsert(ctx context.Context, in *models.Intermediary) error
	// Search returns intermediaries whose name or email contains the query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]models.Intermediary, error)
}

// FilingStore holds mirrored exchange filings.
type FilingStore interface {
	Insert(ctx context.Context, f *models.Filing) error
	// Search returns filings matching the query text, scoped to a ticker
	// when one is provided, newest first.
	Search(ctx context.Context, query, ticker string) ([]models.Filing, error)
}

// HistoryStore persists verification records. Append-only.
type HistoryStore interface {
	Append(ctx context.Context, rec *models.VerificationRecord) error
	// Recent returns records newest first. A zero since means no lower
	// bound on creation time.
	Recent(ctx context.Context, limit int, since time.Time) ([]models.VerificationRecord, error)
}

// AuditPublisher emits verification events for downstream consumers.
// Failures here are observability losses, never verification failures.
type AuditPublisher interface {
	PublishVerification(ctx context.Context, rec *models.VerificationRecord) error
	Close() error
}

// Metrics abstracts the operational metrics recorder.
type Metrics interface {
	RecordVerification(vtype, level string)
	RecordMessageSent(backend, ticker string)
	RecordError(kind string)
	RecordJudgeFallback(reason string)
	RecordLatency(op string, seconds float64)
}
