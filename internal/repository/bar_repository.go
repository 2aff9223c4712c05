package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FraudShield/internal/domain/models"
	domrepo "FraudShield/internal/domain/repository"
	pkgch "FraudShield/pkg/clickhouse"
	pkgkafka "FraudShield/pkg/kafka"
	applogger "FraudShield/pkg/logger"
)

// ClickHouseBarStore implements BarStore on the daily_bars table. The table
// is a ReplacingMergeTree keyed on (ticker, day), so re-ingesting a day is
// an overwrite, not a duplicate.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseBarStore(ch *pkgch.Client, table string) *ClickHouseBarStore {
	return &ClickHouseBarStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseBarStore) Store(ctx context.Context, b *models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (ticker, day, close, volume) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, b.Ticker, b.Day, b.Close, b.Volume)
	return err
}

func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, 2000 rows per chunk.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, b := range bars[start:end] {
			if b == nil || b.Ticker == "" || b.Day.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, b.Ticker, b.Day, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ticker, day, close, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// LatestBars returns up to n most recent bars for a ticker, ascending by
// day. FINAL collapses replaced rows so each day appears once.
func (s *ClickHouseBarStore) LatestBars(ctx context.Context, ticker string, n int) ([]models.Bar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ticker, day, close, volume
        FROM %s FINAL
        WHERE ticker = ?
        ORDER BY day DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("ticker", ticker),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Ticker, &b.Day, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// Reverse to ascending day order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if s.l != nil {
		s.l.Debug("clickhouse latest_bars ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return nil // Managed by pkg
}

// KafkaBarPublisher implements Publisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, b *models.Bar) error {
	return p.producer.Publish(ctx, p.topic, []byte(b.Ticker), map[string]interface{}{
		"ticker": b.Ticker,
		"t":      b.Day.Unix(),
		"c":      b.Close,
		"v":      b.Volume,
	})
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{
			Key: []byte(b.Ticker),
			Value: map[string]interface{}{
				"ticker": b.Ticker,
				"t":      b.Day.Unix(),
				"c":      b.Close,
				"v":      b.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaAuditPublisher emits one event per completed verification.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string) domrepo.AuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) PublishVerification(ctx context.Context, rec *models.VerificationRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Type), rec)
}

func (p *KafkaAuditPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
