package usecase

import (
	"context"
	"encoding/json"
	"time"

	"FraudShield/internal/domain/models"
	domrepo "FraudShield/internal/domain/repository"
	pkgkafka "FraudShield/pkg/kafka"
)

// KafkaBarsHandler consumes bar messages from Kafka and writes them to the
// bar store.
type KafkaBarsHandler struct {
	topic   string
	store   domrepo.BarStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, store domrepo.BarStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {ticker, t, c, v}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Ticker string  `json:"ticker"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      int64   `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	// Days key the series; the store deduplicates on (ticker, day).
	day := time.Unix(m.T, 0).UTC().Truncate(24 * time.Hour)

	start := time.Now()
	err := h.store.Store(ctx, &models.Bar{
		Ticker: m.Ticker,
		Day:    day,
		Close:  m.C,
		Volume: m.V,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
