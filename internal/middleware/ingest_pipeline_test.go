package middleware

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"FraudShield/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordProc struct {
	mu   sync.Mutex
	bars []*models.Bar
	err  error
}

func (p *recordProc) Process(ctx context.Context, b *models.Bar) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.bars = append(p.bars, b)
	return nil
}

func (p *recordProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bars)
}

type countMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountMetrics() *countMetrics { return &countMetrics{errors: make(map[string]int)} }

func (m *countMetrics) RecordVerification(vtype, level string) {}
func (m *countMetrics) RecordMessageSent(backend, ticker string) {}
func (m *countMetrics) RecordJudgeFallback(reason string)        {}
func (m *countMetrics) RecordLatency(op string, seconds float64) {}

func (m *countMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func bar(ticker string) *models.Bar {
	return &models.Bar{
		Ticker: ticker,
		Day:    time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Close:  100,
		Volume: 1000,
	}
}

func TestProcessForwardsValidBar(t *testing.T) {
	proc := &recordProc{}
	p := NewIngestPipeline(proc, newCountMetrics())

	require.NoError(t, p.Process(context.Background(), bar("TCS")))
	assert.Equal(t, 1, proc.count())
}

func TestProcessRejectsInvalidBars(t *testing.T) {
	m := newCountMetrics()
	proc := &recordProc{}
	p := NewIngestPipeline(proc, m)

	cases := []*models.Bar{
		nil,
		{Ticker: "", Day: time.Now(), Close: 1, Volume: 1},
		{Ticker: "TCS", Close: 1, Volume: 1},
		{Ticker: "TCS", Day: time.Now(), Close: 1, Volume: -1},
		{Ticker: "TCS", Day: time.Now(), Close: -1, Volume: 1},
		{Ticker: "TCS", Day: time.Now(), Close: math.NaN(), Volume: 1},
	}
	for _, b := range cases {
		assert.Error(t, p.Process(context.Background(), b))
	}
	assert.Equal(t, 0, proc.count())
	assert.Equal(t, len(cases), m.errCount("pipeline_validate"))
}

func TestProcessThrottlesPerTicker(t *testing.T) {
	m := newCountMetrics()
	proc := &recordProc{}
	p := NewIngestPipeline(proc, m, WithMaxRPS(1))

	require.NoError(t, p.Process(context.Background(), bar("TCS")))
	// Second bar for the same ticker inside the window is dropped, not an error.
	require.NoError(t, p.Process(context.Background(), bar("TCS")))
	// A different ticker has its own window.
	require.NoError(t, p.Process(context.Background(), bar("INFY")))

	assert.Equal(t, 2, proc.count())
	assert.Equal(t, 1, m.errCount("pipeline_throttle"))
}

func TestProcessBuffersOnDownstreamError(t *testing.T) {
	m := newCountMetrics()
	proc := &recordProc{err: errors.New("backend down")}
	p := NewIngestPipeline(proc, m, WithBufferSize(4))

	err := p.Process(context.Background(), bar("TCS"))
	require.Error(t, err)
	assert.Equal(t, 1, m.errCount("pipeline_process"))
	assert.Equal(t, 1, len(p.bufCh))
}

func TestProcessAppliesTransform(t *testing.T) {
	proc := &recordProc{}
	p := NewIngestPipeline(proc, newCountMetrics(), WithTransform(func(b *models.Bar) *models.Bar {
		b.Ticker = b.Ticker + ".NS"
		return b
	}))

	require.NoError(t, p.Process(context.Background(), bar("TCS")))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, "TCS.NS", proc.bars[0].Ticker)
}

func TestStartFlushesBufferedBars(t *testing.T) {
	m := newCountMetrics()
	proc := &recordProc{err: errors.New("backend down")}
	p := NewIngestPipeline(proc, m, WithBufferSize(4))

	_ = p.Process(context.Background(), bar("TCS"))
	require.Equal(t, 1, len(p.bufCh))

	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered bar was not flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
