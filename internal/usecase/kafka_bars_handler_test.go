package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"FraudShield/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBars struct {
	fakeBars
	stored []*models.Bar
	err    error
}

func (c *captureBars) Store(ctx context.Context, b *models.Bar) error {
	if c.err != nil {
		return c.err
	}
	c.stored = append(c.stored, b)
	return nil
}

func TestHandleStoresDayAlignedBar(t *testing.T) {
	store := &captureBars{}
	h := NewKafkaBarsHandler("market.daily_bars", store, newFakeMetrics())

	ts := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	msg := []byte(`{"ticker":"TCS","t":` + timeUnixStr(ts) + `,"c":3501.5,"v":120000}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.stored, 1)
	b := store.stored[0]
	assert.Equal(t, "TCS", b.Ticker)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), b.Day)
	assert.Equal(t, 3501.5, b.Close)
	assert.Equal(t, int64(120000), b.Volume)
}

func TestHandleAcceptsMillisecondTimestamps(t *testing.T) {
	store := &captureBars{}
	h := NewKafkaBarsHandler("market.daily_bars", store, newFakeMetrics())

	ts := time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC)
	msg := []byte(`{"ticker":"INFY","t":` + timeUnixMilliStr(ts) + `,"c":1500,"v":5000}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.stored, 1)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), store.stored[0].Day)
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("market.daily_bars", &captureBars{}, m)

	err := h.Handle(context.Background(), []byte("not json"))
	require.Error(t, err)
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])
}

func TestHandleSurfacesStoreError(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("market.daily_bars", &captureBars{err: errors.New("clickhouse down")}, m)

	err := h.Handle(context.Background(), []byte(`{"ticker":"SBIN","t":1756345600,"c":800,"v":100}`))
	require.Error(t, err)
	assert.Equal(t, 1, m.errors["consumer_store"])
}

func timeUnixStr(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func timeUnixMilliStr(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
