package analytics

import (
	"math"
	"testing"
	"time"

	"FraudShield/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(closes []float64, volumes []int64) []models.Bar {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i := range closes {
		bars[i] = models.Bar{
			Ticker: "RELIANCE",
			Day:    day.AddDate(0, 0, i),
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return bars
}

func flat(n int, close float64, volume int64) []models.Bar {
	closes := make([]float64, n)
	volumes := make([]int64, n)
	for i := range closes {
		closes[i] = close
		volumes[i] = volume
	}
	return series(closes, volumes)
}

func TestDetectTooFewBarsIsNeutral(t *testing.T) {
	d := NewDetector()

	sig, err := d.Detect(nil)
	require.NoError(t, err)
	assert.Equal(t, models.AnomalySignal{}, sig)
	assert.False(t, sig.Flagged())

	sig, err = d.Detect(flat(1, 100, 1000))
	require.NoError(t, err)
	assert.Equal(t, models.AnomalySignal{}, sig)
}

func TestDetectQuietSeries(t *testing.T) {
	sig, err := NewDetector().Detect(flat(10, 100, 1000))
	require.NoError(t, err)

	assert.False(t, sig.Flagged())
	assert.Equal(t, 0.0, sig.VolumeIncreasePct)
	assert.Equal(t, 0.0, sig.PriceChangePct)
	assert.Equal(t, 1000.0, sig.AvgVolume)
	assert.Equal(t, int64(1000), sig.LatestVolume)
}

func TestDetectPumpAndDump(t *testing.T) {
	// Four times the average volume with a 20% price ramp over the last
	// five bars trips all three flags.
	bars := flat(9, 100, 1000)
	bars = append(bars, models.Bar{
		Ticker: "RELIANCE",
		Day:    bars[8].Day.AddDate(0, 0, 1),
		Close:  120,
		Volume: 4000,
	})

	sig, err := NewDetector().Detect(bars)
	require.NoError(t, err)

	assert.True(t, sig.VolumeSpike)
	assert.True(t, sig.PriceManipulation)
	assert.True(t, sig.SocialBuzz)
	assert.Equal(t, 300.0, sig.VolumeIncreasePct)
	assert.Equal(t, 20.0, sig.PriceChangePct)
	assert.True(t, sig.Flagged())
}

func TestDetectVolumeSpikeWithoutPriceMove(t *testing.T) {
	bars := flat(9, 100, 1000)
	bars = append(bars, models.Bar{
		Ticker: "RELIANCE",
		Day:    bars[8].Day.AddDate(0, 0, 1),
		Close:  100,
		Volume: 5000,
	})

	sig, err := NewDetector().Detect(bars)
	require.NoError(t, err)

	assert.True(t, sig.VolumeSpike)
	assert.False(t, sig.PriceManipulation)
	assert.False(t, sig.SocialBuzz)
	assert.Equal(t, 400.0, sig.VolumeIncreasePct)
}

func TestDetectBuzzBelowManipulationThreshold(t *testing.T) {
	// Volume up 180% with a 12% price move: enough for buzz, not enough
	// for a spike or manipulation.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 112}
	volumes := []int64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 2800}

	sig, err := NewDetector().Detect(series(closes, volumes))
	require.NoError(t, err)

	assert.False(t, sig.VolumeSpike)
	assert.False(t, sig.PriceManipulation)
	assert.True(t, sig.SocialBuzz)
	assert.Equal(t, 180.0, sig.VolumeIncreasePct)
	assert.Equal(t, 12.0, sig.PriceChangePct)
}

func TestDetectWindowsIgnoreOlderBars(t *testing.T) {
	// Huge old volumes outside the 10-bar window must not dilute the
	// average, and old prices must not affect the 5-bar price change.
	bars := flat(5, 500, 1_000_000)
	bars = append(bars, flat(9, 100, 1000)...)
	for i := 5; i < len(bars); i++ {
		bars[i].Day = bars[4].Day.AddDate(0, 0, i-4)
	}
	bars = append(bars, models.Bar{
		Ticker: "RELIANCE",
		Day:    bars[len(bars)-1].Day.AddDate(0, 0, 1),
		Close:  100,
		Volume: 4000,
	})

	sig, err := NewDetector().Detect(bars)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, sig.AvgVolume)
	assert.Equal(t, 300.0, sig.VolumeIncreasePct)
	assert.Equal(t, 0.0, sig.PriceChangePct)
}

func TestDetectPriceDropCountsAbsolute(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 80}
	volumes := []int64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 4000}

	sig, err := NewDetector().Detect(series(closes, volumes))
	require.NoError(t, err)

	// A dump leg: volume spike plus a 20% drop is still manipulation.
	assert.True(t, sig.PriceManipulation)
	assert.Equal(t, -20.0, sig.PriceChangePct)
}

func TestDetectRoundsReportedPercentages(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100.333}
	volumes := []int64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1003}

	sig, err := NewDetector().Detect(series(closes, volumes))
	require.NoError(t, err)

	assert.Equal(t, 0.3, sig.VolumeIncreasePct)
	assert.Equal(t, 0.33, sig.PriceChangePct)
}

func TestDetectRejectsContractViolations(t *testing.T) {
	d := NewDetector()

	bars := flat(3, 100, 1000)
	bars[1].Volume = -5
	_, err := d.Detect(bars)
	assert.ErrorContains(t, err, "negative volume")

	bars = flat(3, 100, 1000)
	bars[2].Close = math.NaN()
	_, err = d.Detect(bars)
	assert.ErrorContains(t, err, "non-finite close")

	bars = flat(3, 100, 1000)
	bars[0].Close = -10
	_, err = d.Detect(bars)
	assert.ErrorContains(t, err, "negative close")

	bars = flat(3, 100, 1000)
	bars[2].Day = bars[1].Day
	_, err = d.Detect(bars)
	assert.ErrorContains(t, err, "not strictly ascending")
}

func TestDetectZeroBaselineVolume(t *testing.T) {
	// A dead ticker that suddenly trades has no meaningful baseline, so
	// the increase stays at zero rather than dividing by zero.
	sig, err := NewDetector().Detect(series(
		[]float64{100, 100, 100},
		[]int64{0, 0, 5000},
	))
	require.NoError(t, err)

	assert.Equal(t, 0.0, sig.VolumeIncreasePct)
	assert.False(t, sig.VolumeSpike)
	assert.Equal(t, int64(5000), sig.LatestVolume)
}
