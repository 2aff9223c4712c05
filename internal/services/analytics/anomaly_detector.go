package analytics

import (
	"fmt"
	"math"

	"FraudShield/internal/domain/models"
)

// Thresholds for the rolling-window heuristics. These classify by fixed
// cutoffs, not by a statistical model.
const (
	volumeWindow = 10
	priceWindow  = 5

	volumeSpikeThresholdPct = 200
	buzzVolumeThresholdPct  = 150
	manipulationPricePct    = 15
	buzzPricePct            = 10
)

// Detector derives anomaly flags from a chronological daily bar series.
// It is stateless; each call is independent.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect computes the anomaly signal for a series ordered ascending by day.
//
// Fewer than 2 bars is a documented degenerate case, not an error: all flags
// false, all percentages zero. Negative volumes, non-finite prices, and
// out-of-order or duplicate days are contract violations by the upstream
// data collaborator and are rejected loudly, since silently normalizing them
// would corrupt the percentages.
func (d *Detector) Detect(bars []models.Bar) (models.AnomalySignal, error) {
	if err := validateSeries(bars); err != nil {
		return models.AnomalySignal{}, err
	}
	if len(bars) < 2 {
		return models.AnomalySignal{}, nil
	}

	// Volume window: latest bar vs mean of the prior bars in the window.
	vw := tail(bars, volumeWindow)
	latest := vw[len(vw)-1].Volume
	var sum float64
	for _, b := range vw[:len(vw)-1] {
		sum += float64(b.Volume)
	}
	avgVolume := sum / float64(len(vw)-1)

	var volumeIncrease float64
	if avgVolume > 0 {
		volumeIncrease = (float64(latest) - avgVolume) / avgVolume * 100
	}
	volumeSpike := volumeIncrease > volumeSpikeThresholdPct

	// Price window: percentage change across the last bars.
	pw := tail(bars, priceWindow)
	var priceChange float64
	if first := pw[0].Close; first > 0 {
		priceChange = (pw[len(pw)-1].Close - first) / first * 100
	}

	// Comparisons use the unrounded values; rounding is for reporting only.
	manipulation := volumeSpike && math.Abs(priceChange) > manipulationPricePct
	buzz := volumeIncrease > buzzVolumeThresholdPct && math.Abs(priceChange) > buzzPricePct

	return models.AnomalySignal{
		VolumeSpike:       volumeSpike,
		PriceManipulation: manipulation,
		SocialBuzz:        buzz,
		VolumeIncreasePct: round2(volumeIncrease),
		PriceChangePct:    round2(priceChange),
		AvgVolume:         avgVolume,
		LatestVolume:      latest,
	}, nil
}

func validateSeries(bars []models.Bar) error {
	for i, b := range bars {
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume %d", i, b.Day.Format("2006-01-02"), b.Volume)
		}
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return fmt.Errorf("bar %d (%s): non-finite close", i, b.Day.Format("2006-01-02"))
		}
		if b.Close < 0 {
			return fmt.Errorf("bar %d (%s): negative close %f", i, b.Day.Format("2006-01-02"), b.Close)
		}
		if i > 0 && !bars[i-1].Day.Before(b.Day) {
			return fmt.Errorf("bar %d (%s): series not strictly ascending by day", i, b.Day.Format("2006-01-02"))
		}
	}
	return nil
}

func tail(bars []models.Bar, n int) []models.Bar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
