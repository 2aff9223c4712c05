package models

import "time"

// Bar is one daily price/volume observation for an instrument. Series are
// ordered ascending by day with no duplicate days per ticker, and are
// immutable once fetched for a given assessment.
type Bar struct {
	Ticker string
	Day    time.Time // calendar day, UTC midnight
	Close  float64
	Volume int64
}

// AnomalySignal holds the threshold-based anomaly flags derived from a bar
// series. It is recomputed per request and folded into verdict reasons,
// never persisted on its own.
//
// This is a deliberately simple heuristic classifier over rolling windows,
// not a probabilistic anomaly model.
type AnomalySignal struct {
	VolumeSpike       bool    `json:"volume_spike"`
	PriceManipulation bool    `json:"price_manipulation"`
	SocialBuzz        bool    `json:"social_buzz"`
	VolumeIncreasePct float64 `json:"volume_increase"` // rounded to 2dp
	PriceChangePct    float64 `json:"price_change"`    // rounded to 2dp
	AvgVolume         float64 `json:"avg_volume"`
	LatestVolume      int64   `json:"latest_volume"`
}

// Flagged reports whether any anomaly flag fired.
func (s AnomalySignal) Flagged() bool {
	return s.VolumeSpike || s.PriceManipulation || s.SocialBuzz
}
