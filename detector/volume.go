package detector

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// VolumeSpikeDetector compares windowed volume against the trailing average.
type VolumeSpikeDetector struct {
	history    HistoryReader
	multiplier decimal.Decimal
}

// NewVolumeSpikeDetector creates a detector firing at spikeRatio >= multiplier.
func NewVolumeSpikeDetector(history HistoryReader, multiplier float64) *VolumeSpikeDetector {
	return &VolumeSpikeDetector{
		history:    history,
		multiplier: decimal.NewFromFloat(multiplier),
	}
}

// Detect checks whether currentVolume (the trailing window's volume) spikes
// against the mean of the last 24h of snapshots. Fewer than two history
// points or a zero average yields no signal: cold markets stay quiet instead
// of spiking on their first observation.
func (d *VolumeSpikeDetector) Detect(marketID string, currentVolume decimal.Decimal, now time.Time) (*types.VolumeSpikeSignal, error) {
	history, err := d.history.VolumeHistory(marketID, 24)
	if err != nil {
		return nil, err
	}

	if len(history) < 2 {
		return nil, nil
	}

	sum := decimal.Zero
	for _, point := range history {
		sum = sum.Add(point.Volume24h)
	}
	avgVolume := sum.Div(decimal.NewFromInt(int64(len(history))))

	if avgVolume.IsZero() {
		return nil, nil
	}

	spikeRatio := currentVolume.Div(avgVolume)
	if spikeRatio.LessThan(d.multiplier) {
		return nil, nil
	}

	log.Debug().
		Str("market", marketID).
		Str("ratio", spikeRatio.StringFixed(2)).
		Str("avg_volume", avgVolume.StringFixed(2)).
		Msg("Volume spike")

	return &types.VolumeSpikeSignal{
		MarketID:      marketID,
		CurrentVolume: currentVolume,
		AverageVolume: avgVolume,
		SpikeRatio:    spikeRatio,
		At:            now,
	}, nil
}
