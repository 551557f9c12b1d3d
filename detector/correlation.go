package detector

import (
	"math"
	"sort"
	"time"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// CorrelationAnalyzer computes pairwise probability correlation over aligned
// history windows.
type CorrelationAnalyzer struct {
	history HistoryReader
}

// NewCorrelationAnalyzer creates an analyzer over the given history view.
func NewCorrelationAnalyzer(history HistoryReader) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{history: history}
}

// Correlation returns the Pearson correlation of the two markets' probability
// series over the intersection of their timestamps in the window. Fewer than
// two common points, or a degenerate series, yields 0: "not correlated",
// never NaN.
func (a *CorrelationAnalyzer) Correlation(marketAID, marketBID string, windowDays int) (float64, error) {
	hours := windowDays * 24

	histA, err := a.history.VolumeHistory(marketAID, hours)
	if err != nil {
		return 0, err
	}
	histB, err := a.history.VolumeHistory(marketBID, hours)
	if err != nil {
		return 0, err
	}

	if len(histA) < 2 || len(histB) < 2 {
		return 0, nil
	}

	byTimeA := make(map[int64]float64, len(histA))
	for _, p := range histA {
		byTimeA[p.Timestamp.Unix()] = p.Probability
	}
	byTimeB := make(map[int64]float64, len(histB))
	for _, p := range histB {
		byTimeB[p.Timestamp.Unix()] = p.Probability
	}

	common := make([]int64, 0, len(byTimeA))
	for ts := range byTimeA {
		if _, ok := byTimeB[ts]; ok {
			common = append(common, ts)
		}
	}
	if len(common) < 2 {
		return 0, nil
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	probsA := make([]float64, len(common))
	probsB := make([]float64, len(common))
	for i, ts := range common {
		probsA[i] = byTimeA[ts]
		probsB[i] = byTimeB[ts]
	}

	return pearson(probsA, probsB), nil
}

// pearson computes Pearson's r, returning 0 when either series has zero
// variance.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// CorrelationDivergenceDetector fires when one of two historically correlated
// markets moves while the other stays put.
type CorrelationDivergenceDetector struct {
	analyzer      *CorrelationAnalyzer
	history       HistoryReader
	corrThreshold float64
	movementDelta float64 // percentage points over 24h
	windowDays    int
}

// NewCorrelationDivergenceDetector wires the detector over an analyzer and
// history view.
func NewCorrelationDivergenceDetector(analyzer *CorrelationAnalyzer, history HistoryReader, corrThreshold, movementDelta float64, windowDays int) *CorrelationDivergenceDetector {
	return &CorrelationDivergenceDetector{
		analyzer:      analyzer,
		history:       history,
		corrThreshold: corrThreshold,
		movementDelta: movementDelta,
		windowDays:    windowDays,
	}
}

// Detect compares each market's current probability against its second-to-last
// 24h history point. Divergence requires |correlation| >= threshold and
// exactly one market moving >= delta while the other moved < delta/2. Both
// markets moving >= delta is co-movement, consistent with the correlation,
// and yields no signal.
func (d *CorrelationDivergenceDetector) Detect(marketAID, marketBID string, probA, probB float64, now time.Time) (*types.CorrelationDivergenceSignal, error) {
	correlation, err := d.analyzer.Correlation(marketAID, marketBID, d.windowDays)
	if err != nil {
		return nil, err
	}
	if math.Abs(correlation) < d.corrThreshold {
		return nil, nil
	}

	histA, err := d.history.VolumeHistory(marketAID, 24)
	if err != nil {
		return nil, err
	}
	histB, err := d.history.VolumeHistory(marketBID, 24)
	if err != nil {
		return nil, err
	}
	if len(histA) < 2 || len(histB) < 2 {
		return nil, nil
	}

	prevA := histA[len(histA)-2].Probability
	prevB := histB[len(histB)-2].Probability

	movementA := math.Abs(probA-prevA) * 100
	movementB := math.Abs(probB-prevB) * 100

	half := d.movementDelta * 0.5
	oneMoved := (movementA >= d.movementDelta && movementB < half) ||
		(movementB >= d.movementDelta && movementA < half)
	if !oneMoved {
		return nil, nil
	}

	return &types.CorrelationDivergenceSignal{
		MarketAID:    marketAID,
		MarketBID:    marketBID,
		MovementAPct: movementA,
		MovementBPct: movementB,
		Correlation:  correlation,
		At:           now,
	}, nil
}
