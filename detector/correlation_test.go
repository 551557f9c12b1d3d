package detector

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// rampPoints builds hourly points whose probability climbs linearly from
// start by step per hour, ending at end.
func rampPoints(n int, start, step float64, end time.Time) []types.HistoryPoint {
	points := make([]types.HistoryPoint, n)
	for i := 0; i < n; i++ {
		points[i] = types.HistoryPoint{
			Probability: start + float64(i)*step,
			Volume24h:   decimal.NewFromInt(1000),
			Timestamp:   end.Add(-time.Duration(n-1-i) * time.Hour),
		}
	}
	return points
}

func TestCorrelation_PerfectlyCorrelated(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	history.points["mkt-a"] = rampPoints(48, 0.40, 0.002, now)
	history.points["mkt-b"] = rampPoints(48, 0.20, 0.004, now)

	analyzer := NewCorrelationAnalyzer(history)
	r, err := analyzer.Correlation("mkt-a", "mkt-b", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r-1.0) > 1e-9 {
		t.Errorf("expected r=1 for linearly related series, got %f", r)
	}
}

func TestCorrelation_Inverse(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	history.points["mkt-a"] = rampPoints(48, 0.40, 0.002, now)
	history.points["mkt-b"] = rampPoints(48, 0.60, -0.002, now)

	analyzer := NewCorrelationAnalyzer(history)
	r, err := analyzer.Correlation("mkt-a", "mkt-b", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r+1.0) > 1e-9 {
		t.Errorf("expected r=-1 for inverse series, got %f", r)
	}
}

func TestCorrelation_DegenerateCases(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	analyzer := NewCorrelationAnalyzer(history)

	// No history at all.
	r, err := analyzer.Correlation("mkt-a", "mkt-b", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0 {
		t.Errorf("expected 0 for missing history, got %f", r)
	}

	// Constant series has zero variance.
	history.points["mkt-a"] = hourlyPoints(48, 1000, 0.5, now)
	history.points["mkt-b"] = rampPoints(48, 0.40, 0.002, now)
	r, err = analyzer.Correlation("mkt-a", "mkt-b", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0 || math.IsNaN(r) {
		t.Errorf("expected 0 for zero-variance series, got %f", r)
	}

	// No common timestamps.
	history.points["mkt-b"] = rampPoints(48, 0.40, 0.002, now.Add(30*time.Minute))
	r, err = analyzer.Correlation("mkt-a", "mkt-b", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0 {
		t.Errorf("expected 0 for disjoint timestamps, got %f", r)
	}
}

func TestCorrelationDivergence_OneMarketMoves(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	history.points["mkt-a"] = rampPoints(48, 0.30, 0.002, now)
	history.points["mkt-b"] = rampPoints(48, 0.30, 0.002, now)

	analyzer := NewCorrelationAnalyzer(history)
	det := NewCorrelationDivergenceDetector(analyzer, history, 0.7, 5.0, 7)

	prevA := history.points["mkt-a"][46].Probability
	prevB := history.points["mkt-b"][46].Probability

	// A jumps 10pp, B stays put.
	sig, err := det.Detect("mkt-a", "mkt-b", prevA+0.10, prevB+0.01, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("expected divergence signal")
	}
	if sig.MovementAPct < 9.99 || sig.MovementAPct > 10.01 {
		t.Errorf("unexpected movement A: %f", sig.MovementAPct)
	}
	if math.Abs(sig.Correlation) < 0.7 {
		t.Errorf("expected strong correlation on the signal, got %f", sig.Correlation)
	}
}

func TestCorrelationDivergence_CoMovement(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	history.points["mkt-a"] = rampPoints(48, 0.30, 0.002, now)
	history.points["mkt-b"] = rampPoints(48, 0.30, 0.002, now)

	analyzer := NewCorrelationAnalyzer(history)
	det := NewCorrelationDivergenceDetector(analyzer, history, 0.7, 5.0, 7)

	prevA := history.points["mkt-a"][46].Probability
	prevB := history.points["mkt-b"][46].Probability

	// Both jump together: consistent with the correlation, no signal.
	sig, err := det.Detect("mkt-a", "mkt-b", prevA+0.10, prevB+0.10, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Error("expected no signal when both markets move together")
	}
}

func TestCorrelationDivergence_WeakCorrelation(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := newMockHistory()
	// Constant series correlate at 0, below any threshold.
	history.points["mkt-a"] = hourlyPoints(48, 1000, 0.5, now)
	history.points["mkt-b"] = hourlyPoints(48, 1000, 0.5, now)

	analyzer := NewCorrelationAnalyzer(history)
	det := NewCorrelationDivergenceDetector(analyzer, history, 0.7, 5.0, 7)

	sig, err := det.Detect("mkt-a", "mkt-b", 0.60, 0.50, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Error("expected no signal for uncorrelated markets")
	}
}
