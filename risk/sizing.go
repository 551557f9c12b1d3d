package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// POSITION SIZING - Fractional Kelly with exposure caps
// ═══════════════════════════════════════════════════════════════════════════════
//
// Kelly formula: f = (b*p - q) / b
//   b = odds (1/marketProb - 1)
//   p = win probability (fairProb)
//   q = loss probability (1 - fairProb)
//
// The raw fraction is scaled by a fractional-Kelly factor to cut variance,
// floored at zero, and capped at the bankroll exposure limit.
//
// ═══════════════════════════════════════════════════════════════════════════════

// PositionSizer converts a (market probability, fair probability) pair into a
// capped, correlation-adjusted stake.
type PositionSizer struct {
	bankroll        decimal.Decimal
	kellyFraction   float64
	maxExposurePct  float64
	corrThreshold   float64
	reductionFactor float64
}

// NewPositionSizer creates a sizer over the given bankroll.
func NewPositionSizer(bankroll decimal.Decimal, kellyFraction, maxExposurePct, corrThreshold, reductionFactor float64) *PositionSizer {
	return &PositionSizer{
		bankroll:        bankroll,
		kellyFraction:   kellyFraction,
		maxExposurePct:  maxExposurePct,
		corrThreshold:   corrThreshold,
		reductionFactor: reductionFactor,
	}
}

// Sizing is the full sizing breakdown for one opportunity.
type Sizing struct {
	KellySizeUSD    decimal.Decimal
	AdjustedSizeUSD decimal.Decimal
	Edge            float64
	EdgePct         float64
	BankrollPct     float64
}

// CalculateKellySize returns the fractional-Kelly stake in USD. Probabilities
// outside (0,1) exclusive, or non-positive odds, size to zero so noisy input
// never raises. The result never exceeds bankroll*maxExposurePct/100.
func (s *PositionSizer) CalculateKellySize(marketProb, fairProb float64) decimal.Decimal {
	if marketProb <= 0 || marketProb >= 1 {
		return decimal.Zero
	}
	if fairProb <= 0 || fairProb >= 1 {
		return decimal.Zero
	}

	odds := 1/marketProb - 1
	if odds <= 0 {
		return decimal.Zero
	}

	winProb := fairProb
	lossProb := 1 - fairProb

	kellyFraction := (odds*winProb - lossProb) / odds
	kellyFraction *= s.kellyFraction
	kellyFraction = math.Max(0, kellyFraction)

	size := s.bankroll.Mul(decimal.NewFromFloat(kellyFraction))

	maxSize := s.maxExposureUSD()
	if size.GreaterThan(maxSize) {
		size = maxSize
	}
	return size
}

// AdjustForCorrelation halves the stake (by the reduction factor) when it is
// highly correlated with existing positions, then clamps to the remaining
// exposure headroom. Never negative.
func (s *PositionSizer) AdjustForCorrelation(baseSize decimal.Decimal, correlation float64, existingExposure decimal.Decimal) decimal.Decimal {
	adjusted := baseSize
	if math.Abs(correlation) >= s.corrThreshold {
		adjusted = adjusted.Mul(decimal.NewFromFloat(s.reductionFactor))
	}

	maxExposure := s.maxExposureUSD()
	if existingExposure.Add(adjusted).GreaterThan(maxExposure) {
		adjusted = maxExposure.Sub(existingExposure)
		if adjusted.IsNegative() {
			adjusted = decimal.Zero
		}
	}
	return adjusted
}

// CalculatePositionSize composes Kelly sizing and the correlation adjustment
// and reports the edge breakdown.
func (s *PositionSizer) CalculatePositionSize(marketProb, fairProb, correlation float64, existingExposure decimal.Decimal) Sizing {
	kellySize := s.CalculateKellySize(marketProb, fairProb)
	adjusted := s.AdjustForCorrelation(kellySize, correlation, existingExposure)

	edge := fairProb - marketProb

	bankrollPct := 0.0
	if s.bankroll.IsPositive() {
		bankrollPct = adjusted.Div(s.bankroll).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return Sizing{
		KellySizeUSD:    kellySize,
		AdjustedSizeUSD: adjusted,
		Edge:            edge,
		EdgePct:         edge * 100,
		BankrollPct:     bankrollPct,
	}
}

func (s *PositionSizer) maxExposureUSD() decimal.Decimal {
	return s.bankroll.Mul(decimal.NewFromFloat(s.maxExposurePct / 100))
}

// ExpectedValue returns the USD expected value of a bet: the payout implied by
// the fair probability against the market price. Zero for probabilities
// outside (0,1) exclusive.
func ExpectedValue(marketProb, fairProb float64, betSize decimal.Decimal) decimal.Decimal {
	if marketProb <= 0 || marketProb >= 1 {
		return decimal.Zero
	}
	return betSize.Mul(decimal.NewFromFloat(fairProb/marketProb - 1))
}
