package types

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SIGNALS - Tagged union of detector findings
// ═══════════════════════════════════════════════════════════════════════════════

// SignalType identifies which heuristic produced a signal.
type SignalType string

const (
	SignalVolumeSpike           SignalType = "volume_spike"
	SignalUnusualTradeSize      SignalType = "unusual_trade_size"
	SignalProbabilityDivergence SignalType = "probability_divergence"
	SignalCorrelationDivergence SignalType = "correlation_divergence"
	SignalFreshWalletLargeBet   SignalType = "fresh_wallet_large_bet"
	SignalSocialMentionSpike    SignalType = "social_mention_spike"
)

// Signal is a detector's positive finding. Each variant carries its own
// evidence fields; DetectedAt is when the detector fired.
type Signal interface {
	Type() SignalType
	DetectedAt() time.Time
	Summary() string
}

// VolumeSpikeSignal fires when windowed volume exceeds the historical average
// by the configured multiplier.
type VolumeSpikeSignal struct {
	MarketID      string
	CurrentVolume decimal.Decimal
	AverageVolume decimal.Decimal
	SpikeRatio    decimal.Decimal
	At            time.Time
}

func (s VolumeSpikeSignal) Type() SignalType      { return SignalVolumeSpike }
func (s VolumeSpikeSignal) DetectedAt() time.Time { return s.At }
func (s VolumeSpikeSignal) Summary() string {
	return fmt.Sprintf("Volume spike detected: %sx average volume.", s.SpikeRatio.StringFixed(1))
}

// UnusualTradeSizeSignal carries every trade in the batch whose notional met
// the unusual-size threshold.
type UnusualTradeSizeSignal struct {
	MarketID string
	Trades   []TradeRecord
	At       time.Time
}

func (s UnusualTradeSizeSignal) Type() SignalType      { return SignalUnusualTradeSize }
func (s UnusualTradeSizeSignal) DetectedAt() time.Time { return s.At }
func (s UnusualTradeSizeSignal) Summary() string {
	return fmt.Sprintf("Unusual trade size: %d large trade(s) flagged.", len(s.Trades))
}

// Divergence is one external source's disagreement with the local probability.
type Divergence struct {
	LocalProb     float64
	ExternalProb  float64
	DivergencePct float64
}

// ProbabilityDivergenceSignal maps source name to its divergence.
type ProbabilityDivergenceSignal struct {
	MarketID    string
	Divergences map[string]Divergence
	At          time.Time
}

func (s ProbabilityDivergenceSignal) Type() SignalType      { return SignalProbabilityDivergence }
func (s ProbabilityDivergenceSignal) DetectedAt() time.Time { return s.At }
func (s ProbabilityDivergenceSignal) Summary() string {
	names := make([]string, 0, len(s.Divergences))
	for source := range s.Divergences {
		names = append(names, source)
	}
	sort.Strings(names)

	sources := make([]string, 0, len(names))
	for _, source := range names {
		sources = append(sources, fmt.Sprintf("%s %.1f%%", source, s.Divergences[source].DivergencePct))
	}
	return "Probability divergence: " + strings.Join(sources, ", ") + "."
}

// CorrelationDivergenceSignal fires when one of two historically correlated
// markets moves without the other following.
type CorrelationDivergenceSignal struct {
	MarketAID    string
	MarketBID    string
	MovementAPct float64
	MovementBPct float64
	Correlation  float64
	At           time.Time
}

func (s CorrelationDivergenceSignal) Type() SignalType      { return SignalCorrelationDivergence }
func (s CorrelationDivergenceSignal) DetectedAt() time.Time { return s.At }
func (s CorrelationDivergenceSignal) Summary() string {
	return fmt.Sprintf("Correlated markets diverged (corr %.2f): %s moved %.1f%%, %s moved %.1f%%.",
		s.Correlation, s.MarketAID, s.MovementAPct, s.MarketBID, s.MovementBPct)
}

// FreshWalletSignal flags a young, low-history wallet placing a dominating bet.
type FreshWalletSignal struct {
	MarketID      string
	WalletAddress string
	AgeHours      float64
	BetSizeUSD    decimal.Decimal
	TotalTrades   int
	AllocationPct float64
	At            time.Time
}

func (s FreshWalletSignal) Type() SignalType      { return SignalFreshWalletLargeBet }
func (s FreshWalletSignal) DetectedAt() time.Time { return s.At }
func (s FreshWalletSignal) Summary() string {
	return fmt.Sprintf("Fresh wallet %s (age %.0fh, %d trades) bet $%s at %.0f%% allocation.",
		s.WalletAddress, s.AgeHours, s.TotalTrades, s.BetSizeUSD.StringFixed(0), s.AllocationPct)
}

// SocialMentionSignal carries keywords whose mention counts spiked.
type SocialMentionSignal struct {
	MarketID string
	Mentions map[string]int // keyword -> count, only keywords above threshold
	At       time.Time
}

func (s SocialMentionSignal) Type() SignalType      { return SignalSocialMentionSpike }
func (s SocialMentionSignal) DetectedAt() time.Time { return s.At }
func (s SocialMentionSignal) Summary() string {
	keywords := make([]string, 0, len(s.Mentions))
	for keyword := range s.Mentions {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	parts := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		parts = append(parts, fmt.Sprintf("%d mentions of %q", s.Mentions[keyword], keyword))
	}
	return "Social activity spike: " + strings.Join(parts, ", ") + "."
}
