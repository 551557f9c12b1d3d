package detector

import (
	"math"
	"time"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// ProbabilityDivergenceDetector compares the local probability against
// external forecasting sources.
type ProbabilityDivergenceDetector struct {
	thresholdPct float64
}

// NewProbabilityDivergenceDetector creates a detector firing at divergences
// of thresholdPct percentage points or more.
func NewProbabilityDivergenceDetector(thresholdPct float64) *ProbabilityDivergenceDetector {
	return &ProbabilityDivergenceDetector{thresholdPct: thresholdPct}
}

// Detect compares localProb against each external source. Sources with an
// unknown probability (nil) are skipped, not treated as failures. Fires when
// at least one source diverges by the threshold or more.
func (d *ProbabilityDivergenceDetector) Detect(marketID string, localProb float64, externalProbs map[string]*float64, now time.Time) *types.ProbabilityDivergenceSignal {
	divergences := make(map[string]types.Divergence)

	for source, prob := range externalProbs {
		if prob == nil {
			continue
		}
		divergencePct := math.Abs(localProb-*prob) * 100
		if divergencePct >= d.thresholdPct {
			divergences[source] = types.Divergence{
				LocalProb:     localProb,
				ExternalProb:  *prob,
				DivergencePct: divergencePct,
			}
		}
	}

	if len(divergences) == 0 {
		return nil
	}

	return &types.ProbabilityDivergenceSignal{
		MarketID:    marketID,
		Divergences: divergences,
		At:          now,
	}
}

// SocialMentionDetector flags keywords whose mention counts spike over the
// trailing window.
type SocialMentionDetector struct {
	minMentions int
}

// NewSocialMentionDetector creates a detector with the given mention floor.
func NewSocialMentionDetector(minMentions int) *SocialMentionDetector {
	return &SocialMentionDetector{minMentions: minMentions}
}

// Detect returns a signal carrying every keyword at or above the floor.
func (d *SocialMentionDetector) Detect(marketID string, mentions map[string]int, now time.Time) *types.SocialMentionSignal {
	matched := make(map[string]int)
	for keyword, count := range mentions {
		if count >= d.minMentions {
			matched[keyword] = count
		}
	}

	if len(matched) == 0 {
		return nil
	}

	return &types.SocialMentionSignal{
		MarketID: marketID,
		Mentions: matched,
		At:       now,
	}
}
