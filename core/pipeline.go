package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/detector"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/config"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/metrics"
	"github.com/JJAiprojects/polymarket-edge-bot/risk"
	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PIPELINE - Central orchestrator
// ═══════════════════════════════════════════════════════════════════════════════
//
// Flow:
//   Snapshot → Detectors → Sizing → EV gate → Risk gate → Journal
//
// ═══════════════════════════════════════════════════════════════════════════════

// Store is the persistence surface the pipeline writes through, declared here
// to avoid an import cycle with the database package.
type Store interface {
	SaveMarket(snap types.MarketSnapshot) error
	AppendSnapshot(marketID string, probability float64, volume24h decimal.Decimal, at time.Time) error
	FlagOpportunity(opp types.Opportunity) (uint, error)
}

// CorrelatedMarket names a candidate pair partner for the correlation
// divergence check.
type CorrelatedMarket struct {
	MarketID    string
	Probability float64
}

// MarketInput bundles everything one analysis pass needs for a single market.
type MarketInput struct {
	Snapshot       types.MarketSnapshot
	RecentTrades   []types.TradeRecord
	ExternalProbs  map[string]*float64
	SocialMentions map[string]int
	CorrelatedWith []CorrelatedMarket
}

type Pipeline struct {
	cfg *config.Config

	// Detectors
	volume      *detector.VolumeSpikeDetector
	trades      *detector.UnusualTradeSizeDetector
	divergence  *detector.ProbabilityDivergenceDetector
	correlation *detector.CorrelationDivergenceDetector
	freshWallet *detector.FreshWalletDetector
	social      *detector.SocialMentionDetector

	// Risk
	sizer   *risk.PositionSizer
	riskMgr *risk.Manager

	store Store
	stats *metrics.Metrics
}

// NewPipeline wires the detectors and risk components around a store.
func NewPipeline(
	cfg *config.Config,
	history detector.HistoryReader,
	oracle detector.WalletAgeOracle,
	riskMgr *risk.Manager,
	store Store,
	stats *metrics.Metrics,
) *Pipeline {
	analyzer := detector.NewCorrelationAnalyzer(history)
	return &Pipeline{
		cfg:         cfg,
		volume:      detector.NewVolumeSpikeDetector(history, cfg.VolumeSpikeMultiplier),
		trades:      detector.NewUnusualTradeSizeDetector(cfg.MinTradeSizeUSD),
		divergence:  detector.NewProbabilityDivergenceDetector(cfg.DivergenceThresholdPct),
		correlation: detector.NewCorrelationDivergenceDetector(analyzer, history, cfg.CorrelationThreshold, cfg.MovementDeltaPct, cfg.CorrelationWindowDays),
		freshWallet: detector.NewFreshWalletDetector(history, oracle, cfg.FreshWalletAgeHours, cfg.MinFreshWalletBetUSD, cfg.FreshWalletMaxTrades, cfg.FreshWalletMinAllocationPct),
		social:      detector.NewSocialMentionDetector(cfg.SocialMinMentions),
		sizer:       risk.NewPositionSizer(cfg.BankrollUSD, cfg.KellyFraction, cfg.MaxExposurePct, cfg.CorrelationThreshold, cfg.CorrelationReductionFactor),
		riskMgr:     riskMgr,
		store:       store,
		stats:       stats,
	}
}

// Run analyzes every input. A failure on one market is logged and the pass
// continues with the rest.
func (p *Pipeline) Run(inputs []MarketInput, now time.Time) []types.Opportunity {
	var flagged []types.Opportunity
	for _, input := range inputs {
		opps, err := p.Analyze(input, now)
		if err != nil {
			log.Error().Err(err).Str("market", input.Snapshot.MarketID).Msg("Market analysis failed")
			p.stats.AnalysisErrors.WithLabelValues("analyze").Inc()
			continue
		}
		flagged = append(flagged, opps...)
	}
	return flagged
}

// PositionAlert is a stop-loss or hedge recommendation for an open position.
// Exactly one of StopLoss and Hedge is set.
type PositionAlert struct {
	MarketID        string
	EntryProb       float64
	CurrentProb     float64
	StopLoss        bool
	Hedge           bool
	HedgeSizeUSD    decimal.Decimal
	PositionSizeUSD decimal.Decimal
}

// ReviewPositions checks every open position whose market appears in this
// pass for a stop-loss or hedge trigger. A stop-loss suppresses the hedge
// check for that position.
func (p *Pipeline) ReviewPositions(inputs []MarketInput) ([]PositionAlert, error) {
	open, err := p.riskMgr.Positions()
	if err != nil {
		p.stats.AnalysisErrors.WithLabelValues("review").Inc()
		return nil, fmt.Errorf("position review: %w", err)
	}

	current := make(map[string]float64, len(inputs))
	for _, input := range inputs {
		current[input.Snapshot.MarketID] = input.Snapshot.Probability
	}

	var alerts []PositionAlert
	for _, pos := range open {
		prob, ok := current[pos.MarketID]
		if !ok {
			continue
		}

		if p.riskMgr.CheckStopLoss(pos.EntryProbability, prob, p.cfg.StopLossDropPct) {
			log.Warn().
				Str("market", pos.MarketID).
				Float64("entry_prob", pos.EntryProbability).
				Float64("current_prob", prob).
				Msg("⚠️ Stop-loss triggered")
			alerts = append(alerts, PositionAlert{
				MarketID:        pos.MarketID,
				EntryProb:       pos.EntryProbability,
				CurrentProb:     prob,
				StopLoss:        true,
				PositionSizeUSD: pos.SuggestedSizeUSD,
			})
			continue
		}

		if p.riskMgr.ShouldHedge(prob) {
			hedge := p.riskMgr.CalculateHedgeSize(pos.SuggestedSizeUSD, prob)
			log.Info().
				Str("market", pos.MarketID).
				Float64("current_prob", prob).
				Str("hedge_size", "$"+hedge.StringFixed(2)).
				Msg("Hedge recommended")
			alerts = append(alerts, PositionAlert{
				MarketID:        pos.MarketID,
				EntryProb:       pos.EntryProbability,
				CurrentProb:     prob,
				Hedge:           true,
				HedgeSizeUSD:    hedge,
				PositionSizeUSD: pos.SuggestedSizeUSD,
			})
		}
	}
	return alerts, nil
}

// Analyze runs one market through the full pass: persist the snapshot, fire
// every applicable detector, then size and gate each resulting signal.
func (p *Pipeline) Analyze(input MarketInput, now time.Time) ([]types.Opportunity, error) {
	snap := input.Snapshot

	if err := p.store.SaveMarket(snap); err != nil {
		return nil, fmt.Errorf("save market %s: %w", snap.MarketID, err)
	}
	if err := p.store.AppendSnapshot(snap.MarketID, snap.Probability, snap.Volume24h, snap.Timestamp); err != nil {
		return nil, fmt.Errorf("append snapshot %s: %w", snap.MarketID, err)
	}

	signals, err := p.detect(input, now)
	if err != nil {
		return nil, err
	}
	p.stats.MarketsAnalyzed.WithLabelValues(snap.Category).Inc()

	var flagged []types.Opportunity
	for _, sig := range signals {
		p.stats.RecordSignal(string(sig.Type()))

		opp, ok, err := p.gate(snap, sig)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if _, err := p.store.FlagOpportunity(opp); err != nil {
			return nil, fmt.Errorf("flag opportunity %s: %w", snap.MarketID, err)
		}
		p.stats.RecordOpportunity(string(sig.Type()), opp.ExpectedValueUSD)
		log.Info().
			Str("market", snap.MarketID).
			Str("signal", string(sig.Type())).
			Str("ev", "$"+opp.ExpectedValueUSD.StringFixed(2)).
			Str("size", "$"+opp.SuggestedSizeUSD.StringFixed(2)).
			Msg("💡 Opportunity flagged")
		flagged = append(flagged, opp)
	}

	p.refreshPortfolioGauges()
	return flagged, nil
}

// detect fires every detector that has input to work with.
func (p *Pipeline) detect(input MarketInput, now time.Time) ([]types.Signal, error) {
	snap := input.Snapshot
	var signals []types.Signal

	volSig, err := p.volume.Detect(snap.MarketID, snap.Volume24h, now)
	if err != nil {
		return nil, fmt.Errorf("volume spike %s: %w", snap.MarketID, err)
	}
	if volSig != nil {
		signals = append(signals, *volSig)
	}

	if tradeSig := p.trades.Detect(snap.MarketID, input.RecentTrades, now); tradeSig != nil {
		signals = append(signals, *tradeSig)
	}

	if divSig := p.divergence.Detect(snap.MarketID, snap.Probability, input.ExternalProbs, now); divSig != nil {
		signals = append(signals, *divSig)
	}

	for _, pair := range input.CorrelatedWith {
		corrSig, err := p.correlation.Detect(snap.MarketID, pair.MarketID, snap.Probability, pair.Probability, now)
		if err != nil {
			return nil, fmt.Errorf("correlation %s/%s: %w", snap.MarketID, pair.MarketID, err)
		}
		if corrSig != nil {
			signals = append(signals, *corrSig)
		}
	}

	walletSig, err := p.freshWallet.Detect(snap.MarketID, input.RecentTrades, now)
	if err != nil {
		return nil, fmt.Errorf("fresh wallet %s: %w", snap.MarketID, err)
	}
	if walletSig != nil {
		signals = append(signals, *walletSig)
	}

	if socialSig := p.social.Detect(snap.MarketID, input.SocialMentions, now); socialSig != nil {
		signals = append(signals, *socialSig)
	}

	return signals, nil
}

// gate sizes a signal and applies the EV and risk gates. Returns ok=false when
// the opportunity is dropped.
func (p *Pipeline) gate(snap types.MarketSnapshot, sig types.Signal) (types.Opportunity, bool, error) {
	fairProb := FairProbabilityEstimate(snap.Probability)

	exposure, err := p.riskMgr.CurrentExposure()
	if err != nil {
		return types.Opportunity{}, false, fmt.Errorf("current exposure: %w", err)
	}

	sizing := p.sizer.CalculatePositionSize(snap.Probability, fairProb, 0, exposure)
	ev := risk.ExpectedValue(snap.Probability, fairProb, sizing.AdjustedSizeUSD)

	if ev.LessThan(p.cfg.NotificationThresholdEV) {
		log.Debug().
			Str("market", snap.MarketID).
			Str("signal", string(sig.Type())).
			Str("ev", ev.StringFixed(4)).
			Msg("Opportunity below EV threshold")
		return types.Opportunity{}, false, nil
	}

	if err := p.riskMgr.CanTakePosition(sizing.AdjustedSizeUSD); err != nil {
		reason := "exposure_limit"
		if errors.Is(err, risk.ErrPositionLimitExceeded) {
			reason = "position_limit"
		}
		p.stats.RiskRefusals.WithLabelValues(reason).Inc()
		log.Warn().
			Str("market", snap.MarketID).
			Str("signal", string(sig.Type())).
			Err(err).
			Msg("🛡️ Risk manager refused opportunity")
		return types.Opportunity{}, false, nil
	}

	opp := types.Opportunity{
		MarketID:           snap.MarketID,
		Question:           snap.Question,
		Signal:             sig,
		CurrentProbability: snap.Probability,
		ExpectedValueUSD:   ev,
		SuggestedSizeUSD:   sizing.AdjustedSizeUSD,
		Rationale:          buildRationale(sig, sizing, ev),
		FlaggedAt:          sig.DetectedAt(),
	}
	return opp, true, nil
}

func (p *Pipeline) refreshPortfolioGauges() {
	exposure, err := p.riskMgr.CurrentExposure()
	if err != nil {
		return
	}
	open, err := p.riskMgr.OpenPositions()
	if err != nil {
		return
	}
	p.stats.UpdatePortfolio(exposure, open)
}

// FairProbabilityEstimate is the placeholder fair-value model: a flat 10%
// bump over the market price, capped below certainty. A real forecaster can
// replace it behind the same signature.
func FairProbabilityEstimate(marketProb float64) float64 {
	fair := marketProb * 1.1
	if fair > 0.99 {
		fair = 0.99
	}
	return fair
}

// buildRationale renders the human-readable explanation for a flagged
// opportunity: the signal summary plus the sizing math.
func buildRationale(sig types.Signal, sizing risk.Sizing, ev decimal.Decimal) string {
	return fmt.Sprintf("%s | edge %.1f%%, EV $%s, suggested size $%s (%.1f%% of bankroll)",
		sig.Summary(),
		sizing.EdgePct,
		ev.StringFixed(2),
		sizing.AdjustedSizeUSD.StringFixed(2),
		sizing.BankrollPct,
	)
}

// stopWords are filtered out of question keywords.
var stopWords = map[string]bool{
	"will": true, "the": true, "a": true, "an": true, "be": true,
	"by": true, "in": true, "on": true, "of": true, "to": true,
	"is": true, "at": true, "for": true, "before": true, "after": true,
	"and": true, "or": true, "than": true, "with": true,
}

// ExtractKeywords pulls up to five lowercase keywords from a market question
// for external feed lookups.
func ExtractKeywords(question string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '?' || r == ',' || r == '.' || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, strings.ToLower(question))

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) < 3 || stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}
