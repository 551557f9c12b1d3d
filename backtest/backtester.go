package backtest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/detector"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/config"
	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// BACKTESTER - Replays scenarios through the real detectors
// ═══════════════════════════════════════════════════════════════════════════════
//
// Flow:
//   Scenario → Synthetic history → Detectors at each event date → Report
//
// ═══════════════════════════════════════════════════════════════════════════════

const historyDays = 60

// Backtester runs the bundled scenarios through the production detectors
// with a fixed seed so runs are reproducible.
type Backtester struct {
	cfg  *config.Config
	seed int64
}

func New(cfg *config.Config, seed int64) *Backtester {
	return &Backtester{cfg: cfg, seed: seed}
}

// DetectedSignal records one event the engine caught.
type DetectedSignal struct {
	Date       time.Time
	SignalType types.SignalType
	Event      string
	Detail     string
}

// MissedSignal records one expected event the engine did not catch, with a
// human-readable reason.
type MissedSignal struct {
	Date     time.Time
	Expected types.SignalType
	Event    string
	Reason   string
}

// ScenarioResult is the outcome of replaying one scenario.
type ScenarioResult struct {
	Scenario      string
	Question      string
	TotalExpected int
	Detected      []DetectedSignal
	Missed        []MissedSignal
}

// DetectionRatePct is detected events over expected events, in percent.
func (r ScenarioResult) DetectionRatePct() float64 {
	if r.TotalExpected == 0 {
		return 0
	}
	return float64(len(r.Detected)) / float64(r.TotalExpected) * 100
}

// Report aggregates every scenario's result.
type Report struct {
	ScenariosTested  int
	TotalExpected    int
	TotalDetected    int
	TotalMissed      int
	DetectionRatePct float64
	Results          []ScenarioResult
}

// Run replays every scenario and aggregates the results.
func (b *Backtester) Run(scenarios []Scenario) (Report, error) {
	report := Report{ScenariosTested: len(scenarios)}

	for _, sc := range scenarios {
		result, err := b.RunScenario(sc)
		if err != nil {
			return Report{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		report.Results = append(report.Results, result)
		report.TotalExpected += result.TotalExpected
		report.TotalDetected += len(result.Detected)
		report.TotalMissed += len(result.Missed)
	}

	if report.TotalExpected > 0 {
		report.DetectionRatePct = float64(report.TotalDetected) / float64(report.TotalExpected) * 100
	}
	return report, nil
}

// RunScenario generates the scenario's synthetic history and evaluates each
// event with the detector its expected signal names, as of the event's date.
func (b *Backtester) RunScenario(sc Scenario) (ScenarioResult, error) {
	log.Info().Str("scenario", sc.Name).Msg("Backtesting scenario")

	if len(sc.Events) == 0 {
		return ScenarioResult{Scenario: sc.Name, Question: sc.Question}, nil
	}

	rng := rand.New(rand.NewSource(b.seed))

	store := NewMemoryHistory()
	oracle := &ScriptedOracle{Ages: make(map[string]float64)}

	anchor := sc.Events[len(sc.Events)-1].Date.Add(24 * time.Hour)
	store.LoadHistory(sc.MarketID, GenerateHistory(sc, anchor, historyDays, rng))

	volumeDet := detector.NewVolumeSpikeDetector(store, b.cfg.VolumeSpikeMultiplier)
	tradesDet := detector.NewUnusualTradeSizeDetector(b.cfg.MinTradeSizeUSD)
	freshDet := detector.NewFreshWalletDetector(store, oracle, b.cfg.FreshWalletAgeHours, b.cfg.MinFreshWalletBetUSD, b.cfg.FreshWalletMaxTrades, b.cfg.FreshWalletMinAllocationPct)

	result := ScenarioResult{
		Scenario:      sc.Name,
		Question:      sc.Question,
		TotalExpected: len(sc.Events),
	}

	for _, event := range sc.Events {
		store.SetNow(event.Date)

		switch event.ExpectedSignal {
		case types.SignalVolumeSpike:
			b.replayVolumeSpike(sc, event, store, volumeDet, &result)
		case types.SignalUnusualTradeSize:
			b.replayUnusualTrades(sc, event, tradesDet, rng, &result)
		case types.SignalFreshWalletLargeBet:
			if err := b.replayFreshWallet(sc, event, store, oracle, freshDet, rng, &result); err != nil {
				return ScenarioResult{}, err
			}
		}
	}

	return result, nil
}

// replayVolumeSpike tests the event window's worth of spiked volume against
// the baseline the generator laid down before it.
func (b *Backtester) replayVolumeSpike(sc Scenario, event Event, store *MemoryHistory, det *detector.VolumeSpikeDetector, result *ScenarioResult) {
	eventVolume := sc.BaseVolume.
		Mul(decimal.NewFromFloat(event.VolumeSpike)).
		Mul(decimal.NewFromInt(int64(b.cfg.VolumeWindowHours)))

	sig, err := det.Detect(sc.MarketID, eventVolume, event.Date)
	if err == nil && sig != nil {
		result.Detected = append(result.Detected, DetectedSignal{
			Date:       event.Date,
			SignalType: types.SignalVolumeSpike,
			Event:      event.Name,
			Detail:     fmt.Sprintf("spike ratio %sx", sig.SpikeRatio.StringFixed(2)),
		})
		return
	}

	actualRatio := decimal.Zero
	if window, werr := store.VolumeHistory(sc.MarketID, 24); werr == nil && len(window) > 0 {
		sum := decimal.Zero
		for _, point := range window {
			sum = sum.Add(point.Volume24h)
		}
		avg := sum.Div(decimal.NewFromInt(int64(len(window))))
		if avg.IsPositive() {
			actualRatio = eventVolume.Div(avg)
		}
	}
	result.Missed = append(result.Missed, MissedSignal{
		Date:     event.Date,
		Expected: types.SignalVolumeSpike,
		Event:    event.Name,
		Reason:   fmt.Sprintf("Ratio %sx below threshold %.1fx", actualRatio.StringFixed(2), b.cfg.VolumeSpikeMultiplier),
	})
}

func (b *Backtester) replayUnusualTrades(sc Scenario, event Event, det *detector.UnusualTradeSizeDetector, rng *rand.Rand, result *ScenarioResult) {
	trades := GenerateTrades(sc, event.Date, rng)

	sig := det.Detect(sc.MarketID, trades, event.Date)
	if sig != nil {
		result.Detected = append(result.Detected, DetectedSignal{
			Date:       event.Date,
			SignalType: types.SignalUnusualTradeSize,
			Event:      event.Name,
			Detail:     fmt.Sprintf("%d trades at or above $%s", len(sig.Trades), b.cfg.MinTradeSizeUSD.StringFixed(0)),
		})
		return
	}

	result.Missed = append(result.Missed, MissedSignal{
		Date:     event.Date,
		Expected: types.SignalUnusualTradeSize,
		Event:    event.Name,
		Reason:   fmt.Sprintf("No trades at or above $%s", b.cfg.MinTradeSizeUSD.StringFixed(0)),
	})
}

// replayFreshWallet plants the event's wallet pattern in the ledger, scripts
// the oracle with its age, and runs the detector over the single bet.
func (b *Backtester) replayFreshWallet(sc Scenario, event Event, store *MemoryHistory, oracle *ScriptedOracle, det *detector.FreshWalletDetector, rng *rand.Rand, result *ScenarioResult) error {
	bet := event.FreshWalletBet

	address := common.HexToAddress(fmt.Sprintf("0x%040x", rng.Uint64())).Hex()
	oracle.Ages[address] = bet.WalletAgeHours

	// Shares priced at the market's probability, sized so the notional
	// equals the bet.
	price := decimal.NewFromFloat(sc.BaseProbability)
	size := bet.BetSizeUSD
	if price.IsPositive() {
		size = bet.BetSizeUSD.Div(price)
	}

	trade := types.TradeRecord{
		MarketID:      sc.MarketID,
		TraderAddress: address,
		Side:          "buy",
		Size:          size,
		Price:         price,
		Timestamp:     event.Date,
	}
	store.AddTrade(trade)

	sig, err := det.Detect(sc.MarketID, []types.TradeRecord{trade}, event.Date)
	if err != nil {
		return err
	}
	if sig != nil {
		result.Detected = append(result.Detected, DetectedSignal{
			Date:       event.Date,
			SignalType: types.SignalFreshWalletLargeBet,
			Event:      event.Name,
			Detail:     fmt.Sprintf("wallet %s, age %.0fh, bet $%s", sig.WalletAddress, sig.AgeHours, sig.BetSizeUSD.StringFixed(0)),
		})
		return nil
	}

	reason := "Pattern not detected"
	if bet.BetSizeUSD.LessThan(b.cfg.MinFreshWalletBetUSD) {
		reason = fmt.Sprintf("Bet size $%s below threshold $%s", bet.BetSizeUSD.StringFixed(0), b.cfg.MinFreshWalletBetUSD.StringFixed(0))
	} else if bet.WalletAgeHours > b.cfg.FreshWalletAgeHours {
		reason = fmt.Sprintf("Wallet age %.0fh above threshold %.0fh", bet.WalletAgeHours, b.cfg.FreshWalletAgeHours)
	}
	result.Missed = append(result.Missed, MissedSignal{
		Date:     event.Date,
		Expected: types.SignalFreshWalletLargeBet,
		Event:    event.Name,
		Reason:   reason,
	})
	return nil
}
