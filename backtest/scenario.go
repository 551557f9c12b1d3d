package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SCENARIOS - Bundled synthetic market histories with known embedded events
// ═══════════════════════════════════════════════════════════════════════════════

// UnusualTrade is one oversized trade an event injects into the ledger.
type UnusualTrade struct {
	Size  decimal.Decimal
	Price decimal.Decimal
}

// FreshWalletBet describes the insider pattern one event plants.
type FreshWalletBet struct {
	WalletAgeHours float64
	BetSizeUSD     decimal.Decimal
	TotalTrades    int
	AllocationPct  float64
}

// Event is one dated incident inside a scenario, with the signal the
// surveillance engine is expected to raise for it.
type Event struct {
	Date              time.Time
	Name              string
	VolumeSpike       float64 // multiplier over the scenario's base volume
	ProbabilityChange float64
	UnusualTrades     []UnusualTrade
	FreshWalletBet    *FreshWalletBet
	ExpectedSignal    types.SignalType
}

// Scenario is one synthetic market with its baseline and events.
type Scenario struct {
	Name            string
	MarketID        string
	Question        string
	Category        string
	Liquidity       decimal.Decimal
	BaseVolume      decimal.Decimal
	BaseProbability float64
	Events          []Event
}

// Election2024Scenario simulates the 2024 U.S. presidential election market:
// three escalating volume spikes through debate night, an early-voting leak
// and election night itself.
func Election2024Scenario() Scenario {
	return Scenario{
		Name:            "election_2024",
		MarketID:        "election_2024_sim",
		Question:        "Will Trump win the 2024 U.S. presidential election?",
		Category:        "politics",
		Liquidity:       decimal.NewFromInt(50000),
		BaseVolume:      decimal.NewFromInt(10000),
		BaseProbability: 0.5,
		Events: []Event{
			{
				Date:              time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
				Name:              "Debate performance",
				VolumeSpike:       5.2,
				ProbabilityChange: 0.08,
				ExpectedSignal:    types.SignalVolumeSpike,
			},
			{
				Date:              time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
				Name:              "Early voting data leak",
				VolumeSpike:       8.5,
				ProbabilityChange: 0.12,
				ExpectedSignal:    types.SignalVolumeSpike,
			},
			{
				Date:              time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC),
				Name:              "Election night",
				VolumeSpike:       15.0,
				ProbabilityChange: 0.25,
				ExpectedSignal:    types.SignalVolumeSpike,
			},
		},
	}
}

// CryptoCrashScenario simulates a Bitcoin crash market: a regulatory-news
// volume spike followed by a whale trade well above the unusual-size floor.
func CryptoCrashScenario() Scenario {
	return Scenario{
		Name:            "crypto_crash",
		MarketID:        "crypto_crash_sim",
		Question:        "Will Bitcoin drop below $40,000 by end of 2024?",
		Category:        "crypto",
		Liquidity:       decimal.NewFromInt(75000),
		BaseVolume:      decimal.NewFromInt(15000),
		BaseProbability: 0.5,
		Events: []Event{
			{
				Date:              time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
				Name:              "Regulatory news",
				VolumeSpike:       6.0,
				ProbabilityChange: 0.15,
				ExpectedSignal:    types.SignalVolumeSpike,
			},
			{
				Date:        time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
				Name:        "Large whale movement",
				VolumeSpike: 4.5,
				UnusualTrades: []UnusualTrade{
					{Size: decimal.NewFromInt(5000), Price: decimal.NewFromFloat(0.65)},
				},
				ExpectedSignal: types.SignalUnusualTradeSize,
			},
		},
	}
}

// TaiwanInvasionScenario recreates the real case of a day-old wallet placing
// a $300K bet on a China-invades-Taiwan market. The accompanying 2.5x volume
// bump sits below the spike threshold on purpose: the wallet pattern, not the
// volume, is the tell.
func TaiwanInvasionScenario() Scenario {
	return Scenario{
		Name:            "taiwan_invasion",
		MarketID:        "taiwan_invasion_sim",
		Question:        "Will China invade Taiwan in 2025?",
		Category:        "politics",
		Liquidity:       decimal.NewFromInt(500000),
		BaseVolume:      decimal.NewFromInt(50000),
		BaseProbability: 0.15,
		Events: []Event{
			{
				Date:        time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC),
				Name:        "Fresh wallet $300K bet on Taiwan invasion",
				VolumeSpike: 2.5,
				FreshWalletBet: &FreshWalletBet{
					WalletAgeHours: 24,
					BetSizeUSD:     decimal.NewFromInt(300000),
					TotalTrades:    1,
					AllocationPct:  100.0,
				},
				ExpectedSignal: types.SignalFreshWalletLargeBet,
			},
		},
	}
}

// SportsChampionshipScenario simulates a Super Bowl market with a playoff
// volume spike.
func SportsChampionshipScenario() Scenario {
	return Scenario{
		Name:            "sports_championship",
		MarketID:        "sports_championship_sim",
		Question:        "Will the Chiefs win Super Bowl 2025?",
		Category:        "sports",
		Liquidity:       decimal.NewFromInt(30000),
		BaseVolume:      decimal.NewFromInt(8000),
		BaseProbability: 0.5,
		Events: []Event{
			{
				Date:              time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
				Name:              "Playoff performance",
				VolumeSpike:       3.8,
				ProbabilityChange: 0.10,
				ExpectedSignal:    types.SignalVolumeSpike,
			},
		},
	}
}

// AllScenarios returns the bundled scenarios in a fixed order.
func AllScenarios() []Scenario {
	return []Scenario{
		Election2024Scenario(),
		CryptoCrashScenario(),
		TaiwanInvasionScenario(),
		SportsChampionshipScenario(),
	}
}
