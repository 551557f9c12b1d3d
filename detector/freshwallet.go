package detector

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// FreshWalletDetector flags young, low-history wallets placing a bet that
// dominates their entire footprint, the strongest insider tell there is.
type FreshWalletDetector struct {
	history HistoryReader
	oracle  WalletAgeOracle

	maxAgeHours      float64
	minBetUSD        decimal.Decimal
	maxTrades        int
	minAllocationPct float64
}

// NewFreshWalletDetector wires the detector over a history view and an
// explicit wallet-age oracle. Backtests supply a scripted oracle; the live
// pipeline supplies the explorer-backed one.
func NewFreshWalletDetector(history HistoryReader, oracle WalletAgeOracle, maxAgeHours float64, minBetUSD decimal.Decimal, maxTrades int, minAllocationPct float64) *FreshWalletDetector {
	return &FreshWalletDetector{
		history:          history,
		oracle:           oracle,
		maxAgeHours:      maxAgeHours,
		minBetUSD:        minBetUSD,
		maxTrades:        maxTrades,
		minAllocationPct: minAllocationPct,
	}
}

// Detect runs the six gates over the trade batch, wallet by wallet in address
// order, and returns the first wallet that passes all of them:
//
//  1. total bet on this market >= the USD floor
//  2. wallet age known (unknown age defers, it does not reject)
//  3. wallet age <= the freshness ceiling
//  4. total trades across ALL markets <= the trade ceiling
//  5. the bet is >= the allocation floor of the wallet's entire activity
//  6. no prior large bet on any other market
func (d *FreshWalletDetector) Detect(marketID string, trades []types.TradeRecord, now time.Time) (*types.FreshWalletSignal, error) {
	if len(trades) == 0 {
		return nil, nil
	}

	byWallet := groupByWallet(trades)

	// Sorted iteration keeps output reproducible for a given batch.
	wallets := make([]string, 0, len(byWallet))
	for wallet := range byWallet {
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	for _, wallet := range wallets {
		totalBetValue := decimal.Zero
		for _, trade := range byWallet[wallet] {
			totalBetValue = totalBetValue.Add(trade.Value())
		}

		if totalBetValue.LessThan(d.minBetUSD) {
			continue
		}

		ageHours, known, err := d.oracle.WalletAge(wallet)
		if err != nil {
			return nil, err
		}
		if !known {
			// No data source for this address; defer rather than reject.
			continue
		}
		if ageHours > d.maxAgeHours {
			continue
		}

		allTrades, err := d.history.TradesByWallet(wallet)
		if err != nil {
			return nil, err
		}

		totalTrades := len(allTrades)
		if totalTrades > d.maxTrades {
			continue
		}

		allocationPct := allocationPercent(totalBetValue, allTrades)
		if allocationPct < d.minAllocationPct {
			continue
		}

		if hasPriorLargeBet(allTrades, marketID, d.minBetUSD) {
			continue
		}

		log.Info().
			Str("market", marketID).
			Str("wallet", wallet).
			Float64("age_hours", ageHours).
			Str("bet_usd", totalBetValue.StringFixed(2)).
			Msg("🚩 Fresh wallet large bet")

		return &types.FreshWalletSignal{
			MarketID:      marketID,
			WalletAddress: wallet,
			AgeHours:      ageHours,
			BetSizeUSD:    totalBetValue,
			TotalTrades:   totalTrades,
			AllocationPct: allocationPct,
			At:            now,
		}, nil
	}

	return nil, nil
}

// AnalyzeWallet builds the full derived profile for one wallet on one market.
func (d *FreshWalletDetector) AnalyzeWallet(address, marketID string) (types.WalletProfile, error) {
	address = types.NormalizeAddress(address)

	ageHours, known, err := d.oracle.WalletAge(address)
	if err != nil {
		return types.WalletProfile{}, err
	}

	allTrades, err := d.history.TradesByWallet(address)
	if err != nil {
		return types.WalletProfile{}, err
	}

	totalVolume := decimal.Zero
	marketVolume := decimal.Zero
	marketTrades := 0
	for _, trade := range allTrades {
		totalVolume = totalVolume.Add(trade.Value())
		if trade.MarketID == marketID {
			marketVolume = marketVolume.Add(trade.Value())
			marketTrades++
		}
	}

	allocationPct := 0.0
	if totalVolume.IsPositive() {
		allocationPct = marketVolume.Div(totalVolume).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return types.WalletProfile{
		Address:        address,
		AgeHours:       ageHours,
		AgeKnown:       known,
		TotalTrades:    len(allTrades),
		TotalVolumeUSD: totalVolume,
		MarketTrades:   marketTrades,
		MarketVolume:   marketVolume,
		AllocationPct:  allocationPct,
		IsFresh:        known && ageHours <= d.maxAgeHours,
		IsFocused:      len(allTrades) <= d.maxTrades && allocationPct >= d.minAllocationPct,
		HasLargeBet:    marketVolume.GreaterThanOrEqual(d.minBetUSD),
	}, nil
}

// groupByWallet buckets trades by normalized trader address.
func groupByWallet(trades []types.TradeRecord) map[string][]types.TradeRecord {
	byWallet := make(map[string][]types.TradeRecord)
	for _, trade := range trades {
		if trade.TraderAddress == "" {
			continue
		}
		wallet := types.NormalizeAddress(trade.TraderAddress)
		byWallet[wallet] = append(byWallet[wallet], trade)
	}
	return byWallet
}

// allocationPercent is the share of the wallet's lifetime activity this bet
// represents. A wallet whose only recorded activity is this bet allocates
// 100% by definition.
func allocationPercent(betValue decimal.Decimal, allTrades []types.TradeRecord) float64 {
	totalActivity := decimal.Zero
	for _, trade := range allTrades {
		totalActivity = totalActivity.Add(trade.Value())
	}
	if !totalActivity.IsPositive() {
		return 100
	}
	return betValue.Div(totalActivity).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// hasPriorLargeBet reports whether the wallet already placed a bet at or
// above the floor on a different market. Such a wallet is not "fresh".
func hasPriorLargeBet(allTrades []types.TradeRecord, marketID string, minBetUSD decimal.Decimal) bool {
	for _, trade := range allTrades {
		if trade.MarketID == marketID {
			continue
		}
		if trade.Value().GreaterThanOrEqual(minBetUSD) {
			return true
		}
	}
	return false
}
