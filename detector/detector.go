// Package detector implements the heuristic signal detectors that flag
// suspicious market, trade and wallet activity. Detectors are pure evaluators:
// they read already-fetched data plus a history view and return zero or one
// signal per call. They never reach for process-wide state; every dependency
// is injected.
package detector

import (
	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// HistoryReader is the narrow read-only view of the history store the
// detectors need. The live pipeline backs it with the database; backtests
// supply an in-memory implementation.
type HistoryReader interface {
	// VolumeHistory returns (probability, volume) points for the trailing
	// window, ordered oldest first.
	VolumeHistory(marketID string, hours int) ([]types.HistoryPoint, error)

	// TradesByWallet returns every recorded trade for a wallet across all
	// markets. Implementations must key wallets by types.NormalizeAddress so
	// a lookup finds the ledger regardless of the casing trades arrived with.
	TradesByWallet(address string) ([]types.TradeRecord, error)

	// TradesByMarket returns every recorded trade on a market.
	TradesByMarket(marketID string) ([]types.TradeRecord, error)
}

// WalletAgeOracle reports how old a wallet is. known is false when the oracle
// has no data for the address; detectors skip such wallets rather than fail.
type WalletAgeOracle interface {
	WalletAge(address string) (hours float64, known bool, err error)
}
