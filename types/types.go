package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED TYPES - Market state, trades, wallets, opportunities
// ═══════════════════════════════════════════════════════════════════════════════

// MarketSnapshot is one observation of a market's state. Snapshots are
// append-only: new observations are recorded, history is never mutated.
type MarketSnapshot struct {
	MarketID    string
	Question    string
	Category    string
	Probability float64 // primary outcome, 0-1
	Volume24h   decimal.Decimal
	Liquidity   decimal.Decimal
	Timestamp   time.Time
}

// HistoryPoint is one stored (probability, volume) observation.
type HistoryPoint struct {
	Probability float64
	Volume24h   decimal.Decimal
	Timestamp   time.Time
}

// TradeRecord is a single trade on a market. The USD notional is always
// derived via Value, never stored.
type TradeRecord struct {
	MarketID      string
	TraderAddress string
	Side          string          // "buy" or "sell"
	Size          decimal.Decimal // shares
	Price         decimal.Decimal // 0-1
	Timestamp     time.Time
}

// Value returns the USD notional of the trade (size * price).
func (t TradeRecord) Value() decimal.Decimal {
	return t.Size.Mul(t.Price)
}

// NormalizeAddress returns the EIP-55 checksummed form for hex addresses so
// that every store and detector keys a wallet the same way regardless of the
// casing its source used. Non-hex identifiers pass through untouched.
func NormalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// WalletProfile is a derived view of a wallet's footprint. AgeKnown is false
// when the external age oracle has no data for the address.
type WalletProfile struct {
	Address        string
	AgeHours       float64
	AgeKnown       bool
	TotalTrades    int
	TotalVolumeUSD decimal.Decimal
	MarketTrades   int
	MarketVolume   decimal.Decimal
	AllocationPct  float64
	IsFresh        bool
	IsFocused      bool
	HasLargeBet    bool
}

// Opportunity is a signal that survived sizing and risk gating.
type Opportunity struct {
	MarketID           string
	Question           string
	Signal             Signal
	CurrentProbability float64
	ExpectedValueUSD   decimal.Decimal
	SuggestedSizeUSD   decimal.Decimal
	Rationale          string
	FlaggedAt          time.Time
}

// PortfolioState is a recomputed view over unresolved opportunities. It is
// never tracked incrementally, so it cannot drift from the opportunity set.
type PortfolioState struct {
	TotalExposureUSD    decimal.Decimal
	ExposurePct         float64
	OpenPositions       int
	MaxPositions        int
	BankrollUSD         decimal.Decimal
	AvailableCapitalUSD decimal.Decimal
}
