package detector

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// UnusualTradeSizeDetector flags trades whose notional clears a USD floor.
// Pure function over the batch, no history dependency.
type UnusualTradeSizeDetector struct {
	minSizeUSD decimal.Decimal
}

// NewUnusualTradeSizeDetector creates a detector with the given USD floor.
func NewUnusualTradeSizeDetector(minSizeUSD decimal.Decimal) *UnusualTradeSizeDetector {
	return &UnusualTradeSizeDetector{minSizeUSD: minSizeUSD}
}

// Detect returns a signal carrying every trade with size*price >= the floor.
// A trade exactly at the floor counts as unusual.
func (d *UnusualTradeSizeDetector) Detect(marketID string, trades []types.TradeRecord, now time.Time) *types.UnusualTradeSizeSignal {
	var unusual []types.TradeRecord
	for _, trade := range trades {
		if trade.Value().GreaterThanOrEqual(d.minSizeUSD) {
			unusual = append(unusual, trade)
		}
	}

	if len(unusual) == 0 {
		return nil
	}

	return &types.UnusualTradeSizeSignal{
		MarketID: marketID,
		Trades:   unusual,
		At:       now,
	}
}
