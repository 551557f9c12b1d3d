package backtest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// MemoryHistory is the in-memory history store the backtester replays
// against. It satisfies detector.HistoryReader with a movable clock so each
// event can be evaluated "as of" its own date.
type MemoryHistory struct {
	now          time.Time
	points       map[string][]types.HistoryPoint
	marketTrades map[string][]types.TradeRecord
	walletTrades map[string][]types.TradeRecord
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		points:       make(map[string][]types.HistoryPoint),
		marketTrades: make(map[string][]types.TradeRecord),
		walletTrades: make(map[string][]types.TradeRecord),
	}
}

// SetNow moves the store's clock. VolumeHistory windows are cut against it.
func (m *MemoryHistory) SetNow(now time.Time) {
	m.now = now
}

// LoadHistory replaces the snapshot series for a market. Points must be in
// ascending timestamp order.
func (m *MemoryHistory) LoadHistory(marketID string, points []types.HistoryPoint) {
	m.points[marketID] = points
}

// AddTrade appends one trade to both ledgers, keyed by normalized address
// like the live store.
func (m *MemoryHistory) AddTrade(trade types.TradeRecord) {
	trade.TraderAddress = types.NormalizeAddress(trade.TraderAddress)
	m.marketTrades[trade.MarketID] = append(m.marketTrades[trade.MarketID], trade)
	m.walletTrades[trade.TraderAddress] = append(m.walletTrades[trade.TraderAddress], trade)
}

// VolumeHistory returns the points inside the trailing window ending at the
// store's clock.
func (m *MemoryHistory) VolumeHistory(marketID string, hours int) ([]types.HistoryPoint, error) {
	cutoff := m.now.Add(-time.Duration(hours) * time.Hour)
	var window []types.HistoryPoint
	for _, point := range m.points[marketID] {
		if !point.Timestamp.Before(cutoff) && !point.Timestamp.After(m.now) {
			window = append(window, point)
		}
	}
	return window, nil
}

func (m *MemoryHistory) TradesByWallet(address string) ([]types.TradeRecord, error) {
	return m.walletTrades[types.NormalizeAddress(address)], nil
}

func (m *MemoryHistory) TradesByMarket(marketID string) ([]types.TradeRecord, error) {
	return m.marketTrades[marketID], nil
}

// ScriptedOracle answers wallet-age queries from a fixed table. Addresses
// outside the table report unknown.
type ScriptedOracle struct {
	Ages map[string]float64
}

func (o *ScriptedOracle) WalletAge(address string) (float64, bool, error) {
	age, ok := o.Ages[address]
	return age, ok, nil
}

// GenerateHistory produces daysBack days of hourly points for a scenario:
// base volume with ±20% noise and probability with ±5pp noise, overridden
// inside each event's 4-hour window by the event's spike and move. The
// series ends at anchor.
func GenerateHistory(sc Scenario, anchor time.Time, daysBack int, rng *rand.Rand) []types.HistoryPoint {
	baseVolume := sc.BaseVolume.InexactFloat64()
	baseProb := sc.BaseProbability

	hoursTotal := daysBack * 24
	start := anchor.Add(-time.Duration(hoursTotal) * time.Hour)

	points := make([]types.HistoryPoint, 0, hoursTotal)
	for i := 0; i < hoursTotal; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)

		volume := baseVolume * (0.8 + rng.Float64()*0.4)
		prob := baseProb + (rng.Float64()-0.5)*0.1

		for _, event := range sc.Events {
			sinceEvent := ts.Sub(event.Date)
			if sinceEvent >= 0 && sinceEvent < 4*time.Hour {
				volume = baseVolume * event.VolumeSpike
				prob = baseProb + event.ProbabilityChange
				break
			}
		}

		points = append(points, types.HistoryPoint{
			Probability: clampProb(prob),
			Volume24h:   decimal.NewFromFloat(volume),
			Timestamp:   ts,
		})
	}
	return points
}

// GenerateTrades produces the trade tape around one event: twenty
// unremarkable trades in the preceding day plus whatever oversized trades the
// scenario's events inject at their dates.
func GenerateTrades(sc Scenario, eventDate time.Time, rng *rand.Rand) []types.TradeRecord {
	var trades []types.TradeRecord

	for i := 0; i < 20; i++ {
		trades = append(trades, types.TradeRecord{
			MarketID:      sc.MarketID,
			TraderAddress: fmt.Sprintf("0x%04d", 1000+rng.Intn(9000)),
			Side:          "buy",
			Size:          decimal.NewFromInt(int64(10 + rng.Intn(91))),
			Price:         decimal.NewFromFloat(0.5 + (rng.Float64()-0.5)*0.1),
			Timestamp:     eventDate.Add(-time.Duration(1+rng.Intn(24)) * time.Hour),
		})
	}

	for _, event := range sc.Events {
		for _, unusual := range event.UnusualTrades {
			trades = append(trades, types.TradeRecord{
				MarketID:      sc.MarketID,
				TraderAddress: fmt.Sprintf("0x%04d", 1000+rng.Intn(9000)),
				Side:          "buy",
				Size:          unusual.Size,
				Price:         unusual.Price,
				Timestamp:     event.Date,
			})
		}
	}

	return trades
}

func clampProb(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
