package detector

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// mockHistory is an in-memory HistoryReader for tests.
type mockHistory struct {
	points       map[string][]types.HistoryPoint
	walletTrades map[string][]types.TradeRecord
	marketTrades map[string][]types.TradeRecord
	err          error
}

func newMockHistory() *mockHistory {
	return &mockHistory{
		points:       make(map[string][]types.HistoryPoint),
		walletTrades: make(map[string][]types.TradeRecord),
		marketTrades: make(map[string][]types.TradeRecord),
	}
}

func (m *mockHistory) VolumeHistory(marketID string, hours int) ([]types.HistoryPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.points[marketID], nil
}

func (m *mockHistory) TradesByWallet(address string) ([]types.TradeRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.walletTrades[types.NormalizeAddress(address)], nil
}

func (m *mockHistory) TradesByMarket(marketID string) ([]types.TradeRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.marketTrades[marketID], nil
}

func (m *mockHistory) addTrade(trade types.TradeRecord) {
	trade.TraderAddress = types.NormalizeAddress(trade.TraderAddress)
	m.walletTrades[trade.TraderAddress] = append(m.walletTrades[trade.TraderAddress], trade)
	m.marketTrades[trade.MarketID] = append(m.marketTrades[trade.MarketID], trade)
}

// mockOracle answers wallet ages from a fixed table.
type mockOracle struct {
	ages map[string]float64
	err  error
}

func (m *mockOracle) WalletAge(address string) (float64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	age, ok := m.ages[address]
	return age, ok, nil
}

// hourlyPoints builds n history points one hour apart ending at end, all with
// the same volume and probability.
func hourlyPoints(n int, volume float64, prob float64, end time.Time) []types.HistoryPoint {
	points := make([]types.HistoryPoint, n)
	for i := 0; i < n; i++ {
		points[i] = types.HistoryPoint{
			Probability: prob,
			Volume24h:   decimal.NewFromFloat(volume),
			Timestamp:   end.Add(-time.Duration(n-1-i) * time.Hour),
		}
	}
	return points
}
