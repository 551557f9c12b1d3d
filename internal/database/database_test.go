package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotsAreAppendOnly(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		at := now.Add(time.Duration(i-2) * time.Hour)
		if err := db.AppendSnapshot("mkt-1", 0.5+float64(i)*0.01, decimal.NewFromInt(int64(1000+i)), at); err != nil {
			t.Fatalf("append snapshot: %v", err)
		}
	}

	points, err := db.VolumeHistory("mkt-1", 24)
	if err != nil {
		t.Fatalf("volume history: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	// Oldest first.
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			t.Fatal("expected ascending timestamp order")
		}
	}
	if !points[0].Volume24h.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected first volume: %s", points[0].Volume24h)
	}
}

func TestVolumeHistory_WindowExcludesOldPoints(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()

	if err := db.AppendSnapshot("mkt-1", 0.5, decimal.NewFromInt(999), now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("append snapshot: %v", err)
	}
	if err := db.AppendSnapshot("mkt-1", 0.5, decimal.NewFromInt(1000), now.Add(-time.Hour)); err != nil {
		t.Fatalf("append snapshot: %v", err)
	}

	points, err := db.VolumeHistory("mkt-1", 24)
	if err != nil {
		t.Fatalf("volume history: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point inside the window, got %d", len(points))
	}
}

func TestTradeLedgerAndWalletStats(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	trades := []types.TradeRecord{
		{MarketID: "mkt-1", TraderAddress: "0xabc", Side: "buy", Size: decimal.NewFromInt(100), Price: decimal.NewFromFloat(0.5), Timestamp: now.Add(-2 * time.Hour)},
		{MarketID: "mkt-2", TraderAddress: "0xabc", Side: "buy", Size: decimal.NewFromInt(200), Price: decimal.NewFromFloat(0.25), Timestamp: now.Add(-time.Hour)},
		{MarketID: "mkt-1", TraderAddress: "0xdef", Side: "sell", Size: decimal.NewFromInt(50), Price: decimal.NewFromFloat(0.5), Timestamp: now},
	}
	for _, trade := range trades {
		if err := db.AddTrade(trade); err != nil {
			t.Fatalf("add trade: %v", err)
		}
	}

	byWallet, err := db.TradesByWallet("0xabc")
	if err != nil {
		t.Fatalf("trades by wallet: %v", err)
	}
	if len(byWallet) != 2 {
		t.Fatalf("expected 2 trades for wallet, got %d", len(byWallet))
	}

	byMarket, err := db.TradesByMarket("mkt-1")
	if err != nil {
		t.Fatalf("trades by market: %v", err)
	}
	if len(byMarket) != 2 {
		t.Fatalf("expected 2 trades on market, got %d", len(byMarket))
	}
}

func TestTradesByWallet_CasingDoesNotSplitLedger(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	checksummed := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	// Two trades for one wallet, arriving under different casings.
	if err := db.AddTrade(types.TradeRecord{MarketID: "mkt-1", TraderAddress: lower, Side: "buy", Size: decimal.NewFromInt(100), Price: decimal.NewFromFloat(0.5), Timestamp: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("add trade: %v", err)
	}
	if err := db.AddTrade(types.TradeRecord{MarketID: "mkt-2", TraderAddress: checksummed, Side: "buy", Size: decimal.NewFromInt(200), Price: decimal.NewFromFloat(0.5), Timestamp: now}); err != nil {
		t.Fatalf("add trade: %v", err)
	}

	// Both casings resolve to the same two-trade ledger.
	for _, query := range []string{lower, checksummed} {
		trades, err := db.TradesByWallet(query)
		if err != nil {
			t.Fatalf("trades by wallet %s: %v", query, err)
		}
		if len(trades) != 2 {
			t.Errorf("expected 2 trades querying %s, got %d", query, len(trades))
		}
	}
}

func TestOpportunityLifecycle(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	opp := types.Opportunity{
		MarketID:           "mkt-1",
		Question:           "Will X happen?",
		Signal:             types.VolumeSpikeSignal{MarketID: "mkt-1", SpikeRatio: decimal.NewFromFloat(5.2), At: now},
		CurrentProbability: 0.5,
		ExpectedValueUSD:   decimal.NewFromInt(50),
		SuggestedSizeUSD:   decimal.NewFromInt(500),
		Rationale:          "Volume spike detected: 5.2x average volume.",
		FlaggedAt:          now,
	}

	id, err := db.FlagOpportunity(opp)
	if err != nil {
		t.Fatalf("flag opportunity: %v", err)
	}

	open, err := db.UnresolvedOpportunities()
	if err != nil {
		t.Fatalf("unresolved opportunities: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(open))
	}
	if open[0].SignalType != types.SignalVolumeSpike {
		t.Errorf("unexpected signal type: %s", open[0].SignalType)
	}
	if !open[0].SuggestedSizeUSD.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected size: %s", open[0].SuggestedSizeUSD)
	}

	if err := db.ResolveOpportunity(id, "win", decimal.NewFromInt(450)); err != nil {
		t.Fatalf("resolve opportunity: %v", err)
	}

	open, err = db.UnresolvedOpportunities()
	if err != nil {
		t.Fatalf("unresolved opportunities: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("expected no open positions after resolution, got %d", len(open))
	}
}

func TestSaveMarket_Upserts(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()

	snap := types.MarketSnapshot{
		MarketID:    "mkt-1",
		Question:    "Will X happen?",
		Category:    "politics",
		Probability: 0.5,
		Volume24h:   decimal.NewFromInt(1000),
		Liquidity:   decimal.NewFromInt(5000),
		Timestamp:   now,
	}
	if err := db.SaveMarket(snap); err != nil {
		t.Fatalf("save market: %v", err)
	}

	snap.Probability = 0.6
	if err := db.SaveMarket(snap); err != nil {
		t.Fatalf("save market again: %v", err)
	}

	markets, err := db.ActiveMarkets()
	if err != nil {
		t.Fatalf("active markets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
	if markets[0].CurrentProbability != 0.6 {
		t.Errorf("expected updated probability, got %f", markets[0].CurrentProbability)
	}
}
