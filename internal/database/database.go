package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JJAiprojects/polymarket-edge-bot/risk"
	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// Database is the history store: append-only snapshot series, the trade
// ledger, wallet stats and the flagged-opportunity journal. It backs the
// detectors' HistoryReader view and the risk manager's PortfolioSource view.
type Database struct {
	db *gorm.DB
}

// Models

type Market struct {
	ID                 string `gorm:"primaryKey"`
	Question           string
	Category           string
	CurrentProbability float64
	Volume24h          decimal.Decimal `gorm:"type:decimal(20,2)"`
	Liquidity          decimal.Decimal `gorm:"type:decimal(20,2)"`
	Active             bool            `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot is one appended (probability, volume) observation. Rows are never
// updated.
type Snapshot struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MarketID    string `gorm:"index:idx_snapshots_market_time"`
	Probability float64
	Volume24h   decimal.Decimal `gorm:"type:decimal(20,2)"`
	Timestamp   time.Time       `gorm:"index:idx_snapshots_market_time"`
}

type Trade struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	MarketID      string `gorm:"index"`
	TraderAddress string `gorm:"index"`
	Side          string
	Size          decimal.Decimal `gorm:"type:decimal(20,6)"`
	Price         decimal.Decimal `gorm:"type:decimal(10,6)"`
	Timestamp     time.Time       `gorm:"index"`
	CreatedAt     time.Time
}

type Wallet struct {
	Address        string `gorm:"primaryKey"`
	FirstSeen      time.Time
	TotalTrades    int
	TotalVolumeUSD decimal.Decimal `gorm:"type:decimal(20,2)"`
	UpdatedAt      time.Time
}

type FlaggedOpportunity struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	MarketID           string `gorm:"index"`
	Question           string
	SignalType         string
	CurrentProbability float64
	ExpectedValueUSD   decimal.Decimal `gorm:"type:decimal(20,6)"`
	SuggestedSizeUSD   decimal.Decimal `gorm:"type:decimal(20,6)"`
	Rationale          string          `gorm:"type:text"`
	FlaggedAt          time.Time       `gorm:"index"`
	Resolved           bool            `gorm:"index;default:false"`
	Outcome            string          // "win", "loss", "pending"
	PnL                decimal.Decimal `gorm:"column:pnl;type:decimal(20,6)"`
}

// New opens the store. A postgres:// DSN selects Postgres, anything else is
// treated as a SQLite file path.
func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Market{}, &Snapshot{}, &Trade{}, &Wallet{}, &FlaggedOpportunity{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// Market operations

// SaveMarket upserts the market row from a snapshot.
func (d *Database) SaveMarket(snap types.MarketSnapshot) error {
	market := Market{
		ID:                 snap.MarketID,
		Question:           snap.Question,
		Category:           snap.Category,
		CurrentProbability: snap.Probability,
		Volume24h:          snap.Volume24h,
		Liquidity:          snap.Liquidity,
		Active:             true,
	}
	return d.db.Save(&market).Error
}

// ActiveMarkets returns every market currently flagged active.
func (d *Database) ActiveMarkets() ([]Market, error) {
	var markets []Market
	err := d.db.Where("active = ?", true).Find(&markets).Error
	return markets, err
}

// Snapshot operations

// AppendSnapshot records one observation. History is append-only.
func (d *Database) AppendSnapshot(marketID string, probability float64, volume24h decimal.Decimal, at time.Time) error {
	snap := Snapshot{
		MarketID:    marketID,
		Probability: probability,
		Volume24h:   volume24h,
		Timestamp:   at,
	}
	return d.db.Create(&snap).Error
}

// VolumeHistory returns the trailing window of snapshots, oldest first.
// Implements detector.HistoryReader.
func (d *Database) VolumeHistory(marketID string, hours int) ([]types.HistoryPoint, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var rows []Snapshot
	err := d.db.
		Where("market_id = ? AND timestamp >= ?", marketID, cutoff).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	points := make([]types.HistoryPoint, len(rows))
	for i, row := range rows {
		points[i] = types.HistoryPoint{
			Probability: row.Probability,
			Volume24h:   row.Volume24h,
			Timestamp:   row.Timestamp,
		}
	}
	return points, nil
}

// Trade operations

// AddTrade appends one trade to the ledger and refreshes the wallet stats row.
// The trader address is stored in normalized form so wallet lookups see one
// ledger per wallet no matter how each source cased the address.
func (d *Database) AddTrade(trade types.TradeRecord) error {
	trade.TraderAddress = types.NormalizeAddress(trade.TraderAddress)
	row := Trade{
		MarketID:      trade.MarketID,
		TraderAddress: trade.TraderAddress,
		Side:          trade.Side,
		Size:          trade.Size,
		Price:         trade.Price,
		Timestamp:     trade.Timestamp,
	}
	if err := d.db.Create(&row).Error; err != nil {
		return err
	}
	return d.bumpWallet(trade)
}

// TradesByWallet returns every trade for a wallet across all markets.
// Implements detector.HistoryReader.
func (d *Database) TradesByWallet(address string) ([]types.TradeRecord, error) {
	var rows []Trade
	err := d.db.Where("trader_address = ?", types.NormalizeAddress(address)).Order("timestamp ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTradeRecords(rows), nil
}

// TradesByMarket returns every trade on a market.
// Implements detector.HistoryReader.
func (d *Database) TradesByMarket(marketID string) ([]types.TradeRecord, error) {
	var rows []Trade
	err := d.db.Where("market_id = ?", marketID).Order("timestamp ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTradeRecords(rows), nil
}

func (d *Database) bumpWallet(trade types.TradeRecord) error {
	wallet := Wallet{Address: trade.TraderAddress, FirstSeen: trade.Timestamp}
	if err := d.db.Where(Wallet{Address: trade.TraderAddress}).FirstOrCreate(&wallet).Error; err != nil {
		return err
	}
	wallet.TotalTrades++
	wallet.TotalVolumeUSD = wallet.TotalVolumeUSD.Add(trade.Value())
	return d.db.Save(&wallet).Error
}

// Opportunity operations

// FlagOpportunity journals a gated opportunity and returns its id.
func (d *Database) FlagOpportunity(opp types.Opportunity) (uint, error) {
	row := FlaggedOpportunity{
		MarketID:           opp.MarketID,
		Question:           opp.Question,
		SignalType:         string(opp.Signal.Type()),
		CurrentProbability: opp.CurrentProbability,
		ExpectedValueUSD:   opp.ExpectedValueUSD,
		SuggestedSizeUSD:   opp.SuggestedSizeUSD,
		Rationale:          opp.Rationale,
		FlaggedAt:          opp.FlaggedAt,
		Outcome:            "pending",
	}
	if err := d.db.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// UnresolvedOpportunities returns the open positions the risk manager
// recomputes exposure from. Implements risk.PortfolioSource.
func (d *Database) UnresolvedOpportunities() ([]risk.OpenPosition, error) {
	var rows []FlaggedOpportunity
	err := d.db.Where("resolved = ?", false).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	open := make([]risk.OpenPosition, len(rows))
	for i, row := range rows {
		open[i] = risk.OpenPosition{
			MarketID:         row.MarketID,
			SignalType:       types.SignalType(row.SignalType),
			SuggestedSizeUSD: row.SuggestedSizeUSD,
			EntryProbability: row.CurrentProbability,
		}
	}
	return open, nil
}

// ResolveOpportunity closes out a flagged opportunity with its outcome.
func (d *Database) ResolveOpportunity(id uint, outcome string, pnl decimal.Decimal) error {
	return d.db.Model(&FlaggedOpportunity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved": true,
			"outcome":  outcome,
			"pnl":      pnl,
		}).Error
}

// RecentOpportunities returns the latest flagged opportunities.
func (d *Database) RecentOpportunities(limit int) ([]FlaggedOpportunity, error) {
	var rows []FlaggedOpportunity
	err := d.db.Order("flagged_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toTradeRecords(rows []Trade) []types.TradeRecord {
	trades := make([]types.TradeRecord, len(rows))
	for i, row := range rows {
		trades[i] = types.TradeRecord{
			MarketID:      row.MarketID,
			TraderAddress: row.TraderAddress,
			Side:          row.Side,
			Size:          row.Size,
			Price:         row.Price,
			Timestamp:     row.Timestamp,
		}
	}
	return trades
}
