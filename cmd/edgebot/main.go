// Edgebot - Prediction Market Surveillance Engine for Polymarket
//
// The engine watches stored market state for the traces insiders leave:
// volume spikes, oversized trades, probability divergence across venues,
// broken correlations, fresh wallets making outsized bets and social
// mention surges. Every signal is sized with fractional Kelly, gated by
// the risk manager, and journaled as a flagged opportunity.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JJAiprojects/polymarket-edge-bot/core"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/config"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/database"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/metrics"
	"github.com/JJAiprojects/polymarket-edge-bot/risk"
	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

const version = "1.0.0"

// unknownOracle reports every wallet age as unknown. The fresh-wallet
// detector defers on unknown ages, so without an explorer client wired in
// the gate simply never fires.
type unknownOracle struct{}

func (unknownOracle) WalletAge(string) (float64, bool, error) {
	return 0, false, nil
}

// socialFeed reports mention counts for a market's keywords. No live
// collector is wired in, so the engine runs against an empty feed and the
// mention detector stays silent.
type socialFeed interface {
	MentionCounts(keywords []string) map[string]int
}

type emptyFeed struct{}

func (emptyFeed) MentionCounts([]string) map[string]int { return nil }

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Str("bankroll", "$"+cfg.BankrollUSD.StringFixed(0)).
		Dur("interval", cfg.AnalysisInterval).
		Msg("🔍 Edgebot surveillance engine starting...")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// ====== CORE COMPONENTS ======

	stats := metrics.New()
	riskMgr := risk.NewManager(db, cfg.BankrollUSD, cfg.MaxPositions, cfg.MaxExposurePct, cfg.HedgeThreshold, cfg.MaxHedgePct)
	pipeline := core.NewPipeline(cfg, db, unknownOracle{}, riskMgr, db, stats)

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(stats.Registry(), promhttp.HandlerOpts{}))
		log.Info().Str("addr", cfg.MetricsAddr).Msg("📊 Metrics endpoint listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	// Main loop
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.AnalysisInterval)
	defer ticker.Stop()

	feed := emptyFeed{}

	runPass(db, pipeline, feed)

	for {
		select {
		case <-ticker.C:
			runPass(db, pipeline, feed)
		case sig := <-stopCh:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			return
		}
	}
}

// runPass analyzes every active market against its stored state.
func runPass(db *database.Database, pipeline *core.Pipeline, feed socialFeed) {
	now := time.Now().UTC()

	markets, err := db.ActiveMarkets()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load active markets")
		return
	}
	if len(markets) == 0 {
		log.Debug().Msg("No active markets to analyze")
		return
	}

	inputs := make([]core.MarketInput, 0, len(markets))
	for _, market := range markets {
		trades, err := db.TradesByMarket(market.ID)
		if err != nil {
			log.Error().Err(err).Str("market", market.ID).Msg("Failed to load trades")
			continue
		}

		inputs = append(inputs, core.MarketInput{
			Snapshot: types.MarketSnapshot{
				MarketID:    market.ID,
				Question:    market.Question,
				Category:    market.Category,
				Probability: market.CurrentProbability,
				Volume24h:   market.Volume24h,
				Liquidity:   market.Liquidity,
				Timestamp:   now,
			},
			RecentTrades:   recentTrades(trades, now, 24*time.Hour),
			SocialMentions: feed.MentionCounts(core.ExtractKeywords(market.Question)),
		})
	}

	flagged := pipeline.Run(inputs, now)

	alerts, err := pipeline.ReviewPositions(inputs)
	if err != nil {
		log.Error().Err(err).Msg("Position review failed")
	}

	log.Info().
		Int("markets", len(inputs)).
		Int("flagged", len(flagged)).
		Int("alerts", len(alerts)).
		Msg("Analysis pass complete")
}

// recentTrades keeps trades inside the trailing window.
func recentTrades(trades []types.TradeRecord, now time.Time, window time.Duration) []types.TradeRecord {
	cutoff := now.Add(-window)
	var recent []types.TradeRecord
	for _, trade := range trades {
		if trade.Timestamp.After(cutoff) {
			recent = append(recent, trade)
		}
	}
	return recent
}
