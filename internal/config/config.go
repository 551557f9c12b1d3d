package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds every tunable for the surveillance engine, resolved once at
// startup and passed by reference to each component's constructor.
type Config struct {
	// Mode
	Debug bool

	// Bankroll and exposure
	BankrollUSD    decimal.Decimal
	MaxExposurePct float64 // percent of bankroll, e.g. 40
	MaxPositions   int

	// Kelly sizing
	KellyFraction              float64 // fractional Kelly, e.g. 0.5
	CorrelationThreshold       float64
	CorrelationReductionFactor float64

	// Volume spike detector
	VolumeSpikeMultiplier float64
	VolumeWindowHours     int

	// Unusual trade size detector
	MinTradeSizeUSD decimal.Decimal

	// Probability divergence detector
	DivergenceThresholdPct float64

	// Correlation divergence detector
	MovementDeltaPct      float64
	CorrelationWindowDays int

	// Fresh wallet detector
	FreshWalletAgeHours         float64
	MinFreshWalletBetUSD        decimal.Decimal
	FreshWalletMaxTrades        int
	FreshWalletMinAllocationPct float64

	// Social mentions
	SocialMinMentions int

	// Risk triggers
	HedgeThreshold  float64
	MaxHedgePct     float64
	StopLossDropPct float64

	// Pipeline
	NotificationThresholdEV decimal.Decimal
	AnalysisInterval        time.Duration

	// Storage
	DatabasePath string

	// Metrics
	MetricsAddr string
}

// Load resolves configuration from environment variables with the documented
// defaults. Every recognized option lives here and nowhere else.
func Load() (*Config, error) {
	cfg := &Config{
		Debug: getEnvBool("DEBUG", false),

		BankrollUSD:    getEnvDecimal("BANKROLL_SIZE_USD", decimal.NewFromInt(10000)),
		MaxExposurePct: getEnvFloat("MAX_EXPOSURE_PCT", 40),
		MaxPositions:   getEnvInt("MAX_OPEN_POSITIONS", 10),

		KellyFraction:              getEnvFloat("KELLY_FRACTION", 0.5),
		CorrelationThreshold:       getEnvFloat("CORRELATION_THRESHOLD", 0.7),
		CorrelationReductionFactor: getEnvFloat("CORRELATION_REDUCTION_FACTOR", 0.5),

		VolumeSpikeMultiplier: getEnvFloat("VOLUME_SPIKE_MULTIPLIER", 4.0),
		VolumeWindowHours:     getEnvInt("VOLUME_WINDOW_HOURS", 4),

		MinTradeSizeUSD: getEnvDecimal("MIN_TRADE_SIZE_USD", decimal.NewFromInt(1000)),

		DivergenceThresholdPct: getEnvFloat("DIVERGENCE_THRESHOLD_PCT", 12.0),

		MovementDeltaPct:      getEnvFloat("MOVEMENT_DELTA_PCT", 5.0),
		CorrelationWindowDays: getEnvInt("CORRELATION_WINDOW_DAYS", 7),

		FreshWalletAgeHours:         getEnvFloat("FRESH_WALLET_AGE_HOURS", 72),
		MinFreshWalletBetUSD:        getEnvDecimal("MIN_FRESH_WALLET_BET_USD", decimal.NewFromInt(5000)),
		FreshWalletMaxTrades:        getEnvInt("FRESH_WALLET_MAX_TRADES", 3),
		FreshWalletMinAllocationPct: getEnvFloat("FRESH_WALLET_MIN_ALLOCATION_PCT", 80.0),

		SocialMinMentions: getEnvInt("SOCIAL_MIN_MENTIONS", 15),

		HedgeThreshold:  getEnvFloat("HEDGE_THRESHOLD", 0.70),
		MaxHedgePct:     getEnvFloat("MAX_HEDGE_PCT", 20.0),
		StopLossDropPct: getEnvFloat("STOP_LOSS_DROP_PCT", 20.0),

		NotificationThresholdEV: getEnvDecimal("NOTIFICATION_THRESHOLD_EV", decimal.NewFromFloat(0.05)),
		AnalysisInterval:        getEnvDuration("ANALYSIS_INTERVAL", 5*time.Minute),

		DatabasePath: getEnv("DATABASE_PATH", "data/edgebot.db"),

		MetricsAddr: getEnv("METRICS_ADDR", ":9100"),
	}

	if cfg.BankrollUSD.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("BANKROLL_SIZE_USD must be positive, got %s", cfg.BankrollUSD)
	}
	if cfg.MaxExposurePct <= 0 || cfg.MaxExposurePct > 100 {
		return nil, fmt.Errorf("MAX_EXPOSURE_PCT must be in (0,100], got %v", cfg.MaxExposurePct)
	}
	if cfg.MaxPositions <= 0 {
		return nil, fmt.Errorf("MAX_OPEN_POSITIONS must be positive, got %d", cfg.MaxPositions)
	}

	return cfg, nil
}

// MaxExposureUSD returns the exposure cap in dollars.
func (c *Config) MaxExposureUSD() decimal.Decimal {
	return c.BankrollUSD.Mul(decimal.NewFromFloat(c.MaxExposurePct / 100))
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
