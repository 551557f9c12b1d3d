package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var configEnvVars = []string{
	"DEBUG", "BANKROLL_SIZE_USD", "MAX_EXPOSURE_PCT", "MAX_OPEN_POSITIONS",
	"KELLY_FRACTION", "CORRELATION_THRESHOLD", "CORRELATION_REDUCTION_FACTOR",
	"VOLUME_SPIKE_MULTIPLIER", "VOLUME_WINDOW_HOURS", "MIN_TRADE_SIZE_USD",
	"DIVERGENCE_THRESHOLD_PCT", "MOVEMENT_DELTA_PCT", "CORRELATION_WINDOW_DAYS",
	"FRESH_WALLET_AGE_HOURS", "MIN_FRESH_WALLET_BET_USD", "FRESH_WALLET_MAX_TRADES",
	"FRESH_WALLET_MIN_ALLOCATION_PCT", "SOCIAL_MIN_MENTIONS",
	"HEDGE_THRESHOLD", "MAX_HEDGE_PCT", "STOP_LOSS_DROP_PCT",
	"NOTIFICATION_THRESHOLD_EV", "ANALYSIS_INTERVAL", "DATABASE_PATH", "METRICS_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.BankrollUSD.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("unexpected bankroll: %s", cfg.BankrollUSD)
	}
	if cfg.MaxExposurePct != 40 {
		t.Errorf("unexpected max exposure pct: %v", cfg.MaxExposurePct)
	}
	if cfg.MaxPositions != 10 {
		t.Errorf("unexpected max positions: %d", cfg.MaxPositions)
	}
	if cfg.KellyFraction != 0.5 {
		t.Errorf("unexpected kelly fraction: %v", cfg.KellyFraction)
	}
	if cfg.VolumeSpikeMultiplier != 4.0 {
		t.Errorf("unexpected spike multiplier: %v", cfg.VolumeSpikeMultiplier)
	}
	if cfg.VolumeWindowHours != 4 {
		t.Errorf("unexpected volume window: %d", cfg.VolumeWindowHours)
	}
	if !cfg.MinTradeSizeUSD.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected min trade size: %s", cfg.MinTradeSizeUSD)
	}
	if cfg.DivergenceThresholdPct != 12.0 {
		t.Errorf("unexpected divergence threshold: %v", cfg.DivergenceThresholdPct)
	}
	if cfg.FreshWalletAgeHours != 72 {
		t.Errorf("unexpected fresh wallet age: %v", cfg.FreshWalletAgeHours)
	}
	if !cfg.MinFreshWalletBetUSD.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("unexpected fresh wallet bet floor: %s", cfg.MinFreshWalletBetUSD)
	}
	if cfg.FreshWalletMaxTrades != 3 {
		t.Errorf("unexpected fresh wallet trade ceiling: %d", cfg.FreshWalletMaxTrades)
	}
	if cfg.FreshWalletMinAllocationPct != 80.0 {
		t.Errorf("unexpected allocation floor: %v", cfg.FreshWalletMinAllocationPct)
	}
	if cfg.SocialMinMentions != 15 {
		t.Errorf("unexpected mention floor: %d", cfg.SocialMinMentions)
	}
	if cfg.HedgeThreshold != 0.70 {
		t.Errorf("unexpected hedge threshold: %v", cfg.HedgeThreshold)
	}
	if cfg.StopLossDropPct != 20.0 {
		t.Errorf("unexpected stop loss drop: %v", cfg.StopLossDropPct)
	}
	if cfg.AnalysisInterval != 5*time.Minute {
		t.Errorf("unexpected analysis interval: %v", cfg.AnalysisInterval)
	}
	if cfg.DatabasePath != "data/edgebot.db" {
		t.Errorf("unexpected database path: %s", cfg.DatabasePath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BANKROLL_SIZE_USD", "25000")
	t.Setenv("VOLUME_SPIKE_MULTIPLIER", "6.5")
	t.Setenv("MAX_OPEN_POSITIONS", "3")
	t.Setenv("ANALYSIS_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.BankrollUSD.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("unexpected bankroll: %s", cfg.BankrollUSD)
	}
	if cfg.VolumeSpikeMultiplier != 6.5 {
		t.Errorf("unexpected spike multiplier: %v", cfg.VolumeSpikeMultiplier)
	}
	if cfg.MaxPositions != 3 {
		t.Errorf("unexpected max positions: %d", cfg.MaxPositions)
	}
	if cfg.AnalysisInterval != 30*time.Second {
		t.Errorf("unexpected analysis interval: %v", cfg.AnalysisInterval)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOLUME_SPIKE_MULTIPLIER", "not-a-number")
	t.Setenv("MAX_OPEN_POSITIONS", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VolumeSpikeMultiplier != 4.0 {
		t.Errorf("expected default multiplier on parse failure, got %v", cfg.VolumeSpikeMultiplier)
	}
	if cfg.MaxPositions != 10 {
		t.Errorf("expected default positions on parse failure, got %d", cfg.MaxPositions)
	}
}

func TestLoad_RejectsBadLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("BANKROLL_SIZE_USD", "-100")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative bankroll")
	}

	clearEnv(t)
	t.Setenv("MAX_EXPOSURE_PCT", "150")
	if _, err := Load(); err == nil {
		t.Error("expected error for exposure pct above 100")
	}

	clearEnv(t)
	t.Setenv("MAX_OPEN_POSITIONS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero position limit")
	}
}
