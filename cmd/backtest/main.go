// Backtest runner - replays the bundled synthetic scenarios through the
// production detectors and prints the detection report.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JJAiprojects/polymarket-edge-bot/backtest"
	"github.com/JJAiprojects/polymarket-edge-bot/internal/config"
)

const seed = 42

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	runner := backtest.New(cfg, seed)
	report, err := runner.Run(backtest.AllScenarios())
	if err != nil {
		log.Fatal().Err(err).Msg("Backtest failed")
	}

	printReport(report)
}

func printReport(report backtest.Report) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Println("  BACKTEST REPORT")
	fmt.Println("═══════════════════════════════════════════════")

	for _, result := range report.Results {
		fmt.Printf("\nScenario: %s\n", result.Scenario)
		fmt.Printf("  Market:    %s\n", result.Question)
		fmt.Printf("  Expected:  %d signals\n", result.TotalExpected)
		fmt.Printf("  Detected:  %d (%.0f%%)\n", len(result.Detected), result.DetectionRatePct())

		for _, detected := range result.Detected {
			fmt.Printf("    ✓ %s  %s (%s)\n", detected.Date.Format("2006-01-02"), detected.Event, detected.Detail)
		}
		for _, missed := range result.Missed {
			fmt.Printf("    ✗ %s  %s: %s\n", missed.Date.Format("2006-01-02"), missed.Event, missed.Reason)
		}
	}

	fmt.Println()
	fmt.Println("───────────────────────────────────────────────")
	fmt.Printf("Scenarios tested:  %d\n", report.ScenariosTested)
	fmt.Printf("Signals expected:  %d\n", report.TotalExpected)
	fmt.Printf("Signals detected:  %d\n", report.TotalDetected)
	fmt.Printf("Signals missed:    %d\n", report.TotalMissed)
	fmt.Printf("Detection rate:    %.1f%%\n", report.DetectionRatePct)
	fmt.Println("═══════════════════════════════════════════════")
}
