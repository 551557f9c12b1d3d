package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JJAiprojects/polymarket-edge-bot/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RISK MANAGER - Gatekeeper for flagged opportunities
// ═══════════════════════════════════════════════════════════════════════════════

// A refusal from the risk manager is a normal, expected outcome, not an
// exception. Callers match with errors.Is.
var (
	ErrPositionLimitExceeded = errors.New("maximum positions limit reached")
	ErrExposureLimitExceeded = errors.New("exposure limit would be exceeded")
)

// OpenPosition is the slice of a flagged opportunity the risk manager needs:
// what was staked, not why.
type OpenPosition struct {
	MarketID         string
	SignalType       types.SignalType
	SuggestedSizeUSD decimal.Decimal
	EntryProbability float64
}

// PortfolioSource is the view of the store the risk manager recomputes
// exposure from. Exposure and position count are never tracked incrementally;
// a missed update can make a counter drift, a recomputation cannot.
type PortfolioSource interface {
	UnresolvedOpportunities() ([]OpenPosition, error)
}

// Manager enforces bankroll exposure and position-count limits and decides
// hedge and stop-loss triggers.
type Manager struct {
	portfolio      PortfolioSource
	bankroll       decimal.Decimal
	maxPositions   int
	maxExposurePct float64
	hedgeThreshold float64
	maxHedgePct    float64
}

// NewManager creates a risk manager over the given portfolio view.
func NewManager(portfolio PortfolioSource, bankroll decimal.Decimal, maxPositions int, maxExposurePct, hedgeThreshold, maxHedgePct float64) *Manager {
	return &Manager{
		portfolio:      portfolio,
		bankroll:       bankroll,
		maxPositions:   maxPositions,
		maxExposurePct: maxExposurePct,
		hedgeThreshold: hedgeThreshold,
		maxHedgePct:    maxHedgePct,
	}
}

// CurrentExposure sums suggested sizes over unresolved opportunities.
func (m *Manager) CurrentExposure() (decimal.Decimal, error) {
	open, err := m.portfolio.UnresolvedOpportunities()
	if err != nil {
		return decimal.Zero, err
	}
	return sumExposure(open), nil
}

// OpenPositions counts unresolved opportunities.
func (m *Manager) OpenPositions() (int, error) {
	open, err := m.portfolio.UnresolvedOpportunities()
	if err != nil {
		return 0, err
	}
	return len(open), nil
}

// Positions returns the unresolved opportunity set for position review.
func (m *Manager) Positions() ([]OpenPosition, error) {
	return m.portfolio.UnresolvedOpportunities()
}

// CanTakePosition checks the proposed size against the position-count and
// exposure limits. The position-count check runs first: at the cap, every
// proposal is refused regardless of size.
func (m *Manager) CanTakePosition(size decimal.Decimal) error {
	open, err := m.portfolio.UnresolvedOpportunities()
	if err != nil {
		return err
	}

	if len(open) >= m.maxPositions {
		return fmt.Errorf("%w (%d)", ErrPositionLimitExceeded, m.maxPositions)
	}

	currentExposure := sumExposure(open)
	maxExposure := m.maxExposureUSD()
	if currentExposure.Add(size).GreaterThan(maxExposure) {
		return fmt.Errorf("%w (%s > %s)", ErrExposureLimitExceeded,
			currentExposure.Add(size).StringFixed(2), maxExposure.StringFixed(2))
	}

	return nil
}

// ShouldHedge reports whether a position's probability has run far enough to
// lock in gains with an opposing position.
func (m *Manager) ShouldHedge(positionProb float64) bool {
	return positionProb >= m.hedgeThreshold
}

// CalculateHedgeSize returns the opposing-outcome stake for a hedgeable
// position: a fixed share of the original size, zero when no hedge is due.
func (m *Manager) CalculateHedgeSize(positionSize decimal.Decimal, positionProb float64) decimal.Decimal {
	if !m.ShouldHedge(positionProb) {
		return decimal.Zero
	}
	return positionSize.Mul(decimal.NewFromFloat(m.maxHedgePct / 100))
}

// CheckStopLoss fires when probability dropped by thresholdPct percent or
// more relative to entry. Fails closed (no trigger) when the original
// probability is non-positive.
func (m *Manager) CheckStopLoss(originalProb, currentProb, thresholdPct float64) bool {
	if originalProb <= 0 {
		return false
	}
	dropPct := (originalProb - currentProb) / originalProb * 100
	return dropPct >= thresholdPct
}

// PortfolioSummary recomputes the full portfolio view from the unresolved
// opportunity set.
func (m *Manager) PortfolioSummary() (types.PortfolioState, error) {
	open, err := m.portfolio.UnresolvedOpportunities()
	if err != nil {
		return types.PortfolioState{}, err
	}

	exposure := sumExposure(open)
	exposurePct := 0.0
	if m.bankroll.IsPositive() {
		exposurePct = exposure.Div(m.bankroll).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return types.PortfolioState{
		TotalExposureUSD:    exposure,
		ExposurePct:         exposurePct,
		OpenPositions:       len(open),
		MaxPositions:        m.maxPositions,
		BankrollUSD:         m.bankroll,
		AvailableCapitalUSD: m.bankroll.Sub(exposure),
	}, nil
}

func (m *Manager) maxExposureUSD() decimal.Decimal {
	return m.bankroll.Mul(decimal.NewFromFloat(m.maxExposurePct / 100))
}

func sumExposure(open []OpenPosition) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range open {
		total = total.Add(pos.SuggestedSizeUSD)
	}
	return total
}
