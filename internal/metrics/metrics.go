// Package metrics computes the derived performance fields of a project.
// All derived values are recomputed on every read and never persisted.
package metrics

import (
	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// riskSPIThreshold and riskUtilizationThreshold drive the risk classification:
// a project is flagged when it is explicitly at risk, clearly behind schedule,
// or nearly out of budget.
const (
	riskSPIThreshold         = 0.8
	riskUtilizationThreshold = 90.0
)

// Metrics holds the derived fields of a project
type Metrics struct {
	// Deviation is progress minus target, unclamped
	Deviation float64 `json:"deviation"`
	// SPI is the schedule performance index; 1 when target is zero
	SPI float64 `json:"spi"`
	// CPI is the cost performance index; 1 when no budget has been consumed
	CPI float64 `json:"cpi"`
	// CostUtilizationPercent is actual cost over total budget, as a percentage
	CostUtilizationPercent float64 `json:"costUtilizationPercent"`
	// RiskFlag marks projects needing portfolio-office attention
	RiskFlag bool `json:"riskFlag"`

	// StartMonthIndex (0=Jan) and DurationMonths are derived from the project
	// dates for chart bucketing; they are never accepted from input.
	StartMonthIndex int `json:"startMonthIndex"`
	DurationMonths  int `json:"durationMonths"`
}

// Enriched is a normalized project together with its derived metrics
type Enriched struct {
	models.Project
	Metrics
}

// Enrich computes the derived metrics for a normalized project.
// Percentage math stays in floating point; rounding happens only at
// display formatting, never mid-computation.
func Enrich(p models.Project) Enriched {
	m := Metrics{
		Deviation: p.Progress - p.Target,
		SPI:       1,
		CPI:       1,
	}

	if p.Target > 0 {
		m.SPI = p.Progress / p.Target
	}

	if p.TotalBudget > 0 {
		m.CostUtilizationPercent = p.ActualCost / p.TotalBudget * 100
	}

	if m.CostUtilizationPercent > 0 {
		m.CPI = p.Progress / m.CostUtilizationPercent
	}

	m.RiskFlag = p.Status == models.StatusAtRisk ||
		m.SPI < riskSPIThreshold ||
		m.CostUtilizationPercent >= riskUtilizationThreshold

	m.StartMonthIndex, m.DurationMonths = monthWindow(p)

	return Enriched{Project: p, Metrics: m}
}

// EnrichAll enriches a collection, preserving order
func EnrichAll(projects []models.Project) []Enriched {
	out := make([]Enriched, 0, len(projects))
	for _, p := range projects {
		out = append(out, Enrich(p))
	}
	return out
}

// monthWindow derives the month bucket window from the project dates.
// Both values are zero when the start date is unknown.
func monthWindow(p models.Project) (startIndex, duration int) {
	if p.StartDate.IsZero() {
		return 0, 0
	}

	startIndex = int(p.StartDate.Month()) - 1

	if p.EndDate.IsZero() {
		return startIndex, 1
	}

	span := (p.EndDate.Year()-p.StartDate.Year())*12 +
		int(p.EndDate.Month()) - int(p.StartDate.Month()) + 1
	if span < 1 {
		span = 1
	}
	return startIndex, span
}

// Bucket is one calendar month's share of a project's budget
type Bucket struct {
	Planned float64
	Actual  float64
}

// MonthlyDistribution spreads a project's planned budget and actual spend
// evenly across its month window, clipped to the Jan-Dec year: buckets past
// December are silently dropped, so a window crossing the year boundary
// distributes less than the full budget. That clipping is a charting policy,
// not an accounting identity.
func MonthlyDistribution(totalBudget, costUtilizationPercent float64, startIndex, duration int) [12]Bucket {
	var buckets [12]Bucket
	if duration <= 0 || startIndex < 0 || startIndex > 11 {
		return buckets
	}

	plannedPerMonth := totalBudget / float64(duration)
	actualPerMonth := totalBudget * costUtilizationPercent / 100 / float64(duration)

	for m := startIndex; m < startIndex+duration && m < 12; m++ {
		buckets[m].Planned = plannedPerMonth
		buckets[m].Actual = actualPerMonth
	}
	return buckets
}
