// Package filter evaluates enriched projects against a multi-field filter
// specification. Every predicate left at its zero value matches everything,
// so the zero Spec selects the whole portfolio and each populated field can
// only narrow the result.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nusantara-energy/portfolio-engine/internal/metrics"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// PerformanceBucket selects projects by the sign of their schedule deviation
type PerformanceBucket string

const (
	PerformanceAny    PerformanceBucket = ""
	PerformanceBehind PerformanceBucket = "BEHIND_TARGET"
	PerformanceOnTime PerformanceBucket = "ON_TRACK"
)

// BudgetSizeBucket selects projects by total budget magnitude
type BudgetSizeBucket string

const (
	BudgetSizeAny    BudgetSizeBucket = ""
	BudgetSizeSmall  BudgetSizeBucket = "SMALL"
	BudgetSizeMedium BudgetSizeBucket = "MEDIUM"
	BudgetSizeLarge  BudgetSizeBucket = "LARGE"
)

// Bands holds the budget magnitude thresholds. These are portfolio policy,
// injected into the engine rather than hard-coded in the predicates.
type Bands struct {
	SmallMax float64 // SMALL strictly below this
	LargeMin float64 // LARGE strictly above this
}

// DefaultBands reflects the portfolio office's standard IDR bands
func DefaultBands() Bands {
	return Bands{SmallMax: 1_000_000_000, LargeMin: 5_000_000_000}
}

// Spec is a filter specification. The zero value matches every project.
type Spec struct {
	// Search matches case-insensitively against id, name, or manager
	Search string

	// Categories is a membership set; empty means all categories
	Categories []models.Category

	// Exact-match fields; empty string means match-all
	Location string
	Priority string
	Status   string
	Manager  string
	Sponsor  string

	// MaxUtilization is a ceiling on the derived cost-utilization
	// percentage; nil means no ceiling
	MaxUtilization *float64

	Performance PerformanceBucket
	IssuesOnly  bool
	BudgetSize  BudgetSizeBucket
}

// Key returns a canonical cache key for the spec. Two specs selecting the
// same records produce the same key.
func (s Spec) Key() string {
	cats := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	maxUtil := "-"
	if s.MaxUtilization != nil {
		maxUtil = strconv.FormatFloat(*s.MaxUtilization, 'f', -1, 64)
	}

	return strings.Join([]string{
		strings.ToLower(s.Search),
		strings.Join(cats, ","),
		s.Location, s.Priority, s.Status, s.Manager, s.Sponsor,
		maxUtil,
		string(s.Performance),
		strconv.FormatBool(s.IssuesOnly),
		string(s.BudgetSize),
	}, "|")
}

// Engine evaluates filter specs with a configured set of budget bands
type Engine struct {
	bands Bands
}

// NewEngine creates a filter engine
func NewEngine(bands Bands) *Engine {
	if bands.SmallMax <= 0 || bands.LargeMin < bands.SmallMax {
		bands = DefaultBands()
	}
	return &Engine{bands: bands}
}

// Matches reports whether a project satisfies every predicate of the spec
func (e *Engine) Matches(p metrics.Enriched, spec Spec) bool {
	if !matchesSearch(p, spec.Search) {
		return false
	}

	if len(spec.Categories) > 0 && !containsCategory(spec.Categories, p.Category) {
		return false
	}

	if spec.Location != "" && p.Location != spec.Location {
		return false
	}
	if spec.Priority != "" && string(p.Priority) != spec.Priority {
		return false
	}
	if spec.Status != "" && string(p.Status) != spec.Status {
		return false
	}
	if spec.Manager != "" && p.Manager != spec.Manager {
		return false
	}
	if spec.Sponsor != "" && p.Sponsor != spec.Sponsor {
		return false
	}

	// The ceiling compares against the derived utilization, never against a
	// caller-supplied percentage field.
	if spec.MaxUtilization != nil && p.CostUtilizationPercent > *spec.MaxUtilization {
		return false
	}

	switch spec.Performance {
	case PerformanceBehind:
		if p.Deviation >= 0 {
			return false
		}
	case PerformanceOnTime:
		if p.Deviation < 0 {
			return false
		}
	}

	if spec.IssuesOnly && len(p.Issues) == 0 {
		return false
	}

	switch spec.BudgetSize {
	case BudgetSizeSmall:
		if p.TotalBudget >= e.bands.SmallMax {
			return false
		}
	case BudgetSizeMedium:
		if p.TotalBudget < e.bands.SmallMax || p.TotalBudget > e.bands.LargeMin {
			return false
		}
	case BudgetSizeLarge:
		if p.TotalBudget <= e.bands.LargeMin {
			return false
		}
	}

	return true
}

// Apply selects the matching subset of a collection, preserving input order.
// At portfolio scale a linear scan is enough; the contract does not preclude
// an indexed implementation behind the same signature.
func (e *Engine) Apply(collection []metrics.Enriched, spec Spec) []metrics.Enriched {
	out := make([]metrics.Enriched, 0, len(collection))
	for _, p := range collection {
		if e.Matches(p, spec) {
			out = append(out, p)
		}
	}
	return out
}

func matchesSearch(p metrics.Enriched, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.ID), needle) ||
		strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Manager), needle)
}

func containsCategory(set []models.Category, c models.Category) bool {
	for _, member := range set {
		if member == c {
			return true
		}
	}
	return false
}
