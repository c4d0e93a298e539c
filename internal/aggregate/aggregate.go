// Package aggregate folds an enriched project collection into chart-ready
// summaries. All functions are pure and idempotent; counts are independent
// of input order, though TopIssues breaks ties by first encounter and so
// keeps the caller's iteration order for equal counts.
package aggregate

import (
	"math"
	"sort"

	"github.com/nusantara-energy/portfolio-engine/internal/metrics"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// DefaultTopIssues is the ranking depth used when the caller passes n <= 0
const DefaultTopIssues = 5

// monthLabels are the Jan-Dec chart bucket labels
var monthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// Distribution is one labeled slice of a donut chart
type Distribution struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryStack is one row of a stacked bar chart: counts per dimension
// value within a category
type CategoryStack struct {
	Category models.Category `json:"category"`
	Counts   map[string]int  `json:"counts"`
	Total    int             `json:"total"`
}

// MonthBudget is one month of the planned-vs-actual budget series,
// denominated in billions
type MonthBudget struct {
	Month   string  `json:"month"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
}

// ProjectRef is a lightweight backreference for drill-down
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueRank is one row of the issue frequency ranking
type IssueRank struct {
	Title      string       `json:"title"`
	Count      int          `json:"count"`
	Categories []string     `json:"categories"`
	Projects   []ProjectRef `json:"projects"`
}

// Summary is the full dashboard payload computed over a (filtered) collection
type Summary struct {
	TotalProjects   int     `json:"totalProjects"`
	TotalBudget     float64 `json:"totalBudget"`
	TotalActualCost float64 `json:"totalActualCost"`
	AverageProgress float64 `json:"averageProgress"`
	AtRisk          int     `json:"atRisk"`

	StatusDistribution   []Distribution  `json:"statusDistribution"`
	PriorityDistribution []Distribution  `json:"priorityDistribution"`
	CategoryByStatus     []CategoryStack `json:"categoryByStatus"`
	MonthlyBudget        []MonthBudget   `json:"monthlyBudget"`
	TopIssues            []IssueRank     `json:"topIssues"`
}

// BuildSummary computes every dashboard block over the collection
func BuildSummary(collection []metrics.Enriched) *Summary {
	s := &Summary{
		TotalProjects:        len(collection),
		StatusDistribution:   CountByStatus(collection),
		PriorityDistribution: CountByPriority(collection),
		CategoryByStatus:     StackedByCategory(collection, DimensionStatus),
		MonthlyBudget:        MonthlyBudgetSeries(collection),
		TopIssues:            TopIssues(collection, DefaultTopIssues),
	}

	for _, p := range collection {
		s.TotalBudget += p.TotalBudget
		s.TotalActualCost += p.ActualCost
		s.AverageProgress += p.Progress
		if p.RiskFlag {
			s.AtRisk++
		}
	}
	if len(collection) > 0 {
		s.AverageProgress = roundTo2(s.AverageProgress / float64(len(collection)))
	}

	return s
}

// CountByStatus counts projects per canonical status. Records carrying a
// non-canonical status are excluded from the chart, matching the fixed
// label set the donut renders.
func CountByStatus(collection []metrics.Enriched) []Distribution {
	out := make([]Distribution, 0, len(models.CanonicalStatuses))
	for _, status := range models.CanonicalStatuses {
		d := Distribution{Label: string(status)}
		for _, p := range collection {
			if p.Status == status {
				d.Count++
			}
		}
		out = append(out, d)
	}
	return out
}

// CountByPriority counts projects per canonical priority
func CountByPriority(collection []metrics.Enriched) []Distribution {
	out := make([]Distribution, 0, len(models.CanonicalPriorities))
	for _, priority := range models.CanonicalPriorities {
		d := Distribution{Label: string(priority)}
		for _, p := range collection {
			if p.Priority == priority {
				d.Count++
			}
		}
		out = append(out, d)
	}
	return out
}

// Dimension selects the stacking dimension of the category chart
type Dimension string

const (
	DimensionStatus   Dimension = "status"
	DimensionPriority Dimension = "priority"
)

var canonicalCategories = []models.Category{
	models.CategoryExploration,
	models.CategoryDrilling,
	models.CategoryFacility,
	models.CategoryOperation,
}

// StackedByCategory breaks the collection down per category, stacked by the
// given dimension, sorted descending by row total. Only canonical dimension
// values are counted.
func StackedByCategory(collection []metrics.Enriched, dim Dimension) []CategoryStack {
	rows := make([]CategoryStack, 0, len(canonicalCategories))

	for _, cat := range canonicalCategories {
		row := CategoryStack{Category: cat, Counts: make(map[string]int)}

		for _, p := range collection {
			if p.Category != cat {
				continue
			}
			label, ok := dimensionLabel(p, dim)
			if !ok {
				continue
			}
			row.Counts[label]++
			row.Total++
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})

	return rows
}

func dimensionLabel(p metrics.Enriched, dim Dimension) (string, bool) {
	switch dim {
	case DimensionPriority:
		if !p.Priority.IsCanonical() {
			return "", false
		}
		return string(p.Priority), true
	default:
		if !p.Status.IsCanonical() {
			return "", false
		}
		return string(p.Status), true
	}
}

// billion converts IDR amounts to the display unit of the budget chart
const billion = 1_000_000_000

// MonthlyBudgetSeries sums each project's monthly budget distribution into a
// fixed Jan-Dec series denominated in billions. Summation happens in raw
// currency; conversion and rounding happen once at the edge.
func MonthlyBudgetSeries(collection []metrics.Enriched) []MonthBudget {
	var planned, actual [12]float64

	for _, p := range collection {
		buckets := metrics.MonthlyDistribution(
			p.TotalBudget,
			p.CostUtilizationPercent,
			p.StartMonthIndex,
			p.DurationMonths,
		)
		for m := 0; m < 12; m++ {
			planned[m] += buckets[m].Planned
			actual[m] += buckets[m].Actual
		}
	}

	out := make([]MonthBudget, 12)
	for m := 0; m < 12; m++ {
		out[m] = MonthBudget{
			Month:   monthLabels[m],
			Planned: roundTo2(planned[m] / billion),
			Actual:  roundTo2(actual[m] / billion),
		}
	}
	return out
}

// TopIssues ranks issue titles by frequency across the collection. Grouping
// is by exact title string; ties keep first-encountered order; the result is
// truncated to n entries (DefaultTopIssues when n <= 0).
func TopIssues(collection []metrics.Enriched, n int) []IssueRank {
	if n <= 0 {
		n = DefaultTopIssues
	}

	index := make(map[string]int)
	ranks := make([]IssueRank, 0)

	for _, p := range collection {
		for _, issue := range p.Issues {
			idx, ok := index[issue.Title]
			if !ok {
				idx = len(ranks)
				index[issue.Title] = idx
				ranks = append(ranks, IssueRank{Title: issue.Title})
			}

			ranks[idx].Count++
			if !containsString(ranks[idx].Categories, string(p.Category)) {
				ranks[idx].Categories = append(ranks[idx].Categories, string(p.Category))
			}
			if !containsRef(ranks[idx].Projects, p.ID) {
				ranks[idx].Projects = append(ranks[idx].Projects, ProjectRef{ID: p.ID, Name: p.Name})
			}
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Count > ranks[j].Count
	})

	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

func containsString(set []string, s string) bool {
	for _, member := range set {
		if member == s {
			return true
		}
	}
	return false
}

func containsRef(refs []ProjectRef, id string) bool {
	for _, ref := range refs {
		if ref.ID == id {
			return true
		}
	}
	return false
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
