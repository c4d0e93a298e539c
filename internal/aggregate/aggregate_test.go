package aggregate

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/nusantara-energy/portfolio-engine/internal/metrics"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

func project(id string, opts func(*models.Project)) metrics.Enriched {
	p := models.Project{
		ID:       id,
		Name:     "Project " + id,
		Category: models.CategoryDrilling,
		Status:   models.StatusOnTrack,
		Priority: models.PriorityMedium,
	}
	if opts != nil {
		opts(&p)
	}
	return metrics.Enrich(p)
}

func TestCountByStatusIncludesEmptyLabels(t *testing.T) {
	collection := []metrics.Enriched{
		project("a", func(p *models.Project) { p.Status = models.StatusOnTrack }),
		project("b", func(p *models.Project) { p.Status = models.StatusOnTrack }),
		project("c", func(p *models.Project) { p.Status = models.StatusDelayed }),
		// Non-canonical statuses are excluded from the chart
		project("d", func(p *models.Project) { p.Status = "Ditunda Sementara" }),
	}

	got := CountByStatus(collection)
	if len(got) != len(models.CanonicalStatuses) {
		t.Fatalf("got %d labels, want the full canonical set", len(got))
	}

	counts := map[string]int{}
	for _, d := range got {
		counts[d.Label] = d.Count
	}

	if counts["ON_TRACK"] != 2 || counts["DELAYED"] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if counts["AT_RISK"] != 0 || counts["COMPLETED"] != 0 {
		t.Errorf("empty labels must still be present with zero counts: %v", counts)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != 3 {
		t.Errorf("non-canonical status leaked into the chart: total=%d", total)
	}
}

func TestCountByPriority(t *testing.T) {
	collection := []metrics.Enriched{
		project("a", func(p *models.Project) { p.Priority = models.PriorityHigh }),
		project("b", func(p *models.Project) { p.Priority = models.PriorityHigh }),
		project("c", func(p *models.Project) { p.Priority = models.PriorityLow }),
	}

	counts := map[string]int{}
	for _, d := range CountByPriority(collection) {
		counts[d.Label] = d.Count
	}

	if counts["HIGH"] != 2 || counts["LOW"] != 1 || counts["MEDIUM"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStackedByCategorySortedByTotal(t *testing.T) {
	collection := []metrics.Enriched{
		project("a", func(p *models.Project) { p.Category = models.CategoryExploration }),
		project("b", func(p *models.Project) { p.Category = models.CategoryFacility }),
		project("c", func(p *models.Project) { p.Category = models.CategoryFacility }),
		project("d", func(p *models.Project) {
			p.Category = models.CategoryFacility
			p.Status = models.StatusDelayed
		}),
	}

	rows := StackedByCategory(collection, DimensionStatus)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want all canonical categories", len(rows))
	}

	if rows[0].Category != models.CategoryFacility || rows[0].Total != 3 {
		t.Errorf("top row = %s (%d), want FACILITY (3)", rows[0].Category, rows[0].Total)
	}
	if rows[0].Counts["ON_TRACK"] != 2 || rows[0].Counts["DELAYED"] != 1 {
		t.Errorf("facility counts = %v", rows[0].Counts)
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].Total > rows[i-1].Total {
			t.Error("rows not sorted descending by total")
		}
	}
}

// Counts must be identical under any permutation of the input.
func TestAggregationOrderIndependence(t *testing.T) {
	base := []metrics.Enriched{
		project("a", func(p *models.Project) { p.Status = models.StatusAtRisk }),
		project("b", func(p *models.Project) { p.Priority = models.PriorityHigh }),
		project("c", func(p *models.Project) { p.Category = models.CategoryOperation }),
		project("d", nil),
		project("e", func(p *models.Project) { p.Status = models.StatusCompleted }),
	}

	wantStatus := CountByStatus(base)
	wantPriority := CountByPriority(base)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]metrics.Enriched, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if got := CountByStatus(shuffled); !reflect.DeepEqual(got, wantStatus) {
			t.Fatalf("status counts changed under permutation: %v vs %v", got, wantStatus)
		}
		if got := CountByPriority(shuffled); !reflect.DeepEqual(got, wantPriority) {
			t.Fatalf("priority counts changed under permutation: %v vs %v", got, wantPriority)
		}
	}
}

func TestMonthlyBudgetSeries(t *testing.T) {
	// One project: Jan-Jun, 6 billion planned, 50% spent
	collection := []metrics.Enriched{
		project("a", func(p *models.Project) {
			p.TotalBudget = 6_000_000_000
			p.ActualCost = 3_000_000_000
			p.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			p.EndDate = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
		}),
	}

	series := MonthlyBudgetSeries(collection)
	if len(series) != 12 {
		t.Fatalf("series length = %d", len(series))
	}
	if series[0].Month != "Jan" || series[4].Month != "Mei" || series[11].Month != "Des" {
		t.Errorf("month labels wrong: %s %s %s", series[0].Month, series[4].Month, series[11].Month)
	}

	for m := 0; m < 6; m++ {
		if series[m].Planned != 1 || series[m].Actual != 0.5 {
			t.Errorf("month %d = %+v, want 1 planned / 0.5 actual (billions)", m, series[m])
		}
	}
	for m := 6; m < 12; m++ {
		if series[m].Planned != 0 || series[m].Actual != 0 {
			t.Errorf("month %d = %+v, want empty", m, series[m])
		}
	}
}

func TestMonthlyBudgetSeriesClipsYearOverflow(t *testing.T) {
	// Two projects both spanning Nov through next April: only Nov and Dec
	// land in the chart, so the distributed total is less than the
	// combined budgets.
	mk := func(id string) metrics.Enriched {
		return project(id, func(p *models.Project) {
			p.TotalBudget = 6_000_000_000
			p.ActualCost = 6_000_000_000
			p.StartDate = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
			p.EndDate = time.Date(2027, 4, 30, 0, 0, 0, 0, time.UTC)
		})
	}
	series := MonthlyBudgetSeries([]metrics.Enriched{mk("a"), mk("b")})

	var total float64
	for m, mb := range series {
		if m < 10 && mb.Planned != 0 {
			t.Errorf("month %d = %+v, want empty", m, mb)
		}
		total += mb.Planned
	}

	// Each project contributes 1 billion to Nov and Dec
	if math.Abs(total-4) > 1e-9 {
		t.Errorf("distributed total = %v billions, want 4", total)
	}
	if total >= 12 {
		t.Error("overflow months must be dropped, not wrapped")
	}
}

func TestTopIssues(t *testing.T) {
	withIssue := func(id, title string, category models.Category) metrics.Enriched {
		return project(id, func(p *models.Project) {
			p.Category = category
			p.Issues = []models.Issue{{Title: title}}
		})
	}

	collection := []metrics.Enriched{
		withIssue("p1", "Budget overrun", models.CategoryDrilling),
		withIssue("p2", "Budget overrun", models.CategoryFacility),
		withIssue("p3", "Kendala perizinan", models.CategoryExploration),
		withIssue("p4", "Budget overrun", models.CategoryDrilling),
		withIssue("p5", "Kendala perizinan", models.CategoryExploration),
		withIssue("p6", "Budget overrun", models.CategoryOperation),
	}

	ranks := TopIssues(collection, 5)
	if len(ranks) != 2 {
		t.Fatalf("got %d ranks, want 2", len(ranks))
	}

	if ranks[0].Title != "Budget overrun" || ranks[0].Count != 4 {
		t.Errorf("top = %s (%d), want Budget overrun (4)", ranks[0].Title, ranks[0].Count)
	}
	if ranks[1].Title != "Kendala perizinan" || ranks[1].Count != 2 {
		t.Errorf("second = %s (%d)", ranks[1].Title, ranks[1].Count)
	}

	if len(ranks[0].Categories) != 3 {
		t.Errorf("categories = %v, want deduped set of 3", ranks[0].Categories)
	}
	if len(ranks[0].Projects) != 4 {
		t.Errorf("projects = %v, want 4 refs", ranks[0].Projects)
	}
}

func TestTopIssuesTieBreakAndTruncation(t *testing.T) {
	withIssue := func(id, title string) metrics.Enriched {
		return project(id, func(p *models.Project) {
			p.Issues = []models.Issue{{Title: title}}
		})
	}

	collection := []metrics.Enriched{
		withIssue("p1", "Alpha"),
		withIssue("p2", "Beta"),
		withIssue("p3", "Gamma"),
	}

	ranks := TopIssues(collection, 2)
	if len(ranks) != 2 {
		t.Fatalf("got %d ranks, want truncation to 2", len(ranks))
	}
	// Equal counts keep first-encountered order
	if ranks[0].Title != "Alpha" || ranks[1].Title != "Beta" {
		t.Errorf("tie order = %s, %s", ranks[0].Title, ranks[1].Title)
	}

	// n <= 0 falls back to the default depth
	if got := TopIssues(collection, 0); len(got) != 3 {
		t.Errorf("default depth returned %d", len(got))
	}
}

func TestBuildSummary(t *testing.T) {
	collection := []metrics.Enriched{
		project("a", func(p *models.Project) {
			p.Status = models.StatusAtRisk
			p.TotalBudget = 2_000_000_000
			p.ActualCost = 500_000_000
			p.Progress = 40
			p.Target = 40
		}),
		project("b", func(p *models.Project) {
			p.TotalBudget = 1_000_000_000
			p.ActualCost = 250_000_000
			p.Progress = 61
			p.Target = 60
		}),
	}

	s := BuildSummary(collection)
	if s.TotalProjects != 2 {
		t.Errorf("totalProjects = %d", s.TotalProjects)
	}
	if s.TotalBudget != 3_000_000_000 || s.TotalActualCost != 750_000_000 {
		t.Errorf("budget totals = %v / %v", s.TotalBudget, s.TotalActualCost)
	}
	if s.AverageProgress != 50.5 {
		t.Errorf("averageProgress = %v, want 50.5", s.AverageProgress)
	}
	if s.AtRisk != 1 {
		t.Errorf("atRisk = %d, want 1", s.AtRisk)
	}
	if len(s.MonthlyBudget) != 12 || len(s.StatusDistribution) == 0 {
		t.Error("summary chart blocks missing")
	}
}

func TestBuildSummaryEmptyCollection(t *testing.T) {
	s := BuildSummary(nil)
	if s.TotalProjects != 0 || s.AverageProgress != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if len(s.MonthlyBudget) != 12 {
		t.Error("monthly series must always carry 12 buckets")
	}
	if s.TopIssues == nil {
		t.Error("topIssues must be an empty slice, not nil")
	}
}
