package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/nusantara-energy/portfolio-engine/internal/filter"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
	"github.com/nusantara-energy/portfolio-engine/internal/normalize"
	"github.com/nusantara-energy/portfolio-engine/internal/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemoryRepository(), nil, filter.NewEngine(filter.DefaultBands()))
}

func TestCreateAssignsID(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	created, err := m.Create(ctx, models.RawProject{Name: "Tanpa ID"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("server must assign an id when the payload has none")
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Tanpa ID" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	var vErr *normalize.ValidationError

	_, err := m.Create(ctx, models.RawProject{Name: "   "})
	if !errors.As(err, &vErr) {
		t.Errorf("blank name: err = %v, want ValidationError", err)
	}

	_, err = m.Create(ctx, models.RawProject{
		Name:      "Inverted",
		StartDate: "2026-09-01",
		EndDate:   "2026-01-01",
	})
	if !errors.As(err, &vErr) {
		t.Errorf("inverted dates: err = %v, want ValidationError", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if _, err := m.Create(ctx, models.RawProject{ID: "dup", Name: "First"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := m.Create(ctx, models.RawProject{ID: "dup", Name: "Second"})
	if !errors.Is(err, storage.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func TestGetReturnsEnrichedProject(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	created, err := m.Create(ctx, models.RawProject{
		Name:        "Enriched",
		Status:      "Berjalan",
		TotalBudget: 1_500_000_000,
		BudgetUsed:  1_050_000_000,
		Progress:    45,
		Target:      40,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Status != models.StatusOnTrack {
		t.Errorf("status = %q, want normalized ON_TRACK", got.Status)
	}
	if got.Deviation != 5 {
		t.Errorf("deviation = %v", got.Deviation)
	}
	if got.CostUtilizationPercent != 70 {
		t.Errorf("costUtilizationPercent = %v", got.CostUtilizationPercent)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	created, err := m.Create(ctx, models.RawProject{
		Name:     "Merge target",
		Status:   "Berjalan",
		Priority: "Sedang",
		Progress: 40,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	status := "Selesai"
	progress := 100.0
	updated, err := m.Update(ctx, created.ID, models.ProjectPatch{
		Status:   &status,
		Progress: &progress,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Status != models.StatusCompleted || updated.Progress != 100 {
		t.Errorf("patched fields = %q / %v", updated.Status, updated.Progress)
	}
	if updated.Priority != models.PriorityMedium || updated.Name != "Merge target" {
		t.Errorf("untouched fields changed: %q / %q", updated.Priority, updated.Name)
	}
}

func TestUpdateRevalidatesMergedRecord(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	created, err := m.Create(ctx, models.RawProject{
		Name:      "Dated",
		StartDate: "2026-03-01",
		EndDate:   "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Moving the end before the stored start must be rejected and the
	// stored record left untouched
	end := "2026-01-01"
	_, err = m.Update(ctx, created.ID, models.ProjectPatch{EndDate: &end})
	var vErr *normalize.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.EndDate.Month() != 9 {
		t.Errorf("stored endDate changed to %v after rejected update", got.EndDate)
	}
}

func TestUpdateMissing(t *testing.T) {
	m := newTestManager()
	name := "x"
	_, err := m.Update(context.Background(), "missing", models.ProjectPatch{Name: &name})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	created, err := m.Create(ctx, models.RawProject{Name: "Doomed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(ctx, created.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get after delete = %v, want ErrProjectNotFound", err)
	}
	if err := m.Delete(ctx, created.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("second Delete = %v, want ErrProjectNotFound", err)
	}
}

func TestListAppliesFilter(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	seedRaws := []models.RawProject{
		{ID: "a", Name: "At Risk", Status: "Kritis", Issues: []models.RawIssue{{Title: "Budget overrun"}}},
		{ID: "b", Name: "At Risk quiet", Status: "Kritis"},
		{ID: "c", Name: "Healthy", Status: "Berjalan", Progress: 50, Target: 50, TotalBudget: 100, BudgetUsed: 10},
	}
	for _, raw := range seedRaws {
		if _, err := m.Create(ctx, raw); err != nil {
			t.Fatalf("Create(%s) failed: %v", raw.ID, err)
		}
	}

	all, err := m.List(ctx, filter.Spec{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered list = %d", len(all))
	}

	got, err := m.List(ctx, filter.Spec{Status: "AT_RISK", IssuesOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("filtered list = %v", got)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	for _, raw := range []models.RawProject{
		{ID: "a", Name: "A", Status: "Kritis", TotalBudget: 2_000_000_000, Progress: 40, Target: 40},
		{ID: "b", Name: "B", Status: "Berjalan", TotalBudget: 1_000_000_000, Progress: 60, Target: 50, BudgetUsed: 100_000_000},
	} {
		if _, err := m.Create(ctx, raw); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	s, err := m.Summary(ctx, filter.Spec{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.TotalProjects != 2 || s.TotalBudget != 3_000_000_000 {
		t.Errorf("summary = %+v", s)
	}
	if s.AtRisk != 1 {
		t.Errorf("atRisk = %d", s.AtRisk)
	}

	filtered, err := m.Summary(ctx, filter.Spec{Status: "AT_RISK"})
	if err != nil {
		t.Fatalf("filtered Summary failed: %v", err)
	}
	if filtered.TotalProjects != 1 {
		t.Errorf("filtered summary counts %d projects", filtered.TotalProjects)
	}
}

func TestChangeListenerFiresOnMutations(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	fired := 0
	m.SetChangeListener(func() { fired++ })

	created, err := m.Create(ctx, models.RawProject{Name: "Watched"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	name := "Renamed"
	if _, err := m.Update(ctx, created.ID, models.ProjectPatch{Name: &name}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if fired != 3 {
		t.Errorf("listener fired %d times, want 3", fired)
	}

	// Reads never notify
	if _, err := m.List(ctx, filter.Spec{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if fired != 3 {
		t.Error("read path fired the change listener")
	}
}
