package models

import (
	"encoding/json"
	"testing"
)

func TestRawIssueUnmarshalJSON(t *testing.T) {
	var p RawProject
	payload := `{
		"id": "PRJ-001",
		"name": "Mixed issue shapes",
		"issues": [
			"Budget overrun",
			{"title": "Kendala perizinan", "severity": "HIGH", "impactScore": 8}
		]
	}`

	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(p.Issues) != 2 {
		t.Fatalf("issues = %+v", p.Issues)
	}
	if p.Issues[0].Title != "Budget overrun" || p.Issues[0].Severity != "" {
		t.Errorf("bare string issue = %+v", p.Issues[0])
	}
	if p.Issues[1].Title != "Kendala perizinan" || p.Issues[1].Severity != "HIGH" || p.Issues[1].ImpactScore != 8 {
		t.Errorf("object issue = %+v", p.Issues[1])
	}
}

func TestRawIssueUnmarshalRejectsOtherShapes(t *testing.T) {
	var issue RawIssue
	if err := json.Unmarshal([]byte(`42`), &issue); err == nil {
		t.Error("numeric issue must be rejected")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &issue); err == nil {
		t.Error("array issue must be rejected")
	}
}

func TestProjectPatchApply(t *testing.T) {
	base := RawProject{
		ID:          "PRJ-001",
		Name:        "Original",
		Status:      "Berjalan",
		Priority:    "Sedang",
		TotalBudget: 1_000_000_000,
		Progress:    40,
		Issues:      []RawIssue{{Title: "existing"}},
	}

	name := "Renamed"
	progress := 55.0
	patch := ProjectPatch{
		Name:     &name,
		Progress: &progress,
	}

	merged := patch.Apply(base)
	if merged.Name != "Renamed" || merged.Progress != 55 {
		t.Errorf("patched fields not applied: %+v", merged)
	}
	if merged.Status != "Berjalan" || merged.Priority != "Sedang" || merged.TotalBudget != 1_000_000_000 {
		t.Errorf("untouched fields changed: %+v", merged)
	}
	if len(merged.Issues) != 1 || merged.Issues[0].Title != "existing" {
		t.Errorf("issues changed without a patch: %+v", merged.Issues)
	}
	if base.Name != "Original" {
		t.Error("Apply mutated the base record")
	}
}

func TestProjectPatchZeroValues(t *testing.T) {
	base := RawProject{ID: "PRJ-001", Name: "Keep", Progress: 40}

	// An explicit zero is a real update, distinct from an absent field
	zero := 0.0
	empty := ""
	patch := ProjectPatch{Progress: &zero, Manager: &empty}

	merged := patch.Apply(base)
	if merged.Progress != 0 {
		t.Errorf("progress = %v, want explicit zero applied", merged.Progress)
	}
	if merged.Name != "Keep" {
		t.Errorf("name = %q, absent field must stay", merged.Name)
	}
}

func TestProjectPatchJSONRoundTrip(t *testing.T) {
	var patch ProjectPatch
	if err := json.Unmarshal([]byte(`{"progress": 0, "status": "Selesai"}`), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if patch.Progress == nil || *patch.Progress != 0 {
		t.Error("explicit zero progress must be present in the patch")
	}
	if patch.Status == nil || *patch.Status != "Selesai" {
		t.Error("status missing from the patch")
	}
	if patch.Name != nil {
		t.Error("absent fields must stay nil")
	}
}
