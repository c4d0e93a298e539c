package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// RawProject is the wire and persisted shape of a project record, as produced
// by the SPA, seed files, and older generators. Enum fields may carry the
// localized vocabulary (Berjalan, Tinggi, ...), dates are strings in mixed
// formats, and issues may be bare strings. The normalize package is the only
// consumer; nothing downstream of it ever sees this shape.
type RawProject struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Status   string `json:"status" yaml:"status"`
	Priority string `json:"priority" yaml:"priority"`
	Manager  string `json:"manager" yaml:"manager"`
	Sponsor  string `json:"sponsor" yaml:"sponsor"`
	Location string `json:"location" yaml:"location"`

	StartDate string `json:"startDate" yaml:"startDate"`
	EndDate   string `json:"endDate" yaml:"endDate"`

	// Accepted for backward compatibility with older payloads but never
	// trusted: the metrics engine re-derives both from the dates.
	StartMonthIndex int `json:"startMonthIndex,omitempty" yaml:"startMonthIndex,omitempty"`
	DurationMonths  int `json:"durationMonths,omitempty" yaml:"durationMonths,omitempty"`

	TotalBudget float64 `json:"totalBudget" yaml:"totalBudget"`
	BudgetUsed  float64 `json:"budgetUsed" yaml:"budgetUsed"`

	Progress float64 `json:"progress" yaml:"progress"`
	Target   float64 `json:"target" yaml:"target"`

	Issues         []RawIssue         `json:"issues,omitempty" yaml:"issues,omitempty"`
	TimelineEvents []RawTimelineEvent `json:"timelineEvents,omitempty" yaml:"timelineEvents,omitempty"`
	Team           []TeamMember       `json:"team,omitempty" yaml:"team,omitempty"`
	Documents      []Document         `json:"documents,omitempty" yaml:"documents,omitempty"`
	Gallery        []GalleryItem      `json:"gallery,omitempty" yaml:"gallery,omitempty"`

	// Set by the repository, never by callers
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// RawIssue accepts both historical issue shapes: a bare title string, or an
// object with title and optional severity/status/impactScore. This is the
// single coercion point; downstream code never branches on shape.
type RawIssue struct {
	Title       string `json:"title" yaml:"title"`
	Severity    string `json:"severity" yaml:"severity"`
	Status      string `json:"status" yaml:"status"`
	ImpactScore int    `json:"impactScore" yaml:"impactScore"`
}

// UnmarshalJSON decodes either a JSON string or an issue object
func (i *RawIssue) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*i = RawIssue{Title: title}
		return nil
	}

	type rawIssueObject RawIssue
	var obj rawIssueObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("issue must be a string or an object: %w", err)
	}
	*i = RawIssue(obj)
	return nil
}

// UnmarshalYAML decodes either a YAML scalar or an issue mapping
func (i *RawIssue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*i = RawIssue{Title: value.Value}
		return nil
	}

	type rawIssueObject RawIssue
	var obj rawIssueObject
	if err := value.Decode(&obj); err != nil {
		return fmt.Errorf("issue must be a scalar or a mapping: %w", err)
	}
	*i = RawIssue(obj)
	return nil
}

// RawTimelineEvent carries phase dates as strings in mixed formats
type RawTimelineEvent struct {
	Name        string `json:"name" yaml:"name"`
	StartDate   string `json:"startDate" yaml:"startDate"`
	EndDate     string `json:"endDate" yaml:"endDate"`
	Description string `json:"description" yaml:"description"`
}

// ProjectPatch is a partial update. Nil fields are left untouched;
// non-nil fields overwrite the stored value (shallow merge, last write wins).
type ProjectPatch struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Status   *string `json:"status,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Manager  *string `json:"manager,omitempty"`
	Sponsor  *string `json:"sponsor,omitempty"`
	Location *string `json:"location,omitempty"`

	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`

	TotalBudget *float64 `json:"totalBudget,omitempty"`
	BudgetUsed  *float64 `json:"budgetUsed,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Target      *float64 `json:"target,omitempty"`

	Issues         []RawIssue         `json:"issues,omitempty"`
	TimelineEvents []RawTimelineEvent `json:"timelineEvents,omitempty"`
	Team           []TeamMember       `json:"team,omitempty"`
	Documents      []Document         `json:"documents,omitempty"`
	Gallery        []GalleryItem      `json:"gallery,omitempty"`
}

// Apply merges the patch onto a raw record and returns the merged copy
func (p ProjectPatch) Apply(base RawProject) RawProject {
	merged := base

	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Category != nil {
		merged.Category = *p.Category
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.Priority != nil {
		merged.Priority = *p.Priority
	}
	if p.Manager != nil {
		merged.Manager = *p.Manager
	}
	if p.Sponsor != nil {
		merged.Sponsor = *p.Sponsor
	}
	if p.Location != nil {
		merged.Location = *p.Location
	}
	if p.StartDate != nil {
		merged.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		merged.EndDate = *p.EndDate
	}
	if p.TotalBudget != nil {
		merged.TotalBudget = *p.TotalBudget
	}
	if p.BudgetUsed != nil {
		merged.BudgetUsed = *p.BudgetUsed
	}
	if p.Progress != nil {
		merged.Progress = *p.Progress
	}
	if p.Target != nil {
		merged.Target = *p.Target
	}
	if p.Issues != nil {
		merged.Issues = p.Issues
	}
	if p.TimelineEvents != nil {
		merged.TimelineEvents = p.TimelineEvents
	}
	if p.Team != nil {
		merged.Team = p.Team
	}
	if p.Documents != nil {
		merged.Documents = p.Documents
	}
	if p.Gallery != nil {
		merged.Gallery = p.Gallery
	}

	return merged
}
