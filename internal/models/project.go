package models

import (
	"time"
)

// Status represents the canonical schedule status of a project
type Status string

const (
	StatusOnTrack   Status = "ON_TRACK"
	StatusAtRisk    Status = "AT_RISK"
	StatusDelayed   Status = "DELAYED"
	StatusCompleted Status = "COMPLETED"
)

// CanonicalStatuses is the fixed label set used by chart aggregations.
// Records carrying any other status value are excluded from status charts.
var CanonicalStatuses = []Status{StatusOnTrack, StatusAtRisk, StatusDelayed, StatusCompleted}

// IsCanonical returns true if the status is a member of the canonical vocabulary
func (s Status) IsCanonical() bool {
	switch s {
	case StatusOnTrack, StatusAtRisk, StatusDelayed, StatusCompleted:
		return true
	}
	return false
}

// Priority represents the canonical priority of a project
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// CanonicalPriorities is the fixed label set used by chart aggregations
var CanonicalPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// IsCanonical returns true if the priority is a member of the canonical vocabulary
func (p Priority) IsCanonical() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Category represents the canonical portfolio category of a project
type Category string

const (
	CategoryExploration Category = "EXPLORATION"
	CategoryDrilling    Category = "DRILLING"
	CategoryFacility    Category = "FACILITY"
	CategoryOperation   Category = "OPERATION"
)

// Project is the canonical, normalized form of a portfolio project.
// Every record crosses the normalize boundary exactly once before it
// reaches the metrics, filter, or aggregation engines.
type Project struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Manager  string   `json:"manager"`
	Sponsor  string   `json:"sponsor"`
	Location string   `json:"location"`

	// Zero time means the date is unknown or failed to parse;
	// it sorts last and formats as "-".
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	TotalBudget float64 `json:"totalBudget"`
	// ActualCost is always an absolute currency amount. The cost-consumption
	// percentage is a derived view computed by the metrics engine, never stored.
	ActualCost float64 `json:"actualCost"`

	Progress float64 `json:"progress"` // earned value, percent of planned scope
	Target   float64 `json:"target"`   // planned value at the reporting date, percent

	Issues         []Issue         `json:"issues"`
	TimelineEvents []TimelineEvent `json:"timelineEvents"`
	Team           []TeamMember    `json:"team"`
	Documents      []Document      `json:"documents"`
	Gallery        []GalleryItem   `json:"gallery"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Issue is a reported problem on a project. Title is always present;
// the richer fields are optional and default to their zero values.
type Issue struct {
	Title       string `json:"title"`
	Severity    string `json:"severity,omitempty"`
	Status      string `json:"status,omitempty"`
	ImpactScore int    `json:"impactScore,omitempty"`
}

// TimelineEvent is a named phase of a project (e.g. Preparation, Execution)
type TimelineEvent struct {
	Name        string    `json:"name"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Description string    `json:"description,omitempty"`
}

// TeamMember is a person assigned to a project
type TeamMember struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Document is attachment metadata, display data only
type Document struct {
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Date     string `json:"date,omitempty"`
	Size     string `json:"size,omitempty"`
}

// GalleryItem is a photo reference, display data only
type GalleryItem struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Date    string `json:"date,omitempty"`
}
