// Package normalize is the mandatory boundary between raw portfolio records
// and the rest of the system. Every record, whatever its source (API payload,
// seed file, database row), passes through Normalize exactly once; downstream
// of this package only the canonical vocabulary exists.
package normalize

import (
	"fmt"

	"github.com/nusantara-energy/portfolio-engine/internal/dateutil"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// ValidationError reports a raw field that failed boundary validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// statusMap translates the localized status vocabulary. Unknown values pass
// through unchanged so that new upstream statuses degrade gracefully instead
// of being rejected.
var statusMap = map[string]models.Status{
	"Berjalan": models.StatusOnTrack,
	"Tertunda": models.StatusDelayed,
	"Kritis":   models.StatusAtRisk,
	"Beresiko": models.StatusAtRisk,
	"Selesai":  models.StatusCompleted,
}

var priorityMap = map[string]models.Priority{
	"Tinggi": models.PriorityHigh,
	"Sedang": models.PriorityMedium,
	"Rendah": models.PriorityLow,
}

var categoryMap = map[string]models.Category{
	"Exploration": models.CategoryExploration,
	"Drilling":    models.CategoryDrilling,
	"Facility":    models.CategoryFacility,
	"Operation":   models.CategoryOperation,
}

// Status maps a raw status string to its canonical token, passing unknown
// values through unchanged.
func Status(raw string) models.Status {
	if s, ok := statusMap[raw]; ok {
		return s
	}
	return models.Status(raw)
}

// Priority maps a raw priority string to its canonical token
func Priority(raw string) models.Priority {
	if p, ok := priorityMap[raw]; ok {
		return p
	}
	return models.Priority(raw)
}

// Category maps a raw category string to its canonical token
func Category(raw string) models.Category {
	if c, ok := categoryMap[raw]; ok {
		return c
	}
	return models.Category(raw)
}

// Normalize converts a raw record to its canonical form. It is total on
// string input: unknown enum values pass through, unparseable dates become
// the zero time, and missing collections become empty slices. The only
// rejection is a structured ValidationError when both dates parse and the
// end precedes the start.
func Normalize(raw models.RawProject) (models.Project, error) {
	start := dateutil.Parse(raw.StartDate)
	end := dateutil.Parse(raw.EndDate)

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return models.Project{}, &ValidationError{
			Field:  "endDate",
			Reason: fmt.Sprintf("ends %s before it starts %s", dateutil.FormatDisplay(end), dateutil.FormatDisplay(start)),
		}
	}

	p := models.Project{
		ID:          raw.ID,
		Name:        raw.Name,
		Category:    Category(raw.Category),
		Status:      Status(raw.Status),
		Priority:    Priority(raw.Priority),
		Manager:     raw.Manager,
		Sponsor:     raw.Sponsor,
		Location:    raw.Location,
		StartDate:   start,
		EndDate:     end,
		TotalBudget: raw.TotalBudget,
		// budgetUsed is always interpreted as an absolute amount; the
		// utilization percentage is derived by the metrics engine.
		ActualCost:     raw.BudgetUsed,
		Progress:       raw.Progress,
		Target:         raw.Target,
		Issues:         normalizeIssues(raw.Issues),
		TimelineEvents: normalizeTimeline(raw.TimelineEvents),
		Team:           raw.Team,
		Documents:      raw.Documents,
		Gallery:        raw.Gallery,
		CreatedAt:      raw.CreatedAt,
		UpdatedAt:      raw.UpdatedAt,
	}

	if p.Team == nil {
		p.Team = []models.TeamMember{}
	}
	if p.Documents == nil {
		p.Documents = []models.Document{}
	}
	if p.Gallery == nil {
		p.Gallery = []models.GalleryItem{}
	}

	return p, nil
}

// Collection normalizes a batch of raw records, dropping the ones that fail
// boundary validation and reporting them through the skipped callback.
func Collection(raws []models.RawProject, skipped func(id string, err error)) []models.Project {
	out := make([]models.Project, 0, len(raws))
	for _, raw := range raws {
		p, err := Normalize(raw)
		if err != nil {
			if skipped != nil {
				skipped(raw.ID, err)
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalizeIssues(raws []models.RawIssue) []models.Issue {
	issues := make([]models.Issue, 0, len(raws))
	for _, raw := range raws {
		if raw.Title == "" {
			continue
		}
		issues = append(issues, models.Issue{
			Title:       raw.Title,
			Severity:    raw.Severity,
			Status:      raw.Status,
			ImpactScore: raw.ImpactScore,
		})
	}
	return issues
}

func normalizeTimeline(raws []models.RawTimelineEvent) []models.TimelineEvent {
	events := make([]models.TimelineEvent, 0, len(raws))
	for _, raw := range raws {
		events = append(events, models.TimelineEvent{
			Name:        raw.Name,
			StartDate:   dateutil.Parse(raw.StartDate),
			EndDate:     dateutil.Parse(raw.EndDate),
			Description: raw.Description,
		})
	}
	return events
}

// Denormalize converts a canonical project back to the persisted raw shape.
// Dates are written in ISO form so round-trips stay lossless.
func Denormalize(p models.Project) models.RawProject {
	raw := models.RawProject{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Manager:     p.Manager,
		Sponsor:     p.Sponsor,
		Location:    p.Location,
		TotalBudget: p.TotalBudget,
		BudgetUsed:  p.ActualCost,
		Progress:    p.Progress,
		Target:      p.Target,
		Team:        p.Team,
		Documents:   p.Documents,
		Gallery:     p.Gallery,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if !p.StartDate.IsZero() {
		raw.StartDate = p.StartDate.Format("2006-01-02")
	}
	if !p.EndDate.IsZero() {
		raw.EndDate = p.EndDate.Format("2006-01-02")
	}

	raw.Issues = make([]models.RawIssue, 0, len(p.Issues))
	for _, issue := range p.Issues {
		raw.Issues = append(raw.Issues, models.RawIssue(issue))
	}

	raw.TimelineEvents = make([]models.RawTimelineEvent, 0, len(p.TimelineEvents))
	for _, ev := range p.TimelineEvents {
		rawEv := models.RawTimelineEvent{Name: ev.Name, Description: ev.Description}
		if !ev.StartDate.IsZero() {
			rawEv.StartDate = ev.StartDate.Format("2006-01-02")
		}
		if !ev.EndDate.IsZero() {
			rawEv.EndDate = ev.EndDate.Format("2006-01-02")
		}
		raw.TimelineEvents = append(raw.TimelineEvents, rawEv)
	}

	return raw
}
