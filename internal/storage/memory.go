package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// MemoryRepository implements Repository with an in-process arena keyed by
// project id. It is the default backend, standing in for the database the
// same way the SPA's mock layer did, and doubles as the test fixture.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]models.RawProject
	now      func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[string]models.RawProject),
		now:      time.Now,
	}
}

// ListProjects returns all records ordered by creation time, then id.
// The returned slice and its records are copies; mutating them does not
// touch the arena.
func (r *MemoryRepository) ListProjects(ctx context.Context) ([]models.RawProject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.RawProject, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, cloneRaw(p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// GetProject returns a copy of the record, or (nil, nil) when absent
func (r *MemoryRepository) GetProject(ctx context.Context, id string) (*models.RawProject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	c := cloneRaw(p)
	return &c, nil
}

// CreateProject stores a new record, stamping CreatedAt/UpdatedAt
func (r *MemoryRepository) CreateProject(ctx context.Context, p *models.RawProject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}
	if _, exists := r.projects[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}

	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.projects[p.ID] = cloneRaw(*p)
	return nil
}

// UpdateProject replaces the stored record. Last write wins.
func (r *MemoryRepository) UpdateProject(ctx context.Context, p *models.RawProject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.projects[p.ID]
	if !ok {
		return fmt.Errorf("project not found: %s", p.ID)
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now()
	r.projects[p.ID] = cloneRaw(*p)
	return nil
}

// DeleteProject removes a record by id
func (r *MemoryRepository) DeleteProject(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	delete(r.projects, id)
	return nil
}

// CountProjects returns the number of stored records
func (r *MemoryRepository) CountProjects(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects), nil
}

// Ping always succeeds for the in-memory arena
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// cloneRaw deep-copies the slice-valued fields so arena records are never
// aliased by callers
func cloneRaw(p models.RawProject) models.RawProject {
	c := p
	c.Issues = append([]models.RawIssue(nil), p.Issues...)
	c.TimelineEvents = append([]models.RawTimelineEvent(nil), p.TimelineEvents...)
	c.Team = append([]models.TeamMember(nil), p.Team...)
	c.Documents = append([]models.Document(nil), p.Documents...)
	c.Gallery = append([]models.GalleryItem(nil), p.Gallery...)
	return c
}
