package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nusantara-energy/portfolio-engine/internal/aggregate"
	"github.com/nusantara-energy/portfolio-engine/internal/cache"
	"github.com/nusantara-energy/portfolio-engine/internal/filter"
	"github.com/nusantara-energy/portfolio-engine/internal/metrics"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
	"github.com/nusantara-energy/portfolio-engine/internal/normalize"
	"github.com/nusantara-energy/portfolio-engine/internal/storage"
)

// Common errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrDuplicateID     = storage.ErrDuplicateID
)

// Manager owns the read-and-enrich pipeline over the repository: every
// record read passes through normalization and the metrics engine before
// anything downstream sees it, and every mutation invalidates the summary
// cache. Records that fail normalization are logged and dropped from reads
// rather than failing the whole collection.
type Manager struct {
	repo     storage.Repository
	cache    *cache.SummaryCache
	filters  *filter.Engine
	onChange func()
}

// NewManager creates a portfolio manager
func NewManager(repo storage.Repository, summaryCache *cache.SummaryCache, filters *filter.Engine) *Manager {
	return &Manager{
		repo:    repo,
		cache:   summaryCache,
		filters: filters,
	}
}

// SetChangeListener registers a callback invoked after every successful
// mutation. Used by the API layer to push change notifications to
// websocket subscribers.
func (m *Manager) SetChangeListener(fn func()) {
	m.onChange = fn
}

// List returns the enriched collection matching the filter spec, in
// repository order
func (m *Manager) List(ctx context.Context, spec filter.Spec) ([]metrics.Enriched, error) {
	collection, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return m.filters.Apply(collection, spec), nil
}

// Get returns one enriched project, or ErrProjectNotFound
func (m *Manager) Get(ctx context.Context, id string) (*metrics.Enriched, error) {
	raw, err := m.repo.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if raw == nil {
		return nil, ErrProjectNotFound
	}

	p, err := normalize.Normalize(*raw)
	if err != nil {
		return nil, fmt.Errorf("stored project %s is invalid: %w", id, err)
	}

	enriched := metrics.Enrich(p)
	return &enriched, nil
}

// Create validates and stores a new project. When the payload carries no
// id, one is assigned.
func (m *Manager) Create(ctx context.Context, raw models.RawProject) (*metrics.Enriched, error) {
	if raw.ID == "" {
		raw.ID = uuid.New().String()
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, &normalize.ValidationError{Field: "name", Reason: "name is required"}
	}

	p, err := normalize.Normalize(raw)
	if err != nil {
		return nil, err
	}

	if err := m.repo.CreateProject(ctx, &raw); err != nil {
		return nil, err
	}
	m.afterMutation(ctx, "created", raw.ID)

	p.CreatedAt = raw.CreatedAt
	p.UpdatedAt = raw.UpdatedAt
	enriched := metrics.Enrich(p)
	return &enriched, nil
}

// Update applies a partial update to an existing project. The merge is
// shallow and last write wins; the merged record is re-validated before
// it is stored.
func (m *Manager) Update(ctx context.Context, id string, patch models.ProjectPatch) (*metrics.Enriched, error) {
	existing, err := m.repo.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if existing == nil {
		return nil, ErrProjectNotFound
	}

	merged := patch.Apply(*existing)
	merged.ID = id

	p, err := normalize.Normalize(merged)
	if err != nil {
		return nil, err
	}

	if err := m.repo.UpdateProject(ctx, &merged); err != nil {
		return nil, err
	}
	m.afterMutation(ctx, "updated", id)

	p.CreatedAt = merged.CreatedAt
	p.UpdatedAt = merged.UpdatedAt
	enriched := metrics.Enrich(p)
	return &enriched, nil
}

// Delete removes a project by id
func (m *Manager) Delete(ctx context.Context, id string) error {
	existing, err := m.repo.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if existing == nil {
		return ErrProjectNotFound
	}

	if err := m.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	m.afterMutation(ctx, "deleted", id)
	return nil
}

// Summary returns the aggregated dashboard view for the filter spec,
// served from cache when possible
func (m *Manager) Summary(ctx context.Context, spec filter.Spec) (*aggregate.Summary, error) {
	key := spec.Key()

	if cached, err := m.cache.Get(ctx, key); err != nil {
		slog.Warn("summary cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	collection, err := m.List(ctx, spec)
	if err != nil {
		return nil, err
	}

	summary := aggregate.BuildSummary(collection)
	if err := m.cache.Set(ctx, key, summary); err != nil {
		slog.Warn("summary cache write failed", "error", err)
	}

	return summary, nil
}

// Count returns the number of stored projects
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.repo.CountProjects(ctx)
}

// Ping checks the repository and cache backends
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := m.cache.Ping(ctx); err != nil {
		return fmt.Errorf("cache ping failed: %w", err)
	}
	return nil
}

// Close releases the repository and cache connections
func (m *Manager) Close() error {
	if err := m.cache.Close(); err != nil {
		slog.Warn("failed to close cache", "error", err)
	}
	return m.repo.Close()
}

func (m *Manager) load(ctx context.Context) ([]metrics.Enriched, error) {
	raws, err := m.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := normalize.Collection(raws, func(id string, err error) {
		slog.Warn("skipping invalid stored project", "id", id, "error", err)
	})

	return metrics.EnrichAll(projects), nil
}

func (m *Manager) afterMutation(ctx context.Context, action, id string) {
	slog.Info("project "+action, "id", id)

	if err := m.cache.Invalidate(ctx); err != nil {
		slog.Warn("summary cache invalidation failed", "error", err)
	}

	if m.onChange != nil {
		m.onChange()
	}
}
