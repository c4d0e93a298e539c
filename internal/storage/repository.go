package storage

import (
	"context"
	"errors"

	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// ErrDuplicateID is returned by Create when the id is already taken
var ErrDuplicateID = errors.New("project id already exists")

// Repository defines the interface for project persistence. Records are
// stored in their raw shape; normalization and metric derivation happen
// above this layer on every read. Writes are last-write-wins with no
// optimistic-concurrency token.
//
// GetProject returns (nil, nil) when no record carries the id.
type Repository interface {
	ListProjects(ctx context.Context) ([]models.RawProject, error)
	GetProject(ctx context.Context, id string) (*models.RawProject, error)
	CreateProject(ctx context.Context, p *models.RawProject) error
	UpdateProject(ctx context.Context, p *models.RawProject) error
	DeleteProject(ctx context.Context, id string) error
	CountProjects(ctx context.Context) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
