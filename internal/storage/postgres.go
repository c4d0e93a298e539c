package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nusantara-energy/portfolio-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

const projectColumns = `id, name, category, status, priority, manager, sponsor, location,
	start_date, end_date, total_budget, budget_used, progress, target,
	issues, timeline_events, team, documents, gallery, created_at, updated_at`

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateProject inserts a new project record
func (r *PostgresRepository) CreateProject(ctx context.Context, p *models.RawProject) error {
	issuesJSON, timelineJSON, teamJSON, documentsJSON, galleryJSON, err := marshalCollections(p)
	if err != nil {
		return err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Status,
		p.Priority,
		p.Manager,
		p.Sponsor,
		p.Location,
		p.StartDate,
		p.EndDate,
		p.TotalBudget,
		p.BudgetUsed,
		p.Progress,
		p.Target,
		issuesJSON,
		timelineJSON,
		teamJSON,
		documentsJSON,
		galleryJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProject retrieves a project by ID
func (r *PostgresRepository) GetProject(ctx context.Context, id string) (*models.RawProject, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// UpdateProject replaces an existing project record
func (r *PostgresRepository) UpdateProject(ctx context.Context, p *models.RawProject) error {
	issuesJSON, timelineJSON, teamJSON, documentsJSON, galleryJSON, err := marshalCollections(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now()

	query := `
		UPDATE projects
		SET name = $2, category = $3, status = $4, priority = $5, manager = $6, sponsor = $7,
		    location = $8, start_date = $9, end_date = $10, total_budget = $11, budget_used = $12,
		    progress = $13, target = $14, issues = $15, timeline_events = $16, team = $17,
		    documents = $18, gallery = $19, updated_at = $20
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Status,
		p.Priority,
		p.Manager,
		p.Sponsor,
		p.Location,
		p.StartDate,
		p.EndDate,
		p.TotalBudget,
		p.BudgetUsed,
		p.Progress,
		p.Target,
		issuesJSON,
		timelineJSON,
		teamJSON,
		documentsJSON,
		galleryJSON,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", p.ID)
	}

	return nil
}

// DeleteProject deletes a project by ID
func (r *PostgresRepository) DeleteProject(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", id)
	}

	return nil
}

// ListProjects returns all projects ordered by creation time
func (r *PostgresRepository) ListProjects(ctx context.Context) ([]models.RawProject, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.RawProject

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// CountProjects returns the number of stored projects
func (r *PostgresRepository) CountProjects(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func marshalCollections(p *models.RawProject) (issues, timeline, team, documents, gallery []byte, err error) {
	if issues, err = json.Marshal(p.Issues); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal issues: %w", err)
	}
	if timeline, err = json.Marshal(p.TimelineEvents); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal timeline events: %w", err)
	}
	if team, err = json.Marshal(p.Team); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal team: %w", err)
	}
	if documents, err = json.Marshal(p.Documents); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal documents: %w", err)
	}
	if gallery, err = json.Marshal(p.Gallery); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal gallery: %w", err)
	}
	return issues, timeline, team, documents, gallery, nil
}

func scanProject(row pgx.Row) (*models.RawProject, error) {
	var p models.RawProject
	var issuesJSON, timelineJSON, teamJSON, documentsJSON, galleryJSON []byte

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Status,
		&p.Priority,
		&p.Manager,
		&p.Sponsor,
		&p.Location,
		&p.StartDate,
		&p.EndDate,
		&p.TotalBudget,
		&p.BudgetUsed,
		&p.Progress,
		&p.Target,
		&issuesJSON,
		&timelineJSON,
		&teamJSON,
		&documentsJSON,
		&galleryJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if issuesJSON != nil {
		if err := json.Unmarshal(issuesJSON, &p.Issues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
		}
	}
	if timelineJSON != nil {
		if err := json.Unmarshal(timelineJSON, &p.TimelineEvents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline events: %w", err)
		}
	}
	if teamJSON != nil {
		if err := json.Unmarshal(teamJSON, &p.Team); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team: %w", err)
		}
	}
	if documentsJSON != nil {
		if err := json.Unmarshal(documentsJSON, &p.Documents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
	}
	if galleryJSON != nil {
		if err := json.Unmarshal(galleryJSON, &p.Gallery); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gallery: %w", err)
		}
	}

	return &p, nil
}
