package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nusantara-energy/portfolio-engine/internal/models"
	"github.com/nusantara-energy/portfolio-engine/internal/normalize"
	"github.com/nusantara-energy/portfolio-engine/internal/storage"
)

// Loader reads project seed files into a repository on startup. Seed files
// are YAML, either a single project document or a `projects:` list, and may
// use the full legacy vocabulary (localized enums, mixed date formats,
// string issues).
type Loader struct {
	repo storage.Repository
}

// NewLoader creates a seed loader backed by the given repository
func NewLoader(repo storage.Repository) *Loader {
	return &Loader{repo: repo}
}

// seedFile accepts both document shapes
type seedFile struct {
	Projects []models.RawProject `yaml:"projects"`
}

// LoadFromDir loads all YAML seed files from a directory. Individual file
// failures are logged and skipped; already-present ids are left untouched.
func (l *Loader) LoadFromDir(ctx context.Context, dir string) error {
	slog.Info("loading seed projects from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		n, err := l.LoadFromFile(ctx, file)
		if err != nil {
			slog.Warn("failed to load seed file", "file", file, "error", err)
			continue
		}
		loaded += n
	}

	slog.Info("seed projects loaded", "count", loaded, "files", len(files))
	return nil
}

// LoadFromFile loads projects from a single YAML file and returns how many
// were inserted
func (l *Loader) LoadFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	projects, err := parseSeed(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse YAML: %w", err)
	}

	inserted := 0
	for i := range projects {
		p := projects[i]
		if p.ID == "" {
			slog.Warn("skipping seed project without id", "file", path, "name", p.Name)
			continue
		}

		// Reject records the API would reject
		if _, err := normalize.Normalize(p); err != nil {
			slog.Warn("skipping invalid seed project", "file", path, "id", p.ID, "error", err)
			continue
		}

		if err := l.repo.CreateProject(ctx, &p); err != nil {
			if errors.Is(err, storage.ErrDuplicateID) {
				slog.Debug("seed project already present", "id", p.ID)
				continue
			}
			return inserted, fmt.Errorf("failed to store project %s: %w", p.ID, err)
		}
		inserted++
	}

	return inserted, nil
}

func parseSeed(data []byte) ([]models.RawProject, error) {
	var wrapped seedFile
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Projects) > 0 {
		return wrapped.Projects, nil
	}

	var single models.RawProject
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	if single.ID == "" && single.Name == "" {
		return nil, fmt.Errorf("document has neither a projects list nor a project")
	}
	return []models.RawProject{single}, nil
}
