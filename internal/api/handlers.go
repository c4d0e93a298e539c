package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nusantara-energy/portfolio-engine/internal/filter"
	"github.com/nusantara-energy/portfolio-engine/internal/models"
	"github.com/nusantara-energy/portfolio-engine/internal/normalize"
	"github.com/nusantara-energy/portfolio-engine/internal/portfolio"
	"github.com/nusantara-energy/portfolio-engine/internal/storage"
)

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "portfolio engine is running",
	})
}

func (s *Server) handleTestDB(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Ping(r.Context()); err != nil {
		slog.Error("backend ping failed", "error", err)
		respondError(w, http.StatusInternalServerError, "database connection failed")
		return
	}

	count, err := s.manager.Count(r.Context())
	if err != nil {
		slog.Error("failed to count projects", "error", err)
		respondError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "OK",
		"message": "database connection is healthy",
		"result":  count,
	})
}

// Project handlers

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	spec, err := filterSpecFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	projects, err := s.manager.List(r.Context(), spec)
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	project, err := s.manager.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, portfolio.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		slog.Error("failed to get project", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to get project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var raw models.RawProject
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	project, err := s.manager.Create(r.Context(), raw)
	if err != nil {
		var vErr *normalize.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		if errors.Is(err, storage.ErrDuplicateID) {
			respondError(w, http.StatusConflict, "project id already exists")
			return
		}
		slog.Error("failed to create project", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "project created",
		"id":      project.ID,
	})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := s.manager.Update(r.Context(), id, patch); err != nil {
		if errors.Is(err, portfolio.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		var vErr *normalize.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		slog.Error("failed to update project", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "project updated",
		"id":      id,
	})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Delete(r.Context(), id); err != nil {
		if errors.Is(err, portfolio.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		slog.Error("failed to delete project", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "project deleted",
		"id":      id,
	})
}

// Dashboard handler

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := filterSpecFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.manager.Summary(r.Context(), spec)
	if err != nil {
		slog.Error("failed to build dashboard summary", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build dashboard summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// filterSpecFromQuery parses the filter vocabulary from query parameters.
// Unknown parameters are ignored; malformed values for typed parameters
// are rejected.
func filterSpecFromQuery(q url.Values) (filter.Spec, error) {
	spec := filter.Spec{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		Priority: q.Get("priority"),
		Status:   q.Get("status"),
		Manager:  q.Get("manager"),
		Sponsor:  q.Get("sponsor"),
	}

	for _, v := range q["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				spec.Categories = append(spec.Categories, models.Category(c))
			}
		}
	}

	if v := q.Get("maxUtilization"); v != "" {
		ceiling, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return spec, fmt.Errorf("maxUtilization must be a number")
		}
		spec.MaxUtilization = &ceiling
	}

	if v := q.Get("issuesOnly"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			return spec, fmt.Errorf("issuesOnly must be a boolean")
		}
		spec.IssuesOnly = only
	}

	switch v := q.Get("performance"); v {
	case "", string(filter.PerformanceBehind), string(filter.PerformanceOnTime):
		spec.Performance = filter.PerformanceBucket(v)
	default:
		return spec, fmt.Errorf("unknown performance bucket: %s", v)
	}

	switch v := q.Get("budgetSize"); v {
	case "", string(filter.BudgetSizeSmall), string(filter.BudgetSizeMedium), string(filter.BudgetSizeLarge):
		spec.BudgetSize = filter.BudgetSizeBucket(v)
	default:
		return spec, fmt.Errorf("unknown budget size bucket: %s", v)
	}

	return spec, nil
}
