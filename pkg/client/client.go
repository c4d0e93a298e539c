// Package client is a small Go SDK for the portfolio-engine HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a Go SDK for the portfolio-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new portfolio-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Project is the enriched project shape returned by the API
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Manager  string `json:"manager"`
	Sponsor  string `json:"sponsor"`
	Location string `json:"location"`

	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	TotalBudget float64 `json:"totalBudget"`
	ActualCost  float64 `json:"actualCost"`
	Progress    float64 `json:"progress"`
	Target      float64 `json:"target"`

	Issues []Issue `json:"issues"`

	Deviation              float64 `json:"deviation"`
	SPI                    float64 `json:"spi"`
	CPI                    float64 `json:"cpi"`
	CostUtilizationPercent float64 `json:"costUtilizationPercent"`
	RiskFlag               bool    `json:"riskFlag"`
	StartMonthIndex        int     `json:"startMonthIndex"`
	DurationMonths         int     `json:"durationMonths"`
}

// Issue is a project issue as returned by the API
type Issue struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	ImpactScore int    `json:"impactScore"`
}

// ListOptions narrows the project collection; zero values match everything
type ListOptions struct {
	Search         string
	Categories     []string
	Location       string
	Priority       string
	Status         string
	Manager        string
	Sponsor        string
	MaxUtilization *float64
	Performance    string
	IssuesOnly     bool
	BudgetSize     string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if len(o.Categories) > 0 {
		q.Set("category", strings.Join(o.Categories, ","))
	}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	if o.Priority != "" {
		q.Set("priority", o.Priority)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Manager != "" {
		q.Set("manager", o.Manager)
	}
	if o.Sponsor != "" {
		q.Set("sponsor", o.Sponsor)
	}
	if o.MaxUtilization != nil {
		q.Set("maxUtilization", strconv.FormatFloat(*o.MaxUtilization, 'f', -1, 64))
	}
	if o.Performance != "" {
		q.Set("performance", o.Performance)
	}
	if o.IssuesOnly {
		q.Set("issuesOnly", "true")
	}
	if o.BudgetSize != "" {
		q.Set("budgetSize", o.BudgetSize)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListProjects retrieves the enriched project collection
func (c *Client) ListProjects(ctx context.Context, opts ListOptions) ([]Project, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/projects"+opts.query(), nil)
	if err != nil {
		return nil, err
	}

	var projects []Project
	if err := json.Unmarshal(resp, &projects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a single project by id
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/projects/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := json.Unmarshal(resp, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &p, nil
}

// CreateProject creates a project from a raw record and returns its id.
// The payload may use the full legacy vocabulary; the server normalizes.
func (c *Client) CreateProject(ctx context.Context, project interface{}) (string, error) {
	body, err := json.Marshal(project)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/projects", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var result struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.ID, nil
}

// UpdateProject applies a partial update; only the fields present in the
// patch are touched
func (c *Client) UpdateProject(ctx context.Context, id string, patch interface{}) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = c.doRequest(ctx, "PUT", "/api/projects/"+url.PathEscape(id), bytes.NewReader(body))
	return err
}

// DeleteProject removes a project by id
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, "DELETE", "/api/projects/"+url.PathEscape(id), nil)
	return err
}

// Dashboard retrieves the aggregated dashboard summary for the filter
// options, decoded into the caller's structure
func (c *Client) Dashboard(ctx context.Context, opts ListOptions, out interface{}) error {
	resp, err := c.doRequest(ctx, "GET", "/api/dashboard"+opts.query(), nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/api/health", nil)
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}
