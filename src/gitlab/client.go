// Package gitlab provides a client for the GitLab CI jobs API.
package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mfe-publish/src/provider"
)

const (
	// DefaultHost is used when Config.Host is empty.
	DefaultHost = "https://gitlab.com"

	apiPrefix      = "/api/v4"
	defaultPerPage = 100
	maxPages       = 20
)

// Config carries everything a Client needs. The token travels with the client value;
// there is no process-wide default header.
type Config struct {
	Host       string
	Token      string
	HTTPClient *http.Client
	PerPage    int
}

// Client is a GitLab API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	perPage    int
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is lets callers match API errors against the provider sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case provider.ErrAuthFailed:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case provider.ErrJobNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// apiJob is the job shape returned by the jobs endpoints.
type apiJob struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Stage      string     `json:"stage"`
	Ref        string     `json:"ref"`
	Status     string     `json:"status"`
	WebURL     string     `json:"web_url"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (j apiJob) toProvider() provider.Job {
	return provider.Job{
		ID:         j.ID,
		Name:       j.Name,
		Stage:      j.Stage,
		Ref:        j.Ref,
		Status:     provider.Status(j.Status),
		WebURL:     j.WebURL,
		CreatedAt:  j.CreatedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// NewClient creates a new GitLab API client.
func NewClient(cfg Config) *Client {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = DefaultHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &Client{
		baseURL:    host + apiPrefix,
		token:      cfg.Token,
		httpClient: httpClient,
		perPage:    perPage,
	}
}

// HasToken reports whether requests are authenticated.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// ListJobs fetches the jobs of a project, following pagination.
func (c *Client) ListJobs(ctx context.Context, projectID string) ([]provider.Job, error) {
	var all []provider.Job
	page := 1

	for page > 0 && page <= maxPages {
		endpoint := fmt.Sprintf("%s/projects/%s/jobs?per_page=%d&page=%d",
			c.baseURL, url.PathEscape(projectID), c.perPage, page)

		resp, err := c.do(ctx, http.MethodGet, endpoint, "application/json")
		if err != nil {
			return nil, err
		}

		var jobs []apiJob
		err = json.NewDecoder(resp.Body).Decode(&jobs)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		for _, j := range jobs {
			all = append(all, j.toProvider())
		}

		page = nextPage(resp.Header.Get("X-Next-Page"))
	}

	return all, nil
}

// GetJob fetches a single job.
func (c *Client) GetJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/jobs/%d", c.baseURL, url.PathEscape(projectID), jobID)
	return c.jobRequest(ctx, http.MethodGet, endpoint)
}

// PlayJob triggers a manual job. GitLab answers with the job that was started,
// which may carry a new id.
func (c *Client) PlayJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/jobs/%d/play", c.baseURL, url.PathEscape(projectID), jobID)
	return c.jobRequest(ctx, http.MethodPost, endpoint)
}

// GetTrace fetches the full log of a job as plain text.
func (c *Client) GetTrace(ctx context.Context, projectID string, jobID int64) (string, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/jobs/%d/trace", c.baseURL, url.PathEscape(projectID), jobID)

	resp, err := c.do(ctx, http.MethodGet, endpoint, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	logBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read trace content: %w", err)
	}

	return string(logBytes), nil
}

func (c *Client) jobRequest(ctx context.Context, method, endpoint string) (*provider.Job, error) {
	resp, err := c.do(ctx, method, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var job apiJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := job.toProvider()
	return &out, nil
}

// do executes a request and returns the response when the status is 2xx.
// The caller owns the response body.
func (c *Client) do(ctx context.Context, method, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", provider.ErrNetworkTimeout, err)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}

func nextPage(header string) int {
	if header == "" {
		return 0
	}
	n, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return n
}
