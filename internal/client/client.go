package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
)

// Client is an HTTP client for the backup tracker read API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListJobsParams narrows the job listing. Zero values are omitted from the query.
type ListJobsParams struct {
	Status    string
	Type      string
	RelatedVm string
	Limit     int
	Offset    int
}

func (p *ListJobsParams) query() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.RelatedVm != "" {
		q.Set("relatedVm", p.RelatedVm)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

func (c *Client) ListJobs(ctx context.Context, params *ListJobsParams) (api.JobList, error) {
	var jobs api.JobList
	if err := c.get(ctx, "/api/v1alpha1/jobs", params.query(), &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id uuid.UUID) (*api.JobDetail, error) {
	var detail api.JobDetail
	if err := c.get(ctx, fmt.Sprintf("/api/v1alpha1/jobs/%s", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) ListJobResults(ctx context.Context, jobID uuid.UUID) (api.VmResultList, error) {
	var results api.VmResultList
	if err := c.get(ctx, fmt.Sprintf("/api/v1alpha1/jobs/%s/results", jobID), nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) GetVmResult(ctx context.Context, id uuid.UUID) (*api.VmResult, error) {
	var result api.VmResult
	if err := c.get(ctx, fmt.Sprintf("/api/v1alpha1/results/%s", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListVmResultLogs(ctx context.Context, id uuid.UUID) (api.VmLogList, error) {
	var logs api.VmLogList
	if err := c.get(ctx, fmt.Sprintf("/api/v1alpha1/results/%s/logs", id), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) Stats(ctx context.Context) (*api.Stats, error) {
	var stats api.Stats
	if err := c.get(ctx, "/api/v1alpha1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Health(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tracker service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker service returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tracker service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.Error
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("tracker service returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("tracker service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
