// Package supabase reads and updates the report tables through a Supabase
// project's PostgREST endpoint.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"civicadmin/internal/domain"
	"civicadmin/internal/models"
)

// DefaultPageSize matches the max-rows limit Supabase applies by default.
const DefaultPageSize = 1000

// APIError is a non-2xx PostgREST response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.StatusCode)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		pageSize: DefaultPageSize,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithPageSize overrides the page size used when reading whole tables.
func (c *Client) WithPageSize(n int) *Client {
	if n > 0 {
		c.pageSize = n
	}
	return c
}

func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	out := []models.Report{}
	q := url.Values{"select": {"*"}, "order": {"created_at.desc,id.desc"}}
	if err := listAll(ctx, c, "reports", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListInteractions(ctx context.Context) ([]models.Interaction, error) {
	out := []models.Interaction{}
	q := url.Values{"select": {"*"}, "order": {"id.asc"}}
	if err := listAll(ctx, c, "interactions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	out := []models.Profile{}
	q := url.Values{"select": {"id,full_name,email"}, "order": {"id.asc"}}
	if err := listAll(ctx, c, "profiles", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type statusPatch struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateReportStatus patches a single report row and returns it as stored.
func (c *Client) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) (*models.Report, error) {
	body, err := json.Marshal(statusPatch{Status: status, UpdatedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	q := url.Values{"id": {"eq." + id}}
	req, err := c.newRequest(ctx, http.MethodPatch, "reports", q, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var rows []models.Report
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrReportNotFound
	}
	return &rows[0], nil
}

// listAll pages through a table with Range headers until a short page.
func listAll[T any](ctx context.Context, c *Client, table string, q url.Values, out *[]T) error {
	for from := 0; ; from += c.pageSize {
		req, err := c.newRequest(ctx, http.MethodGet, table, q, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", from, from+c.pageSize-1))

		var page []T
		if err := c.do(req, &page); err != nil {
			// Older PostgREST versions answer 416 once the offset passes the last row.
			var apiErr *APIError
			if from > 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusRequestedRangeNotSatisfiable {
				return nil
			}
			return err
		}
		*out = append(*out, page...)
		if len(page) < c.pageSize {
			return nil
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, table string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", req.URL.Path, err)
		}
	}
	return nil
}
