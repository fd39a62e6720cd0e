package mcp

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

	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/summary"
)

// HTTPClient implements DataSource by calling the liftcalc REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// scopes every call to the caller, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) QuerySessions(ctx context.Context, _, limit int) ([]models.Session, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var sessions []models.Session
	if err := c.getJSON(ctx, "/api/v1/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) SessionSummary(ctx context.Context, _ int, sessionID uuid.UUID) (*summary.Session, error) {
	var sum summary.Session
	if err := c.getJSON(ctx, "/api/v1/sessions/"+sessionID.String()+"/summary", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *HTTPClient) SessionRecords(ctx context.Context, _ int, sessionID uuid.UUID) ([]models.PersonalRecord, error) {
	var prs []models.PersonalRecord
	if err := c.getJSON(ctx, "/api/v1/sessions/"+sessionID.String()+"/records", nil, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

func (c *HTTPClient) LatestCheckIn(ctx context.Context, _ int) (*models.ReadinessCheckIn, error) {
	var checkIn models.ReadinessCheckIn
	if err := c.getJSON(ctx, "/api/v1/readiness/latest", nil, &checkIn); err != nil {
		return nil, err
	}
	return &checkIn, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.getJSON(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) GetTrainingVolume(ctx context.Context, _ int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error) {
	params := url.Values{
		"start":  {start.Format(time.RFC3339)},
		"end":    {end.Format(time.RFC3339)},
		"bucket": {bucket},
	}
	var periods []storage.VolumePeriod
	if err := c.getJSON(ctx, "/api/v1/volume", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// isNotFound reports whether a data source error means the row does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
