package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/snigate/snigate/internal/domain"
	"github.com/snigate/snigate/internal/metrics"
	"github.com/snigate/snigate/pkg/logging"
)

const defaultRequestTimeout = 10 * time.Second

// Client issues authenticated requests against the routing engine's
// management API. Every call is an independent request; the client holds
// no route state and no locks, so callers may issue operations
// concurrently. Ordering of concurrent writes to the same route is
// whatever order they arrive at the engine.
type Client struct {
	apiURL     string
	authToken  string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewClient creates a route client for the engine API at apiURL.
// collector may be nil.
func NewClient(apiURL, authToken string, timeout time.Duration, logger *logging.Logger, collector *metrics.Collector) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		apiURL:     apiURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "routes"),
		metrics:    collector,
	}
}

// routeTarget is the wire body for route upserts.
type routeTarget struct {
	Target string `json:"target"`
}

// AddRoute upserts route -> target in the engine's route table.
// Repeated calls with the same arguments converge to the same state.
func (c *Client) AddRoute(ctx context.Context, route, target string) error {
	c.logger.Debug("adding route", "route", route, "target", target)

	body, err := json.Marshal(routeTarget{Target: target})
	if err != nil {
		return fmt.Errorf("failed to marshal route target: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPut, c.routeURL(route), bytes.NewReader(body))
	if err != nil {
		c.observe("add", start, err)
		return fmt.Errorf("failed to add route %q: %w", route, err)
	}
	defer resp.Body.Close()

	err = c.checkResponse(resp)
	c.observe("add", start, err)
	if err != nil {
		return fmt.Errorf("failed to add route %q: %w", route, err)
	}
	return nil
}

// DeleteRoute removes route from the engine's route table. Deleting a
// route that does not exist is not an error.
func (c *Client) DeleteRoute(ctx context.Context, route string) error {
	c.logger.Debug("removing route", "route", route)

	start := time.Now()
	resp, err := c.do(ctx, http.MethodDelete, c.routeURL(route), nil)
	if err != nil {
		c.observe("delete", start, err)
		return fmt.Errorf("failed to delete route %q: %w", route, err)
	}
	defer resp.Body.Close()

	// Absent routes may surface as 404; deletion is idempotent.
	if resp.StatusCode == http.StatusNotFound {
		c.observe("delete", start, nil)
		return nil
	}

	err = c.checkResponse(resp)
	c.observe("delete", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete route %q: %w", route, err)
	}
	return nil
}

// GetAllRoutes returns the engine's entire route table as a map from
// route key to target address.
func (c *Client) GetAllRoutes(ctx context.Context) (map[string]string, error) {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, c.apiURL+"/api/routes/", nil)
	if err != nil {
		c.observe("list", start, err)
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		c.observe("list", start, err)
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	var routes map[string]string
	err = json.NewDecoder(resp.Body).Decode(&routes)
	c.observe("list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return routes, nil
}

// Health checks that the engine API answers an authenticated request.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.apiURL+"/api/routes/", nil)
	if err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}
	return nil
}

// routeURL percent-encodes the route key as a path segment; keys may
// contain characters unsafe for a URL path.
func (c *Client) routeURL(route string) string {
	return c.apiURL + "/api/routes/" + url.PathEscape(route)
}

// do sends one authenticated request. Network-level failures come back
// wrapped as domain.TransientError so callers can decide to retry.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransientError{Err: err}
	}
	return resp, nil
}

// checkResponse maps a non-2xx engine response onto the error taxonomy.
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.ErrEngineAuth
	}
	return &domain.EngineError{Status: resp.StatusCode, Body: string(data)}
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.metrics.RouteOpsTotal.WithLabelValues(op, result).Inc()
	c.metrics.RouteOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
