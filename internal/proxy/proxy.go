// Package proxy is the control plane for the TLS-SNI routing engine: it
// supervises the engine process and maintains its route table through
// the engine's management API.
package proxy

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/snigate/snigate/internal/engine"
	"github.com/snigate/snigate/internal/metrics"
	"github.com/snigate/snigate/internal/netutil"
	"github.com/snigate/snigate/internal/token"
	"github.com/snigate/snigate/pkg/logging"
)

// Config describes one Proxy instance. All fields are resolved eagerly
// by New; the resulting Proxy holds no lazily computed state.
type Config struct {
	// EngineBinary is the routing engine executable.
	EngineBinary string
	// PublicURL is the data-plane address, e.g. "tls://0.0.0.0:8080".
	PublicURL string
	// APIURL is the engine's private management API address. Empty means
	// an ephemeral loopback port is chosen at construction time.
	APIURL string
	// LogLevel is forwarded to the engine: error, warn, info or debug.
	LogLevel string
	// RequestTimeout bounds each management API call.
	RequestTimeout time.Duration
}

// Proxy composes token resolution, process supervision and the route
// client into one object. The token and both addresses are fixed at
// construction and shared by the supervisor and the client for the
// lifetime of one engine instance.
type Proxy struct {
	engineCfg engine.Config
	apiURL    string

	supervisor *engine.Supervisor
	client     *Client
	logger     *logging.Logger
}

// New builds a Proxy from cfg. The token provider is injected so tests
// can pin a fixed token; production callers use token.FromConfig.
// collector may be nil.
func New(cfg Config, provider token.Provider, logger *logging.Logger, collector *metrics.Collector) (*Proxy, error) {
	authToken := provider.Resolve()

	apiURL := cfg.APIURL
	if apiURL == "" {
		port, err := netutil.RandomPort()
		if err != nil {
			return nil, fmt.Errorf("failed to pick engine api port: %w", err)
		}
		apiURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	}

	publicAddr, err := netloc(cfg.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public url %q: %w", cfg.PublicURL, err)
	}
	apiAddr, err := netloc(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", apiURL, err)
	}

	return &Proxy{
		engineCfg: engine.Config{
			BinaryPath:    cfg.EngineBinary,
			PublicAddress: publicAddr,
			APIAddress:    apiAddr,
			LogLevel:      cfg.LogLevel,
			AuthToken:     authToken,
		},
		apiURL:     apiURL,
		supervisor: engine.NewSupervisor(logger, collector),
		client:     NewClient(apiURL, authToken, cfg.RequestTimeout, logger, collector),
		logger:     logger.With("component", "proxy"),
	}, nil
}

// Start launches the routing engine. It does not wait for the engine's
// API to come up; route operations fail transiently until it does.
func (p *Proxy) Start() error {
	return p.supervisor.Start(p.engineCfg)
}

// Stop requests termination of the routing engine without waiting for
// it to exit. Route operations issued after Stop fail transiently.
func (p *Proxy) Stop() error {
	return p.supervisor.Stop()
}

// State returns the engine process lifecycle state.
func (p *Proxy) State() engine.State {
	return p.supervisor.State()
}

// APIURL returns the resolved management API address.
func (p *Proxy) APIURL() string {
	return p.apiURL
}

// AddRoute upserts an SNI route to a backend target address.
func (p *Proxy) AddRoute(ctx context.Context, route, target string) error {
	return p.client.AddRoute(ctx, route, target)
}

// DeleteRoute removes an SNI route. Removing an absent route succeeds.
func (p *Proxy) DeleteRoute(ctx context.Context, route string) error {
	return p.client.DeleteRoute(ctx, route)
}

// GetAllRoutes returns the engine's full route table.
func (p *Proxy) GetAllRoutes(ctx context.Context) (map[string]string, error) {
	return p.client.GetAllRoutes(ctx)
}

// Health probes the engine's management API.
func (p *Proxy) Health(ctx context.Context) error {
	return p.client.Health(ctx)
}

// netloc extracts the host:port from a URL, the part the engine binds.
func netloc(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}
	return u.Host, nil
}
