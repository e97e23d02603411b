package proxy

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/snigate/snigate/internal/domain"
	"github.com/snigate/snigate/internal/engine"
	"github.com/snigate/snigate/internal/token"
	"github.com/snigate/snigate/pkg/logging"
)

func writeStubEngine(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stub-engine")
	script := "#!/bin/sh\nexec sleep 60\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write stub engine: %v", err)
	}
	return path
}

func TestNew_EphemeralAPIURL(t *testing.T) {
	p, err := New(Config{
		EngineBinary: "configurable-tls-proxy",
		PublicURL:    "tls://0.0.0.0:8080",
		LogLevel:     "warn",
	}, token.Static("tok"), logging.Nop(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	u, err := url.Parse(p.APIURL())
	if err != nil {
		t.Fatalf("APIURL() = %q, not a URL: %v", p.APIURL(), err)
	}
	if u.Scheme != "http" || u.Hostname() != "127.0.0.1" {
		t.Errorf("APIURL() = %q, want loopback http URL", p.APIURL())
	}
	if port, err := strconv.Atoi(u.Port()); err != nil || port < 1 {
		t.Errorf("APIURL() port = %q, want positive port", u.Port())
	}
}

func TestNew_ExplicitAPIURLKept(t *testing.T) {
	p, err := New(Config{
		EngineBinary: "configurable-tls-proxy",
		PublicURL:    "tls://0.0.0.0:8080",
		APIURL:       "http://127.0.0.1:9999",
		LogLevel:     "warn",
	}, token.Static("tok"), logging.Nop(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.APIURL() != "http://127.0.0.1:9999" {
		t.Errorf("APIURL() = %q, want configured value", p.APIURL())
	}
	if p.engineCfg.PublicAddress != "0.0.0.0:8080" {
		t.Errorf("PublicAddress = %q, want netloc of public URL", p.engineCfg.PublicAddress)
	}
	if p.engineCfg.APIAddress != "127.0.0.1:9999" {
		t.Errorf("APIAddress = %q, want netloc of api URL", p.engineCfg.APIAddress)
	}
}

func TestNew_TokenSharedBetweenSupervisorAndClient(t *testing.T) {
	p, err := New(Config{
		EngineBinary: "configurable-tls-proxy",
		PublicURL:    "tls://0.0.0.0:8080",
		LogLevel:     "warn",
	}, token.Static("fixed-token"), logging.Nop(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.engineCfg.AuthToken != "fixed-token" {
		t.Errorf("supervisor token = %q, want provider value", p.engineCfg.AuthToken)
	}
	if p.client.authToken != "fixed-token" {
		t.Errorf("client token = %q, want provider value", p.client.authToken)
	}
}

func TestNew_InvalidPublicURL(t *testing.T) {
	_, err := New(Config{
		EngineBinary: "configurable-tls-proxy",
		PublicURL:    "not a url at all",
		LogLevel:     "warn",
	}, token.Static("tok"), logging.Nop(), nil)
	if err == nil {
		t.Fatal("New() with hostless public URL succeeded, want error")
	}
	if !strings.Contains(err.Error(), "public url") {
		t.Errorf("error = %v, want mention of public url", err)
	}
}

func TestProxy_StopBeforeStart(t *testing.T) {
	p, err := New(Config{
		EngineBinary: "configurable-tls-proxy",
		PublicURL:    "tls://0.0.0.0:8080",
		LogLevel:     "warn",
	}, token.Static("tok"), logging.Nop(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Stop(); !errors.Is(err, domain.ErrEngineNotRunning) {
		t.Errorf("Stop() before Start = %v, want ErrEngineNotRunning", err)
	}
}

// TestProxy_EndToEnd runs the full lifecycle against a stub engine
// process and a fake management API.
func TestProxy_EndToEnd(t *testing.T) {
	fake := newFakeEngine("fixed-token")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	p, err := New(Config{
		EngineBinary: writeStubEngine(t),
		PublicURL:    "tls://0.0.0.0:8080",
		APIURL:       srv.URL,
		LogLevel:     "warn",
	}, token.Static("fixed-token"), logging.Nop(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.State() != engine.StateRunning {
		t.Errorf("State() = %v, want running", p.State())
	}

	ctx := context.Background()

	if err := p.AddRoute(ctx, "scheduler-1", "10.1.2.3:8786"); err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}

	routes, err := p.GetAllRoutes(ctx)
	if err != nil {
		t.Fatalf("GetAllRoutes() error = %v", err)
	}
	if !reflect.DeepEqual(routes, map[string]string{"scheduler-1": "10.1.2.3:8786"}) {
		t.Errorf("GetAllRoutes() = %v, want single route", routes)
	}

	if err := p.DeleteRoute(ctx, "scheduler-1"); err != nil {
		t.Fatalf("DeleteRoute() error = %v", err)
	}
	routes, err = p.GetAllRoutes(ctx)
	if err != nil {
		t.Fatalf("GetAllRoutes() error = %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("GetAllRoutes() after delete = %v, want empty", routes)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.State() != engine.StateStopped {
		t.Errorf("State() after Stop = %v, want stopped", p.State())
	}

	// With the engine gone, route calls surface transient failures.
	srv.Close()
	if err := p.AddRoute(ctx, "scheduler-2", "10.1.2.4:8786"); !domain.IsTransient(err) {
		t.Errorf("AddRoute() after engine gone = %v, want transient", err)
	}
}
