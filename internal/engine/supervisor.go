// Package engine owns the lifecycle of the external TLS-SNI routing
// engine process.
package engine

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/snigate/snigate/internal/domain"
	"github.com/snigate/snigate/internal/metrics"
	"github.com/snigate/snigate/pkg/logging"
)

// TokenEnv is the environment variable carrying the auth token into the
// engine process. The engine reads it on startup; the route client sends
// the same value on every request.
const TokenEnv = "CONFIG_TLS_PROXY_TOKEN"

// State is the supervisor's view of the engine process lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Config describes one engine launch.
type Config struct {
	// BinaryPath is the engine executable, resolved via PATH when bare.
	BinaryPath string
	// PublicAddress is the host:port the engine binds for data-plane traffic.
	PublicAddress string
	// APIAddress is the host:port the engine binds its management API on.
	APIAddress string
	// LogLevel is one of error, warn, info, debug.
	LogLevel string
	// AuthToken is injected into the child environment under TokenEnv.
	AuthToken string
}

// Supervisor launches and terminates the routing engine as a child
// process. The child runs in its own process group so signals aimed at
// the supervisor's group don't reach it, and it holds a stdin pipe: the
// engine runs with -is-child-process and exits on stdin EOF, so it
// cannot outlive a dead supervisor.
//
// Start and Stop are not meant to be called concurrently with each
// other; the mutex only keeps the reaper goroutine honest.
type Supervisor struct {
	logger  *logging.Logger
	metrics *metrics.Collector

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewSupervisor creates a Supervisor. collector may be nil.
func NewSupervisor(logger *logging.Logger, collector *metrics.Collector) *Supervisor {
	return &Supervisor{
		logger:  logger.With("component", "engine"),
		metrics: collector,
	}
}

// buildArgs assembles the engine's fixed flag set.
func buildArgs(cfg Config) []string {
	return []string{
		"-address", cfg.PublicAddress,
		"-api-address", cfg.APIAddress,
		"-log-level", cfg.LogLevel,
		"-is-child-process",
	}
}

// Start launches the engine. It returns as soon as the process is
// exec'd; it does not wait for the management API to become reachable,
// so callers must retry route operations until the engine responds.
// A missing or non-executable binary is fatal and not retried.
func (s *Supervisor) Start(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return domain.ErrEngineAlreadyRunning
	}
	s.state = StateStarting

	cmd := exec.Command(cfg.BinaryPath, buildArgs(cfg)...)
	cmd.Env = append(os.Environ(), TokenEnv+"="+cfg.AuthToken)
	// Engine output passes through to our own streams.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.state = StateStopped
		return fmt.Errorf("failed to open engine stdin: %w", err)
	}

	s.logger.Info("starting routing engine",
		"binary", cfg.BinaryPath,
		"address", cfg.PublicAddress,
		"api_address", cfg.APIAddress,
		"log_level", cfg.LogLevel)

	if err := cmd.Start(); err != nil {
		stdin.Close()
		s.state = StateStopped
		return fmt.Errorf("failed to start engine: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.state = StateRunning

	if s.metrics != nil {
		s.metrics.EngineStartsTotal.Inc()
		s.metrics.EngineUp.Set(1)
	}
	s.logger.Info("routing engine started", "pid", cmd.Process.Pid)

	go s.reap(cmd)
	return nil
}

// Stop requests graceful termination of the owned engine (SIGTERM, then
// stdin close) and returns without waiting for it to exit. Stopping an
// engine that was never started, or stopping twice, returns
// domain.ErrEngineNotRunning.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || s.cmd == nil {
		return domain.ErrEngineNotRunning
	}

	s.logger.Info("stopping routing engine", "pid", s.cmd.Process.Pid)

	err := s.cmd.Process.Signal(syscall.SIGTERM)
	s.stdin.Close()

	s.cmd = nil
	s.stdin = nil
	s.state = StateStopped

	if s.metrics != nil {
		s.metrics.EngineStopsTotal.Inc()
		s.metrics.EngineUp.Set(0)
	}

	if err != nil {
		return fmt.Errorf("failed to signal engine: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// reap waits for the child so it never lingers as a zombie. An exit we
// didn't ask for just returns the supervisor to Stopped; distinguishing
// crashes is left to external process monitoring.
func (s *Supervisor) reap(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	owned := s.cmd == cmd
	if owned {
		s.cmd = nil
		s.stdin = nil
		s.state = StateStopped
		if s.metrics != nil {
			s.metrics.EngineUp.Set(0)
		}
	}
	s.mu.Unlock()

	if owned {
		s.logger.Warn("routing engine exited", "error", err)
	} else {
		s.logger.Debug("routing engine exited after stop", "error", err)
	}
}
