// Package token resolves the bearer token shared between the engine
// supervisor and the route client.
package token

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/snigate/snigate/pkg/logging"
)

// Provider resolves the auth token for one engine instance. Resolve
// never fails and always returns the same value for the lifetime of the
// provider.
type Provider interface {
	Resolve() string
}

// Static is a provider backed by an externally supplied secret, returned
// verbatim.
type Static string

func (s Static) Resolve() string { return string(s) }

// Generator produces a fresh 128-bit token rendered as 32 lowercase hex
// characters. The token is generated once and reused on later calls, so
// both sides of the control plane observe the same value.
type Generator struct {
	logger *logging.Logger

	once  sync.Once
	value string
}

// NewGenerator creates a Generator. logger may not be nil.
func NewGenerator(logger *logging.Logger) *Generator {
	return &Generator{logger: logger}
}

func (g *Generator) Resolve() string {
	g.once.Do(func() {
		// Never log the token value itself.
		g.logger.Info("generating new engine auth token")
		g.value = strings.ReplaceAll(uuid.NewString(), "-", "")
	})
	return g.value
}

// FromConfig picks the provider: an externally supplied secret wins,
// otherwise a fresh token is generated for this process lifetime.
func FromConfig(secret string, logger *logging.Logger) Provider {
	if secret != "" {
		return Static(secret)
	}
	return NewGenerator(logger)
}
