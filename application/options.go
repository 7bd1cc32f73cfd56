package application

import (
	"time"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/protocol"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/resilience"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/telemetry"
)

// config holds mechanism construction parameters assembled from options.
type config struct {
	sessionID string
	maxSteps  int
	timeLimit time.Duration
	policy    protocol.Policy
	events    event.Store
	sessions  negotiation.Store
	metrics   telemetry.Metrics
	invoker   *resilience.Invoker
}

// Option configures a Mechanism at construction.
type Option func(*config)

// WithSessionID sets an explicit session ID instead of a generated one.
func WithSessionID(id string) Option {
	return func(c *config) {
		c.sessionID = id
	}
}

// WithSteps sets the round budget.
func WithSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithTimeLimit sets the wall-clock budget.
func WithTimeLimit(d time.Duration) Option {
	return func(c *config) {
		c.timeLimit = d
	}
}

// WithPolicy sets the protocol policy. Defaults to SAOP.
func WithPolicy(p protocol.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithEventStore attaches an event store; every state change is appended to
// the session's event stream.
func WithEventStore(store event.Store) Option {
	return func(c *config) {
		c.events = store
	}
}

// WithSessionStore attaches a snapshot store; the terminal snapshot of the
// session is saved there when the negotiation freezes.
func WithSessionStore(store negotiation.Store) Option {
	return func(c *config) {
		c.sessions = store
	}
}

// WithMetrics attaches a metrics provider. Defaults to a no-op provider.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithInvoker sets the negotiator invoker, controlling per-call timeouts and
// the concurrency bulkhead shared across sessions.
func WithInvoker(inv *resilience.Invoker) Option {
	return func(c *config) {
		c.invoker = inv
	}
}
