// Package resilience provides fault-isolated negotiator invocation using fortify.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Invoker calls negotiators with fault isolation. A negotiator fault, whether
// a panic, a returned error, or a blown call timeout, is converted into an
// error that the mechanism absorbs into the session state instead of
// crashing the process.
type Invoker struct {
	bulkhead bulkhead.Bulkhead[negotiation.Response]
	timeout  time.Duration
}

// InvokerConfig configures the negotiator invoker.
type InvokerConfig struct {
	// MaxConcurrent limits concurrent negotiator calls across sessions.
	MaxConcurrent int

	// CallTimeout bounds a single negotiator call.
	CallTimeout time.Duration
}

// DefaultInvokerConfig returns a configuration with sensible defaults.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		MaxConcurrent: 64,
		CallTimeout:   30 * time.Second,
	}
}

// NewInvoker creates a new fault-isolated invoker.
func NewInvoker(config InvokerConfig) *Invoker {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 64
	}
	timeout := config.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Invoker{
		bulkhead: bulkhead.New[negotiation.Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		timeout: timeout,
	}
}

// NewDefaultInvoker creates an invoker with default configuration.
func NewDefaultInvoker() *Invoker {
	return NewInvoker(DefaultInvokerConfig())
}

// Invoke asks a negotiator to respond to the given view. Panics inside the
// negotiator are recovered and returned as errors.
func (i *Invoker) Invoke(ctx context.Context, neg negotiation.Negotiator, view negotiation.View) (negotiation.Response, error) {
	return i.bulkhead.Execute(ctx, func(ctx context.Context) (resp negotiation.Response, err error) {
		ctx, cancel := context.WithTimeout(ctx, i.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("negotiator %s panicked: %v", view.Self.Name, r)
			}
		}()

		return neg.Respond(ctx, view)
	})
}
