package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/resilience"
)

type stubNegotiator struct {
	respond func(ctx context.Context, view negotiation.View) (negotiation.Response, error)
}

func (s *stubNegotiator) Respond(ctx context.Context, view negotiation.View) (negotiation.Response, error) {
	return s.respond(ctx, view)
}

func TestInvoker_Invoke(t *testing.T) {
	t.Parallel()

	invoker := resilience.NewDefaultInvoker()
	neg := &stubNegotiator{
		respond: func(_ context.Context, _ negotiation.View) (negotiation.Response, error) {
			return negotiation.NewAcceptResponse(), nil
		},
	}

	resp, err := invoker.Invoke(context.Background(), neg, negotiation.View{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.Kind != negotiation.ResponseAccept {
		t.Errorf("Kind = %s, want accept", resp.Kind)
	}
}

func TestInvoker_PropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("strategy failure")
	invoker := resilience.NewDefaultInvoker()
	neg := &stubNegotiator{
		respond: func(_ context.Context, _ negotiation.View) (negotiation.Response, error) {
			return negotiation.Response{}, wantErr
		},
	}

	_, err := invoker.Invoke(context.Background(), neg, negotiation.View{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Invoke() error = %v, want %v", err, wantErr)
	}
}

func TestInvoker_RecoversPanic(t *testing.T) {
	t.Parallel()

	invoker := resilience.NewDefaultInvoker()
	neg := &stubNegotiator{
		respond: func(_ context.Context, _ negotiation.View) (negotiation.Response, error) {
			panic("strategy bug")
		},
	}

	view := negotiation.View{Self: negotiation.Handle{Name: "buyer"}}
	_, err := invoker.Invoke(context.Background(), neg, view)
	if err == nil {
		t.Fatal("Invoke() should return error after panic")
	}
}

func TestInvoker_CallTimeout(t *testing.T) {
	t.Parallel()

	invoker := resilience.NewInvoker(resilience.InvokerConfig{
		MaxConcurrent: 1,
		CallTimeout:   10 * time.Millisecond,
	})
	neg := &stubNegotiator{
		respond: func(ctx context.Context, _ negotiation.View) (negotiation.Response, error) {
			select {
			case <-ctx.Done():
				return negotiation.Response{}, ctx.Err()
			case <-time.After(time.Second):
				return negotiation.NewAcceptResponse(), nil
			}
		},
	}

	_, err := invoker.Invoke(context.Background(), neg, negotiation.View{})
	if err == nil {
		t.Fatal("Invoke() should time out")
	}
}

func TestInvokerConfig_Defaults(t *testing.T) {
	t.Parallel()

	config := resilience.DefaultInvokerConfig()
	if config.MaxConcurrent <= 0 {
		t.Error("MaxConcurrent should be positive")
	}
	if config.CallTimeout <= 0 {
		t.Error("CallTimeout should be positive")
	}

	// Zero values fall back to defaults without panicking.
	invoker := resilience.NewInvoker(resilience.InvokerConfig{})
	if invoker == nil {
		t.Fatal("NewInvoker() returned nil")
	}
}
