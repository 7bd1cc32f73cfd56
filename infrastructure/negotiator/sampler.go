package negotiator

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Aspiration exponents for the built-in time-based strategies. An exponent
// below one concedes late (boulware), above one concedes early (conceder).
const (
	BoulwareExponent = 0.25
	ConcederExponent = 4.0
)

// Sampler is a time-based aspiration strategy. It accepts the standing offer
// once its utility reaches the current aspiration level, and otherwise
// proposes a sampled outcome at or above that level.
type Sampler struct {
	exponent float64
	rng      *rand.Rand
	mu       sync.Mutex
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithExponent sets the concession curve exponent.
func WithExponent(e float64) SamplerOption {
	return func(s *Sampler) {
		if e > 0 {
			s.exponent = e
		}
	}
}

// WithSeed fixes the random source for reproducible runs.
func WithSeed(seed uint64) SamplerOption {
	return func(s *Sampler) {
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewSampler creates a sampler strategy. Without options it uses a linear
// concession curve and a non-deterministic seed.
func NewSampler(opts ...SamplerOption) *Sampler {
	s := &Sampler{
		exponent: 1.0,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewBoulware creates a sampler that holds its aspiration until late.
func NewBoulware(seed uint64) *Sampler {
	return NewSampler(WithExponent(BoulwareExponent), WithSeed(seed))
}

// NewConceder creates a sampler that concedes early.
func NewConceder(seed uint64) *Sampler {
	return NewSampler(WithExponent(ConcederExponent), WithSeed(seed))
}

// target returns the aspiration level for the given relative time.
func (s *Sampler) target(relativeTime float64) float64 {
	t := math.Min(math.Max(relativeTime, 0), 1)
	return 1 - math.Pow(t, 1/s.exponent)
}

// Respond implements negotiation.Negotiator.
func (s *Sampler) Respond(_ context.Context, view negotiation.View) (negotiation.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.target(view.RelativeTime)

	// Accept a standing offer from someone else once it clears the
	// aspiration level.
	if view.CurrentOffer != nil && !view.CurrentProposer.Equal(view.Self) {
		u, err := view.Utility.Evaluate(view.CurrentOffer)
		if err != nil {
			return negotiation.Response{}, err
		}
		if u >= target {
			return negotiation.NewAcceptResponse(), nil
		}
	}

	offer, err := s.sampleAbove(view, target)
	if err != nil {
		return negotiation.Response{}, err
	}
	if offer == nil {
		// Nothing clears the bar; repeat the best outcome seen instead of
		// walking away.
		offer, err = s.best(view)
		if err != nil {
			return negotiation.Response{}, err
		}
	}
	if offer == nil {
		return negotiation.NewEndResponse(), nil
	}
	return negotiation.NewOfferResponse(offer), nil
}

// sampleAbove draws outcomes and returns the first one whose utility clears
// the target level.
func (s *Sampler) sampleAbove(view negotiation.View, target float64) (outcome.Outcome, error) {
	const attempts = 64

	for range attempts {
		candidate := view.Space.Random(s.rng)
		u, err := view.Utility.Evaluate(candidate)
		if err != nil {
			return nil, err
		}
		if u >= target {
			return candidate, nil
		}
	}
	return nil, nil
}

// best scans a bounded sample for the highest-utility outcome.
func (s *Sampler) best(view negotiation.View) (outcome.Outcome, error) {
	const sampleSize = 128

	candidates := view.Space.Sample(sampleSize, s.rng)
	var bestOutcome outcome.Outcome
	bestU := math.Inf(-1)
	for _, candidate := range candidates {
		u, err := view.Utility.Evaluate(candidate)
		if err != nil {
			return nil, err
		}
		if u > bestU {
			bestU = u
			bestOutcome = candidate
		}
	}
	return bestOutcome, nil
}
