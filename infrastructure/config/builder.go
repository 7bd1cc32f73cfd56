package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	domainconfig "github.com/felixgeelhaar/negotiate-go/domain/config"
	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/domain/protocol"
	"github.com/felixgeelhaar/negotiate-go/domain/utility"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/negotiator"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/badger"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/redis"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/sqlite"
)

// Builder turns a validated scenario into the components a mechanism is
// assembled from.
type Builder struct {
	config *domainconfig.ScenarioConfig
}

// NewBuilder creates a new scenario builder.
func NewBuilder(config *domainconfig.ScenarioConfig) *Builder {
	return &Builder{config: config}
}

// PartyDef is one ready-to-register negotiator.
type PartyDef struct {
	Name       string
	Negotiator negotiation.Negotiator
	Utility    utility.Function
}

// BuildResult contains the components built from a scenario.
type BuildResult struct {
	// Space is the outcome space.
	Space *outcome.Space
	// Policy is the protocol policy.
	Policy protocol.Policy
	// MaxSteps is the round budget (0 = unbounded).
	MaxSteps int
	// TimeLimit is the wall-clock budget (0 = unbounded).
	TimeLimit time.Duration
	// Parties are the negotiators in registration order.
	Parties []PartyDef
	// Store is the configured event store, nil when persistence is off.
	Store event.Store
	// CloseStore releases the store; nil when there is nothing to close.
	CloseStore func() error
}

// Build builds the scenario components. The context is used only for
// backends that dial out (postgres).
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	space, err := b.buildSpace()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrBuildFailed, err)
	}

	pol, err := protocol.ByName(b.config.Protocol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrBuildFailed, err)
	}

	var timeLimit time.Duration
	if b.config.Session.TimeLimit != "" {
		timeLimit, err = time.ParseDuration(b.config.Session.TimeLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: session.time_limit: %v", domainconfig.ErrBuildFailed, err)
		}
	}

	parties := make([]PartyDef, 0, len(b.config.Negotiators))
	for i, nc := range b.config.Negotiators {
		fn, err := b.buildUtility(space, nc.Utility)
		if err != nil {
			return nil, fmt.Errorf("%w: negotiators[%d].utility: %v", domainconfig.ErrBuildFailed, i, err)
		}
		parties = append(parties, PartyDef{
			Name:       nc.Name,
			Negotiator: b.buildStrategy(nc),
			Utility:    fn,
		})
	}

	store, closeStore, err := b.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: storage: %v", domainconfig.ErrBuildFailed, err)
	}

	return &BuildResult{
		Space:      space,
		Policy:     pol,
		MaxSteps:   b.config.Session.Steps,
		TimeLimit:  timeLimit,
		Parties:    parties,
		Store:      store,
		CloseStore: closeStore,
	}, nil
}

// buildSpace assembles the outcome space from the issue definitions.
func (b *Builder) buildSpace() (*outcome.Space, error) {
	issues := make([]outcome.Issue, 0, len(b.config.Issues))
	for _, ic := range b.config.Issues {
		if ic.Range != nil {
			issues = append(issues, outcome.NewRangeIssue(ic.Name, ic.Range.Min, ic.Range.Max))
			continue
		}
		issues = append(issues, outcome.NewIssue(ic.Name, ic.Values...))
	}
	return outcome.NewSpace(issues...)
}

// buildStrategy creates the negotiator for one party definition.
func (b *Builder) buildStrategy(nc domainconfig.NegotiatorConfig) negotiation.Negotiator {
	switch nc.Strategy {
	case "boulware":
		return negotiator.NewBoulware(nc.Seed)
	case "conceder":
		return negotiator.NewConceder(nc.Seed)
	default:
		opts := []negotiator.SamplerOption{negotiator.WithSeed(nc.Seed)}
		if nc.Aspiration > 0 {
			opts = append(opts, negotiator.WithExponent(nc.Aspiration))
		}
		return negotiator.NewSampler(opts...)
	}
}

// buildUtility creates the utility function for one party definition.
func (b *Builder) buildUtility(space *outcome.Space, uc domainconfig.UtilityConfig) (utility.Function, error) {
	var fn utility.Function

	switch uc.Type {
	case "linear":
		fn = utility.NewLinear(space, uc.Weights, uc.Scores)
	case "table":
		entries := make([]utility.Entry, 0, len(uc.Table))
		for key, score := range uc.Table {
			o := outcome.Outcome(strings.Split(key, ","))
			if !space.Contains(o) {
				return nil, fmt.Errorf("table outcome %q outside the space", key)
			}
			entries = append(entries, utility.Entry{Outcome: o, Score: score})
		}
		fn = utility.NewTable(entries)
	default:
		return nil, fmt.Errorf("unknown utility type: %s", uc.Type)
	}

	if uc.Opposite {
		fn = utility.NewOpposite(fn)
	}
	return fn, nil
}

// buildStore creates the configured event store backend.
func (b *Builder) buildStore(ctx context.Context) (event.Store, func() error, error) {
	switch b.config.Storage.Backend {
	case "":
		return nil, nil, nil

	case "memory":
		return memory.NewEventStore(), nil, nil

	case "sqlite":
		store, err := sqlite.NewEventStore(sqlite.DefaultConfig(),
			sqlite.WithDSN(b.config.Storage.Path))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case "badger":
		cfg := badger.DefaultConfig()
		cfg.Dir = b.config.Storage.Path
		store, err := badger.NewEventStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case "redis":
		cfg := redis.DefaultConfig()
		cfg.Address = b.config.Storage.DSN
		store, err := redis.NewEventStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, b.config.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewEventStore(pool, "")
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, func() error { pool.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend: %s", b.config.Storage.Backend)
	}
}
