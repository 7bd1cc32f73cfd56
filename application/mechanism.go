// Package application orchestrates negotiation sessions: the mechanism that
// drives rounds, the batch runner, and event stream replay.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/domain/protocol"
	"github.com/felixgeelhaar/negotiate-go/domain/utility"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/logging"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/resilience"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/telemetry"
)

// party binds one registered negotiator to its handle and utility function.
type party struct {
	handle     negotiation.Handle
	negotiator negotiation.Negotiator
	utility    utility.Function
}

// Mechanism is the negotiation engine for one session. It owns the session
// aggregate and its trace exclusively; callers interact through Add, Step,
// Run, and read-only snapshots. A mechanism is round-synchronous: Step never
// runs two negotiators concurrently, and a round always completes before
// control returns.
type Mechanism struct {
	mu sync.Mutex

	space    *outcome.Space
	policy   protocol.Policy
	deadline negotiation.Deadline

	session *negotiation.Session
	trace   *negotiation.Trace
	roster  []party

	interp *statemachine.Interpreter
	rules  protocol.Rules

	invoker  *resilience.Invoker
	metrics  telemetry.Metrics
	events   event.Store
	sessions negotiation.Store
}

// New creates a mechanism over the given outcome space. At least one of
// WithSteps and WithTimeLimit must be supplied; an unbounded negotiation is
// a configuration error.
func New(space *outcome.Space, opts ...Option) (*Mechanism, error) {
	if space == nil {
		return nil, errors.New("mechanism requires an outcome space")
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	deadline := negotiation.Deadline{MaxSteps: cfg.maxSteps, TimeLimit: cfg.timeLimit}
	if !deadline.Valid() {
		return nil, negotiation.ErrNoBudget
	}

	if cfg.policy == nil {
		cfg.policy = protocol.NewSAOP()
	}
	if cfg.invoker == nil {
		cfg.invoker = resilience.NewDefaultInvoker()
	}
	if cfg.metrics == nil {
		cfg.metrics = &telemetry.NoopMetricsProvider{}
	}
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.New().String()
	}

	return &Mechanism{
		space:    space,
		policy:   cfg.policy,
		deadline: deadline,
		session:  negotiation.NewSession(cfg.sessionID),
		trace:    negotiation.NewTrace(cfg.sessionID),
		invoker:  cfg.invoker,
		metrics:  cfg.metrics,
		events:   cfg.events,
		sessions: cfg.sessions,
	}, nil
}

// SessionID returns the session identifier.
func (m *Mechanism) SessionID() string {
	return m.session.ID
}

// Space returns the outcome space under negotiation.
func (m *Mechanism) Space() *outcome.Space {
	return m.space
}

// Policy returns the protocol policy.
func (m *Mechanism) Policy() protocol.Policy {
	return m.policy
}

// Add registers a negotiator bound to a utility function and returns its
// handle. Registration order is the default turn order.
func (m *Mechanism) Add(name string, neg negotiation.Negotiator, fn utility.Function) (negotiation.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if neg == nil {
		return negotiation.Handle{}, negotiation.ErrNilNegotiator
	}
	if fn == nil {
		return negotiation.Handle{}, negotiation.ErrNilUtility
	}
	if m.session.Started && !m.policy.AllowsLateJoin() {
		return negotiation.Handle{}, negotiation.ErrSessionStarted
	}
	if max := m.policy.MaxParties(); max > 0 && len(m.roster) >= max {
		return negotiation.Handle{}, fmt.Errorf("%w: policy %s allows %d parties",
			negotiation.ErrCapacity, m.policy.Name(), max)
	}

	handle := negotiation.NewHandle(name)
	m.roster = append(m.roster, party{handle: handle, negotiator: neg, utility: fn})

	return handle, nil
}

// Handles returns the registered handles in registration order.
func (m *Mechanism) Handles() []negotiation.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles := make([]negotiation.Handle, len(m.roster))
	for i, p := range m.roster {
		handles[i] = p.handle
	}
	return handles
}

// State returns the current session snapshot.
func (m *Mechanism) State() negotiation.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State()
}

// History returns the read-only round history, safe to read mid-run.
func (m *Mechanism) History() negotiation.TraceReader {
	return m.trace
}

// Step advances exactly one round and returns the resulting snapshot. Once
// the session is terminal, Step is an idempotent no-op returning the frozen
// state. Negotiator misbehavior is absorbed into the session state; the
// returned error covers configuration problems only.
func (m *Mechanism) Step(ctx context.Context) (negotiation.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Terminal() {
		return m.session.State(), nil
	}

	if !m.session.Started {
		if err := m.begin(ctx); err != nil {
			return m.session.State(), err
		}
	}

	m.session.RelativeTime = m.deadline.Relative(m.session.Step, m.session.Duration())

	// Budget check runs before the round; agreement inside a round always
	// lands before this check sees the incremented step.
	if m.deadline.Exhausted(m.session.Step, m.session.Duration()) {
		m.timeout(ctx)
		return m.session.State(), nil
	}

	m.playRound(ctx)

	return m.session.State(), nil
}

// Run calls Step until the session is terminal. Defined purely in terms of
// Step; it adds no semantics beyond the loop.
func (m *Mechanism) Run(ctx context.Context) (negotiation.SessionState, error) {
	for {
		state, err := m.Step(ctx)
		if err != nil {
			return state, err
		}
		if state.Terminal() {
			return state, nil
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}
	}
}

// begin validates the roster, creates the rule state, and starts the session
// state machine. Called once, on the first step.
func (m *Mechanism) begin(ctx context.Context) error {
	if len(m.roster) < m.policy.MinParties() {
		return fmt.Errorf("%w: have %d, need %d",
			negotiation.ErrNotEnoughParties, len(m.roster), m.policy.MinParties())
	}

	handles := make([]negotiation.Handle, len(m.roster))
	for i, p := range m.roster {
		handles[i] = p.handle
	}

	rules, err := m.policy.NewRules(handles, m.space)
	if err != nil {
		return err
	}

	machine, err := statemachine.NewSessionMachine()
	if err != nil {
		return fmt.Errorf("session machine: %w", err)
	}

	mctx := statemachine.NewContext(m.session, m.trace, m.deadline)
	mctx.Parties = len(m.roster)
	mctx.MinParties = m.policy.MinParties()

	interp := statemachine.NewInterpreter(machine, mctx)
	interp.Start()
	if err := interp.Begin(); err != nil {
		return fmt.Errorf("session start rejected: %w", err)
	}

	m.rules = rules
	m.interp = interp
	m.metrics.IncrementActiveSessions(ctx)

	m.emit(ctx, event.TypeSessionStarted, event.SessionStartedPayload{
		Parties:   handles,
		Protocol:  m.policy.Name(),
		MaxSteps:  m.deadline.MaxSteps,
		TimeLimit: m.deadline.TimeLimit.String(),
	})
	for i, h := range handles {
		m.emit(ctx, event.TypeNegotiatorJoined, event.NegotiatorJoinedPayload{
			Negotiator: h,
			Position:   i,
		})
	}

	logging.Info().
		Add(logging.SessionID(m.session.ID)).
		Add(logging.Protocol(m.policy.Name())).
		Add(logging.Int("parties", len(m.roster))).
		Msg("session started")

	return nil
}

// playRound solicits responses in turn order and applies the protocol rule
// to each. The round always completes before control returns.
func (m *Mechanism) playRound(ctx context.Context) {
	order := m.rules.Turn()
	round := negotiation.Round{
		Number:   m.session.Step,
		Proposer: m.roster[order[0]].handle,
	}
	roundStart := time.Now()

	m.session.Waiting = true

	for _, idx := range order {
		p := m.roster[idx]

		resp, err := m.invoker.Invoke(ctx, p.negotiator, m.viewFor(p))
		if err != nil {
			m.session.Waiting = false
			m.fault(ctx, p.handle, err, &round)
			return
		}

		round.Moves = append(round.Moves, negotiation.Move{
			Negotiator: p.handle,
			Response:   resp,
			At:         time.Now(),
		})
		m.recordResponse(ctx, p.handle, resp)

		ruling := m.rules.Apply(idx, resp)
		m.syncStanding()

		switch ruling.Kind {
		case protocol.RulingContinue:
			continue

		case protocol.RulingNextRound:
			// A counter-offer closes the round early.
			m.finishRound(ctx, &round, roundStart)
			return

		case protocol.RulingAgreement:
			agreement, _ := m.rules.Standing()
			m.session.Waiting = false
			if err := m.interp.Agree(agreement); err != nil {
				m.fault(ctx, p.handle, err, &round)
				return
			}
			m.closeRound(ctx, &round)
			m.emit(ctx, event.TypeSessionAgreed, event.SessionAgreedPayload{
				Round:     round.Number,
				Agreement: agreement,
			})
			m.terminalOutcome(ctx)
			return

		case protocol.RulingBroken:
			m.session.Waiting = false
			if err := m.interp.Break(ruling.Details); err != nil {
				m.fault(ctx, p.handle, err, &round)
				return
			}
			m.closeRound(ctx, &round)
			m.emit(ctx, event.TypeSessionBroken, event.SessionBrokenPayload{
				Round:   round.Number,
				Details: ruling.Details,
			})
			m.terminalOutcome(ctx)
			return
		}
	}

	m.finishRound(ctx, &round, roundStart)
}

// viewFor builds the read-only window one negotiator sees this invocation.
func (m *Mechanism) viewFor(p party) negotiation.View {
	standing, proposerIdx := m.rules.Standing()
	var proposer negotiation.Handle
	if proposerIdx >= 0 {
		proposer = m.roster[proposerIdx].handle
	}

	return negotiation.View{
		Self:            p.handle,
		Utility:         p.utility,
		Space:           m.space,
		CurrentOffer:    standing,
		CurrentProposer: proposer,
		Step:            m.session.Step,
		RelativeTime:    m.deadline.Relative(m.session.Step, m.session.Duration()),
		History:         m.trace,
	}
}

// syncStanding mirrors the rule state into the session aggregate.
func (m *Mechanism) syncStanding() {
	standing, proposerIdx := m.rules.Standing()
	if proposerIdx >= 0 {
		m.session.CurrentOffer = standing
		m.session.CurrentProposer = m.roster[proposerIdx].handle
	}
	m.session.Acceptances = m.rules.Acceptances()
}

// finishRound closes a non-terminal round: history grows by one record and
// the step counter advances.
func (m *Mechanism) finishRound(ctx context.Context, round *negotiation.Round, start time.Time) {
	m.session.Waiting = false
	m.closeRound(ctx, round)

	m.metrics.RecordRound(ctx, m.session.ID, m.policy.Name(), time.Since(start))

	logging.Debug().
		Add(logging.SessionID(m.session.ID)).
		Add(logging.Round(round.Number)).
		Add(logging.RelativeTime(m.session.RelativeTime)).
		Add(logging.Acceptances(m.session.Acceptances)).
		Msg("round completed")
}

// closeRound stamps the standing offer onto the record, appends it to the
// trace, and advances the step counter. Every played round lands in history
// and in the event stream, terminal rounds included.
func (m *Mechanism) closeRound(ctx context.Context, round *negotiation.Round) {
	standing, _ := m.rules.Standing()
	round.Offer = standing
	m.trace.Append(*round)
	m.session.Step++
	m.session.RelativeTime = m.deadline.Relative(m.session.Step, m.session.Duration())

	m.emit(ctx, event.TypeRoundCompleted, event.RoundCompletedPayload{Round: round.Clone()})
}

// fault absorbs a negotiator failure into the session: the round so far is
// preserved, the session freezes as errored, and nothing propagates to the
// caller.
func (m *Mechanism) fault(ctx context.Context, h negotiation.Handle, cause error, round *negotiation.Round) {
	details := fmt.Sprintf("negotiator %s: %v", h.Name, cause)
	_ = m.interp.Fail(details)
	m.closeRound(ctx, round)

	m.metrics.RecordFault(ctx, m.session.ID, h.Name)
	m.emit(ctx, event.TypeSessionErrored, event.SessionErroredPayload{
		Round:   round.Number,
		Details: details,
	})
	m.terminalOutcome(ctx)

	logging.Warn().
		Add(logging.SessionID(m.session.ID)).
		Add(logging.NegotiatorField(h.Name)).
		Add(logging.ErrorField(cause)).
		Msg("negotiator fault absorbed")
}

// timeout freezes the session after budget exhaustion.
func (m *Mechanism) timeout(ctx context.Context) {
	_ = m.interp.Timeout()
	m.emit(ctx, event.TypeSessionTimedOut, event.SessionTimedOutPayload{
		Round: m.session.Step,
	})
	m.terminalOutcome(ctx)
}

// terminalOutcome persists, measures, and logs a freshly frozen session.
func (m *Mechanism) terminalOutcome(ctx context.Context) {
	m.metrics.RecordOutcome(ctx, m.session.ID, m.session.Phase.String(), m.session.Duration())
	m.metrics.DecrementActiveSessions(ctx)

	if m.sessions != nil {
		if err := m.sessions.Save(ctx, m.session.State()); err != nil {
			logging.Warn().
				Add(logging.SessionID(m.session.ID)).
				Add(logging.ErrorField(err)).
				Msg("session snapshot save failed")
		}
	}

	logging.Info().
		Add(logging.SessionID(m.session.ID)).
		Add(logging.PhaseField(m.session.Phase)).
		Add(logging.Int("steps", m.session.Step)).
		Add(logging.Duration(m.session.Duration())).
		Msg("session terminal")
}

// recordResponse emits the per-response events and metrics.
func (m *Mechanism) recordResponse(ctx context.Context, h negotiation.Handle, resp negotiation.Response) {
	if resp.Kind == negotiation.ResponseOffer {
		m.metrics.RecordOffer(ctx, m.session.ID, h.Name)
		m.emit(ctx, event.TypeOfferProposed, event.OfferProposedPayload{
			Round:    m.session.Step,
			Proposer: h,
			Offer:    resp.Offer,
		})
	}
	m.emit(ctx, event.TypeResponseRecorded, event.ResponseRecordedPayload{
		Round:      m.session.Step,
		Negotiator: h,
		Kind:       resp.Kind,
		Offer:      resp.Offer,
	})
}

// emit appends one event to the session stream. Store failures are logged
// and swallowed; event sourcing never blocks the negotiation.
func (m *Mechanism) emit(ctx context.Context, t event.Type, payload any) {
	if m.events == nil {
		return
	}

	evt, err := event.New(m.session.ID, t, payload)
	if err == nil {
		err = m.events.Append(ctx, evt)
	}
	if err != nil {
		logging.Warn().
			Add(logging.SessionID(m.session.ID)).
			Add(logging.Str("event_type", string(t))).
			Add(logging.ErrorField(err)).
			Msg("event append failed")
	}
}
