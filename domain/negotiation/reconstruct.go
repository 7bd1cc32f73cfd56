package negotiation

import "github.com/felixgeelhaar/negotiate-go/domain/outcome"

// Reconstruct rebuilds a session snapshot purely from recorded history and
// the terminal phase. A live state and its reconstruction agree on
// agreement, current offer, and current proposer; this is what makes traces
// replayable.
func Reconstruct(sessionID string, trace TraceReader, phase Phase, errorDetails string) SessionState {
	var (
		currentOffer    outcome.Outcome
		currentProposer Handle
	)

	// The tally tracks distinct acceptors of the standing offer and survives
	// round boundaries; only a replacement offer clears it.
	accepted := make(map[string]bool)

	rounds := trace.Rounds()
	for _, round := range rounds {
		for _, move := range round.Moves {
			switch move.Response.Kind {
			case ResponseOffer:
				currentOffer = move.Response.Offer.Clone()
				currentProposer = move.Negotiator
				accepted = make(map[string]bool)
			case ResponseAccept:
				if !move.Negotiator.Equal(currentProposer) {
					accepted[move.Negotiator.ID] = true
				}
			}
		}
	}

	st := SessionState{
		SessionID:       sessionID,
		Phase:           phase,
		Running:         phase == PhaseRunning,
		Started:         len(rounds) > 0 || phase != PhaseCreated,
		Step:            len(rounds),
		CurrentOffer:    currentOffer,
		CurrentProposer: currentProposer,
		Broken:          phase == PhaseBroken || phase == PhaseErrored,
		TimedOut:        phase == PhaseTimedOut,
		HasError:        phase == PhaseErrored && errorDetails != "",
		ErrorDetails:    errorDetails,
		Acceptances:     len(accepted),
	}
	if phase == PhaseAgreed {
		st.Agreement = currentOffer.Clone()
	}
	return st
}
