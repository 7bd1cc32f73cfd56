package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for session logging.

// SessionID adds a session ID field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// PhaseField adds a phase field.
func PhaseField(p negotiation.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", string(p))
	}
}

// Round adds a round number field.
func Round(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("round", n)
	}
}

// NegotiatorField adds a negotiator name field.
func NegotiatorField(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("negotiator", name)
	}
}

// ResponseKind adds a response kind field.
func ResponseKind(k negotiation.ResponseKind) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("response", string(k))
	}
}

// Offer adds the standing offer as a string field.
func Offer(o string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("offer", o)
	}
}

// RelativeTime adds the elapsed budget fraction field.
func RelativeTime(t float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("relative_time", t)
	}
}

// Acceptances adds an acceptance tally field.
func Acceptances(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("acceptances", n)
	}
}

// Protocol adds a protocol name field.
func Protocol(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("protocol", name)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
