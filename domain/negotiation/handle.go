package negotiation

import "github.com/google/uuid"

// Handle identifies a registered negotiator for the lifetime of a session.
// Display name and identity are separate fields: two negotiators may share
// a name but never an ID.
type Handle struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// NewHandle allocates a fresh handle for the given display name.
func NewHandle(name string) Handle {
	return Handle{Name: name, ID: uuid.New().String()}
}

// Equal compares handles by identity.
func (h Handle) Equal(other Handle) bool {
	return h.ID == other.ID
}

// IsZero returns true for the zero handle.
func (h Handle) IsZero() bool {
	return h.ID == ""
}

// String renders the handle as name plus a short id suffix.
func (h Handle) String() string {
	if h.ID == "" {
		return h.Name
	}
	suffix := h.ID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return h.Name + "#" + suffix
}
