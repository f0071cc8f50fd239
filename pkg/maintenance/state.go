package maintenance

import "time"

// Default detail values used when a field is missing from the stored state.
const (
	DefaultMessage    = "The service is temporarily unavailable for maintenance."
	DefaultRetryAfter = 3600 // seconds
)

// State holds the operator-supplied maintenance details.
// Progress is always within [0,100] and RetryAfter is never negative;
// Normalize enforces both.
type State struct {
	Message           string    `json:"message"`
	Reason            string    `json:"reason,omitempty"`
	ContactEmail      string    `json:"contact_email,omitempty"`
	StartTime         time.Time `json:"start_time,omitzero"`
	EndTime           time.Time `json:"end_time,omitzero"`
	EstimatedDuration string    `json:"estimated_duration,omitempty"`
	RetryAfter        int       `json:"retry_after"`
	Progress          int       `json:"progress"`
}

// DefaultState returns the state used when maintenance is enabled without
// details, or when the details key is missing from the store.
func DefaultState() State {
	return State{
		Message:    DefaultMessage,
		RetryAfter: DefaultRetryAfter,
	}
}

// Normalize clamps Progress to [0,100] and backfills an unset message and
// retry-after from the defaults. Negative retry-after is treated as unset.
func (s State) Normalize() State {
	s.Progress = min(max(s.Progress, 0), 100)
	if s.RetryAfter <= 0 {
		s.RetryAfter = DefaultRetryAfter
	}
	if s.Message == "" {
		s.Message = DefaultMessage
	}
	return s
}

// Status is the combined view returned by Manager.Status.
type Status struct {
	Enabled bool  `json:"enabled"`
	State   State `json:"state"`
}
