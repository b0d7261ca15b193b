package webhook

import (
	"fmt"
	"time"
)

/* OutcomeKind classifies how a firing ended
 * Completed covers every HTTP status, 2xx or not
 */
type OutcomeKind int

const (
	Completed OutcomeKind = iota + 1
	ResolutionFailed
	TransportFailed
)

// String returns the string representation of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case ResolutionFailed:
		return "resolution_failed"
	case TransportFailed:
		return "transport_failed"
	default:
		return "unknown"
	}
}

// NewOutcomeKind creates an OutcomeKind from a string
func NewOutcomeKind(s string) OutcomeKind {
	switch s {
	case "completed":
		return Completed
	case "resolution_failed":
		return ResolutionFailed
	case "transport_failed":
		return TransportFailed
	default:
		return 0
	}
}

// Validate checks if the outcome kind is valid
func (k OutcomeKind) Validate() error {
	if k < Completed || k > TransportFailed {
		return fmt.Errorf("invalid outcome kind: %d", k)
	}
	return nil
}

// IsFailure returns true when the exchange did not complete
func (k OutcomeKind) IsFailure() bool {
	return k == ResolutionFailed || k == TransportFailed
}

// OutcomeKinds lists every valid kind
func OutcomeKinds() []OutcomeKind {
	return []OutcomeKind{Completed, ResolutionFailed, TransportFailed}
}

/* Outcome is the result of one firing
 * Method and URL are the resolved values, or the raw spec text when resolution failed
 */
type Outcome struct {
	FiringID   string
	Kind       OutcomeKind
	Method     string
	URL        string
	StatusCode int
	Err        error
	Delay      time.Duration
	Latency    time.Duration
	FiredAt    time.Time
}

// OutcomeRecord is the serialisable form of an Outcome kept by journals
type OutcomeRecord struct {
	FiringID   string    `json:"firing_id"`
	Outcome    string    `json:"outcome"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	DelayMS    int64     `json:"delay_ms"`
	LatencyMS  int64     `json:"latency_ms"`
	FiredAt    time.Time `json:"fired_at"`
}

// Record converts the outcome for storage
func (o Outcome) Record() OutcomeRecord {
	rec := OutcomeRecord{
		FiringID:   o.FiringID,
		Outcome:    o.Kind.String(),
		Method:     o.Method,
		URL:        o.URL,
		StatusCode: o.StatusCode,
		DelayMS:    o.Delay.Milliseconds(),
		LatencyMS:  o.Latency.Milliseconds(),
		FiredAt:    o.FiredAt,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}
