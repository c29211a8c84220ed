package scope

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-scope/pkg/lifecycle"
)

// Trace captures the ordered lifecycle record of one traversal or teardown
// pass: which frames and contexts were entered and exited, and which teardown
// failures were suppressed along the way.
type Trace struct {
	Label  string       `json:"label,omitempty"`
	Events []TraceEvent `json:"events"`
}

// TraceEvent is one recorded lifecycle occurrence within a trace.
type TraceEvent struct {
	Seq        int       `json:"seq"`
	Verb       string    `json:"verb"`
	ObjectID   string    `json:"object_id"`
	FrameID    string    `json:"frame_id,omitempty"`
	Depth      int       `json:"depth,omitempty"`
	Suppressed bool      `json:"suppressed,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TraceFromEvents builds a trace from lifecycle events in capture order, e.g.
// from a lifecycle.CaptureHook attached via StackWithHooks or GroupWithHooks.
func TraceFromEvents(label string, events []lifecycle.Event) Trace {
	trace := Trace{Label: label}
	for i, event := range events {
		trace.Events = append(trace.Events, TraceEvent{
			Seq:        i,
			Verb:       event.Verb,
			ObjectID:   event.ObjectID,
			FrameID:    event.FrameID,
			Depth:      event.Depth,
			Suppressed: event.Suppressed,
			Error:      event.Error,
			OccurredAt: event.OccurredAt,
		})
	}
	return trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
