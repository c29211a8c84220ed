package lifecycle

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event verbs emitted by the scope stack and resource group.
const (
	VerbScopeEntered       = "scope.entered"
	VerbScopeExited        = "scope.exited"
	VerbContextEntered     = "context.entered"
	VerbContextExited      = "context.exited"
	VerbTeardownSuppressed = "teardown.suppressed"
)

// Object types attached to the events built here.
const (
	ObjectTypeFrame   = "scope.frame"
	ObjectTypeContext = "scope.context"
)

// EventInput describes the common fields for scope lifecycle events.
type EventInput struct {
	ObjectID   string
	FrameID    string
	Label      string
	Channel    string
	Depth      int
	Index      int
	Unwinding  bool
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildScopeEnteredEvent constructs a normalized event for a pushed frame.
func BuildScopeEnteredEvent(input EventInput) Event {
	return buildScopeEvent(VerbScopeEntered, ObjectTypeFrame, false, input)
}

// BuildScopeExitedEvent constructs a normalized event for a popped frame.
func BuildScopeExitedEvent(input EventInput) Event {
	return buildScopeEvent(VerbScopeExited, ObjectTypeFrame, false, input)
}

// BuildContextEnteredEvent constructs an event for a group entry whose enter
// hook succeeded.
func BuildContextEnteredEvent(input EventInput) Event {
	return buildScopeEvent(VerbContextEntered, ObjectTypeContext, false, input)
}

// BuildContextExitedEvent constructs an event for a group entry whose exit
// hook ran during teardown.
func BuildContextExitedEvent(input EventInput) Event {
	return buildScopeEvent(VerbContextExited, ObjectTypeContext, false, input)
}

// BuildTeardownSuppressedEvent constructs an event for an exit-hook failure
// that teardown discarded instead of surfacing.
func BuildTeardownSuppressedEvent(input EventInput) Event {
	return buildScopeEvent(VerbTeardownSuppressed, ObjectTypeContext, true, input)
}

func buildScopeEvent(verb, objectType string, suppressed bool, input EventInput) Event {
	metadata := cloneMap(input.Metadata)
	if objectType == ObjectTypeContext {
		metadata = ensureMetadata(metadata)
		metadata["index"] = input.Index
	}
	if input.Depth > 0 {
		metadata = ensureMetadata(metadata)
		metadata["depth"] = input.Depth
	}
	if input.Unwinding {
		metadata = ensureMetadata(metadata)
		metadata["unwinding"] = true
	}

	errText := ""
	if input.Err != nil {
		errText = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" && input.Label != "" {
		objectID = input.Label + "/" + strconv.Itoa(input.Index)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.FrameID)
	}
	if objectID == "" {
		objectID = uuid.NewString()
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		FrameID:    strings.TrimSpace(input.FrameID),
		Label:      strings.TrimSpace(input.Label),
		Channel:    strings.TrimSpace(input.Channel),
		Depth:      input.Depth,
		Suppressed: suppressed,
		Error:      errText,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
