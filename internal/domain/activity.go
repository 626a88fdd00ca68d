// Package domain defines the live activity lifecycle: models, validation,
// the repository contract, and the orchestrating service.
package domain

import "time"

// ActivityType tags an activity with the presentation family it belongs to.
type ActivityType string

const (
	TypeFoodDelivery   ActivityType = "foodDelivery"
	TypeRideshare      ActivityType = "rideshare"
	TypeWorkout        ActivityType = "workout"
	TypeTimer          ActivityType = "timer"
	TypeAudioRecording ActivityType = "audioRecording"
	TypeCustom         ActivityType = "custom"
)

// ParseActivityType maps a wire string to an ActivityType. Unknown values
// fall back to TypeCustom rather than failing.
func ParseActivityType(value string) ActivityType {
	switch value {
	case "foodDelivery":
		return TypeFoodDelivery
	case "rideshare":
		return TypeRideshare
	case "workout":
		return TypeWorkout
	case "timer":
		return TypeTimer
	case "audioRecording":
		return TypeAudioRecording
	default:
		return TypeCustom
	}
}

// Priority controls how prominently the platform presents an activity.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps a wire string to a Priority, defaulting to normal.
func ParsePriority(value string) Priority {
	switch value {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// DismissalPolicy governs how the platform removes the presentation after end.
type DismissalPolicy string

const (
	// DismissalImmediate removes the presentation right away without final content.
	DismissalImmediate DismissalPolicy = "immediate"
	// DismissalDefault shows final content briefly, then the platform dismisses on its own schedule.
	DismissalDefault DismissalPolicy = "default"
	// DismissalAfter keeps final content up until the user dismisses it.
	// Without final content it behaves like DismissalImmediate.
	DismissalAfter DismissalPolicy = "after"
)

// ParseDismissalPolicy maps a wire string to a DismissalPolicy, defaulting to default.
func ParseDismissalPolicy(value string) DismissalPolicy {
	switch value {
	case "immediate":
		return DismissalImmediate
	case "after":
		return DismissalAfter
	default:
		return DismissalDefault
	}
}

// ActivityConfig is the caller-supplied declaration of an activity.
type ActivityConfig struct {
	ID             string
	Type           ActivityType
	Title          string
	Content        ActivityContent
	Actions        []ActivityAction
	ExpirationDate *time.Time
	Priority       Priority
}

// ActivityContent is the mutable payload shown to the user. All fields are
// optional; CustomData carries an open per-type schema.
type ActivityContent struct {
	Status        *string
	Progress      *float64
	Message       *string
	EstimatedTime *int
	CustomData    map[string]any
}

// ActivityAction is a user-invocable control attached to an activity.
type ActivityAction struct {
	ID            string
	Title         string
	Icon          string
	IsDestructive bool
	DeepLink      string
}

// LiveActivityInstance is the persisted runtime record of an activity. The
// repository owns the stored copy; callers read-modify-write through it.
type LiveActivityInstance struct {
	ID               string
	Config           ActivityConfig
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	NativeActivityID string
}

// UpdateRequest carries replacement content for an active activity.
type UpdateRequest struct {
	ActivityID string
	Content    ActivityContent
	Timestamp  time.Time
}

// EndRequest asks for an activity to be ended, optionally with final content.
type EndRequest struct {
	ActivityID      string
	FinalContent    *ActivityContent
	DismissalPolicy DismissalPolicy
}

// EventKind discriminates the Event union.
type EventKind string

const (
	EventStarted    EventKind = "started"
	EventUpdated    EventKind = "updated"
	EventEnded      EventKind = "ended"
	EventUserAction EventKind = "userAction"
	EventError      EventKind = "error"
)

// Event is the tagged union published on every domain occurrence. Exactly one
// of the payload fields is set, matching Kind. Events are fire-and-forget:
// never retried, never persisted.
type Event struct {
	Kind     EventKind
	Activity *LiveActivityInstance // EventStarted
	Update   *UpdateRequest        // EventUpdated
	End      *EndRequest           // EventEnded
	Action   *UserAction           // EventUserAction
	Err      *Error                // EventError
}

// UserAction records a native-originated tap on an activity action.
type UserAction struct {
	ActivityID string
	ActionID   string
	Timestamp  time.Time
}
