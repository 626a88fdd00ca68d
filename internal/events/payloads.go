package events

import (
	"time"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

// ActivityStarted is the relayed payload for a started activity.
type ActivityStarted struct {
	ActivityID   string     `json:"activity_id"`
	ActivityType string     `json:"activity_type"`
	Title        string     `json:"title"`
	Priority     string     `json:"priority"`
	NativeID     string     `json:"native_activity_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ActivityUpdated is the relayed payload for a content update.
type ActivityUpdated struct {
	ActivityID string         `json:"activity_id"`
	Content    map[string]any `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ActivityEnded is the relayed payload for an ended activity.
type ActivityEnded struct {
	ActivityID      string         `json:"activity_id"`
	DismissalPolicy string         `json:"dismissal_policy"`
	FinalContent    map[string]any `json:"final_content,omitempty"`
}

// UserActionOccurred is the relayed payload for a native tap.
type UserActionOccurred struct {
	ActivityID string    `json:"activity_id"`
	ActionID   string    `json:"action_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// LifecycleError is the relayed payload for a failed operation.
type LifecycleError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func contentMap(content domain.ActivityContent) map[string]any {
	out := make(map[string]any)
	if content.Status != nil {
		out["status"] = *content.Status
	}
	if content.Progress != nil {
		out["progress"] = *content.Progress
	}
	if content.Message != nil {
		out["message"] = *content.Message
	}
	if content.EstimatedTime != nil {
		out["estimatedTime"] = *content.EstimatedTime
	}
	if len(content.CustomData) > 0 {
		out["customData"] = content.CustomData
	}
	return out
}
