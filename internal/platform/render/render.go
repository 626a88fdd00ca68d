// Package render turns an activity type and content into a presentation
// model. It is pure display templating, owned by the UI side of the platform
// layer and kept out of the lifecycle core.
package render

import (
	"fmt"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

// PresentationModel is the platform-agnostic description of what a surface
// shows for one content snapshot.
type PresentationModel struct {
	Headline      string
	Detail        string
	Progress      *float64
	EstimatedTime string
}

// Template renders content for the given activity type. Same inputs always
// produce the same model.
func Template(activityType domain.ActivityType, content domain.ActivityContent) PresentationModel {
	model := PresentationModel{
		Headline: decorateStatus(activityType, content.Status),
		Progress: content.Progress,
	}
	if content.Message != nil {
		model.Detail = *content.Message
	}
	if content.EstimatedTime != nil {
		model.EstimatedTime = fmt.Sprintf("%d min remaining", *content.EstimatedTime)
	}
	return model
}

var statusDecorations = map[domain.ActivityType]map[string]string{
	domain.TypeFoodDelivery: {
		"preparing":  "🍳 Preparing",
		"cooking":    "👨‍🍳 Cooking",
		"ready":      "✅ Ready",
		"picked_up":  "🚗 Picked up",
		"on_the_way": "🚚 On the way",
		"delivered":  "📦 Delivered",
	},
	domain.TypeRideshare: {
		"searching":   "🔍 Finding driver",
		"accepted":    "✅ Driver assigned",
		"arriving":    "🚗 Driver arriving",
		"arrived":     "📍 Driver arrived",
		"in_progress": "🚕 On the ride",
		"completed":   "🏁 Arrived",
	},
	domain.TypeWorkout: {
		"active":    "💪 Working out",
		"paused":    "⏸️ Paused",
		"completed": "🏆 Done",
	},
	domain.TypeTimer: {
		"running":   "⏱️ Running",
		"paused":    "⏸️ Paused",
		"completed": "⏰ Finished",
	},
	domain.TypeAudioRecording: {
		"preparing": "🎙️ Preparing",
		"recording": "🔴 Recording",
		"paused":    "⏸️ Paused",
		"stopped":   "⏹️ Stopped",
		"completed": "✅ Recorded",
	},
}

// decorateStatus prefixes known statuses with the per-type glyph; unknown
// statuses pass through untouched.
func decorateStatus(activityType domain.ActivityType, status *string) string {
	if status == nil {
		return ""
	}
	if table, ok := statusDecorations[activityType]; ok {
		if decorated, ok := table[*status]; ok {
			return decorated
		}
	}
	return *status
}
