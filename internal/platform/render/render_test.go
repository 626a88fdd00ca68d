package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/platform/render"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestTemplateDecoratesKnownStatuses(t *testing.T) {
	tests := []struct {
		activityType domain.ActivityType
		status       string
		want         string
	}{
		{domain.TypeFoodDelivery, "on_the_way", "🚚 On the way"},
		{domain.TypeRideshare, "searching", "🔍 Finding driver"},
		{domain.TypeWorkout, "paused", "⏸️ Paused"},
		{domain.TypeTimer, "completed", "⏰ Finished"},
		{domain.TypeAudioRecording, "recording", "🔴 Recording"},
	}
	for _, tc := range tests {
		model := render.Template(tc.activityType, domain.ActivityContent{Status: strPtr(tc.status)})
		assert.Equal(t, tc.want, model.Headline)
	}
}

func TestTemplatePassesUnknownStatusThrough(t *testing.T) {
	model := render.Template(domain.TypeTimer, domain.ActivityContent{Status: strPtr("snoozed")})
	assert.Equal(t, "snoozed", model.Headline)

	model = render.Template(domain.TypeCustom, domain.ActivityContent{Status: strPtr("anything")})
	assert.Equal(t, "anything", model.Headline)
}

func TestTemplateWithEmptyContent(t *testing.T) {
	model := render.Template(domain.TypeTimer, domain.ActivityContent{})
	assert.Empty(t, model.Headline)
	assert.Empty(t, model.Detail)
	assert.Nil(t, model.Progress)
	assert.Empty(t, model.EstimatedTime)
}

func TestTemplateCarriesDetailProgressAndEstimate(t *testing.T) {
	progress := 0.75
	model := render.Template(domain.TypeFoodDelivery, domain.ActivityContent{
		Status:        strPtr("cooking"),
		Message:       strPtr("Your pizza is in the oven"),
		Progress:      &progress,
		EstimatedTime: intPtr(12),
	})
	assert.Equal(t, "👨‍🍳 Cooking", model.Headline)
	assert.Equal(t, "Your pizza is in the oven", model.Detail)
	assert.Equal(t, &progress, model.Progress)
	assert.Equal(t, "12 min remaining", model.EstimatedTime)
}

func TestTemplateIsDeterministic(t *testing.T) {
	content := domain.ActivityContent{Status: strPtr("running"), EstimatedTime: intPtr(3)}
	first := render.Template(domain.TypeTimer, content)
	second := render.Template(domain.TypeTimer, content)
	assert.Equal(t, first, second)
}
