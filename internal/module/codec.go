package module

import (
	"encoding/json"
	"time"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// epochSeconds renders a timestamp in the wire format: seconds since epoch as
// floating point.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000.0
}

func fromEpochSeconds(seconds float64) time.Time {
	return time.UnixMilli(int64(seconds * 1000)).UTC()
}

// parseActivityConfig converts an untyped config object into a domain config.
// Only required-field presence is enforced here; semantic bounds belong to the
// validator.
func parseActivityConfig(configObject map[string]any) (domain.ActivityConfig, error) {
	id, ok := configObject["id"].(string)
	if !ok || id == "" {
		return domain.ActivityConfig{}, domain.ErrInvalidConfiguration("config.id is required")
	}
	title, ok := configObject["title"].(string)
	if !ok || title == "" {
		return domain.ActivityConfig{}, domain.ErrInvalidConfiguration("config.title is required")
	}

	typeString, _ := configObject["type"].(string)
	priorityString, _ := configObject["priority"].(string)

	contentObject, _ := configObject["content"].(map[string]any)
	content, err := parseActivityContent(contentObject)
	if err != nil {
		return domain.ActivityConfig{}, err
	}

	config := domain.ActivityConfig{
		ID:       id,
		Type:     domain.ParseActivityType(typeString),
		Title:    title,
		Content:  content,
		Priority: domain.ParsePriority(priorityString),
	}

	if rawActions, ok := configObject["actions"].([]any); ok {
		for _, rawAction := range rawActions {
			actionObject, ok := rawAction.(map[string]any)
			if !ok {
				return domain.ActivityConfig{}, domain.ErrInvalidConfiguration("config.actions entries must be objects")
			}
			action, err := parseActivityAction(actionObject)
			if err != nil {
				return domain.ActivityConfig{}, err
			}
			config.Actions = append(config.Actions, action)
		}
	}

	if seconds, ok := numberValue(configObject["expirationDate"]); ok {
		expiry := fromEpochSeconds(seconds)
		config.ExpirationDate = &expiry
	}

	return config, nil
}

// parseActivityContent converts an untyped content object. A nil object is a
// valid empty content.
func parseActivityContent(contentObject map[string]any) (domain.ActivityContent, error) {
	var content domain.ActivityContent
	if contentObject == nil {
		return content, nil
	}

	if status, ok := contentObject["status"].(string); ok {
		content.Status = &status
	}
	if progress, ok := numberValue(contentObject["progress"]); ok {
		content.Progress = &progress
	}
	if message, ok := contentObject["message"].(string); ok {
		content.Message = &message
	}
	if estimated, ok := numberValue(contentObject["estimatedTime"]); ok {
		minutes := int(estimated)
		content.EstimatedTime = &minutes
	}
	if customData, ok := contentObject["customData"].(map[string]any); ok {
		content.CustomData = customData
	}
	return content, nil
}

func parseActivityAction(actionObject map[string]any) (domain.ActivityAction, error) {
	id, ok := actionObject["id"].(string)
	if !ok || id == "" {
		return domain.ActivityAction{}, domain.ErrInvalidConfiguration("action.id is required")
	}
	title, ok := actionObject["title"].(string)
	if !ok || title == "" {
		return domain.ActivityAction{}, domain.ErrInvalidConfiguration("action.title is required")
	}

	action := domain.ActivityAction{ID: id, Title: title}
	if icon, ok := actionObject["icon"].(string); ok {
		action.Icon = icon
	}
	if destructive, ok := actionObject["destructive"].(bool); ok {
		action.IsDestructive = destructive
	}
	if deepLink, ok := actionObject["deepLink"].(string); ok {
		action.DeepLink = deepLink
	}
	return action, nil
}

// numberValue accepts the numeric types an untyped payload may carry.
func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func serializeActivity(instance domain.LiveActivityInstance) map[string]any {
	return map[string]any{
		"id":               instance.ID,
		"config":           serializeActivityConfig(instance.Config),
		"isActive":         instance.IsActive,
		"createdAt":        epochSeconds(instance.CreatedAt),
		"updatedAt":        epochSeconds(instance.UpdatedAt),
		"nativeActivityId": instance.NativeActivityID,
	}
}

func serializeActivityConfig(config domain.ActivityConfig) map[string]any {
	actions := make([]map[string]any, 0, len(config.Actions))
	for _, action := range config.Actions {
		actions = append(actions, serializeActivityAction(action))
	}
	out := map[string]any{
		"id":       config.ID,
		"type":     string(config.Type),
		"title":    config.Title,
		"content":  serializeActivityContent(config.Content),
		"actions":  actions,
		"priority": string(config.Priority),
	}
	if config.ExpirationDate != nil {
		out["expirationDate"] = epochSeconds(*config.ExpirationDate)
	}
	return out
}

func serializeActivityContent(content domain.ActivityContent) map[string]any {
	out := map[string]any{}
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

func serializeActivityAction(action domain.ActivityAction) map[string]any {
	return map[string]any{
		"id":          action.ID,
		"title":       action.Title,
		"icon":        action.Icon,
		"destructive": action.IsDestructive,
		"deepLink":    action.DeepLink,
	}
}
