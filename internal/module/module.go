// Package module is the host-facing boundary of the live activity core. It
// parses untyped configuration objects into domain values, serializes domain
// values back out, and fans domain events out to registered listeners.
package module

import (
	"context"
	"sync"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/events"
	"github.com/HeoJeongBo/expo-live-activity/internal/observability"
)

// Listener receives the module's outbound events. Payload shapes follow the
// external wire format.
type Listener interface {
	OnActivityUpdate(payload map[string]any)
	OnActivityEnd(payload map[string]any)
	OnUserAction(payload map[string]any)
	OnError(payload map[string]any)
}

// Module exposes the lifecycle operations to host callers. One module holds
// exactly one long-lived subscription to the publisher for its whole lifetime.
type Module struct {
	service   *domain.Service
	platform  domain.PlatformManager
	validator *domain.Validator

	mu        sync.Mutex
	listeners []Listener

	cancel func()
	done   chan struct{}
}

// New constructs a Module and starts its event dispatch loop. The publisher is
// injected; the module never reaches for shared state to find it.
func New(service *domain.Service, platform domain.PlatformManager, validator *domain.Validator, publisher *events.Publisher) *Module {
	stream, cancel := publisher.Subscribe()
	m := &Module{
		service:   service,
		platform:  platform,
		validator: validator,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go m.dispatch(stream)
	return m
}

// Close stops event dispatch. Pending buffered events are drained first.
func (m *Module) Close() {
	m.cancel()
	<-m.done
}

// AddListener registers a listener for all module events.
func (m *Module) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters a previously added listener.
func (m *Module) RemoveListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Constants reports the load-time capability flags. Dynamic Island has no
// equivalent here, so it is always false.
func (m *Module) Constants() map[string]any {
	return map[string]any{
		"isSupported":              m.platform.IsSupported(),
		"isDynamicIslandSupported": false,
	}
}

// StartActivity parses and starts an activity, returning the serialized
// instance. Parse failures surface as INVALID_CONFIGURATION before any
// semantic validation runs.
func (m *Module) StartActivity(ctx context.Context, configObject map[string]any) (map[string]any, error) {
	config, err := parseActivityConfig(configObject)
	if err != nil {
		observability.RecordOperation("start", string(domain.CodeInvalidConfiguration))
		return nil, err
	}

	instance, startErr := m.service.StartActivity(ctx, config)
	if startErr != nil {
		observability.RecordOperation("start", string(startErr.Code))
		return nil, startErr
	}
	observability.RecordOperation("start", "ok")
	observability.IncActiveActivities()
	return serializeActivity(*instance), nil
}

// UpdateActivity parses content and updates the activity, reporting success.
func (m *Module) UpdateActivity(ctx context.Context, activityID string, contentObject map[string]any) (bool, error) {
	content, err := parseActivityContent(contentObject)
	if err != nil {
		observability.RecordOperation("update", string(domain.CodeInvalidConfiguration))
		return false, err
	}

	request := domain.UpdateRequest{
		ActivityID: activityID,
		Content:    content,
		Timestamp:  nowUTC(),
	}
	if updateErr := m.service.UpdateActivity(ctx, request); updateErr != nil {
		observability.RecordOperation("update", string(updateErr.Code))
		return false, updateErr
	}
	observability.RecordOperation("update", "ok")
	return true, nil
}

// EndActivity parses end options and ends the activity, reporting success.
// Options may carry "finalContent" and "dismissalPolicy".
func (m *Module) EndActivity(ctx context.Context, activityID string, options map[string]any) (bool, error) {
	request := domain.EndRequest{
		ActivityID:      activityID,
		DismissalPolicy: domain.DismissalDefault,
	}
	if options != nil {
		if raw, ok := options["finalContent"].(map[string]any); ok {
			content, err := parseActivityContent(raw)
			if err != nil {
				observability.RecordOperation("end", string(domain.CodeInvalidConfiguration))
				return false, err
			}
			request.FinalContent = &content
		}
		if policy, ok := options["dismissalPolicy"].(string); ok {
			request.DismissalPolicy = domain.ParseDismissalPolicy(policy)
		}
	}

	if endErr := m.service.EndActivity(ctx, request); endErr != nil {
		observability.RecordOperation("end", string(endErr.Code))
		return false, endErr
	}
	observability.RecordOperation("end", "ok")
	observability.DecActiveActivities()
	return true, nil
}

// GetActiveActivities lists serialized active instances. It never fails; an
// internal error yields an empty list.
func (m *Module) GetActiveActivities(ctx context.Context) []map[string]any {
	instances, err := m.service.GetActiveActivities(ctx)
	if err != nil {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(instances))
	for _, instance := range instances {
		out = append(out, serializeActivity(instance))
	}
	return out
}

// GetActivity returns the serialized instance, or nil when unknown. It never
// fails; an internal error yields nil.
func (m *Module) GetActivity(ctx context.Context, activityID string) map[string]any {
	instance, err := m.service.GetActivity(ctx, activityID)
	if err != nil || instance == nil {
		return nil
	}
	return serializeActivity(*instance)
}

// ValidateActivityConfig runs parse plus semantic validation and always
// returns a structured result, never an error.
func (m *Module) ValidateActivityConfig(configObject map[string]any) map[string]any {
	config, err := parseActivityConfig(configObject)
	if err != nil {
		return map[string]any{
			"isValid": false,
			"errors": []map[string]any{
				{"field": "config", "message": err.Error()},
			},
		}
	}

	result := m.validator.Validate(config)
	errs := make([]map[string]any, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, map[string]any{"field": e.Field, "message": e.Message})
	}
	return map[string]any{"isValid": result.IsValid, "errors": errs}
}

// HandleUserAction routes a native-originated tap into the shared event
// stream, where the dispatch loop forwards it to listeners.
func (m *Module) HandleUserAction(activityID, actionID string) {
	m.service.PublishUserAction(activityID, actionID)
}

func (m *Module) dispatch(stream <-chan domain.Event) {
	defer close(m.done)
	for event := range stream {
		m.deliver(event)
	}
}

func (m *Module) deliver(event domain.Event) {
	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		switch event.Kind {
		case domain.EventStarted:
			if event.Activity != nil {
				l.OnActivityUpdate(map[string]any{
					"type":     "started",
					"activity": serializeActivity(*event.Activity),
				})
			}
		case domain.EventUpdated:
			if event.Update != nil {
				l.OnActivityUpdate(map[string]any{
					"type":       "updated",
					"activityId": event.Update.ActivityID,
					"content":    serializeActivityContent(event.Update.Content),
					"timestamp":  epochSeconds(event.Update.Timestamp),
				})
			}
		case domain.EventEnded:
			if event.End != nil {
				payload := map[string]any{
					"activityId":      event.End.ActivityID,
					"dismissalPolicy": string(event.End.DismissalPolicy),
				}
				if event.End.FinalContent != nil {
					payload["finalContent"] = serializeActivityContent(*event.End.FinalContent)
				}
				l.OnActivityEnd(payload)
			}
		case domain.EventUserAction:
			if event.Action != nil {
				l.OnUserAction(map[string]any{
					"activityId": event.Action.ActivityID,
					"actionId":   event.Action.ActionID,
					"timestamp":  epochSeconds(event.Action.Timestamp),
				})
			}
		case domain.EventError:
			if event.Err != nil {
				l.OnError(map[string]any{
					"code":    string(event.Err.Code),
					"message": event.Err.Message,
				})
			}
		}
	}
}
