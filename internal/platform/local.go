// Package platform hosts presentation backends implementing the narrow
// start/update/end contract the lifecycle service consumes.
package platform

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/platform/render"
)

// autoDismissDelay approximates how long the OS keeps a final frame up under
// the default dismissal policy before removing it on its own schedule.
const autoDismissDelay = 5 * time.Second

// PresentationState tracks where a native presentation is in its lifetime.
type PresentationState string

const (
	// PresentationActive is a live, updatable presentation.
	PresentationActive PresentationState = "active"
	// PresentationEnding shows final content and awaits dismissal.
	PresentationEnding PresentationState = "ending"
)

// Presentation is one native surface owned by the local manager.
type Presentation struct {
	NativeID string
	Config   domain.ActivityConfig
	Content  domain.ActivityContent
	State    PresentationState
	Model    render.PresentationModel
}

// LocalManager is an in-process presentation backend. It plays the role the
// OS notification manager plays on device: it owns native handles, honors
// dismissal policies, and surfaces user taps back to a registered handler.
type LocalManager struct {
	mu            sync.Mutex
	presentations map[string]*Presentation
	supported     bool
	permitted     bool
	onAction      func(activityID, actionID string)
	autoDismiss   time.Duration
}

// Option configures a LocalManager.
type Option func(*LocalManager)

// WithoutSupport makes the manager report live activities as unsupported.
func WithoutSupport() Option {
	return func(m *LocalManager) { m.supported = false }
}

// WithoutPermission makes every start fail with PERMISSION_DENIED.
func WithoutPermission() Option {
	return func(m *LocalManager) { m.permitted = false }
}

// WithAutoDismissDelay overrides the default-policy dismissal delay.
func WithAutoDismissDelay(d time.Duration) Option {
	return func(m *LocalManager) { m.autoDismiss = d }
}

// NewLocalManager constructs a LocalManager.
func NewLocalManager(opts ...Option) *LocalManager {
	m := &LocalManager{
		presentations: make(map[string]*Presentation),
		supported:     true,
		permitted:     true,
		autoDismiss:   autoDismissDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetActionHandler registers the callback invoked when a user taps an action.
func (m *LocalManager) SetActionHandler(handler func(activityID, actionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAction = handler
}

// IsSupported reports whether the backend can present activities at all.
func (m *LocalManager) IsSupported() bool {
	return m.supported
}

// StartActivity creates a presentation and returns its opaque native handle.
func (m *LocalManager) StartActivity(ctx context.Context, config domain.ActivityConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !m.supported {
		return "", domain.ErrSystemNotSupported()
	}
	if !m.permitted {
		return "", domain.ErrPermissionDenied()
	}

	nativeID := "notification_" + uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.presentations[nativeID] = &Presentation{
		NativeID: nativeID,
		Config:   config,
		Content:  config.Content,
		State:    PresentationActive,
		Model:    render.Template(config.Type, config.Content),
	}
	return nativeID, nil
}

// UpdateActivity re-renders an existing presentation with new content.
func (m *LocalManager) UpdateActivity(ctx context.Context, nativeID string, content domain.ActivityContent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	presentation, ok := m.presentations[nativeID]
	if !ok || presentation.State != PresentationActive {
		return domain.ErrActivityNotFound(nativeID)
	}
	presentation.Content = content
	presentation.Model = render.Template(presentation.Config.Type, content)
	return nil
}

// EndActivity removes the presentation under the requested dismissal policy.
func (m *LocalManager) EndActivity(ctx context.Context, nativeID string, finalContent *domain.ActivityContent, policy domain.DismissalPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	presentation, ok := m.presentations[nativeID]
	if !ok {
		return domain.ErrActivityNotFound(nativeID)
	}

	switch policy {
	case domain.DismissalImmediate:
		delete(m.presentations, nativeID)
	case domain.DismissalDefault:
		if finalContent == nil {
			delete(m.presentations, nativeID)
			return nil
		}
		m.showFinal(presentation, *finalContent)
		time.AfterFunc(m.autoDismiss, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.presentations, nativeID)
		})
	case domain.DismissalAfter:
		// Without final content there is nothing to keep up.
		if finalContent == nil {
			delete(m.presentations, nativeID)
			return nil
		}
		m.showFinal(presentation, *finalContent)
	default:
		delete(m.presentations, nativeID)
	}
	return nil
}

func (m *LocalManager) showFinal(presentation *Presentation, content domain.ActivityContent) {
	presentation.Content = content
	presentation.State = PresentationEnding
	presentation.Model = render.Template(presentation.Config.Type, content)
}

// Dismiss removes a presentation left up under the after policy. It stands in
// for the user swiping the surface away.
func (m *LocalManager) Dismiss(nativeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.presentations, nativeID)
}

// TriggerAction simulates a user tapping one of the presentation's actions,
// the way the OS broadcast receiver would on device. Unknown handles and
// unknown action ids are ignored.
func (m *LocalManager) TriggerAction(nativeID, actionID string) {
	m.mu.Lock()
	presentation, ok := m.presentations[nativeID]
	handler := m.onAction
	m.mu.Unlock()

	if !ok || handler == nil {
		return
	}
	for _, action := range presentation.Config.Actions {
		if action.ID == actionID {
			handler(presentation.Config.ID, actionID)
			return
		}
	}
}

// Snapshot returns a copy of the presentation for a handle, nil when absent.
func (m *LocalManager) Snapshot(nativeID string) *Presentation {
	m.mu.Lock()
	defer m.mu.Unlock()
	presentation, ok := m.presentations[nativeID]
	if !ok {
		return nil
	}
	out := *presentation
	return &out
}

// ActiveCount reports how many presentations are currently up.
func (m *LocalManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.presentations)
}
