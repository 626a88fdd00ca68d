package domain

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is the sentinel repositories return from Update when no record
// exists for the id. It distinguishes a legitimate mutation from a blind
// overwrite; Save carries no such precondition.
var ErrNotFound = errors.New("activity record not found")

// Repository stores activity instances keyed by id, at most one record per id.
// Implementations must be safe for concurrent use across ids and must
// serialize Save/Update/Delete on the same id.
type Repository interface {
	Save(ctx context.Context, instance LiveActivityInstance) error
	FindByID(ctx context.Context, id string) (*LiveActivityInstance, error)
	FindAllActive(ctx context.Context) ([]LiveActivityInstance, error)
	Update(ctx context.Context, instance LiveActivityInstance) error
	Delete(ctx context.Context, id string) error
}

// PlatformManager is the narrow contract to the native presentation primitive.
// It is an external collaborator; the service never retries its failures.
type PlatformManager interface {
	IsSupported() bool
	StartActivity(ctx context.Context, config ActivityConfig) (string, error)
	UpdateActivity(ctx context.Context, nativeID string, content ActivityContent) error
	EndActivity(ctx context.Context, nativeID string, finalContent *ActivityContent, policy DismissalPolicy) error
}

// EventPublisher broadcasts domain events. Publish must never block the caller.
type EventPublisher interface {
	Publish(event Event)
}

// Service sequences validation, duplicate checks, platform calls, repository
// writes, rollback, and event emission for the activity lifecycle.
type Service struct {
	platform  PlatformManager
	repo      Repository
	validator *Validator
	events    EventPublisher
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*idLock
}

// idLock serializes lifecycle operations on a single activity id. Operations
// on distinct ids never block each other.
type idLock struct {
	sync.Mutex
	refs int
}

// NewService constructs a Service. The publisher must be injected, never
// reached through ambient lookup.
func NewService(platform PlatformManager, repo Repository, validator *Validator, events EventPublisher) *Service {
	return &Service{
		platform:  platform,
		repo:      repo,
		validator: validator,
		events:    events,
		now:       time.Now,
		locks:     make(map[string]*idLock),
	}
}

func (s *Service) lock(id string) *idLock {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()
	l.Lock()
	return l
}

func (s *Service) unlock(id string, l *idLock) {
	l.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// fail emits exactly one Error event and returns the error. Every failure the
// service observes travels both channels: the event stream and the caller.
func (s *Service) fail(err *Error) *Error {
	s.events.Publish(Event{Kind: EventError, Err: err})
	return err
}

// StartActivity validates config, rejects duplicates, starts the platform
// presentation, and persists the new instance. A persistence failure after a
// successful platform start triggers the single compensating action: the
// just-created presentation is ended immediately so no orphan survives.
func (s *Service) StartActivity(ctx context.Context, config ActivityConfig) (*LiveActivityInstance, *Error) {
	if result := s.validator.Validate(config); !result.IsValid {
		return nil, s.fail(ErrInvalidConfiguration(joinValidationErrors(result.Errors)))
	}

	l := s.lock(config.ID)
	defer s.unlock(config.ID, l)

	existing, err := s.repo.FindByID(ctx, config.ID)
	if err != nil {
		return nil, s.fail(AsError(err))
	}
	// A found-but-inactive record is not a blocker: restarting an ended id
	// begins a fresh lifecycle over the old record.
	if existing != nil && existing.IsActive {
		return nil, s.fail(ErrAlreadyStarted(config.ID))
	}

	nativeID, err := s.platform.StartActivity(ctx, config)
	if err != nil {
		return nil, s.fail(AsError(err))
	}

	now := s.now().UTC()
	instance := LiveActivityInstance{
		ID:               config.ID,
		Config:           config,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
		NativeActivityID: nativeID,
	}

	if err := s.repo.Save(ctx, instance); err != nil {
		// Rollback: tear down the native presentation we just created.
		_ = s.platform.EndActivity(ctx, nativeID, nil, DismissalImmediate)
		return nil, s.fail(AsError(err))
	}

	s.events.Publish(Event{Kind: EventStarted, Activity: &instance})
	return &instance, nil
}

// UpdateActivity replaces the content of an active activity. Title, type, and
// actions are immutable after start.
func (s *Service) UpdateActivity(ctx context.Context, request UpdateRequest) *Error {
	l := s.lock(request.ActivityID)
	defer s.unlock(request.ActivityID, l)

	instance, err := s.repo.FindByID(ctx, request.ActivityID)
	if err != nil {
		return s.fail(AsError(err))
	}
	if instance == nil || !instance.IsActive {
		return s.fail(ErrActivityNotFound(request.ActivityID))
	}
	if instance.NativeActivityID == "" {
		// Start always records a handle; a missing one is a violated invariant.
		return s.fail(ErrUnknown("activity has no native handle", nil))
	}

	if err := s.platform.UpdateActivity(ctx, instance.NativeActivityID, request.Content); err != nil {
		return s.fail(AsError(err))
	}

	updated := *instance
	updated.Config.Content = request.Content
	updated.UpdatedAt = request.Timestamp.UTC()
	if err := s.repo.Update(ctx, updated); err != nil {
		// Known eventual-consistency gap: the platform presentation already
		// changed and is not undone here.
		return s.fail(AsError(err))
	}

	s.events.Publish(Event{Kind: EventUpdated, Update: &request})
	return nil
}

// EndActivity ends the platform presentation under the requested dismissal
// policy and marks the record inactive. Unlike UpdateActivity it does not
// require the record to still be active: re-ending an already-ended record's
// handle is tolerated as a best-effort no-op at the platform layer.
func (s *Service) EndActivity(ctx context.Context, request EndRequest) *Error {
	l := s.lock(request.ActivityID)
	defer s.unlock(request.ActivityID, l)

	instance, err := s.repo.FindByID(ctx, request.ActivityID)
	if err != nil {
		return s.fail(AsError(err))
	}
	if instance == nil {
		return s.fail(ErrActivityNotFound(request.ActivityID))
	}
	if instance.NativeActivityID == "" {
		return s.fail(ErrUnknown("activity has no native handle", nil))
	}

	if err := s.platform.EndActivity(ctx, instance.NativeActivityID, request.FinalContent, request.DismissalPolicy); err != nil {
		return s.fail(AsError(err))
	}

	ended := *instance
	if request.FinalContent != nil {
		ended.Config.Content = *request.FinalContent
	}
	ended.IsActive = false
	ended.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, ended); err != nil {
		return s.fail(AsError(err))
	}

	s.events.Publish(Event{Kind: EventEnded, End: &request})
	return nil
}

// GetActivity fetches a single record, nil when unknown.
func (s *Service) GetActivity(ctx context.Context, id string) (*LiveActivityInstance, *Error) {
	instance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, AsError(err)
	}
	return instance, nil
}

// GetActiveActivities lists all records with IsActive set. Order is unspecified.
func (s *Service) GetActiveActivities(ctx context.Context) ([]LiveActivityInstance, *Error) {
	instances, err := s.repo.FindAllActive(ctx)
	if err != nil {
		return nil, AsError(err)
	}
	return instances, nil
}

// Validate runs the config validator without touching any state.
func (s *Service) Validate(config ActivityConfig) ValidationResult {
	return s.validator.Validate(config)
}

// PublishUserAction routes a native-originated tap into the event stream.
func (s *Service) PublishUserAction(activityID, actionID string) {
	s.events.Publish(Event{Kind: EventUserAction, Action: &UserAction{
		ActivityID: activityID,
		ActionID:   actionID,
		Timestamp:  s.now().UTC(),
	}})
}

func joinValidationErrors(errs []ValidationError) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += ", "
		}
		out += e.Field + ": " + e.Message
	}
	return out
}
