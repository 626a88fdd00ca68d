// Package memory provides a volatile, map-backed activity repository.
package memory

import (
	"context"
	"sync"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

// Repository is an in-memory implementation of domain.Repository. A single
// lock serializes writes; reads hand out copies so callers can never mutate
// the stored record in place.
type Repository struct {
	mu         sync.RWMutex
	activities map[string]domain.LiveActivityInstance
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{activities: make(map[string]domain.LiveActivityInstance)}
}

// Save upserts the instance under its id.
func (r *Repository) Save(ctx context.Context, instance domain.LiveActivityInstance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[instance.ID] = clone(instance)
	return nil
}

// FindByID returns the stored instance, or nil when unknown. It never errors
// on absence.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.LiveActivityInstance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.activities[id]
	if !ok {
		return nil, nil
	}
	out := clone(instance)
	return &out, nil
}

// FindAllActive lists instances with IsActive set, in no particular order.
func (r *Repository) FindAllActive(ctx context.Context) ([]domain.LiveActivityInstance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.LiveActivityInstance, 0, len(r.activities))
	for _, instance := range r.activities {
		if instance.IsActive {
			out = append(out, clone(instance))
		}
	}
	return out, nil
}

// Update replaces an existing record, failing with domain.ErrNotFound when no
// record exists for the id.
func (r *Repository) Update(ctx context.Context, instance domain.LiveActivityInstance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activities[instance.ID]; !ok {
		return domain.ErrNotFound
	}
	r.activities[instance.ID] = clone(instance)
	return nil
}

// Delete removes the record if present. Deleting an unknown id is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activities, id)
	return nil
}

func clone(instance domain.LiveActivityInstance) domain.LiveActivityInstance {
	out := instance
	if len(instance.Config.Actions) > 0 {
		out.Config.Actions = append([]domain.ActivityAction(nil), instance.Config.Actions...)
	}
	out.Config.Content = cloneContent(instance.Config.Content)
	if instance.Config.ExpirationDate != nil {
		expiry := *instance.Config.ExpirationDate
		out.Config.ExpirationDate = &expiry
	}
	return out
}

func cloneContent(content domain.ActivityContent) domain.ActivityContent {
	out := content
	if content.Status != nil {
		v := *content.Status
		out.Status = &v
	}
	if content.Progress != nil {
		v := *content.Progress
		out.Progress = &v
	}
	if content.Message != nil {
		v := *content.Message
		out.Message = &v
	}
	if content.EstimatedTime != nil {
		v := *content.EstimatedTime
		out.EstimatedTime = &v
	}
	if len(content.CustomData) > 0 {
		data := make(map[string]any, len(content.CustomData))
		for k, v := range content.CustomData {
			data[k] = v
		}
		out.CustomData = data
	}
	return out
}
