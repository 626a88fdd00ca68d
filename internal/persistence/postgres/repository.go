// Package postgres provides pgx-backed persistence for live activity records.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

// Repository stores activity instances in a single table keyed by activity id.
// Row-level locking gives the per-id serialization the contract requires.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schema = `CREATE TABLE IF NOT EXISTS live_activities (
    activity_id        TEXT PRIMARY KEY,
    config             JSONB NOT NULL,
    is_active          BOOLEAN NOT NULL,
    native_activity_id TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS live_activities_active_idx ON live_activities (is_active) WHERE is_active`

// EnsureSchema creates the backing table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Save upserts the instance under its id.
func (r *Repository) Save(ctx context.Context, instance domain.LiveActivityInstance) error {
	body, err := marshalConfig(instance.Config)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO live_activities (activity_id, config, is_active, native_activity_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (activity_id) DO UPDATE SET
            config = EXCLUDED.config,
            is_active = EXCLUDED.is_active,
            native_activity_id = EXCLUDED.native_activity_id,
            created_at = EXCLUDED.created_at,
            updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, stmt,
		instance.ID,
		body,
		instance.IsActive,
		instance.NativeActivityID,
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	return err
}

// FindByID returns the stored instance, or nil when unknown.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.LiveActivityInstance, error) {
	const query = `SELECT activity_id, config, is_active, native_activity_id, created_at, updated_at
        FROM live_activities WHERE activity_id=$1`

	row := r.pool.QueryRow(ctx, query, id)
	instance, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return instance, nil
}

// FindAllActive lists instances with is_active set. Order is unspecified.
func (r *Repository) FindAllActive(ctx context.Context) ([]domain.LiveActivityInstance, error) {
	const query = `SELECT activity_id, config, is_active, native_activity_id, created_at, updated_at
        FROM live_activities WHERE is_active`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.LiveActivityInstance, 0)
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *instance)
	}
	return results, rows.Err()
}

// Update replaces an existing record, failing with domain.ErrNotFound when the
// id was never saved.
func (r *Repository) Update(ctx context.Context, instance domain.LiveActivityInstance) error {
	body, err := marshalConfig(instance.Config)
	if err != nil {
		return err
	}

	const stmt = `UPDATE live_activities SET
            config = $2,
            is_active = $3,
            native_activity_id = $4,
            created_at = $5,
            updated_at = $6
        WHERE activity_id = $1`

	tag, err := r.pool.Exec(ctx, stmt,
		instance.ID,
		body,
		instance.IsActive,
		instance.NativeActivityID,
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the record if present. Unknown ids are a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM live_activities WHERE activity_id=$1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*domain.LiveActivityInstance, error) {
	var (
		instance domain.LiveActivityInstance
		body     []byte
	)
	if err := row.Scan(&instance.ID, &body, &instance.IsActive, &instance.NativeActivityID, &instance.CreatedAt, &instance.UpdatedAt); err != nil {
		return nil, err
	}
	config, err := unmarshalConfig(body)
	if err != nil {
		return nil, fmt.Errorf("decode config for %s: %w", instance.ID, err)
	}
	instance.Config = config
	instance.CreatedAt = instance.CreatedAt.UTC()
	instance.UpdatedAt = instance.UpdatedAt.UTC()
	return &instance, nil
}

// storedConfig is the JSONB shape of an activity config. Field names mirror
// the external wire format so rows stay readable from SQL.
type storedConfig struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Content        storedContent  `json:"content"`
	Actions        []storedAction `json:"actions,omitempty"`
	ExpirationDate *time.Time     `json:"expirationDate,omitempty"`
	Priority       string         `json:"priority"`
}

type storedContent struct {
	Status        *string        `json:"status,omitempty"`
	Progress      *float64       `json:"progress,omitempty"`
	Message       *string        `json:"message,omitempty"`
	EstimatedTime *int           `json:"estimatedTime,omitempty"`
	CustomData    map[string]any `json:"customData,omitempty"`
}

type storedAction struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Icon          string `json:"icon,omitempty"`
	IsDestructive bool   `json:"destructive,omitempty"`
	DeepLink      string `json:"deepLink,omitempty"`
}

func marshalConfig(config domain.ActivityConfig) ([]byte, error) {
	stored := storedConfig{
		ID:             config.ID,
		Type:           string(config.Type),
		Title:          config.Title,
		ExpirationDate: config.ExpirationDate,
		Priority:       string(config.Priority),
		Content: storedContent{
			Status:        config.Content.Status,
			Progress:      config.Content.Progress,
			Message:       config.Content.Message,
			EstimatedTime: config.Content.EstimatedTime,
			CustomData:    config.Content.CustomData,
		},
	}
	for _, action := range config.Actions {
		stored.Actions = append(stored.Actions, storedAction(action))
	}
	return json.Marshal(stored)
}

func unmarshalConfig(body []byte) (domain.ActivityConfig, error) {
	var stored storedConfig
	if err := json.Unmarshal(body, &stored); err != nil {
		return domain.ActivityConfig{}, err
	}
	config := domain.ActivityConfig{
		ID:             stored.ID,
		Type:           domain.ActivityType(stored.Type),
		Title:          stored.Title,
		ExpirationDate: stored.ExpirationDate,
		Priority:       domain.Priority(stored.Priority),
		Content: domain.ActivityContent{
			Status:        stored.Content.Status,
			Progress:      stored.Content.Progress,
			Message:       stored.Content.Message,
			EstimatedTime: stored.Content.EstimatedTime,
			CustomData:    stored.Content.CustomData,
		},
	}
	for _, action := range stored.Actions {
		config.Actions = append(config.Actions, domain.ActivityAction(action))
	}
	return config, nil
}
