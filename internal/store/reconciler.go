package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/calpane/calpane/internal/cloudconfig"
	"github.com/calpane/calpane/internal/cloudstore"
	"github.com/calpane/calpane/internal/model"
)

// Reconciler moves configuration between the remote store and the local
// feature stores. Remote state is applied via each store's SetAll; local
// edits come back through Snapshot and a scheduled write.
type Reconciler struct {
	categories *CategoryStore
	filters    *FilterStore
	calendars  *CalendarStore
	remote     cloudstore.Store
	deviceID   string
	now        func() time.Time
}

// NewReconciler creates a Reconciler. deviceID identifies this install in
// written configs.
func NewReconciler(categories *CategoryStore, filters *FilterStore, calendars *CalendarStore, remote cloudstore.Store, deviceID string) *Reconciler {
	return &Reconciler{
		categories: categories,
		filters:    filters,
		calendars:  calendars,
		remote:     remote,
		deviceID:   deviceID,
		now:        time.Now,
	}
}

// Sync pulls the remote config and applies it to the feature stores. When no
// remote file exists yet, the current local state is pushed instead, seeding
// the remote. Returns the applied config, or nil when the sync seeded.
func (r *Reconciler) Sync(ctx context.Context) (*model.CloudConfig, error) {
	raw, err := r.remote.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote config: %w", err)
	}
	if raw == nil {
		if err := r.Push(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	cfg, err := cloudconfig.Sanitize(raw)
	if err != nil {
		return nil, err
	}
	r.Apply(cfg)
	return cfg, nil
}

// Apply fans a validated config out to the feature stores.
func (r *Reconciler) Apply(cfg *model.CloudConfig) {
	r.categories.SetAll(cfg.CustomCategories, cfg.DisabledBuiltInCategories)
	r.filters.SetAll(cfg.Filters)
	r.calendars.SetAll(cfg.DisabledCalendars)
}

// Push writes the current local state to the remote store, whole.
func (r *Reconciler) Push(ctx context.Context) error {
	cfg := r.Snapshot()
	content, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := r.remote.Write(ctx, content); err != nil {
		return fmt.Errorf("failed to write remote config: %w", err)
	}
	return nil
}

// Delete removes the remote config file.
func (r *Reconciler) Delete(ctx context.Context) error {
	return r.remote.Delete(ctx)
}

// Snapshot assembles the full cloud config from the feature stores, stamped
// with a fresh UpdatedAt and this install's device id.
func (r *Reconciler) Snapshot() model.CloudConfig {
	return model.CloudConfig{
		Version:                   model.ConfigVersion,
		UpdatedAt:                 r.now().UnixMilli(),
		DeviceID:                  r.deviceID,
		Filters:                   r.filters.Get(),
		DisabledCalendars:         r.calendars.Get(),
		DisabledBuiltInCategories: r.categories.DisabledBuiltIn(),
		CustomCategories:          r.categories.Custom(),
	}
}

// FlushFunc returns the function a Scheduler should call on debounce
// expiry. Write failures are logged, never propagated: local stores stay
// authoritative and editable regardless of remote availability.
func (r *Reconciler) FlushFunc(ctx context.Context) func() {
	return func() {
		if err := r.Push(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled cloud write failed")
		}
	}
}
