package admin

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"sndctl/internal/api"
	"sndctl/internal/logging"
	"sndctl/internal/query"
)

// AvailableFormats lists the MIME types the settings form can toggle.
var AvailableFormats = []string{"audio/ogg", "audio/mpeg", "audio/wav"}

// settingsKey is the singleton cache key for the global settings record.
type settingsKey struct{}

// SettingsView caches the global limits record and validates edits before
// they reach the server. Writable only by admins; last writer wins.
type SettingsView struct {
	store    Store
	cache    *query.Cache[settingsKey, *api.Settings]
	validate *validator.Validate
	logger   logging.Logger
}

// NewSettingsView creates a settings view.
func NewSettingsView(store Store, logger logging.Logger) *SettingsView {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	v := &SettingsView{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
	v.cache = query.NewCache(func(ctx context.Context, _ settingsKey) (*api.Settings, error) {
		return store.GetSettings(ctx)
	})
	return v
}

// Get returns the settings record, fetching it on a cache miss.
func (v *SettingsView) Get(ctx context.Context) (*api.Settings, error) {
	return v.cache.Get(ctx, settingsKey{})
}

// Update validates and submits a full settings record, then invalidates
// the cached copy. At least one allowed format must remain.
func (v *SettingsView) Update(ctx context.Context, s api.Settings) (*api.Settings, error) {
	if err := v.validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	for _, f := range s.AllowedFormats {
		if !slices.Contains(AvailableFormats, f) {
			return nil, fmt.Errorf("invalid settings: unknown format %q", f)
		}
	}

	updated, err := v.store.UpdateSettings(ctx, s)
	if err != nil {
		return nil, err
	}
	v.logger.Info("settings updated",
		"maxSoundsPerUser", updated.MaxSoundsPerUser,
		"maxFileSize", updated.MaxFileSize,
		"maxDuration", updated.MaxDuration,
		"cooldownSeconds", updated.CooldownSeconds)
	v.cache.Invalidate()
	return updated, nil
}

// ToggleFormat adds or removes a format from the set and returns the
// result. Removing the last remaining format is a no-op: the set must
// never become empty.
func ToggleFormat(formats []string, format string) []string {
	if slices.Contains(formats, format) {
		if len(formats) <= 1 {
			return formats
		}
		out := make([]string, 0, len(formats)-1)
		for _, f := range formats {
			if f != format {
				out = append(out, f)
			}
		}
		return out
	}
	return append(slices.Clone(formats), format)
}
