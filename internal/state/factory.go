package state

import (
	"fmt"
	"os"
	"path/filepath"

	"sndctl/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the state
// config type. The sqlite store lives under DataDir, one file per client
// instance.
func NewStoreFromConfig(cfg config.StateConfig, clientID string) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite state")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		return Open(filepath.Join(cfg.DataDir, clientID+".db"))
	case "memory":
		return Open(":memory:")
	default:
		return nil, fmt.Errorf("unknown state type: %s", cfg.Type)
	}
}
