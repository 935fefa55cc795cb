package store

import (
	"context"

	"go.uber.org/zap"
)

// SelectorConfig is the startup choice of backend.
type SelectorConfig struct {
	Preferred Backend // remote tries the remote service first; embedded skips it
	Remote    RemoteConfig
	Embedded  EmbeddedConfig
}

// Selection is the outcome of the one-time backend choice.
type Selection struct {
	Store       Store
	RemoteErr   error // nil when remote succeeded or was not attempted
	EmbeddedErr error // nil when embedded succeeded or was not attempted
	Attempted   []Backend
}

// Backend returns the backend that was published.
func (s *Selection) Backend() Backend {
	return s.Store.Backend()
}

// Degraded reports whether the preferred backend could not be used.
func (s *Selection) Degraded() bool {
	return s.RemoteErr != nil || s.EmbeddedErr != nil
}

// Select picks the store for the life of the process: the remote backend
// when preferred and reachable, else the embedded one, else NoStore.
// It never fails.
func Select(ctx context.Context, cfg SelectorConfig, logger *zap.Logger) *Selection {
	if logger == nil {
		logger = zap.NewNop()
	}
	sel := &Selection{}

	if cfg.Preferred != BackendEmbedded {
		sel.Attempted = append(sel.Attempted, BackendRemote)
		s, err := Open(ctx, OpenOptions{Backend: BackendRemote, Remote: cfg.Remote}, logger)
		if err == nil {
			sel.Store = s
			return sel
		}
		sel.RemoteErr = err
		logger.Warn("Remote store unavailable, falling back to embedded",
			zap.String("driver", cfg.Remote.Driver),
			zap.String("host", cfg.Remote.Host),
			zap.Error(err))
	}

	sel.Attempted = append(sel.Attempted, BackendEmbedded)
	s, err := Open(ctx, OpenOptions{Backend: BackendEmbedded, Embedded: cfg.Embedded}, logger)
	if err == nil {
		sel.Store = s
		return sel
	}
	sel.EmbeddedErr = err
	logger.Error("Embedded store unavailable, reports will not be persisted", zap.Error(err))

	sel.Store = NoStore{}
	return sel
}
