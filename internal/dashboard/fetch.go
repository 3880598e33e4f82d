package dashboard

import (
	"context"

	"github.com/pv/foundry-portal/internal/logger"
)

// gated reports whether polling is suppressed. An unconfigured portal or a
// view-locked session means the backend would reject the call, so the
// fetchers must not even try.
func (e *Engine) gated() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.session.Configured || e.session.ViewerLocked
}

// RefreshSession pulls the gate flags from the server. A failed fetch keeps
// the previous state.
func (e *Engine) RefreshSession(ctx context.Context) {
	state, err := e.client.SessionState(ctx)
	if err != nil {
		logger.Warn("Session state fetch failed", "error", err)
		return
	}
	e.SetSession(*state)
}

// RefreshInstances polls the instance snapshot and rebuilds the instance
// list. A gated session is a no-op; any failed poll (transport error or
// error status alike) logs and leaves the previous render untouched.
func (e *Engine) RefreshInstances(ctx context.Context) {
	if e.gated() {
		return
	}

	instances, err := e.client.InstanceStatus(ctx)
	if err != nil {
		logger.Warn("Instance status poll failed", "error", err)
		return
	}

	e.renderInstances(ctx, instances)
}

// RefreshWorlds polls the world snapshot and rebuilds the gallery, with the
// same gating and failure behavior as RefreshInstances.
func (e *Engine) RefreshWorlds(ctx context.Context) {
	if e.gated() {
		return
	}

	worlds, err := e.client.Worlds(ctx)
	if err != nil {
		logger.Warn("World poll failed", "error", err)
		return
	}

	e.renderWorlds(ctx, worlds)
}
