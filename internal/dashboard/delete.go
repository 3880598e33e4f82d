package dashboard

import (
	"context"
	"fmt"

	"github.com/pv/foundry-portal/internal/logger"
)

// Confirmer approves a destructive action before it runs. Non-interactive
// callers must still provide one; deletion never proceeds unconfirmed.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Notifier surfaces user-visible failures.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// DeleteWorld removes one world from the server-side history. On reported
// success it forces an immediate world re-fetch (the instance snapshot waits
// for its own timer). On any failure the gallery is left exactly as it was:
// no optimistic removal, no re-fetch.
func (e *Engine) DeleteWorld(ctx context.Context, card WorldCard, confirm Confirmer, notify Notifier) {
	if !e.Session().Admin {
		notifyMessage(notify, "Admin login required")
		return
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Remove %q from world history?", card.Name)) {
		return
	}

	ok, err := e.client.DeleteWorld(ctx, card.Key)
	if err != nil {
		logger.Warn("Delete world failed", "key", card.Key, "error", err)
		notifyMessage(notify, "Error deleting world")
		return
	}
	if !ok {
		notifyMessage(notify, "Failed to delete world")
		return
	}

	e.RefreshWorlds(ctx)
}

func notifyMessage(n Notifier, message string) {
	if n != nil {
		n.Notify(message)
	}
}
