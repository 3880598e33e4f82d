package dashboard

import "strings"

// ApplyFilter shows only the rendered world cards whose name contains the
// query, case-insensitively. It toggles visibility without removing or
// reordering cards, and is correct to call at any time: it projects over
// whatever the last render produced, stale or fresh. An empty query shows
// everything.
func (e *Engine) ApplyFilter(query string) {
	q := strings.ToLower(query)

	e.mu.RLock()
	cards := e.worldCards
	e.mu.RUnlock()

	for i := range cards {
		e.port.SetWorldVisible(i, strings.Contains(cards[i].NameKey, q))
	}
}
