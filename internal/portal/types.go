package portal

import "time"

// Status classifies an instance or a world as seen by the latest poll.
type Status string

const (
	// StatusActive - the instance is serving a world right now.
	StatusActive Status = "active"
	// StatusIdle - the instance answers but no world is running.
	StatusIdle Status = "idle"
	// StatusOffline - the instance is unreachable.
	StatusOffline Status = "offline"
)

// ActiveWorld describes the world an instance is currently serving.
type ActiveWorld struct {
	Name       string `json:"name"`
	Background string `json:"background,omitempty"`
	Players    string `json:"players"`
}

// Instance is one monitored Foundry endpoint in the current snapshot.
// Snapshots are produced fresh on every poll and replaced wholesale.
type Instance struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Status      Status       `json:"status"`
	Background  string       `json:"background,omitempty"`
	ActiveWorld *ActiveWorld `json:"active_world,omitempty"`
}

// World is one entry of the cross-instance world history. A world stays in
// history after it stops running; LastSeen keeps the moment it was last
// observed active.
type World struct {
	Name                string    `json:"name"`
	InstanceName        string    `json:"instance_name"`
	InstanceURL         string    `json:"instance_url"`
	Status              Status    `json:"status"`
	LastSeen            time.Time `json:"last_seen"`
	CachedBackgroundURL string    `json:"cached_background_url,omitempty"`
}
