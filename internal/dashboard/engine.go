package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pv/foundry-portal/internal/portal"
)

// NoWorldsPlaceholder must be shown by a RenderPort instead of an empty
// world gallery.
const NoWorldsPlaceholder = "No worlds discovered yet."

// RenderPort is the surface the engine draws on. Each Render* call replaces
// that surface wholesale; the Set* calls address cards of the most recent
// render by index. Implementations must not call back into the engine.
type RenderPort interface {
	RenderInstances(cards []InstanceCard)
	RenderWorlds(cards []WorldCard)
	SetInstanceBackground(index int, url string)
	SetWorldBackground(index int, url string)
	SetWorldVisible(index int, visible bool)
}

// InstanceCard is the view record for one monitored instance.
type InstanceCard struct {
	Name       string
	URL        string
	Status     portal.Status
	StatusTip  string
	Background string // candidate reference; the image pipeline resolves it
}

// WorldCard is the view record for one world gallery entry.
type WorldCard struct {
	Name         string
	NameKey      string // lower-cased name, precomputed for the filter
	InstanceName string
	InstanceURL  string
	Status       portal.Status
	StatusTip    string
	JoinURL      string // set only while the world is active
	TimeLabel    string
	Players      string // empty when the snapshot join found no match
	Key          string // composite token for the delete command
	CanDelete    bool
	Background   string
}

var statusDescriptions = map[portal.Status]string{
	portal.StatusActive:  "World is currently running",
	portal.StatusIdle:    "Instance online, world not running",
	portal.StatusOffline: "Instance is offline",
}

// StatusDescription maps a status onto its indicator tooltip text.
func StatusDescription(status portal.Status) string {
	if tip, ok := statusDescriptions[status]; ok {
		return tip
	}
	return "Unknown status"
}

// Engine merges the instance and world snapshots into view records and keeps
// the rendered surfaces current. It owns the last snapshot of each kind;
// both are replaced wholesale on every successful poll.
type Engine struct {
	client *Client
	port   RenderPort
	loader *BackgroundLoader
	clock  func() time.Time

	// renderMu serializes whole render passes so two concurrent refreshes
	// cannot interleave their port calls.
	renderMu sync.Mutex

	mu         sync.RWMutex
	session    SessionState
	instances  []portal.Instance
	worlds     []portal.World
	worldCards []WorldCard
	instGen    uint64
	worldGen   uint64
}

func NewEngine(client *Client, port RenderPort, loader *BackgroundLoader) *Engine {
	return &Engine{
		client: client,
		port:   port,
		loader: loader,
		clock:  time.Now,
	}
}

// SetSession replaces the gate state the fetchers consult.
func (e *Engine) SetSession(state SessionState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = state
}

// Session returns the current gate state.
func (e *Engine) Session() SessionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// LastInstances returns a copy of the most recent instance snapshot.
func (e *Engine) LastInstances() []portal.Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]portal.Instance, len(e.instances))
	copy(result, e.instances)
	return result
}

// LastWorlds returns a copy of the most recent world snapshot.
func (e *Engine) LastWorlds() []portal.World {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]portal.World, len(e.worlds))
	copy(result, e.worlds)
	return result
}

// renderInstances rebuilds the instance list surface from a fresh snapshot.
func (e *Engine) renderInstances(ctx context.Context, instances []portal.Instance) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	cards := buildInstanceCards(instances)

	e.mu.Lock()
	e.instances = instances
	e.instGen++
	gen := e.instGen
	e.mu.Unlock()

	e.port.RenderInstances(cards)

	for i := range cards {
		e.loader.Load(ctx, cards[i].Background, cards[i].URL, e.instanceBackgroundApplier(gen, i))
	}
}

// renderWorlds rebuilds the world gallery from a fresh snapshot, joining the
// current instance snapshot for live player counts.
func (e *Engine) renderWorlds(ctx context.Context, worlds []portal.World) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.Lock()
	cards := buildWorldCards(worlds, e.instances, e.session.Admin, e.clock())
	e.worlds = worlds
	e.worldCards = cards
	e.worldGen++
	gen := e.worldGen
	e.mu.Unlock()

	e.port.RenderWorlds(cards)

	for i := range cards {
		e.loader.Load(ctx, cards[i].Background, cards[i].InstanceURL, e.worldBackgroundApplier(gen, i))
	}
}

// instanceBackgroundApplier forwards a resolved background to the port
// unless the instance surface has been rebuilt since.
func (e *Engine) instanceBackgroundApplier(gen uint64, index int) func(string) {
	return func(url string) {
		e.mu.RLock()
		stale := gen != e.instGen
		e.mu.RUnlock()
		if !stale {
			e.port.SetInstanceBackground(index, url)
		}
	}
}

func (e *Engine) worldBackgroundApplier(gen uint64, index int) func(string) {
	return func(url string) {
		e.mu.RLock()
		stale := gen != e.worldGen
		e.mu.RUnlock()
		if !stale {
			e.port.SetWorldBackground(index, url)
		}
	}
}

// buildInstanceCards is the pure projection of an instance snapshot onto
// view records, in received order.
func buildInstanceCards(instances []portal.Instance) []InstanceCard {
	cards := make([]InstanceCard, 0, len(instances))
	for _, inst := range instances {
		cards = append(cards, InstanceCard{
			Name:       inst.Name,
			URL:        inst.URL,
			Status:     inst.Status,
			StatusTip:  StatusDescription(inst.Status),
			Background: inst.Background,
		})
	}
	return cards
}

// buildWorldCards is the pure projection of a world snapshot onto view
// records, in received order. The player count comes from a best-effort
// join against the instance snapshot: the two snapshots are fetched
// independently and may be skewed by up to one poll interval, so a missing
// match silently omits the count.
func buildWorldCards(worlds []portal.World, instances []portal.Instance, admin bool, now time.Time) []WorldCard {
	cards := make([]WorldCard, 0, len(worlds))
	for _, w := range worlds {
		active := w.Status == portal.StatusActive

		card := WorldCard{
			Name:         w.Name,
			NameKey:      strings.ToLower(w.Name),
			InstanceName: w.InstanceName,
			InstanceURL:  w.InstanceURL,
			Status:       w.Status,
			StatusTip:    StatusDescription(w.Status),
			TimeLabel:    RelativeLabel(w.LastSeen, active, now),
			Key:          portal.WorldKey(w.InstanceName, w.Name),
			CanDelete:    admin,
			Background:   w.CachedBackgroundURL,
		}

		if active {
			card.JoinURL = strings.TrimSuffix(w.InstanceURL, "/") + "/join"
			if inst := findInstance(instances, w.InstanceName); inst != nil &&
				inst.ActiveWorld != nil && inst.ActiveWorld.Name == w.Name {
				card.Players = inst.ActiveWorld.Players
			}
		}

		cards = append(cards, card)
	}
	return cards
}

func findInstance(instances []portal.Instance, name string) *portal.Instance {
	for i := range instances {
		if instances[i].Name == name {
			return &instances[i]
		}
	}
	return nil
}
