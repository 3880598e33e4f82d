package viewer

import (
	"sync"

	"github.com/pv/foundry-portal/internal/dashboard"
)

// Surface is the render target the dashboard engine draws on. The engine
// pushes card lists and background updates from its own goroutines; View
// reads a consistent copy through Snapshot.
type Surface struct {
	mu sync.Mutex

	instances   []dashboard.InstanceCard
	instanceBGs map[int]string
	worlds      []dashboard.WorldCard
	worldBGs    map[int]string
	visible     map[int]bool
	notice      string
}

func NewSurface() *Surface {
	return &Surface{
		instanceBGs: make(map[int]string),
		worldBGs:    make(map[int]string),
		visible:     make(map[int]bool),
	}
}

// Snapshot is one consistent view of the rendered state.
type Snapshot struct {
	Instances           []dashboard.InstanceCard
	InstanceBackgrounds map[int]string
	Worlds              []dashboard.WorldCard
	WorldBackgrounds    map[int]string
	Visible             map[int]bool
	Notice              string
}

func (s *Surface) RenderInstances(cards []dashboard.InstanceCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = cards
	s.instanceBGs = make(map[int]string)
}

func (s *Surface) RenderWorlds(cards []dashboard.WorldCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds = cards
	s.worldBGs = make(map[int]string)
	// New renders start fully visible; the filter narrows afterwards.
	s.visible = make(map[int]bool, len(cards))
	for i := range cards {
		s.visible[i] = true
	}
}

func (s *Surface) SetInstanceBackground(index int, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.instances) {
		s.instanceBGs[index] = url
	}
}

func (s *Surface) SetWorldBackground(index int, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.worlds) {
		s.worldBGs[index] = url
	}
}

func (s *Surface) SetWorldVisible(index int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.worlds) {
		s.visible[index] = visible
	}
}

// Notify records a user-facing message for the status line.
func (s *Surface) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = message
}

// ClearNotice drops the current status message.
func (s *Surface) ClearNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = ""
}

// Snapshot copies the rendered state for a View pass.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Instances:           append([]dashboard.InstanceCard(nil), s.instances...),
		InstanceBackgrounds: make(map[int]string, len(s.instanceBGs)),
		Worlds:              append([]dashboard.WorldCard(nil), s.worlds...),
		WorldBackgrounds:    make(map[int]string, len(s.worldBGs)),
		Visible:             make(map[int]bool, len(s.visible)),
		Notice:              s.notice,
	}
	for k, v := range s.instanceBGs {
		snap.InstanceBackgrounds[k] = v
	}
	for k, v := range s.worldBGs {
		snap.WorldBackgrounds[k] = v
	}
	for k, v := range s.visible {
		snap.Visible[k] = v
	}
	return snap
}
