package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pv/foundry-portal/internal/config"
	"github.com/pv/foundry-portal/internal/logger"
	"github.com/pv/foundry-portal/internal/portal"
	"github.com/pv/foundry-portal/internal/probe"
	"github.com/pv/foundry-portal/internal/storage"
)

// Poller probes every configured instance on a fixed interval, keeps the
// current instance snapshot and records world sightings into history.
type Poller struct {
	store    *config.Store
	history  storage.Storage
	prober   *probe.Prober
	interval time.Duration
	ttl      time.Duration
	log      *slog.Logger

	mu              sync.RWMutex
	instances       []portal.Instance
	lastCleanupTime time.Time

	// kick requests an immediate out-of-cycle poll (config changes).
	kick chan struct{}
}

func New(store *config.Store, history storage.Storage, prober *probe.Prober, interval, ttl time.Duration) *Poller {
	return &Poller{
		store:           store,
		history:         history,
		prober:          prober,
		interval:        interval,
		ttl:             ttl,
		log:             logger.With("poller"),
		lastCleanupTime: time.Now(),
		kick:            make(chan struct{}, 1),
	}
}

// Kick schedules an immediate poll. Safe to call from any goroutine.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Instances returns a copy of the current instance snapshot.
func (p *Poller) Instances() []portal.Instance {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]portal.Instance, len(p.instances))
	copy(result, p.instances)
	return result
}

// Run starts the poll cycle and blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First poll right away so the API has data before the first tick.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.kick:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	cfg := p.store.Get()
	now := time.Now()

	snapshot := make([]portal.Instance, len(cfg.Instances))

	var wg sync.WaitGroup
	for i, inst := range cfg.Instances {
		wg.Add(1)
		go func(i int, inst config.InstanceConfig) {
			defer wg.Done()

			res := p.prober.Check(ctx, inst.URL)
			snapshot[i] = portal.Instance{
				Name:        inst.Name,
				URL:         inst.URL,
				Status:      res.Status,
				Background:  res.Background,
				ActiveWorld: res.ActiveWorld,
			}
		}(i, inst)
	}
	wg.Wait()

	p.mu.Lock()
	p.instances = snapshot
	p.mu.Unlock()

	// Every active world is a sighting worth remembering.
	for _, inst := range snapshot {
		if inst.Status != portal.StatusActive || inst.ActiveWorld == nil {
			continue
		}
		rec := storage.WorldRecord{
			InstanceName: inst.Name,
			Name:         inst.ActiveWorld.Name,
			LastSeen:     now,
			Background:   inst.ActiveWorld.Background,
		}
		if err := p.history.Upsert(rec); err != nil {
			p.log.Warn("Save world sighting failed", "instance", inst.Name, "world", rec.Name, "error", err)
		}
	}

	p.log.Debug("Instance statuses updated", "instances", len(snapshot))

	if p.ttl > 0 && time.Since(p.lastCleanupTime) > time.Minute {
		if err := p.history.Cleanup(now.Add(-p.ttl)); err != nil {
			p.log.Warn("History cleanup failed", "error", err)
		}
		p.lastCleanupTime = now
	}
}

// Worlds reconciles the stored history with the current instance snapshot.
// A world is active while its instance reports it as the running world, idle
// while the instance answers, offline otherwise. In shared data mode the
// instances serve one data directory, so duplicate world names collapse to
// the most recent sighting.
func (p *Poller) Worlds() ([]portal.World, error) {
	recs, err := p.history.List()
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	byName := make(map[string]portal.Instance, len(p.instances))
	for _, inst := range p.instances {
		byName[inst.Name] = inst
	}
	p.mu.RUnlock()

	shared := p.store.Get().SharedDataMode
	seen := make(map[string]bool)

	worlds := make([]portal.World, 0, len(recs))
	for _, rec := range recs {
		if shared {
			if seen[rec.Name] {
				continue
			}
			seen[rec.Name] = true
		}

		world := portal.World{
			Name:                rec.Name,
			InstanceName:        rec.InstanceName,
			Status:              portal.StatusOffline,
			LastSeen:            rec.LastSeen,
			CachedBackgroundURL: rec.Background,
		}

		if inst, ok := byName[rec.InstanceName]; ok {
			world.InstanceURL = inst.URL
			switch {
			case inst.Status == portal.StatusActive &&
				inst.ActiveWorld != nil && inst.ActiveWorld.Name == rec.Name:
				world.Status = portal.StatusActive
			case inst.Status == portal.StatusOffline:
				world.Status = portal.StatusOffline
			default:
				world.Status = portal.StatusIdle
			}
		}

		worlds = append(worlds, world)
	}

	return worlds, nil
}
