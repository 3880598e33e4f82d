package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/pv/foundry-portal/internal/portal"
)

type memoryStorage struct {
	mu      sync.RWMutex
	records map[string]WorldRecord // key: WorldKey(instance, name)
}

func NewMemoryStorage() Storage {
	return &memoryStorage{
		records: make(map[string]WorldRecord),
	}
}

func (m *memoryStorage) Upsert(rec WorldRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[portal.WorldKey(rec.InstanceName, rec.Name)] = rec
	return nil
}

func (m *memoryStorage) List() ([]WorldRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]WorldRecord, 0, len(m.records))
	for _, rec := range m.records {
		result = append(result, rec)
	}

	// Most recent first; name breaks ties so the order is stable.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastSeen.Equal(result[j].LastSeen) {
			return result[i].LastSeen.After(result[j].LastSeen)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (m *memoryStorage) Delete(instanceName, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := portal.WorldKey(instanceName, name)
	if _, ok := m.records[key]; !ok {
		return false, nil
	}
	delete(m.records, key)
	return true, nil
}

func (m *memoryStorage) Cleanup(olderThan time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, rec := range m.records {
		if rec.LastSeen.Before(olderThan) {
			delete(m.records, key)
		}
	}
	return nil
}

func (m *memoryStorage) Close() error {
	return nil
}
