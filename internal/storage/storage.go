package storage

import (
	"time"
)

// WorldRecord is one sighting in the cross-instance world history.
type WorldRecord struct {
	InstanceName string    `json:"instance_name"`
	Name         string    `json:"name"`
	LastSeen     time.Time `json:"last_seen"`
	Background   string    `json:"background,omitempty"`
}

// Storage keeps the world history. Records survive a world going idle or its
// instance going offline; only Delete and Cleanup remove them.
type Storage interface {
	// Upsert records a sighting, replacing any prior record for the same
	// (instance, name) pair.
	Upsert(rec WorldRecord) error

	// List returns all records, most recently seen first.
	List() ([]WorldRecord, error)

	// Delete removes one record and reports whether it existed.
	Delete(instanceName, name string) (bool, error)

	// Cleanup drops records last seen before the given time.
	Cleanup(olderThan time.Time) error

	// Close releases the backing store.
	Close() error
}
