package config

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// InstanceConfig is one monitored Foundry endpoint.
type InstanceConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Portal is the persisted portal configuration. Password hashes never leave
// the server.
type Portal struct {
	AdminPasswordHash  string           `yaml:"admin_password_hash,omitempty"`
	ViewerPasswordHash string           `yaml:"viewer_password_hash,omitempty"`
	SharedDataMode     bool             `yaml:"shared_data_mode"`
	Instances          []InstanceConfig `yaml:"instances"`
}

// Store guards the portal file against concurrent mutation. Every Update
// persists the whole document, like the original single-file config.
type Store struct {
	path string

	mu  sync.RWMutex
	cur Portal
}

// OpenStore loads the portal file; a missing file yields an empty,
// unconfigured portal.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read portal config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.cur); err != nil {
		return nil, fmt.Errorf("parse portal config: %w", err)
	}

	return s, nil
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Portal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := s.cur
	cp.Instances = make([]InstanceConfig, len(s.cur.Instances))
	copy(cp.Instances, s.cur.Instances)
	return cp
}

// IsConfigured reports whether initial setup has happened.
func (s *Store) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AdminPasswordHash != ""
}

// Update applies fn to the configuration and persists the result. The
// in-memory copy is left untouched when the write fails.
func (s *Store) Update(fn func(*Portal)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	next.Instances = make([]InstanceConfig, len(s.cur.Instances))
	copy(next.Instances, s.cur.Instances)

	fn(&next)

	data, err := yaml.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal portal config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write portal config: %w", err)
	}

	s.cur = next
	return nil
}

// ValidateInstances rejects instance entries the prober could never use.
func ValidateInstances(instances []InstanceConfig) error {
	for i, inst := range instances {
		if inst.Name == "" {
			return fmt.Errorf("instance at index %d has no name", i)
		}
		u, err := url.Parse(inst.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("instance %q has an invalid url %q", inst.Name, inst.URL)
		}
	}
	return nil
}

// HashPassword produces a bcrypt hash for storage in the portal file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
