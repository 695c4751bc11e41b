// Package profile manages per-site delivery profiles loaded from YAML.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Profile describes where one site's alert reports are delivered. The
// subject overrides the configured default when set.
type Profile struct {
	Site       string   `yaml:"site"`
	Recipients []string `yaml:"recipients"`
	Subject    string   `yaml:"subject,omitempty"`
}

// Load reads a YAML profile file and validates it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile file %s: %w", path, err)
	}

	if p.Site == "" {
		return nil, fmt.Errorf("profile file %s: missing site name", path)
	}
	if len(p.Recipients) == 0 {
		return nil, fmt.Errorf("profile file %s: no recipients defined", path)
	}

	return &p, nil
}

// Set manages site profiles by site name.
type Set struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewSet creates an empty profile set.
func NewSet() *Set {
	return &Set{
		profiles: make(map[string]*Profile),
	}
}

// Add registers a profile in the set.
func (s *Set) Add(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.Site]; exists {
		return fmt.Errorf("profile for site %q already registered", p.Site)
	}
	s.profiles[p.Site] = p
	return nil
}

// Get returns the profile for a site.
func (s *Set) Get(site string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[site]
	if !ok {
		return nil, fmt.Errorf("no profile for site %q", site)
	}
	return p, nil
}

// Sites returns all registered site names, sorted.
func (s *Set) Sites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sites := make([]string, 0, len(s.profiles))
	for site := range s.profiles {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

// All returns the registered profiles ordered by site name.
func (s *Set) All() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sites := make([]string, 0, len(s.profiles))
	for site := range s.profiles {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	profiles := make([]*Profile, 0, len(sites))
	for _, site := range sites {
		profiles = append(profiles, s.profiles[site])
	}
	return profiles
}

// LoadDir loads every YAML profile under dir into a set. A missing
// directory yields an empty set.
func LoadDir(dir string) (*Set, error) {
	set := NewSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("read profile dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}

	return set, nil
}
