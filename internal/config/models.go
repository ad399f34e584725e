package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for chargers and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Chargers    map[string]*Charger `yaml:"chargers,omitempty"` // Keyed by charger serial number
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Charger represents user-defined metadata for a single charger.
// This is keyed by the charger's serial number in the Registry.
type Charger struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	URL      string    `yaml:"url,omitempty"`       // Last known base URL
	Username string    `yaml:"username,omitempty"`  // Login username
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
	// Password is NEVER stored in the config file; it is prompted when needed.
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultCharger  string `yaml:"default_charger,omitempty"` // Serial or nickname used when --device is not given
	PollInterval    int    `yaml:"poll_interval"`             // Watch dashboard poll interval in seconds
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Chargers: make(map[string]*Charger),
		Preferences: &Preferences{
			PollInterval:    5,
			DiscoverTimeout: 10,
		},
	}
}

// EnsureCharger returns the charger entry for the given serial, creating it
// if it doesn't exist yet.
func (r *Registry) EnsureCharger(serial string) *Charger {
	if r.Chargers == nil {
		r.Chargers = make(map[string]*Charger)
	}
	charger, ok := r.Chargers[serial]
	if !ok {
		charger = &Charger{}
		r.Chargers[serial] = charger
	}
	return charger
}

// FindCharger resolves a charger by serial number or nickname.
// Returns the serial and entry, or empty values when no match exists.
func (r *Registry) FindCharger(key string) (string, *Charger) {
	if charger, ok := r.Chargers[key]; ok {
		return key, charger
	}
	for serial, charger := range r.Chargers {
		if charger.Nickname == key {
			return serial, charger
		}
	}
	return "", nil
}
