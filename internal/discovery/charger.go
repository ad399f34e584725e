package discovery

import (
	"fmt"
	"time"
)

// Charger represents a discovered SMA EV Charger on the network
type Charger struct {
	// Serial is the charger serial number (e.g., "3014001234")
	Serial string

	// Hostname is the mDNS hostname (e.g., "SMA3014001234.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.50")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the charger was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the charger
func (c *Charger) String() string {
	return fmt.Sprintf("SMA EV Charger %s (%s) at %s:%d", c.Serial, c.Hostname, c.IP, c.Port)
}

// BaseURL returns the HTTP base URL for the charger
func (c *Charger) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.IP, c.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Charger) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
