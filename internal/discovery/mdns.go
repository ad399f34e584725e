package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/smaev/internal/logging"
)

const (
	// ServiceType is the mDNS service type chargers advertise under.
	// The charger's web interface registers as a plain "_http._tcp" service.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for charger discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for chargers
	DefaultPort = 80
)

// serialPattern matches charger hostnames (e.g., "SMA3014001234.local")
var serialPattern = regexp.MustCompile(`^SMA(\d+)\.local\.?$`)

// Scanner handles mDNS charger discovery
type Scanner struct {
	// Timeout is the maximum time to wait for charger discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForChargers discovers all chargers on the local network
func (s *Scanner) ScanForChargers() ([]*Charger, error) {
	return s.ScanForChargersWithContext(context.Background())
}

// ScanForChargersWithContext discovers chargers with a custom context
func (s *Scanner) ScanForChargersWithContext(ctx context.Context) ([]*Charger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	chargers := make([]*Charger, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect matching entries until browsing stops
	go func() {
		for entry := range entries {
			charger := s.parseServiceEntry(entry)
			if charger != nil {
				logging.LogDiscovery(charger.Serial, charger.IP, charger.Port)
				chargers = append(chargers, charger)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	return chargers, nil
}

// WaitForCharger waits for a specific charger by serial number.
// Returns the charger or an error if not found within the timeout.
func (s *Scanner) WaitForCharger(serial string) (*Charger, error) {
	return s.WaitForChargerWithContext(context.Background(), serial)
}

// WaitForChargerWithContext waits for a specific charger with a custom context
func (s *Scanner) WaitForChargerWithContext(ctx context.Context, serial string) (*Charger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	chargerChan := make(chan *Charger, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			charger := s.parseServiceEntry(entry)
			if charger != nil && charger.Serial == serial {
				chargerChan <- charger
				cancel() // Found the charger, stop browsing
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case charger := <-chargerChan:
		return charger, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("charger with serial %s not found within timeout", serial)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Charger.
// Returns nil if the entry is not an SMA EV Charger.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Charger {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := serialPattern.FindStringSubmatch(hostname)
	if len(matches) < 2 {
		return nil
	}

	serial := matches[1]

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Charger{
		Serial:       serial,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForChargers is a convenience function to scan with a custom timeout
func ScanForChargers(timeout time.Duration) ([]*Charger, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForChargers()
}
