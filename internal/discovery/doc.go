// Package discovery provides mDNS/DNS-SD discovery of SMA EV Chargers on
// the local network.
//
// Chargers advertise a plain HTTP service and are recognized by their
// hostname pattern (SMA{serial}.local). Discovery yields the charger's
// serial number, IP address and port, enough to build the base URL for
// the evcharger client.
package discovery
