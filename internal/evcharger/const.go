package evcharger

import "time"

const (
	// SelfComponentID addresses the charger itself in snapshot queries.
	// It is the only component the device exposes.
	SelfComponentID = "IGULD:SELF"

	// URLToken is the token endpoint path.
	URLToken = "/api/v1/token"

	// URLMeasurements is the live measurement snapshot endpoint path.
	URLMeasurements = "/api/v1/measurements/live"

	// URLParameters is the parameter search endpoint path.
	URLParameters = "/api/v1/parameters/search"

	// URLSetParameters is the parameter write endpoint path prefix.
	// The component id is appended as a path segment.
	URLSetParameters = "/api/v1/parameters"
)

const (
	// PayloadMeasurements requests the full measurement snapshot of the
	// charger's own component.
	PayloadMeasurements = `[{"componentId":"IGULD:SELF"}]`

	// PayloadParameters requests the full parameter snapshot of the
	// charger's own component.
	PayloadParameters = `{"queryItems":[{"componentId":"IGULD:SELF"}]}`
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// TokenTimeout is the assumed token lifetime when the charger omits
	// expires_in from a token response.
	TokenTimeout = 3000 * time.Second

	// refreshFactor determines how far into a token's lifetime the next
	// refresh is scheduled, so renewal happens before expiry.
	refreshFactor = 0.9
)

// Nameplate parameter channels read by DeviceInfo.
const (
	ChannelNameplateLocation = "Parameter.Nameplate.Location"
	ChannelNameplateSerNum   = "Parameter.Nameplate.SerNum"
	ChannelNameplateModel    = "Parameter.Nameplate.ModelStr"
	ChannelNameplateVendor   = "Parameter.Nameplate.Vendor"
	ChannelNameplatePkgRev   = "Parameter.Nameplate.PkgRev"
)

// ChannelChargeMode is the writable parameter channel selecting the active
// charge mode.
const ChannelChargeMode = "Parameter.Chrg.ActChaMod"

// Values accepted by ChannelChargeMode.
const (
	ChargeModeFast      = "4718"
	ChargeModeOptimized = "4719"
	ChargeModePlanned   = "4720"
	ChargeModeStop      = "4721"
)

// vendorSMA is the vendor code the charger reports for SMA hardware.
const vendorSMA = "461"
