package evcharger

import (
	"fmt"
	"strings"
)

// chargeModeNames maps charge mode values to their display names.
var chargeModeNames = map[string]string{
	ChargeModeFast:      "fast",
	ChargeModeOptimized: "optimized",
	ChargeModePlanned:   "planned",
	ChargeModeStop:      "stop",
}

// ChargeModeName returns the display name for a charge mode value, or the
// raw value when it is not one of the known modes.
func ChargeModeName(value string) string {
	if name, ok := chargeModeNames[value]; ok {
		return name
	}
	return value
}

// ChargeModeValue returns the wire value for a charge mode display name.
// The second return is false for unknown names.
func ChargeModeValue(name string) (string, bool) {
	for value, known := range chargeModeNames {
		if known == name {
			return value, true
		}
	}
	return "", false
}

// FormatDeviceInfo returns a detailed multi-line rendering of device info.
func FormatDeviceInfo(info *DeviceInfo) string {
	var sb strings.Builder
	sb.WriteString("Device Information\n")
	sb.WriteString("==================\n")
	sb.WriteString(fmt.Sprintf("  Name:         %s\n", info.Name))
	sb.WriteString(fmt.Sprintf("  Serial:       %s\n", info.Serial))
	sb.WriteString(fmt.Sprintf("  Model:        %s\n", info.Model))
	sb.WriteString(fmt.Sprintf("  Manufacturer: %s\n", info.Manufacturer))
	sb.WriteString(fmt.Sprintf("  Firmware:     %s\n", info.SwVersion))
	return sb.String()
}

// FormatDeviceInfoCompact returns a single-line rendering of device info.
func FormatDeviceInfoCompact(info *DeviceInfo) string {
	return fmt.Sprintf("%s %s (serial %s, fw %s)",
		info.Manufacturer, info.Model, info.Serial, info.SwVersion)
}

// FormatMeasurements renders a measurement snapshot one channel per line,
// showing the most recent sample of each channel.
func FormatMeasurements(records []MeasurementRecord) string {
	var sb strings.Builder
	for i := range records {
		rec := &records[i]
		if len(rec.Values) == 0 {
			sb.WriteString(fmt.Sprintf("%-45s  (no samples)\n", rec.ChannelID))
			continue
		}
		latest := rec.Values[len(rec.Values)-1]
		sb.WriteString(fmt.Sprintf("%-45s  %-12v  %s\n",
			rec.ChannelID, formatValue(latest.Value), latest.Time))
	}
	return sb.String()
}

// FormatParameters renders a parameter snapshot grouped by component.
// Editable channels are marked with an asterisk.
func FormatParameters(components []ParameterComponent) string {
	var sb strings.Builder
	for i := range components {
		comp := &components[i]
		sb.WriteString(fmt.Sprintf("Component %s\n", comp.ComponentID))
		for j := range comp.Values {
			channel := &comp.Values[j]
			marker := " "
			if channel.Editable {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf("  %s %-43s  %s\n",
				marker, channel.ChannelID, channel.Value))
		}
	}
	return sb.String()
}

// formatValue renders a sample value for display. Float samples that carry
// an integral value print without a trailing ".000000".
func formatValue(value interface{}) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
