package evcharger

import "time"

// EvChargerFormat renders a timestamp in the charger's wire format:
// ISO-8601 with millisecond precision and a literal trailing "Z". Sub-
// millisecond digits are truncated and no numeric UTC offset is appended.
// The wall-clock values are formatted as given; callers wanting UTC
// timestamps convert before calling.
func EvChargerFormat(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000") + "Z"
}
