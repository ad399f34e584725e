package evcharger

import "fmt"

// GetMeasurementsChannel locates a channel in a measurement snapshot.
// The snapshot is a flat list, so both ids are matched simultaneously and a
// miss reports the pair without distinguishing which id was wrong. Returns
// the channel's samples in document order.
func GetMeasurementsChannel(records []MeasurementRecord, channelID, componentID string) ([]TimedValue, error) {
	for i := range records {
		if records[i].ComponentID == componentID && records[i].ChannelID == channelID {
			return records[i].Values, nil
		}
	}
	return nil, NewChannelError(fmt.Sprintf(
		"component_id %s with channel_id %s does not exist", componentID, channelID))
}

// GetParametersChannel locates a channel in a parameter snapshot.
// The component is resolved first, then the channel within it; each miss is
// reported separately. Returns the full channel record.
func GetParametersChannel(components []ParameterComponent, channelID, componentID string) (*ParameterChannel, error) {
	var component *ParameterComponent
	for i := range components {
		if components[i].ComponentID == componentID {
			component = &components[i]
			break
		}
	}
	if component == nil {
		return nil, NewChannelError(fmt.Sprintf("component_id %s does not exist", componentID))
	}

	for i := range component.Values {
		if component.Values[i].ChannelID == channelID {
			return &component.Values[i], nil
		}
	}
	return nil, NewChannelError(fmt.Sprintf("channel_id %s does not exist", channelID))
}
