package evcharger

// TokenResponse is the document returned by the token endpoint.
// It is transient: the tokens are absorbed into the session and the
// document itself is discarded.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"` // Seconds
}

// TimedValue is a single timestamped sample within a measurement channel.
// Values are left untyped because the charger mixes numbers, strings and
// arrays across channels.
type TimedValue struct {
	Time  string      `json:"time"`
	Value interface{} `json:"value"`
}

// MeasurementRecord is one entry of the flat list returned by the live
// measurement endpoint: one channel of one component with its samples in
// document order.
type MeasurementRecord struct {
	ChannelID   string       `json:"channelId"`
	ComponentID string       `json:"componentId"`
	Values      []TimedValue `json:"values"`
}

// ParameterChannel is a single parameter of a component as returned by the
// parameter search endpoint.
type ParameterChannel struct {
	ChannelID      string   `json:"channelId"`
	Value          string   `json:"value"`
	Timestamp      string   `json:"timestamp"`
	Editable       bool     `json:"editable"`
	State          string   `json:"state"` // e.g. "Confirmed"
	PossibleValues []string `json:"possibleValues,omitempty"`
}

// ParameterComponent groups the parameter channels of one component.
type ParameterComponent struct {
	ComponentID string             `json:"componentId"`
	Values      []ParameterChannel `json:"values"`
}

// DeviceInfo is the nameplate summary assembled by Client.DeviceInfo.
type DeviceInfo struct {
	Name         string `json:"name"`
	Serial       string `json:"serial"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	SwVersion    string `json:"sw_version"`
}

// parameterValue is one element of a parameter write payload.
type parameterValue struct {
	ChannelID string `json:"channelId"`
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// parameterUpdate is the body of a parameter write PUT.
type parameterUpdate struct {
	Values []parameterValue `json:"values"`
}
