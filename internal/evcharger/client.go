package evcharger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smaev/internal/logging"
)

// Client represents a session with an SMA EV Charger's local HTTP API.
//
// A Client owns the credentials, the current bearer token, and the background
// refresh timer that keeps the token fresh while the session is open. The
// token fields are the only state mutated after Open and are guarded by a
// mutex: the refresh task writes them, every outgoing request reads them.
type Client struct {
	// BaseURL is the normalized device base URL (e.g. "http://192.168.1.50")
	BaseURL string

	// Username for the password grant
	Username string

	// Password for the password grant
	Password string

	// HTTPClient is the underlying HTTP client; its Timeout bounds every
	// request to the charger
	HTTPClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	closed       bool
	refreshTimer *time.Timer
}

// NewClient creates a new charger client for the given base URL.
// The URL is normalized: a trailing slash is stripped and the scheme defaults
// to http when missing. The session starts closed; call Open to authenticate.
func NewClient(rawURL, username, password string) *Client {
	return &Client{
		BaseURL:    NormalizeBaseURL(rawURL),
		Username:   username,
		Password:   password,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		closed:     true,
	}
}

// NormalizeBaseURL strips trailing slashes and defaults the scheme to http.
func NormalizeBaseURL(raw string) string {
	normalized := strings.TrimRight(raw, "/")
	if !strings.HasPrefix(normalized, "http") {
		normalized = "http://" + normalized
	}
	return normalized
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetHTTPClient replaces the underlying HTTP client, e.g. to install a
// custom transport. Call before Open.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.HTTPClient = httpClient
}

// RefreshDelay returns when the next token refresh should fire for a token
// with the given lifetime: 90% of the way to expiry.
func RefreshDelay(expiresIn time.Duration) time.Duration {
	return time.Duration(float64(expiresIn) * refreshFactor)
}

// Open establishes a new session.
//
// It performs an initial password-grant token request and, on success,
// schedules the first automatic refresh. On an authentication rejection the
// session stays closed and an AuthError is returned; on a network failure it
// stays closed and a ConnectionError is returned.
func (c *Client) Open() error {
	logging.Debug("establishing charger session", zap.String("url", c.BaseURL))

	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()

	if err := c.requestToken(true); err != nil {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		return err
	}

	logging.Debug("charger session established", zap.String("url", c.BaseURL))
	return nil
}

// Close closes the session, cancels any pending token refresh and clears the
// stored tokens. Safe to call on an already-closed session.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.accessToken = ""
	c.refreshToken = ""
	logging.Debug("charger session closed", zap.String("url", c.BaseURL))
}

// IsClosed reports whether the session is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AccessToken returns the current bearer token, empty when the session is
// closed.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// requestToken fetches a new token document. The refresh_token grant is used
// once a refresh token is held, otherwise the password grant. When
// autoRefresh is set and the request succeeds, the next refresh is scheduled
// at 90% of the reported token lifetime (TokenTimeout when the charger omits
// expires_in).
func (c *Client) requestToken(autoRefresh bool) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	form := url.Values{}
	if refresh != "" {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", refresh)
	} else {
		form.Set("grant_type", "password")
		form.Set("username", c.Username)
		form.Set("password", c.Password)
	}

	headers := map[string]string{"Content-Type": contentTypeForm}
	body, err := c.request(http.MethodPost, URLToken, []byte(form.Encode()), headers)
	if err != nil {
		var devErr *DeviceError
		if errors.As(err, &devErr) && devErr.Type == ErrTypeHTTP &&
			(devErr.StatusCode == http.StatusUnauthorized || devErr.StatusCode == http.StatusForbidden) {
			return NewAuthError("could not authorize, invalid credentials?")
		}
		return err
	}

	var token TokenResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &token); err != nil {
			return NewParseError("failed to parse token response", err)
		}
	}

	if token.AccessToken == "" {
		// Drop the refresh token so the next attempt falls back to the
		// password grant; the prior access token stays in use until the
		// charger stops accepting it.
		c.mu.Lock()
		c.refreshToken = ""
		c.mu.Unlock()
		logging.Warn("token response carried no access token",
			zap.String("url", c.BaseURL))
		return NewParseError("token response carried no access token", nil)
	}

	expiresIn := TokenTimeout
	if token.ExpiresIn > 0 {
		expiresIn = time.Duration(token.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	if c.closed {
		// Closed while the request was in flight; discard the result.
		c.mu.Unlock()
		return nil
	}
	c.accessToken = token.AccessToken
	c.refreshToken = token.RefreshToken
	if autoRefresh {
		c.scheduleRefreshLocked(RefreshDelay(expiresIn))
	}
	c.mu.Unlock()

	logging.LogTokenRefresh(c.BaseURL, expiresIn, token.RefreshToken != "")
	return nil
}

// scheduleRefreshLocked arms the refresh timer. Callers hold c.mu.
// Any previously pending timer is stopped first so at most one refresh is
// outstanding per open session.
func (c *Client) scheduleRefreshLocked(delay time.Duration) {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	c.refreshTimer = time.AfterFunc(delay, c.refreshTask)
	logging.Debug("token refresh scheduled", zap.Duration("delay", delay))
}

// refreshTask runs in the background timer. Failures never propagate to
// request callers: a failed refresh is logged and the next attempt is
// scheduled at the fixed token timeout cadence. The session keeps serving
// the last-known-good token in the meantime.
func (c *Client) refreshTask() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	err := c.requestToken(true)
	if err == nil {
		return
	}
	logging.Warn("token refresh failed",
		zap.String("url", c.BaseURL), zap.Error(err))

	c.mu.Lock()
	if !c.closed {
		c.scheduleRefreshLocked(RefreshDelay(TokenTimeout))
	}
	c.mu.Unlock()
}

// request issues a single HTTP request and returns the raw response body.
// Transport failures map to ConnectionErrors, non-2xx statuses to HTTPErrors.
// An empty or non-JSON body on a successful response is not an error: the
// charger answers some successful writes that way, so it is logged and
// returned as an empty result.
func (c *Client) request(method, path string, body []byte, headers map[string]string) ([]byte, error) {
	requestURL := c.BaseURL + path
	req, err := http.NewRequest(method, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewConnectionError(fmt.Sprintf("failed to build %s request", method), err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	logging.Debug("charger request",
		zap.String("method", method),
		zap.String("url", requestURL),
		zap.Int("body_bytes", len(body)))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyConnectionError(c.BaseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyConnectionError(c.BaseURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode,
			fmt.Sprintf("request to %s failed with status %d", requestURL, resp.StatusCode))
	}

	if len(respBody) == 0 || !json.Valid(respBody) {
		logging.Warn("request did not return valid json", zap.String("url", requestURL))
		return nil, nil
	}

	return respBody, nil
}

// requestJSON issues an authenticated request with the current bearer token.
// A request on a closed session fails fast. A connection failure closes the
// session as a side effect: the stored token cannot be trusted across a
// disconnect.
func (c *Client) requestJSON(method, path string, body []byte) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, NewConnectionError("session is closed", nil)
	}
	token := c.accessToken
	c.mu.Unlock()

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  contentTypeJSON,
	}

	respBody, err := c.request(method, path, body, headers)
	if err != nil && IsConnectionError(err) {
		c.Close()
	}
	return respBody, err
}

// Measurements requests the live measurement snapshot of the charger.
func (c *Client) Measurements() ([]MeasurementRecord, error) {
	body, err := c.requestJSON(http.MethodPost, URLMeasurements, []byte(PayloadMeasurements))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var records []MeasurementRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, NewParseError("failed to parse measurements response", err)
	}
	return records, nil
}

// Parameters requests the parameter snapshot of the charger.
func (c *Client) Parameters() ([]ParameterComponent, error) {
	body, err := c.requestJSON(http.MethodPost, URLParameters, []byte(PayloadParameters))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var components []ParameterComponent
	if err := json.Unmarshal(body, &components); err != nil {
		return nil, NewParseError("failed to parse parameters response", err)
	}
	return components, nil
}

// MeasurementChannels returns the channel ids present in the measurement
// snapshot, in document order.
func (c *Client) MeasurementChannels() ([]string, error) {
	records, err := c.Measurements()
	if err != nil {
		return nil, err
	}
	channels := make([]string, 0, len(records))
	for i := range records {
		channels = append(channels, records[i].ChannelID)
	}
	return channels, nil
}

// ParameterChannels returns the channel ids present in the parameter
// snapshot, in document order.
func (c *Client) ParameterChannels() ([]string, error) {
	components, err := c.Parameters()
	if err != nil {
		return nil, err
	}
	var channels []string
	for i := range components {
		for j := range components[i].Values {
			channels = append(channels, components[i].Values[j].ChannelID)
		}
	}
	return channels, nil
}

// SetParameter writes a single parameter value. The update payload carries a
// freshly generated UTC timestamp in the charger's wire format. An empty
// componentID addresses the charger itself.
func (c *Client) SetParameter(value, channelID, componentID string) error {
	if componentID == "" {
		componentID = SelfComponentID
	}
	update := parameterUpdate{
		Values: []parameterValue{{
			ChannelID: channelID,
			Timestamp: EvChargerFormat(time.Now().UTC()),
			Value:     value,
		}},
	}
	body, err := json.Marshal(update)
	if err != nil {
		return NewParseError("failed to encode parameter update", err)
	}
	_, err = c.requestJSON(http.MethodPut, URLSetParameters+"/"+componentID, body)
	return err
}

// DeviceInfo fetches the parameter snapshot once and assembles the charger's
// nameplate data. Vendor code 461 identifies SMA hardware; any other code
// reports an unknown manufacturer.
func (c *Client) DeviceInfo() (*DeviceInfo, error) {
	components, err := c.Parameters()
	if err != nil {
		return nil, err
	}

	info := &DeviceInfo{Manufacturer: "unknown"}
	fields := []struct {
		channel string
		dst     *string
	}{
		{ChannelNameplateLocation, &info.Name},
		{ChannelNameplateSerNum, &info.Serial},
		{ChannelNameplateModel, &info.Model},
		{ChannelNameplatePkgRev, &info.SwVersion},
	}
	for _, field := range fields {
		channel, err := GetParametersChannel(components, field.channel, SelfComponentID)
		if err != nil {
			return nil, err
		}
		*field.dst = channel.Value
	}

	vendor, err := GetParametersChannel(components, ChannelNameplateVendor, SelfComponentID)
	if err != nil {
		return nil, err
	}
	if vendor.Value == vendorSMA {
		info.Manufacturer = "SMA"
	}
	return info, nil
}

// ChargeMode returns the value of the active charge mode parameter.
func (c *Client) ChargeMode() (string, error) {
	components, err := c.Parameters()
	if err != nil {
		return "", err
	}
	channel, err := GetParametersChannel(components, ChannelChargeMode, SelfComponentID)
	if err != nil {
		return "", err
	}
	return channel.Value, nil
}

// SetChargeMode writes the active charge mode parameter.
func (c *Client) SetChargeMode(mode string) error {
	return c.SetParameter(mode, ChannelChargeMode, SelfComponentID)
}
