package evcharger

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"
)

// Parameter snapshot carrying the nameplate channels read by DeviceInfo.
const fixtureNameplate = `[
  {"componentId":"IGULD:SELF","values":[
    {"channelId":"Parameter.Nameplate.Location","value":"Garage","timestamp":"2023-12-03T04:56:07.123Z","editable":true,"state":"Confirmed"},
    {"channelId":"Parameter.Nameplate.SerNum","value":"3014001234","timestamp":"2023-12-03T04:56:07.123Z","editable":false,"state":"Confirmed"},
    {"channelId":"Parameter.Nameplate.ModelStr","value":"EVC22-3AC-10","timestamp":"2023-12-03T04:56:07.123Z","editable":false,"state":"Confirmed"},
    {"channelId":"Parameter.Nameplate.Vendor","value":"461","timestamp":"2023-12-03T04:56:07.123Z","editable":false,"state":"Confirmed"},
    {"channelId":"Parameter.Nameplate.PkgRev","value":"1.2.23.R","timestamp":"2023-12-03T04:56:07.123Z","editable":false,"state":"Confirmed"}
  ]}
]`

// tokenRecorder wraps an httptest server that issues tokens and records
// every token request form it receives.
type tokenRecorder struct {
	mu    sync.Mutex
	forms []url.Values
}

func (tr *tokenRecorder) record(form url.Values) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.forms = append(tr.forms, form)
}

func (tr *tokenRecorder) count() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.forms)
}

func (tr *tokenRecorder) form(i int) url.Values {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.forms[i]
}

// newChargerServer starts a mock charger. The token endpoint issues
// "tok-<n>" with refresh token "ref-<n>" and the given expires_in; data
// requests are delegated to the handler.
func newChargerServer(t *testing.T, expiresIn int, handler http.HandlerFunc) (*httptest.Server, *tokenRecorder) {
	t.Helper()
	recorder := &tokenRecorder{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == URLToken {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse token form: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			recorder.record(r.PostForm)

			n := strconv.Itoa(recorder.count())
			resp := map[string]interface{}{
				"access_token":  "tok-" + n,
				"refresh_token": "ref-" + n,
				"token_type":    "Bearer",
			}
			if expiresIn > 0 {
				resp["expires_in"] = expiresIn
			}
			w.Header().Set("Content-Type", contentTypeJSON)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		if handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	return server, recorder
}

func TestNewClient_NormalizesBaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"192.168.1.50", "http://192.168.1.50"},
		{"192.168.1.50/", "http://192.168.1.50"},
		{"http://192.168.1.50/", "http://192.168.1.50"},
		{"https://charger.local", "https://charger.local"},
		{"https://charger.local///", "https://charger.local"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			client := NewClient(tt.raw, "user", "pass")
			if client.BaseURL != tt.want {
				t.Errorf("BaseURL = %q, want %q", client.BaseURL, tt.want)
			}
		})
	}
}

func TestRefreshDelay(t *testing.T) {
	if got := RefreshDelay(3000 * time.Second); got != 2700*time.Second {
		t.Errorf("RefreshDelay(3000s) = %v, want 2700s", got)
	}
	if got := RefreshDelay(TokenTimeout); got != 2700*time.Second {
		t.Errorf("RefreshDelay(TokenTimeout) = %v, want 2700s", got)
	}
}

func TestOpen_Success(t *testing.T) {
	server, recorder := newChargerServer(t, 3600, nil)
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if client.IsClosed() {
		t.Error("session should be open after Open()")
	}
	if client.AccessToken() == "" {
		t.Error("access token should be set after Open()")
	}

	form := recorder.form(0)
	if got := form.Get("grant_type"); got != "password" {
		t.Errorf("grant_type = %q, want password", got)
	}
	if got := form.Get("username"); got != "admin" {
		t.Errorf("username = %q, want admin", got)
	}
	if got := form.Get("password"); got != "secret" {
		t.Errorf("password = %q, want secret", got)
	}

	client.mu.Lock()
	timerPending := client.refreshTimer != nil
	client.mu.Unlock()
	if !timerPending {
		t.Error("a refresh should be scheduled after Open()")
	}
}

func TestOpen_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "wrong")
	err := client.Open()

	if err == nil {
		t.Fatal("Open() should return error for rejected credentials")
	}
	if !IsAuthError(err) {
		t.Errorf("Open() error should be auth error, got %T: %v", err, err)
	}
	if !client.IsClosed() {
		t.Error("session should remain closed after rejected Open()")
	}
}

func TestOpen_ConnectionFailure(t *testing.T) {
	// TEST-NET-1 (guaranteed unreachable)
	client := NewClient("192.0.2.1", "admin", "secret")
	client.SetTimeout(100 * time.Millisecond)

	err := client.Open()

	if err == nil {
		t.Fatal("Open() should return error for unreachable charger")
	}
	if !IsConnectionError(err) {
		t.Errorf("Open() error should be connection error, got %T: %v", err, err)
	}
	if !client.IsClosed() {
		t.Error("session should remain closed after failed Open()")
	}
}

func TestClose_Idempotent(t *testing.T) {
	server, _ := newChargerServer(t, 3600, nil)
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	client.Close()
	client.Close() // must not panic or double-cancel

	if !client.IsClosed() {
		t.Error("session should be closed")
	}
	if client.AccessToken() != "" {
		t.Error("access token should be cleared on Close()")
	}

	// Close on a never-opened client is also fine
	fresh := NewClient(server.URL, "admin", "secret")
	fresh.Close()
}

func TestRequestToken_RefreshGrant(t *testing.T) {
	server, recorder := newChargerServer(t, 3600, nil)
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// A second fetch must use the refresh token received from the first.
	if err := client.requestToken(false); err != nil {
		t.Fatalf("requestToken() error = %v", err)
	}

	if recorder.count() != 2 {
		t.Fatalf("token requests = %d, want 2", recorder.count())
	}
	form := recorder.form(1)
	if got := form.Get("grant_type"); got != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", got)
	}
	if got := form.Get("refresh_token"); got != "ref-1" {
		t.Errorf("refresh_token = %q, want ref-1", got)
	}
}

func TestRequestToken_NoUsableToken(t *testing.T) {
	var requests int
	var mu sync.Mutex
	var grants []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		requests++
		n := requests
		grants = append(grants, r.PostForm.Get("grant_type"))
		mu.Unlock()

		w.Header().Set("Content-Type", contentTypeJSON)
		if n == 1 {
			_, _ = w.Write([]byte(`{"access_token":"tok-1","refresh_token":"ref-1","expires_in":3600}`))
			return
		}
		// Refresh grant answered without a usable token
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	err := client.requestToken(false)
	if err == nil {
		t.Fatal("requestToken() should report the missing access token")
	}
	if !IsParseError(err) {
		t.Errorf("error should be a parse error, got %T: %v", err, err)
	}

	// Prior access token stays in use, refresh token is dropped
	if got := client.AccessToken(); got != "tok-1" {
		t.Errorf("AccessToken() = %q, want the prior token tok-1", got)
	}
	_ = client.requestToken(false)

	mu.Lock()
	defer mu.Unlock()
	if grants[1] != "refresh_token" {
		t.Errorf("second grant = %q, want refresh_token", grants[1])
	}
	if grants[2] != "password" {
		t.Errorf("third grant = %q, want password fallback after dropped refresh token", grants[2])
	}
}

func TestAutoRefresh_ReplacesToken(t *testing.T) {
	// expires_in of 1s schedules the refresh at 900ms
	server, recorder := newChargerServer(t, 1, nil)
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	firstToken := client.AccessToken()

	deadline := time.Now().Add(3 * time.Second)
	for recorder.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if recorder.count() < 2 {
		t.Fatal("background refresh did not fire")
	}
	if form := recorder.form(1); form.Get("grant_type") != "refresh_token" {
		t.Errorf("refresh grant_type = %q, want refresh_token", form.Get("grant_type"))
	}

	deadline = time.Now().Add(time.Second)
	for client.AccessToken() == firstToken && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.AccessToken() == firstToken {
		t.Error("background refresh should replace the stored token")
	}
}

func TestMeasurements(t *testing.T) {
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != URLMeasurements {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", got)
		}
		if got := r.Header.Get("Content-Type"); got != contentTypeJSON {
			t.Errorf("Content-Type = %q, want %q", got, contentTypeJSON)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != PayloadMeasurements {
			t.Errorf("body = %s, want %s", body, PayloadMeasurements)
		}
		_, _ = w.Write([]byte(fixtureMeasurements))
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	records, err := client.Measurements()
	if err != nil {
		t.Fatalf("Measurements() error = %v", err)
	}

	values, err := GetMeasurementsChannel(records, "Measurement.ChaSess.WhIn", SelfComponentID)
	if err != nil {
		t.Fatalf("GetMeasurementsChannel() error = %v", err)
	}
	if got, ok := values[0].Value.(float64); !ok || got != 420 {
		t.Errorf("first sample = %v, want 420", values[0].Value)
	}
}

func TestParameters(t *testing.T) {
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != URLParameters {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != PayloadParameters {
			t.Errorf("body = %s, want %s", body, PayloadParameters)
		}
		_, _ = w.Write([]byte(fixtureParameters))
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	components, err := client.Parameters()
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}

	channel, err := GetParametersChannel(components, "Parameter.Chrg.ActChaMod", SelfComponentID)
	if err != nil {
		t.Fatalf("GetParametersChannel() error = %v", err)
	}
	if channel.Value != "4719" {
		t.Errorf("Value = %q, want 4719", channel.Value)
	}
}

func TestMeasurementChannels(t *testing.T) {
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixtureMeasurements))
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	channels, err := client.MeasurementChannels()
	if err != nil {
		t.Fatalf("MeasurementChannels() error = %v", err)
	}
	want := []string{
		"Measurement.ChaSess.WhIn",
		"Measurement.Chrg.ModSw",
		"Measurement.Operation.EVeh.Health",
	}
	if len(channels) != len(want) {
		t.Fatalf("channels = %v, want %v", channels, want)
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Errorf("channels[%d] = %q, want %q", i, channels[i], want[i])
		}
	}
}

func TestSetParameter(t *testing.T) {
	var gotPath string
	var gotBody []byte

	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		// Successful writes answer with an empty body
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := client.SetParameter("4719", "Parameter.Chrg.ActChaMod", ""); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	if gotPath != URLSetParameters+"/"+SelfComponentID {
		t.Errorf("path = %q, want %q", gotPath, URLSetParameters+"/"+SelfComponentID)
	}

	var update struct {
		Values []struct {
			ChannelID string `json:"channelId"`
			Timestamp string `json:"timestamp"`
			Value     string `json:"value"`
		} `json:"values"`
	}
	if err := json.Unmarshal(gotBody, &update); err != nil {
		t.Fatalf("failed to decode update body: %v", err)
	}
	if len(update.Values) != 1 {
		t.Fatalf("values length = %d, want 1", len(update.Values))
	}
	if update.Values[0].ChannelID != "Parameter.Chrg.ActChaMod" {
		t.Errorf("channelId = %q, want Parameter.Chrg.ActChaMod", update.Values[0].ChannelID)
	}
	if update.Values[0].Value != "4719" {
		t.Errorf("value = %q, want 4719", update.Values[0].Value)
	}

	wirePattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
	if !wirePattern.MatchString(update.Values[0].Timestamp) {
		t.Errorf("timestamp %q is not in charger wire format", update.Values[0].Timestamp)
	}
}

func TestDeviceInfo(t *testing.T) {
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixtureNameplate))
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	info, err := client.DeviceInfo()
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}

	if info.Name != "Garage" {
		t.Errorf("Name = %q, want Garage", info.Name)
	}
	if info.Serial != "3014001234" {
		t.Errorf("Serial = %q, want 3014001234", info.Serial)
	}
	if info.Model != "EVC22-3AC-10" {
		t.Errorf("Model = %q, want EVC22-3AC-10", info.Model)
	}
	if info.Manufacturer != "SMA" {
		t.Errorf("Manufacturer = %q, want SMA", info.Manufacturer)
	}
	if info.SwVersion != "1.2.23.R" {
		t.Errorf("SwVersion = %q, want 1.2.23.R", info.SwVersion)
	}
}

func TestDeviceInfo_UnknownVendor(t *testing.T) {
	fixture := `[
	  {"componentId":"IGULD:SELF","values":[
	    {"channelId":"Parameter.Nameplate.Location","value":"Garage"},
	    {"channelId":"Parameter.Nameplate.SerNum","value":"1"},
	    {"channelId":"Parameter.Nameplate.ModelStr","value":"X"},
	    {"channelId":"Parameter.Nameplate.Vendor","value":"999"},
	    {"channelId":"Parameter.Nameplate.PkgRev","value":"1"}
	  ]}
	]`
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixture))
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	info, err := client.DeviceInfo()
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}
	if info.Manufacturer != "unknown" {
		t.Errorf("Manufacturer = %q, want unknown", info.Manufacturer)
	}
}

func TestRequest_EmptyBodyIsNotAnError(t *testing.T) {
	server, _ := newChargerServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	defer client.Close()

	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	records, err := client.Measurements()
	if err != nil {
		t.Fatalf("Measurements() error = %v, empty bodies must be tolerated", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil for empty body", records)
	}
}

func TestRequest_ClosedSessionFailsFast(t *testing.T) {
	client := NewClient("192.0.2.1", "admin", "secret")

	_, err := client.Measurements()
	if err == nil {
		t.Fatal("request on a closed session should fail")
	}
	if !IsConnectionError(err) {
		t.Errorf("error should be connection error, got %T: %v", err, err)
	}
}

func TestConnectionFailureClosesSession(t *testing.T) {
	server, _ := newChargerServer(t, 3600, nil)

	client := NewClient(server.URL, "admin", "secret")
	if err := client.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Charger goes away mid-session
	server.Close()

	_, err := client.Measurements()
	if err == nil {
		t.Fatal("request after disconnect should fail")
	}
	if !IsConnectionError(err) {
		t.Errorf("error should be connection error, got %T: %v", err, err)
	}
	if !client.IsClosed() {
		t.Error("a mid-session connection failure should close the session")
	}
}
