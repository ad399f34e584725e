// Package evcharger provides an HTTP client for the SMA EV Charger's local API.
//
// The charger exposes a small JSON API on the local network: a token endpoint
// for bearer authentication, live measurement and parameter snapshot queries,
// and a parameter write endpoint. This package implements a session around
// that API that authenticates once and keeps the bearer token fresh in the
// background for as long as the session stays open.
//
// # Session Lifecycle
//
// A Client starts closed. Open authenticates with the password grant and
// schedules an automatic token refresh at 90% of the token lifetime the
// charger reports. Once a refresh token has been received, later refreshes
// use the refresh_token grant and fall back to the password grant when the
// refresh token is lost. Close cancels the pending refresh and drops both
// tokens; it is safe to call any number of times.
//
//	client := evcharger.NewClient("192.168.1.50", "user", "password")
//	if err := client.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	info, err := client.DeviceInfo()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(info.Model, info.Serial)
//
// # Channels
//
// Data points are addressed by a (componentId, channelId) pair. Only the
// charger's own component, "IGULD:SELF", is used. GetMeasurementsChannel and
// GetParametersChannel locate a channel within a decoded snapshot and fail
// with a ChannelError naming the missing ids when it is absent.
//
// # Error Handling
//
// All failures are reported as *DeviceError values classified by ErrorType:
// authentication rejections, connection failures (timeout, refused, peer
// disconnect), missing channels, unexpected HTTP statuses, and malformed
// documents. A connection failure during an authenticated request closes the
// session, since the stored token cannot be trusted across a disconnect.
// Empty or non-JSON response bodies on successful requests are tolerated and
// reported as empty results; the charger is known to answer some successful
// writes with an empty body.
//
// # Thread Safety
//
// Client is safe for concurrent use. Token state is written only by Open and
// the background refresh task and is guarded by a mutex.
package evcharger
