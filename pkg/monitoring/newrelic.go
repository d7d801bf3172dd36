package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return Disabled(), nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// Disabled returns an app whose recorders are no-ops
func Disabled() *NewRelicApp {
	return &NewRelicApp{nil, false}
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Trip event helpers

// RecordTripBooked records a new booking
func (nr *NewRelicApp) RecordTripBooked(tripID, rideClass string, distanceKM, fare float64) {
	nr.RecordCustomEvent("TripBooked", map[string]interface{}{
		"trip_id":     tripID,
		"ride_type":   rideClass,
		"distance_km": distanceKM,
		"fare":        fare,
	})
}

// RecordTripAccepted records an acceptance and how long the passenger waited for it
func (nr *NewRelicApp) RecordTripAccepted(tripID string, wait time.Duration) {
	nr.RecordCustomEvent("TripAccepted", map[string]interface{}{
		"trip_id":      tripID,
		"wait_seconds": wait.Seconds(),
	})
	nr.RecordCustomMetric("custom/trip/acceptance_wait_seconds", wait.Seconds())
}

// RecordTripStatusChanged records a lifecycle transition
func (nr *NewRelicApp) RecordTripStatusChanged(tripID, from, to string, fare float64) {
	nr.RecordCustomEvent("TripStatusChanged", map[string]interface{}{
		"trip_id": tripID,
		"from":    from,
		"to":      to,
		"fare":    fare,
	})
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}
