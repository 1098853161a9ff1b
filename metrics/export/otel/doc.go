// Package otel publishes goGrant metrics through an OpenTelemetry meter using
// observable instruments read from the server snapshot at collection time.
package otel
