// Package prometheus renders goGrant metrics in the Prometheus text exposition
// format. Nothing is registered globally; callers mount [Exporter.Handler].
package prometheus
