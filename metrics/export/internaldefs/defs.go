package internaldefs

import (
	goGrant "github.com/MrEthical07/goGrant"
)

// Label is one name/value pair attached to a series.
type Label struct {
	Name  string
	Value string
}

// Series maps one in-process metric to a labelled series of a family.
type Series struct {
	ID     goGrant.MetricID
	Labels []Label
}

// Family is a metric name with its help text and series.
type Family struct {
	Name   string
	Help   string
	Series []Series
}

func grant(name, outcome string) []Label {
	return []Label{{Name: "grant_type", Value: name}, {Name: "outcome", Value: outcome}}
}

func reason(r string) []Label {
	return []Label{{Name: "reason", Value: r}}
}

// Counters lists every exported counter family.
var Counters = []Family{
	{
		Name: "gogrant_grants_total",
		Help: "Token requests by grant type and outcome.",
		Series: []Series{
			{ID: goGrant.MetricPasswordSuccess, Labels: grant(goGrant.GrantTypePassword, "success")},
			{ID: goGrant.MetricPasswordFailure, Labels: grant(goGrant.GrantTypePassword, "failure")},
			{ID: goGrant.MetricRefreshSuccess, Labels: grant(goGrant.GrantTypeRefreshToken, "success")},
			{ID: goGrant.MetricRefreshFailure, Labels: grant(goGrant.GrantTypeRefreshToken, "failure")},
		},
	},
	{
		Name: "gogrant_rejections_total",
		Help: "Rejected token requests by reason.",
		Series: []Series{
			{ID: goGrant.MetricInvalidRequest, Labels: reason("invalid_request")},
			{ID: goGrant.MetricClientAuthFailure, Labels: reason("invalid_client")},
			{ID: goGrant.MetricInvalidCredentials, Labels: reason("invalid_credentials")},
			{ID: goGrant.MetricInvalidScope, Labels: reason("invalid_scope")},
			{ID: goGrant.MetricUnsupportedGrant, Labels: reason("unsupported_grant_type")},
			{ID: goGrant.MetricPasswordRateLimited, Labels: reason("rate_limited")},
			{ID: goGrant.MetricServerError, Labels: reason("server_error")},
		},
	},
	{
		Name:   "gogrant_refresh_rotated_total",
		Help:   "Refresh tokens consumed and replaced.",
		Series: []Series{{ID: goGrant.MetricRefreshRotated}},
	},
	{
		Name:   "gogrant_refresh_replay_detected_total",
		Help:   "Consumed refresh tokens presented again.",
		Series: []Series{{ID: goGrant.MetricRefreshReplayDetected}},
	},
	{
		Name:   "gogrant_sessions_created_total",
		Help:   "Sessions created by the password grant.",
		Series: []Series{{ID: goGrant.MetricSessionCreated}},
	},
	{
		Name:   "gogrant_events_dropped_total",
		Help:   "Events dropped because the dispatcher buffer was full.",
		Series: []Series{{ID: goGrant.MetricEventDropped}},
	},
}

// Histograms lists every exported histogram family.
var Histograms = []Family{
	{
		Name: "gogrant_grant_duration_seconds",
		Help: "Time spent running a grant.",
		Series: []Series{
			{ID: goGrant.MetricPasswordLatency, Labels: []Label{{Name: "grant_type", Value: goGrant.GrantTypePassword}}},
			{ID: goGrant.MetricRefreshLatency, Labels: []Label{{Name: "grant_type", Value: goGrant.GrantTypeRefreshToken}}},
		},
	},
}

// BucketCount matches the in-process histogram layout.
const BucketCount = 8

// BucketBounds are the upper bounds, in seconds, of the in-process buckets.
var BucketBounds = [BucketCount]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// Cumulative converts raw per-bucket counts into cumulative counts. Missing
// buckets count as zero.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
