package otel

import (
	"context"
	"errors"
	"fmt"

	goGrant "github.com/MrEthical07/goGrant"
	"github.com/MrEthical07/goGrant/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source supplies metric snapshots. *goGrant.Server implements it.
type Source interface {
	MetricsSnapshot() goGrant.MetricsSnapshot
}

type observedSeries struct {
	id    goGrant.MetricID
	attrs attribute.Set
}

type observedCounter struct {
	instrument metric.Int64ObservableCounter
	series     []observedSeries
}

type observedHistogram struct {
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	series  []observedSeries
	// bucketAttrs[i][j] is series i with le=BucketBounds[j].
	bucketAttrs [][internaldefs.BucketCount]attribute.Set
}

type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
}

// NewExporter creates one instrument per metric family; series are told apart by
// attributes.
func NewExporter(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, fam := range internaldefs.Counters {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", fam.Name, err)
		}
		e.counters = append(e.counters, observedCounter{instrument: ins, series: seriesOf(fam)})
		observables = append(observables, ins)
	}

	for _, fam := range internaldefs.Histograms {
		buckets, err := meter.Int64ObservableGauge(fam.Name+"_bucket", metric.WithDescription("Cumulative bucket counts. "+fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", fam.Name, err)
		}
		count, err := meter.Int64ObservableGauge(fam.Name+"_count", metric.WithDescription("Sample count. "+fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", fam.Name, err)
		}

		h := observedHistogram{buckets: buckets, count: count, series: seriesOf(fam)}
		for _, s := range fam.Series {
			var sets [internaldefs.BucketCount]attribute.Set
			for i, le := range internaldefs.BucketBounds {
				sets[i] = attribute.NewSet(append(toKV(s.Labels), attribute.String("le", le))...)
			}
			h.bucketAttrs = append(h.bucketAttrs, sets)
		}
		e.histograms = append(e.histograms, h)
		observables = append(observables, buckets, count)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return nil
	}

	for _, c := range e.counters {
		for _, s := range c.series {
			o.ObserveInt64(c.instrument, int64(snapshot.Counters[s.id]), metric.WithAttributeSet(s.attrs))
		}
	}
	for _, h := range e.histograms {
		for i, s := range h.series {
			raw, ok := snapshot.Histograms[s.id]
			if !ok {
				continue
			}
			cumulative := internaldefs.Cumulative(raw)
			for j := range cumulative {
				o.ObserveInt64(h.buckets, int64(cumulative[j]), metric.WithAttributeSet(h.bucketAttrs[i][j]))
			}
			o.ObserveInt64(h.count, int64(cumulative[internaldefs.BucketCount-1]), metric.WithAttributeSet(s.attrs))
		}
	}
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func seriesOf(fam internaldefs.Family) []observedSeries {
	out := make([]observedSeries, 0, len(fam.Series))
	for _, s := range fam.Series {
		out = append(out, observedSeries{id: s.ID, attrs: attribute.NewSet(toKV(s.Labels)...)})
	}
	return out
}

func toKV(labels []internaldefs.Label) []attribute.KeyValue {
	kv := make([]attribute.KeyValue, 0, len(labels)+1)
	for _, l := range labels {
		kv = append(kv, attribute.String(l.Name, l.Value))
	}
	return kv
}
