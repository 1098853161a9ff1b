package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goGrant "github.com/MrEthical07/goGrant"
	"github.com/MrEthical07/goGrant/metrics/export/internaldefs"
)

// Source supplies metric snapshots. *goGrant.Server implements it.
type Source interface {
	MetricsSnapshot() goGrant.MetricsSnapshot
}

type Exporter struct {
	source Source
}

func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves Render over HTTP.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when metrics are disabled.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, fam := range internaldefs.Counters {
		writeHeader(&b, fam, "counter")
		for _, s := range fam.Series {
			writeSample(&b, fam.Name, s.Labels, snapshot.Counters[s.ID])
		}
	}

	for _, fam := range internaldefs.Histograms {
		if !hasAny(snapshot, fam) {
			continue
		}
		writeHeader(&b, fam, "histogram")
		for _, s := range fam.Series {
			cumulative := internaldefs.Cumulative(snapshot.Histograms[s.ID])
			for i, le := range internaldefs.BucketBounds {
				labels := append(append([]internaldefs.Label(nil), s.Labels...), internaldefs.Label{Name: "le", Value: le})
				writeSample(&b, fam.Name+"_bucket", labels, cumulative[i])
			}
			writeSample(&b, fam.Name+"_count", s.Labels, cumulative[internaldefs.BucketCount-1])
			// durations are bucketed only, so no sum is tracked
			writeSample(&b, fam.Name+"_sum", s.Labels, 0)
		}
	}

	return b.String()
}

func hasAny(snapshot goGrant.MetricsSnapshot, fam internaldefs.Family) bool {
	for _, s := range fam.Series {
		if _, ok := snapshot.Histograms[s.ID]; ok {
			return true
		}
	}
	return false
}

func writeHeader(b *strings.Builder, fam internaldefs.Family, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(fam.Name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(fam.Help))
	b.WriteString("\n# TYPE ")
	b.WriteString(fam.Name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name string, labels []internaldefs.Label, value uint64) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(l.Name)
			b.WriteString(`="`)
			b.WriteString(escapeLabel(l.Value))
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}

func escapeLabel(v string) string {
	v = escapeHelp(v)
	return strings.ReplaceAll(v, `"`, `\"`)
}
