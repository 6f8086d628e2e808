// Package metrics provides Prometheus metrics for the revision log.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus collectors for revision lifecycle outcomes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RevisionsTotal *prometheus.CounterVec
	NoopTotal      prometheus.Counter
	RejectedTotal  *prometheus.CounterVec
	CascadeTotal   *prometheus.CounterVec
	HiddenTotal    prometheus.Counter
}

// New creates all collectors and registers them on a fresh registry.
// A private registry keeps repeated construction (tests, multiple stores)
// from colliding on the default registerer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RevisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revlog_revisions_total",
				Help: "Total number of revisions committed",
			},
			[]string{"type"},
		),

		NoopTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "revlog_noop_updates_total",
				Help: "Total number of update requests suppressed because nothing changed",
			},
		),

		RejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revlog_rejected_total",
				Help: "Total number of mutations rejected, by error code",
			},
			[]string{"code"},
		),

		CascadeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revlog_outdate_cascade_total",
				Help: "Total number of outdating cascade notifications, successes counted on commit",
			},
			[]string{"kind", "status"},
		),

		HiddenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "revlog_hidden_updates_total",
				Help: "Total number of revision redactions applied",
			},
		),
	}
}

// RecordRevision counts a persisted revision of the given type.
func (m *Metrics) RecordRevision(revisionType string) {
	if m == nil {
		return
	}
	m.RevisionsTotal.WithLabelValues(revisionType).Inc()
}

// RecordNoop counts a suppressed no-op update.
func (m *Metrics) RecordNoop() {
	if m == nil {
		return
	}
	m.NoopTotal.Inc()
}

// RecordRejected counts a rejected mutation.
func (m *Metrics) RecordRejected(code string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(code).Inc()
}

// RecordCascade counts an outdating notification and whether it succeeded.
func (m *Metrics) RecordCascade(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CascadeTotal.WithLabelValues(kind, status).Inc()
}

// RecordHidden counts an applied redaction.
func (m *Metrics) RecordHidden() {
	if m == nil {
		return
	}
	m.HiddenTotal.Inc()
}

// Sample is one gathered counter value.
type Sample struct {
	Key   string // name{label="value",...}
	Value float64
}

// Samples gathers every non-zero counter, sorted by key.
func (m *Metrics) Samples() ([]Sample, error) {
	if m == nil {
		return nil, nil
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			value := metric.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			out = append(out, Sample{Key: sampleKey(mf.GetName(), metric.GetLabel()), Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func sampleKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}
