package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordRevision("update")
	m.RecordRevision("update")
	m.RecordNoop()
	m.RecordRejected("CONFLICT")
	m.RecordCascade("edit", nil)
	m.RecordCascade("edit", errors.New("boom"))
	m.RecordHidden()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RevisionsTotal.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NoopTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTotal.WithLabelValues("CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeTotal.WithLabelValues("edit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeTotal.WithLabelValues("edit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HiddenTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRevision("create")
		m.RecordNoop()
		m.RecordRejected("NOT_FOUND")
		m.RecordCascade("displace", nil)
		m.RecordHidden()
	})
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RecordNoop()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.NoopTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NoopTotal))
}

func TestMetrics_Samples(t *testing.T) {
	m := New()
	m.RecordRevision("update")
	m.RecordRevision("create")
	m.RecordRevision("update")
	m.RecordCascade("edit", nil)
	m.RecordNoop()

	samples, err := m.Samples()
	require.NoError(t, err)
	assert.Equal(t, []Sample{
		{Key: `revlog_noop_updates_total`, Value: 1},
		{Key: `revlog_outdate_cascade_total{kind="edit",status="ok"}`, Value: 1},
		{Key: `revlog_revisions_total{type="create"}`, Value: 1},
		{Key: `revlog_revisions_total{type="update"}`, Value: 2},
	}, samples)
}

func TestMetrics_SamplesNil(t *testing.T) {
	var m *Metrics
	samples, err := m.Samples()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSampleKey(t *testing.T) {
	name, value := "code", "CONFLICT"
	assert.Equal(t, "x", sampleKey("x", nil))
	assert.Equal(t, `x{code="CONFLICT"}`, sampleKey("x", []*dto.LabelPair{{Name: &name, Value: &value}}))
}
