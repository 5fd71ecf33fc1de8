package rows

import (
	"testing"

	"github.com/ErikPlachta/sheetpipe/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	category string
	name     string
	severity telemetry.Severity
	context  map[string]interface{}
}

type recordingEmitter struct {
	events []recordedEvent
}

func (r *recordingEmitter) Emit(category, name string, severity telemetry.Severity, _ string, context map[string]interface{}) {
	r.events = append(r.events, recordedEvent{category: category, name: name, severity: severity, context: context})
}

func makeRows(n int) []Row {
	out := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Row{"id": i})
	}

	return out
}

func TestPolicy_HardCapTruncatesAndWarnsOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	p := Policy{MaxRowsPerQuery: 100}

	got := p.Apply("sales-summary", makeRows(150), emitter)

	assert.Len(t, got, 100)
	assert.Equal(t, Row{"id": 0}, got[0])
	assert.Equal(t, Row{"id": 99}, got[99])

	require.Len(t, emitter.events, 1)
	ev := emitter.events[0]
	assert.Equal(t, "rows_truncated", ev.name)
	assert.Equal(t, telemetry.SeverityWarning, ev.severity)
	assert.Equal(t, 150, ev.context["row_count"])
	assert.Equal(t, 100, ev.context["max_rows"])
}

func TestPolicy_HardCapUnderLimitIsSilent(t *testing.T) {
	emitter := &recordingEmitter{}
	p := Policy{MaxRowsPerQuery: 100}

	got := p.Apply("sales-summary", makeRows(100), emitter)

	assert.Len(t, got, 100)
	assert.Empty(t, emitter.events)
}

func TestPolicy_SoftThresholdWarnsWithoutTruncating(t *testing.T) {
	emitter := &recordingEmitter{}
	p := Policy{WarnAtRowCount: 50}

	got := p.Apply("sales-summary", makeRows(80), emitter)

	assert.Len(t, got, 80)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, "rows_threshold_exceeded", emitter.events[0].name)
	assert.Equal(t, telemetry.SeverityWarning, emitter.events[0].severity)
}

func TestPolicy_HardCapSupersedesSoftThreshold(t *testing.T) {
	emitter := &recordingEmitter{}
	p := Policy{MaxRowsPerQuery: 60, WarnAtRowCount: 10}

	got := p.Apply("sales-summary", makeRows(80), emitter)

	assert.Len(t, got, 60)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "rows_truncated", emitter.events[0].name)
}

func TestPolicy_Disabled(t *testing.T) {
	emitter := &recordingEmitter{}
	p := Policy{}

	got := p.Apply("sales-summary", makeRows(5000), emitter)

	assert.Len(t, got, 5000)
	assert.Empty(t, emitter.events)
}
