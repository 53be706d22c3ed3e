package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("report.ingest", "success", 10*time.Millisecond)
	h.IncConflict("report.ingest")
	h.IncRetry("report.ingest")

	require.Len(t, h.Operations, 1)
	assert.Equal(t, "report.ingest", h.Operations[0].Name)
	assert.Equal(t, "success", h.Operations[0].Status)
	assert.Equal(t, []string{"report.ingest"}, h.Conflicts)
	assert.Equal(t, []string{"report.ingest"}, h.Retries)
	assert.Equal(t, []string{"success"}, h.Statuses("report.ingest"))
	assert.Empty(t, h.Statuses("mapping_registry.upsert"))
}
