package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return nil
}

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	for _, m := range gathered(t, name).GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecordResolution(t *testing.T) {
	labels := map[string]string{"strategy": "hls", "outcome": OutcomeOK}
	RecordResolution("hls", OutcomeOK, 0) // ensure the series exists
	before := counterValue(t, "ytlive_resolutions_total", labels)
	RecordResolution("hls", OutcomeOK, 1500*time.Millisecond)
	assert.Equal(t, before+1, counterValue(t, "ytlive_resolutions_total", labels))

	h := gathered(t, "ytlive_resolve_duration_seconds")
	require.NotEmpty(t, h.GetMetric())
	assert.GreaterOrEqual(t, h.GetMetric()[0].GetHistogram().GetSampleCount(), uint64(2))
}

func TestRecordRefreshAndSuccess(t *testing.T) {
	RecordRefresh(nil, 7)
	RecordRefresh(errors.New("boom"), 99)
	assert.Equal(t, 7.0, gathered(t, "ytlive_playlist_channels").GetMetric()[0].GetGauge().GetValue())

	now := time.Unix(1760000000, 0)
	MarkSuccess(now)
	assert.Equal(t, float64(now.Unix()), gathered(t, "ytlive_last_success_timestamp_seconds").GetMetric()[0].GetGauge().GetValue())
}

func TestWriteTextfile(t *testing.T) {
	require.NoError(t, WriteTextfile(""))

	RecordPatch(OutcomeChanged)
	path := filepath.Join(t.TempDir(), "ytlive.prom")
	require.NoError(t, WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `ytlive_patches_total{outcome="changed"}`)
	assert.NotContains(t, string(b), "go_goroutines")
}
