package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("encode_assets", 150*time.Millisecond)
	pr.ObserveBundleDuration(500 * time.Millisecond)
	pr.IncStageResult("encode_assets", ResultSuccess)
	pr.IncBundleOutcome("success")
	pr.ObserveCommandDuration("npm", 2*time.Second, true)
	pr.AddAssetsEncoded(2, 2048)
	pr.SetRouteCount(5)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	require.True(t, names["next2gas_stage_duration_seconds"])
	require.True(t, names["next2gas_assets_encoded_total"])
	require.True(t, names["next2gas_routes"])
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(prom.NewRegistry())
	pr.SetRouteCount(3)

	path := filepath.Join(t.TempDir(), "next2gas.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "next2gas_routes 3"))
}
