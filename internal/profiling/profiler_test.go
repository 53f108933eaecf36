package profiling

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDisabled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	p, err := Start(Config{Dir: dir, CommandName: "grep"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, p.Stop())
	p.LogMetrics("done")

	assert.NoDirExists(t, dir)
}

func TestProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{CPUProfile: true, MemProfile: true, Dir: dir, CommandName: "grep"}
	p, err := Start(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	sum := 0
	for i := 0; i < 1000000; i++ {
		sum += i % 7
	}
	assert.NotZero(t, sum)
	require.NoError(t, p.Stop())

	cpu, err := filepath.Glob(filepath.Join(dir, "grep_cpu_*.prof"))
	require.NoError(t, err)
	assert.Len(t, cpu, 1)
	mem, err := filepath.Glob(filepath.Join(dir, "grep_mem_*.prof"))
	require.NoError(t, err)
	assert.Len(t, mem, 1)
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	assert.NotZero(t, m.Sys)
	assert.Positive(t, m.NumGoroutine)
}
