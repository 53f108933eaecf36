// Package profiling writes CPU and heap profiles of a CLI run.
package profiling

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config holds profiling configuration.
type Config struct {
	CPUProfile bool
	MemProfile bool
	// Dir receives the profile files.
	Dir string
	// CommandName prefixes the profile file names.
	CommandName string
}

// AddFlags registers the profiling flags of cmd.
func AddFlags(cmd *cobra.Command, cfg *Config) {
	cmd.Flags().BoolVar(&cfg.CPUProfile, "cpuprofile", false, "Write a CPU profile")
	cmd.Flags().BoolVar(&cfg.MemProfile, "memprofile", false, "Write a heap profile when done")
	cmd.Flags().StringVar(&cfg.Dir, "profiledir", "profiles", "Directory to store profiles")
}

// Enabled returns true if any profile is requested.
func (c Config) Enabled() bool {
	return c.CPUProfile || c.MemProfile
}

// Profiler manages the profiles of one run.
type Profiler struct {
	cfg     Config
	logger  *zap.Logger
	started time.Time
	cpuFile *os.File
}

// Start starts the requested profiles. A disabled config yields a Profiler
// whose methods do nothing.
func Start(cfg Config, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{cfg: cfg, logger: logger, started: time.Now()}
	if !cfg.Enabled() {
		return p, nil
	}
	if p.cfg.Dir == "" {
		p.cfg.Dir = "profiles"
	}
	if err := os.MkdirAll(p.cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}

	if cfg.CPUProfile {
		path := p.path("cpu")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, err
		}
		p.cpuFile = f
		logger.Info("Started CPU profiling", zap.String("path", path))
	}
	return p, nil
}

func (p *Profiler) path(kind string) string {
	return filepath.Join(p.cfg.Dir, fmt.Sprintf("%s_%s_%s.prof",
		p.cfg.CommandName, kind, p.started.Format("20060102_150405")))
}

// Stop ends CPU profiling and writes the heap profile.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			return err
		}
		p.cpuFile = nil
	}
	if !p.cfg.MemProfile {
		return nil
	}

	path := p.path("mem")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return err
	}
	p.logger.Info("Wrote memory profile", zap.String("path", path))
	return nil
}

// Metrics is a snapshot of the runtime counters.
type Metrics struct {
	Alloc        uint64
	TotalAlloc   uint64
	Sys          uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// GetMetrics returns current runtime metrics.
func GetMetrics() Metrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Metrics{
		Alloc:        m.Alloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// LogMetrics logs the runtime metrics at debug level, tagged with label.
func (p *Profiler) LogMetrics(label string) {
	m := GetMetrics()
	p.logger.Debug("Runtime metrics",
		zap.String("label", label),
		zap.Uint64("alloc", m.Alloc),
		zap.Uint64("totalAlloc", m.TotalAlloc),
		zap.Uint64("sys", m.Sys),
		zap.Uint32("numGC", m.NumGC),
		zap.Duration("gcPause", time.Duration(m.PauseTotalNs)),
		zap.Int("goroutines", m.NumGoroutine),
		zap.Duration("elapsed", time.Since(p.started)),
	)
}
