package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mimecast/dfilter/internal/config"
	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/fetch"
	"github.com/mimecast/dfilter/internal/io/signal"
	"github.com/mimecast/dfilter/internal/pipeline"
	"github.com/mimecast/dfilter/internal/profiling"
	"github.com/mimecast/dfilter/internal/sink"
	"github.com/mimecast/dfilter/internal/ssh"
)

// grepToken is passed as output token to the local file sink, which does not
// use it.
const grepToken = "local"

func newGrepCmd(a *app) *cobra.Command {
	var prof profiling.Config

	cmd := &cobra.Command{
		Use:   "grep [flags] SOURCE...",
		Short: "Filter local, HTTP(S) or SSH sources",
		Long: `Filter one or more sources concurrently. A source is a local path or a
file://, http://, https:// or ssh://user@host[:port]/path URL. Sources ending
in .gz, .zst or .zstd are decompressed.

The matching lines go to stdout, or with --output-dir into one file per source
named after the source file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof.CommandName = "grep"
			profiler, err := profiling.Start(prof, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				profiler.LogMetrics("grep")
				if err := profiler.Stop(); err != nil {
					a.logger.Warn("Unable to write profile", zap.Error(err))
				}
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			statsCh := signal.InterruptChWithCancel(ctx, cancel)
			return a.grep(ctx, args, cmd.OutOrStdout(), statsCh)
		},
	}

	flags := cmd.Flags()
	flags.Int("concurrency", 0, "How many sources are filtered at the same time (default 4)")
	flags.String("output-dir", "", "Write one result file per source into this directory")
	flags.String("ssh-user", "", "User for ssh:// sources without one (default $USER)")
	flags.String("ssh-key", "", "Private key file for ssh:// sources")
	flags.String("known-hosts", "", "known_hosts file for ssh:// sources (default ~/.ssh/known_hosts)")
	flags.Bool("trust-all-hosts", false, "Accept any SSH host key")
	a.bind(flags, map[string]string{
		"concurrency":     config.KeyConcurrency,
		"output-dir":      config.KeyOutputDir,
		"ssh-user":        config.KeySSHUser,
		"ssh-key":         config.KeySSHKeyFile,
		"known-hosts":     config.KeySSHKnownHosts,
		"trust-all-hosts": config.KeySSHTrustAllHosts,
	})
	profiling.AddFlags(cmd, &prof)
	return cmd
}

func (a *app) grep(ctx context.Context, sources []string, out io.Writer, statsCh <-chan string) error {
	urls := make([]string, len(sources))
	for i, source := range sources {
		u, err := sourceURL(source)
		if err != nil {
			return err
		}
		urls[i] = u
	}

	deps, err := a.deps()
	if err != nil {
		return err
	}
	if deps.Fetcher, err = a.grepFetcher(urls); err != nil {
		return err
	}
	deps.Sink = &sink.FileWriter{Dir: a.cfg.OutputDir, Out: &lockedWriter{w: out}}
	p := pipeline.New(deps)
	routes := outputRoutes(urls)

	var done, matched atomic.Uint64
	go func() {
		for {
			select {
			case hint := <-statsCh:
				a.logger.Warn(hint,
					zap.Uint64("done", done.Load()),
					zap.Int("sources", len(urls)),
					zap.Uint64("matched", matched.Load()))
			case <-ctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	errs := errors.NewMultiError()

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			result, err := p.Run(ctx, pipeline.Request{
				InputURL:    u,
				OutputRoute: routes[i],
				OutputToken: grepToken,
			})
			done.Add(1)
			matched.Add(result.Filter.Matched)
			if err != nil {
				mu.Lock()
				errs.Add(fmt.Errorf("%s: %w", fetch.Redact(u), err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return errs.ErrorOrNil()
}

// grepFetcher serves all schemes grep accepts. SSH credentials are only
// looked up if an ssh:// source is given.
func (a *app) grepFetcher(urls []string) (fetch.Fetcher, error) {
	mux := httpMux()
	mux.Handle(fetch.FileFetcher{}, "file")

	for _, u := range urls {
		if !strings.HasPrefix(strings.ToLower(u), "ssh://") {
			continue
		}
		auth, err := ssh.AuthMethods(a.cfg.SSH.KeyFile)
		if err != nil {
			return nil, err
		}
		knownHosts := a.cfg.SSH.KnownHostsFile
		if knownHosts == "" {
			knownHosts = ssh.DefaultKnownHostsFile()
		}
		hostKeyCallback, err := ssh.HostKeyCallback(knownHosts, a.cfg.SSH.TrustAllHosts)
		if err != nil {
			return nil, err
		}
		mux.Handle(&fetch.SSHFetcher{
			Auth:            auth,
			HostKeyCallback: hostKeyCallback,
			DefaultUser:     a.cfg.SSH.User,
		}, "ssh")
		break
	}
	return mux, nil
}

// sourceURL turns a plain path into a file:// URL.
func sourceURL(source string) (string, error) {
	if strings.Contains(source, "://") {
		return source, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// outputRoutes names the result file of every source after the source file,
// without compression suffix. Clashing names get the source index as prefix.
func outputRoutes(urls []string) []string {
	routes := make([]string, len(urls))
	seen := make(map[string]int)
	for i, u := range urls {
		name := "source"
		if parsed, err := url.Parse(u); err == nil && path.Base(parsed.Path) != "/" && path.Base(parsed.Path) != "." {
			name = path.Base(parsed.Path)
		}
		for _, suffix := range []string{".gz", ".zst", ".zstd"} {
			if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
				name = trimmed
				break
			}
		}
		routes[i] = name
		seen[name]++
	}
	for i, route := range routes {
		if seen[route] > 1 {
			routes[i] = fmt.Sprintf("%d_%s", i, route)
		}
	}
	return routes
}

// lockedWriter serializes the writes of concurrent pipelines. Every write
// holds complete lines, so lines of different sources never interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
