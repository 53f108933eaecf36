package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mimecast/dfilter/internal/config"
	"github.com/mimecast/dfilter/internal/io/dlog"
	"github.com/mimecast/dfilter/internal/pipeline"
)

// app is the state shared by all subcommands of one run.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd returns the dfilter command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "dfilter",
		Short: "Streaming line filter",
		Long: `dfilter fetches a source, keeps only the lines matching a pattern and
streams them to a sink while the source is still being read.

Run it as an S3 object lambda function:
  dfilter lambda

Replay a saved object lambda event:
  dfilter invoke event.json

Filter local, HTTP(S) or SSH sources:
  dfilter grep --pattern 'ERROR' /var/log/app.log ssh://host/var/log/app.log.gz
`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file path")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, console)")
	flags.String("pattern", "", "Regular expression lines are matched against (default: Hungarian phone numbers)")
	flags.Bool("invert", false, "Keep the lines not matching the pattern")
	flags.Bool("final-flush", true, "Test an unterminated last line of the source")
	flags.Bool("eager-emit", true, "Emit a matching chunk tail without waiting for its terminator")
	flags.Int("max-line-length", 0, "Skip carried lines longer than this many bytes (lossy), 0 for no limit")
	flags.Int("chunk-size", 0, "Read size on the source in bytes (default 64KiB)")
	a.bind(flags, map[string]string{
		"config":          config.KeyConfigFile,
		"log-level":       config.KeyLogLevel,
		"log-format":      config.KeyLogFormat,
		"pattern":         config.KeyPattern,
		"invert":          config.KeyInvert,
		"final-flush":     config.KeyFinalFlush,
		"eager-emit":      config.KeyEagerEmit,
		"max-line-length": config.KeyMaxLineLength,
		"chunk-size":      config.KeyChunkSize,
	})

	rootCmd.AddCommand(
		newLambdaCmd(a),
		newInvokeCmd(a),
		newGrepCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// bind binds flag names to configuration keys. Only flags set on the command
// line take precedence over the other configuration sources.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := dlog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// deps returns the pipeline collaborators derived from the configuration.
// The pattern was already compiled once by config.Load.
func (a *app) deps() (pipeline.Deps, error) {
	re, err := a.cfg.Regex()
	if err != nil {
		return pipeline.Deps{}, err
	}
	return pipeline.Deps{
		Regex:         re,
		Logger:        a.logger,
		ChunkSize:     a.cfg.ChunkSize,
		FilterOptions: a.cfg.FilterOptions(),
	}, nil
}
