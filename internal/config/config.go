// Package config provides the configuration of dfilter. Values come from
// several sources with the following precedence (highest to lowest):
//
//  1. Command-line flags bound to a key
//  2. Environment variables, DFILTER_ prefixed (ssh.key_file is
//     DFILTER_SSH_KEY_FILE)
//  3. The configuration file (YAML, JSON or TOML, by extension)
//  4. Default values
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mimecast/dfilter/internal/constants"
	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/io/line"
	"github.com/mimecast/dfilter/internal/regex"
)

// EnvPrefix of all environment variables read.
const EnvPrefix = "DFILTER"

// Configuration keys.
const (
	KeyConfigFile       = "config"
	KeyPattern          = "pattern"
	KeyInvert           = "invert"
	KeyFinalFlush       = "final_flush"
	KeyEagerEmit        = "eager_emit"
	KeyMaxLineLength    = "max_line_length"
	KeyChunkSize        = "chunk_size"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyRegion           = "region"
	KeyConcurrency      = "concurrency"
	KeyOutputDir        = "output_dir"
	KeySSHUser          = "ssh.user"
	KeySSHKeyFile       = "ssh.key_file"
	KeySSHKnownHosts    = "ssh.known_hosts_file"
	KeySSHTrustAllHosts = "ssh.trust_all_hosts"
)

// Config holds a complete dfilter configuration.
type Config struct {
	// Pattern every line is matched against.
	Pattern string
	// Invert selects the lines not matching Pattern.
	Invert bool
	// FinalFlush tests an unterminated last line of the source.
	FinalFlush bool
	// EagerEmit emits a matching chunk tail without waiting for its terminator.
	EagerEmit bool
	// MaxLineLength bounds a pending line, 0 disables the bound.
	MaxLineLength int
	// ChunkSize is the read size on the source.
	ChunkSize int

	LogLevel  string
	LogFormat string

	// Region of the S3 sink, empty for the default credential chain lookup.
	Region string
	// Concurrency is the number of sources grep filters at once.
	Concurrency int
	// OutputDir is where grep writes its results, stdout when empty.
	OutputDir string

	SSH SSHConfig
}

// SSHConfig configures ssh:// sources.
type SSHConfig struct {
	User           string
	KeyFile        string
	KnownHostsFile string
	TrustAllHosts  bool
}

// New returns a viper instance with all defaults set and environment lookup
// enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyConfigFile, "")
	v.SetDefault(KeyPattern, regex.PhoneNumberPattern)
	v.SetDefault(KeyInvert, false)
	v.SetDefault(KeyFinalFlush, true)
	v.SetDefault(KeyEagerEmit, true)
	v.SetDefault(KeyMaxLineLength, constants.DefaultMaxLineLength)
	v.SetDefault(KeyChunkSize, constants.DefaultChunkSize)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyConcurrency, constants.DefaultConcurrency)
	v.SetDefault(KeyOutputDir, "")
	v.SetDefault(KeySSHUser, os.Getenv("USER"))
	v.SetDefault(KeySSHKeyFile, "")
	v.SetDefault(KeySSHKnownHosts, "")
	v.SetDefault(KeySSHTrustAllHosts, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file named by the config key, if any, and
// returns the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "read %s: %v", file, err)
		}
	}

	cfg := &Config{
		Pattern:       v.GetString(KeyPattern),
		Invert:        v.GetBool(KeyInvert),
		FinalFlush:    v.GetBool(KeyFinalFlush),
		EagerEmit:     v.GetBool(KeyEagerEmit),
		MaxLineLength: v.GetInt(KeyMaxLineLength),
		ChunkSize:     v.GetInt(KeyChunkSize),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		Region:        v.GetString(KeyRegion),
		Concurrency:   v.GetInt(KeyConcurrency),
		OutputDir:     v.GetString(KeyOutputDir),
		SSH: SSHConfig{
			User:           v.GetString(KeySSHUser),
			KeyFile:        v.GetString(KeySSHKeyFile),
			KnownHostsFile: v.GetString(KeySSHKnownHosts),
			TrustAllHosts:  v.GetBool(KeySSHTrustAllHosts),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and compiles the pattern once.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s must be positive, got %d",
			KeyChunkSize, c.ChunkSize)
	}
	if c.MaxLineLength < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s must not be negative, got %d",
			KeyMaxLineLength, c.MaxLineLength)
	}
	if c.Concurrency <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s must be positive, got %d",
			KeyConcurrency, c.Concurrency)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "%s must be json or console, got '%s'",
			KeyLogFormat, c.LogFormat)
	}
	if _, err := c.Regex(); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s: %v", KeyPattern, err)
	}
	return nil
}

// Regex compiles the configured pattern.
func (c *Config) Regex() (regex.Regex, error) {
	flag := regex.Default
	if c.Invert {
		flag = regex.Invert
	}
	return regex.New(c.Pattern, flag)
}

// FilterOptions returns the line filter options of the configuration.
func (c *Config) FilterOptions() []line.Option {
	return []line.Option{
		line.WithFinalFlush(c.FinalFlush),
		line.WithEagerEmit(c.EagerEmit),
		line.WithMaxLineLength(c.MaxLineLength),
	}
}
