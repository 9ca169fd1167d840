// Package config loads republic's settings.
//
// Layers apply in order, later ones winning: built-in defaults, the YAML
// config file, a .env file, REPUBLIC_* environment variables. Command-line
// flags are applied on top by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	rerrors "github.com/healthrepublic/republic/internal/errors"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/ux"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REPUBLIC"

// Defaults
const (
	DefaultAPIURL       = "http://localhost:8000"
	DefaultPollInterval = 10 * time.Second
	DefaultOutput       = "text"
)

// Config holds every setting the CLI and terminal UI read. When MetricsFile
// is set each command writes Prometheus metrics there in the text format.
type Config struct {
	APIURL            string        `yaml:"api_url" json:"api_url"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	StorePath         string        `yaml:"store_path" json:"store_path"`
	Output            string        `yaml:"output" json:"output"`
	MetricsFile       string        `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
	Log               LogConfig     `yaml:"log" json:"log"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File receives logs instead of stderr when set. The terminal UI
	// always logs to a file.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// envOverrides mirrors Config for envconfig. Nil means "not set".
type envOverrides struct {
	APIURL            *string        `envconfig:"API_URL"`
	PollInterval      *time.Duration `envconfig:"POLL_INTERVAL"`
	RequestTimeout    *time.Duration `envconfig:"REQUEST_TIMEOUT"`
	RequestsPerSecond *float64       `envconfig:"REQUESTS_PER_SECOND"`
	StorePath         *string        `envconfig:"STORE_PATH"`
	Output            *string        `envconfig:"OUTPUT"`
	LogLevel          *string        `envconfig:"LOG_LEVEL"`
	LogFormat         *string        `envconfig:"LOG_FORMAT"`
	LogFile           *string        `envconfig:"LOG_FILE"`
	MetricsFile       *string        `envconfig:"METRICS_FILE"`
}

// Default returns the built-in configuration for the given paths.
func Default(paths Paths) *Config {
	return &Config{
		APIURL:       DefaultAPIURL,
		PollInterval: DefaultPollInterval,
		StorePath:    paths.StoreFile(),
		Output:       DefaultOutput,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// Paths defaults to DefaultPaths().
	Paths *Paths
	// ConfigFile overrides Paths.ConfigFile(). An explicit file must exist.
	ConfigFile string
	// EnvFile overrides .env discovery. "-" disables the .env layer.
	EnvFile string
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	paths := DefaultPaths()
	if opts.Paths != nil {
		paths = *opts.Paths
	}
	cfg := Default(paths)

	path, explicit := opts.ConfigFile, opts.ConfigFile != ""
	if !explicit {
		path = paths.ConfigFile()
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DiscoverEnvFile()
	}
	if envFile != "" && envFile != "-" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, rerrors.NewConfigLoadError(envFile, err)
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return nil
		}
		return rerrors.NewConfigLoadError(path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return rerrors.NewConfigLoadError(path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return rerrors.NewConfigLoadError("environment", err)
	}

	setString(&c.APIURL, env.APIURL)
	setString(&c.StorePath, env.StorePath)
	setString(&c.Output, env.Output)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Log.Format, env.LogFormat)
	setString(&c.Log.File, env.LogFile)
	setString(&c.MetricsFile, env.MetricsFile)
	if env.PollInterval != nil {
		c.PollInterval = *env.PollInterval
	}
	if env.RequestTimeout != nil {
		c.RequestTimeout = *env.RequestTimeout
	}
	if env.RequestsPerSecond != nil {
		c.RequestsPerSecond = *env.RequestsPerSecond
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("api_url %q must be an http(s) URL", c.APIURL))
	}
	if c.PollInterval <= 0 {
		problems = append(problems, "poll_interval must be positive")
	}
	if c.RequestTimeout < 0 {
		problems = append(problems, "request_timeout must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		problems = append(problems, "requests_per_second must not be negative")
	}
	if c.StorePath == "" {
		problems = append(problems, "store_path is empty")
	}
	if !ux.ValidFormat(c.Output) {
		problems = append(problems, fmt.Sprintf("output %q must be text, json or yaml", c.Output))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	var level log.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		problems = append(problems, "log."+err.Error())
	}

	if len(problems) > 0 {
		return rerrors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// LoggerConfig translates the log section into a log.Config. When a file is
// configured the caller owns closing the returned output.
func (c *Config) LoggerConfig(service, version string) (log.Config, error) {
	out := log.OutputStderr()
	if c.Log.File != "" {
		var err error
		out, err = log.OutputFile(c.Log.File)
		if err != nil {
			return log.Config{}, err
		}
	}
	return log.Config{
		Level:          log.ParseLevel(c.Log.Level),
		Format:         log.ParseFormat(c.Log.Format),
		Output:         out,
		ServiceName:    service,
		ServiceVersion: version,
	}, nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return rerrors.NewConfigLoadError(path, err)
	}

	var buf bytes.Buffer
	buf.WriteString("# republic configuration. REPUBLIC_* environment variables override these values.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return rerrors.NewConfigLoadError(path, err)
	}
	if err := enc.Close(); err != nil {
		return rerrors.NewConfigLoadError(path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return rerrors.NewConfigLoadError(path, err)
	}
	return nil
}
