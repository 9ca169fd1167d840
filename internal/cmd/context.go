package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/config"
	rerrors "github.com/healthrepublic/republic/internal/errors"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/metrics"
	"github.com/healthrepublic/republic/internal/session"
	"github.com/healthrepublic/republic/internal/tokenstore"
	"github.com/healthrepublic/republic/internal/ux"
	"github.com/healthrepublic/republic/internal/version"
)

// CommandContext holds the command-line flags, the effective configuration
// and the resources a command opens. Commands get it with getContext.
type CommandContext struct {
	// Flags
	Verbose     bool
	Format      string
	LogLevel    string
	ConfigFile  string
	APIURL      string
	MetricsFile string

	Paths  config.Paths
	Config *config.Config
	Logger *log.Logger

	logOut  log.Output
	client  *api.Client
	tokens  *tokenstore.Bolt
	metrics *metrics.Recorder
	command string
	started time.Time
	closed  bool
}

type contextKey struct{}

// active is the context of the running command, closed by ExecuteContext.
var active *CommandContext

// NewCommandContext extracts the persistent flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	metricsFile, err := cmd.Flags().GetString("metrics-file")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:     verbose,
		Format:      format,
		LogLevel:    logLevel,
		ConfigFile:  configFile,
		APIURL:      apiURL,
		MetricsFile: metricsFile,
		Paths:       config.DefaultPaths(),
		command:     cmd.CommandPath(),
		started:     time.Now(),
	}, nil
}

// setupCommandContext loads the configuration, applies flag overrides and
// installs the logger.
func setupCommandContext(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	active = cc
	cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cc))

	if cmd.Annotations[annotationNoConfig] != "" {
		cc.Config = config.Default(cc.Paths)
		if cc.Format != "" {
			cc.Config.Output = cc.Format
		}
		cc.Logger = log.Default()
		if cc.MetricsFile != "" {
			cc.Config.MetricsFile = cc.MetricsFile
			cc.metrics = metrics.NewRecorder(cc.MetricsFile)
		}
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{Paths: &cc.Paths, ConfigFile: cc.ConfigFile})
	if err != nil {
		return err
	}
	if cc.APIURL != "" {
		cfg.APIURL = cc.APIURL
	}
	if cc.Format != "" {
		cfg.Output = cc.Format
	}
	if cc.LogLevel != "" {
		cfg.Log.Level = cc.LogLevel
	}
	if cc.Verbose {
		cfg.Log.Level = "debug"
	}
	if cc.MetricsFile != "" {
		cfg.MetricsFile = cc.MetricsFile
	}
	if cmd.Annotations[annotationLogFile] != "" && cfg.Log.File == "" {
		if err := cc.Paths.Ensure(); err != nil {
			return rerrors.NewConfigLoadError(cc.Paths.Dir, err)
		}
		cfg.Log.File = cc.Paths.LogFile()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cc.Config = cfg

	lc, err := cfg.LoggerConfig("republic", version.GetInfo().Version)
	if err != nil {
		return err
	}
	cc.logOut = lc.Output
	cc.Logger = log.New(lc)
	log.SetDefaultLogger(cc.Logger)
	cc.Logger.Debug("configuration loaded", "api_url", cfg.APIURL, "store", cfg.StorePath)

	if cfg.MetricsFile != "" {
		cc.metrics = metrics.NewRecorder(cfg.MetricsFile)
	}
	return nil
}

// finishActive records the outcome of the command that just ran and
// releases its resources.
func finishActive(runErr error) {
	if active == nil {
		return
	}
	if m := active.metrics; m != nil {
		m.RecordCommand(active.command, time.Since(active.started), runErr, string(rerrors.CodeOf(runErr)))
		if err := m.Flush(); err != nil {
			active.Logger.Warn("failed to write metrics", "path", active.Config.MetricsFile, "error", err)
		}
	}
	if err := active.Close(); err != nil {
		log.Default().Warn("failed to release resources", "error", err)
	}
	active = nil
}

// getContext returns the context installed by the root command.
func getContext(cmd *cobra.Command) *CommandContext {
	if cc, ok := cmd.Context().Value(contextKey{}).(*CommandContext); ok {
		return cc
	}
	// Commands run outside rootCmd, e.g. directly in tests.
	return &CommandContext{Paths: config.DefaultPaths(), Config: config.Default(config.DefaultPaths()), Logger: log.Default()}
}

// Client returns the API client, creating it on first use.
func (c *CommandContext) Client() *api.Client {
	if c.client == nil {
		opts := []api.Option{api.WithLogger(c.Logger), api.WithUserAgent(version.GetInfo().UserAgent())}
		if c.metrics != nil {
			opts = append(opts, api.WithObserver(c.metrics))
		}
		if c.Config.RequestTimeout > 0 {
			opts = append(opts, api.WithTimeout(c.Config.RequestTimeout))
		}
		if rps := c.Config.RequestsPerSecond; rps > 0 {
			opts = append(opts, api.WithRateLimit(rps, int(math.Max(1, math.Ceil(rps)))))
		}
		c.client = api.New(c.Config.APIURL, opts...)
	}
	return c.client
}

// Tokens opens the session database on first use.
func (c *CommandContext) Tokens() (tokenstore.Store, error) {
	if c.tokens == nil {
		store, err := tokenstore.Open(c.Config.StorePath)
		if err != nil {
			return nil, err
		}
		c.tokens = store
	}
	return c.tokens, nil
}

// Session returns an anonymous session store backed by the token database.
func (c *CommandContext) Session(opts ...session.Option) (*session.Store, error) {
	tokens, err := c.Tokens()
	if err != nil {
		return nil, err
	}
	opts = append([]session.Option{session.WithLogger(c.Logger)}, opts...)
	return session.New(c.Client(), tokens, opts...), nil
}

// RequireLogin restores the persisted session and fails with AUTH-002 when
// nobody is signed in.
func (c *CommandContext) RequireLogin(ctx context.Context) (*session.Store, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	if s.State().Phase != session.PhaseAuthenticated {
		return nil, rerrors.NewNotLoggedInError()
	}
	return s, nil
}

// Print writes data in the configured format. In text format text renders
// it when given; otherwise data must be a string or a fmt.Stringer.
func (c *CommandContext) Print(cmd *cobra.Command, data any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if (c.Config.Output == "" || c.Config.Output == ux.FormatText) && text != nil {
		return text(w)
	}
	f, err := ux.NewFormatter(c.Config.Output, w)
	if err != nil {
		return err
	}
	return f.Format(data)
}

// Close releases the session database and the log file. It is safe to call
// more than once.
func (c *CommandContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.tokens != nil {
		firstErr = c.tokens.Close()
	}
	if err := c.logOut.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
