// Package commands implements the linetrend command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/linetrend/pkg/ancestry"
	"github.com/Sumatoshi-tech/linetrend/pkg/config"
	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
	"github.com/Sumatoshi-tech/linetrend/pkg/observability"
	"github.com/Sumatoshi-tech/linetrend/pkg/render"
	"github.com/Sumatoshi-tech/linetrend/pkg/version"
)

// Flag names.
const (
	flagConfig          = "config"
	flagOrdering        = "ordering"
	flagFirstParent     = "first-parent"
	flagLimit           = "limit"
	flagWorkers         = "workers"
	flagFormat          = "format"
	flagWidth           = "width"
	flagHeight          = "height"
	flagNoColor         = "no-color"
	flagObjectCacheSize = "object-cache-size"
	flagRev             = "rev"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagOTLPEndpoint    = "otlp-endpoint"
	flagMetricsFile     = "metrics-file"
	flagNoProgress      = "no-progress"
)

const defaultRepositoryPath = "."

// RootCommand holds flag values for the linetrend root command.
type RootCommand struct {
	configPath      string
	ordering        string
	firstParent     bool
	limit           int
	workers         int
	format          string
	width           int
	height          int
	noColor         bool
	objectCacheSize string
	rev             string
	logLevel        string
	logFormat       string
	otlpEndpoint    string
	metricsFile     string
	noProgress      bool
}

// NewRootCommand creates the linetrend root command with its subcommands.
func NewRootCommand() *cobra.Command {
	rc := &RootCommand{}

	cmd := &cobra.Command{
		Use:   "linetrend [repository]",
		Short: "Chart the number of lines of text across a repository's history",
		Long: `linetrend counts the lines of every text file in each commit reachable
from HEAD (or --rev) and charts the total over time. File contents shared
between commits are measured once.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	cmd.SetVersionTemplate(version.String() + "\n")

	flags := cmd.Flags()
	flags.StringVar(&rc.configPath, flagConfig, "", "Config file (default: ./linetrend.yaml or ~/.config/linetrend/linetrend.yaml)")
	flags.StringVarP(&rc.ordering, flagOrdering, "o", config.DefaultOrdering, "Ancestry ordering: topo or time")
	flags.BoolVar(&rc.firstParent, flagFirstParent, false, "Follow only the first parent of merge commits")
	flags.IntVar(&rc.limit, flagLimit, 0, "Limit number of commits to count (0 = no limit)")
	flags.IntVar(&rc.workers, flagWorkers, config.DefaultWorkers, "Number of commits evaluated in parallel")
	flags.StringVarP(&rc.format, flagFormat, "f", config.DefaultFormat, "Output format: plot, table, json, yaml, html")
	flags.IntVar(&rc.width, flagWidth, 0, "Chart width in columns (0 = terminal width)")
	flags.IntVar(&rc.height, flagHeight, 0, "Chart height in rows (0 = terminal height)")
	flags.BoolVar(&rc.noColor, flagNoColor, false, "Disable colored output")
	flags.StringVar(&rc.objectCacheSize, flagObjectCacheSize, config.DefaultObjectCacheSize,
		"libgit2 object cache size hint (e.g., '256MB', '1GB')")
	flags.StringVar(&rc.rev, flagRev, "", "Start from this revision instead of HEAD (e.g., 'main', 'v1.0', 'HEAD~10')")
	flags.StringVar(&rc.logLevel, flagLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&rc.logFormat, flagLogFormat, config.DefaultLogFormat, "Log format: text or json")
	flags.StringVar(&rc.otlpEndpoint, flagOTLPEndpoint, "", "OTLP gRPC endpoint for traces and metrics (e.g., 'localhost:4317')")
	flags.StringVar(&rc.metricsFile, flagMetricsFile, "", "Write run metrics in Prometheus text format to this file")
	flags.BoolVar(&rc.noProgress, flagNoProgress, false, "Disable progress output")

	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (rc *RootCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := defaultRepositoryPath
	if len(args) == 1 {
		path = args[0]
	}

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observabilityConfig(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx := cmd.Context()

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.WarnContext(ctx, "observability shutdown failed", "error", shutdownErr)
		}
	}()

	started := time.Now()
	series, runErr := rc.collect(ctx, cmd, cfg, path, providers)
	stats := runStats(series, runErr, time.Since(started))

	metricsErr := rc.recordMetrics(ctx, cfg, providers, stats)
	if runErr != nil {
		return errors.Join(runErr, metricsErr)
	}

	if metricsErr != nil {
		return metricsErr
	}

	providers.Logger.InfoContext(ctx, "series collected",
		"commits", series.Len(),
		"objects", series.Cache.Entries,
		"hit_rate", series.Cache.HitRate(),
		"duration", stats.Duration,
	)

	return writeOutput(cmd, cfg, format, filepath.Base(absPath(path)), series)
}

// applyFlags overrides config values with explicitly set flags.
func (rc *RootCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed(flagOrdering) {
		cfg.Traversal.Ordering = rc.ordering
	}

	if flags.Changed(flagFirstParent) {
		cfg.Traversal.FirstParent = rc.firstParent
	}

	if flags.Changed(flagLimit) {
		cfg.Traversal.Limit = rc.limit
	}

	if flags.Changed(flagWorkers) {
		cfg.Traversal.Workers = rc.workers
	}

	if flags.Changed(flagFormat) {
		cfg.Output.Format = rc.format
	}

	if flags.Changed(flagWidth) {
		cfg.Output.Width = rc.width
	}

	if flags.Changed(flagHeight) {
		cfg.Output.Height = rc.height
	}

	if flags.Changed(flagNoColor) {
		cfg.Output.NoColor = rc.noColor
	}

	if flags.Changed(flagObjectCacheSize) {
		cfg.Cache.ObjectCacheSize = rc.objectCacheSize
	}

	if flags.Changed(flagLogLevel) {
		cfg.Logging.Level = rc.logLevel
	}

	if flags.Changed(flagLogFormat) {
		cfg.Logging.Format = rc.logFormat
	}

	if flags.Changed(flagOTLPEndpoint) {
		cfg.Telemetry.OTLPEndpoint = rc.otlpEndpoint
	}

	if flags.Changed(flagMetricsFile) {
		cfg.Telemetry.MetricsFile = rc.metricsFile
	}
}

func (rc *RootCommand) collect(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	path string,
	providers observability.Providers,
) (*linecount.Series, error) {
	cacheBytes, err := cfg.Cache.ObjectCacheBytes()
	if err != nil {
		return nil, err
	}

	err = gitlib.SetObjectCacheLimit(cacheBytes)
	if err != nil {
		return nil, err
	}

	repo, err := gitlib.Discover(path)
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	start, err := rc.startCommit(ctx, repo)
	if err != nil {
		return nil, err
	}

	ordering, err := ancestry.ParseOrdering(cfg.Traversal.Ordering)
	if err != nil {
		return nil, err
	}

	logger := providers.Logger.With("repository", repo.Path())
	logger.DebugContext(ctx, "collecting", "start", start.Hash.String(), "ordering", ordering.String())

	collector := linecount.NewCollector(repo,
		linecount.WithTracer(providers.Tracer),
		linecount.WithLogger(logger),
	)

	opts := linecount.Options{
		Ancestry: ancestry.Options{
			Ordering:    ordering,
			FirstParent: cfg.Traversal.FirstParent,
			Limit:       cfg.Traversal.Limit,
		},
		Workers: cfg.Traversal.Workers,
	}

	errOut := cmd.ErrOrStderr()
	if !rc.noProgress && isTerminal(errOut) {
		attachProgress(&opts, errOut)
	}

	return collector.Collect(ctx, start, opts)
}

func (rc *RootCommand) startCommit(ctx context.Context, repo *gitlib.Repository) (gitlib.Commit, error) {
	if rc.rev == "" {
		return repo.HeadCommit(ctx)
	}

	hash, err := repo.ResolveRevision(rc.rev)
	if err != nil {
		return gitlib.Commit{}, err
	}

	return repo.LookupCommit(ctx, hash)
}

func (rc *RootCommand) recordMetrics(
	ctx context.Context,
	cfg *config.Config,
	providers observability.Providers,
	stats observability.RunStats,
) error {
	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	runMetrics.RecordRun(ctx, stats)

	if cfg.Telemetry.MetricsFile == "" {
		return nil
	}

	return observability.WriteMetricsFile(ctx, cfg.Telemetry.MetricsFile, stats)
}

func runStats(series *linecount.Series, err error, elapsed time.Duration) observability.RunStats {
	if err != nil || series == nil {
		return observability.RunStats{Status: observability.StatusError, Duration: elapsed}
	}

	return observability.RunStats{
		Status:       observability.StatusOK,
		Duration:     elapsed,
		Commits:      int64(series.Len()),
		CacheHits:    series.Cache.Hits,
		CacheMisses:  series.Cache.Misses,
		Fetches:      series.Cache.Fetches,
		FetchedBytes: series.Cache.FetchedBytes,
		PeakLines:    int64(series.Bounds().YMax),
	}
}

func writeOutput(cmd *cobra.Command, cfg *config.Config, format render.Format, name string, series *linecount.Series) error {
	out := cmd.OutOrStdout()
	chronological := series.Chronological()

	err := render.Write(out, chronological, render.Options{
		Format:  format,
		Size:    render.ChartSize(render.TerminalSize(terminalFile(out)), cfg.Output.Width, cfg.Output.Height),
		NoColor: cfg.Output.NoColor,
		Title:   "Lines of text in " + name,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	if format == render.FormatPlot || format == render.FormatTable {
		return render.Summary(cmd.ErrOrStderr(), chronological, cfg.Output.NoColor)
	}

	return nil
}

func observabilityConfig(cfg *config.Config, logOutput io.Writer) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obs.SampleRatio = cfg.Telemetry.SampleRatio
	obs.LogLevel = cfg.Logging.SlogLevel()
	obs.LogJSON = cfg.Logging.JSON()
	obs.LogOutput = logOutput

	return obs
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}
