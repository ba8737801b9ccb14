package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/solvig/tidemark/internal/adapters/storage/memory"
	"github.com/solvig/tidemark/internal/app"
	"github.com/solvig/tidemark/internal/config"
	"github.com/solvig/tidemark/internal/observability"
	"github.com/solvig/tidemark/internal/platform"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds persistent flag values shared by every subcommand.
type rootOptions struct {
	configPath  string
	archivePath string
	appName     string
	devMode     bool
	logLevel    string
}

// newRootCmd assembles the command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tidemark",
		Short:         "Append-only audit journal for entity snapshots",
		Long:          "tidemark keeps an append-only journal of entity snapshots. Every recorded version is attributed to a user and a cause, and any two versions can be diffed or exported.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	cmd.PersistentFlags().StringVar(&opts.archivePath, "archive", "", "path to archive JSON")
	cmd.PersistentFlags().StringVar(&opts.appName, "app", "", "application name for config/data path resolution")
	cmd.PersistentFlags().BoolVar(&opts.devMode, "dev", false, "use dev mode paths (<app>-dev)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override configured log level")

	cmd.AddCommand(
		newRecordCmd(opts),
		newHistoryCmd(opts),
		newShowCmd(opts),
		newDiffCmd(opts),
		newPurgeCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newKindsCmd(),
		newPathsCmd(opts),
	)
	return cmd
}

// locations carries the resolved path and config inputs for one invocation.
type locations struct {
	appName     string
	devMode     bool
	configPath  string
	archivePath string
	dataDir     string
	cfg         config.Config
}

// resolveLocations layers flags over environment variables over platform
// defaults, then loads the TOML config on top of them.
func resolveLocations(cmd *cobra.Command, opts *rootOptions) (locations, error) {
	appName := strings.TrimSpace(opts.appName)
	if appName == "" {
		if envApp := strings.TrimSpace(os.Getenv("TIDEMARK_APP_NAME")); envApp != "" {
			appName = envApp
		} else {
			appName = "tidemark"
		}
	}

	devMode := version == "dev"
	if envDev, ok := parseBoolEnv("TIDEMARK_DEV"); ok {
		devMode = envDev
	}
	if cmd.Flags().Changed("dev") {
		devMode = opts.devMode
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return locations{}, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TIDEMARK_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	archivePath := strings.TrimSpace(opts.archivePath)
	archiveOverridden := archivePath != ""
	if !archiveOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TIDEMARK_ARCHIVE")); envPath != "" {
			archivePath = envPath
			archiveOverridden = true
		} else {
			archivePath = paths.ArchivePath
		}
	}

	cfg, err := config.Load(configPath, config.Default(archivePath))
	if err != nil {
		return locations{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if archiveOverridden {
		cfg.Archive.Path = archivePath
	}
	if level := strings.TrimSpace(os.Getenv("TIDEMARK_LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
	if level := strings.TrimSpace(opts.logLevel); level != "" {
		cfg.Logging.Level = level
	}

	return locations{
		appName:     appName,
		devMode:     devMode,
		configPath:  configPath,
		archivePath: cfg.Archive.Path,
		dataDir:     paths.DataDir,
		cfg:         cfg,
	}, nil
}

// cliRuntime bundles the live environment one command invocation runs against.
type cliRuntime struct {
	locations
	logger   *runtimeLogger
	registry *prometheus.Registry
	store    *memory.Store
	service  *app.Service
}

// newRuntime resolves locations, configures logging and metrics, and loads
// the archive into a fresh in-memory store fronted by the journal service.
func newRuntime(cmd *cobra.Command, opts *rootOptions) (*cliRuntime, error) {
	loc, err := resolveLocations(cmd, opts)
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(cmd.ErrOrStderr(), loc.appName, loc.devMode, loc.dataDir, loc.cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	store := memory.New()
	svc := app.NewService(store, uuid.NewString, nil, app.ServiceConfig{
		MaxVersionRetries: loc.cfg.Journal.MaxVersionRetries,
		Metrics:           observability.NewRecorder(registry),
		Logger:            logger.console,
	})

	rt := &cliRuntime{
		locations: loc,
		logger:    logger,
		registry:  registry,
		store:     store,
		service:   svc,
	}

	logger.Info("startup configuration resolved", "app", loc.appName, "dev_mode", loc.devMode, "command", cmd.Name())
	logger.Debug("runtime paths resolved", "config_path", loc.configPath, "data_dir", loc.dataDir, "archive_path", loc.archivePath)
	logger.Info("configuration loaded", "config_path", loc.configPath, "archive_path", loc.archivePath, "log_level", loc.cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if err := rt.loadArchive(cmd.Context()); err != nil {
		rt.close(cmd.ErrOrStderr())
		return nil, err
	}
	logger.Debug("archive loaded", "archive_path", loc.archivePath, "entries", store.Len())
	return rt, nil
}

// runWithRuntime resolves the runtime, runs fn against it, and writes the
// archive back for mutating commands.
func runWithRuntime(cmd *cobra.Command, opts *rootOptions, persist bool, fn func(ctx context.Context, rt *cliRuntime) error) error {
	rt, err := newRuntime(cmd, opts)
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	ctx := cmd.Context()
	if err := fn(ctx, rt); err != nil {
		rt.logger.Error("command flow failed", "command", cmd.Name(), "err", err)
		return err
	}
	if persist {
		if err := rt.saveArchive(ctx); err != nil {
			rt.logger.Error("archive save failed", "archive_path", rt.archivePath, "err", err)
			return err
		}
		rt.logger.Info("archive saved", "archive_path", rt.archivePath, "entries", rt.store.Len())
	}
	rt.logger.Debug("command flow complete", "command", cmd.Name())
	return nil
}

// loadArchive replays the archive JSON file into the runtime's store. A
// missing or empty file means an empty journal.
func (rt *cliRuntime) loadArchive(ctx context.Context) error {
	content, err := os.ReadFile(rt.archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read archive file: %w", err)
	}
	if len(content) == 0 {
		return nil
	}

	var archive app.Archive
	if err := json.Unmarshal(content, &archive); err != nil {
		return fmt.Errorf("decode archive json: %w", err)
	}
	if err := rt.service.ImportArchive(ctx, archive); err != nil {
		return fmt.Errorf("import archive %q: %w", rt.archivePath, err)
	}
	return nil
}

// saveArchive writes the full journal state back to the archive JSON file.
func (rt *cliRuntime) saveArchive(ctx context.Context) error {
	archive, err := rt.service.ExportArchive(ctx)
	if err != nil {
		return fmt.Errorf("export archive: %w", err)
	}
	encoded, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive json: %w", err)
	}
	encoded = append(encoded, '\n')

	if err := os.MkdirAll(filepath.Dir(rt.archivePath), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(rt.archivePath, encoded, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

// close flushes end-of-run diagnostics and log sinks.
func (rt *cliRuntime) close(stderr io.Writer) {
	rt.dumpMetrics()
	if err := rt.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// dumpMetrics logs the gathered prometheus families. Dev mode only.
func (rt *cliRuntime) dumpMetrics() {
	if !rt.devMode {
		return
	}
	families, err := rt.registry.Gather()
	if err != nil {
		rt.logger.Warn("gather metrics failed", "err", err)
		return
	}
	for _, family := range families {
		rt.logger.Debug("metric family gathered", "name", family.GetName(), "series", len(family.GetMetric()))
	}
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks     []*charmLog.Logger
	console   *charmLog.Logger
	closeFile func() error
	devLog    string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, dataDir string, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:   []*charmLog.Logger{consoleLogger},
		console: consoleLogger,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, dataDir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves the dev log file path for the current run day.
func devLogFilePath(configuredDir, dataDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configuredDir)
	if baseDir == "" {
		baseDir = filepath.Join(dataDir, "log")
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(cwd, baseDir)
	}
	fileStem := sanitizeLogFileStem(appName)
	fileName := fmt.Sprintf("%s-%s.log", fileStem, now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	stem := strings.TrimSpace(appName)
	if stem == "" {
		return "tidemark"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem = strings.Trim(replacer.Replace(stem), "-")
	if stem == "" {
		return "tidemark"
	}
	return stem
}
