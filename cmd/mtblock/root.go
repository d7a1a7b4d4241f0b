package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arloliu/mtblock/config"
	"github.com/arloliu/mtblock/storage"
	"github.com/arloliu/mtblock/world"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	flags      config.Config

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mtblock [command] (flags)",
		Short: "Luanti map block inspection and editing tool",
		Long: `
Read, inspect and edit the map blocks of a Luanti (Minetest) world.

The world directory is read from --world or the configuration file. Its
world.mt selects the map database backend (sqlite3, leveldb, redis or dummy).
`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file (default $"+config.EnvPath+")")
	pf.StringVar(&a.flags.World, "world", "", "world directory")
	pf.StringVar(&a.flags.Backend, "backend", "", "map database backend, overriding world.mt")
	pf.StringVar(&a.flags.Log.Level, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.Log.Format, "log-format", "", "log format (text, json)")
	pf.StringVar(&a.flags.Metrics.Textfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	cobra.EnableCommandSorting = false
	root.AddCommand(
		newListCmd(a),
		newInspectCmd(a),
		newGetNodeCmd(a),
		newSetNodeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)

	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("world") {
		cfg.World = a.flags.World
	}
	if flags.Changed("backend") {
		cfg.Backend = a.flags.Backend
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.Log.Level
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.flags.Log.Format
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = a.flags.Metrics.Textfile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Format, level)
	a.registry = prometheus.NewRegistry()

	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	return nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// openWorld opens the configured world. The caller must close it.
func (a *app) openWorld(cmd *cobra.Command) (*world.World, error) {
	store, err := storage.Open(cmd.Context(), a.cfg.World, a.cfg.OpenOptions()...)
	if err != nil {
		return nil, err
	}

	opts := []world.Option{
		world.WithLogger(a.logger),
		world.WithMetrics(a.registry),
	}
	if a.cfg.CreateMissing != "" {
		opts = append(opts, world.WithCreateMissing(a.cfg.CreateMissing))
	}

	w, err := world.New(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.logger.Debug("world opened", slog.String("dir", a.cfg.World))

	return w, nil
}
