package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sensemaker/internal/config"
	"sensemaker/internal/ledger"
	"sensemaker/internal/ledger/badger"
	"sensemaker/internal/ledger/sqlite"
)

// --- Global Command Variables ---
var (
	configPath string
	addr       string
	backend    string
	ledgerPath string
	author     string
	inMemory   bool
	bundleDir  string
	watch      bool
	logLevel   string
	logFormat  string

	runResource    string
	runResourceDef string
	runMethod      string

	initOutput string

	rootCmd = &cobra.Command{
		Use:           "sensemaker",
		Short:         "Collaborative assessment ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event stream and bundle watcher",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	registerCmd = &cobra.Command{
		Use:   "register [bundle file...]",
		Short: "Register applet bundles (YAML or JSON) into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRegister, // Defined in cmd_ledger.go
	}

	runMethodCmd = &cobra.Command{
		Use:   "run-method",
		Short: "Compute a method for one resource and record the result",
		Args:  cobra.NoArgs,
		RunE:  runRunMethod, // Defined in cmd_ledger.go
	}

	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE:  runInitConfig,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: search $SENSEMAKER_CONFIG, ./sensemaker.yaml, XDG, /etc)")
	pf.StringVar(&backend, "backend", "", "Ledger backend: sqlite or badger")
	pf.StringVar(&ledgerPath, "ledger", "", "Ledger database path")
	pf.StringVar(&author, "author", "", "Author recorded on every write")
	pf.BoolVar(&inMemory, "in-memory", false, "Keep the ledger in memory only")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")

	serveCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&bundleDir, "bundles", "", "Directory of applet bundles to register at startup")
	serveCmd.Flags().BoolVar(&watch, "watch", false, "Keep registering bundles written to the bundle directory")

	runMethodCmd.Flags().StringVar(&runResource, "resource", "", "Entity address of the resource")
	runMethodCmd.Flags().StringVar(&runResourceDef, "resource-def", "", "Entity address of the resource definition")
	runMethodCmd.Flags().StringVar(&runMethod, "method", "", "Entity address of the method")
	for _, name := range []string{"resource", "resource-def", "method"} {
		_ = runMethodCmd.MarkFlagRequired(name)
	}

	initConfigCmd.Flags().StringVarP(&initOutput, "output", "o", "", "Where to write the file (default: XDG config dir)")

	rootCmd.AddCommand(serveCmd, registerCmd, runMethodCmd, initConfigCmd)
}

// loadConfig layers flags over the config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg  *config.Config
		used string
		err  error
	)
	if configPath != "" {
		cfg, used, err = config.LoadFromPath(configPath)
	} else {
		cfg, used, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("addr", func() { cfg.Server.Addr = addr })
	set("backend", func() { cfg.Ledger.Backend = config.Backend(backend) })
	set("ledger", func() { cfg.Ledger.Path = ledgerPath })
	set("author", func() { cfg.Ledger.Author = author })
	set("in-memory", func() { cfg.Ledger.InMemory = inMemory })
	set("bundles", func() { cfg.Bundles.Dir = bundleDir })
	set("watch", func() { cfg.Bundles.Watch = watch })
	set("log-level", func() { cfg.Log.Level = logLevel })
	set("log-format", func() { cfg.Log.Format = logFormat })

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if used != "" {
		slog.Debug("config loaded", "path", used)
	}
	return cfg, nil
}

// setup loads config and builds the process logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openLedger opens the configured backend.
func openLedger(cfg config.LedgerConfig, logger *slog.Logger) (ledger.Ledger, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		store, err := badger.Open(badger.Config{
			Path:     cfg.Path,
			InMemory: cfg.InMemory,
			Author:   cfg.Author,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		path := cfg.Path
		if cfg.InMemory {
			path = ":memory:"
		}
		store, err := sqlite.Open(path, cfg.Author)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
}

func runInitConfig(cmd *cobra.Command, _ []string) error {
	path := initOutput
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
