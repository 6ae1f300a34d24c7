package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/admingroup/internal/application/registry"
	"github.com/zjrosen/admingroup/internal/cachemanager"
	"github.com/zjrosen/admingroup/internal/config"
	"github.com/zjrosen/admingroup/internal/flags"
	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/infrastructure/postgres"
	"github.com/zjrosen/admingroup/internal/infrastructure/sqlite"
	"github.com/zjrosen/admingroup/internal/log"
	"github.com/zjrosen/admingroup/internal/tracing"
)

var (
	version   = "dev"
	cfgFile   string
	dbPath    string
	debugFlag bool
	cfg       config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "admingroup",
	Short: "Course group registry with batch_uid keys",
	Long: `Manage course groups, group sets and the batch_uid keys that bind them
to external systems. Keys are checked for uniqueness before every write commits.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/admingroup/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"sqlite database file (overrides store.path)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also ADMINGROUP_DEBUG)")
}

func initConfig() {
	viper.Reset()
	defaults := config.Defaults()
	viper.SetDefault("store.driver", defaults.Store.Driver)
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("registry.uniqueness", defaults.Registry.Uniqueness)
	viper.SetDefault("registry.delete_order", defaults.Registry.DeleteOrder)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .admingroup/config.yaml (current directory)
		// 2. ~/.config/admingroup/config.yaml (user config)
		if _, err := os.Stat(".admingroup/config.yaml"); err == nil {
			viper.SetConfigFile(".admingroup/config.yaml")
		} else {
			viper.AddConfigPath(config.DefaultDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := filepath.Join(config.DefaultDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	cfg = defaults
	_ = viper.Unmarshal(&cfg)
}

func setup(_ *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("ADMINGROUP_DEBUG") != "" {
		logPath := os.Getenv("ADMINGROUP_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "admingroup starting", "version", version, "config", viper.ConfigFileUsed())
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// openStore opens and migrates the configured backing store.
func openStore(ctx context.Context, sc config.StoreConfig) (domain.Store, error) {
	if sc.Driver == config.DriverPostgres {
		db, err := postgres.NewDB(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := sqlite.NewDB(sc.Path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// withRegistry opens the store, builds a Registry from cfg and runs fn.
// Everything opened here is closed before it returns.
func withRegistry(cmd *cobra.Command, fn func(ctx context.Context, r *registry.Registry) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	opts := registry.Options{
		Policy:      cfg.UniquenessPolicy(),
		DeleteOrder: cfg.DeleteOrder(),
		Flags:       flags.New(cfg.Flags),
		Tracer:      provider.Tracer(),
	}
	if cfg.Cache.Enabled {
		opts.Cache = cachemanager.NewInMemoryCacheManager[registry.GroupCacheKey, registry.GroupSnapshot](
			"groups", cfg.Cache.TTL, 2*cfg.Cache.TTL)
		opts.CacheTTL = cfg.Cache.TTL
	}

	r := registry.New(store, opts)
	defer r.Close()

	return fn(ctx, r)
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
