package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/admingroup/internal/application/registry"
	"github.com/zjrosen/admingroup/internal/flags"
	"github.com/zjrosen/admingroup/internal/tracing"
)

// loadWithViper reads path the way the CLI does.
func loadWithViper(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "admingroup.db", filepath.Base(cfg.Store.Path))
	require.Equal(t, registry.PolicyGlobal, cfg.UniquenessPolicy())
	require.Equal(t, registry.DeleteKeysFirst, cfg.DeleteOrder())
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.False(t, cfg.Tracing.Enabled, "tracing should be disabled by default")
	require.NotEmpty(t, cfg.Tracing.FilePath)
	require.True(t, cfg.Flags[flags.FlagBatchUIDShortcut])
	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty enums fall back", mutate: func(c *Config) {
			c.Registry = RegistryConfig{}
			c.Store.Driver = ""
		}},
		{name: "course policy", mutate: func(c *Config) { c.Registry.Uniqueness = "course" }},
		{name: "group-first", mutate: func(c *Config) { c.Registry.DeleteOrder = "group-first" }},
		{name: "postgres", mutate: func(c *Config) {
			c.Store = StoreConfig{Driver: DriverPostgres, DSN: "postgres://localhost/admingroup"}
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "store.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: "store.path"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: "store.dsn"},
		{name: "unknown policy", mutate: func(c *Config) { c.Registry.Uniqueness = "strict" }, wantErr: "registry.uniqueness"},
		{name: "unknown order", mutate: func(c *Config) { c.Registry.DeleteOrder = "random" }, wantErr: "registry.delete_order"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: "cache.ttl"},
		{name: "sample rate", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample_rate"},
		{name: "unknown exporter", mutate: func(c *Config) { c.Tracing.Exporter = "zipkin" }, wantErr: "tracing.exporter"},
		{name: "file exporter without path", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.FilePath = ""
		}, wantErr: "tracing.file_path"},
		{name: "otlp without endpoint", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterOTLP
			c.Tracing.OTLPEndpoint = ""
		}, wantErr: "tracing.otlp_endpoint"},
		{name: "disabled tracing skips path checks", mutate: func(c *Config) {
			c.Tracing.FilePath = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	cfg := loadWithViper(t, path)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, Defaults().Store.Path, cfg.Store.Path, "commented path keeps the default")
	require.Equal(t, registry.PolicyGlobal, cfg.UniquenessPolicy())
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Defaults()
	cfg.Store = StoreConfig{Driver: DriverPostgres, DSN: "postgres://localhost/admingroup"}
	cfg.Registry = RegistryConfig{Uniqueness: "course", DeleteOrder: "group-first"}
	cfg.Cache = CacheConfig{Enabled: true, TTL: 90 * time.Second}
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = tracing.ExporterStdout
	cfg.Flags = map[string]bool{flags.FlagChangeEvents: false}

	require.NoError(t, Save(path, cfg))

	loaded := loadWithViper(t, path)
	require.Equal(t, cfg.Store, loaded.Store)
	require.Equal(t, registry.PolicyCourse, loaded.UniquenessPolicy())
	require.Equal(t, registry.DeleteGroupFirst, loaded.DeleteOrder())
	require.Equal(t, cfg.Cache, loaded.Cache)
	require.True(t, loaded.Tracing.Enabled)
	require.Equal(t, tracing.ExporterStdout, loaded.Tracing.Exporter)
	require.False(t, loaded.Flags[flags.FlagChangeEvents])
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: bogus\n"), 0o600))

	require.NoError(t, Save(path, Defaults()))
	require.Equal(t, DriverSQLite, loadWithViper(t, path).Store.Driver)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}
