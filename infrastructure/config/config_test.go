package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// chdir moves into an empty directory so no stray .env is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BREAKER_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.BreakerTimeout)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "")
	// godotenv only sets unset variables
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_YAMLOverlayThenEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "multinet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":7000"
log_level: warn
read_timeout: 3s
store_backend: dynamodb
table_name: graphs
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ServerAddress)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "graphs", cfg.DynamoDBTable)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.StoreBackend = "redis" }, "unknown STORE_BACKEND"},
		{"sqlite without path", func(c *Config) { c.StoreBackend = StoreSQLite; c.SQLitePath = "" }, "SQLITE_PATH"},
		{"dynamodb without table", func(c *Config) { c.StoreBackend = StoreDynamoDB; c.DynamoDBTable = "" }, "TABLE_NAME"},
		{"bad threshold", func(c *Config) { c.BreakerFailureThreshold = 1.5 }, "BREAKER_FAILURE_THRESHOLD"},
		{"production without secret", func(c *Config) {
			c.Environment = "production"
			c.StoreBackend = StoreDynamoDB
		}, "JWT_SECRET"},
		{"production on memory", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
		}, "memory store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "warn"
	logger, level, err := NewLogger(cfg)
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestWatcher_WithoutFileIsInert(t *testing.T) {
	cfg := Defaults()
	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, cfg, w.GetConfig())
	w.Stop()
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multinet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	load := func() (*Config, error) {
		cfg := Defaults()
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
	initial, err := load()
	require.NoError(t, err)

	w, err := newWatcher(initial, load, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	FollowLogLevel(w, level, zap.NewNop())

	var mu sync.Mutex
	var seen []string
	w.OnChange(func(c *Config) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.LogLevel)
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return w.GetConfig().LogLevel == "debug"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"debug"}, seen)
	mu.Unlock()
}

func TestWatcher_KeepsConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multinet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_backend: memory\n"), 0o600))

	load := func() (*Config, error) {
		cfg := Defaults()
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
	initial, err := load()
	require.NoError(t, err)

	w, err := newWatcher(initial, load, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("store_backend: redis\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Same(t, initial, w.GetConfig())
}
