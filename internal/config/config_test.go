package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 30m
quiz:
  idle_ttl: 45m
  min_answered: 0
  question_file: questions.yaml
ratelimit:
  per_second: 2.5
  burst: 5
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, TTLDuration(cfg.Redis.TTL, time.Minute))
	assert.Equal(t, 0, cfg.MinAnswered(6), "explicit zero disables the gate")
	assert.Equal(t, 45*time.Minute, TTLDuration(cfg.Quiz.IdleTTL, time.Minute))
	assert.Equal(t, "questions.yaml", cfg.Quiz.QuestionFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	perSecond, burst := cfg.Limits()
	assert.Equal(t, 2.5, perSecond)
	assert.Equal(t, 5, burst)
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.MinAnswered(6))
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())

	perSecond, burst := cfg.Limits()
	assert.Equal(t, 10.0, perSecond)
	assert.Equal(t, 20, burst)
}

func TestTTLDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, TTLDuration("2s", time.Minute))
}
