package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  task_assigned_topic_name: "workshop.task-assigned"
redis:
  host: "localhost"
  port: 6379
workshop:
  http_addr: ":8080"
  worker_http_addr: ":8081"
  system_user_id: 1
  cors_origins: ["http://localhost:5173"]
  lookup_rate_limit_per_minute: 30
  purge_interval_seconds: 300
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.Database.ConnString())
	require.Equal(t, "workshop.task-assigned", cfg.Kafka.TaskAssignedTopicName)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, ":8080", cfg.Workshop.HTTPAddr)
	require.EqualValues(t, 1, cfg.Workshop.SystemUserID)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.Workshop.CORSOrigins)
	require.Equal(t, 30, cfg.Workshop.LookupRateLimitPerMinute)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
