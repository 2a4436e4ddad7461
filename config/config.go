package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Workshop WorkshopConfig `yaml:"workshop"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnString builds the pgx connection string; ssl mode defaults to disable.
func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	TaskAssignedTopicName string `yaml:"task_assigned_topic_name"`
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type WorkshopConfig struct {
	HTTPAddr       string   `yaml:"http_addr"`
	WorkerHTTPAddr string   `yaml:"worker_http_addr"`
	SystemUserID   int64    `yaml:"system_user_id"`
	CORSOrigins    []string `yaml:"cors_origins"`

	// Public lookup throttling, per client IP.
	LookupRateLimitPerMinute int `yaml:"lookup_rate_limit_per_minute"`

	PurgeIntervalSeconds int    `yaml:"purge_interval_seconds"`
	KafkaConsumerGroup   string `yaml:"kafka_consumer_group"`

	// Mail API used by the worker. Empty base url means emails are only logged.
	MailAPIBaseURL string `yaml:"mail_api_base_url"`
	MailAPIKey     string `yaml:"mail_api_key"`
	MailFrom       string `yaml:"mail_from"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
