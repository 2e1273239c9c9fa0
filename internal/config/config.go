package config

import (
	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"backup_tracker"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"BACKUP_TRACKER_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"BACKUP_TRACKER_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string `envconfig:"BACKUP_TRACKER_BASE_URL" default:"https://localhost:3443"`
	LogLevel        string `envconfig:"BACKUP_TRACKER_LOG_LEVEL" default:"info"`
	Kafka           kafkaConfig
	MigrationFolder string `envconfig:"BACKUP_TRACKER_MIGRATIONS_FOLDER" default:""`
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"BACKUP_TRACKER_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"BACKUP_TRACKER_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"BACKUP_TRACKER_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"BACKUP_TRACKER_KAFKA_CLIENT_ID" default:""`

	SaramaConfig *sarama.Config
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config populated with defaults only, ignoring the
// environment. Used by tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     "5432",
			Name:     "backup_tracker",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			BaseUrl:        "https://localhost:3443",
			LogLevel:       "info",
		},
	}
}
