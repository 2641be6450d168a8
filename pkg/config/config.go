package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Events  EventsConfig  `yaml:"events"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres | pebble
	DSN    string `yaml:"dsn"`    // postgres connection string
	Path   string `yaml:"path"`   // sqlite file or pebble directory
}

type IndexConfig struct {
	Kind string `yaml:"kind"` // bst | btree
}

type EventsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	Encoding string   `yaml:"encoding"` // json | proto
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "rollcall_data/rollcall.db",
		},
		Index: IndexConfig{
			Kind: "bst",
		},
		Events: EventsConfig{
			Topic:    "student-index",
			Encoding: "json",
		},
	}
}

// Load reads configPath (or the first of configs/rollcall.yaml, rollcall.yaml
// when empty), then applies .env and ROLLCALL_* environment overrides.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if err := godotenv.Load(); err == nil {
		log.Println("[Config] Loaded .env")
	}

	if configPath == "" {
		for _, p := range []string{"configs/rollcall.yaml", "rollcall.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, errors.Wrapf(err, "parse %s", p)
				}
				break
			}
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", configPath)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ROLLCALL_DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("ROLLCALL_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ROLLCALL_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ROLLCALL_TCP_ADDR"); v != "" {
		cfg.Server.TCPAddr = v
	}
	if v := os.Getenv("ROLLCALL_KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	def := defaults()
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Storage.Path == "" && cfg.Storage.Driver != "postgres" {
		cfg.Storage.Path = def.Storage.Path
	}
	if cfg.Index.Kind == "" {
		cfg.Index.Kind = def.Index.Kind
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = def.Events.Topic
	}
	if cfg.Events.Encoding == "" {
		cfg.Events.Encoding = def.Events.Encoding
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "pebble":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for postgres")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Index.Kind != "bst" && c.Index.Kind != "btree" {
		return errors.Errorf("unknown index kind %q", c.Index.Kind)
	}
	if c.Events.Encoding != "json" && c.Events.Encoding != "proto" {
		return errors.Errorf("unknown events encoding %q", c.Events.Encoding)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return errors.New("events.brokers is required when events are enabled")
	}
	return nil
}
