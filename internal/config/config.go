package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Bus kinds understood by the node factory.
const (
	BusMemory = "memory"
	BusRedis  = "redis"
	BusMQTT   = "mqtt"
)

// Config is the full node configuration (grasp.yaml).
type Config struct {
	Node   NodeConfig   `yaml:"node" mapstructure:"node"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Bus    BusConfig    `yaml:"bus" mapstructure:"bus"`
	Topics ports.Topics `yaml:"topics" mapstructure:"topics"`
	Redis  RedisConfig  `yaml:"redis" mapstructure:"redis"`
	MQTT   MQTTConfig   `yaml:"mqtt" mapstructure:"mqtt"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	MCP    MCPConfig    `yaml:"mcp" mapstructure:"mcp"`
}

type NodeConfig struct {
	Name      string `yaml:"name" mapstructure:"name"`
	InboxSize int    `yaml:"inbox_size" mapstructure:"inbox_size"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type BusConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

type MQTTConfig struct {
	Broker         string        `yaml:"broker" mapstructure:"broker"`
	ClientID       string        `yaml:"client_id" mapstructure:"client_id"`
	Username       string        `yaml:"username" mapstructure:"username"`
	Password       string        `yaml:"password" mapstructure:"password"`
	QoS            int           `yaml:"qos" mapstructure:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Default returns a runnable configuration: an in-memory node with the HTTP API on :8080.
func Default() Config {
	return Config{
		Node:   NodeConfig{Name: "manipulation_node", InboxSize: 64},
		Log:    LogConfig{Level: "info", Format: string(logging.FormatAuto)},
		Bus:    BusConfig{Kind: BusMemory},
		Topics: ports.DefaultTopics(),
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "grasp:"},
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "manipulation_node",
			QoS:            1,
			ConnectTimeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{Enabled: true, Addr: ":8080"},
	}
}

// envBindings maps environment variables onto configuration keys.
var envBindings = map[string][]string{
	"GRASP_NODE_NAME":      {"node", "name"},
	"GRASP_LOG_LEVEL":      {"log", "level"},
	"GRASP_LOG_FORMAT":     {"log", "format"},
	"GRASP_BUS":            {"bus", "kind"},
	"GRASP_REDIS_ADDR":     {"redis", "addr"},
	"GRASP_REDIS_PASSWORD": {"redis", "password"},
	"GRASP_REDIS_DB":       {"redis", "db"},
	"GRASP_MQTT_BROKER":    {"mqtt", "broker"},
	"GRASP_MQTT_CLIENT_ID": {"mqtt", "client_id"},
	"GRASP_MQTT_USERNAME":  {"mqtt", "username"},
	"GRASP_MQTT_PASSWORD":  {"mqtt", "password"},
	"GRASP_MQTT_QOS":       {"mqtt", "qos"},
	"GRASP_HTTP_ADDR":      {"http", "addr"},
	"GRASP_HTTP_ENABLED":   {"http", "enabled"},
	"GRASP_MCP_ENABLED":    {"mcp", "enabled"},
}

// Load reads the YAML file at path (optional when empty), overlays GRASP_*
// environment variables and decodes the result over Default().
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for env, keys := range envBindings {
		if val, ok := lookup(env); ok {
			set(raw, keys, val)
		}
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Topics = cfg.Topics.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode decodes loosely typed input onto cfg. Fields absent from raw keep their value.
func Decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate reports every problem found in the configuration.
func (c Config) Validate() error {
	var errs []error

	switch c.Bus.Kind {
	case BusMemory, BusRedis:
	case BusMQTT:
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required for the mqtt bus"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown bus kind %q (want memory, redis or mqtt)", c.Bus.Kind))
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.Bus.Kind == BusRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required for the redis bus"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}

	seen := map[string]string{}
	for name, topic := range map[string]string{
		"pick":             c.Topics.Pick,
		"handoff":          c.Topics.Handoff,
		"feedback":         c.Topics.Feedback,
		"object_acquired":  c.Topics.ObjectAcquired,
		"handoff_complete": c.Topics.HandoffComplete,
	} {
		if strings.TrimSpace(topic) == "" {
			errs = append(errs, fmt.Errorf("topics.%s is empty", name))
			continue
		}
		if other, dup := seen[topic]; dup {
			errs = append(errs, fmt.Errorf("topics.%s and topics.%s share %q", name, other, topic))
		}
		seen[topic] = name
	}

	return errors.Join(errs...)
}

func set(m map[string]any, keys []string, val string) {
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = val
}
