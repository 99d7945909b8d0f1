package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/brenthale/elassandra/internal/core/domain"
)

const (
	DefaultMaxRetryTimeout = 30 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultSniffInterval   = 5 * time.Minute

	// Small delay to ensure a rewritten config file is complete before
	// the reload reads it.
	DefaultFileWriteDelay = 150 * time.Millisecond
)

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cluster: ClusterConfig{
			Nodes: []string{"http://localhost:9200"},
		},
		Client: ClientConfig{
			MaxRetryTimeout: DefaultMaxRetryTimeout,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Sniff: SniffConfig{
			Enabled:   false,
			Scheme:    "http",
			Interval:  DefaultSniffInterval,
			OnFailure: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Theme:      "default",
			PrettyLogs: true,
		},
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string, onConfigChange func()) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("ELASSANDRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if envFile := os.Getenv("ELASSANDRA_CONFIG_FILE"); envFile != "" {
			viper.SetConfigFile(envFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", envFile, err)
			}
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	viper.WatchConfig()

	if onConfigChange != nil {
		viper.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			// lame debounce to avoid rapid-fire reloads
			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return
			}
			lastReload = now

			// editors and windows fire the event before the file is
			// fully written
			time.Sleep(DefaultFileWriteDelay)
			onConfigChange()
		})
	}
	return config, nil
}

// Reload re-reads the watched config file into a fresh Config.
func Reload() (*Config, error) {
	config := DefaultConfig()
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error re-reading config file: %w", err)
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if len(c.Cluster.Nodes) == 0 {
		return &domain.ConfigValidationError{Field: "cluster.nodes", Value: c.Cluster.Nodes, Reason: "at least one node is required"}
	}
	if c.Client.MaxRetryTimeout <= 0 {
		return &domain.ConfigValidationError{Field: "client.max_retry_timeout", Value: c.Client.MaxRetryTimeout, Reason: "must be positive"}
	}
	if c.Client.RequestTimeout <= 0 {
		return &domain.ConfigValidationError{Field: "client.request_timeout", Value: c.Client.RequestTimeout, Reason: "must be positive"}
	}
	if c.Sniff.Enabled && c.Sniff.Interval <= 0 {
		return &domain.ConfigValidationError{Field: "sniff.interval", Value: c.Sniff.Interval, Reason: "must be positive when sniffing is enabled"}
	}
	return nil
}

// ClusterNodes parses the configured node addresses.
func (c *Config) ClusterNodes() ([]*domain.Node, error) {
	nodes := make([]*domain.Node, 0, len(c.Cluster.Nodes))
	for _, raw := range c.Cluster.Nodes {
		node, err := domain.NewNode(raw)
		if err != nil {
			return nil, &domain.ConfigValidationError{Field: "cluster.nodes", Value: raw, Reason: err.Error()}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
