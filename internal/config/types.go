package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Cluster ClusterConfig `yaml:"cluster"`
	Client  ClientConfig  `yaml:"client"`
	Sniff   SniffConfig   `yaml:"sniff"`
}

// ClusterConfig names the backend nodes requests fan out over.
type ClusterConfig struct {
	Name  string   `yaml:"name"`
	Nodes []string `yaml:"nodes"`
}

// ClientConfig holds dispatcher and transport tuning.
type ClientConfig struct {
	MaxRetryTimeout time.Duration `yaml:"max_retry_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	EnableTrace     bool          `yaml:"enable_trace"`
}

// SniffConfig controls node discovery.
type SniffConfig struct {
	Scheme    string        `yaml:"scheme"`
	Interval  time.Duration `yaml:"interval"`
	Enabled   bool          `yaml:"enabled"`
	OnFailure bool          `yaml:"on_failure"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Theme      string `yaml:"theme"`
	LogDir     string `yaml:"log_dir"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	FileOutput bool   `yaml:"file_output"`
	PrettyLogs bool   `yaml:"pretty_logs"`
}
