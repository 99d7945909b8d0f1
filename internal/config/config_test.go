package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Cluster.Nodes) == 0 {
		t.Fatal("default config must seed at least one node")
	}
	if cfg.Client.MaxRetryTimeout != DefaultMaxRetryTimeout {
		t.Errorf("expected retry timeout %v, got %v", DefaultMaxRetryTimeout, cfg.Client.MaxRetryTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "no nodes", mutate: func(c *Config) { c.Cluster.Nodes = nil }},
		{name: "zero retry timeout", mutate: func(c *Config) { c.Client.MaxRetryTimeout = 0 }},
		{name: "negative retry timeout", mutate: func(c *Config) { c.Client.MaxRetryTimeout = -time.Second }},
		{name: "zero request timeout", mutate: func(c *Config) { c.Client.RequestTimeout = 0 }},
		{name: "sniff enabled without interval", mutate: func(c *Config) {
			c.Sniff.Enabled = true
			c.Sniff.Interval = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClusterNodes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cluster.Nodes = []string{"http://10.0.0.1:9200", "10.0.0.2"}

	nodes, err := cfg.ClusterNodes()
	if err != nil {
		t.Fatalf("ClusterNodes failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[1].URLString != "http://10.0.0.2:9200" {
		t.Errorf("expected default scheme and port applied, got %s", nodes[1].URLString)
	}

	cfg.Cluster.Nodes = []string{"http://bad host"}
	if _, err := cfg.ClusterNodes(); err == nil {
		t.Error("expected error for malformed node address")
	}
}
