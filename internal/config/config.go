// Package config loads and validates the gateway configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "10s" as well as plain nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration")
	}
	*d = Duration(n)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full gateway configuration. Zero values are filled in
// by Default; Load layers a YAML file over those defaults.
type Config struct {
	Server   Server   `yaml:"server"`
	Upstream Upstream `yaml:"upstream"`
	Otel     Otel     `yaml:"otel"`
}

// Server configures the HTTP GraphQL endpoint.
type Server struct {
	Addr           string   `yaml:"addr"`
	Timeout        Duration `yaml:"timeout"`
	Pretty         bool     `yaml:"pretty"`
	MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	GraphiQL       bool     `yaml:"graphiql"`
}

// Upstream configures the JSON-RPC connection to the ledger node.
type Upstream struct {
	Endpoint   string            `yaml:"endpoint"`
	RPCTimeout Duration          `yaml:"rpcTimeout"`
	Headers    map[string]string `yaml:"headers"`
}

// Otel configures trace export.
type Otel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			Timeout:      Duration(10 * time.Second),
			MaxBodyBytes: 1 << 20,
			GraphiQL:     true,
		},
		Upstream: Upstream{
			RPCTimeout: Duration(3 * time.Second),
		},
		Otel: Otel{
			Service: "ledgergate",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream.endpoint is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.Upstream.RPCTimeout < 0 {
		return fmt.Errorf("upstream.rpcTimeout must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.maxBodyBytes must not be negative")
	}
	return nil
}
