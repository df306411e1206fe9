package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

// Flag names shared by the command tree and Merge.
const (
	FlagServer      = "server"
	FlagDiagnostics = "diagnostics"
	FlagDataDir     = "data-dir"
	FlagTimeout     = "timeout"
	FlagSecret      = "secret"
	FlagFaults      = "faults"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerAddr: host:port of the line protocol endpoint.
//   - DiagnosticsAddr: host:port of the diagnostics gRPC endpoint.
//   - DataDir: where downloaded photos are written, one directory per client.
//   - ReadTimeout: bound on every wait for a server line.
//   - SecretKey: shared server secret, used to mint operator tokens.
//   - InjectFaults: run downloads with the default acknowledgement faults.
type Config struct {
	ServerAddr      string
	DiagnosticsAddr string
	DataDir         string
	ReadTimeout     time.Duration
	SecretKey       string
	InjectFaults    bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:8000"
	c.DiagnosticsAddr = "127.0.0.1:50051"
	c.DataDir = "client_data"
	c.ReadTimeout = 30 * time.Second
	c.SecretKey = "secretKey"
	c.InjectFaults = true
}

// Merge copies the fields of from whose flag changed reports as set.
func (c *Config) Merge(from *Config, changed func(name string) bool) {
	if changed(FlagServer) {
		c.ServerAddr = from.ServerAddr
	}
	if changed(FlagDiagnostics) {
		c.DiagnosticsAddr = from.DiagnosticsAddr
	}
	if changed(FlagDataDir) {
		c.DataDir = from.DataDir
	}
	if changed(FlagTimeout) {
		c.ReadTimeout = from.ReadTimeout
	}
	if changed(FlagSecret) {
		c.SecretKey = from.SecretKey
	}
	if changed(FlagFaults) {
		c.InjectFaults = from.InjectFaults
	}
}

func (c *Config) Validate() error {
	switch {
	case c.ServerAddr == "":
		return fmt.Errorf("%w: empty server address", common.ErrorValidation)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("%w: read timeout must be positive", common.ErrorValidation)
	}
	return nil
}

// Load applies defaults, the optional file at path and then the explicitly
// set flags held in flags.
func Load(path string, flags *Config, changed func(name string) bool) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if flags != nil {
		cfg.Merge(flags, changed)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
