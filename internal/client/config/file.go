package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file decoding. Pointer fields
// distinguish "absent" from a zero value.
type FileConfig struct {
	ServerAddr      string          `json:"server_addr" yaml:"server_addr"`
	DiagnosticsAddr string          `json:"diagnostics_addr" yaml:"diagnostics_addr"`
	DataDir         string          `json:"data_dir" yaml:"data_dir"`
	ReadTimeout     *timex.Duration `json:"read_timeout" yaml:"read_timeout"`
	SecretKey       string          `json:"secret_key" yaml:"secret_key"`
	InjectFaults    *bool           `json:"inject_faults" yaml:"inject_faults"`
}

// LoadFile overlays c with the values present in the file at path. Files
// ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}

	if fc.ServerAddr != "" {
		c.ServerAddr = fc.ServerAddr
	}
	if fc.DiagnosticsAddr != "" {
		c.DiagnosticsAddr = fc.DiagnosticsAddr
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.ReadTimeout != nil {
		c.ReadTimeout = fc.ReadTimeout.Duration
	}
	if fc.SecretKey != "" {
		c.SecretKey = fc.SecretKey
	}
	if fc.InjectFaults != nil {
		c.InjectFaults = *fc.InjectFaults
	}
	return nil
}
