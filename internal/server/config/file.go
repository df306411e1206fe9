package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/flagx"
	"github.com/dmitrijs2005/socialnet/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// both strings such as "5s" and integer nanoseconds. Fields left out of the
// file keep their current value.
type FileConfig struct {
	EndpointAddr      string         `json:"endpoint_addr" yaml:"endpoint_addr"`
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MaxConnections    int            `json:"max_connections" yaml:"max_connections"`
	ChunkCount        int            `json:"chunk_count" yaml:"chunk_count"`
	ChunkAckTimeout   timex.Duration `json:"chunk_ack_timeout" yaml:"chunk_ack_timeout"`
	ChunkMaxAttempts  int            `json:"chunk_max_attempts" yaml:"chunk_max_attempts"`
	HandshakeTokenTTL timex.Duration `json:"handshake_token_ttl" yaml:"handshake_token_ttl"`
	MaxUploadSize     int64          `json:"max_upload_size" yaml:"max_upload_size"`
	SecretKey         string         `json:"secret_key" yaml:"secret_key"`
	DatabaseDSN       string         `json:"database_dsn" yaml:"database_dsn"`
	StorageBackend    string         `json:"storage_backend" yaml:"storage_backend"`
	StorageDir        string         `json:"storage_dir" yaml:"storage_dir"`
	S3RootUser        string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays values from the file named by -c or -config. Files
// ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setInt(&config.MaxConnections, c.MaxConnections)
	setInt(&config.ChunkCount, c.ChunkCount)
	if c.ChunkAckTimeout.Duration > 0 {
		config.ChunkAckTimeout = c.ChunkAckTimeout.Duration
	}
	setInt(&config.ChunkMaxAttempts, c.ChunkMaxAttempts)
	if c.HandshakeTokenTTL.Duration > 0 {
		config.HandshakeTokenTTL = c.HandshakeTokenTTL.Duration
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.StorageDir, c.StorageDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
