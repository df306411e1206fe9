// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

// Config holds runtime settings for the social network server.
//
// Fields:
//   - EndpointAddr: bind address of the line protocol listener.
//   - EndpointAddrGRPC: bind address of the diagnostics gRPC endpoint; empty disables it.
//   - MaxConnections: concurrent session cap.
//   - ChunkCount / ChunkAckTimeout / ChunkMaxAttempts: download transfer tuning.
//   - HandshakeTokenTTL: lifetime of a download handshake token.
//   - MaxUploadSize: largest accepted photo, in bytes.
//   - SecretKey: HMAC secret; handshake and operator keys are derived from it.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps accounts and timelines in memory.
//   - StorageBackend: "fs" or "s3". StorageDir is the fs root.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddr      string
	EndpointAddrGRPC  string
	MaxConnections    int
	ChunkCount        int
	ChunkAckTimeout   time.Duration
	ChunkMaxAttempts  int
	HandshakeTokenTTL time.Duration
	MaxUploadSize     int64
	SecretKey         string
	DatabaseDSN       string
	StorageBackend    string
	StorageDir        string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	LogLevel          string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.MaxConnections = 8
	c.ChunkCount = 10
	c.ChunkAckTimeout = 5 * time.Second
	c.ChunkMaxAttempts = 3
	c.HandshakeTokenTTL = 1 * time.Minute
	c.MaxUploadSize = 10 << 20
	c.SecretKey = "secretKey"
	c.DatabaseDSN = ""
	c.StorageBackend = StorageFS
	c.StorageDir = "server_data"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "socialnet"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.EndpointAddr == "":
		return fmt.Errorf("%w: empty listen address", common.ErrorValidation)
	case c.MaxConnections < 1:
		return fmt.Errorf("%w: max connections must be positive", common.ErrorValidation)
	case c.ChunkCount < 1 || c.ChunkMaxAttempts < 1:
		return fmt.Errorf("%w: chunk count and attempts must be positive", common.ErrorValidation)
	case c.ChunkAckTimeout <= 0 || c.HandshakeTokenTTL <= 0:
		return fmt.Errorf("%w: timeouts must be positive", common.ErrorValidation)
	case c.MaxUploadSize < 1:
		return fmt.Errorf("%w: max upload size must be positive", common.ErrorValidation)
	case c.SecretKey == "":
		return fmt.Errorf("%w: empty secret key", common.ErrorValidation)
	case c.StorageBackend != StorageFS && c.StorageBackend != StorageS3:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrorValidation, c.StorageBackend)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
