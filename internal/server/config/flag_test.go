package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9000", "-l", "127.0.0.1:9090", "-m", "16", "-n", "5", "-w", "2", "-r", "4",
			"-t", "3", "-z", "1024", "-s", "secret", "-d", "db", "-k", "s3", "-f", "/srv/data",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint", "-v", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:      "127.0.0.1:9000",
				EndpointAddrGRPC:  "127.0.0.1:9090",
				MaxConnections:    16,
				ChunkCount:        5,
				ChunkAckTimeout:   2 * time.Second,
				ChunkMaxAttempts:  4,
				HandshakeTokenTTL: 3 * time.Minute,
				MaxUploadSize:     1024,
				SecretKey:         "secret",
				DatabaseDSN:       "db",
				StorageBackend:    "s3",
				StorageDir:        "/srv/data",
				S3RootUser:        "user",
				S3RootPassword:    "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
				LogLevel:          "debug",
			}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-x", "1", "-c", "cfg.json", "-m", "2"},
			expected: &Config{MaxConnections: 2}},
		{name: "bad int panics", args: []string{"cmd", "-m", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
