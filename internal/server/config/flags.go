package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/flagx"
)

var serverFlags = []string{
	"-a", "-l", "-m", "-n", "-w", "-r", "-t", "-z", "-s", "-d",
	"-k", "-f", "-u", "-p", "-b", "-g", "-e", "-v",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   protocol listen address (e.g., ":8000")
//	-l string   diagnostics gRPC address (e.g., ":50051")
//	-m int      max concurrent connections
//	-n int      chunks per download
//	-w int      chunk ack timeout, seconds
//	-r int      attempts per chunk
//	-t int      handshake token TTL, minutes
//	-z int      max upload size, bytes
//	-s string   secret key
//	-d string   PostgreSQL DSN
//	-k string   storage backend (fs|s3)
//	-f string   storage directory for the fs backend
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-v string   log level
//
// Duration flags are whole seconds or minutes and are converted to
// time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "l", config.EndpointAddrGRPC, "address and port of the diagnostics endpoint")
	fs.IntVar(&config.MaxConnections, "m", config.MaxConnections, "max concurrent connections")
	fs.IntVar(&config.ChunkCount, "n", config.ChunkCount, "chunks per download")
	ackTimeout := fs.Int("w", int(config.ChunkAckTimeout.Seconds()), "chunk ack timeout (in seconds)")
	fs.IntVar(&config.ChunkMaxAttempts, "r", config.ChunkMaxAttempts, "attempts per chunk")
	tokenTTL := fs.Int("t", int(config.HandshakeTokenTTL.Minutes()), "handshake token ttl (in minutes)")
	fs.Int64Var(&config.MaxUploadSize, "z", config.MaxUploadSize, "max upload size (in bytes)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (fs|s3)")
	fs.StringVar(&config.StorageDir, "f", config.StorageDir, "storage directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ChunkAckTimeout = time.Duration(*ackTimeout) * time.Second
	config.HandshakeTokenTTL = time.Duration(*tokenTTL) * time.Minute
}
