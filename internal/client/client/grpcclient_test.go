package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	gs "github.com/dmitrijs2005/socialnet/internal/server/grpc"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type staticClients []models.ClientInfo

func (s staticClients) List() []models.ClientInfo { return s }

func startDiagnostics(t *testing.T, secret []byte, clients staticClients) grpc.DialOption {
	t.Helper()

	key, err := auth.OperatorKey(secret)
	require.NoError(t, err)
	srv := gs.NewGRPCServer("", logging.NewDiscardLogger(), clients, key)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestGRPCClient_ListClients(t *testing.T) {
	secret := []byte("shared-secret")
	dialer := startDiagnostics(t, secret, staticClients{
		{ID: "alice", Address: "127.0.0.1", Port: 5555, ConnectedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	})

	c, err := NewGRPCClient("passthrough:///bufnet", "ops", secret, dialer)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := c.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ClientEntry{{ID: "alice", Address: "127.0.0.1", Port: 5555, ConnectedAt: "2025-01-01T00:00:00Z"}}, got)

	_, err = c.Ping(ctx)
	require.NoError(t, err)
}

func TestGRPCClient_WrongSecret(t *testing.T) {
	dialer := startDiagnostics(t, []byte("server-secret"), nil)

	c, err := NewGRPCClient("passthrough:///bufnet", "ops", []byte("other-secret"), dialer)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = c.ListClients(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
}
