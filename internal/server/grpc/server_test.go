package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeClients []models.ClientInfo

func (f fakeClients) List() []models.ClientInfo {
	return append([]models.ClientInfo(nil), f...)
}

var connectedAt = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func testClients() fakeClients {
	return fakeClients{
		{ID: "bob", ConnID: "c2", Address: "10.0.0.2", Port: 40002, ConnectedAt: connectedAt},
		{ID: "alice", ConnID: "c1", Address: "10.0.0.1", Port: 40001, ConnectedAt: connectedAt},
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, fakeClients{}, []byte("secret"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, fakeClients{}, []byte("secret"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected listen error for invalid port")
	}
}

// dialBufconn serves s over an in-memory listener and returns a client
// connection to it.
func dialBufconn(t *testing.T, s *GRPCServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func TestDiagnostics_ListClients(t *testing.T) {
	t.Parallel()

	secret := []byte("operator-key")
	s := NewGRPCServer("", nopLogger{}, testClients(), secret)
	client := NewDiagnosticsClient(dialBufconn(t, s))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.ListClients(ctx)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated without token, got %v", err)
	}

	token, err := auth.GenerateToken("ops", secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	out, err := client.ListClients(withToken(ctx, token))
	if err != nil {
		t.Fatalf("ListClients error: %v", err)
	}

	m := out.AsMap()
	if m["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", m["count"])
	}
	clients, ok := m["clients"].([]any)
	if !ok || len(clients) != 2 {
		t.Fatalf("unexpected clients field: %#v", m["clients"])
	}
	first := clients[0].(map[string]any)
	if first["id"] != "alice" || first["address"] != "10.0.0.1" || first["port"] != float64(40001) {
		t.Fatalf("clients not sorted by id or fields wrong: %#v", first)
	}
	if first["connected_at"] != "2025-03-14T15:09:26Z" {
		t.Fatalf("connected_at = %v", first["connected_at"])
	}
}

func TestDiagnostics_PingAndHealth(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("", nopLogger{}, fakeClients{}, []byte("k"))
	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	conn := dialBufconn(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ts, err := NewDiagnosticsClient(conn).Ping(ctx)
	if err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if !ts.AsTime().Equal(fixed) {
		t.Fatalf("Ping = %v, want %v", ts.AsTime(), fixed)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: DiagnosticsServiceName})
	if err != nil {
		t.Fatalf("health check error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v", resp.GetStatus())
	}
}
