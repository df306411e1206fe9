package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	gs "github.com/dmitrijs2005/socialnet/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const operatorTokenTTL = 5 * time.Minute

// ClientEntry is one row of the connected clients listing.
type ClientEntry struct {
	ID          string
	Address     string
	Port        int
	ConnectedAt string
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *gs.DiagnosticsClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient connects to the diagnostics endpoint at endpointURL and
// signs an operator token for operator from the shared secret.
func NewGRPCClient(endpointURL, operator string, secret []byte, opts ...grpc.DialOption) (*GRPCClient, error) {
	key, err := auth.OperatorKey(secret)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(operator, key, operatorTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing operator token: %w", err)
	}

	c := &GRPCClient{endpointURL: endpointURL, accessToken: token}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)
	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.client = gs.NewDiagnosticsClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	}
	return err
}

// Ping returns the server clock.
func (s *GRPCClient) Ping(ctx context.Context) (time.Time, error) {
	ts, err := s.client.Ping(ctx)
	if err != nil {
		return time.Time{}, mapError(err)
	}
	return ts.AsTime(), nil
}

// ListClients returns the connected clients.
func (s *GRPCClient) ListClients(ctx context.Context) ([]ClientEntry, error) {
	out, err := s.client.ListClients(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	raw, _ := out.AsMap()["clients"].([]any)
	entries := make([]ClientEntry, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		e := ClientEntry{}
		e.ID, _ = m["id"].(string)
		e.Address, _ = m["address"].(string)
		e.ConnectedAt, _ = m["connected_at"].(string)
		if p, ok := m["port"].(float64); ok {
			e.Port = int(p)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
