package grpc

import (
	"context"
	"sort"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {

	return timestamppb.New(s.now()), nil

}

func (s *GRPCServer) ListClients(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	operator, _ := ctx.Value(OperatorIDKey).(string)
	s.logger.Info(ctx, "Listing clients", "operator", operator)

	list := s.clients.List()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	clients := make([]any, 0, len(list))
	for _, c := range list {
		clients = append(clients, map[string]any{
			"id":           c.ID,
			"address":      c.Address,
			"port":         float64(c.Port),
			"connected_at": c.ConnectedAt.UTC().Format(time.RFC3339),
		})
	}

	out, err := structpb.NewStruct(map[string]any{
		"count":          float64(len(list)),
		"uptime_seconds": s.now().Sub(s.startedAt).Seconds(),
		"clients":        clients,
	})
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return out, nil

}
