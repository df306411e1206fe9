package grpc

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const OperatorIDKey ctxKey = "operatorID"

// protectedMethods require an operator token.
var protectedMethods = map[string]bool{
	ListClientsMethod: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if protectedMethods[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		operatorID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			s.logger.Warn(ctx, "rejected operator token", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, OperatorIDKey, operatorID)

	}

	return handler(ctx, req)
}
