package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "x-request-id"

// LoggingInterceptor логирует каждый вызов с request_id. Идентификатор
// берется из метаданных клиента или генерируется и возвращается в заголовке.
func LoggingInterceptor(log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDHeader); len(values) > 0 {
				requestID = values[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"duration":   time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("request failed")
		} else {
			entry.Info("request handled")
		}
		return resp, err
	}
}
