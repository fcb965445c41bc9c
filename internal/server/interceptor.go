package server

import (
	"context"
	"time"

	"klask-tracker/internal/middleware"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

// callLogger records every procedure call with the authenticated user on the
// request-scoped logger.
func callLogger() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			event := zerolog.Ctx(ctx).Info()
			if err != nil {
				event = zerolog.Ctx(ctx).Warn().Str("code", connect.CodeOf(err).String())
			}
			event.
				Str("procedure", req.Spec().Procedure).
				Str("user", middleware.GetUser(ctx)).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("rpc handled")
			return res, err
		}
	}
}
