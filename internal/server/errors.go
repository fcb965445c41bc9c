package server

import (
	"context"
	"errors"
	"fmt"

	"klask-tracker/internal/domain"
	"klask-tracker/internal/middleware"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

var errorCodes = []struct {
	kind error
	code connect.Code
}{
	{domain.ErrInvalidMatch, connect.CodeInvalidArgument},
	{domain.ErrInvalidPlayer, connect.CodeInvalidArgument},
	{domain.ErrInvalidDocument, connect.CodeInvalidArgument},
	{domain.ErrIndexOutOfRange, connect.CodeOutOfRange},
	{domain.ErrPlayerNotFound, connect.CodeNotFound},
	{domain.ErrUnsupported, connect.CodeUnimplemented},
	{domain.ErrStorage, connect.CodeUnavailable},
	{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
	{context.Canceled, connect.CodeCanceled},
}

// toConnectError maps domain error kinds onto connect codes. Anything
// unrecognised is internal: the cause is logged and the client only gets the
// request id to quote.
func toConnectError(ctx context.Context, err error) error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.kind) {
			return connect.NewError(ec.code, err)
		}
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("unhandled error")
	if id := middleware.GetRequestID(ctx); id != "" {
		return connect.NewError(connect.CodeInternal, fmt.Errorf("internal error, request %s", id))
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
