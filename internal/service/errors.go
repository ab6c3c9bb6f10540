package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/middleware"
)

var errUnauthenticated = errors.New("authentication required")

// actorID returns the authenticated caller or an Unauthenticated error.
func actorID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return id, nil
}

// toConnectError maps a core error to a connect error by its apperr.Kind.
// Upstream and unclassified failures are logged and returned without detail.
func toConnectError(op string, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	switch ae.Kind {
	case apperr.KindValidation:
		return connect.NewError(connect.CodeInvalidArgument, ae)
	case apperr.KindNotAuthorized:
		return connect.NewError(connect.CodePermissionDenied, ae)
	case apperr.KindNotFound:
		return connect.NewError(connect.CodeNotFound, ae)
	case apperr.KindConflict:
		if errors.Is(err, apperr.ErrGroupFull) || errors.Is(err, apperr.ErrRoleSticky) || errors.Is(err, apperr.ErrCodeSpaceExhausted) {
			return connect.NewError(connect.CodeFailedPrecondition, ae)
		}
		return connect.NewError(connect.CodeAlreadyExists, ae)
	case apperr.KindUnavailable:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeUnavailable, errors.New(ae.Msg))
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
