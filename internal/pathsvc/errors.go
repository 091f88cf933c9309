package pathsvc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/export"
	"github.com/vlarkus/blitz/kb"
	"github.com/vlarkus/blitz/model"
	"github.com/vlarkus/blitz/store"
)

// ErrInvalidRequest is a package-level sentinel used for malformed request
// payloads.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps engine, store and export errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, model.ErrNullArgument),
		errors.Is(err, store.ErrInvalidDocument),
		errors.Is(err, core.ErrUnknownSpline):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, export.ErrUnknownFormat):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, export.ErrNotExportable),
		errors.Is(err, export.ErrSingleTrajectoryFormat),
		errors.Is(err, model.ErrNoSuccessor):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, kb.ErrDuplicateName),
		errors.Is(err, model.ErrDuplicateName),
		errors.Is(err, model.ErrAlreadyMember),
		errors.Is(err, export.ErrDuplicateFormat):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
