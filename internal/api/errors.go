package api

import (
	"errors"

	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/session"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, scan.ErrInvalidRequest):
		code = codes.InvalidArgument
	case errors.Is(err, scan.ErrAlreadyRunning), errors.Is(err, session.ErrScanInProgress):
		code = codes.FailedPrecondition
	case errors.Is(err, session.ErrUnknownSession):
		code = codes.NotFound
	default:
		code = codes.Internal
	}
	return grpcstatus.Error(code, err.Error())
}
