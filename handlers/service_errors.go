package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/campus-eats/services"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	message := publicMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, "")

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsExternalError(err):
		logger.Warn("identity provider error", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, message)

	case services.IsInternalError(err):
		// Internal causes stay in the log
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

func publicMessage(err error) string {
	var derr *services.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return ""
}
