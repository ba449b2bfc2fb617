package httpinterface

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"

	"github.com/mintmarket/marketd/pkg/errors"
)

type successEnvelope struct {
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{
		Message:   message,
		Data:      data,
		RequestID: requestID,
	}); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error, requestID string) {
	status := http.StatusInternalServerError
	name := errors.INTERNAL_ERROR.Name

	var typed errors.Error
	if stderrors.As(err, &typed) {
		status = httpStatus(typed.GrpcCode())
		name = typed.CodeName()
		typed.Log().Debug(typed.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(errorEnvelope{
		Error:     name,
		Message:   err.Error(),
		RequestID: requestID,
	}); encErr != nil {
		log.WithError(encErr).Warn("failed to write error response")
	}
}

func httpStatus(code grpccodes.Code) int {
	switch code {
	case grpccodes.InvalidArgument:
		return http.StatusBadRequest
	case grpccodes.PermissionDenied:
		return http.StatusForbidden
	case grpccodes.FailedPrecondition:
		return http.StatusConflict
	case grpccodes.DeadlineExceeded:
		return http.StatusGone
	case grpccodes.Aborted:
		return http.StatusBadGateway
	case grpccodes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
