// Package handler provides HTTP handlers for the application.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/buildmart/buildmart-server/internal/errors"
)

// errorResponse is the wire shape of every error response: error carries the
// human-readable message as a plain string, code the machine-readable code.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSON writes a JSON response with the appropriate headers.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// APIError writes an application error in the standard envelope. The status
// and code come from the error taxonomy; internal errors are collapsed to a
// generic message so upstream detail never leaks.
func APIError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := apperrors.GetHTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	JSON(w, status, errorResponse{
		Error: apperrors.UserMessage(err),
		Code:  string(apperrors.GetCode(err)),
	})
}

// ValidationError writes a 400 with the given message.
func ValidationError(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, errorResponse{
		Error: message,
		Code:  string(apperrors.CodeValidation),
	})
}
