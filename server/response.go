package server

import (
	"encoding/json"
	"net/http"

	"github.com/asaidimu/datainsight/core"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *APIServer) writeSuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	s.writeJSONResponse(w, statusCode, APIResponse{Success: true, Data: data})
}

func (s *APIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message, details string) {
	s.writeJSONResponse(w, statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

// writeEngineError maps an engine or store error to a response. Request
// errors are 400, a missing dataset is 404 and anything else is 500.
func (s *APIServer) writeEngineError(w http.ResponseWriter, message string, err error) {
	code := core.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNoDataset):
		status = http.StatusNotFound
		message = "No dataset uploaded"
	case core.IsRequestError(err):
		status = http.StatusBadRequest
	default:
		s.logger.Error(message, zap.Error(err))
	}
	s.writeErrorResponse(w, status, code, message, err.Error())
}

func (s *APIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
