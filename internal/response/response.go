package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ecochamps/internal/contextutils"
	"ecochamps/internal/services"
)

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder constructs standardized JSON responses
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Success creates a successful API response
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: contextutils.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
	}
}

// Error creates an error response from a service error
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     b.convertError(ctx, err),
		RequestID: contextutils.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
	}
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes a JSON response with appropriate headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	if statusCode == http.StatusNoContent {
		return
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", contextutils.GetRequestID(r.Context())),
		)
	}
}

// WriteSuccess writes a successful JSON response
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a successful creation response
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteNoContent writes a successful no-content response
func (b *Builder) WriteNoContent(w http.ResponseWriter, r *http.Request) {
	b.WriteJSON(w, r, nil, http.StatusNoContent)
}

// WriteError writes an error response with the status the error maps to
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	response := b.Error(r.Context(), err)
	b.WriteJSON(w, r, response, b.statusCodeFor(err))
}

// WriteUnauthorized writes a 401 response
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	b.WriteError(w, r, services.NewUnauthorizedError(message))
}

// ===============================
// ERROR CONVERSION
// ===============================

// convertError maps errors to the wire representation. Internal errors are
// masked; the original goes to the log with the request id.
func (b *Builder) convertError(ctx context.Context, err error) *ErrorDetail {
	if svcErr, ok := services.AsServiceError(err); ok {
		detail := &ErrorDetail{
			Type:    svcErr.Type,
			Message: svcErr.Message,
			Code:    svcErr.Code,
			Details: svcErr.Details,
		}
		if svcErr.GetStatusCode() >= http.StatusInternalServerError {
			b.logger.Error("Internal service error",
				zap.Error(err),
				zap.String("request_id", contextutils.GetRequestID(ctx)),
			)
			detail.Message = "An internal error occurred"
			detail.Details = nil
		}
		return detail
	}

	b.logger.Error("Unclassified error",
		zap.Error(err),
		zap.String("request_id", contextutils.GetRequestID(ctx)),
	)
	return &ErrorDetail{
		Type:    "INTERNAL_ERROR",
		Message: "An internal error occurred",
	}
}

func (b *Builder) statusCodeFor(err error) int {
	if svcErr, ok := services.AsServiceError(err); ok {
		return svcErr.GetStatusCode()
	}
	return http.StatusInternalServerError
}
