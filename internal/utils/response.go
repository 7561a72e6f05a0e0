// Package utils provides utility functions and helpers for the application.
// This file implements a standardized API response system that ensures
// consistent response formats across all API endpoints.
//
// The response system includes:
//   - A standard Response structure for enveloped API responses
//   - Convenience functions for common error responses
//   - Raw JSON output for routes whose wire shape is fixed by clients
package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// Response represents a standardized API response.
type Response struct {
	Success bool        `json:"success"`         // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`  // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"` // Error information (omitted for successful responses)
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string            `json:"code"`              // A machine-readable error code
	Message string            `json:"message"`           // A human-readable error message
	Details map[string]string `json:"details,omitempty"` // Additional details about the error (e.g., validation errors)
}

// JSON sends an enveloped JSON response with the given status code and data.
// The success flag is derived from the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// Error sends an error response with the given status code and error information.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - code: A machine-readable error code
//   - message: A human-readable error message
//   - details: Additional details about the error (e.g., validation errors)
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorCode maps an application error to its machine-readable code.
func ErrorCode(err *AppError) string {
	switch err.Err {
	case ErrNotFound:
		return constants.CodeNotFound
	case ErrBadRequest:
		return constants.CodeBadRequest
	case ErrUnauthorized:
		return constants.CodeUnauthorized
	case ErrForbidden:
		return constants.CodeForbidden
	case ErrValidation:
		return constants.CodeValidationError
	case ErrDuplicate:
		return constants.CodeDuplicateResource
	case ErrExpiredToken:
		return constants.CodeTokenExpired
	case ErrInvalidToken:
		return constants.CodeTokenInvalid
	case ErrTooManyRequests:
		return constants.CodeTooManyRequests
	case ErrServiceUnavailable:
		return constants.CodeServiceUnavailable
	case ErrResetRequestNotFound:
		return constants.CodeResetRequestNotFound
	case ErrInvalidOTP:
		return constants.CodeInvalidOTP
	case ErrOTPExpired:
		return constants.CodeOTPExpired
	}
	return constants.CodeInternalError
}

// ErrorFromAppError sends an error response based on an AppError.
// DevInfo is never written to the client.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	var details map[string]string
	if err.Field != "" {
		details = map[string]string{
			err.Field: err.Message,
		}
	}
	if len(err.Details) > 0 {
		if details == nil {
			details = make(map[string]string, len(err.Details))
		}
		for k, v := range err.Details {
			details[k] = fmt.Sprintf("%v", v)
		}
	}

	Error(w, err.StatusCode, ErrorCode(err), err.Message, details)
}

// SendJSON writes data as JSON with proper headers and no envelope.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(constants.StatusNoContent)
}

// Unauthorized sends a 401 Unauthorized response with the given message.
func Unauthorized(w http.ResponseWriter, message string) {
	ErrorFromAppError(w, NewUnauthorizedError(message))
}

// Forbidden sends a 403 Forbidden response with the given message.
func Forbidden(w http.ResponseWriter, message string) {
	ErrorFromAppError(w, NewForbiddenError(message))
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, constants.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, constants.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}

// TooManyRequests sends a 429 response and tells the client when to retry.
func TooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	}
	ErrorFromAppError(w, NewTooManyRequestsError())
}

// InternalServerError sends a 500 Internal Server Error response.
// The error is logged but not exposed to the client.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, constants.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}
