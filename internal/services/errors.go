// Package services holds the form and search logic between the HTTP handlers
// and the stores, executors and visualizations.
package services

import (
	"errors"
	"net/http"
)

// Error codes returned by the services.
const (
	CodeFormNotFound          = "FORM_NOT_FOUND"
	CodeInvalidForm           = "INVALID_FORM"
	CodeSearchFailed          = "SEARCH_FAILED"
	CodeStoreFailed           = "STORE_FAILED"
	CodeVisualizationNotFound = "VISUALIZATION_NOT_FOUND"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code to a response status.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeFormNotFound, CodeVisualizationNotFound:
		return http.StatusNotFound
	case CodeInvalidForm:
		return http.StatusBadRequest
	case CodeSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError unwraps err to a *ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
