package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/warroomops/warroom-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// Every error response has the body {code, message, details}.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status     int
	retryAfter int
	Code       string `json:"code" doc:"Machine-readable error code"`
	Message    string `json:"message" doc:"Human-readable error message"`
	Retryable  bool   `json:"retryable" doc:"Whether the same request may be retried unchanged"`
	Details    any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// GetHeaders adds Retry-After to rate limited responses.
func (e *APIError) GetHeaders() http.Header {
	if e.retryAfter <= 0 {
		return nil
	}
	h := http.Header{}
	h.Set("Retry-After", strconv.Itoa(e.retryAfter))
	return h
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}
		}

		// Request bodies and parameters that fail huma's schema checks
		// (wrong types, fractional scores) are reported like any other
		// validation failure.
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: message,
				Details: schemaDetails(errs),
			}
		}

		code := statusToCode(status)
		return &APIError{
			status:    status,
			Code:      string(code),
			Message:   message,
			Retryable: code.Retryable(),
		}
	}
}

// toAPIError converts a service error up front so that huma sees the
// response headers it carries.
func toAPIError(err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return fromDomainError(domainErr)
	}
	return err
}

func fromDomainError(err *domainerrors.Error) *APIError {
	apiErr := &APIError{
		status:    err.HTTPStatus(),
		Code:      string(err.Code),
		Message:   err.Message,
		Retryable: err.Code.Retryable(),
		Details:   err.Details,
	}
	if err.Code == domainerrors.CodeInternal {
		// Causes can carry SQL or file paths.
		apiErr.Message = "internal error"
		apiErr.Details = nil
	}
	if details, ok := err.Details.(map[string]string); ok {
		if secs, convErr := strconv.Atoi(details["retry_after_seconds"]); convErr == nil {
			apiErr.retryAfter = secs
		}
	}
	return apiErr
}

// schemaDetails collects huma's per-location messages.
func schemaDetails(errs []error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			details[detail.Location] = detail.Message
			continue
		}
		details["request"] = err.Error()
	}
	return details
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodePermissionDenied
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}
