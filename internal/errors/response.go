package errors

import (
	"errors"
	"net/http"
)

// ErrorDetail is the caller-facing part of an error response.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into the response body. For builder
// errors the hint is preferred over the raw message so internals never leak.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Success: false,
		Code:    ErrInternal.Error(),
		Error:   ErrorDetail{Message: "an unexpected error occurred"},
	}
	if err == nil {
		return resp
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		resp.Code = ie.Mark().Error()
		resp.Error.Message = ie.Error()
		if ie.Hint() != "" {
			resp.Error.Message = ie.Hint()
		}
		resp.Error.Details = ie.ReportableDetails()
		return resp
	}

	resp.Error.Message = err.Error()
	return resp
}

// HTTPStatusFromErr maps an error's sentinel mark to an HTTP status code.
func HTTPStatusFromErr(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsInvalidOperation(err):
		return http.StatusUnprocessableEntity
	case IsPermissionDenied(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
