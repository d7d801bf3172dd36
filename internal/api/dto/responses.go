package dto

import (
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// OK builds a success envelope
func OK(message string, data interface{}) SuccessResponse {
	return SuccessResponse{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope
func Fail(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Code: code}
}

// FromError maps err to its HTTP status and error envelope. Errors outside the
// taxonomy become a generic internal error.
func FromError(err error) (int, ErrorResponse) {
	appErr := apperrors.GetAppError(err)
	return appErr.Status, Fail(appErr.Code, appErr.Message)
}
