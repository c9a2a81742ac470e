package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"expense-api/internal/models"
	"expense-api/internal/services"
	"expense-api/pkg/lambda"
)

// internalErrorMessage is the only thing a caller learns about a server-side failure
const internalErrorMessage = "Oops! Grab a cup of coffee and give it a few minutes."

// missingQueryMessage is returned when a read names neither a day nor a full range
const missingQueryMessage = "Please provide a specificDate (MM-DD-YYYY) or both fromDate and toDate"

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusFor maps an error onto the HTTP status the caller receives
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// validationResponse builds the 400 body of a validation failure
func validationResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: "Validation failed"}

	var fieldErr *models.ValidationError
	var serviceErr *services.Error
	switch {
	case errors.As(err, &fieldErr):
		resp.Message = fieldErr.Message
	case errors.As(err, &serviceErr):
		resp.Message = serviceErr.Message
	default:
		resp.Message = err.Error()
	}

	return resp
}

// InternalErrorResponse is the 500 answer for failures before a request reaches the handler
func InternalErrorResponse() *lambda.Response {
	body, _ := json.Marshal(internalErrorMessage)
	headers := CORSHeaders()
	headers["Content-Type"] = "application/json"
	return &lambda.Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    headers,
		Body:       body,
	}
}
