package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"MarketLens/internal/model"
)

// APIResponse is the JSON envelope of every API reply.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// DataResponse writes data with the given status.
func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// BadRequestResponse writes request validation errors.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Status:  http.StatusBadRequest,
		Message: http.StatusText(http.StatusBadRequest),
		Code:    "invalid_request",
		Errors:  errs,
	})
}

// PipelineErrorResponse maps a pipeline error to its HTTP status.
func PipelineErrorResponse(c echo.Context, err error) error {
	status, code := http.StatusInternalServerError, "internal"
	var (
		invalid      *model.InvalidRangeError
		source       *model.DataSourceError
		insufficient *model.InsufficientDataError
	)
	switch {
	case errors.As(err, &invalid):
		status, code = http.StatusBadRequest, "invalid_range"
	case errors.As(err, &source):
		status, code = http.StatusBadGateway, "data_source"
	case errors.As(err, &insufficient):
		status, code = http.StatusUnprocessableEntity, "warning"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Something went wrong"
	}
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: msg,
		Code:    code,
	})
}
