package handler

import (
	"errors"
	"net/http"

	"github.com/campustrade/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// Response is the API envelope: {success, data|error}.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func successResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func successMessage(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

func errorResponse(message string) Response {
	return Response{Success: false, Error: message}
}

// serviceError maps the service error taxonomy onto HTTP status codes.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse("Access denied"))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrIllegalTransition):
		return c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrInvalidOperation):
		return c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}

// requireUID returns the authenticated uid. When the request carries none it
// writes the 401 envelope and reports false; callers must stop immediately.
func requireUID(c echo.Context) (string, bool) {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		_ = c.JSON(http.StatusUnauthorized, errorResponse("Authentication required"))
		return "", false
	}
	return uid, true
}
