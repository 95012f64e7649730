package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON shape every endpoint responds with.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{
		StatusCode: http.StatusOK,
		Message:    message,
		Data:       data,
	})
}

func badRequest(c echo.Context, message string, err error) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Error:      err.Error(),
	})
}

func serverError(c echo.Context, message string, err error) error {
	return c.JSON(http.StatusInternalServerError, Envelope{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Error:      err.Error(),
	})
}
