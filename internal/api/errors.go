package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tgienger/todo/internal/store"
)

var statusCodes = []struct {
	err  error
	code int
}{
	{store.ErrValidation, http.StatusBadRequest},
	{store.ErrNotFound, http.StatusNotFound},
	{store.ErrNotConfirmed, http.StatusConflict},
	{store.ErrUnsupported, http.StatusNotImplemented},
}

// StatusCode maps a store error to its HTTP status
func StatusCode(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return http.StatusInternalServerError
}

func httpError(err error) error {
	code := StatusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError && errors.Is(err, store.ErrPersist) {
		msg = "change kept in memory but not saved: " + msg
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}
