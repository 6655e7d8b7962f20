package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/outreach-agent/internal/orchestrator"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrWorkflowTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
