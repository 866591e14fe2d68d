package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/planning"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/suggest"
	"github.com/specialistvlad/taskgrid/internal/taskgraph"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// statusFor maps domain errors to HTTP statuses: 404 for missing things,
// 409 for conflicts with current state, 422 for requests that can never
// succeed, 503 when the suggester is unavailable.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, dag.ErrUnknownTask),
		errors.Is(err, placer.ErrUnknownItem),
		errors.Is(err, planning.ErrNoPreview):
		return http.StatusNotFound
	case errors.Is(err, dag.ErrCycle),
		errors.Is(err, dag.ErrDuplicateEdge),
		errors.Is(err, placer.ErrConflict),
		errors.Is(err, planning.ErrRequestInFlight),
		errors.Is(err, planning.ErrBusy),
		errors.Is(err, planning.ErrStaleResponse),
		errors.Is(err, store.ErrItemExists),
		errors.Is(err, store.ErrEdgeExists):
		return http.StatusConflict
	case errors.Is(err, dag.ErrSelfEdge),
		errors.Is(err, placer.ErrFixedItem),
		errors.Is(err, placer.ErrInvalidTime),
		errors.Is(err, placer.ErrOutOfDay),
		errors.Is(err, placer.ErrOutsideWindow),
		errors.Is(err, planning.ErrInvalidDay),
		errors.Is(err, taskgraph.ErrInvalidSpec):
		return http.StatusUnprocessableEntity
	case errors.Is(err, suggest.ErrNoSuggestion):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ee *dag.EdgeError
	if errors.As(err, &ee) {
		body.Error = ee.Message()
		body.Reason = string(ee.Reason)
	}
	var ce *placer.ConflictError
	if errors.As(err, &ce) {
		body.Reason = "conflict"
	}

	if status == http.StatusInternalServerError {
		a.logger.Error("Request failed.", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func (a *App) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error(), Reason: "bad_request"})
}
