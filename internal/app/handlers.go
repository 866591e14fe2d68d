package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/planning"
	"github.com/specialistvlad/taskgrid/internal/taskgraph"
)

type edgeRequest struct {
	PredecessorID string `json:"predecessor_id" binding:"required"`
	SuccessorID   string `json:"successor_id" binding:"required"`
}

type placeRequest struct {
	ItemID          string `json:"item_id" binding:"required"`
	Start           string `json:"start" binding:"required"`
	DurationMinutes *int   `json:"duration_minutes"`
}

type slotResponse struct {
	Hour  int          `json:"hour"`
	Items []model.Item `json:"items"`
}

// Tasks and dependencies

func (a *App) handleListTasks(c *gin.Context) {
	items, err := a.store.ListItems(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": items, "count": len(items)})
}

func (a *App) handleImport(c *gin.Context) {
	spec, err := taskgraph.DecodeGraphSpec(c.Request.Body)
	if err != nil {
		a.writeError(c, err)
		return
	}
	res, err := a.graph.ImportGraph(c.Request.Context(), spec)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a *App) handlePicker(c *gin.Context) {
	opts, err := a.graph.Picker(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": c.Param("id"), "options": opts})
}

func (a *App) handleChain(c *gin.Context) {
	chain, err := a.graph.Chain(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chain)
}

func (a *App) handleDeleteTask(c *gin.Context) {
	if err := a.graph.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleCheckDependency(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, err)
		return
	}
	err := a.graph.CheckDependency(c.Request.Context(), req.PredecessorID, req.SuccessorID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	body := gin.H{"ok": false, "error": err.Error()}
	if ee := edgeError(err); ee != nil {
		body["error"] = ee.Message()
		body["reason"] = string(ee.Reason)
		c.JSON(http.StatusOK, body)
		return
	}
	a.writeError(c, err)
}

func (a *App) handleAddDependency(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.graph.AddDependency(c.Request.Context(), req.PredecessorID, req.SuccessorID); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.Edge{Predecessor: req.PredecessorID, Successor: req.SuccessorID})
}

func (a *App) handleRemoveDependency(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.graph.RemoveDependency(c.Request.Context(), req.PredecessorID, req.SuccessorID); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Days and placements

func (a *App) handleDayIndex(c *gin.Context) {
	idx, err := a.planner.DayIndex(c.Request.Context(), c.Param("day"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	slots := make([]slotResponse, 0, len(idx.Hours()))
	for _, h := range idx.Hours() {
		slots = append(slots, slotResponse{Hour: h, Items: idx.At(h)})
	}
	c.JSON(http.StatusOK, gin.H{"day": idx.Day(), "slots": slots})
}

func (a *App) handlePlace(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, err)
		return
	}
	pl, err := a.planner.PlaceAt(c.Request.Context(), c.Param("day"), req.ItemID, req.Start, req.DurationMinutes)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pl)
}

func (a *App) handleUnplace(c *gin.Context) {
	if err := a.planner.Unplace(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleAutoPlan(c *gin.Context) {
	ctx := c.Request.Context()
	if err := a.session.SelectDay(ctx, c.Param("day")); err != nil {
		a.writeError(c, err)
		return
	}
	preview, err := a.session.AutoPlan(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (a *App) handleOptimize(c *gin.Context) {
	ctx := c.Request.Context()
	if err := a.session.SelectDay(ctx, c.Param("day")); err != nil {
		a.writeError(c, err)
		return
	}
	preview, err := a.session.Optimize(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// sessionOn fails with ErrNoPreview unless the session is on day.
func (a *App) sessionOn(c *gin.Context) bool {
	if a.session.Day() != c.Param("day") {
		a.writeError(c, planning.ErrNoPreview)
		return false
	}
	return true
}

func (a *App) handlePreview(c *gin.Context) {
	if !a.sessionOn(c) {
		return
	}
	preview, err := a.session.Preview()
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (a *App) handleApplyPreview(c *gin.Context) {
	if !a.sessionOn(c) {
		return
	}
	report, err := a.session.Apply(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *App) handleRejectPreview(c *gin.Context) {
	if !a.sessionOn(c) {
		return
	}
	if err := a.session.Reject(c.Request.Context()); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func edgeError(err error) *dag.EdgeError {
	var ee *dag.EdgeError
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}
