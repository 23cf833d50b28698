package handler

import (
	"errors"
	"net/http"

	"floodmap-api/internal/mapsurface"
	"floodmap-api/internal/models"
	"floodmap-api/internal/service"

	"github.com/gin-gonic/gin"
)

// FloodSession interface for dependency injection
type FloodSession interface {
	Load() <-chan service.Result
	LocationChanged(models.Coordinate) error
	Create() <-chan service.Result
	SelectPin(models.Pin) error
	DeleteSelected() <-chan service.Result
	Snapshot() (service.Snapshot, error)
}

// PinSource exposes what the map surface currently shows
type PinSource interface {
	View() mapsurface.View
}

// ReportHandler translates client gestures into session requests
type ReportHandler struct {
	session FloodSession
	pins    PinSource
}

// NewReportHandler creates a new report handler
func NewReportHandler(session FloodSession, pins PinSource) *ReportHandler {
	return &ReportHandler{session: session, pins: pins}
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

func (r coordinateRequest) coordinate() models.Coordinate {
	return models.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type pinRequest struct {
	coordinateRequest
	Title    string `json:"title"`
	ReportID string `json:"report_id"`
}

// Pins handles GET /pins requests
//
//	@Summary	Pins and region currently shown on the map
//	@Produce	json
//	@Success	200	{object}	mapsurface.View
//	@Router		/pins [get]
func (h *ReportHandler) Pins(c *gin.Context) {
	c.JSON(http.StatusOK, h.pins.View())
}

// Session handles GET /session requests
//
//	@Summary	Session state
//	@Produce	json
//	@Success	200	{object}	service.Snapshot
//	@Failure	503	{object}	map[string]string
//	@Router		/session [get]
func (h *ReportHandler) Session(c *gin.Context) {
	snap, err := h.session.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UpdateLocation handles POST /location requests
//
//	@Summary	Report the device's current location
//	@Accept		json
//	@Produce	json
//	@Param		location	body	coordinateRequest	true	"current location"
//	@Success	204
//	@Failure	400	{object}	map[string]string
//	@Router		/location [post]
func (h *ReportHandler) UpdateLocation(c *gin.Context) {
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinate"})
		return
	}

	if err := h.session.LocationChanged(req.coordinate()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateReport handles POST /reports requests
//
//	@Summary	Report flooding at the current location
//	@Produce	json
//	@Success	201	{object}	models.FloodReport
//	@Failure	409	{object}	map[string]string
//	@Failure	502	{object}	map[string]string
//	@Router		/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	res, ok := await(c, h.session.Create())
	if !ok {
		return
	}
	if res.Err != nil {
		writeError(c, res.Err)
		return
	}
	c.JSON(http.StatusCreated, res.Report)
}

// Reload handles POST /reports/reload requests
//
//	@Summary	Refetch every report from the store
//	@Produce	json
//	@Success	200	{object}	mapsurface.View
//	@Failure	502	{object}	map[string]string
//	@Router		/reports/reload [post]
func (h *ReportHandler) Reload(c *gin.Context) {
	res, ok := await(c, h.session.Load())
	if !ok {
		return
	}
	if res.Err != nil {
		writeError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, h.pins.View())
}

// SelectPin handles POST /pins/select requests
//
//	@Summary	Select a pin as the target of the next delete
//	@Accept		json
//	@Param		pin	body	pinRequest	true	"selected pin"
//	@Success	204
//	@Failure	400	{object}	map[string]string
//	@Router		/pins/select [post]
func (h *ReportHandler) SelectPin(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pin"})
		return
	}

	pin := models.Pin{Coordinate: req.coordinate(), Title: req.Title, ReportID: req.ReportID}
	if err := h.session.SelectPin(pin); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSelected handles DELETE /pins/selected requests
//
//	@Summary	Delete the selected pin and its report
//	@Produce	json
//	@Success	200	{object}	models.FloodReport
//	@Failure	404	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Failure	502	{object}	map[string]string
//	@Router		/pins/selected [delete]
func (h *ReportHandler) DeleteSelected(c *gin.Context) {
	res, ok := await(c, h.session.DeleteSelected())
	if !ok {
		return
	}
	if res.Err != nil {
		writeError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, res.Report)
}

// await waits for a session completion. If the client goes away first the
// operation still runs to completion inside the session.
func await(c *gin.Context, ch <-chan service.Result) (service.Result, bool) {
	select {
	case res := <-ch:
		return res, true
	case <-c.Request.Context().Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request cancelled before completion"})
		return service.Result{}, false
	}
}

func writeError(c *gin.Context, err error) {
	var (
		backendErr *models.BackendError
		recErr     *models.ReconciliationError
	)

	switch {
	case errors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session closed"})
	case errors.Is(err, service.ErrInvalidCoordinate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinate"})
	case errors.Is(err, service.ErrNoSelection):
		c.JSON(http.StatusNotFound, gin.H{"error": "no pin selected"})
	case errors.Is(err, models.ErrNoLocation):
		c.JSON(http.StatusConflict, gin.H{"error": "current location unknown"})
	case errors.As(err, &recErr):
		c.JSON(http.StatusConflict, gin.H{"error": "pin has no known report"})
	case errors.Is(err, models.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.As(err, &backendErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "report store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
