// README: Partner-side handlers (progress, availability, live location).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/middleware"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/types"
)

type DeliveryHandler struct {
	deliveries Deliveries
	locations  Locations
}

func NewDeliveryHandler(deliveries Deliveries, locations Locations) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, locations: locations}
}

type progressRequest struct {
	Status string `json:"status"`
}

func (h *DeliveryHandler) Progress(c *gin.Context) {
	id := c.Param("orderId")
	if !requireID(c, "order id", id) {
		return
	}
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.deliveries.UpdateProgress(c.Request.Context(), delivery.ProgressCommand{
		OrderID: types.ID(id),
		Status:  req.Status,
		Caller:  middleware.Caller(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *DeliveryHandler) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Available == nil {
		writeError(c, http.StatusBadRequest, "available is required")
		return
	}
	if err := h.deliveries.SetAvailability(c.Request.Context(), middleware.Caller(c), *req.Available); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"available": *req.Available})
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *DeliveryHandler) UpdateLocation(c *gin.Context) {
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	p := types.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	if err := h.locations.UpdatePartnerLocation(c.Request.Context(), middleware.Caller(c), p); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
