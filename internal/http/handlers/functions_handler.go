// README: The five function endpoints (register, order status, accept, refund, admin stats).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/middleware"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/order"
	"bitebay/internal/modules/refund"
	"bitebay/internal/modules/registration"
	"bitebay/internal/types"
)

type FunctionsHandler struct {
	registrar  Registrar
	orders     OrderAdvancer
	deliveries Deliveries
	refunds    RefundProcessor
	stats      StatsReader
}

func NewFunctionsHandler(registrar Registrar, orders OrderAdvancer, deliveries Deliveries, refunds RefundProcessor, stats StatsReader) *FunctionsHandler {
	return &FunctionsHandler{
		registrar:  registrar,
		orders:     orders,
		deliveries: deliveries,
		refunds:    refunds,
		stats:      stats,
	}
}

func (h *FunctionsHandler) RegisterUser(c *gin.Context) {
	var req registration.RegisterCommand
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.registrar.Register(c.Request.Context(), req, middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"user": user})
}

type updateOrderStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func (h *FunctionsHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if !bindJSON(c, &req) || !requireID(c, "orderId", req.OrderID) {
		return
	}
	o, err := h.orders.Advance(c.Request.Context(), order.AdvanceCommand{
		OrderID: types.ID(req.OrderID),
		Status:  req.Status,
		Caller:  middleware.Caller(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orderId": o.ID, "status": o.Status})
}

type acceptDeliveryRequest struct {
	OrderID string `json:"orderId"`
}

func (h *FunctionsHandler) AcceptDelivery(c *gin.Context) {
	var req acceptDeliveryRequest
	if !bindJSON(c, &req) || !requireID(c, "orderId", req.OrderID) {
		return
	}
	a, err := h.deliveries.Accept(c.Request.Context(), delivery.AcceptCommand{
		OrderID: types.ID(req.OrderID),
		Caller:  middleware.Caller(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orderId": a.OrderID, "assignmentId": a.ID})
}

type processRefundRequest struct {
	RefundID string `json:"refundId"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (h *FunctionsHandler) ProcessRefund(c *gin.Context) {
	var req processRefundRequest
	if !bindJSON(c, &req) || !requireID(c, "refundId", req.RefundID) {
		return
	}
	r, err := h.refunds.Process(c.Request.Context(), refund.ProcessCommand{
		RefundID: types.ID(req.RefundID),
		Action:   req.Action,
		Reason:   req.Reason,
		Caller:   middleware.Caller(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"refundId": r.ID, "status": r.Status})
}

func (h *FunctionsHandler) AdminStats(c *gin.Context) {
	ov, err := h.stats.Overview(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ov)
}
