// README: Admin role assignment and verification endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/middleware"
	"bitebay/internal/types"
)

type AdminHandler struct {
	registrar Registrar
}

func NewAdminHandler(registrar Registrar) *AdminHandler {
	return &AdminHandler{registrar: registrar}
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) AssignRole(c *gin.Context) {
	id := c.Param("id")
	if !requireID(c, "user id", id) {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.registrar.AssignRole(c.Request.Context(), middleware.Caller(c), types.ID(id), req.Role); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"userId": id, "role": req.Role})
}

func (h *AdminHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	if !requireID(c, "user id", id) {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.registrar.Verify(c.Request.Context(), middleware.Caller(c), types.ID(id), req.Role); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"userId": id, "verified": true})
}
