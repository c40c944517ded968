// README: Profile of the authenticated caller together with the resolved role.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/middleware"
	"bitebay/internal/modules/identity"
)

type ProfileHandler struct {
	profiles Profiles
}

func NewProfileHandler(profiles Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type meResponse struct {
	Profile  *identity.Profile `json:"profile"`
	FullName string            `json:"fullName"`
	Role     identity.Role     `json:"role"`
}

func (h *ProfileHandler) Me(c *gin.Context) {
	caller := middleware.Caller(c)
	p, err := h.profiles.Profile(c.Request.Context(), caller.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, meResponse{Profile: p, FullName: p.FullName(), Role: caller.Role})
}
