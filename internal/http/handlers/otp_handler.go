// README: One-time passcode issue and verify endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	codes Passcodes
}

func NewOTPHandler(codes Passcodes) *OTPHandler {
	return &OTPHandler{codes: codes}
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *OTPHandler) Issue(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.codes.Issue(c.Request.Context(), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, gin.H{"sent": true})
}

func (h *OTPHandler) Verify(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.codes.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"verified": true})
}
