// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bitebay/internal/apperr"
	"bitebay/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

const maxIDLen = 64

// isValidID accepts uuids and the short slugs used by fixtures.
func isValidID(v string) bool {
	if v == "" || len(v) > maxIDLen {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module errors to responses. Anything without a known
// kind is logged and reported as "internal error".
func writeServiceError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		writeError(c, status, "internal error")
		return
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeError(c, status, ae.Error())
		return
	}
	writeError(c, status, http.StatusText(status))
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func requireID(c *gin.Context, field, v string) bool {
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, field+" is required")
		return false
	}
	return true
}
