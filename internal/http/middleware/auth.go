// README: Bearer-token auth; verifies the token then resolves the caller's role from Postgres.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bitebay/internal/apperr"
	"bitebay/internal/infra"
	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/types"
)

const callerKey = "caller"

// CallerResolver turns a verified uid into a role-bearing caller.
type CallerResolver interface {
	Resolve(ctx context.Context, uid types.ID, email string) (*identity.Caller, error)
}

// Auth rejects requests without a valid bearer token and a role row.
func Auth(verifier infra.TokenVerifier, resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		authenticate(c, verifier, resolver, raw)
	}
}

// OptionalAuth lets anonymous requests through with no caller. A token that is
// present must still be valid.
func OptionalAuth(verifier infra.TokenVerifier, resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			c.Next()
			return
		}
		authenticate(c, verifier, resolver, raw)
	}
}

func authenticate(c *gin.Context, verifier infra.TokenVerifier, resolver CallerResolver, raw string) {
	ctx := c.Request.Context()
	tok, err := verifier.VerifyIDToken(ctx, raw)
	if err != nil || tok == nil || tok.UID == "" {
		abort(c, http.StatusUnauthorized, "invalid token")
		return
	}
	caller, err := resolver.Resolve(ctx, types.ID(tok.UID), tok.Email)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			abort(c, apperr.HTTPStatus(err), ae.Error())
			return
		}
		logger.FromCtx(ctx).Error("resolve caller failed", zap.String("uid", tok.UID), zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Set(callerKey, caller)
	c.Next()
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Caller returns the authenticated caller, or nil for anonymous requests.
func Caller(c *gin.Context) *identity.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*identity.Caller)
	return caller
}

// CallerUID returns the caller's user id, or "" for anonymous requests.
func CallerUID(c *gin.Context) string {
	if caller := Caller(c); caller != nil {
		return string(caller.UserID)
	}
	return ""
}
