// README: Order tracking snapshot and its server-sent event stream.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bitebay/internal/http/middleware"
	"bitebay/internal/logger"
	"bitebay/internal/modules/tracking"
	"bitebay/internal/types"
)

type TrackingHandler struct {
	snapshots Snapshotter
	feed      FeedRunner
}

func NewTrackingHandler(snapshots Snapshotter, feed FeedRunner) *TrackingHandler {
	return &TrackingHandler{snapshots: snapshots, feed: feed}
}

func (h *TrackingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !requireID(c, "order id", id) {
		return
	}
	snap, err := h.snapshots.Snapshot(c.Request.Context(), middleware.Caller(c), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

// Stream pushes a full snapshot on every change until the order is terminal or
// the client goes away.
func (h *TrackingHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	if !requireID(c, "order id", id) {
		return
	}
	ctx := c.Request.Context()
	started := false
	err := h.feed.Run(ctx, middleware.Caller(c), types.ID(id), func(s *tracking.Snapshot) error {
		if !started {
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			started = true
		}
		c.SSEvent("snapshot", s)
		c.Writer.Flush()
		return nil
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case !started:
		writeServiceError(c, err)
	default:
		logger.FromCtx(ctx).Warn("tracking stream ended", zap.String("order_id", id), zap.Error(err))
	}
}
