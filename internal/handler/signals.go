package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
	"github.com/unwindlabs/tranchegate/internal/stream"
)

type SignalsHandler struct {
	hub *stream.Hub
}

func NewSignalsHandler(hub *stream.Hub) *SignalsHandler {
	return &SignalsHandler{hub: hub}
}

// Stream upgrades to a websocket that receives every rebase signal.
func (h *SignalsHandler) Stream(c *gin.Context) {
	if err := h.hub.Subscribe(c.Writer, c.Request); err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
	}
}
