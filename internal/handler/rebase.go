package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/engine"
)

type RebaseHandler struct {
	rebaser *engine.Rebaser
}

func NewRebaseHandler(rebaser *engine.Rebaser) *RebaseHandler {
	return &RebaseHandler{rebaser: rebaser}
}

func (h *RebaseHandler) Trigger(c *gin.Context) {
	sig, err := h.rebaser.Trigger(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sig)
}
