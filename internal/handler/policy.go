package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/engine"
	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

type PolicyHandler struct {
	eng *engine.Engine
	// deployment defaults applied when the init request leaves a field unset
	defaultInterval int64
	defaultMaxTxBP  uint64
}

func NewPolicyHandler(eng *engine.Engine, defaultInterval int64, defaultMaxTxBP uint64) *PolicyHandler {
	return &PolicyHandler{eng: eng, defaultInterval: defaultInterval, defaultMaxTxBP: defaultMaxTxBP}
}

func (h *PolicyHandler) Init(c *gin.Context) {
	var req model.InitConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	if req.TrancheInterval <= 0 {
		req.TrancheInterval = h.defaultInterval
	}
	if req.MaxTxPercentBP == 0 {
		req.MaxTxPercentBP = h.defaultMaxTxBP
	}

	pol, err := h.eng.InitPolicy(c.Request.Context(), req.Owner, req.TrancheInterval, req.MaxTxPercentBP)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, pol)
}

func (h *PolicyHandler) Get(c *gin.Context) {
	pol, err := h.eng.Policy(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pol)
}
