package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/engine"
	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

type OrderHandler struct {
	eng *engine.Engine
}

func NewOrderHandler(eng *engine.Engine) *OrderHandler {
	return &OrderHandler{eng: eng}
}

func (h *OrderHandler) Submit(c *gin.Context) {
	var req model.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	order, err := h.eng.Submit(c.Request.Context(), req.Seller, req.TotalAmount, req.TrancheAmount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.eng.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	readyOnly := c.Query("ready") == "1" || c.Query("ready") == "true"
	orders, err := h.eng.Orders(c.Request.Context(), readyOnly)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) Execute(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		c.Error(apperrors.NewInvalidRequest("order id is required"))
		return
	}

	var req model.ExecuteTrancheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	resp, err := h.eng.ExecuteTranche(c.Request.Context(), orderID, req.Keeper, req.ExpectedAnchorOut)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
