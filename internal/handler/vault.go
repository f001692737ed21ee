package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/engine"
	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

type VaultHandler struct {
	eng *engine.Engine
}

func NewVaultHandler(eng *engine.Engine) *VaultHandler {
	return &VaultHandler{eng: eng}
}

// Deposit credits a named balance. Owner-gated; used to fund seller asset
// balances and the settlement reserve.
func (h *VaultHandler) Deposit(c *gin.Context) {
	account := c.Param("name")
	if account == "" {
		c.Error(apperrors.NewInvalidRequest("account name is required"))
		return
	}

	var req model.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	if err := h.eng.Deposit(c.Request.Context(), account, req.Owner, req.Amount); err != nil {
		c.Error(err)
		return
	}

	bal, err := h.eng.BankBalance(account)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": bal})
}

func (h *VaultHandler) Balance(c *gin.Context) {
	account := c.Param("name")
	bal, err := h.eng.BankBalance(account)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": bal})
}
