// internal/handlers/bank.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

type BankHandler struct {
	bankService *services.BankService
}

func NewBankHandler(bankService *services.BankService) *BankHandler {
	return &BankHandler{
		bankService: bankService,
	}
}

// POST /bank/deposits
func (h *BankHandler) CreateDeposit(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req services.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	intent, err := h.bankService.CreateDeposit(caller, &req)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, intent)
}

type confirmDepositRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// POST /bank/deposits/confirm
func (h *BankHandler) ConfirmDeposit(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req confirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	deposit, err := h.bankService.ConfirmDeposit(caller, req.PaymentIntentID)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, deposit)
}

// GET /bank/deposits
func (h *BankHandler) GetDeposits(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	deposits, total, err := h.bankService.GetDeposits(caller, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(deposits, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /bank/balance
func (h *BankHandler) Balance(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	balance, err := h.bankService.Balance(caller)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"address": utils.NormalizeAddress(caller),
		"balance": balance.String(),
	})
}
