// internal/handlers/licenses.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

type LicenseHandler struct {
	registryService *services.RegistryService
}

func NewLicenseHandler(registryService *services.RegistryService) *LicenseHandler {
	return &LicenseHandler{
		registryService: registryService,
	}
}

type createLicenseRequest struct {
	TypeID      uint64 `json:"type_id"`
	CutOnResale uint32 `json:"cut_on_resale" validate:"lte=10000"`
	Owner       string `json:"owner" validate:"required,eth_addr"`
}

type approveRequest struct {
	To    string `json:"to" validate:"omitempty,eth_addr"`
	Price string `json:"price" validate:"omitempty,amount"`
}

type transferRequest struct {
	To string `json:"to" validate:"required,eth_addr"`
}

type purchaseRequest struct {
	From    string `json:"from" validate:"required,eth_addr"`
	To      string `json:"to" validate:"omitempty,eth_addr"`
	Payment string `json:"payment" validate:"omitempty,amount"`
}

// POST /licenses
// The caller must be the creator-of-record of the license type.
func (h *LicenseHandler) Create(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	owner, err := utils.ParseAddress(req.Owner)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid owner address", nil)
		return
	}

	licenseID, err := h.registryService.CreateLicense(caller, req.TypeID, req.CutOnResale, owner)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"license_id":    licenseID,
		"type_id":       req.TypeID,
		"cut_on_resale": req.CutOnResale,
		"owner":         utils.NormalizeAddress(owner),
	})
}

// GET /licenses/:id
func (h *LicenseHandler) Get(c *gin.Context) {
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	license, err := h.registryService.GetLicense(licenseID)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}
	owner, err := h.registryService.OwnerOf(licenseID)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id":    licenseID,
		"type_id":       license.TypeID,
		"cut_on_resale": license.CutOnResale,
		"created_at":    license.CreatedAt,
		"owner":         utils.NormalizeAddress(owner),
	})
}

// GET /licenses/count
func (h *LicenseHandler) Count(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"count": h.registryService.LicenseCount(),
	})
}

// GET /licenses/:id/owner
func (h *LicenseHandler) Owner(c *gin.Context) {
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	owner, err := h.registryService.OwnerOf(licenseID)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"owner":      utils.NormalizeAddress(owner),
	})
}

// GET /owners/:address/balance
func (h *LicenseHandler) BalanceOf(c *gin.Context) {
	owner, err := utils.ParseAddress(c.Param("address"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid address", nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"address": utils.NormalizeAddress(owner),
		"balance": h.registryService.BalanceOf(owner),
	})
}

// POST /licenses/:id/approval
// Owner authorizes a sale. An empty `to` publishes an open offer anyone can
// settle at or above the price; re-approving replaces the pending approval.
func (h *LicenseHandler) Approve(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	to, err := utils.ParseOptionalAddress(req.To)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid approval target", nil)
		return
	}
	price, ok := parseAmount(req.Price)
	if !ok {
		utils.BadRequestResponse(c, "Invalid price", nil)
		return
	}

	if err := h.registryService.Approve(caller, to, licenseID, price); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"to":         utils.NormalizeAddress(to),
		"price":      price.String(),
	})
}

// GET /licenses/:id/approval
func (h *LicenseHandler) PendingApproval(c *gin.Context) {
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	if _, err := h.registryService.OwnerOf(licenseID); err != nil {
		registryErrorResponse(c, err)
		return
	}

	approval, found := h.registryService.PendingApproval(licenseID)
	if !found {
		utils.NotFoundResponse(c, "approval")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"to":         utils.NormalizeAddress(approval.To),
		"price":      approval.Price.String(),
		"created_at": approval.CreatedAt,
	})
}

// POST /licenses/:id/transfer
// Unpaid transfer by the current owner. No settlement, no royalty.
func (h *LicenseHandler) Transfer(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	to, err := utils.ParseAddress(req.To)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipient", nil)
		return
	}

	if err := h.registryService.Transfer(caller, to, licenseID); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"to":         utils.NormalizeAddress(to),
	})
}

// POST /licenses/:id/purchase
// Settles an approved sale: the caller pays, the type creator takes the
// royalty cut, the seller takes the remainder, ownership moves. Omitting
// `to` delivers the license to the caller.
func (h *LicenseHandler) Purchase(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	licenseID, ok := parseLicenseID(c)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	from, err := utils.ParseAddress(req.From)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid seller address", nil)
		return
	}

	to := caller
	if req.To != "" {
		to, err = utils.ParseAddress(req.To)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid recipient", nil)
			return
		}
	}

	payment, ok := parseAmount(req.Payment)
	if !ok {
		utils.BadRequestResponse(c, "Invalid payment amount", nil)
		return
	}

	if err := h.registryService.TransferFrom(caller, from, to, licenseID, payment); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"from":       utils.NormalizeAddress(from),
		"to":         utils.NormalizeAddress(to),
		"payment":    payment.String(),
	})
}
