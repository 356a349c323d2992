// internal/handlers/license_types.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

type LicenseTypeHandler struct {
	registryService *services.RegistryService
}

func NewLicenseTypeHandler(registryService *services.RegistryService) *LicenseTypeHandler {
	return &LicenseTypeHandler{
		registryService: registryService,
	}
}

type createLicenseTypeRequest struct {
	Creator string `json:"creator" validate:"required,eth_addr"`
}

// POST /license-types
// Admin only. Cataloguing new types stays available while the registry is
// paused; only issuance and trading stop.
func (h *LicenseTypeHandler) Create(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req createLicenseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	creator, err := utils.ParseAddress(req.Creator)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid creator address", nil)
		return
	}

	typeID, err := h.registryService.CreateLicenseType(caller, creator)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"type_id": typeID,
		"creator": utils.NormalizeAddress(creator),
	})
}

// GET /license-types/:id
func (h *LicenseTypeHandler) Get(c *gin.Context) {
	typeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license type ID", nil)
		return
	}

	licenseType, err := h.registryService.GetLicenseType(typeID)
	if err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"type_id": typeID,
		"creator": utils.NormalizeAddress(licenseType.Creator),
	})
}

// GET /license-types/count
func (h *LicenseTypeHandler) Count(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"count": h.registryService.LicenseTypeCount(),
	})
}
