// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

// AdminHandler exposes the admin surface. The JWT role gate on these routes
// is a convenience only; the registry core re-checks the caller's address on
// every administrative operation.
type AdminHandler struct {
	registryService *services.RegistryService
	adminService    *services.AdminService
}

func NewAdminHandler(registryService *services.RegistryService, adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		registryService: registryService,
		adminService:    adminService,
	}
}

// POST /admin/pause
func (h *AdminHandler) Pause(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	if err := h.registryService.Pause(caller); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"paused": true})
}

// POST /admin/unpause
func (h *AdminHandler) Unpause(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	if err := h.registryService.Unpause(caller); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"paused": false})
}

type upgradeRequest struct {
	Target string `json:"target" validate:"required,eth_addr"`
}

// POST /admin/upgrade
// Records the successor registry's address. Only allowed while paused.
func (h *AdminHandler) Upgrade(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	target, err := utils.ParseAddress(req.Target)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid upgrade target", nil)
		return
	}

	if err := h.registryService.SetUpgradeTarget(caller, target); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"upgrade_target": utils.NormalizeAddress(target)})
}

type transferAdminRequest struct {
	NewAdmin string `json:"new_admin" validate:"required,eth_addr"`
}

// POST /admin/transfer-admin
func (h *AdminHandler) TransferAdmin(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req transferAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	newAdmin, err := utils.ParseAddress(req.NewAdmin)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid admin address", nil)
		return
	}

	if err := h.registryService.TransferAdmin(caller, newAdmin); err != nil {
		registryErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"admin": utils.NormalizeAddress(newAdmin)})
}

// GET /admin/status
func (h *AdminHandler) Status(c *gin.Context) {
	admin, paused, upgradeTarget := h.registryService.Status()

	response := gin.H{
		"admin":  utils.NormalizeAddress(admin),
		"paused": paused,
	}
	if target := utils.NormalizeAddress(upgradeTarget); target != "0x0000000000000000000000000000000000000000" {
		response["upgrade_target"] = target
	}

	utils.SuccessResponse(c, response)
}

// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/participants
func (h *AdminHandler) GetParticipants(c *gin.Context) {
	filter := services.ParticipantFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Role:             c.Query("role"),
		Status:           c.Query("status"),
	}

	participants, total, err := h.adminService.GetParticipants(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(participants, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

type participantStatusRequest struct {
	Status models.ParticipantStatus `json:"status" validate:"required,oneof=active suspended"`
}

// PATCH /admin/participants/:id/status
func (h *AdminHandler) UpdateParticipantStatus(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid participant ID", nil)
		return
	}

	var req participantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	participant, err := h.adminService.UpdateParticipantStatus(participantID, req.Status)
	if err != nil {
		if err == services.ErrParticipantNotFound {
			utils.NotFoundResponse(c, "participant")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, participant)
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
