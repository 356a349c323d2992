// internal/handlers/events.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

type EventHandler struct {
	registryService *services.RegistryService
}

func NewEventHandler(registryService *services.RegistryService) *EventHandler {
	return &EventHandler{
		registryService: registryService,
	}
}

// GET /events
// Public readback of the registry's event journal.
func (h *EventHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	events, total, err := h.registryService.GetEvents(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(events, total, params)
	utils.PaginatedResponse(c, result)
}
