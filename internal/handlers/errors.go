// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

// registryErrorStatus maps the registry's sentinel errors to HTTP. Authority
// failures are 403 (the caller is authenticated, just not entitled), missing
// entities 404, malformed arguments 400, state conflicts 409, and a failed
// payment split 402.
var registryErrorStatus = map[error]struct {
	status int
	code   string
}{
	registry.ErrUnauthorized:              {http.StatusForbidden, "UNAUTHORIZED_CALLER"},
	registry.ErrNotOwner:                  {http.StatusForbidden, "NOT_OWNER"},
	registry.ErrNotCreator:                {http.StatusForbidden, "NOT_CREATOR"},
	registry.ErrNotApproved:               {http.StatusForbidden, "NOT_APPROVED"},
	registry.ErrNoSuchLicense:             {http.StatusNotFound, "NO_SUCH_LICENSE"},
	registry.ErrUnknownLicenseType:        {http.StatusNotFound, "UNKNOWN_LICENSE_TYPE"},
	registry.ErrInvalidRoyalty:            {http.StatusBadRequest, "INVALID_ROYALTY"},
	registry.ErrInvalidRecipient:          {http.StatusBadRequest, "INVALID_RECIPIENT"},
	registry.ErrInvalidApprovalTarget:     {http.StatusBadRequest, "INVALID_APPROVAL_TARGET"},
	registry.ErrInvalidAmount:             {http.StatusBadRequest, "INVALID_AMOUNT"},
	registry.ErrPaused:                    {http.StatusConflict, "REGISTRY_PAUSED"},
	registry.ErrNotPaused:                 {http.StatusConflict, "REGISTRY_NOT_PAUSED"},
	registry.ErrIndexSpaceExhausted:       {http.StatusConflict, "INDEX_SPACE_EXHAUSTED"},
	registry.ErrPaymentDisbursementFailed: {http.StatusPaymentRequired, "PAYMENT_FAILED"},
}

// registryErrorResponse renders a registry or bank error. Anything outside
// the known taxonomy is a 500 with a generic message.
func registryErrorResponse(c *gin.Context, err error) {
	for sentinel, mapping := range registryErrorStatus {
		if errors.Is(err, sentinel) {
			utils.ErrorResponse(c, mapping.status, mapping.code, err.Error(), nil)
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrInsufficientFunds):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS", err.Error(), nil)
	case errors.Is(err, services.ErrAccountNotFound):
		utils.NotFoundResponse(c, "account")
	case errors.Is(err, services.ErrDepositNotFound):
		utils.NotFoundResponse(c, "deposit")
	case errors.Is(err, services.ErrDepositNotCompleted):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrDepositTooSmall):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, "")
	}
}
