// internal/registry/errors.go
package registry

import "errors"

// Every operation either commits in full or fails with one of these errors
// and leaves all registry state untouched. Nothing is retried internally.
var (
	ErrUnauthorized              = errors.New("caller is not the registry administrator")
	ErrPaused                    = errors.New("registry is paused")
	ErrNotPaused                 = errors.New("registry is not paused")
	ErrInvalidRoyalty            = errors.New("resale cut outside the 0-10000 basis point range")
	ErrUnknownLicenseType        = errors.New("license type does not exist")
	ErrNoSuchLicense             = errors.New("license does not exist or has no owner")
	ErrNotCreator                = errors.New("caller is not the registered creator of this license type")
	ErrNotOwner                  = errors.New("caller does not own this license")
	ErrNotApproved               = errors.New("no sale approval satisfies this transfer")
	ErrInvalidRecipient          = errors.New("recipient is the zero address or the registry itself")
	ErrInvalidApprovalTarget     = errors.New("cannot approve the current owner as buyer")
	ErrInvalidAmount             = errors.New("amount must be non-negative")
	ErrIndexSpaceExhausted       = errors.New("index space exhausted")
	ErrPaymentDisbursementFailed = errors.New("payment disbursement failed")
)
