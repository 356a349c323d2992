// internal/registry/approval.go
package registry

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SaleApproval is the single pending offer slot of a license: the buyer it
// is reserved for (zero address means anyone) and the minimum payment.
type SaleApproval struct {
	To        common.Address `json:"to"`
	Price     *big.Int       `json:"price"`
	CreatedAt time.Time      `json:"created_at"`
}

// Approve records a sale approval for licenseID, unconditionally replacing
// any previous one (last writer wins). The caller must be the current owner
// and may not name itself as the buyer. A zero `to` address is an open offer
// anyone may accept at or above price.
func (r *Registry) Approve(caller, to common.Address, licenseID uint64, price *big.Int) error {
	if err := r.requireUnpaused(); err != nil {
		return err
	}
	owner, err := r.OwnerOf(licenseID)
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if to == owner {
		return ErrInvalidApprovalTarget
	}
	if price == nil {
		price = new(big.Int)
	}
	if price.Sign() < 0 {
		return ErrInvalidAmount
	}
	createdAt := r.now()
	r.approvals[licenseID] = SaleApproval{
		To:        to,
		Price:     new(big.Int).Set(price),
		CreatedAt: createdAt,
	}
	r.emit(ApprovalEvent{Owner: owner, To: to, LicenseID: licenseID, Price: new(big.Int).Set(price), CreatedAt: createdAt})
	return nil
}

// IsApprovedFor reports whether claimant may settle licenseID for
// offeredPrice: the pending approval must name claimant (or be open) and its
// price is a floor, not an exact amount. Overpaying is allowed and the
// excess is still split by the royalty rule.
func (r *Registry) IsApprovedFor(claimant common.Address, licenseID uint64, offeredPrice *big.Int) bool {
	approval, ok := r.approvals[licenseID]
	if !ok {
		return false
	}
	if approval.To != claimant && approval.To != (common.Address{}) {
		return false
	}
	if offeredPrice == nil {
		offeredPrice = new(big.Int)
	}
	return approval.Price.Cmp(offeredPrice) <= 0
}

// PendingApproval returns the current approval for licenseID, if any.
func (r *Registry) PendingApproval(licenseID uint64) (SaleApproval, bool) {
	approval, ok := r.approvals[licenseID]
	if !ok {
		return SaleApproval{}, false
	}
	approval.Price = new(big.Int).Set(approval.Price)
	return approval, true
}
