// internal/registry/settlement.go
package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Settlement describes the atomic payment split of a paid transfer: the
// royalty cut goes to the license type's creator-of-record, the remainder to
// the seller.
type Settlement struct {
	LicenseID  uint64
	Payer      common.Address
	Seller     common.Address
	Creator    common.Address
	Payment    *big.Int
	RoyaltyCut *big.Int
}

// SellerProceeds returns Payment minus RoyaltyCut.
func (s Settlement) SellerProceeds() *big.Int {
	return new(big.Int).Sub(s.Payment, s.RoyaltyCut)
}

// Bank is the fund custodian the registry settles against. Settle must
// either move the payer's full payment (cut to the creator, remainder to the
// seller) or fail without any partial payment state; on failure the whole
// transfer is rejected and ownership is left unchanged.
type Bank interface {
	Settle(s Settlement) error
}

// Transfer moves licenseID from the calling owner to `to` without payment.
// Any pending sale approval is dropped as part of the ownership change.
func (r *Registry) Transfer(caller, to common.Address, licenseID uint64) error {
	if err := r.requireUnpaused(); err != nil {
		return err
	}
	if to == (common.Address{}) || to == r.self {
		return ErrInvalidRecipient
	}
	owner, err := r.OwnerOf(licenseID)
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	r.transferOwnership(owner, to, licenseID)
	return nil
}

// TransferFrom settles a previously approved sale: the caller pays
// `payment`, the type creator receives the royalty cut, the seller `from`
// receives the remainder, and ownership moves to `to`. Preconditions are
// checked in order against current state, never against state observed when
// the approval was granted, so a stale approval can never settle after an
// ownership change.
func (r *Registry) TransferFrom(caller, from, to common.Address, licenseID uint64, payment *big.Int) error {
	if err := r.requireUnpaused(); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if to == r.self {
		return ErrInvalidRecipient
	}
	if payment == nil {
		payment = new(big.Int)
	}
	if payment.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !r.IsApprovedFor(caller, licenseID, payment) {
		return ErrNotApproved
	}
	owner, err := r.OwnerOf(licenseID)
	if err != nil {
		return err
	}
	if owner != from {
		return ErrNotOwner
	}

	license := r.licenses[licenseID]
	creator := r.types[license.TypeID].Creator
	settlement := Settlement{
		LicenseID:  licenseID,
		Payer:      caller,
		Seller:     from,
		Creator:    creator,
		Payment:    new(big.Int).Set(payment),
		RoyaltyCut: royaltyCut(payment, license.CutOnResale),
	}
	if err := r.bank.Settle(settlement); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentDisbursementFailed, err)
	}
	r.transferOwnership(from, to, licenseID)
	return nil
}

// royaltyCut computes payment * cutOnResale / 10000 with exact truncating
// integer arithmetic at arbitrary precision.
func royaltyCut(payment *big.Int, cutOnResale uint32) *big.Int {
	cut := new(big.Int).Mul(payment, big.NewInt(int64(cutOnResale)))
	return cut.Quo(cut, big.NewInt(RoyaltyDenominator))
}
