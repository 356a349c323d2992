// internal/registry/ledger.go
package registry

import "github.com/ethereum/go-ethereum/common"

// OwnerOf returns the current owner of licenseID. Ownership is assigned at
// creation and never unset; a missing or zero entry means the license does
// not exist.
func (r *Registry) OwnerOf(licenseID uint64) (common.Address, error) {
	owner, ok := r.owners[licenseID]
	if !ok || owner == (common.Address{}) {
		return common.Address{}, ErrNoSuchLicense
	}
	return owner, nil
}

// BalanceOf returns the number of licenses currently owned by owner,
// maintained incrementally on every ownership change.
func (r *Registry) BalanceOf(owner common.Address) uint64 {
	return r.holdings[owner]
}

// transferOwnership unconditionally reassigns licenseID to `to`, adjusts the
// holding counters, drops any pending sale approval and emits a Transfer
// event. It performs no validation of its own: creation and settlement share
// this one mutation path under their distinct validation rules, so it trusts
// its caller completely and must never be exposed outside the package.
func (r *Registry) transferOwnership(from, to common.Address, licenseID uint64) {
	r.owners[licenseID] = to
	r.holdings[to]++
	if from != (common.Address{}) {
		if r.holdings[from] <= 1 {
			delete(r.holdings, from)
		} else {
			r.holdings[from]--
		}
	}
	// An approval must never survive a change of owner.
	delete(r.approvals, licenseID)
	r.emit(TransferEvent{From: from, To: to, LicenseID: licenseID})
}
