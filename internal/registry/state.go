// internal/registry/state.go
package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is a full copy of the registry's mutable state, used to rebuild the
// in-memory registry from the persisted event journal at startup.
type State struct {
	Admin         common.Address
	Paused        bool
	UpgradeTarget common.Address
	Types         []LicenseType
	Licenses      []License
	Owners        map[uint64]common.Address
	Approvals     map[uint64]SaleApproval
}

// NewFromState builds a registry preloaded with st. A zero st.Admin keeps
// cfg.Admin (the deployment default); a non-zero one means the admin role
// was handed over at some point and wins.
func NewFromState(cfg Config, st State) (*Registry, error) {
	r, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if st.Admin != (common.Address{}) {
		r.admin = st.Admin
	}
	r.paused = st.Paused
	r.upgradeTarget = st.UpgradeTarget
	r.types = append(r.types, st.Types...)
	r.licenses = append(r.licenses, st.Licenses...)

	for id, lic := range r.licenses {
		if lic.TypeID >= uint64(len(r.types)) {
			return nil, fmt.Errorf("registry: license %d references unknown type %d", id, lic.TypeID)
		}
	}

	for id, owner := range st.Owners {
		if id >= uint64(len(r.licenses)) {
			return nil, fmt.Errorf("registry: ownership entry for unknown license %d", id)
		}
		if owner == (common.Address{}) {
			return nil, fmt.Errorf("registry: license %d has a zero owner", id)
		}
		r.owners[id] = owner
		r.holdings[owner]++
	}
	if len(r.owners) != len(r.licenses) {
		return nil, fmt.Errorf("registry: %d licenses but %d ownership entries", len(r.licenses), len(r.owners))
	}

	for id, approval := range st.Approvals {
		if _, ok := r.owners[id]; !ok {
			return nil, fmt.Errorf("registry: approval for unknown license %d", id)
		}
		if approval.Price == nil {
			return nil, fmt.Errorf("registry: approval for license %d has no price", id)
		}
		r.approvals[id] = approval
	}

	return r, nil
}

// Snapshot returns a deep copy of the registry's current state.
func (r *Registry) Snapshot() State {
	st := State{
		Admin:         r.admin,
		Paused:        r.paused,
		UpgradeTarget: r.upgradeTarget,
		Types:         append([]LicenseType(nil), r.types...),
		Licenses:      append([]License(nil), r.licenses...),
		Owners:        make(map[uint64]common.Address, len(r.owners)),
		Approvals:     make(map[uint64]SaleApproval, len(r.approvals)),
	}
	for id, owner := range r.owners {
		st.Owners[id] = owner
	}
	for id, approval := range r.approvals {
		approval.Price = new(big.Int).Set(approval.Price)
		st.Approvals[id] = approval
	}
	return st
}
