// internal/registry/catalog.go
package registry

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LicenseType binds a dense type index to the single identity allowed to
// mint licenses under it. Types are never mutated or deleted once created.
type LicenseType struct {
	Creator common.Address `json:"creator"`
}

// License is immutable after creation; ownership and the pending sale
// approval live in separate structures.
type License struct {
	TypeID    uint64    `json:"license_type_id"`
	CreatedAt time.Time `json:"created_at"`
	// CutOnResale is the royalty paid to the type creator on every paid
	// transfer, in basis points (0..10000).
	CutOnResale uint32 `json:"cut_on_resale"`
}

// CreateLicenseType registers a new license type bound to creator and
// returns its index. Administrator only; permitted even while paused. The
// same creator may be registered under any number of type indices.
func (r *Registry) CreateLicenseType(caller, creator common.Address) (uint64, error) {
	if err := r.requireAdmin(caller); err != nil {
		return 0, err
	}
	if uint64(len(r.types)) >= maxIndexSpace {
		return 0, ErrIndexSpaceExhausted
	}
	id := uint64(len(r.types))
	r.types = append(r.types, LicenseType{Creator: creator})
	r.emit(LicenseTypeCreatedEvent{TypeID: id, Creator: creator})
	return id, nil
}

// CreateLicense mints a new license under typeID and assigns it to owner.
// Only the type's registered creator may mint, and only while unpaused.
func (r *Registry) CreateLicense(caller common.Address, typeID uint64, cutOnResale uint32, owner common.Address) (uint64, error) {
	if err := r.requireUnpaused(); err != nil {
		return 0, err
	}
	if cutOnResale > RoyaltyDenominator {
		return 0, ErrInvalidRoyalty
	}
	if typeID >= uint64(len(r.types)) {
		return 0, ErrUnknownLicenseType
	}
	if caller != r.types[typeID].Creator {
		return 0, ErrNotCreator
	}
	if owner == (common.Address{}) || owner == r.self {
		return 0, ErrInvalidRecipient
	}
	if uint64(len(r.licenses)) >= maxIndexSpace {
		return 0, ErrIndexSpaceExhausted
	}

	id := uint64(len(r.licenses))
	createdAt := r.now()
	r.licenses = append(r.licenses, License{
		TypeID:      typeID,
		CreatedAt:   createdAt,
		CutOnResale: cutOnResale,
	})
	r.emit(LicenseCreatedEvent{LicenseID: id, TypeID: typeID, Owner: owner, CutOnResale: cutOnResale, CreatedAt: createdAt})
	r.transferOwnership(common.Address{}, owner, id)
	return id, nil
}

// GetLicenseType returns the type record at id.
func (r *Registry) GetLicenseType(id uint64) (LicenseType, error) {
	if id >= uint64(len(r.types)) {
		return LicenseType{}, ErrUnknownLicenseType
	}
	return r.types[id], nil
}

// GetLicense returns the license record at id.
func (r *Registry) GetLicense(id uint64) (License, error) {
	if id >= uint64(len(r.licenses)) {
		return License{}, ErrNoSuchLicense
	}
	return r.licenses[id], nil
}

// LicenseTypeCount returns the number of registered license types.
func (r *Registry) LicenseTypeCount() uint64 { return uint64(len(r.types)) }

// LicenseCount returns the number of minted licenses.
func (r *Registry) LicenseCount() uint64 { return uint64(len(r.licenses)) }
