// internal/registry/registry.go
package registry

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MaxIndexSpace caps the number of licenses and of license types. Allocation
// beyond it fails with ErrIndexSpaceExhausted instead of wrapping.
const MaxIndexSpace = uint64(1) << 32

// maxIndexSpace is the limit actually checked; tests lower it to hit the
// exhaustion path without allocating 2^32 entries.
var maxIndexSpace = MaxIndexSpace

// RoyaltyDenominator is the basis-point scale of a license's resale cut.
const RoyaltyDenominator = 10000

// Registry is the deterministic ownership state machine. It holds all
// mutable state explicitly and performs no I/O of its own: payments go
// through the Bank collaborator and notifications through the EventSink.
//
// The registry is not safe for concurrent use. Callers must present
// operations one at a time in their externally determined order; every
// operation re-validates against current state rather than trusting any
// earlier read.
type Registry struct {
	admin         common.Address
	self          common.Address
	paused        bool
	upgradeTarget common.Address

	types     []LicenseType
	licenses  []License
	owners    map[uint64]common.Address
	holdings  map[common.Address]uint64
	approvals map[uint64]SaleApproval

	bank Bank
	sink EventSink
	now  func() time.Time
}

// Config carries the collaborators and identities fixed at initialization.
type Config struct {
	// Admin is the administrator identity, normally the deployer.
	Admin common.Address
	// Self is the registry's own identity. Licenses and funds can never be
	// sent to it.
	Self common.Address
	// Bank settles transferFrom payments atomically.
	Bank Bank
	// Sink receives committed events. Optional.
	Sink EventSink
	// Now supplies creation timestamps. Defaults to time.Now.
	Now func() time.Time
}

func New(cfg Config) (*Registry, error) {
	if cfg.Admin == (common.Address{}) {
		return nil, errors.New("registry: admin address must not be zero")
	}
	if cfg.Self == (common.Address{}) {
		return nil, errors.New("registry: self address must not be zero")
	}
	if cfg.Bank == nil {
		return nil, errors.New("registry: bank is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	return &Registry{
		admin:     cfg.Admin,
		self:      cfg.Self,
		owners:    make(map[uint64]common.Address),
		holdings:  make(map[common.Address]uint64),
		approvals: make(map[uint64]SaleApproval),
		bank:      cfg.Bank,
		sink:      sink,
		now:       now,
	}, nil
}

// Admin returns the current administrator identity.
func (r *Registry) Admin() common.Address { return r.admin }

// Self returns the registry's own identity.
func (r *Registry) Self() common.Address { return r.self }

// Paused reports whether mutating operations are gated off.
func (r *Registry) Paused() bool { return r.paused }

// UpgradeTarget returns the advisory upgrade pointer, zero if unset.
func (r *Registry) UpgradeTarget() common.Address { return r.upgradeTarget }

// Pause gates off all non-administrative mutating operations.
func (r *Registry) Pause(caller common.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if r.paused {
		return ErrPaused
	}
	r.paused = true
	r.emit(PausedEvent{})
	return nil
}

// Unpause reopens the gate.
func (r *Registry) Unpause(caller common.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if !r.paused {
		return ErrNotPaused
	}
	r.paused = false
	r.emit(UnpausedEvent{})
	return nil
}

// SetUpgradeTarget records an advisory successor address. It migrates no
// state and is only permitted while paused; the registry is expected to
// stay paused afterwards.
func (r *Registry) SetUpgradeTarget(caller, target common.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if !r.paused {
		return ErrNotPaused
	}
	if target == (common.Address{}) || target == r.self {
		return ErrInvalidRecipient
	}
	r.upgradeTarget = target
	r.emit(UpgradeEvent{Target: target})
	return nil
}

// TransferAdmin hands the administrator role to a new identity.
func (r *Registry) TransferAdmin(caller, newAdmin common.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if newAdmin == (common.Address{}) || newAdmin == r.self {
		return ErrInvalidRecipient
	}
	previous := r.admin
	r.admin = newAdmin
	r.emit(AdminChangedEvent{Previous: previous, Current: newAdmin})
	return nil
}

func (r *Registry) requireAdmin(caller common.Address) error {
	if caller != r.admin {
		return ErrUnauthorized
	}
	return nil
}

func (r *Registry) requireUnpaused() error {
	if r.paused {
		return ErrPaused
	}
	return nil
}
