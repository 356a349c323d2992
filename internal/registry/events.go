// internal/registry/events.go
package registry

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a notification emitted after a state transition has committed.
// The registry never reads events back; consumers (journal, notifications)
// receive them synchronously in commit order.
type Event interface {
	EventName() string
}

type LicenseTypeCreatedEvent struct {
	TypeID  uint64
	Creator common.Address
}

func (LicenseTypeCreatedEvent) EventName() string { return "LicenseTypeCreation" }

// LicenseCreatedEvent carries the creation timestamp the registry recorded,
// so a journal built from events rebuilds the exact same license.
type LicenseCreatedEvent struct {
	LicenseID   uint64
	TypeID      uint64
	Owner       common.Address
	CutOnResale uint32
	CreatedAt   time.Time
}

func (LicenseCreatedEvent) EventName() string { return "LicenseCreation" }

// TransferEvent carries the zero address as From when emitted by a mint.
type TransferEvent struct {
	From      common.Address
	To        common.Address
	LicenseID uint64
}

func (TransferEvent) EventName() string { return "Transfer" }

type ApprovalEvent struct {
	Owner     common.Address
	To        common.Address
	LicenseID uint64
	Price     *big.Int
	CreatedAt time.Time
}

func (ApprovalEvent) EventName() string { return "Approval" }

type PausedEvent struct{}

func (PausedEvent) EventName() string { return "Paused" }

type UnpausedEvent struct{}

func (UnpausedEvent) EventName() string { return "Unpaused" }

type AdminChangedEvent struct {
	Previous common.Address
	Current  common.Address
}

func (AdminChangedEvent) EventName() string { return "AdminChanged" }

type UpgradeEvent struct {
	Target common.Address
}

func (UpgradeEvent) EventName() string { return "ContractUpgrade" }

// EventSink receives committed events. Implementations must not call back
// into the registry.
type EventSink interface {
	Emit(event Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

func (r *Registry) emit(event Event) {
	if r.sink != nil {
		r.sink.Emit(event)
	}
}
