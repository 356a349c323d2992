// internal/services/registry_service.go
package services

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/database"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

// RegistryService owns the in-memory registry and presents its operations to
// the HTTP layer. A single mutex serializes every mutating operation, which
// is what gives the core the one-at-a-time execution order it assumes:
// operations commit in lock-acquisition order and each one re-validates
// against current state.
type RegistryService struct {
	mu                  sync.Mutex
	reg                 *registry.Registry
	cfg                 registry.Config
	db                  *gorm.DB
	notificationService *NotificationService

	bank     *txBank
	sink     *captureSink
	sequence uint64
}

// captureSink buffers the events of the operation in flight so the service
// can journal them in commit order while still holding the operation lock.
type captureSink struct {
	events []registry.Event
}

func (s *captureSink) Emit(e registry.Event) { s.events = append(s.events, e) }

func (s *captureSink) drain() []registry.Event {
	events := s.events
	s.events = nil
	return events
}

// txSettler is a bank whose settlement can join a caller-owned transaction.
type txSettler interface {
	SettleIn(tx *gorm.DB, settlement registry.Settlement) error
}

// txBank routes the settlement a core operation triggers into that
// operation's database transaction, so fund moves and journal rows commit or
// roll back together. tx is set only while the operation lock is held.
type txBank struct {
	inner registry.Bank
	tx    *gorm.DB
}

func (b *txBank) Settle(settlement registry.Settlement) error {
	if b.tx != nil {
		if settler, ok := b.inner.(txSettler); ok {
			return settler.SettleIn(b.tx, settlement)
		}
	}
	return b.inner.Settle(settlement)
}

func NewRegistryService(db *gorm.DB, cfg *config.Config, bank registry.Bank, notificationService *NotificationService) (*RegistryService, error) {
	adminAddr, err := utils.ParseAddress(cfg.Registry.AdminAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid admin address: %w", err)
	}
	selfAddr, err := utils.ParseAddress(cfg.Registry.RegistryAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid registry address: %w", err)
	}

	svc := &RegistryService{
		db:                  db,
		notificationService: notificationService,
		bank:                &txBank{inner: bank},
		sink:                &captureSink{},
	}

	regCfg := registry.Config{
		Admin: adminAddr,
		Self:  selfAddr,
		Bank:  svc.bank,
		Sink:  svc.sink,
	}
	svc.cfg = regCfg

	state, lastSequence, err := svc.replayJournal(regCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to replay event journal: %w", err)
	}
	svc.sequence = lastSequence

	reg, err := registry.NewFromState(regCfg, state)
	if err != nil {
		return nil, err
	}
	svc.reg = reg

	logrus.WithFields(logrus.Fields{
		"license_types": reg.LicenseTypeCount(),
		"licenses":      reg.LicenseCount(),
		"paused":        reg.Paused(),
		"last_sequence": lastSequence,
	}).Info("Registry state restored from event journal")

	return svc, nil
}

// replayJournal folds the persisted events, in sequence order, back into a
// registry state. The journal is the system of record for registry state;
// account balances live in their own table and are not replayed here.
func (s *RegistryService) replayJournal(cfg registry.Config) (registry.State, uint64, error) {
	state := registry.State{
		Owners:    make(map[uint64]common.Address),
		Approvals: make(map[uint64]registry.SaleApproval),
	}

	if s.db == nil {
		return state, 0, nil
	}

	var lastSequence uint64
	const batchSize = 1000

	for {
		var events []models.Event
		err := s.db.Where("sequence > ?", lastSequence).
			Order("sequence ASC").
			Limit(batchSize).
			Find(&events).Error
		if err != nil {
			return registry.State{}, 0, err
		}
		if len(events) == 0 {
			break
		}
		for _, row := range events {
			if err := applyJournalRow(&state, row); err != nil {
				return registry.State{}, 0, fmt.Errorf("journal sequence %d: %w", row.Sequence, err)
			}
			lastSequence = row.Sequence
		}
	}

	return state, lastSequence, nil
}

func applyJournalRow(state *registry.State, row models.Event) error {
	data := row.Data

	addr := func(key string) common.Address {
		if s, ok := data[key].(string); ok {
			return common.HexToAddress(s)
		}
		return common.Address{}
	}
	licenseID := func() (uint64, error) {
		if row.LicenseID == nil {
			return 0, errors.New("missing license id")
		}
		return uint64(*row.LicenseID), nil
	}

	switch row.Name {
	case "LicenseTypeCreation":
		state.Types = append(state.Types, registry.LicenseType{Creator: addr("creator")})

	case "LicenseCreation":
		if row.TypeID == nil {
			return errors.New("missing license type id")
		}
		cut, ok := data["cut_on_resale"].(float64)
		if !ok {
			return errors.New("missing cut_on_resale")
		}
		createdAt := row.CreatedAt
		if unix, ok := data["created_at"].(float64); ok {
			createdAt = time.Unix(int64(unix), 0)
		}
		state.Licenses = append(state.Licenses, registry.License{
			TypeID:      uint64(*row.TypeID),
			CreatedAt:   createdAt,
			CutOnResale: uint32(cut),
		})

	case "Transfer":
		id, err := licenseID()
		if err != nil {
			return err
		}
		state.Owners[id] = addr("to")
		delete(state.Approvals, id)

	case "Approval":
		id, err := licenseID()
		if err != nil {
			return err
		}
		priceStr, ok := data["price"].(string)
		if !ok {
			return errors.New("missing price")
		}
		price, ok := new(big.Int).SetString(priceStr, 10)
		if !ok {
			return fmt.Errorf("invalid price %q", priceStr)
		}
		createdAt := row.CreatedAt
		if unix, ok := data["created_at"].(float64); ok {
			createdAt = time.Unix(int64(unix), 0)
		}
		state.Approvals[id] = registry.SaleApproval{
			To:        addr("to"),
			Price:     price,
			CreatedAt: createdAt,
		}

	case "Paused":
		state.Paused = true

	case "Unpaused":
		state.Paused = false

	case "AdminChanged":
		state.Admin = addr("current")

	case "ContractUpgrade":
		state.UpgradeTarget = addr("target")

	default:
		return fmt.Errorf("unknown event %q", row.Name)
	}

	return nil
}

// apply runs one mutating operation while holding the lock and commits its
// events. With a database attached, the journal rows and any settlement the
// operation performs are written in a single transaction; if that
// transaction fails the in-memory registry is rebuilt from the journal, so
// memory never runs ahead of the system of record.
func (s *RegistryService) apply(action string, op func() error) error {
	if s.db == nil {
		if err := op(); err != nil {
			s.sink.drain()
			return err
		}
		events := s.sink.drain()
		s.sequence += uint64(len(events))
		s.publish(action, events)
		return nil
	}

	applied := false
	var events []registry.Event
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		s.bank.tx = tx
		defer func() { s.bank.tx = nil }()

		if err := op(); err != nil {
			return err
		}
		applied = true
		events = s.sink.drain()
		return s.journal(tx, events)
	})
	if err != nil {
		s.sink.drain()
		if applied {
			s.restore()
		}
		return err
	}

	s.publish(action, events)
	return nil
}

// journal writes the events of one operation in commit order. Called with
// the operation lock held so sequence matches execution order.
func (s *RegistryService) journal(tx *gorm.DB, events []registry.Event) error {
	for _, event := range events {
		s.sequence++
		if err := tx.Create(journalRow(event, s.sequence)).Error; err != nil {
			return fmt.Errorf("journal %s: %w", event.EventName(), err)
		}
	}
	return nil
}

// publish fans committed events out to logs and notifications, both of which
// are best-effort and never influence the outcome of the operation.
func (s *RegistryService) publish(action string, events []registry.Event) {
	sequence := s.sequence - uint64(len(events))
	for _, event := range events {
		sequence++
		logrus.WithFields(logrus.Fields{
			"action":   action,
			"event":    event.EventName(),
			"sequence": sequence,
		}).Info("Registry event committed")

		if s.notificationService != nil {
			s.notificationService.NotifyRegistryEvent(event)
		}
	}
}

// restore rebuilds the in-memory registry from the persisted journal after a
// commit failed with the core state already mutated. The rolled-back journal
// is authoritative; a process that cannot match it must not keep serving.
func (s *RegistryService) restore() {
	state, lastSequence, err := s.replayJournal(s.cfg)
	if err == nil {
		var reg *registry.Registry
		reg, err = registry.NewFromState(s.cfg, state)
		if err == nil {
			s.reg = reg
			s.sequence = lastSequence
			return
		}
	}
	logrus.WithError(err).Fatal("Failed to rebuild registry state from journal")
}

func journalRow(event registry.Event, sequence uint64) *models.Event {
	row := &models.Event{
		Sequence: sequence,
		Name:     event.EventName(),
		Data:     models.JSONB{},
	}

	setLicense := func(id uint64) {
		v := int64(id)
		row.LicenseID = &v
	}
	setType := func(id uint64) {
		v := int64(id)
		row.TypeID = &v
	}
	hex := utils.NormalizeAddress

	switch e := event.(type) {
	case registry.LicenseTypeCreatedEvent:
		setType(e.TypeID)
		row.Addresses = pq.StringArray{hex(e.Creator)}
		row.Data["creator"] = hex(e.Creator)

	case registry.LicenseCreatedEvent:
		setLicense(e.LicenseID)
		setType(e.TypeID)
		row.Addresses = pq.StringArray{hex(e.Owner)}
		row.Data["owner"] = hex(e.Owner)
		row.Data["cut_on_resale"] = float64(e.CutOnResale)
		row.Data["created_at"] = float64(e.CreatedAt.Unix())

	case registry.TransferEvent:
		setLicense(e.LicenseID)
		row.Addresses = pq.StringArray{hex(e.From), hex(e.To)}
		row.Data["from"] = hex(e.From)
		row.Data["to"] = hex(e.To)

	case registry.ApprovalEvent:
		setLicense(e.LicenseID)
		row.Addresses = pq.StringArray{hex(e.Owner), hex(e.To)}
		row.Data["owner"] = hex(e.Owner)
		row.Data["to"] = hex(e.To)
		row.Data["price"] = e.Price.String()
		row.Data["created_at"] = float64(e.CreatedAt.Unix())

	case registry.AdminChangedEvent:
		row.Addresses = pq.StringArray{hex(e.Previous), hex(e.Current)}
		row.Data["previous"] = hex(e.Previous)
		row.Data["current"] = hex(e.Current)

	case registry.UpgradeEvent:
		row.Addresses = pq.StringArray{hex(e.Target)}
		row.Data["target"] = hex(e.Target)
	}

	return row
}

// --- Mutating operations ---

func (s *RegistryService) CreateLicenseType(caller, creator common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id uint64
	err := s.apply("create_license_type", func() (err error) {
		id, err = s.reg.CreateLicenseType(caller, creator)
		return err
	})
	return id, err
}

func (s *RegistryService) CreateLicense(caller common.Address, typeID uint64, cutOnResale uint32, owner common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id uint64
	err := s.apply("create_license", func() (err error) {
		id, err = s.reg.CreateLicense(caller, typeID, cutOnResale, owner)
		return err
	})
	return id, err
}

func (s *RegistryService) Approve(caller, to common.Address, licenseID uint64, price *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("approve", func() error {
		return s.reg.Approve(caller, to, licenseID, price)
	})
}

func (s *RegistryService) Transfer(caller, to common.Address, licenseID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("transfer", func() error {
		return s.reg.Transfer(caller, to, licenseID)
	})
}

func (s *RegistryService) TransferFrom(caller, from, to common.Address, licenseID uint64, payment *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("transfer_from", func() error {
		return s.reg.TransferFrom(caller, from, to, licenseID, payment)
	})
}

func (s *RegistryService) Pause(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("pause", func() error {
		return s.reg.Pause(caller)
	})
}

func (s *RegistryService) Unpause(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("unpause", func() error {
		return s.reg.Unpause(caller)
	})
}

func (s *RegistryService) SetUpgradeTarget(caller, target common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("set_upgrade_target", func() error {
		return s.reg.SetUpgradeTarget(caller, target)
	})
}

func (s *RegistryService) TransferAdmin(caller, newAdmin common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply("transfer_admin", func() error {
		return s.reg.TransferAdmin(caller, newAdmin)
	})
}

// --- Read accessors ---
// Reads take the same lock: they are cheap map/slice lookups and a torn read
// concurrent with a transfer must never be observable.

func (s *RegistryService) OwnerOf(licenseID uint64) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.OwnerOf(licenseID)
}

func (s *RegistryService) BalanceOf(owner common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.BalanceOf(owner)
}

func (s *RegistryService) GetLicense(licenseID uint64) (registry.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.GetLicense(licenseID)
}

func (s *RegistryService) GetLicenseType(typeID uint64) (registry.LicenseType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.GetLicenseType(typeID)
}

func (s *RegistryService) LicenseCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.LicenseCount()
}

func (s *RegistryService) LicenseTypeCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.LicenseTypeCount()
}

func (s *RegistryService) PendingApproval(licenseID uint64) (registry.SaleApproval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.PendingApproval(licenseID)
}

func (s *RegistryService) Status() (admin common.Address, paused bool, upgradeTarget common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Admin(), s.reg.Paused(), s.reg.UpgradeTarget()
}

// GetEvents pages through the persisted journal, newest first.
func (s *RegistryService) GetEvents(params utils.PaginationParams) ([]models.Event, int64, error) {
	query := s.db.Model(&models.Event{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	allowedSortFields := []string{"sequence", "created_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, total, nil
}
