// internal/services/bank_service.go
package services

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/database"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDepositNotFound     = errors.New("deposit not found")
	ErrDepositNotCompleted = errors.New("payment has not completed")
	ErrDepositTooSmall     = errors.New("deposit amount below minimum")
)

// BankService is the fund custodian. It holds one balance row per address
// and implements registry.Bank so paid transfers settle against the same
// rows deposits credit. The registry's own address can never hold funds;
// any operation that would credit it fails.
type BankService struct {
	db              *gorm.DB
	config          *config.Config
	registryAddress string
}

type CreateDepositRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Currency    string `json:"currency,omitempty"`
}

type DepositIntentResponse struct {
	DepositID    uuid.UUID `json:"deposit_id"`
	ClientSecret string    `json:"client_secret"`
	Status       string    `json:"status"`
}

func NewBankService(db *gorm.DB, cfg *config.Config) *BankService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &BankService{
		db:              db,
		config:          cfg,
		registryAddress: strings.ToLower(cfg.Registry.RegistryAddress),
	}
}

// Settle moves the payment of an approved sale in one database transaction:
// the full payment leaves the payer, the royalty cut lands on the creator and
// the remainder on the seller. Any failure rolls the whole split back, so the
// caller observes either a complete settlement or none.
func (s *BankService) Settle(settlement registry.Settlement) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return s.SettleIn(tx, settlement)
	})
}

// SettleIn performs the settlement split inside a caller-owned transaction,
// so a settlement can commit or roll back together with the journal rows of
// the transfer that triggered it.
func (s *BankService) SettleIn(tx *gorm.DB, settlement registry.Settlement) error {
	if settlement.Payment.Sign() < 0 || settlement.RoyaltyCut.Sign() < 0 ||
		settlement.SellerProceeds().Sign() < 0 {
		return fmt.Errorf("settlement amounts must be non-negative")
	}
	if settlement.Payment.Sign() == 0 {
		return nil
	}

	if err := s.debit(tx, settlement.Payer, settlement.Payment); err != nil {
		return err
	}
	if settlement.RoyaltyCut.Sign() > 0 {
		if err := s.credit(tx, settlement.Creator, settlement.RoyaltyCut); err != nil {
			return err
		}
	}
	proceeds := settlement.SellerProceeds()
	if proceeds.Sign() > 0 {
		if err := s.credit(tx, settlement.Seller, proceeds); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"license_id": settlement.LicenseID,
		"payer":      utils.NormalizeAddress(settlement.Payer),
		"seller":     utils.NormalizeAddress(settlement.Seller),
		"creator":    utils.NormalizeAddress(settlement.Creator),
		"payment":    settlement.Payment.String(),
		"royalty":    settlement.RoyaltyCut.String(),
	}).Info("Sale settled")

	return nil
}

func (s *BankService) debit(tx *gorm.DB, addr common.Address, amount *big.Int) error {
	account, err := lockAccount(tx, utils.NormalizeAddress(addr))
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	balance := new(big.Int).Sub(&account.Balance.Int, amount)
	return tx.Model(account).Update("balance", models.NewBigInt(balance)).Error
}

func (s *BankService) credit(tx *gorm.DB, addr common.Address, amount *big.Int) error {
	normalized := utils.NormalizeAddress(addr)
	if normalized == s.registryAddress {
		return fmt.Errorf("funds cannot be credited to the registry address")
	}

	account, err := lockAccount(tx, normalized)
	if errors.Is(err, ErrAccountNotFound) {
		account = &models.Account{Address: normalized, Balance: models.NewBigInt(amount)}
		return tx.Create(account).Error
	}
	if err != nil {
		return err
	}

	balance := new(big.Int).Add(&account.Balance.Int, amount)
	return tx.Model(account).Update("balance", models.NewBigInt(balance)).Error
}

// lockAccount reads an account row under FOR UPDATE so concurrent settlements
// against the same address serialize at the database. SQLite has a single
// writer and rejects the locking clause, so it is applied on postgres only.
func lockAccount(tx *gorm.DB, address string) (*models.Account, error) {
	query := tx.Where("address = ?", address)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account models.Account
	err := query.First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Balance returns the current balance for an address. A missing account row
// reads as zero; accounts are created lazily on first credit.
func (s *BankService) Balance(addr common.Address) (*big.Int, error) {
	var account models.Account
	err := s.db.Where("address = ?", utils.NormalizeAddress(addr)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return new(big.Int).Set(&account.Balance.Int), nil
}

// CreateDeposit opens a Stripe payment intent for a top-up. The account is
// only credited once ConfirmDeposit sees the intent succeed.
func (s *BankService) CreateDeposit(addr common.Address, req *CreateDepositRequest) (*DepositIntentResponse, error) {
	if req.AmountCents < s.config.Payment.MinDepositCents {
		return nil, ErrDepositTooSmall
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	normalized := utils.NormalizeAddress(addr)
	if normalized == s.registryAddress {
		return nil, fmt.Errorf("funds cannot be credited to the registry address")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("address", normalized)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	deposit := &models.Deposit{
		Address:         normalized,
		AmountCents:     req.AmountCents,
		Currency:        currency,
		PaymentIntentID: pi.ID,
		Status:          models.DepositStatusPending,
	}
	if err := s.db.Create(deposit).Error; err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	return &DepositIntentResponse{
		DepositID:    deposit.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmDeposit checks the payment intent with Stripe and, if it succeeded,
// credits amount_cents * units-per-cent to the depositor. Confirming an
// already-completed deposit is a no-op.
func (s *BankService) ConfirmDeposit(addr common.Address, paymentIntentID string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := s.db.Where("payment_intent_id = ? AND address = ?", paymentIntentID, utils.NormalizeAddress(addr)).
		First(&deposit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deposit: %w", err)
	}

	if deposit.Status == models.DepositStatusCompleted {
		return &deposit, nil
	}

	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, ErrDepositNotCompleted
	}

	credited := new(big.Int).Mul(
		big.NewInt(deposit.AmountCents),
		big.NewInt(s.config.Payment.UnitsPerCent),
	)

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.credit(tx, common.HexToAddress(deposit.Address), credited); err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&deposit).Updates(map[string]interface{}{
			"status":          models.DepositStatusCompleted,
			"credited_amount": models.NewBigInt(credited),
			"completed_at":    &now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"address":      deposit.Address,
		"amount_cents": deposit.AmountCents,
		"credited":     credited.String(),
	}).Info("Deposit completed")

	return &deposit, nil
}

// GetDeposits pages the deposit history of one address, newest first.
func (s *BankService) GetDeposits(addr common.Address, params utils.PaginationParams) ([]models.Deposit, int64, error) {
	query := s.db.Model(&models.Deposit{}).Where("address = ?", utils.NormalizeAddress(addr))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "amount_cents"})
	query = utils.ApplyPagination(query, params)

	var deposits []models.Deposit
	if err := query.Find(&deposits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deposits: %w", err)
	}

	return deposits, total, nil
}
