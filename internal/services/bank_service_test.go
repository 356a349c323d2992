// internal/services/bank_service_test.go
package services

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

// openTestDB opens a throwaway sqlite database with the tables the bank and
// the event journal use.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Deposit{}, &models.Event{}))
	return db
}

type BankServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	bank *BankService
}

func (suite *BankServiceTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.bank = NewBankService(suite.db, testConfig())
}

func (suite *BankServiceTestSuite) fund(addr common.Address, amount int64) {
	account := &models.Account{
		Address: utils.NormalizeAddress(addr),
		Balance: models.NewBigInt(big.NewInt(amount)),
	}
	require.NoError(suite.T(), suite.db.Create(account).Error)
}

func (suite *BankServiceTestSuite) balance(addr common.Address) int64 {
	balance, err := suite.bank.Balance(addr)
	require.NoError(suite.T(), err)
	return balance.Int64()
}

func saleSettlement(payment, royalty int64) registry.Settlement {
	return registry.Settlement{
		LicenseID:  7,
		Payer:      testBuyer,
		Seller:     testOwner,
		Creator:    testCreator,
		Payment:    big.NewInt(payment),
		RoyaltyCut: big.NewInt(royalty),
	}
}

func (suite *BankServiceTestSuite) TestSettleSplitsPayment() {
	t := suite.T()
	suite.fund(testBuyer, 1_000_000)

	require.NoError(t, suite.bank.Settle(saleSettlement(1_000_000, 200_000)))

	// The full payment left the payer; cut and remainder sum back to it.
	assert.Equal(t, int64(0), suite.balance(testBuyer))
	assert.Equal(t, int64(200_000), suite.balance(testCreator))
	assert.Equal(t, int64(800_000), suite.balance(testOwner))
}

func (suite *BankServiceTestSuite) TestSettleInsufficientFunds() {
	t := suite.T()
	suite.fund(testBuyer, 500)

	err := suite.bank.Settle(saleSettlement(1_000, 200))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, int64(500), suite.balance(testBuyer))
	assert.Equal(t, int64(0), suite.balance(testCreator))
	assert.Equal(t, int64(0), suite.balance(testOwner))
}

func (suite *BankServiceTestSuite) TestSettleMissingPayerAccount() {
	err := suite.bank.Settle(saleSettlement(1_000, 200))
	assert.ErrorIs(suite.T(), err, ErrAccountNotFound)
}

func (suite *BankServiceTestSuite) TestSettleZeroPaymentIsNoop() {
	t := suite.T()
	require.NoError(t, suite.bank.Settle(saleSettlement(0, 0)))
	assert.Equal(t, int64(0), suite.balance(testBuyer))
}

func (suite *BankServiceTestSuite) TestSettleNeverCreditsRegistryAddress() {
	t := suite.T()
	suite.fund(testBuyer, 1_000)

	// Royalty routed at the registry itself: refused, and the debit that
	// already ran inside the transaction is rolled back with it.
	settlement := saleSettlement(1_000, 200)
	settlement.Creator = testSelf
	assert.Error(t, suite.bank.Settle(settlement))
	assert.Equal(t, int64(1_000), suite.balance(testBuyer))
	assert.Equal(t, int64(0), suite.balance(testOwner))

	settlement = saleSettlement(1_000, 0)
	settlement.Seller = testSelf
	assert.Error(t, suite.bank.Settle(settlement))
	assert.Equal(t, int64(1_000), suite.balance(testBuyer))
}

func (suite *BankServiceTestSuite) TestSettleRejectsNegativeAmounts() {
	t := suite.T()
	suite.fund(testBuyer, 1_000)

	assert.Error(t, suite.bank.Settle(saleSettlement(-1_000, -200)))
	// A royalty above the payment would make the seller proceeds negative.
	assert.Error(t, suite.bank.Settle(saleSettlement(100, 200)))

	assert.Equal(t, int64(1_000), suite.balance(testBuyer))
	assert.Equal(t, int64(0), suite.balance(testCreator))
	assert.Equal(t, int64(0), suite.balance(testOwner))
}

func (suite *BankServiceTestSuite) TestBalanceOfMissingAccountIsZero() {
	assert.Equal(suite.T(), int64(0), suite.balance(testBuyer))
}

func (suite *BankServiceTestSuite) TestDepositToRegistryAddressRefused() {
	_, err := suite.bank.CreateDeposit(testSelf, &CreateDepositRequest{AmountCents: 100})
	assert.Error(suite.T(), err)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.Deposit{}).Count(&count).Error)
	assert.Equal(suite.T(), int64(0), count)
}

func TestBankServiceSuite(t *testing.T) {
	suite.Run(t, new(BankServiceTestSuite))
}
