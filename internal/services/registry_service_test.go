// internal/services/registry_service_test.go
package services

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

var (
	testAdmin   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSelf    = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	testCreator = common.HexToAddress("0x0000000000000000000000000000000000000011")
	testOwner   = common.HexToAddress("0x0000000000000000000000000000000000000022")
	testBuyer   = common.HexToAddress("0x0000000000000000000000000000000000000033")
)

// acceptingBank settles everything and records nothing.
type acceptingBank struct{}

func (acceptingBank) Settle(registry.Settlement) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Registry: config.RegistryConfig{
			AdminAddress:    testAdmin.Hex(),
			RegistryAddress: testSelf.Hex(),
		},
	}
}

type RegistryServiceTestSuite struct {
	suite.Suite
	svc *RegistryService
}

func (suite *RegistryServiceTestSuite) SetupTest() {
	svc, err := NewRegistryService(nil, testConfig(), acceptingBank{}, nil)
	require.NoError(suite.T(), err)
	suite.svc = svc
}

func (suite *RegistryServiceTestSuite) TestFullSaleFlow() {
	t := suite.T()

	typeID, err := suite.svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)

	licenseID, err := suite.svc.CreateLicense(testCreator, typeID, 2500, testOwner)
	require.NoError(t, err)

	owner, err := suite.svc.OwnerOf(licenseID)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)

	price := big.NewInt(1_000_000)
	require.NoError(t, suite.svc.Approve(testOwner, testBuyer, licenseID, price))

	approval, found := suite.svc.PendingApproval(licenseID)
	require.True(t, found)
	assert.Equal(t, testBuyer, approval.To)

	require.NoError(t, suite.svc.TransferFrom(testBuyer, testOwner, testBuyer, licenseID, price))

	owner, err = suite.svc.OwnerOf(licenseID)
	require.NoError(t, err)
	assert.Equal(t, testBuyer, owner)

	// Settlement consumed the approval.
	_, found = suite.svc.PendingApproval(licenseID)
	assert.False(t, found)
}

func (suite *RegistryServiceTestSuite) TestCoreErrorsSurface() {
	t := suite.T()

	_, err := suite.svc.CreateLicenseType(testOwner, testCreator)
	assert.ErrorIs(t, err, registry.ErrUnauthorized)

	_, err = suite.svc.OwnerOf(42)
	assert.ErrorIs(t, err, registry.ErrNoSuchLicense)

	require.NoError(t, suite.svc.Pause(testAdmin))
	typeID, err := suite.svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)
	_, err = suite.svc.CreateLicense(testCreator, typeID, 0, testOwner)
	assert.ErrorIs(t, err, registry.ErrPaused)
}

func (suite *RegistryServiceTestSuite) TestSequenceFollowsCommitOrder() {
	t := suite.T()

	typeID, err := suite.svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)
	// Type creation journals one event.
	assert.Equal(t, uint64(1), suite.svc.sequence)

	// Minting journals LicenseCreation plus the synthetic Transfer.
	_, err = suite.svc.CreateLicense(testCreator, typeID, 0, testOwner)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), suite.svc.sequence)

	// A rejected operation journals nothing.
	_, err = suite.svc.CreateLicense(testOwner, typeID, 0, testOwner)
	require.Error(t, err)
	assert.Equal(t, uint64(3), suite.svc.sequence)
}

func (suite *RegistryServiceTestSuite) TestConcurrentMintsSerialize() {
	t := suite.T()

	typeID, err := suite.svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)

	const mints = 20
	var wg sync.WaitGroup
	for i := 0; i < mints; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.svc.CreateLicense(testCreator, typeID, 100, testOwner)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(mints), suite.svc.LicenseCount())
	assert.Equal(t, uint64(mints), suite.svc.BalanceOf(testOwner))
	// One type event plus two events per mint, with no gaps.
	assert.Equal(t, uint64(1+2*mints), suite.svc.sequence)
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceTestSuite))
}

// TestJournalRoundTrip folds journal rows back into a state and checks the
// rebuilt registry matches the history that produced them.
func TestJournalRoundTrip(t *testing.T) {
	const licenseID = 0
	mintedAt := time.Unix(1700000000, 0)
	approvedAt := time.Unix(1700000600, 0)

	events := []registry.Event{
		registry.LicenseTypeCreatedEvent{TypeID: 0, Creator: testCreator},
		registry.LicenseCreatedEvent{LicenseID: licenseID, TypeID: 0, Owner: testOwner, CutOnResale: 1500, CreatedAt: mintedAt},
		registry.TransferEvent{To: testOwner, LicenseID: licenseID},
		registry.ApprovalEvent{Owner: testOwner, LicenseID: licenseID, Price: big.NewInt(500), CreatedAt: approvedAt},
		registry.PausedEvent{},
		registry.UpgradeEvent{Target: testBuyer},
		registry.UnpausedEvent{},
		registry.AdminChangedEvent{Previous: testAdmin, Current: testCreator},
	}

	state := registry.State{
		Owners:    make(map[uint64]common.Address),
		Approvals: make(map[uint64]registry.SaleApproval),
	}
	for i, event := range events {
		row := journalRow(event, uint64(i+1))
		require.NoError(t, applyJournalRow(&state, *row))
	}

	rebuilt, err := registry.NewFromState(registry.Config{
		Admin: testAdmin,
		Self:  testSelf,
		Bank:  acceptingBank{},
	}, state)
	require.NoError(t, err)

	assert.Equal(t, testCreator, rebuilt.Admin())
	assert.False(t, rebuilt.Paused())
	assert.Equal(t, testBuyer, rebuilt.UpgradeTarget())
	assert.Equal(t, uint64(1), rebuilt.LicenseCount())

	owner, err := rebuilt.OwnerOf(licenseID)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)

	// Replay keeps the timestamps the registry recorded, not the time the
	// rows were written.
	license, err := rebuilt.GetLicense(licenseID)
	require.NoError(t, err)
	assert.Equal(t, mintedAt, license.CreatedAt)

	approval, found := rebuilt.PendingApproval(licenseID)
	require.True(t, found)
	assert.Equal(t, "500", approval.Price.String())
	assert.Equal(t, approvedAt, approval.CreatedAt)
}

// TestJournalSurvivesRestart drives the full persisted path: operations are
// journaled, a second service instance replays the journal and ends up with
// the same state, timestamps included.
func TestJournalSurvivesRestart(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewRegistryService(db, testConfig(), acceptingBank{}, nil)
	require.NoError(t, err)

	typeID, err := svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)
	licenseID, err := svc.CreateLicense(testCreator, typeID, 1500, testOwner)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(testOwner, testBuyer, licenseID, big.NewInt(500)))

	minted, err := svc.GetLicense(licenseID)
	require.NoError(t, err)

	reopened, err := NewRegistryService(db, testConfig(), acceptingBank{}, nil)
	require.NoError(t, err)

	owner, err := reopened.OwnerOf(licenseID)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)

	license, err := reopened.GetLicense(licenseID)
	require.NoError(t, err)
	assert.Equal(t, minted.CreatedAt.Unix(), license.CreatedAt.Unix())

	approval, found := reopened.PendingApproval(licenseID)
	require.True(t, found)
	assert.Equal(t, "500", approval.Price.String())
	assert.Equal(t, svc.sequence, reopened.sequence)
}

// TestFailedJournalRollsBackSale forces the journal insert of a sale to
// conflict and checks that the settlement rolled back with it and the
// in-memory registry was rebuilt at the pre-sale state.
func TestFailedJournalRollsBackSale(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	bank := NewBankService(db, cfg)

	svc, err := NewRegistryService(db, cfg, bank, nil)
	require.NoError(t, err)

	typeID, err := svc.CreateLicenseType(testAdmin, testCreator)
	require.NoError(t, err)
	licenseID, err := svc.CreateLicense(testCreator, typeID, 2000, testOwner)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(testOwner, testBuyer, licenseID, big.NewInt(1_000)))

	buyerAccount := &models.Account{
		Address: utils.NormalizeAddress(testBuyer),
		Balance: models.NewBigInt(big.NewInt(1_000)),
	}
	require.NoError(t, db.Create(buyerAccount).Error)

	// Occupy the sequence slot the sale's Transfer row will want.
	blocker := &models.Event{Sequence: svc.sequence + 1, Name: "Paused", Data: models.JSONB{}}
	require.NoError(t, db.Create(blocker).Error)

	err = svc.TransferFrom(testBuyer, testOwner, testBuyer, licenseID, big.NewInt(1_000))
	require.Error(t, err)

	// No funds moved.
	balance, err := bank.Balance(testBuyer)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), balance.Int64())
	sellerBalance, err := bank.Balance(testOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sellerBalance.Int64())

	// Ownership and the approval match the journal, not the aborted sale.
	owner, err := svc.OwnerOf(licenseID)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)
	_, found := svc.PendingApproval(licenseID)
	assert.True(t, found)
}
