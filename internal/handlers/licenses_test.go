// internal/handlers/licenses_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

var (
	adminAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	selfAddr    = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	creatorAddr = common.HexToAddress("0x0000000000000000000000000000000000000011")
	ownerAddr   = common.HexToAddress("0x0000000000000000000000000000000000000022")
	buyerAddr   = common.HexToAddress("0x0000000000000000000000000000000000000033")
)

type acceptingBank struct{}

func (acceptingBank) Settle(registry.Settlement) error { return nil }

// testAuth stands in for the JWT middleware: the caller identifies itself
// with a plain header.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller := c.GetHeader("X-Test-Caller"); caller != "" {
			c.Set("caller_address", caller)
			if caller == utils.NormalizeAddress(adminAddr) {
				c.Set("caller_role", string(models.RoleAdmin))
			} else {
				c.Set("caller_role", string(models.RoleParticipant))
			}
		}
		c.Next()
	}
}

type LicenseAPITestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (suite *LicenseAPITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Registry: config.RegistryConfig{
			AdminAddress:    adminAddr.Hex(),
			RegistryAddress: selfAddr.Hex(),
		},
	}

	registryService, err := services.NewRegistryService(nil, cfg, acceptingBank{}, nil)
	require.NoError(suite.T(), err)

	licenseTypeHandler := NewLicenseTypeHandler(registryService)
	licenseHandler := NewLicenseHandler(registryService)
	adminHandler := NewAdminHandler(registryService, nil)

	r := gin.New()
	r.Use(testAuth())

	r.POST("/license-types", licenseTypeHandler.Create)
	r.GET("/license-types/:id", licenseTypeHandler.Get)
	r.GET("/license-types/count", licenseTypeHandler.Count)
	r.POST("/licenses", licenseHandler.Create)
	r.GET("/licenses/:id", licenseHandler.Get)
	r.GET("/licenses/:id/owner", licenseHandler.Owner)
	r.GET("/licenses/:id/approval", licenseHandler.PendingApproval)
	r.POST("/licenses/:id/approval", licenseHandler.Approve)
	r.POST("/licenses/:id/transfer", licenseHandler.Transfer)
	r.POST("/licenses/:id/purchase", licenseHandler.Purchase)
	r.GET("/owners/:address/balance", licenseHandler.BalanceOf)
	r.POST("/admin/pause", adminHandler.Pause)
	r.POST("/admin/unpause", adminHandler.Unpause)
	r.POST("/admin/upgrade", adminHandler.Upgrade)
	r.GET("/admin/status", adminHandler.Status)

	suite.router = r
}

func (suite *LicenseAPITestSuite) request(method, path string, caller common.Address, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != (common.Address{}) {
		req.Header.Set("X-Test-Caller", utils.NormalizeAddress(caller))
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LicenseAPITestSuite) createType() uint64 {
	w := suite.request("POST", "/license-types", adminAddr, gin.H{
		"creator": creatorAddr.Hex(),
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Data struct {
			TypeID uint64 `json:"type_id"`
		} `json:"data"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data.TypeID
}

func (suite *LicenseAPITestSuite) mintLicense(typeID uint64, cutOnResale uint32) uint64 {
	w := suite.request("POST", "/licenses", creatorAddr, gin.H{
		"type_id":       typeID,
		"cut_on_resale": cutOnResale,
		"owner":         ownerAddr.Hex(),
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Data struct {
			LicenseID uint64 `json:"license_id"`
		} `json:"data"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data.LicenseID
}

func (suite *LicenseAPITestSuite) TestMintAndRead() {
	t := suite.T()
	typeID := suite.createType()
	licenseID := suite.mintLicense(typeID, 2000)

	w := suite.request("GET", fmt.Sprintf("/licenses/%d/owner", licenseID), common.Address{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), utils.NormalizeAddress(ownerAddr))

	w = suite.request("GET", fmt.Sprintf("/owners/%s/balance", ownerAddr.Hex()), common.Address{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":1`)
}

func (suite *LicenseAPITestSuite) TestNonAdminCannotCreateType() {
	w := suite.request("POST", "/license-types", ownerAddr, gin.H{
		"creator": creatorAddr.Hex(),
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "UNAUTHORIZED_CALLER")
}

func (suite *LicenseAPITestSuite) TestMintValidation() {
	t := suite.T()
	typeID := suite.createType()

	// Royalty above 100% fails struct validation before reaching the core.
	w := suite.request("POST", "/licenses", creatorAddr, gin.H{
		"type_id":       typeID,
		"cut_on_resale": 15000,
		"owner":         ownerAddr.Hex(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Only the type's creator-of-record may mint.
	w = suite.request("POST", "/licenses", ownerAddr, gin.H{
		"type_id":       typeID,
		"cut_on_resale": 100,
		"owner":         ownerAddr.Hex(),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_CREATOR")

	// Unknown type.
	w = suite.request("POST", "/licenses", creatorAddr, gin.H{
		"type_id":       uint64(99),
		"cut_on_resale": 100,
		"owner":         ownerAddr.Hex(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_LICENSE_TYPE")
}

func (suite *LicenseAPITestSuite) TestMissingLicenseIs404() {
	w := suite.request("GET", "/licenses/42/owner", common.Address{}, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "NO_SUCH_LICENSE")
}

func (suite *LicenseAPITestSuite) TestApproveAndPurchase() {
	t := suite.T()
	typeID := suite.createType()
	licenseID := suite.mintLicense(typeID, 2000)

	// Only the owner can approve.
	w := suite.request("POST", fmt.Sprintf("/licenses/%d/approval", licenseID), buyerAddr, gin.H{
		"to":    buyerAddr.Hex(),
		"price": "1000000",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.request("POST", fmt.Sprintf("/licenses/%d/approval", licenseID), ownerAddr, gin.H{
		"to":    buyerAddr.Hex(),
		"price": "1000000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Approval readback.
	w = suite.request("GET", fmt.Sprintf("/licenses/%d/approval", licenseID), common.Address{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"1000000"`)

	// Underpaying fails the approval check.
	w = suite.request("POST", fmt.Sprintf("/licenses/%d/purchase", licenseID), buyerAddr, gin.H{
		"from":    ownerAddr.Hex(),
		"payment": "999999",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_APPROVED")

	// Paying the floor settles; the license lands on the buyer.
	w = suite.request("POST", fmt.Sprintf("/licenses/%d/purchase", licenseID), buyerAddr, gin.H{
		"from":    ownerAddr.Hex(),
		"payment": "1000000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.request("GET", fmt.Sprintf("/licenses/%d/owner", licenseID), common.Address{}, nil)
	assert.Contains(t, w.Body.String(), utils.NormalizeAddress(buyerAddr))

	// The settled approval is gone.
	w = suite.request("GET", fmt.Sprintf("/licenses/%d/approval", licenseID), common.Address{}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *LicenseAPITestSuite) TestTransferValidation() {
	t := suite.T()
	typeID := suite.createType()
	licenseID := suite.mintLicense(typeID, 0)

	// Registry address can never receive a license.
	w := suite.request("POST", fmt.Sprintf("/licenses/%d/transfer", licenseID), ownerAddr, gin.H{
		"to": selfAddr.Hex(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_RECIPIENT")

	w = suite.request("POST", fmt.Sprintf("/licenses/%d/transfer", licenseID), ownerAddr, gin.H{
		"to": buyerAddr.Hex(),
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func (suite *LicenseAPITestSuite) TestPauseGatesTrading() {
	t := suite.T()
	typeID := suite.createType()
	licenseID := suite.mintLicense(typeID, 0)

	w := suite.request("POST", "/admin/pause", adminAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Trading stops.
	w = suite.request("POST", fmt.Sprintf("/licenses/%d/transfer", licenseID), ownerAddr, gin.H{
		"to": buyerAddr.Hex(),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "REGISTRY_PAUSED")

	// Cataloguing continues.
	w = suite.request("POST", "/license-types", adminAddr, gin.H{
		"creator": creatorAddr.Hex(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Upgrade target can only be recorded while paused.
	w = suite.request("POST", "/admin/upgrade", adminAddr, gin.H{
		"target": buyerAddr.Hex(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.request("POST", "/admin/unpause", adminAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("POST", "/admin/upgrade", adminAddr, gin.H{
		"target": creatorAddr.Hex(),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "REGISTRY_NOT_PAUSED")

	// Trading resumes.
	w = suite.request("POST", fmt.Sprintf("/licenses/%d/transfer", licenseID), ownerAddr, gin.H{
		"to": buyerAddr.Hex(),
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func (suite *LicenseAPITestSuite) TestStatusReadback() {
	w := suite.request("GET", "/admin/status", adminAddr, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), utils.NormalizeAddress(adminAddr))
	assert.Contains(suite.T(), w.Body.String(), `"paused":false`)
}

func TestLicenseAPISuite(t *testing.T) {
	suite.Run(t, new(LicenseAPITestSuite))
}
