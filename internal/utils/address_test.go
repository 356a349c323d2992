// internal/utils/address_test.go
package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAddressIsUniqueAndNonZero(t *testing.T) {
	a, err := GenerateAddress()
	require.NoError(t, err)
	b, err := GenerateAddress()
	require.NoError(t, err)

	assert.NotEqual(t, common.Address{}, a)
	assert.NotEqual(t, a, b)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xaa"), addr)

	_, err = ParseAddress("not-an-address")
	assert.Error(t, err)

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
}

func TestParseOptionalAddress(t *testing.T) {
	addr, err := ParseOptionalAddress("")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)

	_, err = ParseOptionalAddress("bogus")
	assert.Error(t, err)
}

func TestNormalizeAddressIsLowercaseHex(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000AB")
	assert.Equal(t, "0x00000000000000000000000000000000000000ab", NormalizeAddress(addr))
}
