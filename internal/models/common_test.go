// internal/models/common_test.go
package models

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntKeepsPrecisionAbove64Bits(t *testing.T) {
	// 2^96, well past int64.
	v, _ := new(big.Int).SetString("79228162514264337593543950336", 10)
	b := NewBigInt(v)

	value, err := b.Value()
	require.NoError(t, err)
	assert.Equal(t, "79228162514264337593543950336", value)

	var scanned BigInt
	require.NoError(t, scanned.Scan("79228162514264337593543950336"))
	assert.Zero(t, scanned.Cmp(v))

	// JSON stays a quoted decimal string.
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `"79228162514264337593543950336"`, string(data))

	var decoded BigInt
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Zero(t, decoded.Cmp(v))
}

func TestBigIntScanRejectsGarbage(t *testing.T) {
	var b BigInt
	assert.Error(t, b.Scan("12.5"))
	assert.Error(t, b.Scan("abc"))

	require.NoError(t, b.Scan(nil))
	assert.Zero(t, b.Sign())
}
