// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sxp

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	// selector of transfer(address,uint256)
	h := Keccak256([]byte("transfer(address,uint256)"))
	assert.Equal(t, "a9059cbb", hex.EncodeToString(h[:4]))

	assert.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func TestBlake2b(t *testing.T) {
	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("a"), []byte("b")))
	assert.NotEqual(t, Blake2b([]byte("a")), Keccak256([]byte("a")))
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("staking"))

	data, err := json.Marshal(&addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
	_, err = ParseAddress("zz" + addr.String()[2:])
	assert.Error(t, err)
}

func TestBytes32(t *testing.T) {
	b := BytesToBytes32([]byte{1})
	assert.False(t, b.IsZero())
	assert.Equal(t, byte(1), b[31])

	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, "1000000000000000000000", Tokens(1000).String())
}
