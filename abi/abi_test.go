// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("transfer(address to, uint256 amount) returns (bool)")
	require.NoError(t, err)

	assert.Equal(t, "transfer", m.Name())
	assert.Equal(t, "transfer(address,uint256)", m.Sig())
	assert.Equal(t, "a9059cbb", hex.EncodeToString(m.id[:]))
	assert.Equal(t, Selector("transfer(address,uint256)"), m.ID())

	for _, bad := range []string{"", "noparen", "f(uint256", "f(uint7)", "f(int264)", "f(uint8[],uint12)", "f(bytes33)", "f() yields (bool)", "f() returns bool"} {
		_, err := ParseMethod(bad)
		assert.Error(t, err, bad)
	}
}

func TestMethodInputOutput(t *testing.T) {
	m := MustParseMethod("propose(address[] targets, uint256[] values, string[] signatures, bytes[] calldatas, string description) returns (uint256)")

	to := common.HexToAddress("0x01")
	input, err := m.EncodeInput(
		[]common.Address{to},
		[]*big.Int{big.NewInt(0)},
		[]string{"assumeOwnership()"},
		[][]byte{{}},
		"# SIP-1",
	)
	require.NoError(t, err)

	id, err := ExtractMethodID(input)
	require.NoError(t, err)
	assert.Equal(t, m.ID(), id)

	var args struct {
		Targets     []common.Address
		Values      []*big.Int
		Signatures  []string
		Calldatas   [][]byte
		Description string
	}
	require.NoError(t, m.DecodeInput(input, &args))
	assert.Equal(t, []common.Address{to}, args.Targets)
	assert.Equal(t, "# SIP-1", args.Description)
	assert.Equal(t, []string{"assumeOwnership()"}, args.Signatures)

	assert.Error(t, m.DecodeInput([]byte{1, 2, 3, 4}, &args))

	out, err := m.EncodeOutput(big.NewInt(7))
	require.NoError(t, err)
	var id7 *big.Int
	require.NoError(t, m.DecodeOutput(out, &id7))
	assert.Equal(t, big.NewInt(7), id7)

	values, err := m.DecodeOutputValues(out)
	require.NoError(t, err)
	assert.Equal(t, []any{big.NewInt(7)}, values)
}

func TestSingleArgument(t *testing.T) {
	m := MustParseMethod("stake(uint256 amount)")
	input, err := m.EncodeInput(big.NewInt(1000))
	require.NoError(t, err)

	var args struct{ Amount *big.Int }
	require.NoError(t, m.DecodeInput(input, &args))
	assert.Equal(t, big.NewInt(1000), args.Amount)
}

func TestEvent(t *testing.T) {
	ev := MustParseEvent("Stake(address indexed account, uint256 amount, bytes data)")
	assert.Equal(t, "Stake", ev.Name())
	assert.False(t, ev.ID().IsZero())

	account := common.HexToAddress("0x02")
	data, err := ev.Encode(account, big.NewInt(5), []byte{0xab})
	require.NoError(t, err)

	fields, err := ev.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, account, fields["account"])
	assert.Equal(t, big.NewInt(5), fields["amount"])
	assert.Equal(t, hexutil.Bytes{0xab}, fields["data"])
}

func TestPack(t *testing.T) {
	data, err := Pack([]string{"address", "uint256"}, common.HexToAddress("0x03"), big.NewInt(9))
	require.NoError(t, err)
	assert.Len(t, data, 64)

	values, err := Unpack([]string{"address", "uint256"}, data)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x03"), values[0])
	assert.Equal(t, big.NewInt(9), values[1])
}

func TestDecodeJSONInput(t *testing.T) {
	m := MustParseMethod("f(address a, uint256 b, uint8 c, bool d, string e, bytes f, bytes32 g, address[] h, int64 i)")

	raw := []json.RawMessage{
		json.RawMessage(`"0x0000000000000000000000000000000000000001"`),
		json.RawMessage(`"0x10"`),
		json.RawMessage(`7`),
		json.RawMessage(`true`),
		json.RawMessage(`"hello"`),
		json.RawMessage(`"0xabcd"`),
		json.RawMessage(`"0x` + strings.Repeat("11", 32) + `"`),
		json.RawMessage(`["0x0000000000000000000000000000000000000002"]`),
		json.RawMessage(`"-5"`),
	}
	values, err := m.DecodeJSONInput(raw)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x01"), values[0])
	assert.Equal(t, big.NewInt(16), values[1])
	assert.Equal(t, uint8(7), values[2])
	assert.Equal(t, true, values[3])
	assert.Equal(t, "hello", values[4])
	assert.Equal(t, []byte{0xab, 0xcd}, values[5])
	var b32 [32]byte
	for i := range b32 {
		b32[i] = 0x11
	}
	assert.Equal(t, b32, values[6])
	assert.Equal(t, []common.Address{common.HexToAddress("0x02")}, values[7])
	assert.Equal(t, int64(-5), values[8])

	_, err = m.EncodeInput(values...)
	assert.NoError(t, err)

	bad := []struct {
		decl string
		arg  string
	}{
		{"f(uint8)", `256`},
		{"f(uint256)", `"-1"`},
		{"f(bytes32)", `"0xabcd"`},
		{"f(address)", `"0x01"`},
		{"f(bool)", `"yes"`},
		{"f(uint256[2])", `["1"]`},
	}
	for _, tt := range bad {
		_, err := MustParseMethod(tt.decl).DecodeJSONInput([]json.RawMessage{json.RawMessage(tt.arg)})
		assert.Error(t, err, tt.decl)
	}

	_, err = m.DecodeJSONInput(raw[:2])
	assert.Error(t, err)
}

func TestJSONValue(t *testing.T) {
	var b32 [32]byte
	b32[31] = 1
	data, err := json.Marshal([]any{
		JSONValue(big.NewInt(255)),
		JSONValue(common.HexToAddress("0x01")),
		JSONValue(b32),
		JSONValue([]byte{1, 2}),
		JSONValue([]*big.Int{big.NewInt(1)}),
		JSONValue(uint8(3)),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`["0xff","0x0000000000000000000000000000000000000001","0x`+strings.Repeat("00", 31)+`01","0x0102",["0x1"],3]`,
		string(data))
}
