// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/sxp"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestStateReadWrite(t *testing.T) {
	st, _ := newTestState(t)

	addr := sxp.BytesToAddress([]byte("account"))
	key := sxp.BytesToBytes32([]byte("key"))

	balance, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	st.SetBalance(addr, big.NewInt(100))
	balance, err = st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)

	value, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	st.SetStorage(addr, key, sxp.BytesToBytes32([]byte{1, 2}))
	value, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, sxp.BytesToBytes32([]byte{1, 2}), value)

	st.SetCode(addr, []byte("staking/v1"))
	code, err := st.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("staking/v1"), code)
}

func TestStateEncodeDecode(t *testing.T) {
	st, _ := newTestState(t)

	addr := sxp.BytesToAddress([]byte("account"))
	key := sxp.BytesToBytes32([]byte("list"))

	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes([]string{"a", "b"})
	}))

	var decoded []string
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, []string{"a", "b"}, decoded)

	// list values read back as hash of the raw value
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	value, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, sxp.Blake2b(raw), value)
}

func TestStateCheckpoint(t *testing.T) {
	st, _ := newTestState(t)

	addr := sxp.BytesToAddress([]byte("account"))
	key := sxp.BytesToBytes32([]byte("key"))
	one := sxp.BytesToBytes32([]byte{1})
	two := sxp.BytesToBytes32([]byte{2})

	st.SetStorage(addr, key, one)

	outer := st.NewCheckpoint()
	st.SetStorage(addr, key, two)
	inner := st.NewCheckpoint()
	st.SetBalance(addr, big.NewInt(5))

	st.RevertTo(inner)
	balance, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	value, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, two, value)

	st.RevertTo(outer)
	value, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, one, value)

	st.RevertTo(0)
	value, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	// still writable after full revert
	st.SetStorage(addr, key, one)
	value, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, one, value)
}

func TestStageCommit(t *testing.T) {
	st, db := newTestState(t)

	addr := sxp.BytesToAddress([]byte("account"))
	key := sxp.BytesToBytes32([]byte("key"))

	st.SetStorage(addr, key, sxp.BytesToBytes32([]byte{1}))
	st.SetStorage(addr, key, sxp.BytesToBytes32([]byte{3}))
	st.SetBalance(addr, big.NewInt(7))
	st.SetCode(addr, []byte("token"))

	stage := st.Stage()
	assert.Equal(t, 3, stage.Len())
	require.NoError(t, stage.Commit())
	assert.Equal(t, 0, st.Stage().Len())

	// a fresh state over the same store sees committed values
	reopened := New(db)
	value, err := reopened.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, sxp.BytesToBytes32([]byte{3}), value)

	balance, err := reopened.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), balance)

	code, err := reopened.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("token"), code)

	// clearing a slot deletes it from the store
	reopened.SetStorage(addr, key, sxp.Bytes32{})
	require.NoError(t, reopened.Stage().Commit())
	value, err = New(db).GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, value.IsZero())
}
