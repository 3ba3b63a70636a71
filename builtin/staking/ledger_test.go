// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
)

func newTestLedger(t *testing.T) *Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedger(sxp.BytesToAddress([]byte("staking")), state.New(db))
}

func TestCheckpointHistory(t *testing.T) {
	l := newTestLedger(t)
	alice := sxp.BytesToAddress([]byte("alice"))

	_, err := l.adjust(alice, 10, big.NewInt(1000))
	require.NoError(t, err)
	_, err = l.adjust(alice, 20, big.NewInt(1200))
	require.NoError(t, err)
	balance, err := l.adjust(alice, 30, big.NewInt(-200))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), balance.Int64())

	tests := []struct {
		block uint64
		want  int64
	}{
		{0, 0}, {9, 0}, {10, 1000}, {15, 1000}, {19, 1000},
		{20, 2200}, {29, 2200}, {30, 2000}, {1_000_000, 2000},
	}
	for _, tt := range tests {
		got, err := l.BalanceAt(alice, tt.block)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Int64(), "block %d", tt.block)
	}

	cps, err := l.Checkpoints(alice)
	require.NoError(t, err)
	assert.Len(t, cps, 3)

	total, err := l.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total.Int64())
}

func TestCheckpointSameBlock(t *testing.T) {
	l := newTestLedger(t)
	alice := sxp.BytesToAddress([]byte("alice"))

	for range 3 {
		_, err := l.adjust(alice, 5, big.NewInt(100))
		require.NoError(t, err)
	}
	cps, err := l.Checkpoints(alice)
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, uint64(5), cps[0].Block)
	assert.Equal(t, int64(300), cps[0].Balance.Int64())

	_, err = l.adjust(alice, 4, big.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.Invariant), "got %v", err)
}

func TestBinarySearch(t *testing.T) {
	l := newTestLedger(t)
	alice := sxp.BytesToAddress([]byte("alice"))

	// a checkpoint every third block, balance equal to the block number
	for block := uint64(3); block <= 300; block += 3 {
		_, err := l.adjust(alice, block, big.NewInt(3))
		require.NoError(t, err)
	}
	for block := uint64(0); block <= 310; block++ {
		want := int64(block - block%3)
		if want > 300 {
			want = 300
		}
		got, err := l.BalanceAt(alice, block)
		require.NoError(t, err)
		assert.Equal(t, want, got.Int64(), "block %d", block)
	}
}

func TestWithdrawableAmount(t *testing.T) {
	l := newTestLedger(t)
	alice := sxp.BytesToAddress([]byte("alice"))

	_, err := l.adjust(alice, 100, big.NewInt(500))
	require.NoError(t, err)
	_, err = l.adjust(alice, 200, big.NewInt(300))
	require.NoError(t, err)

	tests := []struct {
		current, age uint64
		want         int64
	}{
		{150, 0, 800},
		{5, 10, 0},
		{109, 10, 0},
		{110, 10, 500},
		{209, 10, 500},
		{210, 10, 800},
	}
	for _, tt := range tests {
		got, err := l.WithdrawableAmount(alice, tt.current, tt.age)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Int64(), "current %d age %d", tt.current, tt.age)
	}

	// a later withdrawal caps the aged balance
	_, err = l.adjust(alice, 220, big.NewInt(-700))
	require.NoError(t, err)
	got, err := l.WithdrawableAmount(alice, 225, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Int64())
}
