// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeq(t *testing.T) {
	tests := []struct {
		name     string
		blockNum uint32
		index    uint32
	}{
		{"regular", 1, 2},
		{"max block", math.MaxUint32, 1},
		{"max index", 5, maxIndex},
		{"both max", math.MaxUint32, maxIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blockNum, index := splitSeq(seqOf(tt.blockNum, tt.index))
			assert.Equal(t, tt.blockNum, blockNum)
			assert.Equal(t, tt.index, index)
		})
	}

	first, last := blockSeqs(2)
	assert.Less(t, seqOf(1, maxIndex), first)
	assert.Equal(t, seqOf(2, maxIndex), last)
	assert.Less(t, last, seqOf(3, 0))
}

func TestStatementsClosed(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	require.NotNil(t, db.stmts.insertEvent)
	require.NoError(t, db.Prepare(1, 10).Commit())
	require.NoError(t, db.Close())

	_, _, err = db.NewestBlockNumber()
	assert.Error(t, err)
}
