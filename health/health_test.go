// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/runtime"
)

func TestHealth_OnBlock(t *testing.T) {
	h := New(10 * time.Second)
	require.NoError(t, h.OnBlock(&runtime.Block{Number: 5, Time: 1050}))

	if h.best == nil || h.best.Number != 5 {
		t.Errorf("expected best block 5, got %v", h.best)
	}
	if time.Since(h.minedAt) > time.Second {
		t.Errorf("minedAt timestamp is not recent")
	}

	h.MiningStatus(true)
	status, err := h.Status()
	require.NoError(t, err)

	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(5), *status.BlockProduction.BestBlock)
	assert.Equal(t, uint64(1050), *status.BlockProduction.BestBlockTime)
	assert.Equal(t, uint64(10), status.BlockProduction.BlockIntervalSecs)
}

func TestHealth_MiningStatus(t *testing.T) {
	h := New(time.Second)
	require.NoError(t, h.OnBlock(&runtime.Block{Number: 1}))

	h.MiningStatus(true)
	assert.True(t, h.mining)

	h.MiningStatus(false)
	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.False(t, status.Mining)
}

func TestHealth_Status(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	h := New(10 * time.Second)
	h.now = func() time.Time { return now }
	h.MiningStatus(true)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy, "no block yet")
	assert.Nil(t, status.BlockProduction.BestBlock)

	require.NoError(t, h.OnBlock(&runtime.Block{Number: 1}))

	now = now.Add(30 * time.Second)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	now = now.Add(time.Second)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy, "stale best block")
}
