// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timelock_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/timelock"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/test/datagen"
	"github.com/swipegov/sxpgov/test/testchain"
	"github.com/swipegov/sxpgov/xenv"
)

var minimumDelay = new(big.Int).SetUint64(sxp.MinimumDelay)

// newTimelock deploys a timelock behind a new proxy administered by admin.
func newTimelock(t *testing.T, admin sxp.Address) (*testchain.Chain, *testchain.Contract) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })

	addr := datagen.RandAddress()
	require.NoError(t, chain.Runtime().Deploy(addr, proxy.Code))
	require.NoError(t, chain.Runtime().Apply(func(st *state.State) error {
		return proxy.Setup(st, addr, "Timelock", chain.Deployer())
	}))
	tl := testchain.NewContract(chain, chain.Deployer(), addr, proxy.Contract, builtin.Timelock.Contract)

	_, err = tl.Send("setImplementationAndCall", builtin.Timelock.Address,
		mustInput(t, tl, "initialize", admin, big.NewInt(60)))
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	_, err = tl.Send("setImplementationAndCall", builtin.Timelock.Address,
		mustInput(t, tl, "initialize", admin, minimumDelay))
	require.NoError(t, err)
	return chain, tl.Attach(admin)
}

func mustInput(t *testing.T, c *testchain.Contract, method string, args ...any) []byte {
	data, err := c.Input(method, args...)
	require.NoError(t, err)
	return data
}

func setDelayTx(t *testing.T, tl *testchain.Contract, delay, eta uint64) *timelock.Transaction {
	data, err := abi.Pack([]string{"uint256"}, new(big.Int).SetUint64(delay))
	require.NoError(t, err)
	return &timelock.Transaction{
		Target:    xenv.EthAddress(tl.Address()),
		Value:     new(big.Int),
		Signature: "setDelay(uint256)",
		Data:      data,
		Eta:       new(big.Int).SetUint64(eta),
	}
}

func args(trx *timelock.Transaction) []any {
	return []any{trx.Target, trx.Value, trx.Signature, trx.Data, trx.Eta}
}

func TestConstants(t *testing.T) {
	_, tl := newTimelock(t, datagen.RandAddress())

	for method, want := range map[string]uint64{
		"GRACE_PERIOD":  sxp.GracePeriod,
		"MINIMUM_DELAY": sxp.MinimumDelay,
		"MAXIMUM_DELAY": sxp.MaximumDelay,
		"delay":         sxp.MinimumDelay,
	} {
		out, err := tl.Call(method)
		require.NoError(t, err)
		assert.Equal(t, want, testchain.BigOf(out[0]).Uint64(), method)
	}
}

func TestQueueAndExecute(t *testing.T) {
	chain, tl := newTimelock(t, datagen.RandAddress())
	now := chain.Head().Time
	trx := setDelayTx(t, tl, 2*sxp.MinimumDelay, now+sxp.MinimumDelay)

	_, err := tl.Attach(chain.Account(1)).Send("queueTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)

	early := setDelayTx(t, tl, 2*sxp.MinimumDelay, now+sxp.MinimumDelay-1)
	_, err = tl.Send("queueTransaction", args(early)...)
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	receipt, err := tl.Send("queueTransaction", args(trx)...)
	require.NoError(t, err)
	hash, err := trx.Hash()
	require.NoError(t, err)
	ev := testchain.Event(receipt, "QueueTransaction")
	require.NotNil(t, ev)
	assert.Equal(t, [32]byte(hash), ev.Fields["txHash"])

	out, err := tl.Call("queuedTransactions", hash)
	require.NoError(t, err)
	assert.Equal(t, true, out[0])

	_, err = tl.Send("queueTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.Invariant), "got %v", err)

	_, err = tl.Send("executeTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	require.NoError(t, chain.MintBlock())
	chain.AdvanceTime(sxp.MinimumDelay)
	receipt, err = tl.Send("executeTransaction", args(trx)...)
	require.NoError(t, err)
	assert.NotNil(t, testchain.Event(receipt, "ExecuteTransaction"))
	assert.NotNil(t, testchain.Event(receipt, "NewDelay"))

	out, err = tl.Call("delay")
	require.NoError(t, err)
	assert.Equal(t, 2*sxp.MinimumDelay, testchain.BigOf(out[0]).Uint64())

	_, err = tl.Send("executeTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestStaleTransaction(t *testing.T) {
	chain, tl := newTimelock(t, datagen.RandAddress())
	eta := chain.Head().Time + sxp.MinimumDelay
	trx := setDelayTx(t, tl, 3*sxp.MinimumDelay, eta)

	_, err := tl.Send("queueTransaction", args(trx)...)
	require.NoError(t, err)

	chain.AdvanceTime(sxp.MinimumDelay + sxp.GracePeriod + 1)
	_, err = tl.Send("executeTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestFailedCallStaysQueued(t *testing.T) {
	chain, tl := newTimelock(t, datagen.RandAddress())
	eta := chain.Head().Time + sxp.MinimumDelay
	// a delay below the minimum makes the target revert
	trx := setDelayTx(t, tl, 1, eta)

	_, err := tl.Send("queueTransaction", args(trx)...)
	require.NoError(t, err)
	chain.AdvanceTime(sxp.MinimumDelay)
	_, err = tl.Send("executeTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	hash, err := trx.Hash()
	require.NoError(t, err)
	require.NoError(t, chain.View(func(st *state.State) error {
		queued, err := timelock.New(tl.Address(), st).IsQueued(hash)
		require.NoError(t, err)
		assert.True(t, queued)
		return nil
	}))
}

func TestCancel(t *testing.T) {
	chain, tl := newTimelock(t, datagen.RandAddress())
	trx := setDelayTx(t, tl, 2*sxp.MinimumDelay, chain.Head().Time+sxp.MinimumDelay)

	_, err := tl.Send("queueTransaction", args(trx)...)
	require.NoError(t, err)

	_, err = tl.Attach(chain.Account(1)).Send("cancelTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)

	for range 2 {
		receipt, err := tl.Send("cancelTransaction", args(trx)...)
		require.NoError(t, err)
		assert.NotNil(t, testchain.Event(receipt, "CancelTransaction"))
	}

	chain.AdvanceTime(sxp.MinimumDelay)
	_, err = tl.Send("executeTransaction", args(trx)...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestAdminHandover(t *testing.T) {
	admin := datagen.RandAddress()
	chain, tl := newTimelock(t, admin)
	next := chain.Account(2)

	_, err := tl.Attach(next).Send("setPendingAdmin", next)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	_, err = tl.Send("setPendingAdmin", next)
	require.NoError(t, err)

	_, err = tl.Attach(chain.Account(3)).Send("acceptAdmin")
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	receipt, err := tl.Attach(next).Send("acceptAdmin")
	require.NoError(t, err)
	ev := testchain.Event(receipt, "NewAdmin")
	require.NotNil(t, ev)
	assert.Equal(t, next, testchain.AddressOf(ev.Fields["newAdmin"]))

	out, err := tl.Call("pendingAdmin")
	require.NoError(t, err)
	assert.True(t, testchain.AddressOf(out[0]).IsZero())

	_, err = tl.Send("setDelay", minimumDelay)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	_, err = tl.Attach(next).Send("setDelay", new(big.Int).SetUint64(sxp.MaximumDelay+1))
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)
}

func TestGovernanceIsAdmin(t *testing.T) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	defer chain.Close()

	out, err := chain.Timelock().Call("admin")
	require.NoError(t, err)
	assert.Equal(t, builtin.GovernanceProxy.Address, testchain.AddressOf(out[0]))
}
