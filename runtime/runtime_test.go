// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
	"github.com/swipegov/sxpgov/xenv"
)

var (
	setEvent   = abi.MustParseEvent("Set(uint256 value)")
	valueSlot  = sxp.Bytes32{}
	targetSlot = sxp.Bytes32{31: 1}

	setMethod      = abi.MustParseMethod("set(uint256 v)")
	getMethod      = abi.MustParseMethod("get() returns (uint256)")
	failMethod     = abi.MustParseMethod("fail()")
	setThenFail    = abi.MustParseMethod("setThenFail(address other, uint256 v)")
	brokenMethod   = abi.MustParseMethod("broken()")
	setTargetProxy = abi.MustParseMethod("setTarget(address target)")

	counterAddr = sxp.BytesToAddress([]byte("counter"))
	otherAddr   = sxp.BytesToAddress([]byte("other"))
	proxyAddr   = sxp.BytesToAddress([]byte("proxy"))
	alice       = sxp.BytesToAddress([]byte("alice"))

	errStorage = errors.New("disk on fire")
)

func counterContract() *xenv.Contract {
	c := xenv.NewContract("counter", "counter", 1)
	c.Register("set(uint256 v)", func(env *xenv.Environment) ([]any, error) {
		var args struct{ V *big.Int }
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		env.State().SetStorage(env.Address(), valueSlot, sxp.BytesToBytes32(args.V.Bytes()))
		return nil, env.Log(setEvent, args.V)
	})
	c.Register("get() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		v, err := env.State().GetStorage(env.Address(), valueSlot)
		if err != nil {
			return nil, err
		}
		return []any{new(big.Int).SetBytes(v.Bytes())}, nil
	})
	c.Register("fail()", func(env *xenv.Environment) ([]any, error) {
		env.State().SetStorage(env.Address(), valueSlot, sxp.BytesToBytes32([]byte{9}))
		return nil, reverts.NewState("always fails")
	})
	c.Register("setThenFail(address other, uint256 v)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Other xenv.ABIAddress
			V     *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if _, err := env.Call(xenv.Address(args.Other), nil, setMethod, args.V); err != nil {
			return nil, err
		}
		return nil, reverts.NewAuthorization("caller %v denied", env.Caller())
	})
	c.Register("broken()", func(env *xenv.Environment) ([]any, error) {
		return nil, errStorage
	})
	return c
}

func proxyContract() *xenv.Contract {
	c := xenv.NewContract("proxy", "proxy", 1)
	c.Register("setTarget(address target)", func(env *xenv.Environment) ([]any, error) {
		var args struct{ Target xenv.ABIAddress }
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		env.State().SetStorage(env.Address(), targetSlot, sxp.BytesToBytes32(args.Target.Bytes()))
		return nil, nil
	})
	return c.WithResolver(func(st *state.State, self sxp.Address) (sxp.Address, error) {
		v, err := st.GetStorage(self, targetSlot)
		if err != nil {
			return sxp.Address{}, err
		}
		return sxp.BytesToAddress(v.Bytes()), nil
	})
}

func newRuntime(t *testing.T) (*runtime.Runtime, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return openRuntime(t, db), db
}

func openRuntime(t *testing.T, db *lvldb.LevelDB) *runtime.Runtime {
	rt, err := runtime.New(state.New(db), []*xenv.Contract{counterContract(), proxyContract()},
		runtime.Options{Interval: 10, GenesisTime: 1000})
	require.NoError(t, err)
	return rt
}

func deploy(t *testing.T, rt *runtime.Runtime) {
	require.NoError(t, rt.Deploy(counterAddr, "counter"))
	require.NoError(t, rt.Deploy(otherAddr, "counter"))
	require.NoError(t, rt.Deploy(proxyAddr, "proxy"))
}

func input(t *testing.T, m *abi.Method, args ...any) []byte {
	data, err := m.EncodeInput(args...)
	require.NoError(t, err)
	return data
}

func get(t *testing.T, rt *runtime.Runtime, addr sxp.Address) *big.Int {
	out, err := rt.CallMethod(alice, addr, getMethod)
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func TestNew(t *testing.T) {
	_, err := runtime.New(nil, []*xenv.Contract{counterContract(), counterContract()}, runtime.Options{})
	assert.Error(t, err)

	rt, _ := newRuntime(t)
	assert.Equal(t, xenv.BlockContext{Number: 0, Time: 1000}, rt.Head())
	_, ok := rt.Best()
	assert.False(t, ok)

	assert.Error(t, rt.Deploy(counterAddr, "missing"))
}

func TestExecute(t *testing.T) {
	rt, _ := newRuntime(t)
	deploy(t, rt)

	receipt, err := rt.Execute(tx.New(alice, counterAddr, input(t, setMethod, big.NewInt(42))))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, alice, receipt.Origin)
	assert.Equal(t, 0, receipt.Index)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Set", receipt.Events[0].Name)
	assert.Equal(t, counterAddr, receipt.Events[0].Address)
	assert.Equal(t, big.NewInt(42), get(t, rt, counterAddr))

	tests := []struct {
		name string
		to   sxp.Address
		data []byte
		kind reverts.Kind
	}{
		{"revert discards writes", counterAddr, input(t, failMethod), reverts.State},
		{"nested call rolled back", counterAddr, input(t, setThenFail, otherAddr, big.NewInt(7)), reverts.Authorization},
		{"unknown method", counterAddr, []byte{1, 2, 3, 4}, reverts.Validation},
		{"short input", counterAddr, []byte{1}, reverts.Validation},
		{"no contract", alice, input(t, getMethod), reverts.Validation},
		{"proxy without implementation", proxyAddr, input(t, getMethod), reverts.State},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipt, err := rt.Execute(tx.New(alice, tt.to, tt.data))
			require.NoError(t, err)
			assert.True(t, receipt.Reverted)
			assert.Equal(t, tt.kind.String(), receipt.RevertKind)
			assert.Empty(t, receipt.Events)
			assert.Equal(t, i+1, receipt.Index)
		})
	}
	assert.Equal(t, big.NewInt(42), get(t, rt, counterAddr))
	assert.Equal(t, 0, get(t, rt, otherAddr).Sign())

	receipt, err = rt.Execute(tx.New(alice, counterAddr, input(t, brokenMethod)))
	assert.ErrorIs(t, err, errStorage)
	assert.True(t, receipt.Reverted)
	assert.Empty(t, receipt.RevertKind)
}

func TestCallLeavesNoTrace(t *testing.T) {
	rt, _ := newRuntime(t)
	deploy(t, rt)

	out, err := rt.Call(tx.New(alice, counterAddr, input(t, setMethod, big.NewInt(5))))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, get(t, rt, counterAddr).Sign())

	_, err = rt.Call(tx.New(alice, counterAddr, input(t, failMethod)))
	assert.True(t, reverts.IsRevertErr(err))

	blk, err := rt.Mine()
	require.NoError(t, err)
	assert.Empty(t, blk.Receipts)
}

func TestProxy(t *testing.T) {
	rt, _ := newRuntime(t)
	deploy(t, rt)

	_, err := rt.Execute(tx.New(alice, proxyAddr, input(t, setTargetProxy, counterAddr)))
	require.NoError(t, err)

	receipt, err := rt.Execute(tx.New(alice, proxyAddr, input(t, setMethod, big.NewInt(11))))
	require.NoError(t, err)
	require.False(t, receipt.Reverted)
	// the implementation runs on the proxy storage
	assert.Equal(t, proxyAddr, receipt.Events[0].Address)
	assert.Equal(t, big.NewInt(11), get(t, rt, proxyAddr))
	assert.Equal(t, 0, get(t, rt, counterAddr).Sign())
}

func TestValueTransfer(t *testing.T) {
	rt, _ := newRuntime(t)
	require.NoError(t, rt.Apply(func(st *state.State) error {
		st.SetBalance(alice, big.NewInt(100))
		return nil
	}))

	receipt, err := rt.Execute(tx.New(alice, otherAddr, nil).WithValue(big.NewInt(60)))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)

	receipt, err = rt.Execute(tx.New(alice, otherAddr, nil).WithValue(big.NewInt(60)))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, reverts.Invariant.String(), receipt.RevertKind)

	require.NoError(t, rt.View(func(st *state.State, _ xenv.BlockContext) error {
		balance, err := st.GetBalance(otherAddr)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(60), balance)
		return nil
	}))
}

func TestApplyRollsBack(t *testing.T) {
	rt, _ := newRuntime(t)
	err := rt.Apply(func(st *state.State) error {
		st.SetBalance(alice, big.NewInt(1))
		return errors.New("abort")
	})
	assert.Error(t, err)
	require.NoError(t, rt.View(func(st *state.State, _ xenv.BlockContext) error {
		balance, err := st.GetBalance(alice)
		require.NoError(t, err)
		assert.Equal(t, 0, balance.Sign())
		return nil
	}))
}

func TestMine(t *testing.T) {
	rt, db := newRuntime(t)
	deploy(t, rt)

	var mined []*runtime.Block
	rt.OnBlock(func(b *runtime.Block) error {
		mined = append(mined, b)
		return nil
	})

	_, err := rt.Execute(tx.New(alice, counterAddr, input(t, setMethod, big.NewInt(3))))
	require.NoError(t, err)
	blk, err := rt.Mine()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), blk.Number)
	assert.Equal(t, uint64(1000), blk.Time)
	assert.Len(t, blk.Receipts, 1)

	rt.AdvanceTime(25)
	require.NoError(t, rt.MineN(2))
	require.Len(t, mined, 3)
	assert.Equal(t, uint64(1035), mined[1].Time)
	assert.Equal(t, uint64(1045), mined[2].Time)
	assert.Empty(t, mined[2].Receipts)

	best, ok := rt.Best()
	require.True(t, ok)
	assert.Equal(t, xenv.BlockContext{Number: 2, Time: 1045}, best)
	assert.Equal(t, xenv.BlockContext{Number: 3, Time: 1055}, rt.Head())

	// the committed state and head survive a restart
	reopened := openRuntime(t, db)
	assert.Equal(t, rt.Head(), reopened.Head())
	best, ok = reopened.Best()
	require.True(t, ok)
	assert.Equal(t, uint64(2), best.Number)
	assert.Equal(t, big.NewInt(3), get(t, reopened, counterAddr))
}

func TestMineListenerError(t *testing.T) {
	rt, _ := newRuntime(t)
	rt.OnBlock(func(*runtime.Block) error { return errors.New("index down") })

	blk, err := rt.Mine()
	assert.Error(t, err)
	require.NotNil(t, blk)
	assert.Equal(t, uint64(1), rt.Head().Number)
}
