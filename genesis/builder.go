// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

// Builder helper to build genesis block.
type Builder struct {
	deploys    []deploy
	stateProcs []func(state *state.State) error
	calls      []call
}

type deploy struct {
	addr sxp.Address
	code string
}

type call struct {
	trx  *tx.Transaction
	name string
}

// Deploy binds the contract code to addr.
func (b *Builder) Deploy(addr sxp.Address, code string) *Builder {
	b.deploys = append(b.deploys, deploy{addr, code})
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Call add a contract call made by caller.
func (b *Builder) Call(caller, to sxp.Address, method *abi.Method, args ...any) *Builder {
	input, err := method.EncodeInput(args...)
	if err != nil {
		panic(errors.Wrapf(err, "encode genesis call %v", method.Name()))
	}
	b.calls = append(b.calls, call{tx.New(caller, to, input), method.Name()})
	return b
}

// Build runs deploys, state processes and calls in order against rt and
// commits them as block 0.
func (b *Builder) Build(rt *runtime.Runtime) (*runtime.Block, error) {
	if head := rt.Head(); head.Number != 0 {
		return nil, errors.Errorf("genesis built on block %v", head.Number)
	}
	for _, d := range b.deploys {
		if err := rt.Deploy(d.addr, d.code); err != nil {
			return nil, errors.Wrap(err, "deploy")
		}
	}
	for _, proc := range b.stateProcs {
		if err := rt.Apply(proc); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}
	for _, c := range b.calls {
		receipt, err := rt.Execute(c.trx)
		if err != nil {
			return nil, errors.Wrapf(err, "call %v", c.name)
		}
		if receipt.Reverted {
			return nil, errors.Errorf("call %v to %v reverted: %v", c.name, c.trx.To(), receipt.RevertReason)
		}
	}
	return rt.Mine()
}
