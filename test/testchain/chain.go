// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testchain runs the governance contracts on an in-memory chain for tests.
package testchain

import (
	"fmt"

	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/genesis"
	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Chain represents the blockchain structure.
// It includes database (db), genesis information (genesis), the runtime
// producing blocks (rt) and the genesis block (genesisBlock).
type Chain struct {
	db           *lvldb.LevelDB
	genesis      *genesis.Genesis
	rt           *runtime.Runtime
	state        *state.State
	genesisBlock *runtime.Block
	accounts     []genesis.DevAccount
}

// NewDefault creates a Chain for testing with the devnet genesis.
func NewDefault() (*Chain, error) {
	return NewWithGenesis(genesis.NewDevnet())
}

// NewWithGenesis creates a Chain for testing over an in-memory database.
func NewWithGenesis(gene *genesis.Genesis) (*Chain, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(db)

	rt, err := runtime.New(st, builtin.Contracts(), gene.RuntimeOptions())
	if err != nil {
		return nil, err
	}
	geneBlk, err := gene.Build(rt)
	if err != nil {
		return nil, fmt.Errorf("unable to build genesis: %w", err)
	}

	return &Chain{
		db:           db,
		genesis:      gene,
		rt:           rt,
		state:        st,
		genesisBlock: geneBlk,
		accounts:     genesis.DevAccounts(),
	}, nil
}

// Runtime returns the runtime producing blocks.
func (c *Chain) Runtime() *runtime.Runtime {
	return c.rt
}

// Genesis returns the genesis the chain was built from.
func (c *Chain) Genesis() *genesis.Genesis {
	return c.genesis
}

// GenesisBlock returns the genesis block.
func (c *Chain) GenesisBlock() *runtime.Block {
	return c.genesisBlock
}

// Account returns the i-th dev account.
func (c *Chain) Account(i int) sxp.Address {
	return c.accounts[i].Address
}

// Deployer is the account that deployed every contract and holds every role.
func (c *Chain) Deployer() sxp.Address {
	return c.accounts[0].Address
}

// Head returns the block being built.
func (c *Chain) Head() xenv.BlockContext {
	return c.rt.Head()
}

// View runs fn against the current state.
func (c *Chain) View(fn func(st *state.State) error) error {
	return c.rt.View(func(st *state.State, _ xenv.BlockContext) error {
		return fn(st)
	})
}

// MintBlock commits the block being built.
func (c *Chain) MintBlock() error {
	_, err := c.rt.Mine()
	return err
}

// MintBlocks commits n blocks.
func (c *Chain) MintBlocks(n int) error {
	return c.rt.MineN(n)
}

// AdvanceTime moves the clock of the block being built forward.
func (c *Chain) AdvanceTime(seconds uint64) {
	c.rt.AdvanceTime(seconds)
}

// Close releases the database.
func (c *Chain) Close() error {
	return c.db.Close()
}
