// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin lists the native contracts and where the genesis deploys them.
package builtin

import (
	"github.com/swipegov/sxpgov/builtin/cards"
	"github.com/swipegov/sxpgov/builtin/governance"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/staking"
	"github.com/swipegov/sxpgov/builtin/timelock"
	"github.com/swipegov/sxpgov/builtin/token"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/xenv"
)

// Deployments.
var (
	Token = newDeployment("SwipeToken", token.Contract)

	StakingProxy    = newDeployment("StakingProxy", proxy.Contract)
	GovernanceProxy = newDeployment("GovernanceProxy", proxy.Contract)
	TimelockProxy   = newDeployment("TimelockProxy", proxy.Contract)
	CardsProxy      = newDeployment("CardsProxy", proxy.Contract)

	StakingV1  = newDeployment("StakingV1", staking.V1)
	StakingV2  = newDeployment("StakingV2", staking.V2)
	StakingV3  = newDeployment("StakingV3", staking.V3)
	Governance = newDeployment("Governance", governance.Contract)
	Timelock   = newDeployment("Timelock", timelock.Contract)
	Cards      = newDeployment("Cards", cards.Contract)
)

// Contracts returns every contract the runtime must be able to run.
func Contracts() []*xenv.Contract {
	return []*xenv.Contract{
		proxy.Contract,
		token.Contract,
		staking.V1,
		staking.V2,
		staking.V3,
		governance.Contract,
		timelock.Contract,
		cards.Contract,
	}
}

// Deployments returns every well-known deployment, proxies first.
func Deployments() []*Deployment {
	return []*Deployment{
		StakingProxy, GovernanceProxy, TimelockProxy, CardsProxy,
		Token, StakingV1, StakingV2, StakingV3, Governance, Timelock, Cards,
	}
}

// Ledger binds the staking storage of the staking proxy.
func Ledger(st *state.State) *staking.Ledger {
	return staking.NewLedger(StakingProxy.Address, st)
}

// Engine binds the governance storage of the governance proxy.
func Engine(st *state.State) *governance.Engine {
	return governance.New(GovernanceProxy.Address, st)
}

// Queue binds the timelock storage of the timelock proxy.
func Queue(st *state.State) *timelock.Timelock {
	return timelock.New(TimelockProxy.Address, st)
}

// Registry binds the card storage of the cards proxy.
func Registry(st *state.State) *cards.Registry {
	return cards.New(CardsProxy.Address, st)
}

// Balances binds the token storage.
func Balances(st *state.State) *token.Token {
	return token.New(Token.Address, st)
}
