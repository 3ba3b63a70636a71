// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package roles implements privileged roles handed over in two steps: the
// holder authorizes a candidate and only that candidate can assume the role.
package roles

import (
	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

var (
	ownershipTransferAuthorization    = abi.MustParseEvent("OwnershipTransferAuthorization(address authorizedAddress)")
	ownerUpdate                       = abi.MustParseEvent("OwnerUpdate(address oldValue, address newValue)")
	guardianshipTransferAuthorization = abi.MustParseEvent("GuardianshipTransferAuthorization(address authorizedAddress)")
	guardianUpdate                    = abi.MustParseEvent("GuardianUpdate(address oldValue, address newValue)")
)

// Role is an address held role stored under a name prefix.
type Role struct {
	name       string
	holder     sxp.Bytes32
	candidate  sxp.Bytes32
	authorized *abi.Event
	updated    *abi.Event
}

// Owner returns the owner role of the storage family prefix.
func Owner(prefix string) *Role {
	return &Role{
		name:       "owner",
		holder:     solidity.Slot(prefix + ".owner"),
		candidate:  solidity.Slot(prefix + ".authorizedNewOwner"),
		authorized: ownershipTransferAuthorization,
		updated:    ownerUpdate,
	}
}

// Guardian returns the guardian role of the storage family prefix.
func Guardian(prefix string) *Role {
	return &Role{
		name:       "guardian",
		holder:     solidity.Slot(prefix + ".guardian"),
		candidate:  solidity.Slot(prefix + ".authorizedNewGuardian"),
		authorized: guardianshipTransferAuthorization,
		updated:    guardianUpdate,
	}
}

func (r *Role) Holder(ctx *solidity.Context) (sxp.Address, error) {
	return solidity.NewAddress(ctx, r.holder).Get()
}

func (r *Role) Candidate(ctx *solidity.Context) (sxp.Address, error) {
	return solidity.NewAddress(ctx, r.candidate).Get()
}

// Set assigns the role directly, as initializers do.
func (r *Role) Set(ctx *solidity.Context, addr sxp.Address) {
	solidity.NewAddress(ctx, r.holder).Set(addr)
}

// Has reports whether addr holds the role.
func (r *Role) Has(ctx *solidity.Context, addr sxp.Address) (bool, error) {
	holder, err := r.Holder(ctx)
	if err != nil {
		return false, err
	}
	return !holder.IsZero() && holder == addr, nil
}

// Require fails with an authorization revert unless the caller holds the role.
func (r *Role) Require(env *xenv.Environment) error {
	ok, err := r.Has(storageOf(env), env.Caller())
	if err != nil {
		return err
	}
	if !ok {
		return reverts.NewAuthorization("caller is not the %s", r.name)
	}
	return nil
}

// Authorize records candidate as the only address allowed to assume the role.
func (r *Role) Authorize(env *xenv.Environment, candidate sxp.Address) error {
	if err := r.Require(env); err != nil {
		return err
	}
	if candidate.IsZero() {
		return reverts.NewValidation("%s candidate is the zero address", r.name)
	}
	solidity.NewAddress(storageOf(env), r.candidate).Set(candidate)
	return env.Log(r.authorized, candidate)
}

// Assume completes a handover started by Authorize.
func (r *Role) Assume(env *xenv.Environment) error {
	ctx := storageOf(env)
	candidate, err := r.Candidate(ctx)
	if err != nil {
		return err
	}
	if candidate.IsZero() || candidate != env.Caller() {
		return reverts.NewAuthorization("caller is not the authorized new %s", r.name)
	}
	old, err := r.Holder(ctx)
	if err != nil {
		return err
	}
	r.Set(ctx, candidate)
	solidity.NewAddress(ctx, r.candidate).Set(sxp.Address{})
	return env.Log(r.updated, old, candidate)
}

// Register exposes the role through getter, candidateGetter, authorize and assume methods of c.
func (r *Role) Register(c *xenv.Contract, getter, candidateGetter, authorize, assume string) *xenv.Contract {
	return c.
		Register(getter+"() returns (address)", func(env *xenv.Environment) ([]any, error) {
			holder, err := r.Holder(storageOf(env))
			if err != nil {
				return nil, err
			}
			return []any{holder}, nil
		}).
		Register(candidateGetter+"() returns (address)", func(env *xenv.Environment) ([]any, error) {
			candidate, err := r.Candidate(storageOf(env))
			if err != nil {
				return nil, err
			}
			return []any{candidate}, nil
		}).
		Register(authorize+"(address authorizedAddress)", func(env *xenv.Environment) ([]any, error) {
			var candidate xenv.ABIAddress
			if err := env.ParseArgs(&candidate); err != nil {
				return nil, err
			}
			return nil, r.Authorize(env, xenv.Address(candidate))
		}).
		Register(assume+"()", func(env *xenv.Environment) ([]any, error) {
			return nil, r.Assume(env)
		})
}

func storageOf(env *xenv.Environment) *solidity.Context {
	return solidity.NewContext(env.Address(), env.State())
}
