// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package proxy implements the upgradable proxy. A proxy owns the storage and
// forwards every method it does not declare to its implementation, which runs
// against the proxy's storage.
package proxy

import (
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/roles"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Code is the code tag of proxies.
const Code = "proxy"

var (
	nameSlot           = solidity.Slot("proxy.name")
	implementationSlot = solidity.Slot("proxy.implementation")
	layoutSlot         = solidity.Slot("proxy.layout")
	schemaSlot         = solidity.Slot("proxy.schemaVersion")

	owner = roles.Owner("proxy")

	upgradeEvent = abi.MustParseEvent("Upgrade(address oldImplementation, address newImplementation)")
)

// Contract is the proxy contract.
var Contract = newContract()

func newContract() *xenv.Contract {
	c := xenv.NewContract(Code, "", 0).WithResolver(Implementation)
	owner.Register(c, "getOwner", "getAuthorizedNewOwner", "authorizeOwnershipTransfer", "assumeOwnership")

	return c.
		Register("name() returns (string)", func(env *xenv.Environment) ([]any, error) {
			name, err := solidity.NewValue[string](storageOf(env), nameSlot).Get()
			if err != nil {
				return nil, err
			}
			return []any{name}, nil
		}).
		Register("getImplementation() returns (address)", func(env *xenv.Environment) ([]any, error) {
			impl, err := Implementation(env.State(), env.Address())
			if err != nil {
				return nil, err
			}
			return []any{impl}, nil
		}).
		Register("getLayout() returns (string)", func(env *xenv.Environment) ([]any, error) {
			layout, err := solidity.NewValue[string](storageOf(env), layoutSlot).Get()
			if err != nil {
				return nil, err
			}
			return []any{layout}, nil
		}).
		Register("getSchemaVersion() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
			schema, err := solidity.NewUint64(storageOf(env), schemaSlot).Get()
			if err != nil {
				return nil, err
			}
			return []any{new(big.Int).SetUint64(schema)}, nil
		}).
		Register("setImplementation(address newImplementation)", func(env *xenv.Environment) ([]any, error) {
			var impl xenv.ABIAddress
			if err := env.ParseArgs(&impl); err != nil {
				return nil, err
			}
			return nil, upgrade(env, xenv.Address(impl))
		}).
		Register("setImplementationAndCall(address newImplementation, bytes data)", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				NewImplementation xenv.ABIAddress
				Data              []byte
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			impl := xenv.Address(args.NewImplementation)
			if err := upgrade(env, impl); err != nil {
				return nil, err
			}
			if len(args.Data) == 0 {
				return nil, nil
			}
			_, err := env.Delegate(impl, args.Data)
			return nil, err
		})
}

// upgrade installs impl after checking it serves the proxy's storage layout.
func upgrade(env *xenv.Environment, impl sxp.Address) error {
	if err := owner.Require(env); err != nil {
		return err
	}

	ctx := storageOf(env)
	current, err := solidity.NewAddress(ctx, implementationSlot).Get()
	if err != nil {
		return err
	}
	if current == impl {
		return reverts.NewValidation("%v is already the implementation", impl)
	}

	logic, err := env.ContractAt(impl)
	if err != nil {
		return err
	}
	if logic == nil || logic.Resolver() != nil || logic.Layout() == "" {
		return reverts.NewValidation("%v is not a logic contract", impl)
	}

	layout := solidity.NewValue[string](ctx, layoutSlot)
	installed, err := layout.Get()
	if err != nil {
		return err
	}
	switch installed {
	case "":
		if err := layout.Set(logic.Layout()); err != nil {
			return err
		}
	case logic.Layout():
	default:
		return reverts.NewValidation("storage layout %q does not match %q", logic.Layout(), installed)
	}

	// schema records the newest layout version the storage has been served by
	schema := solidity.NewUint64(ctx, schemaSlot)
	version, err := schema.Get()
	if err != nil {
		return err
	}
	if logic.Schema() > version {
		schema.Set(logic.Schema())
	}

	solidity.NewAddress(ctx, implementationSlot).Set(impl)
	return env.Log(upgradeEvent, current, impl)
}

// Implementation resolves the implementation of the proxy at self.
func Implementation(st *state.State, self sxp.Address) (sxp.Address, error) {
	return solidity.NewAddress(solidity.NewContext(self, st), implementationSlot).Get()
}

// Setup writes the constructor state of a proxy deployed at addr.
func Setup(st *state.State, addr sxp.Address, name string, ownerAddr sxp.Address) error {
	ctx := solidity.NewContext(addr, st)
	if err := solidity.NewValue[string](ctx, nameSlot).Set(name); err != nil {
		return err
	}
	owner.Set(ctx, ownerAddr)
	return nil
}

// Initialize marks the storage generation of layout as initialized. Logic
// contracts call it first thing in their initializer; it reverts when the
// storage was already initialized by any implementation of the same layout.
func Initialize(env *xenv.Environment, layout string) error {
	flag := solidity.NewBool(storageOf(env), solidity.Slot(layout+".initialized"))
	done, err := flag.Get()
	if err != nil {
		return err
	}
	if done {
		return reverts.NewInvariant("%s storage already initialized", layout)
	}
	flag.Set(true)
	return nil
}

func storageOf(env *xenv.Environment) *solidity.Context {
	return solidity.NewContext(env.Address(), env.State())
}
