// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cards implements the guardian governed registry of card
// configurations. Cards are kept dense with ids 1..cardCount: unregistering a
// card moves the last card into the freed id.
package cards

import (
	"math/big"
	"regexp"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/roles"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

const (
	// Code is the code tag of the card registry logic.
	Code = "cards"
	// Layout is the storage layout family of the card registry.
	Layout = "cards"
)

var (
	cardCountSlot = solidity.Slot("cards.cardCount")
	cardsSlot     = solidity.Slot("cards.cards")

	guardian = roles.Guardian(Layout)

	registrationEvent   = abi.MustParseEvent("CardRegistration(uint256 cardId, string cardName)")
	unregistrationEvent = abi.MustParseEvent("CardUnregistration(uint256 cardId, string cardName)")
	nameEvent           = abi.MustParseEvent("CardNameUpdate(uint256 cardId, string oldValue, string newValue)")
	lockUpEvent         = abi.MustParseEvent("CardLockUpUpdate(uint256 cardId, uint256 oldValue, uint256 newValue)")
	lockUpTimeEvent     = abi.MustParseEvent("CardLockUpTimeUpdate(uint256 cardId, uint256 oldValue, uint256 newValue)")
	feeEvent            = abi.MustParseEvent("CardFeeUpdate(uint256 cardId, string oldValue, string newValue)")
	feeSplitEvent       = abi.MustParseEvent("CardFeeSplitPercentageUpdate(uint256 cardId, string oldValue, string newValue)")

	decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	hundred        = big.NewRat(100, 1)
)

// Card is a card configuration. Fee and FeeSplitPercentage are decimal strings.
type Card struct {
	ID                 uint64
	Name               string
	LockUp             *big.Int
	LockUpTime         *big.Int
	Fee                string
	FeeSplitPercentage string
}

// Contract is the card registry logic.
var Contract = newContract()

// Registry is the card registry storage at an address.
type Registry struct {
	ctx *solidity.Context
}

func New(addr sxp.Address, st *state.State) *Registry {
	return &Registry{solidity.NewContext(addr, st)}
}

func registry(env *xenv.Environment) *Registry {
	return New(env.Address(), env.State())
}

func (r *Registry) count() *solidity.Uint64 {
	return solidity.NewUint64(r.ctx, cardCountSlot)
}

func (r *Registry) cards() *solidity.Mapping[solidity.Uint64Key, Card] {
	return solidity.NewMapping[solidity.Uint64Key, Card](r.ctx, cardsSlot)
}

// Count returns the number of registered cards.
func (r *Registry) Count() (uint64, error) {
	return r.count().Get()
}

// Card returns the card with id, which must be within [1, Count].
func (r *Registry) Card(id uint64) (*Card, error) {
	n, err := r.count().Get()
	if err != nil {
		return nil, err
	}
	if id == 0 || id > n {
		return nil, reverts.NewValidation("card %d not found", id)
	}
	card, err := r.cards().Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if card.LockUp == nil {
		card.LockUp = new(big.Int)
	}
	if card.LockUpTime == nil {
		card.LockUpTime = new(big.Int)
	}
	return &card, nil
}

// All returns every card ordered by id.
func (r *Registry) All() ([]*Card, error) {
	n, err := r.count().Get()
	if err != nil {
		return nil, err
	}
	list := make([]*Card, 0, n)
	for id := uint64(1); id <= n; id++ {
		card, err := r.Card(id)
		if err != nil {
			return nil, err
		}
		list = append(list, card)
	}
	return list, nil
}

func (r *Registry) save(card *Card) error {
	return r.cards().Set(solidity.Uint64Key(card.ID), *card)
}

func validateName(name string) error {
	if name == "" {
		return reverts.NewValidation("card name is empty")
	}
	return nil
}

func validateDecimal(field, value string) error {
	if value == "" {
		return reverts.NewValidation("card %s is empty", field)
	}
	if !decimalPattern.MatchString(value) {
		return reverts.NewValidation("card %s %q is not a non-negative decimal", field, value)
	}
	return nil
}

func validateFeeSplit(value string) error {
	if err := validateDecimal("fee split percentage", value); err != nil {
		return err
	}
	pct, ok := new(big.Rat).SetString(value)
	if !ok || pct.Cmp(hundred) > 0 {
		return reverts.NewValidation("card fee split percentage %q exceeds 100", value)
	}
	return nil
}

func validate(card *Card) error {
	if err := validateName(card.Name); err != nil {
		return err
	}
	if err := validateDecimal("fee", card.Fee); err != nil {
		return err
	}
	return validateFeeSplit(card.FeeSplitPercentage)
}

func newContract() *xenv.Contract {
	c := xenv.NewContract(Code, Layout, 1)
	guardian.Register(c, "guardian", "authorizedNewGuardian", "authorizeGuardianshipTransfer", "assumeGuardianship")

	c.Register("initialize(address guardian)", func(env *xenv.Environment) ([]any, error) {
		var addr xenv.ABIAddress
		if err := env.ParseArgs(&addr); err != nil {
			return nil, err
		}
		if err := proxy.Initialize(env, Layout); err != nil {
			return nil, err
		}
		guardian.Set(registry(env).ctx, xenv.Address(addr))
		return nil, nil
	})

	c.Register("cardCount() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		n, err := registry(env).Count()
		return []any{new(big.Int).SetUint64(n)}, err
	})
	c.Register("cards(uint256 cardId) returns (uint256 cardId, string cardName, uint256 lockUp, uint256 lockUpTime, "+
		"string fee, string feeSplitPercentage)", func(env *xenv.Environment) ([]any, error) {
		var id *big.Int
		if err := env.ParseArgs(&id); err != nil {
			return nil, err
		}
		if !id.IsUint64() {
			return nil, reverts.NewValidation("card %v not found", id)
		}
		card, err := registry(env).Card(id.Uint64())
		if err != nil {
			return nil, err
		}
		return []any{new(big.Int).SetUint64(card.ID), card.Name, card.LockUp, card.LockUpTime, card.Fee, card.FeeSplitPercentage}, nil
	})

	c.Register("registerCard(string cardName, uint256 lockUp, uint256 lockUpTime, string fee, string feeSplitPercentage) returns (uint256)",
		func(env *xenv.Environment) ([]any, error) {
			var args struct {
				CardName           string
				LockUp             *big.Int
				LockUpTime         *big.Int
				Fee                string
				FeeSplitPercentage string
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			if err := guardian.Require(env); err != nil {
				return nil, err
			}
			card := &Card{
				Name:               args.CardName,
				LockUp:             args.LockUp,
				LockUpTime:         args.LockUpTime,
				Fee:                args.Fee,
				FeeSplitPercentage: args.FeeSplitPercentage,
			}
			if err := validate(card); err != nil {
				return nil, err
			}
			r := registry(env)
			id, err := r.count().Increment()
			if err != nil {
				return nil, err
			}
			card.ID = id
			if err := r.save(card); err != nil {
				return nil, err
			}
			n := new(big.Int).SetUint64(id)
			if err := env.Log(registrationEvent, n, card.Name); err != nil {
				return nil, err
			}
			return []any{n}, nil
		})

	c.Register("unregisterCard(uint256 cardId)", func(env *xenv.Environment) ([]any, error) {
		var id *big.Int
		if err := env.ParseArgs(&id); err != nil {
			return nil, err
		}
		if err := guardian.Require(env); err != nil {
			return nil, err
		}
		if !id.IsUint64() {
			return nil, reverts.NewValidation("card %v not found", id)
		}
		r := registry(env)
		removed, err := r.Card(id.Uint64())
		if err != nil {
			return nil, err
		}
		last, err := r.count().Get()
		if err != nil {
			return nil, err
		}
		if removed.ID != last {
			moved, err := r.Card(last)
			if err != nil {
				return nil, err
			}
			moved.ID = removed.ID
			if err := r.save(moved); err != nil {
				return nil, err
			}
		}
		r.cards().Delete(solidity.Uint64Key(last))
		r.count().Set(last - 1)
		return nil, env.Log(unregistrationEvent, id, removed.Name)
	})

	registerStringSetter(c, "setCardName(uint256 cardId, string cardName)", nameEvent, validateName,
		func(card *Card) *string { return &card.Name })
	registerStringSetter(c, "setCardFee(uint256 cardId, string fee)", feeEvent,
		func(v string) error { return validateDecimal("fee", v) },
		func(card *Card) *string { return &card.Fee })
	registerStringSetter(c, "setCardFeeSplitPercentage(uint256 cardId, string feeSplitPercentage)", feeSplitEvent, validateFeeSplit,
		func(card *Card) *string { return &card.FeeSplitPercentage })
	registerAmountSetter(c, "setCardLockUp(uint256 cardId, uint256 lockUp)", lockUpEvent,
		func(card *Card) **big.Int { return &card.LockUp })
	registerAmountSetter(c, "setCardLockUpTime(uint256 cardId, uint256 lockUpTime)", lockUpTimeEvent,
		func(card *Card) **big.Int { return &card.LockUpTime })
	return c
}

// update loads card id, applies fn and stores it back.
func update(env *xenv.Environment, id *big.Int, fn func(card *Card) error) error {
	if err := guardian.Require(env); err != nil {
		return err
	}
	if !id.IsUint64() {
		return reverts.NewValidation("card %v not found", id)
	}
	r := registry(env)
	card, err := r.Card(id.Uint64())
	if err != nil {
		return err
	}
	if err := fn(card); err != nil {
		return err
	}
	return r.save(card)
}

func registerStringSetter(c *xenv.Contract, decl string, ev *abi.Event, check func(string) error, field func(*Card) *string) {
	c.Register(decl, func(env *xenv.Environment) ([]any, error) {
		args, err := decodeArgs(env)
		if err != nil {
			return nil, err
		}
		id, value := args[0].(*big.Int), args[1].(string)
		var old string
		err = update(env, id, func(card *Card) error {
			if err := check(value); err != nil {
				return err
			}
			old = *field(card)
			*field(card) = value
			return nil
		})
		if err != nil {
			return nil, err
		}
		return nil, env.Log(ev, id, old, value)
	})
}

func registerAmountSetter(c *xenv.Contract, decl string, ev *abi.Event, field func(*Card) **big.Int) {
	c.Register(decl, func(env *xenv.Environment) ([]any, error) {
		args, err := decodeArgs(env)
		if err != nil {
			return nil, err
		}
		id, value := args[0].(*big.Int), args[1].(*big.Int)
		var old *big.Int
		err = update(env, id, func(card *Card) error {
			old = *field(card)
			*field(card) = value
			return nil
		})
		if err != nil {
			return nil, err
		}
		return nil, env.Log(ev, id, old, value)
	})
}

// decodeArgs decodes the (cardId, value) arguments every setter takes.
func decodeArgs(env *xenv.Environment) ([]any, error) {
	values, err := env.Method().DecodeInputValues(env.Input())
	if err != nil {
		return nil, reverts.NewValidation("decode input: %v", err)
	}
	return values, nil
}
