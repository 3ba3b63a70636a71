// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors that abort a contract call. Any of them
// rolls back every state change and event of the call.
package reverts

import (
	"fmt"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// Kind classifies a revert.
type Kind int

const (
	// Authorization caller lacks the role required.
	Authorization Kind = iota + 1
	// State operation invalid for the current lifecycle state.
	State
	// Invariant operation would break a ledger invariant.
	Invariant
	// Validation malformed or out of range input.
	Validation
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "authorization"
	case State:
		return "state"
	case Invariant:
		return "invariant"
	case Validation:
		return "validation"
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := Authorization; k <= Validation; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// ErrRevert is a revert raised by contract logic.
type ErrRevert struct {
	kind    Kind
	message string
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the class of the revert.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// selector of Error(string)
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// Bytes returns the revert reason encoded as Error(string).
func (e *ErrRevert) Bytes() []byte {
	str, _ := ethabi.NewType("string", "", nil)
	packed, _ := ethabi.Arguments{{Type: str}}.Pack(e.message)
	return append(append([]byte(nil), revertSelector...), packed...)
}

// New returns a revert of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &ErrRevert{kind, fmt.Sprintf(format, args...)}
}

// NewAuthorization returns an authorization revert.
func NewAuthorization(format string, args ...any) error {
	return New(Authorization, format, args...)
}

// NewState returns a lifecycle state revert.
func NewState(format string, args ...any) error {
	return New(State, format, args...)
}

// NewInvariant returns an invariant revert.
func NewInvariant(format string, args ...any) error {
	return New(Invariant, format, args...)
}

// NewValidation returns a validation revert.
func NewValidation(format string, args ...any) error {
	return New(Validation, format, args...)
}

// KindOf returns the kind of the revert wrapped in err.
func KindOf(err error) (Kind, bool) {
	var re *ErrRevert
	if errors.As(err, &re) {
		return re.kind, true
	}
	return 0, false
}

// IsRevertErr reports whether err is, or wraps, a revert.
func IsRevertErr(err error) bool {
	_, ok := KindOf(err)
	return ok
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
