// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package abi declares contract methods and events from human readable signatures and
// encodes their arguments with the go-ethereum ABI codec.
package abi

import (
	"bytes"
	"errors"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/swipegov/sxpgov/sxp"
)

// MethodID method id.
type MethodID [4]byte

// Selector returns the method id of a canonical signature such as "transfer(address,uint256)".
func Selector(sig string) (id MethodID) {
	h := sxp.Keccak256([]byte(sig))
	copy(id[:], h[:4])
	return
}

// Method see abi.Method in go-ethereum.
type Method struct {
	id     MethodID
	method *ethabi.Method
}

// ParseMethod parses a declaration like "transfer(address to, uint256 amount) returns (bool)".
func ParseMethod(decl string) (*Method, error) {
	name, in, out, err := splitDecl(decl)
	if err != nil {
		return nil, err
	}
	inputs, err := parseArguments(in)
	if err != nil {
		return nil, err
	}
	outputs, err := parseArguments(out)
	if err != nil {
		return nil, err
	}
	m := ethabi.NewMethod(name, name, ethabi.Function, "", false, false, inputs, outputs)

	var id MethodID
	copy(id[:], m.ID)
	return &Method{id, &m}, nil
}

// MustParseMethod is ParseMethod but panics on malformed declarations.
func MustParseMethod(decl string) *Method {
	m, err := ParseMethod(decl)
	if err != nil {
		panic(err)
	}
	return m
}

// ID returns method id.
func (m *Method) ID() MethodID {
	return m.id
}

// Name returns method name.
func (m *Method) Name() string {
	return m.method.Name
}

// Sig returns the canonical signature, e.g. "transfer(address,uint256)".
func (m *Method) Sig() string {
	return m.method.Sig
}

// EncodeInput encode args to data, and the data is prefixed with method id.
func (m *Method) EncodeInput(args ...any) ([]byte, error) {
	data, err := m.method.Inputs.Pack(args...)
	if err != nil {
		return nil, err
	}
	return append(m.id[:], data...), nil
}

// DecodeInput decode input data into v, a pointer to a struct whose fields
// match the argument names or, for a single argument, a pointer to its value.
func (m *Method) DecodeInput(input []byte, v any) error {
	if !bytes.HasPrefix(input, m.id[:]) {
		return errors.New("input has incorrect prefix")
	}
	if len(m.method.Inputs) == 0 {
		return nil
	}
	values, err := m.method.Inputs.Unpack(input[4:])
	if err != nil {
		return err
	}
	return m.method.Inputs.Copy(v, values)
}

// DecodeInputValues decode input data into a value list.
func (m *Method) DecodeInputValues(input []byte) ([]any, error) {
	if !bytes.HasPrefix(input, m.id[:]) {
		return nil, errors.New("input has incorrect prefix")
	}
	return m.method.Inputs.Unpack(input[4:])
}

// EncodeOutput encode output args to data.
func (m *Method) EncodeOutput(args ...any) ([]byte, error) {
	return m.method.Outputs.Pack(args...)
}

// DecodeOutput decode output data into v.
func (m *Method) DecodeOutput(output []byte, v any) error {
	if len(output)%32 != 0 {
		return errors.New("output has incorrect length")
	}
	values, err := m.method.Outputs.Unpack(output)
	if err != nil {
		return err
	}
	return m.method.Outputs.Copy(v, values)
}

// DecodeOutputValues decode output data into a value list.
func (m *Method) DecodeOutputValues(output []byte) ([]any, error) {
	return m.method.Outputs.Unpack(output)
}

// ExtractMethodID extract method id from input data.
func ExtractMethodID(input []byte) (id MethodID, err error) {
	if len(input) < len(id) {
		err = errors.New("input data too short")
		return
	}
	copy(id[:], input)
	return
}
