// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/swipegov/sxpgov/sxp"
)

// Event see abi.Event in go-ethereum.
type Event struct {
	id    sxp.Bytes32
	event *ethabi.Event
}

// ParseEvent parses a declaration like "Transfer(address from, address to, uint256 amount)".
func ParseEvent(decl string) (*Event, error) {
	name, in, _, err := splitDecl(decl)
	if err != nil {
		return nil, err
	}
	inputs, err := parseArguments(in)
	if err != nil {
		return nil, err
	}
	// every field lives in data, topics are not modelled
	for i := range inputs {
		inputs[i].Indexed = false
	}
	ev := ethabi.NewEvent(name, name, false, inputs)
	return &Event{sxp.Bytes32(ev.ID), &ev}, nil
}

// MustParseEvent is ParseEvent but panics on malformed declarations.
func MustParseEvent(decl string) *Event {
	ev, err := ParseEvent(decl)
	if err != nil {
		panic(err)
	}
	return ev
}

// ID returns event id.
func (e *Event) ID() sxp.Bytes32 {
	return e.id
}

// Name returns event name.
func (e *Event) Name() string {
	return e.event.Name
}

// Encode encodes args to data.
func (e *Event) Encode(args ...any) ([]byte, error) {
	return e.event.Inputs.Pack(args...)
}

// Decode decodes event data into a map keyed by argument name.
// Byte slices are rendered as hex so the map is json friendly.
func (e *Event) Decode(data []byte) (map[string]any, error) {
	fields := make(map[string]any)
	if err := e.event.Inputs.UnpackIntoMap(fields, data); err != nil {
		return nil, err
	}
	for k, v := range fields {
		switch val := v.(type) {
		case []byte:
			fields[k] = hexutil.Bytes(val)
		case [][]byte:
			list := make([]hexutil.Bytes, len(val))
			for i, b := range val {
				list[i] = b
			}
			fields[k] = list
		}
	}
	return fields, nil
}
