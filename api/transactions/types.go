// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

// Clause is a call from caller to a contract. The input is either raw data or
// a method declaration with its JSON arguments.
type Clause struct {
	Caller sxp.Address           `json:"caller"`
	To     sxp.Address           `json:"to"`
	Value  *math.HexOrDecimal256 `json:"value,omitempty"`
	Data   hexutil.Bytes         `json:"data,omitempty"`
	Method string                `json:"method,omitempty"`
	Args   []json.RawMessage     `json:"args,omitempty"`
}

// build returns the transaction and the parsed method, nil for raw data.
func (c *Clause) build() (*tx.Transaction, *abi.Method, error) {
	var (
		method *abi.Method
		input  []byte
	)
	switch {
	case c.Method != "" && len(c.Data) > 0:
		return nil, nil, errors.New("method and data are exclusive")
	case c.Method != "":
		m, err := abi.ParseMethod(c.Method)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "method")
		}
		args, err := m.DecodeJSONInput(c.Args)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "args")
		}
		if input, err = m.EncodeInput(args...); err != nil {
			return nil, nil, errors.WithMessage(err, "args")
		}
		method = m
	default:
		if len(c.Args) > 0 {
			return nil, nil, errors.New("args given without method")
		}
		input = c.Data
	}

	trx := tx.New(c.Caller, c.To, input)
	if c.Value != nil {
		value := (*big.Int)(c.Value)
		if value.Sign() < 0 {
			return nil, nil, errors.New("negative value")
		}
		trx = trx.WithValue(value)
	}
	return trx, method, nil
}

type Event struct {
	Address sxp.Address    `json:"address"`
	ID      sxp.Bytes32    `json:"id"`
	Name    string         `json:"name"`
	Data    hexutil.Bytes  `json:"data"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Receipt is tx.Receipt with event fields and outputs rendered for JSON.
type Receipt struct {
	TxID         sxp.Bytes32   `json:"txID"`
	Origin       sxp.Address   `json:"origin"`
	To           sxp.Address   `json:"to"`
	BlockNumber  uint64        `json:"blockNumber"`
	BlockTime    uint64        `json:"blockTime"`
	Index        int           `json:"index"`
	Reverted     bool          `json:"reverted"`
	RevertKind   string        `json:"revertKind,omitempty"`
	RevertReason string        `json:"revertReason,omitempty"`
	Output       hexutil.Bytes `json:"output"`
	Decoded      []any         `json:"decoded"`
	Events       []*Event      `json:"events"`
}

func convertReceipt(r *tx.Receipt, method *abi.Method) (*Receipt, error) {
	receipt := &Receipt{
		TxID:         r.TxID,
		Origin:       r.Origin,
		To:           r.To,
		BlockNumber:  r.BlockNumber,
		BlockTime:    r.BlockTime,
		Index:        r.Index,
		Reverted:     r.Reverted,
		RevertKind:   r.RevertKind,
		RevertReason: r.RevertReason,
		Output:       r.Output,
		Events:       make([]*Event, len(r.Events)),
	}
	for i, ev := range r.Events {
		fields := make(map[string]any, len(ev.Fields))
		for name, v := range ev.Fields {
			fields[name] = abi.JSONValue(v)
		}
		receipt.Events[i] = &Event{ev.Address, ev.ID, ev.Name, ev.Data, fields}
	}
	if method != nil && !r.Reverted {
		decoded, err := decodeOutput(method, r.Output)
		if err != nil {
			return nil, err
		}
		receipt.Decoded = decoded
	}
	return receipt, nil
}

func decodeOutput(method *abi.Method, output []byte) ([]any, error) {
	values, err := method.DecodeOutputValues(output)
	if err != nil {
		return nil, errors.WithMessage(err, "decode output")
	}
	decoded := make([]any, len(values))
	for i, v := range values {
		decoded[i] = abi.JSONValue(v)
	}
	return decoded, nil
}

// CallResult is the outcome of a read-only call.
type CallResult struct {
	Output     hexutil.Bytes `json:"output"`
	Decoded    []any         `json:"decoded"`
	Reverted   bool          `json:"reverted"`
	RevertKind string        `json:"revertKind,omitempty"`
	Error      string        `json:"error,omitempty"`
}
