// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines transactions submitted to the runtime and the receipts they produce.
package tx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/swipegov/sxpgov/sxp"
)

// Transaction is a single call from an external account.
type Transaction struct {
	body txBody
}

type txBody struct {
	Origin sxp.Address
	To     sxp.Address
	Value  *big.Int
	Data   []byte
	Nonce  uint64
}

// New create a transaction calling to with data from origin.
func New(origin, to sxp.Address, data []byte) *Transaction {
	return &Transaction{txBody{
		Origin: origin,
		To:     to,
		Value:  new(big.Int),
		Data:   append([]byte(nil), data...),
	}}
}

// WithValue returns a copy with the native value changed.
func (t *Transaction) WithValue(value *big.Int) *Transaction {
	cpy := *t
	cpy.body.Value = new(big.Int).Set(value)
	return &cpy
}

// WithNonce returns a copy with the nonce changed.
func (t *Transaction) WithNonce(nonce uint64) *Transaction {
	cpy := *t
	cpy.body.Nonce = nonce
	return &cpy
}

// Origin returns the calling account.
func (t *Transaction) Origin() sxp.Address { return t.body.Origin }

// To returns the called address.
func (t *Transaction) To() sxp.Address { return t.body.To }

// Value returns the native value transferred along the call.
func (t *Transaction) Value() *big.Int { return new(big.Int).Set(t.body.Value) }

// Data returns the call input.
func (t *Transaction) Data() []byte { return append([]byte(nil), t.body.Data...) }

// Nonce returns the nonce.
func (t *Transaction) Nonce() uint64 { return t.body.Nonce }

// ID returns the keccak hash of the rlp encoded transaction.
func (t *Transaction) ID() sxp.Bytes32 {
	data, _ := rlp.EncodeToBytes(&t.body)
	return sxp.Keccak256(data)
}
