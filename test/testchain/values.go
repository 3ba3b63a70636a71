// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

// AddressOf converts a decoded address output or event field.
func AddressOf(v any) sxp.Address {
	switch addr := v.(type) {
	case common.Address:
		return sxp.Address(addr)
	case sxp.Address:
		return addr
	}
	panic(fmt.Sprintf("not an address: %T", v))
}

// BigOf converts a decoded uint256 output or event field.
func BigOf(v any) *big.Int {
	n, ok := v.(*big.Int)
	if !ok {
		panic(fmt.Sprintf("not a uint256: %T", v))
	}
	return n
}

// Event returns the only event named name in receipt, nil when there is none or several.
func Event(receipt *tx.Receipt, name string) *tx.Event {
	if receipt == nil {
		return nil
	}
	events := receipt.EventsByName(name)
	if len(events) != 1 {
		return nil
	}
	return events[0]
}
