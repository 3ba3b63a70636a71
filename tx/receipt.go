// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/swipegov/sxpgov/sxp"
)

// Event is emitted by a contract during a call.
type Event struct {
	Address sxp.Address    `json:"address"`
	ID      sxp.Bytes32    `json:"id"`
	Name    string         `json:"name"`
	Data    hexutil.Bytes  `json:"data"`
	Fields  map[string]any `json:"fields"`
}

// Receipt represents the result of a transaction.
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
	Events       []*Event      `json:"events"`
}

// EventsByName returns events with the given name, in emission order.
func (r *Receipt) EventsByName(name string) []*Event {
	var found []*Event
	for _, ev := range r.Events {
		if ev.Name == name {
			found = append(found, ev)
		}
	}
	return found
}
