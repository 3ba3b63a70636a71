// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

// Event represents tx.Event that can be stored in db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	TxID        sxp.Bytes32
	TxOrigin    sxp.Address // who sent the transaction
	Address     sxp.Address // always a contract address
	EventID     sxp.Bytes32
	Name        string
	Data        []byte
	Fields      map[string]any
}

// newEvent converts tx.Event to Event.
func newEvent(blockNum uint32, blockTime uint64, index uint32, receipt *tx.Receipt, ev *tx.Event) *Event {
	return &Event{
		BlockNumber: blockNum,
		Index:       index,
		BlockTime:   blockTime,
		TxID:        receipt.TxID,
		TxOrigin:    receipt.Origin,
		Address:     ev.Address,
		EventID:     ev.ID,
		Name:        ev.Name,
		Data:        ev.Data,
		Fields:      ev.Fields,
	}
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is inclusive on both ends. A To lower than From leaves the range open.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-empty field.
type EventCriteria struct {
	Address  *sxp.Address // always a contract address
	TxOrigin *sxp.Address
	EventID  *sxp.Bytes32
	Name     string
}

// EventFilter matches events satisfying any of the criteria.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
