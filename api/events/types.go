// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/logdb"
	"github.com/swipegov/sxpgov/sxp"
)

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventCriteria struct {
	Address  *sxp.Address `json:"address"`
	TxOrigin *sxp.Address `json:"origin"`
	EventID  *sxp.Bytes32 `json:"eventID"`
	Name     string       `json:"name"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// FilteredEvent is an indexed event with the metadata of its transaction.
type FilteredEvent struct {
	Address sxp.Address    `json:"address"`
	ID      sxp.Bytes32    `json:"eventID"`
	Name    string         `json:"name"`
	Data    hexutil.Bytes  `json:"data"`
	Fields  map[string]any `json:"fields,omitempty"`
	Meta    Meta           `json:"meta"`
}

type Meta struct {
	BlockNumber uint32      `json:"blockNumber"`
	BlockTime   uint64      `json:"blockTimestamp"`
	Index       uint32      `json:"index"`
	TxID        sxp.Bytes32 `json:"txID"`
	TxOrigin    sxp.Address `json:"txOrigin"`
}

func convertEvent(ev *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Address: ev.Address,
		ID:      ev.EventID,
		Name:    ev.Name,
		Data:    ev.Data,
		Fields:  ev.Fields,
		Meta: Meta{
			BlockNumber: ev.BlockNumber,
			BlockTime:   ev.BlockTime,
			Index:       ev.Index,
			TxID:        ev.TxID,
			TxOrigin:    ev.TxOrigin,
		},
	}
}

func convertRange(r *Range) (*logdb.Range, error) {
	if r == nil {
		return nil, nil
	}
	unit := r.Unit
	switch unit {
	case "":
		unit = logdb.Block
	case logdb.Block, logdb.Time:
	default:
		return nil, errors.Errorf("unknown range unit %q", unit)
	}
	converted := &logdb.Range{Unit: unit, To: math.MaxUint64}
	if r.From != nil {
		converted.From = *r.From
	}
	if r.To != nil {
		if *r.To < converted.From {
			return nil, errors.New("range.to must be greater than or equal to range.from")
		}
		converted.To = *r.To
	}
	return converted, nil
}

func convertFilter(ef *EventFilter) (*logdb.EventFilter, error) {
	switch ef.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return nil, errors.Errorf("unknown order %q", ef.Order)
	}
	rng, err := convertRange(ef.Range)
	if err != nil {
		return nil, err
	}
	filter := &logdb.EventFilter{
		Range: rng,
		Order: ef.Order,
	}
	if ef.Options != nil {
		filter.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for i, c := range ef.CriteriaSet {
		if c == nil {
			return nil, errors.Errorf("criteriaSet[%d]: null not allowed", i)
		}
		filter.CriteriaSet = append(filter.CriteriaSet, &logdb.EventCriteria{
			Address:  c.Address,
			TxOrigin: c.TxOrigin,
			EventID:  c.EventID,
			Name:     c.Name,
		})
	}
	return filter, nil
}
