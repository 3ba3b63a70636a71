// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes the events of committed blocks in sqlite so they can be
// filtered by contract, origin, name and block range.
package logdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/log"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

var logger = log.WithContext("pkg", "logdb")

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmts         *statements
}

// statements are prepared once at open and shared by every batch.
type statements struct {
	insertEvent  *sql.Stmt
	deleteEvents *sql.Stmt
	getConfig    *sql.Stmt
	putConfig    *sql.Stmt
}

func prepareStatements(db *sql.DB) (*statements, error) {
	s := new(statements)
	for _, p := range []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.insertEvent, eventInsert},
		{&s.deleteEvents, eventDelete},
		{&s.getConfig, configGet},
		{&s.putConfig, configPut},
	} {
		stmt, err := db.Prepare(p.query)
		if err != nil {
			s.close()
			return nil, errors.Wrapf(err, "prepare %q", p.query)
		}
		*p.dst = stmt
	}
	return s, nil
}

func (s *statements) close() {
	for _, stmt := range []*sql.Stmt{s.insertEvent, s.deleteEvents, s.getConfig, s.putConfig} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	return open(path, path+"?_journal_mode=WAL&_synchronous=NORMAL")
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return open(":memory:", ":memory:")
}

func open(path, dsn string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()

	// a single connection keeps in-memory databases alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(configTableSchema + eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create tables")
	}

	stmts, err := prepareStatements(db)
	if err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmts:         stmts,
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmts.close()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestBlockNumber returns the number of the last block written, and false
// when nothing was written yet.
func (db *LogDB) NewestBlockNumber() (uint64, bool, error) {
	var value []byte
	if err := db.stmts.getConfig.QueryRow(newestBlockKey).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(value) != 8 {
		return 0, false, errors.Errorf("corrupted newest block value %x", value)
	}
	return binary.BigEndian.Uint64(value), true, nil
}

// Write indexes the events of a committed block. Reverted receipts carry no
// events. Writing the same block twice replaces its events.
func (db *LogDB) Write(blk *runtime.Block) error {
	if blk.Number > math.MaxUint32 {
		return errors.Errorf("block number %v out of range", blk.Number)
	}
	batch := db.Prepare(uint32(blk.Number), blk.Time)
	for _, receipt := range blk.Receipts {
		if !receipt.Reverted {
			batch.Insert(receipt)
		}
	}
	return batch.Commit()
}

// Prepare starts a batch collecting the events of one block.
func (db *LogDB) Prepare(blockNum uint32, blockTime uint64) *BlockBatch {
	return &BlockBatch{
		db:        db,
		blockNum:  blockNum,
		blockTime: blockTime,
	}
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, eventSelect+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var (
		args  []any
		where []string
	)
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			where = append(where, "blockTime >= ?")
			args = append(args, filter.Range.From)
			if filter.Range.To >= filter.Range.From {
				where = append(where, "blockTime <= ?")
				args = append(args, filter.Range.To)
			}
		} else {
			if filter.Range.From > math.MaxUint32 {
				return nil, nil
			}
			where = append(where, "seq >= ?")
			first, _ := blockSeqs(uint32(filter.Range.From))
			args = append(args, first)
			if filter.Range.To >= filter.Range.From {
				_, last := blockSeqs(uint32(min(filter.Range.To, math.MaxUint32)))
				where = append(where, "seq <= ?")
				args = append(args, last)
			}
		}
	}

	if len(filter.CriteriaSet) > 0 {
		var anyOf []string
		for _, criteria := range filter.CriteriaSet {
			all := []string{"1"}
			if criteria.Address != nil {
				all = append(all, "address = ?")
				args = append(args, criteria.Address.Bytes())
			}
			if criteria.TxOrigin != nil {
				all = append(all, "txOrigin = ?")
				args = append(args, criteria.TxOrigin.Bytes())
			}
			if criteria.EventID != nil {
				all = append(all, "eventID = ?")
				args = append(args, criteria.EventID.Bytes())
			}
			if criteria.Name != "" {
				all = append(all, "name = ?")
				args = append(args, criteria.Name)
			}
			anyOf = append(anyOf, "("+strings.Join(all, " AND ")+")")
		}
		where = append(where, "("+strings.Join(anyOf, " OR ")+")")
	}

	var stmt bytes.Buffer
	stmt.WriteString(eventSelect)
	if len(where) > 0 {
		stmt.WriteString(" WHERE ")
		stmt.WriteString(strings.Join(where, " AND "))
	}
	if filter.Order == DESC {
		stmt.WriteString(" ORDER BY seq DESC")
	} else {
		stmt.WriteString(" ORDER BY seq ASC")
	}
	if filter.Options != nil {
		stmt.WriteString(" LIMIT ?, ?")
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt.String(), args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       int64
			blockTime uint64
			txID      []byte
			txOrigin  []byte
			address   []byte
			eventID   []byte
			name      string
			data      []byte
			fields    sql.NullString
		)
		if err := rows.Scan(
			&seq,
			&blockTime,
			&txID,
			&txOrigin,
			&address,
			&eventID,
			&name,
			&data,
			&fields,
		); err != nil {
			return nil, err
		}
		blockNum, index := splitSeq(seq)
		event := &Event{
			BlockNumber: blockNum,
			Index:       index,
			BlockTime:   blockTime,
			TxID:        sxp.BytesToBytes32(txID),
			TxOrigin:    sxp.BytesToAddress(txOrigin),
			Address:     sxp.BytesToAddress(address),
			EventID:     sxp.BytesToBytes32(eventID),
			Name:        name,
			Data:        data,
		}
		if fields.Valid {
			if event.Fields, err = decodeFields(fields.String); err != nil {
				return nil, errors.WithMessagef(err, "event %v/%v", event.BlockNumber, event.Index)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// decodeFields keeps uint256 values as json.Number so no precision is lost.
func decodeFields(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// BlockBatch collects the events of one block and writes them atomically.
type BlockBatch struct {
	db        *LogDB
	blockNum  uint32
	blockTime uint64
	events    []*Event
}

// Insert appends the events of receipt in emission order.
func (bb *BlockBatch) Insert(receipt *tx.Receipt) *BlockBatch {
	for _, ev := range receipt.Events {
		bb.events = append(bb.events, newEvent(bb.blockNum, bb.blockTime, uint32(len(bb.events)), receipt, ev))
	}
	return bb
}

func (bb *BlockBatch) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := bb.db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Commit writes the batch and records the block as the newest one.
func (bb *BlockBatch) Commit() error {
	if len(bb.events) > maxIndex+1 {
		return errors.Errorf("block %v has %v events, at most %v fit", bb.blockNum, len(bb.events), maxIndex+1)
	}
	stmts := bb.db.stmts

	err := bb.execInTx(func(tx *sql.Tx) error {
		// drop leftovers of an earlier write of the same block
		if _, err := tx.Stmt(stmts.deleteEvents).Exec(blockSeqs(bb.blockNum)); err != nil {
			return err
		}
		stmt := tx.Stmt(stmts.insertEvent)
		for _, event := range bb.events {
			var fields any
			if len(event.Fields) > 0 {
				data, err := json.Marshal(event.Fields)
				if err != nil {
					return errors.WithMessagef(err, "encode %v fields", event.Name)
				}
				fields = string(data)
			}
			if _, err := stmt.Exec(
				seqOf(event.BlockNumber, event.Index),
				event.BlockTime,
				event.TxID.Bytes(),
				event.TxOrigin.Bytes(),
				event.Address.Bytes(),
				event.EventID.Bytes(),
				event.Name,
				event.Data,
				fields,
			); err != nil {
				return err
			}
		}
		var newest [8]byte
		binary.BigEndian.PutUint64(newest[:], uint64(bb.blockNum))
		_, err := tx.Stmt(stmts.putConfig).Exec(newestBlockKey, newest[:])
		return err
	})
	if err != nil {
		return errors.WithMessagef(err, "write block %v", bb.blockNum)
	}
	if n := len(bb.events); n > 0 {
		metricEventsWritten().Add(int64(n))
		logger.Trace("events written", "block", bb.blockNum, "count", n)
	}
	return nil
}
