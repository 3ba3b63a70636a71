// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	blockTime INTEGER NOT NULL,
	txID BLOB NOT NULL,
	txOrigin BLOB NOT NULL,
	address BLOB NOT NULL,
	eventID BLOB NOT NULL,
	name TEXT NOT NULL,
	data BLOB,
	fields TEXT
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(address, seq);
CREATE INDEX IF NOT EXISTS event_i1 ON event(name, seq);
CREATE INDEX IF NOT EXISTS event_i2 ON event(txOrigin, seq);
CREATE INDEX IF NOT EXISTS event_i3 ON event(blockTime);
`

const configTableSchema = `
CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY NOT NULL,
	value BLOB
);
`

const (
	eventSelect = "SELECT seq, blockTime, txID, txOrigin, address, eventID, name, data, fields FROM event"
	eventInsert = "INSERT OR REPLACE INTO event(seq, blockTime, txID, txOrigin, address, eventID, name, data, fields) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	eventDelete = "DELETE FROM event WHERE seq >= ? AND seq <= ?"
	configGet   = "SELECT value FROM config WHERE key = ?"
	configPut   = "INSERT OR REPLACE INTO config(key, value) VALUES (?, ?)"

	newestBlockKey = "newestBlock"
)

// seq packs the block number above a 31 bit index within the block, so
// ordering by seq orders events by block and then by emission.
const (
	indexBits = 31
	maxIndex  = 1<<indexBits - 1
)

func seqOf(blockNum, index uint32) int64 {
	return int64(blockNum)<<indexBits | int64(index&maxIndex)
}

func splitSeq(seq int64) (blockNum, index uint32) {
	return uint32(seq >> indexBits), uint32(seq & maxIndex)
}

// blockSeqs returns the first and last seq a block can hold.
func blockSeqs(blockNum uint32) (int64, int64) {
	return seqOf(blockNum, 0), seqOf(blockNum, maxIndex)
}
