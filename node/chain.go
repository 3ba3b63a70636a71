// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/genesis"
	"github.com/swipegov/sxpgov/kv"
	"github.com/swipegov/sxpgov/logdb"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
)

var genesisNameKey = []byte("node.genesis")

// OpenRuntime binds a runtime to the state persisted in db. The genesis is
// deployed on first run; later runs must use a genesis of the same name.
// When logDB is given, every committed block is indexed into it.
func OpenRuntime(db kv.Store, gene *genesis.Genesis, logDB *logdb.LogDB) (*runtime.Runtime, error) {
	stored, err := db.Get(genesisNameKey)
	if err != nil && !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "read genesis name")
	}
	if stored != nil && string(stored) != gene.Name() {
		return nil, errors.Errorf("database holds genesis %q, not %q", stored, gene.Name())
	}

	rt, err := runtime.New(state.New(db), builtin.Contracts(), gene.RuntimeOptions())
	if err != nil {
		return nil, err
	}
	if logDB != nil {
		rt.OnBlock(logDB.Write)
	}
	if stored != nil {
		best, _ := rt.Best()
		logger.Info("chain loaded", "genesis", gene.Name(), "best", best.Number)
		return rt, nil
	}

	blk, err := gene.Build(rt)
	if err != nil {
		return nil, err
	}
	if err := db.Put(genesisNameKey, []byte(gene.Name())); err != nil {
		return nil, errors.Wrap(err, "write genesis name")
	}
	logger.Info("genesis deployed", "genesis", gene.Name(), "time", blk.Time, "txs", len(blk.Receipts))
	return rt, nil
}
