// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"
)

const defaultNTPServer = "pool.ntp.org"

// queryClockOffset returns the offset of the local clock against server.
var queryClockOffset = func(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

func (n *Node) clockLoop(ctx context.Context) {
	ticker := time.NewTicker(n.opts.ClockCheckInterval)
	defer ticker.Stop()

	n.checkClockOffset()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.checkClockOffset()
		}
	}
}

// checkClockOffset warns when the local clock drifts more than half a block
// interval, which skews block timestamps.
func (n *Node) checkClockOffset() bool {
	server := n.opts.NTPServer
	if server == "" {
		server = defaultNTPServer
	}
	offset, err := queryClockOffset(server)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return false
	}
	if offset < 0 {
		offset = -offset
	}
	if offset > n.opts.BlockInterval/2 {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(offset))
		return true
	}
	return false
}
