// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/swipegov/sxpgov/sxp"
)

func RandomHash() sxp.Bytes32 {
	var b32 sxp.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() sxp.Address {
	var addr sxp.Address

	rand.Read(addr[:])
	return addr
}
