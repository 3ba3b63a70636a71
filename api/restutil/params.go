// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/sxp"
)

// ParseAddress parses a path or query address, naming the parameter on failure.
func ParseAddress(name, s string) (sxp.Address, error) {
	addr, err := sxp.ParseAddress(s)
	if err != nil {
		return sxp.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// ParseBytes32 parses a path or query hash, naming the parameter on failure.
func ParseBytes32(name, s string) (sxp.Bytes32, error) {
	b32, err := sxp.ParseBytes32(s)
	if err != nil {
		return sxp.Bytes32{}, BadRequest(errors.WithMessage(err, name))
	}
	return b32, nil
}

// ParseUint parses a decimal uint64 parameter. An empty value yields def.
func ParseUint(name, s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return n, nil
}
