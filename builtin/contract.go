// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Deployment is a well-known address and the contract deployed there.
type Deployment struct {
	Name     string
	Address  sxp.Address
	Contract *xenv.Contract
}

func newDeployment(name string, c *xenv.Contract) *Deployment {
	return &Deployment{
		Name:     name,
		Address:  sxp.BytesToAddress([]byte(name)),
		Contract: c,
	}
}

// IsProxy reports whether the deployment forwards to an implementation.
func (d *Deployment) IsProxy() bool {
	return d.Contract.Resolver() != nil
}
