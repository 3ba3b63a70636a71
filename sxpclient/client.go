// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sxpclient is an HTTP client of the node API. It reads blocks,
// staking balances, proposals, timelock and cards, filters events and
// submits transactions.
package sxpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/blocks"
	"github.com/swipegov/sxpgov/api/cards"
	"github.com/swipegov/sxpgov/api/events"
	"github.com/swipegov/sxpgov/api/proposals"
	"github.com/swipegov/sxpgov/api/staking"
	"github.com/swipegov/sxpgov/api/timelock"
	"github.com/swipegov/sxpgov/api/transactions"
	"github.com/swipegov/sxpgov/sxp"
)

var ErrNotFound = errors.New("not found")

// StatusError is returned for answers other than 200 and 404.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error - status code %d - %s", e.Code, e.Message)
}

// Client talks to one node.
type Client struct {
	url string
	c   *http.Client
}

// New creates a client of the API served at url.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		c:   c,
	}
}

// URL returns the API root.
func (c *Client) URL() string {
	return c.url
}

// BestBlock returns the last committed block.
func (c *Client) BestBlock() (*blocks.Block, error) {
	var blk blocks.Block
	if err := c.httpGET(c.url+"/blocks/best", &blk); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve best block")
	}
	return &blk, nil
}

// NextBlock returns the context of the block being built.
func (c *Client) NextBlock() (*blocks.Block, error) {
	var blk blocks.Block
	if err := c.httpGET(c.url+"/blocks/next", &blk); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve next block")
	}
	return &blk, nil
}

func (c *Client) StakingSummary() (*staking.Summary, error) {
	var summary staking.Summary
	if err := c.httpGET(c.url+"/staking", &summary); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve staking summary")
	}
	return &summary, nil
}

func (c *Client) StakingAccount(addr sxp.Address) (*staking.Account, error) {
	var acc staking.Account
	if err := c.httpGET(c.url+"/staking/"+addr.String(), &acc); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve staking account")
	}
	return &acc, nil
}

// PriorStake returns the stake of addr at the end of a past block.
func (c *Client) PriorStake(addr sxp.Address, block uint64) (*staking.Prior, error) {
	var prior staking.Prior
	u := c.url + "/staking/" + addr.String() + "/prior?block=" + strconv.FormatUint(block, 10)
	if err := c.httpGET(u, &prior); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve prior stake")
	}
	return &prior, nil
}

func (c *Client) Proposals() (*proposals.Overview, error) {
	var overview proposals.Overview
	if err := c.httpGET(c.url+"/proposals", &overview); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve proposals overview")
	}
	return &overview, nil
}

func (c *Client) Proposal(id uint64) (*proposals.Proposal, error) {
	var p proposals.Proposal
	if err := c.httpGET(c.url+"/proposals/"+strconv.FormatUint(id, 10), &p); err != nil {
		return nil, errors.WithMessagef(err, "unable to retrieve proposal %d", id)
	}
	return &p, nil
}

func (c *Client) ProposalReceipt(id uint64, voter sxp.Address) (*proposals.Receipt, error) {
	var r proposals.Receipt
	u := c.url + "/proposals/" + strconv.FormatUint(id, 10) + "/receipts/" + voter.String()
	if err := c.httpGET(u, &r); err != nil {
		return nil, errors.WithMessagef(err, "unable to retrieve receipt of proposal %d", id)
	}
	return &r, nil
}

func (c *Client) Timelock() (*timelock.Settings, error) {
	var settings timelock.Settings
	if err := c.httpGET(c.url+"/timelock", &settings); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve timelock settings")
	}
	return &settings, nil
}

// IsQueued tells whether the timelock holds a transaction hash.
func (c *Client) IsQueued(hash sxp.Bytes32) (bool, error) {
	var queued timelock.Queued
	if err := c.httpGET(c.url+"/timelock/queued/"+hash.String(), &queued); err != nil {
		return false, errors.WithMessage(err, "unable to retrieve queued state")
	}
	return queued.Queued, nil
}

func (c *Client) Cards() ([]*cards.Card, error) {
	var list []*cards.Card
	if err := c.httpGET(c.url+"/cards", &list); err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve cards")
	}
	return list, nil
}

func (c *Client) Card(id uint64) (*cards.Card, error) {
	var card cards.Card
	if err := c.httpGET(c.url+"/cards/"+strconv.FormatUint(id, 10), &card); err != nil {
		return nil, errors.WithMessagef(err, "unable to retrieve card %d", id)
	}
	return &card, nil
}

// SendTransaction executes clause in the block being built. A reverted
// transaction is not an error: check Receipt.Reverted.
func (c *Client) SendTransaction(clause *transactions.Clause) (*transactions.Receipt, error) {
	var receipt transactions.Receipt
	if err := c.httpPOST(c.url+"/transactions", clause, &receipt); err != nil {
		return nil, errors.WithMessage(err, "unable to send transaction")
	}
	return &receipt, nil
}

// Call runs clause without keeping its effects.
func (c *Client) Call(clause *transactions.Clause) (*transactions.CallResult, error) {
	var result transactions.CallResult
	if err := c.httpPOST(c.url+"/call", clause, &result); err != nil {
		return nil, errors.WithMessage(err, "unable to call")
	}
	return &result, nil
}

func (c *Client) FilterEvents(filter *events.EventFilter) ([]*events.FilteredEvent, error) {
	var list []*events.FilteredEvent
	if err := c.httpPOST(c.url+"/events", filter, &list); err != nil {
		return nil, errors.WithMessage(err, "unable to filter events")
	}
	return list, nil
}

// EventsByName is a shortcut for the query form of the events API.
func (c *Client) EventsByName(name string, address *sxp.Address) ([]*events.FilteredEvent, error) {
	query := url.Values{"name": {name}}
	if address != nil {
		query.Set("address", address.String())
	}
	var list []*events.FilteredEvent
	if err := c.httpGET(c.url+"/events?"+query.Encode(), &list); err != nil {
		return nil, errors.WithMessage(err, "unable to query events")
	}
	return list, nil
}
