// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposals_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/api/proposals"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/test/testchain"
)

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestProposals(t *testing.T) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	defer chain.Close()

	router := mux.NewRouter()
	proposals.New(chain.Runtime()).Mount(router, "/proposals")
	ts := httptest.NewServer(router)
	defer ts.Close()

	alice, bob := chain.Account(1), chain.Account(2)
	amount := sxp.Tokens(2000)
	_, err = chain.Token().Attach(alice).Send("approve", builtin.StakingProxy.Address, amount)
	require.NoError(t, err)
	_, err = chain.Staking(3).Attach(alice).Send("stake", amount)
	require.NoError(t, err)
	require.NoError(t, chain.MintBlock())

	_, err = chain.Governance().Attach(alice).Send("propose",
		[]sxp.Address{builtin.Token.Address},
		[]*big.Int{new(big.Int)},
		[]string{"isFrozen()"},
		[][]byte{nil},
		"check the token",
	)
	require.NoError(t, err)

	body, status := httpGet(t, ts.URL+"/proposals")
	require.Equal(t, http.StatusOK, status)
	var overview proposals.Overview
	require.NoError(t, json.Unmarshal(body, &overview))
	assert.Equal(t, uint64(1), overview.ProposalCount)
	assert.Equal(t, sxp.DefaultVotingPeriod, overview.VotingPeriod)
	assert.Equal(t, sxp.DefaultQuorumVotes.String(), (*big.Int)(overview.QuorumVotes).String())

	body, status = httpGet(t, ts.URL+"/proposals/1")
	require.Equal(t, http.StatusOK, status, string(body))
	var p proposals.Proposal
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, alice, p.Proposer)
	assert.Equal(t, "pending", p.State)
	assert.Equal(t, sxp.DefaultQuorumVotes.String(), (*big.Int)(p.QuorumVotes).String())
	require.Len(t, p.Actions, 1)
	assert.Equal(t, builtin.Token.Address, p.Actions[0].Target)
	assert.Equal(t, "isFrozen()", p.Actions[0].Signature)

	require.NoError(t, chain.MintBlocks(int(sxp.DefaultVotingDelay)+1))
	_, err = chain.Governance().Attach(alice).Send("castVote", big.NewInt(1), true)
	require.NoError(t, err)

	body, status = httpGet(t, ts.URL+"/proposals/1")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "active", p.State)
	assert.Equal(t, amount.String(), (*big.Int)(p.ForVotes).String())

	body, status = httpGet(t, ts.URL+"/proposals/1/receipts/"+alice.String())
	require.Equal(t, http.StatusOK, status)
	var receipt proposals.Receipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.True(t, receipt.HasVoted)
	assert.True(t, receipt.Support)
	assert.Equal(t, amount.String(), (*big.Int)(receipt.Votes).String())

	body, status = httpGet(t, ts.URL+"/proposals/1/receipts/"+bob.String())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.False(t, receipt.HasVoted)

	_, status = httpGet(t, ts.URL+"/proposals/2")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, ts.URL+"/proposals/0")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, ts.URL+"/proposals/abc")
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = httpGet(t, ts.URL+"/proposals/2/receipts/"+bob.String())
	assert.Equal(t, http.StatusNotFound, status)
}
