// Copyright 2026 DecentraMind Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/decentramind-labs/govengine/governance"
)

// Client calls a remote govengine API
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
}

// NewClient creates a client for the API at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func call[Req, Res any](
	ctx context.Context,
	c *Client,
	procedure string,
	req *Req,
) (*Res, error) {
	client := connect.NewClient[Req, Res](
		c.httpClient,
		c.baseURL+procedure,
		connect.WithCodec(jsonCodec{}),
	)
	res, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, FromError(err)
	}
	return res.Msg, nil
}

func (c *Client) CreateProposal(
	ctx context.Context,
	req governance.ProposalRequest,
) (governance.Proposal, error) {
	res, err := call[governance.ProposalRequest, ProposalResponse](ctx, c, CreateProposalProcedure, &req)
	if err != nil {
		return governance.Proposal{}, err
	}
	return res.Proposal, nil
}

func (c *Client) GetProposal(ctx context.Context, id string) (governance.Proposal, error) {
	res, err := call[ProposalIDRequest, ProposalResponse](
		ctx, c, GetProposalProcedure, &ProposalIDRequest{ID: id},
	)
	if err != nil {
		return governance.Proposal{}, err
	}
	return res.Proposal, nil
}

func (c *Client) ListProposals(
	ctx context.Context,
	filter governance.Filter,
) ([]governance.Proposal, error) {
	res, err := call[governance.Filter, ListProposalsResponse](ctx, c, ListProposalsProcedure, &filter)
	if err != nil {
		return nil, err
	}
	return res.Proposals, nil
}

func (c *Client) Endorse(
	ctx context.Context,
	id string,
	endorser string,
) (governance.Proposal, error) {
	res, err := call[EndorseRequest, ProposalResponse](
		ctx, c, EndorseProcedure, &EndorseRequest{ID: id, Endorser: endorser},
	)
	if err != nil {
		return governance.Proposal{}, err
	}
	return res.Proposal, nil
}

func (c *Client) CastVote(
	ctx context.Context,
	req governance.VoteRequest,
) (*CastVoteResponse, error) {
	return call[governance.VoteRequest, CastVoteResponse](ctx, c, CastVoteProcedure, &req)
}

func (c *Client) Advance(ctx context.Context, id string) (governance.Proposal, error) {
	res, err := call[ProposalIDRequest, ProposalResponse](
		ctx, c, AdvanceProcedure, &ProposalIDRequest{ID: id},
	)
	if err != nil {
		return governance.Proposal{}, err
	}
	return res.Proposal, nil
}

func (c *Client) Execute(ctx context.Context, id string) (*ExecuteResponse, error) {
	return call[ProposalIDRequest, ExecuteResponse](
		ctx, c, ExecuteProcedure, &ProposalIDRequest{ID: id},
	)
}

func (c *Client) Cancel(
	ctx context.Context,
	id string,
	actor string,
) (governance.Proposal, error) {
	res, err := call[CancelRequest, ProposalResponse](
		ctx, c, CancelProcedure, &CancelRequest{ID: id, Actor: actor},
	)
	if err != nil {
		return governance.Proposal{}, err
	}
	return res.Proposal, nil
}

func (c *Client) ListVotes(ctx context.Context, id string) ([]governance.Vote, error) {
	res, err := call[ProposalIDRequest, ListVotesResponse](
		ctx, c, ListVotesProcedure, &ProposalIDRequest{ID: id},
	)
	if err != nil {
		return nil, err
	}
	return res.Votes, nil
}

func (c *Client) Summary(ctx context.Context) (governance.Summary, error) {
	res, err := call[SummaryRequest, governance.Summary](
		ctx, c, SummaryProcedure, &SummaryRequest{},
	)
	if err != nil {
		return governance.Summary{}, err
	}
	return *res, nil
}

func (c *Client) ListTransactions(
	ctx context.Context,
	req ListTransactionsRequest,
) ([]governance.TreasuryTransaction, error) {
	res, err := call[ListTransactionsRequest, ListTransactionsResponse](
		ctx, c, ListTransactionsProcedure, &req,
	)
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

func (c *Client) GetTransaction(
	ctx context.Context,
	id string,
) (governance.TreasuryTransaction, error) {
	return c.transaction(ctx, GetTransactionProcedure, id)
}

func (c *Client) ExecuteTransaction(
	ctx context.Context,
	id string,
) (governance.TreasuryTransaction, error) {
	return c.transaction(ctx, ExecuteTransactionProcedure, id)
}

func (c *Client) transaction(
	ctx context.Context,
	procedure string,
	id string,
) (governance.TreasuryTransaction, error) {
	res, err := call[TransactionIDRequest, TransactionResponse](
		ctx, c, procedure, &TransactionIDRequest{ID: id},
	)
	if err != nil {
		return governance.TreasuryTransaction{}, err
	}
	return res.Transaction, nil
}

func (c *Client) ApproveTransaction(
	ctx context.Context,
	id string,
	signer string,
) (governance.TreasuryTransaction, error) {
	return c.sign(ctx, ApproveTransactionProcedure, id, signer)
}

func (c *Client) RejectTransaction(
	ctx context.Context,
	id string,
	signer string,
) (governance.TreasuryTransaction, error) {
	return c.sign(ctx, RejectTransactionProcedure, id, signer)
}

func (c *Client) sign(
	ctx context.Context,
	procedure string,
	id string,
	signer string,
) (governance.TreasuryTransaction, error) {
	res, err := call[SignRequest, TransactionResponse](
		ctx, c, procedure, &SignRequest{ID: id, Signer: signer},
	)
	if err != nil {
		return governance.TreasuryTransaction{}, err
	}
	return res.Transaction, nil
}
