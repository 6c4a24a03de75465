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

import "github.com/decentramind-labs/govengine/governance"

const (
	GovernanceServiceName = "govengine.v1.GovernanceService"
	TreasuryServiceName   = "govengine.v1.TreasuryService"
)

const (
	CreateProposalProcedure     = "/" + GovernanceServiceName + "/CreateProposal"
	GetProposalProcedure        = "/" + GovernanceServiceName + "/GetProposal"
	ListProposalsProcedure      = "/" + GovernanceServiceName + "/ListProposals"
	EndorseProcedure            = "/" + GovernanceServiceName + "/Endorse"
	CastVoteProcedure           = "/" + GovernanceServiceName + "/CastVote"
	AdvanceProcedure            = "/" + GovernanceServiceName + "/Advance"
	ExecuteProcedure            = "/" + GovernanceServiceName + "/Execute"
	CancelProcedure             = "/" + GovernanceServiceName + "/Cancel"
	ListVotesProcedure          = "/" + GovernanceServiceName + "/ListVotes"
	SummaryProcedure            = "/" + GovernanceServiceName + "/Summary"
	ListTransactionsProcedure   = "/" + TreasuryServiceName + "/ListTransactions"
	GetTransactionProcedure     = "/" + TreasuryServiceName + "/GetTransaction"
	ApproveTransactionProcedure = "/" + TreasuryServiceName + "/Approve"
	RejectTransactionProcedure  = "/" + TreasuryServiceName + "/Reject"
	ExecuteTransactionProcedure = "/" + TreasuryServiceName + "/Execute"
)

type ProposalIDRequest struct {
	ID string `json:"id"`
}

type ProposalResponse struct {
	Proposal governance.Proposal `json:"proposal"`
}

type ListProposalsResponse struct {
	Proposals []governance.Proposal `json:"proposals"`
}

type EndorseRequest struct {
	ID       string `json:"id"`
	Endorser string `json:"endorser"`
}

type CastVoteResponse struct {
	Vote     governance.Vote     `json:"vote"`
	Proposal governance.Proposal `json:"proposal"`
}

type ExecuteResponse struct {
	Proposal    governance.Proposal             `json:"proposal"`
	Transaction *governance.TreasuryTransaction `json:"transaction,omitempty"`
}

type CancelRequest struct {
	ID    string `json:"id"`
	Actor string `json:"actor"`
}

type ListVotesResponse struct {
	Votes []governance.Vote `json:"votes"`
}

type SummaryRequest struct{}

type ListTransactionsRequest struct {
	Status     governance.TxStatus `json:"status,omitempty"`
	ProposalID string              `json:"proposalId,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []governance.TreasuryTransaction `json:"transactions"`
}

type TransactionIDRequest struct {
	ID string `json:"id"`
}

type SignRequest struct {
	ID     string `json:"id"`
	Signer string `json:"signer"`
}

type TransactionResponse struct {
	Transaction governance.TreasuryTransaction `json:"transaction"`
}
