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

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func renderProposals(w io.Writer, proposals []governance.Proposal) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Category", "Status", "Creator", "For", "Against", "Voting Ends"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, p := range proposals {
		t.AppendRow(table.Row{
			p.ID,
			p.Title,
			p.Category,
			p.Status,
			p.Creator,
			p.Tally.For.String(),
			p.Tally.Against.String(),
			formatTime(p.VotingEnd),
		})
	}
	t.Render()
}

func renderProposal(w io.Writer, p governance.Proposal) {
	t := newTable(w)
	funding := "-"
	if p.FundingAmount.Valid {
		funding = p.FundingAmount.Decimal.String()
	}
	executed := "-"
	if p.ExecutedAt != nil {
		executed = formatTime(*p.ExecutedAt)
	}
	t.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Title", p.Title},
		{"Description", p.Description},
		{"Category", p.Category},
		{"Status", p.Status},
		{"Creator", p.Creator},
		{"Funding", funding},
		{"Tags", strings.Join(p.Tags, ", ")},
		{"Endorsers", strings.Join(p.Endorsers, ", ")},
		{"Created", formatTime(p.CreatedAt)},
		{"Discussion Ends", formatTime(p.DiscussionEnd)},
		{"Voting", formatTime(p.VotingStart) + " - " + formatTime(p.VotingEnd)},
		{"Quorum", p.Quorum.String()},
		{"Majority", p.Majority.String()},
		{"Tally", "for " + p.Tally.For.String() +
			" / against " + p.Tally.Against.String() +
			" / abstain " + p.Tally.Abstain.String()},
		{"Executed", executed},
		{"Treasury Tx", p.TreasuryTxID},
	})
	t.Render()
}

func renderVotes(w io.Writer, votes []governance.Vote) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Voter", "Account", "Choice", "Weight", "Cast"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	for _, v := range votes {
		t.AppendRow(table.Row{
			v.Voter,
			v.VoterAccount,
			v.Choice,
			v.Weight.String(),
			formatTime(v.CastAt),
		})
	}
	t.Render()
}

func renderTransactions(w io.Writer, txs []governance.TreasuryTransaction) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Proposal", "Recipient", "Amount", "Status", "Approvals"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	for _, tx := range txs {
		t.AppendRow(table.Row{
			tx.ID,
			tx.ProposalID,
			tx.Recipient,
			tx.Amount.String() + " " + tx.Currency,
			tx.Status,
			approvals(tx),
		})
	}
	t.Render()
}

func renderTransaction(w io.Writer, tx governance.TreasuryTransaction) {
	t := newTable(w)
	executed := "-"
	if tx.ExecutedAt != nil {
		executed = formatTime(*tx.ExecutedAt)
	}
	t.AppendRows([]table.Row{
		{"ID", tx.ID},
		{"Kind", tx.Kind},
		{"Proposal", tx.ProposalID},
		{"Amount", tx.Amount.String() + " " + tx.Currency},
		{"Sender", tx.Sender},
		{"Recipient", tx.Recipient},
		{"Description", tx.Description},
		{"Status", tx.Status},
		{"Approvals", approvals(tx)},
		{"Approvers", strings.Join(tx.Approvers, ", ")},
		{"Created", formatTime(tx.CreatedAt)},
		{"Executed", executed},
		{"Rejected By", tx.RejectedBy},
	})
	t.Render()
}

func approvals(tx governance.TreasuryTransaction) string {
	return fmt.Sprintf("%d/%d", len(tx.Approvers), tx.Threshold)
}

func renderSummary(w io.Writer, s governance.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total proposals", s.Total})
	for _, status := range governance.Statuses {
		t.AppendRow(table.Row{"  " + string(status), s.ByStatus[status]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Participation rate", s.ParticipationRate.StringFixed(4)})
	t.AppendRow(table.Row{"Success rate", s.SuccessRate.StringFixed(4)})
	t.Render()
}
