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

	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func proposalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Create, inspect and act on proposals",
	}
	cmd.AddCommand(
		proposalCreateCommand(),
		proposalListCommand(),
		proposalShowCommand(),
		proposalEndorseCommand(),
		proposalVoteCommand(),
		proposalAdvanceCommand(),
		proposalExecuteCommand(),
		proposalCancelCommand(),
		proposalVotesCommand(),
	)
	return cmd
}

func proposalCreateCommand() *cobra.Command {
	var req governance.ProposalRequest
	var category, funding string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Category, err = governance.ParseCategory(category); err != nil {
				return err
			}
			if funding != "" {
				amount, err := decimal.NewFromString(funding)
				if err != nil {
					return fmt.Errorf("invalid funding amount %q: %w", funding, err)
				}
				req.FundingAmount = decimal.NewNullDecimal(amount)
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := client.CreateProposal(cmd.Context(), req)
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Creator, "creator", "", "identity of the proposer")
	cmd.Flags().StringVar(&req.CreatorAccount, "account", "", "account receiving treasury funds")
	cmd.Flags().StringVar(&req.Title, "title", "", "proposal title")
	cmd.Flags().StringVar(&req.Description, "description", "", "proposal description")
	cmd.Flags().StringVar(&category, "category", string(governance.CategoryPlatformDevelopment), "proposal category")
	cmd.Flags().StringVar(&funding, "funding", "", "requested treasury funding")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "proposal tag, may be repeated")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func proposalListCommand() *cobra.Command {
	var filter governance.Filter
	var status, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if status != "" {
				if filter.Status, err = governance.ParseStatus(status); err != nil {
					return err
				}
			}
			if category != "" {
				if filter.Category, err = governance.ParseCategory(category); err != nil {
					return err
				}
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			proposals, err := client.ListProposals(cmd.Context(), filter)
			if err != nil {
				return err
			}
			renderProposals(cmd.OutOrStdout(), proposals)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only proposals with this status")
	cmd.Flags().StringVar(&category, "category", "", "only proposals in this category")
	cmd.Flags().StringVar(&filter.Creator, "creator", "", "only proposals by this creator")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of proposals")
	return cmd
}

func proposalShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := client.GetProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func proposalEndorseCommand() *cobra.Command {
	var endorser string
	cmd := &cobra.Command{
		Use:   "endorse <id>",
		Short: "Endorse a draft proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := client.Endorse(cmd.Context(), args[0], endorser)
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&endorser, "endorser", "", "identity of the endorser")
	_ = cmd.MarkFlagRequired("endorser")
	return cmd
}

func proposalVoteCommand() *cobra.Command {
	var req governance.VoteRequest
	var choice string
	cmd := &cobra.Command{
		Use:   "vote <id>",
		Short: "Cast a vote on a proposal in its voting window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Choice, err = governance.ParseChoice(choice); err != nil {
				return err
			}
			req.ProposalID = args[0]
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			res, err := client.CastVote(cmd.Context(), req)
			if err != nil {
				return err
			}
			renderVotes(cmd.OutOrStdout(), []governance.Vote{res.Vote})
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Voter, "voter", "", "identity of the voter")
	cmd.Flags().StringVar(&req.VoterAccount, "account", "", "account of the voter, defaults to the voter")
	cmd.Flags().StringVar(&choice, "choice", "", "for, against or abstain")
	_ = cmd.MarkFlagRequired("voter")
	_ = cmd.MarkFlagRequired("choice")
	return cmd
}

func proposalAdvanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Apply any transitions that are due",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := client.Advance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func proposalExecuteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Execute a passed proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			res, err := client.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), res.Proposal)
			if res.Transaction != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				renderTransaction(cmd.OutOrStdout(), *res.Transaction)
			}
			return nil
		},
	}
}

func proposalCancelCommand() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a proposal before voting starts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := client.Cancel(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}
			renderProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "identity requesting the cancellation")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func proposalVotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "votes <id>",
		Short: "List the votes cast on a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			votes, err := client.ListVotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderVotes(cmd.OutOrStdout(), votes)
			return nil
		},
	}
}
