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

	"github.com/decentramind-labs/govengine/api"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/spf13/cobra"
)

func treasuryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treasury",
		Short: "Inspect and sign treasury transactions",
	}
	cmd.AddCommand(
		treasuryListCommand(),
		treasuryShowCommand(),
		treasurySignCommand("approve", "Approve a pending transaction"),
		treasurySignCommand("reject", "Reject a transaction that has not executed"),
		treasuryExecuteCommand(),
	)
	return cmd
}

func treasuryListCommand() *cobra.Command {
	var req api.ListTransactionsRequest
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List treasury transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != "" {
				req.Status = governance.TxStatus(status)
				if !req.Status.Valid() {
					return fmt.Errorf("%w: unknown transaction status %q", governance.ErrInvalidArgument, status)
				}
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			txs, err := client.ListTransactions(cmd.Context(), req)
			if err != nil {
				return err
			}
			renderTransactions(cmd.OutOrStdout(), txs)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only transactions with this status")
	cmd.Flags().StringVar(&req.ProposalID, "proposal", "", "only transactions created by this proposal")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum number of transactions")
	return cmd
}

func treasuryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a treasury transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			tx, err := client.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}

func treasurySignCommand(use string, short string) *cobra.Command {
	var signer string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			var tx governance.TreasuryTransaction
			if use == "approve" {
				tx, err = client.ApproveTransaction(cmd.Context(), args[0], signer)
			} else {
				tx, err = client.RejectTransaction(cmd.Context(), args[0], signer)
			}
			if err != nil {
				return err
			}
			renderTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}
	cmd.Flags().StringVar(&signer, "signer", "", "identity of the signer")
	_ = cmd.MarkFlagRequired("signer")
	return cmd
}

func treasuryExecuteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Move the funds of an approved transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			tx, err := client.ExecuteTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}
