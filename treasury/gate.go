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

// Package treasury gates treasury fund movements behind multisig approval
package treasury

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/event"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/internal/keylock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FundsTransfer moves funds between accounts
type FundsTransfer interface {
	Transfer(
		ctx context.Context,
		sender string,
		recipient string,
		amount decimal.Decimal,
		currency string,
	) error
}

// Gate is the only component that changes treasury transaction records
type Gate struct {
	db           *database.Database
	transfer     FundsTransfer
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	metrics      *gateMetrics
	eventBus     *event.EventBus
	tracer       trace.Tracer
	locks        *keylock.Map
	clock        func() time.Time
	signers      map[string]struct{}
	sender       string
	threshold    int
	timeout      time.Duration
	inflightMu   sync.Mutex
	inflight     map[string]*pendingTransfer
}

// pendingTransfer is a funds transfer that has been started and not yet returned
type pendingTransfer struct {
	done chan struct{}
	err  error
}

// New creates a Gate backed by db that moves funds through transfer
func New(
	db *database.Database,
	transfer FundsTransfer,
	opts ...GateOptionFunc,
) (*Gate, error) {
	if db == nil {
		return nil, errors.New("treasury gate requires a database")
	}
	if transfer == nil {
		return nil, errors.New("treasury gate requires a funds transfer")
	}
	g := &Gate{
		db:        db,
		transfer:  transfer,
		locks:     keylock.New(),
		inflight:  make(map[string]*pendingTransfer),
		clock:     time.Now,
		sender:    DefaultSender,
		threshold: DefaultThreshold,
		timeout:   DefaultTransferTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.threshold < 1 {
		return nil, fmt.Errorf(
			"%w: threshold must be at least 1, got %d",
			governance.ErrInvalidArgument,
			g.threshold,
		)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	g.logger = g.logger.With("component", "treasury")
	if g.promRegistry != nil {
		g.initMetrics()
	}
	g.tracer = otel.Tracer("github.com/decentramind-labs/govengine/treasury")
	return g, nil
}

// Threshold returns the number of approvals required for execution
func (g *Gate) Threshold() int {
	return g.threshold
}

// Propose creates a pending transaction. When txn is not nil the record is
// written as part of it and the caller reports the result with Announce
// after committing.
func (g *Gate) Propose(
	ctx context.Context,
	req governance.TransactionRequest,
	txn *database.Txn,
) (governance.TreasuryTransaction, error) {
	if err := req.Validate(); err != nil {
		return governance.TreasuryTransaction{}, err
	}
	tx := governance.TreasuryTransaction{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Sender:      g.sender,
		Recipient:   req.Recipient,
		Description: req.Description,
		ProposalID:  req.ProposalID,
		Threshold:   g.threshold,
		Approvers:   []string{},
		Status:      governance.TxStatusPending,
		CreatedAt:   g.clock().UTC(),
	}
	if err := g.db.SetTreasuryTransaction(tx, txn); err != nil {
		return governance.TreasuryTransaction{}, g.storageError("propose", err)
	}
	g.logger.Debug(
		"treasury transaction proposed",
		"id", tx.ID,
		"proposal", tx.ProposalID,
		"amount", tx.Amount.String(),
	)
	if txn == nil {
		g.Announce(tx)
	}
	return tx, nil
}

// Announce records metrics and publishes the status event for tx
func (g *Gate) Announce(tx governance.TreasuryTransaction) {
	if g.metrics != nil {
		g.metrics.transactions.WithLabelValues(string(tx.Status)).Inc()
	}
	if g.eventBus != nil {
		g.eventBus.Publish(event.NewEvent(
			event.TreasuryTxEventType,
			event.TreasuryTxEvent{
				TransactionID: tx.ID,
				ProposalID:    tx.ProposalID,
				Status:        tx.Status,
				Approvals:     len(tx.Approvers),
			},
		))
	}
}

func (g *Gate) authorize(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: signer must not be empty", governance.ErrInvalidArgument)
	}
	if len(g.signers) == 0 {
		return nil
	}
	if _, ok := g.signers[actor]; !ok {
		return fmt.Errorf("%w: %s is not a treasury signer", governance.ErrUnauthorized, actor)
	}
	return nil
}

// Approve records approver on the transaction. A repeated approval is a no-op.
// The transaction becomes approved once the threshold is reached.
func (g *Gate) Approve(
	ctx context.Context,
	id string,
	approver string,
) (governance.TreasuryTransaction, error) {
	_, span := g.tracer.Start(ctx, "treasury.Approve", trace.WithAttributes(
		attribute.String("treasury.tx_id", id),
	))
	defer span.End()
	if err := g.authorize(approver); err != nil {
		return governance.TreasuryTransaction{}, spanError(span, err)
	}
	unlock := g.locks.Lock(id)
	defer unlock()
	tx, err := g.get(id)
	if err != nil {
		return governance.TreasuryTransaction{}, spanError(span, err)
	}
	if tx.Status.Terminal() {
		return governance.TreasuryTransaction{}, spanError(
			span,
			governance.NewPhaseError("approve", tx.Status),
		)
	}
	if tx.HasApprover(approver) {
		return tx, nil
	}
	next := tx.Clone()
	next.Approvers = append(next.Approvers, approver)
	if next.Approved() {
		next.Status = governance.TxStatusApproved
	}
	if err := g.db.SetTreasuryTransaction(next, nil); err != nil {
		return governance.TreasuryTransaction{}, spanError(span, g.storageError("approve", err))
	}
	g.logger.Debug(
		"treasury transaction approved",
		"id", id,
		"approver", approver,
		"approvals", len(next.Approvers),
		"threshold", next.Threshold,
	)
	if g.metrics != nil {
		g.metrics.approvals.Inc()
	}
	g.announceChange(tx, next)
	return next, nil
}

// announceChange counts a status change and publishes the new state
func (g *Gate) announceChange(prev, next governance.TreasuryTransaction) {
	if g.metrics != nil && prev.Status != next.Status {
		g.metrics.transactions.WithLabelValues(string(next.Status)).Inc()
	}
	if g.eventBus != nil {
		g.eventBus.Publish(event.NewEvent(
			event.TreasuryTxEventType,
			event.TreasuryTxEvent{
				TransactionID: next.ID,
				ProposalID:    next.ProposalID,
				Status:        next.Status,
				Approvals:     len(next.Approvers),
			},
		))
	}
}

// Execute moves the funds of an approved transaction exactly once
func (g *Gate) Execute(
	ctx context.Context,
	id string,
) (governance.TreasuryTransaction, error) {
	ctx, span := g.tracer.Start(ctx, "treasury.Execute", trace.WithAttributes(
		attribute.String("treasury.tx_id", id),
	))
	defer span.End()
	unlock := g.locks.Lock(id)
	defer unlock()
	tx, err := g.get(id)
	if err != nil {
		return governance.TreasuryTransaction{}, spanError(span, err)
	}
	switch {
	case tx.Status == governance.TxStatusExecuted:
		return governance.TreasuryTransaction{}, spanError(span, fmt.Errorf(
			"treasury transaction %s: %w",
			id,
			governance.ErrAlreadyExecuted,
		))
	case tx.Status == governance.TxStatusRejected:
		return governance.TreasuryTransaction{}, spanError(
			span,
			governance.NewPhaseError("execute", tx.Status),
		)
	case g.transferPending(id):
		return governance.TreasuryTransaction{}, spanError(span, errTransferPending(id))
	case !tx.Approved():
		return governance.TreasuryTransaction{}, spanError(span, fmt.Errorf(
			"treasury transaction %s has %d of %d approvals: %w",
			id,
			len(tx.Approvers),
			tx.Threshold,
			governance.ErrNotApproved,
		))
	}
	next := tx.Clone()
	executedAt := g.clock().UTC()
	next.Status = governance.TxStatusExecuted
	next.ExecutedAt = &executedAt
	txn := g.db.Transaction(true)
	if err := g.db.SetTreasuryTransaction(next, txn); err != nil {
		txn.Release()
		return governance.TreasuryTransaction{}, spanError(span, g.storageError("execute", err))
	}
	if err := g.runTransfer(ctx, next); err != nil {
		txn.Release()
		return governance.TreasuryTransaction{}, spanError(span, err)
	}
	if err := txn.Commit(); err != nil {
		g.logger.Error(
			"funds moved but execution record was not committed",
			"id", id,
			"error", err,
		)
		return governance.TreasuryTransaction{}, spanError(span, g.storageError("execute", err))
	}
	g.logger.Info(
		"treasury transaction executed",
		"id", id,
		"recipient", next.Recipient,
		"amount", next.Amount.String(),
		"currency", next.Currency,
	)
	g.announceChange(tx, next)
	return next, nil
}

// runTransfer calls the funds transfer and enforces the timeout even if the
// transfer ignores its context. A transfer that is still running when the
// timeout expires stays pending until it returns, and its result then settles
// the transaction record. Must be called with the transaction lock held.
func (g *Gate) runTransfer(
	ctx context.Context,
	tx governance.TreasuryTransaction,
) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	pending := &pendingTransfer{done: make(chan struct{})}
	g.inflightMu.Lock()
	g.inflight[tx.ID] = pending
	g.inflightMu.Unlock()
	go func() {
		defer cancel()
		pending.err = g.transfer.Transfer(ctx, tx.Sender, tx.Recipient, tx.Amount, tx.Currency)
		close(pending.done)
	}()
	var err error
	select {
	case <-pending.done:
		g.clearPending(tx.ID)
		err = pending.err
	case <-ctx.Done():
		err = ctx.Err()
		go g.settleLateTransfer(tx.ID, pending)
	}
	if err == nil {
		return nil
	}
	if g.metrics != nil {
		g.metrics.transferFailures.Inc()
	}
	g.logger.Warn(
		"funds transfer failed",
		"id", tx.ID,
		"timeout", g.timeout,
		"error", err,
	)
	return fmt.Errorf(
		"transfer for treasury transaction %s: %w: %w",
		tx.ID,
		governance.ErrProviderUnavailable,
		err,
	)
}

// settleLateTransfer waits for a transfer that outlived its timeout and records
// the execution if the funds moved. A failed transfer leaves the transaction
// approved so that it can be executed again.
func (g *Gate) settleLateTransfer(id string, pending *pendingTransfer) {
	<-pending.done
	unlock := g.locks.Lock(id)
	defer unlock()
	defer g.clearPending(id)
	if pending.err != nil {
		g.logger.Warn(
			"timed out funds transfer failed",
			"id", id,
			"error", pending.err,
		)
		return
	}
	tx, err := g.get(id)
	if err != nil {
		g.logger.Error(
			"funds moved but treasury transaction could not be read",
			"id", id,
			"error", err,
		)
		return
	}
	if tx.Status == governance.TxStatusExecuted {
		return
	}
	next := tx.Clone()
	executedAt := g.clock().UTC()
	next.Status = governance.TxStatusExecuted
	next.ExecutedAt = &executedAt
	if err := g.db.SetTreasuryTransaction(next, nil); err != nil {
		g.logger.Error(
			"funds moved but execution record was not committed",
			"id", id,
			"error", err,
		)
		return
	}
	g.logger.Info(
		"treasury transaction executed after transfer timeout",
		"id", id,
		"recipient", next.Recipient,
		"amount", next.Amount.String(),
		"currency", next.Currency,
	)
	g.announceChange(tx, next)
}

func (g *Gate) transferPending(id string) bool {
	g.inflightMu.Lock()
	defer g.inflightMu.Unlock()
	_, ok := g.inflight[id]
	return ok
}

func (g *Gate) clearPending(id string) {
	g.inflightMu.Lock()
	defer g.inflightMu.Unlock()
	delete(g.inflight, id)
}

func errTransferPending(id string) error {
	return fmt.Errorf(
		"%w: treasury transaction %s has a funds transfer in progress",
		governance.ErrInvalidPhase,
		id,
	)
}

// Reject marks a transaction that has not been executed as rejected
func (g *Gate) Reject(
	ctx context.Context,
	id string,
	actor string,
) (governance.TreasuryTransaction, error) {
	if err := g.authorize(actor); err != nil {
		return governance.TreasuryTransaction{}, err
	}
	unlock := g.locks.Lock(id)
	defer unlock()
	tx, err := g.get(id)
	if err != nil {
		return governance.TreasuryTransaction{}, err
	}
	switch tx.Status {
	case governance.TxStatusExecuted:
		return governance.TreasuryTransaction{}, fmt.Errorf(
			"treasury transaction %s: %w",
			id,
			governance.ErrAlreadyExecuted,
		)
	case governance.TxStatusRejected:
		return governance.TreasuryTransaction{}, governance.NewPhaseError("reject", tx.Status)
	}
	if g.transferPending(id) {
		return governance.TreasuryTransaction{}, errTransferPending(id)
	}
	next := tx.Clone()
	next.Status = governance.TxStatusRejected
	next.RejectedBy = actor
	if err := g.db.SetTreasuryTransaction(next, nil); err != nil {
		return governance.TreasuryTransaction{}, g.storageError("reject", err)
	}
	g.logger.Info("treasury transaction rejected", "id", id, "actor", actor)
	g.announceChange(tx, next)
	return next, nil
}

// Get returns the transaction with the given id
func (g *Gate) Get(
	ctx context.Context,
	id string,
) (governance.TreasuryTransaction, error) {
	return g.get(id)
}

// List returns transactions matching filter, newest first
func (g *Gate) List(
	ctx context.Context,
	filter database.TreasuryFilter,
) ([]governance.TreasuryTransaction, error) {
	ret, err := g.db.ListTreasuryTransactions(filter, nil)
	if err != nil {
		return nil, g.storageError("list", err)
	}
	return ret, nil
}

func (g *Gate) get(id string) (governance.TreasuryTransaction, error) {
	tx, err := g.db.GetTreasuryTransaction(id, nil)
	if err != nil {
		return governance.TreasuryTransaction{}, g.storageError("get", err)
	}
	return tx, nil
}

func (g *Gate) storageError(op string, err error) error {
	if !governance.Classified(err) {
		g.logger.Error("treasury storage failure", "op", op, "error", err)
	}
	return governance.Unavailable("treasury "+op, err)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, governance.KindName(err))
	return err
}
