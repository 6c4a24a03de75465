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

// Package govengine manages the lifecycle of token governed proposals: creation,
// endorsement, weighted voting, decision and execution, with treasury payouts
// handed to a multisig gate.
package govengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/event"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/internal/keylock"
	"github.com/decentramind-labs/govengine/power"
	"github.com/decentramind-labs/govengine/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine applies governance rules to stored proposals. Operations on the same
// proposal are serialized; operations on different proposals run in parallel.
type Engine struct {
	config  Config
	db      *database.Database
	calc    *power.Calculator
	gate    *treasury.Gate
	logger  *slog.Logger
	metrics *engineMetrics
	tracer  trace.Tracer
	locks   *keylock.Map
}

// ExecutionResult is the outcome of executing a passed proposal. Transaction is
// set when execution created a treasury payout.
type ExecutionResult struct {
	Proposal    governance.Proposal
	Transaction *governance.TreasuryTransaction
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.logger == nil {
		cfg.logger = NewConfig().logger
	}
	gate, err := treasury.New(
		cfg.db,
		cfg.transfer,
		treasury.WithLogger(cfg.logger),
		treasury.WithPromRegistry(cfg.promRegistry),
		treasury.WithEventBus(cfg.eventBus),
		treasury.WithThreshold(cfg.params.MultiSigThreshold),
		treasury.WithSigners(cfg.treasurySigners...),
		treasury.WithSender(cfg.treasurySender),
		treasury.WithTransferTimeout(cfg.transferTimeout),
		treasury.WithClock(cfg.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("treasury gate: %w", err)
	}
	e := &Engine{
		config: cfg,
		db:     cfg.db,
		gate:   gate,
		calc: power.NewCalculator(
			cfg.provider,
			cfg.params.StakingBonusFactor,
			cfg.params.ProviderTimeout,
			cfg.logger,
		),
		logger: cfg.logger.With("component", "engine"),
		tracer: otel.Tracer("github.com/decentramind-labs/govengine"),
		locks:  keylock.New(),
	}
	if cfg.promRegistry != nil {
		e.initMetrics()
	}
	return e, nil
}

// Treasury returns the gate that approves and executes treasury transactions
func (e *Engine) Treasury() *treasury.Gate {
	return e.gate
}

// Params returns the governance parameters in effect
func (e *Engine) Params() governance.Params {
	return e.config.params
}

// WeightOf returns the current voting weight of identity
func (e *Engine) WeightOf(ctx context.Context, identity string) (decimal.Decimal, error) {
	return e.calc.WeightOf(ctx, identity)
}

func (e *Engine) now() time.Time {
	return e.config.clock().UTC()
}

func (e *Engine) startSpan(
	ctx context.Context,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "govengine."+op, trace.WithAttributes(attrs...))
}

// finish ends the span of an operation and records a failure
func (e *Engine) finish(span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	kind := governance.KindName(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	if e.metrics != nil {
		e.metrics.errors.WithLabelValues(op, kind).Inc()
	}
	e.logger.Debug("operation rejected", "operation", op, "error", err)
}

func (e *Engine) storageError(op string, err error) error {
	if !governance.Classified(err) {
		e.logger.Error("storage failure", "operation", op, "error", err)
	}
	return governance.Unavailable(op, err)
}

func (e *Engine) publish(eventType event.EventType, data any) {
	if e.config.eventBus == nil {
		return
	}
	e.config.eventBus.Publish(event.NewEvent(eventType, data))
}

func (e *Engine) recordTransition(id string, from, to governance.Status) {
	e.logger.Info(
		"proposal status changed",
		"proposal", id,
		"from", from,
		"to", to,
	)
	if e.metrics != nil {
		e.metrics.transitions.WithLabelValues(string(to)).Inc()
	}
	e.publish(
		event.ProposalStatusEventType,
		event.ProposalStatusEvent{ProposalID: id, From: from, To: to},
	)
}

// settle loads a proposal and persists every transition that has become due.
// The caller must hold the proposal lock.
func (e *Engine) settle(id string) (governance.Proposal, error) {
	p, err := e.db.GetProposal(id, nil)
	if err != nil {
		return governance.Proposal{}, e.storageError("get proposal", err)
	}
	_, steps, err := governance.Settle(p, e.now())
	if err != nil {
		return governance.Proposal{}, err
	}
	if len(steps) == 0 {
		return p, nil
	}
	current := p
	err = e.db.Transaction(true).Do(func(txn *database.Txn) error {
		for _, s := range steps {
			next, err := e.db.UpdateProposal(id, governance.StatusPatch(s), txn)
			if err != nil {
				return err
			}
			current = next
		}
		return nil
	})
	if err != nil {
		return governance.Proposal{}, e.storageError("apply transitions", err)
	}
	from := p.Status
	for _, s := range steps {
		e.recordTransition(id, from, s)
		from = s
	}
	return current, nil
}

// CreateProposal admits a new draft proposal. The creator must hold at least the
// minimum creator balance.
func (e *Engine) CreateProposal(
	ctx context.Context,
	req governance.ProposalRequest,
) (ret governance.Proposal, err error) {
	ctx, span := e.startSpan(
		ctx,
		"CreateProposal",
		attribute.String("proposal.category", string(req.Category)),
	)
	defer func() { e.finish(span, "create_proposal", err) }()
	if err := req.Validate(); err != nil {
		return governance.Proposal{}, err
	}
	balance, err := e.calc.Balance(ctx, req.Creator)
	if err != nil {
		return governance.Proposal{}, err
	}
	need := e.config.params.MinProposalCreatorBalance
	if balance.LessThan(need) {
		return governance.Proposal{}, &governance.PowerError{
			Err:      governance.ErrInsufficientCreatorBalance,
			Identity: req.Creator,
			Have:     balance,
			Need:     need,
		}
	}
	p, err := governance.NewProposal(e.config.idFunc(), req, e.config.params, e.now())
	if err != nil {
		return governance.Proposal{}, err
	}
	if err := e.db.CreateProposal(p, nil); err != nil {
		return governance.Proposal{}, e.storageError("create proposal", err)
	}
	e.logger.Debug(
		"proposal created",
		"proposal", p.ID,
		"creator", p.Creator,
		"category", p.Category,
	)
	if e.metrics != nil {
		e.metrics.proposalsCreated.WithLabelValues(string(p.Category)).Inc()
	}
	e.publish(
		event.ProposalCreatedEventType,
		event.ProposalCreatedEvent{
			ProposalID: p.ID,
			Creator:    p.Creator,
			Category:   p.Category,
		},
	)
	return p, nil
}

// Endorse records support for a draft proposal. The proposal moves to discussion
// once it has the minimum number of endorsements.
func (e *Engine) Endorse(
	ctx context.Context,
	id string,
	endorser string,
) (ret governance.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "Endorse", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "endorse", err) }()
	if strings.TrimSpace(endorser) == "" {
		return governance.Proposal{}, fmt.Errorf(
			"%w: endorser must not be empty",
			governance.ErrInvalidArgument,
		)
	}
	unlock := e.locks.Lock(id)
	defer unlock()
	p, err := e.settle(id)
	if err != nil {
		return governance.Proposal{}, err
	}
	if p.Status != governance.StatusDraft {
		return governance.Proposal{}, governance.NewPhaseError("endorse", p.Status)
	}
	if p.Endorsed(endorser) {
		return governance.Proposal{}, fmt.Errorf(
			"%s on proposal %s: %w",
			endorser,
			id,
			governance.ErrAlreadyEndorsed,
		)
	}
	weight, err := e.calc.WeightOf(ctx, endorser)
	if err != nil {
		return governance.Proposal{}, err
	}
	need := e.config.params.MinEndorserPower
	if weight.LessThan(need) {
		return governance.Proposal{}, &governance.PowerError{
			Err:      governance.ErrInsufficientPower,
			Identity: endorser,
			Have:     weight,
			Need:     need,
		}
	}
	patch := governance.Patch{Endorsers: append(slices.Clone(p.Endorsers), endorser)}
	if len(patch.Endorsers) >= e.config.params.MinEndorsements {
		discussion := governance.StatusDiscussion
		patch.Status = &discussion
	}
	next, err := e.db.UpdateProposal(id, patch, nil)
	if err != nil {
		return governance.Proposal{}, e.storageError("endorse", err)
	}
	e.logger.Debug(
		"proposal endorsed",
		"proposal", id,
		"endorser", endorser,
		"endorsements", len(next.Endorsers),
	)
	if e.metrics != nil {
		e.metrics.endorsements.Inc()
	}
	e.publish(
		event.ProposalEndorsedEventType,
		event.ProposalEndorsedEvent{
			ProposalID:   id,
			Endorser:     endorser,
			Endorsements: len(next.Endorsers),
		},
	)
	if next.Status != p.Status {
		e.recordTransition(id, p.Status, next.Status)
	}
	return next, nil
}

// CastVote records a weighted vote and updates the tally in the same transaction
func (e *Engine) CastVote(
	ctx context.Context,
	req governance.VoteRequest,
) (vote governance.Vote, ret governance.Proposal, err error) {
	ctx, span := e.startSpan(
		ctx,
		"CastVote",
		attribute.String("proposal.id", req.ProposalID),
		attribute.String("vote.choice", string(req.Choice)),
	)
	defer func() { e.finish(span, "cast_vote", err) }()
	if err := req.Validate(); err != nil {
		return governance.Vote{}, governance.Proposal{}, err
	}
	id := req.ProposalID
	unlock := e.locks.Lock(id)
	defer unlock()
	p, err := e.settle(id)
	if err != nil {
		return governance.Vote{}, governance.Proposal{}, err
	}
	now := e.now()
	if !p.VotingOpen(now) {
		return governance.Vote{}, governance.Proposal{}, governance.NewPhaseError("vote", p.Status)
	}
	_, err = e.db.GetVote(id, req.Voter, nil)
	switch {
	case err == nil:
		return governance.Vote{}, governance.Proposal{}, fmt.Errorf(
			"voter %s on proposal %s: %w",
			req.Voter,
			id,
			governance.ErrDuplicateVote,
		)
	case !errors.Is(err, governance.ErrNotFound):
		return governance.Vote{}, governance.Proposal{}, e.storageError("get vote", err)
	}
	weight, err := e.calc.WeightOf(ctx, req.Voter)
	if err != nil {
		return governance.Vote{}, governance.Proposal{}, err
	}
	need := e.config.params.MinVotingPower
	if weight.LessThan(need) {
		return governance.Vote{}, governance.Proposal{}, &governance.PowerError{
			Err:      governance.ErrInsufficientPower,
			Identity: req.Voter,
			Have:     weight,
			Need:     need,
		}
	}
	vote = governance.Vote{
		ID:           uuid.NewString(),
		ProposalID:   id,
		Voter:        req.Voter,
		VoterAccount: req.VoterAccount,
		Choice:       req.Choice,
		Weight:       weight,
		CastAt:       now,
	}
	if vote.VoterAccount == "" {
		vote.VoterAccount = vote.Voter
	}
	tally := p.Tally.Add(req.Choice, weight)
	err = e.db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := e.db.AddVote(vote, txn); err != nil {
			return err
		}
		next, err := e.db.UpdateProposal(id, governance.Patch{Tally: &tally}, txn)
		if err != nil {
			return err
		}
		ret = next
		return nil
	})
	if err != nil {
		return governance.Vote{}, governance.Proposal{}, e.storageError("cast vote", err)
	}
	e.logger.Debug(
		"vote cast",
		"proposal", id,
		"voter", req.Voter,
		"choice", req.Choice,
		"weight", weight.String(),
	)
	if e.metrics != nil {
		e.metrics.votes.WithLabelValues(string(req.Choice)).Inc()
	}
	e.publish(
		event.VoteCastEventType,
		event.VoteCastEvent{
			ProposalID: id,
			Voter:      req.Voter,
			Choice:     req.Choice,
			Weight:     weight,
			Tally:      ret.Tally,
		},
	)
	return vote, ret, nil
}

// Advance applies every transition that has become due and returns the proposal
func (e *Engine) Advance(
	ctx context.Context,
	id string,
) (ret governance.Proposal, err error) {
	_, span := e.startSpan(ctx, "Advance", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "advance", err) }()
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.settle(id)
}

// Execute carries out a passed proposal. A treasury management proposal with
// funding creates a pending treasury transaction in the same database transaction.
func (e *Engine) Execute(
	ctx context.Context,
	id string,
) (ret ExecutionResult, err error) {
	ctx, span := e.startSpan(ctx, "Execute", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "execute", err) }()
	unlock := e.locks.Lock(id)
	defer unlock()
	p, err := e.settle(id)
	if err != nil {
		return ExecutionResult{}, err
	}
	switch p.Status {
	case governance.StatusPassed:
	case governance.StatusExecuted:
		return ExecutionResult{}, fmt.Errorf(
			"proposal %s: %w",
			id,
			governance.ErrAlreadyExecuted,
		)
	default:
		return ExecutionResult{}, governance.NewPhaseError("execute", p.Status)
	}
	executed := governance.StatusExecuted
	executedAt := e.now()
	patch := governance.Patch{Status: &executed, ExecutedAt: &executedAt}
	var payout *governance.TreasuryTransaction
	err = e.db.Transaction(true).Do(func(txn *database.Txn) error {
		if p.Category == governance.CategoryTreasuryManagement && p.Funding().IsPositive() {
			tx, err := e.gate.Propose(
				ctx,
				governance.TransactionRequest{
					Kind:        governance.TxKindSpending,
					Amount:      p.Funding(),
					Currency:    e.config.currency,
					Recipient:   p.CreatorAccount,
					Description: p.Title,
					ProposalID:  p.ID,
				},
				txn,
			)
			if err != nil {
				return err
			}
			payout = &tx
			patch.TreasuryTxID = &tx.ID
		}
		next, err := e.db.UpdateProposal(id, patch, txn)
		if err != nil {
			return err
		}
		ret.Proposal = next
		return nil
	})
	if err != nil {
		return ExecutionResult{}, e.storageError("execute", err)
	}
	ret.Transaction = payout
	e.recordTransition(id, p.Status, executed)
	if payout != nil {
		e.logger.Info(
			"treasury payout proposed",
			"proposal", id,
			"transaction", payout.ID,
			"amount", payout.Amount.String(),
		)
		e.gate.Announce(*payout)
	}
	return ret, nil
}

// Cancel withdraws a proposal before voting starts. Only the creator may cancel.
func (e *Engine) Cancel(
	ctx context.Context,
	id string,
	actor string,
) (ret governance.Proposal, err error) {
	_, span := e.startSpan(ctx, "Cancel", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "cancel", err) }()
	unlock := e.locks.Lock(id)
	defer unlock()
	p, err := e.settle(id)
	if err != nil {
		return governance.Proposal{}, err
	}
	if actor != p.Creator {
		return governance.Proposal{}, fmt.Errorf(
			"%w: only the creator may cancel proposal %s",
			governance.ErrUnauthorized,
			id,
		)
	}
	if p.Status != governance.StatusDraft && p.Status != governance.StatusDiscussion {
		return governance.Proposal{}, governance.NewPhaseError("cancel", p.Status)
	}
	next, err := e.db.UpdateProposal(id, governance.StatusPatch(governance.StatusCancelled), nil)
	if err != nil {
		return governance.Proposal{}, e.storageError("cancel", err)
	}
	e.recordTransition(id, p.Status, next.Status)
	return next, nil
}

// GetProposal returns a proposal after applying any transition that has become due
func (e *Engine) GetProposal(
	ctx context.Context,
	id string,
) (ret governance.Proposal, err error) {
	_, span := e.startSpan(ctx, "GetProposal", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "get_proposal", err) }()
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.settle(id)
}

// ListProposals returns proposals matching filter, newest first. Transitions that
// have become due are applied before filtering.
func (e *Engine) ListProposals(
	ctx context.Context,
	filter governance.Filter,
) (ret []governance.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "ListProposals")
	defer func() { e.finish(span, "list_proposals", err) }()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.advanceElapsed(ctx); err != nil {
		return nil, err
	}
	// The limit applies after settling, since a proposal can leave the filter
	query := filter
	query.Limit = 0
	proposals, err := e.db.ListProposals(query, nil)
	if err != nil {
		return nil, e.storageError("list proposals", err)
	}
	now := e.now()
	ret = make([]governance.Proposal, 0, len(proposals))
	for _, p := range proposals {
		if filter.Limit > 0 && len(ret) >= filter.Limit {
			break
		}
		if _, due := governance.NextTransition(p, now); due {
			unlock := e.locks.Lock(p.ID)
			p, err = e.settle(p.ID)
			unlock()
			if err != nil {
				return nil, err
			}
			if !filter.Match(p) {
				continue
			}
		}
		ret = append(ret, p)
	}
	return ret, nil
}

// Votes returns the votes cast on a proposal in the order they were cast
func (e *Engine) Votes(
	ctx context.Context,
	id string,
) (ret []governance.Vote, err error) {
	_, span := e.startSpan(ctx, "Votes", attribute.String("proposal.id", id))
	defer func() { e.finish(span, "votes", err) }()
	if _, err := e.db.GetProposal(id, nil); err != nil {
		return nil, e.storageError("get proposal", err)
	}
	votes, err := e.db.GetVotes(id, nil)
	if err != nil {
		return nil, e.storageError("get votes", err)
	}
	return votes, nil
}

// Summary returns aggregate governance metrics over all proposals
func (e *Engine) Summary(ctx context.Context) (governance.Summary, error) {
	proposals, err := e.ListProposals(ctx, governance.Filter{})
	if err != nil {
		return governance.Summary{}, err
	}
	return governance.Summarize(proposals, e.config.params.CirculatingSupply), nil
}

// advanceElapsed settles every open proposal whose current window has ended and
// returns how many changed status
func (e *Engine) advanceElapsed(ctx context.Context) (int, error) {
	candidates, err := e.db.ListProposalsByStatus(
		[]governance.Status{governance.StatusDiscussion, governance.StatusVoting},
		nil,
	)
	if err != nil {
		return 0, e.storageError("list open proposals", err)
	}
	now := e.now()
	advanced := 0
	var errs []error
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, due := governance.NextTransition(p, now); !due {
			continue
		}
		unlock := e.locks.Lock(p.ID)
		next, err := e.settle(p.ID)
		unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("proposal %s: %w", p.ID, err))
			continue
		}
		if next.Status != p.Status {
			advanced++
		}
	}
	return advanced, errors.Join(errs...)
}

// Sweep advances every proposal whose discussion or voting window has elapsed
func (e *Engine) Sweep(ctx context.Context) (advanced int, err error) {
	ctx, span := e.startSpan(ctx, "Sweep")
	defer func() {
		span.SetAttributes(attribute.Int("sweep.advanced", advanced))
		e.finish(span, "sweep", err)
	}()
	advanced, err = e.advanceElapsed(ctx)
	if e.metrics != nil {
		e.metrics.sweeps.Inc()
		e.metrics.sweepAdvanced.Add(float64(advanced))
	}
	if advanced > 0 {
		e.logger.Debug("sweep advanced proposals", "count", advanced)
	}
	return advanced, err
}

// Run sweeps once immediately and then every interval until ctx is done
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf(
			"%w: sweep interval must be positive, got %s",
			governance.ErrInvalidArgument,
			interval,
		)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := e.Sweep(ctx); err != nil && ctx.Err() == nil {
			e.logger.Warn("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
