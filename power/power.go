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

// Package power derives voting weight from token holdings
package power

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownIdentity is returned by a Provider that has no record of an identity
var ErrUnknownIdentity = errors.New("unknown identity")

// Provider resolves the holdings of an identity
type Provider interface {
	GetBalance(ctx context.Context, identity string) (decimal.Decimal, error)
	GetStakedAmount(ctx context.Context, identity string) (decimal.Decimal, error)
}

// Calculator computes the effective weight of an identity as
// balance + staked * bonus factor
type Calculator struct {
	provider    Provider
	bonusFactor decimal.Decimal
	timeout     time.Duration
	logger      *slog.Logger
}

// NewCalculator creates a Calculator. A nil logger discards output.
func NewCalculator(
	provider Provider,
	bonusFactor decimal.Decimal,
	timeout time.Duration,
	logger *slog.Logger,
) *Calculator {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Calculator{
		provider:    provider,
		bonusFactor: bonusFactor,
		timeout:     timeout,
		logger:      logger.With("component", "power"),
	}
}

// WeightOf returns the voting weight of identity. An identity unknown to the provider
// has a weight of zero. A provider failure or timeout returns ErrProviderUnavailable.
func (c *Calculator) WeightOf(
	ctx context.Context,
	identity string,
) (decimal.Decimal, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var balance, staked decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = c.lookup(gctx, "balance", identity, c.provider.GetBalance)
		return err
	})
	g.Go(func() error {
		var err error
		staked, err = c.lookup(gctx, "staked amount", identity, c.provider.GetStakedAmount)
		return err
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}
	return balance.Add(staked.Mul(c.bonusFactor)), nil
}

// Balance returns the plain token balance of identity with the same unknown and
// timeout handling as WeightOf
func (c *Calculator) Balance(
	ctx context.Context,
	identity string,
) (decimal.Decimal, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.lookup(ctx, "balance", identity, c.provider.GetBalance)
}

func (c *Calculator) withTimeout(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

type lookupFunc func(context.Context, string) (decimal.Decimal, error)

// lookup runs a single provider call and enforces the context deadline even if
// the provider ignores it
func (c *Calculator) lookup(
	ctx context.Context,
	what string,
	identity string,
	fn lookupFunc,
) (decimal.Decimal, error) {
	type result struct {
		value decimal.Decimal
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		v, err := fn(ctx, identity)
		resultCh <- result{value: v, err: err}
	}()
	var res result
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	if res.err != nil {
		if errors.Is(res.err, ErrUnknownIdentity) {
			return decimal.Zero, nil
		}
		if errors.Is(res.err, context.DeadlineExceeded) {
			c.logger.Warn(
				"provider lookup timed out",
				"identity", identity,
				"lookup", what,
				"timeout", c.timeout,
			)
		} else {
			c.logger.Warn(
				"provider lookup failed",
				"identity", identity,
				"lookup", what,
				"error", res.err,
			)
		}
		return decimal.Zero, fmt.Errorf(
			"%s lookup for %s: %w: %w",
			what,
			identity,
			governance.ErrProviderUnavailable,
			res.err,
		)
	}
	if res.value.IsNegative() {
		return decimal.Zero, nil
	}
	return res.value, nil
}
