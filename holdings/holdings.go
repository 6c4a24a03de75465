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

// Package holdings implements a file backed token ledger that serves balance and
// staking lookups and moves treasury funds
package holdings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/decentramind-labs/govengine/power"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const DefaultCurrency = "DMT"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrUnknownSender     = errors.New("unknown sender account")
)

// Account holds the liquid and staked tokens of a single identity
type Account struct {
	Balance decimal.Decimal `yaml:"balance"`
	Staked  decimal.Decimal `yaml:"staked"`
}

type ledgerFile struct {
	Currency string             `yaml:"currency"`
	Accounts map[string]Account `yaml:"accounts"`
}

// Ledger is an in-memory account ledger, optionally persisted to a YAML file
type Ledger struct {
	mu       sync.RWMutex
	path     string
	currency string
	accounts map[string]Account
	logger   *slog.Logger
}

// New creates an empty in-memory ledger
func New(currency string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Ledger{
		currency: currency,
		accounts: make(map[string]Account),
		logger:   logger.With("component", "holdings"),
	}
}

// Open loads a ledger from path. A missing file yields an empty ledger that is
// created on the first write.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	l := New("", logger)
	l.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("ledger file does not exist, starting empty", "path", path)
			return l, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var f ledgerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger file %s: %w", path, err)
	}
	if f.Currency != "" {
		l.currency = f.Currency
	}
	for id, acct := range f.Accounts {
		if acct.Balance.IsNegative() || acct.Staked.IsNegative() {
			return nil, fmt.Errorf("account %s: negative holdings", id)
		}
		l.accounts[id] = acct
	}
	l.logger.Debug(
		"loaded ledger",
		"path", path,
		"accounts", len(l.accounts),
	)
	return l, nil
}

// Currency returns the ledger currency
func (l *Ledger) Currency() string {
	return l.currency
}

// SetAccount creates or replaces the holdings of identity
func (l *Ledger) SetAccount(identity string, acct Account) error {
	if acct.Balance.IsNegative() || acct.Staked.IsNegative() {
		return fmt.Errorf("account %s: negative holdings", identity)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[identity] = acct
	return l.saveLocked()
}

// Account returns the holdings of identity
func (l *Ledger) Account(identity string) (Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[identity]
	return acct, ok
}

// Identities returns the known identities in sorted order
func (l *Ledger) Identities() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.accounts))
}

// GetBalance implements power.Provider
func (l *Ledger) GetBalance(
	ctx context.Context,
	identity string,
) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	acct, ok := l.Account(identity)
	if !ok {
		return decimal.Zero, power.ErrUnknownIdentity
	}
	return acct.Balance, nil
}

// GetStakedAmount implements power.Provider
func (l *Ledger) GetStakedAmount(
	ctx context.Context,
	identity string,
) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	acct, ok := l.Account(identity)
	if !ok {
		return decimal.Zero, power.ErrUnknownIdentity
	}
	return acct.Staked, nil
}

// Transfer moves amount of liquid balance from sender to recipient. The recipient
// account is created if needed. No state changes when an error is returned.
func (l *Ledger) Transfer(
	ctx context.Context,
	sender string,
	recipient string,
	amount decimal.Decimal,
	currency string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if currency != l.currency {
		return fmt.Errorf("%w: ledger holds %s, got %s", ErrCurrencyMismatch, l.currency, currency)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	from, ok := l.accounts[sender]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSender, sender)
	}
	if from.Balance.LessThan(amount) {
		return fmt.Errorf(
			"%w: %s has %s, needs %s",
			ErrInsufficientFunds,
			sender,
			from.Balance.String(),
			amount.String(),
		)
	}
	prev := map[string]Account{sender: from}
	if acct, exists := l.accounts[recipient]; exists {
		prev[recipient] = acct
	}
	from.Balance = from.Balance.Sub(amount)
	l.accounts[sender] = from
	to := l.accounts[recipient]
	to.Balance = to.Balance.Add(amount)
	l.accounts[recipient] = to
	if err := l.saveLocked(); err != nil {
		delete(l.accounts, recipient)
		maps.Copy(l.accounts, prev)
		return err
	}
	l.logger.Debug(
		"transferred funds",
		"sender", sender,
		"recipient", recipient,
		"amount", amount.String(),
		"currency", currency,
	)
	return nil
}

// Save writes the ledger to its file, if it has one
func (l *Ledger) Save() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.saveLocked()
}

func (l *Ledger) saveLocked() error {
	if l.path == "" {
		return nil
	}
	data, err := yaml.Marshal(ledgerFile{
		Currency: l.currency,
		Accounts: l.accounts,
	})
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
