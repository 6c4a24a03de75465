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

package holdings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/decentramind-labs/govengine/power"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLedger = `currency: DMT
accounts:
  treasury:
    balance: "50000"
  alice:
    balance: 1200
    staked: "300.5"
`

func writeLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLedger), 0o600))
	return path
}

func TestOpen(t *testing.T) {
	l, err := Open(writeLedger(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "DMT", l.Currency())
	assert.Equal(t, []string{"alice", "treasury"}, l.Identities())
	staked, err := l.GetStakedAmount(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, staked.Equal(decimal.RequireFromString("300.5")))
	_, err = l.GetBalance(context.Background(), "bob")
	require.ErrorIs(t, err, power.ErrUnknownIdentity)
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	l, err := Open(path, nil)
	require.NoError(t, err)
	assert.Empty(t, l.Identities())
	require.NoError(t, l.SetAccount("bob", Account{Balance: decimal.NewFromInt(5)}))
	reopened, err := Open(path, nil)
	require.NoError(t, err)
	acct, ok := reopened.Account("bob")
	require.True(t, ok)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(5)))
}

func TestTransfer(t *testing.T) {
	path := writeLedger(t)
	l, err := Open(path, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, l.Transfer(ctx, "treasury", "carol", decimal.NewFromInt(2500), "DMT"))
	carol, ok := l.Account("carol")
	require.True(t, ok)
	assert.True(t, carol.Balance.Equal(decimal.NewFromInt(2500)))
	treasury, _ := l.Account("treasury")
	assert.True(t, treasury.Balance.Equal(decimal.NewFromInt(47500)))

	// persisted
	reopened, err := Open(path, nil)
	require.NoError(t, err)
	carol, ok = reopened.Account("carol")
	require.True(t, ok)
	assert.True(t, carol.Balance.Equal(decimal.NewFromInt(2500)))
}

func TestTransferErrors(t *testing.T) {
	l := New("DMT", nil)
	require.NoError(t, l.SetAccount("treasury", Account{Balance: decimal.NewFromInt(10)}))
	ctx := context.Background()
	require.ErrorIs(t, l.Transfer(ctx, "treasury", "bob", decimal.NewFromInt(11), "DMT"), ErrInsufficientFunds)
	require.ErrorIs(t, l.Transfer(ctx, "treasury", "bob", decimal.NewFromInt(1), "USD"), ErrCurrencyMismatch)
	require.ErrorIs(t, l.Transfer(ctx, "treasury", "bob", decimal.Zero, "DMT"), ErrInvalidAmount)
	require.ErrorIs(t, l.Transfer(ctx, "nobody", "bob", decimal.NewFromInt(1), "DMT"), ErrUnknownSender)
	_, ok := l.Account("bob")
	assert.False(t, ok)
	treasury, _ := l.Account("treasury")
	assert.True(t, treasury.Balance.Equal(decimal.NewFromInt(10)))
}

func TestSetAccountNegative(t *testing.T) {
	l := New("", nil)
	assert.Equal(t, DefaultCurrency, l.Currency())
	require.Error(t, l.SetAccount("x", Account{Balance: decimal.NewFromInt(-1)}))
}
