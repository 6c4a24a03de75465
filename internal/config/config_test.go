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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "govengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ".govengine", cfg.DataDir)
	assert.Equal(t, uint(DefaultApiPort), cfg.ApiPort)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	params, err := cfg.Params()
	require.NoError(t, err)
	defaults := governance.DefaultParams()
	assert.Equal(t, defaults.MinEndorsements, params.MinEndorsements)
	assert.True(t, defaults.CirculatingSupply.Equal(params.CirculatingSupply))
	assert.Equal(t, defaults.Categories, params.Categories)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
dataDir: /var/lib/govengine
apiPort: 9940
sweepInterval: 30s
treasurySigners: [s1, s2]
governance:
  circulatingSupply: "250000"
  minEndorsements: 5
  majority:
    constitution: "0.7"
  categories:
    emergency:
      votingPeriod: 24h
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/govengine", cfg.DataDir)
	assert.Equal(t, uint(9940), cfg.ApiPort)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"s1", "s2"}, cfg.TreasurySigners)
	// untouched values keep their defaults
	assert.Equal(t, uint(DefaultMetricsPort), cfg.MetricsPort)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.True(t, params.CirculatingSupply.Equal(decimal.NewFromInt(250_000)))
	assert.Equal(t, 5, params.MinEndorsements)
	assert.True(t, params.Majority.Constitution.Equal(decimal.RequireFromString("0.7")))
	assert.True(t, params.Majority.Standard.Equal(decimal.RequireFromString("0.5")))
	emergency := params.Categories[governance.CategoryEmergency]
	assert.Equal(t, 24*time.Hour, emergency.VotingPeriod)
	assert.Equal(t, 12*time.Hour, emergency.DiscussionPeriod)
	assert.True(t, emergency.QuorumFraction.Equal(decimal.RequireFromString("0.05")))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "apiPort: 9940\n")
	t.Setenv("GOVENGINE_API_PORT", "7000")
	t.Setenv("GOVENGINE_TREASURY_SIGNERS", "a,b,c")
	t.Setenv("GOVENGINE_GOVERNANCE_MULTI_SIG_THRESHOLD", "2")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.TreasurySigners)
	assert.Equal(t, 2, cfg.Governance.MultiSigThreshold)
}

func TestLoad_StorageSection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "storage:\n  blobBlockCacheSize: 1048576\n  blobGcInterval: 10m\n  metadataVacuumInterval: -1s\n")
	t.Setenv("GOVENGINE_STORAGE_BLOB_GC_DISABLED", "true")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<20), cfg.Storage.BlobBlockCacheSize)
	assert.Equal(t, uint64(0), cfg.Storage.BlobIndexCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.Storage.BlobGcInterval)
	assert.True(t, cfg.Storage.BlobGcDisabled)
	assert.Equal(t, -time.Second, cfg.Storage.MetadataVacuumInterval)
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "unknown category", content: "governance:\n  categories:\n    lottery:\n      votingPeriod: 1h\n"},
		{name: "quorum above one", content: "governance:\n  categories:\n    governance:\n      quorum: \"1.5\"\n"},
		{name: "tls cert without key", content: "tlsCertFilePath: cert.pem\n"},
		{name: "zero sweep interval", content: "sweepInterval: 0s\n"},
		{name: "negative blob gc interval", content: "storage:\n  blobGcInterval: -1m\n"},
		{name: "malformed yaml", content: "apiPort: [\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, testDef.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := Default()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
