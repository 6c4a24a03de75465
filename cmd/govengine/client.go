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
	"errors"
	"fmt"
	"net"

	"github.com/decentramind-labs/govengine/api"
	"github.com/decentramind-labs/govengine/internal/config"
	"github.com/spf13/cobra"
)

// serverURL returns the --server flag, or the address the configured API listens on
func serverURL(cfg *config.Config) string {
	if globalFlags.server != "" {
		return globalFlags.server
	}
	host := cfg.BindAddr
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	scheme := "http"
	if cfg.TlsCertFilePath != "" {
		scheme = "https"
	}
	return fmt.Sprintf(
		"%s://%s",
		scheme,
		net.JoinHostPort(host, fmt.Sprintf("%d", cfg.ApiPort)),
	)
}

func newClient(cmd *cobra.Command) (*api.Client, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errors.New("no config found in context")
	}
	return api.NewClient(nil, serverURL(cfg)), nil
}
