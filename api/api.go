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

// Package api exposes the governance engine over connect RPC
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/decentramind-labs/govengine"
	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/governance"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type API struct {
	config   APIConfig
	server   *http.Server
	listener net.Listener
	serveWg  sync.WaitGroup
}

type APIConfig struct {
	Logger          *slog.Logger
	Engine          *govengine.Engine
	Host            string
	Port            uint
	TlsCertFilePath string
	TlsKeyFilePath  string
}

func NewAPI(cfg APIConfig) *API {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "api")
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	return &API{
		config: cfg,
	}
}

// unary registers a connect handler for procedure on mux
func unary[Req, Res any](
	a *API,
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *Req) (*Res, error),
	opts ...connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(
			ctx context.Context,
			req *connect.Request[Req],
		) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				if !governance.Classified(err) {
					a.config.Logger.Error(
						"request failed",
						"procedure", procedure,
						"error", err,
					)
				}
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}

// Handler returns the HTTP handler serving both services and the health check
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithCompressMinBytes(1024),
	}
	engine := a.config.Engine
	gate := engine.Treasury()

	unary(a, mux, CreateProposalProcedure,
		func(ctx context.Context, req *governance.ProposalRequest) (*ProposalResponse, error) {
			p, err := engine.CreateProposal(ctx, *req)
			if err != nil {
				return nil, err
			}
			return &ProposalResponse{Proposal: p}, nil
		}, opts...)
	unary(a, mux, GetProposalProcedure,
		func(ctx context.Context, req *ProposalIDRequest) (*ProposalResponse, error) {
			p, err := engine.GetProposal(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &ProposalResponse{Proposal: p}, nil
		}, opts...)
	unary(a, mux, ListProposalsProcedure,
		func(ctx context.Context, req *governance.Filter) (*ListProposalsResponse, error) {
			proposals, err := engine.ListProposals(ctx, *req)
			if err != nil {
				return nil, err
			}
			return &ListProposalsResponse{Proposals: proposals}, nil
		}, opts...)
	unary(a, mux, EndorseProcedure,
		func(ctx context.Context, req *EndorseRequest) (*ProposalResponse, error) {
			p, err := engine.Endorse(ctx, req.ID, req.Endorser)
			if err != nil {
				return nil, err
			}
			return &ProposalResponse{Proposal: p}, nil
		}, opts...)
	unary(a, mux, CastVoteProcedure,
		func(ctx context.Context, req *governance.VoteRequest) (*CastVoteResponse, error) {
			vote, p, err := engine.CastVote(ctx, *req)
			if err != nil {
				return nil, err
			}
			return &CastVoteResponse{Vote: vote, Proposal: p}, nil
		}, opts...)
	unary(a, mux, AdvanceProcedure,
		func(ctx context.Context, req *ProposalIDRequest) (*ProposalResponse, error) {
			p, err := engine.Advance(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &ProposalResponse{Proposal: p}, nil
		}, opts...)
	unary(a, mux, ExecuteProcedure,
		func(ctx context.Context, req *ProposalIDRequest) (*ExecuteResponse, error) {
			res, err := engine.Execute(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &ExecuteResponse{Proposal: res.Proposal, Transaction: res.Transaction}, nil
		}, opts...)
	unary(a, mux, CancelProcedure,
		func(ctx context.Context, req *CancelRequest) (*ProposalResponse, error) {
			p, err := engine.Cancel(ctx, req.ID, req.Actor)
			if err != nil {
				return nil, err
			}
			return &ProposalResponse{Proposal: p}, nil
		}, opts...)
	unary(a, mux, ListVotesProcedure,
		func(ctx context.Context, req *ProposalIDRequest) (*ListVotesResponse, error) {
			votes, err := engine.Votes(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &ListVotesResponse{Votes: votes}, nil
		}, opts...)
	unary(a, mux, SummaryProcedure,
		func(ctx context.Context, _ *SummaryRequest) (*governance.Summary, error) {
			summary, err := engine.Summary(ctx)
			if err != nil {
				return nil, err
			}
			return &summary, nil
		}, opts...)

	unary(a, mux, ListTransactionsProcedure,
		func(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
			txs, err := gate.List(ctx, database.TreasuryFilter{
				Status:     req.Status,
				ProposalID: req.ProposalID,
				Limit:      req.Limit,
			})
			if err != nil {
				return nil, err
			}
			return &ListTransactionsResponse{Transactions: txs}, nil
		}, opts...)
	unary(a, mux, GetTransactionProcedure,
		func(ctx context.Context, req *TransactionIDRequest) (*TransactionResponse, error) {
			tx, err := gate.Get(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &TransactionResponse{Transaction: tx}, nil
		}, opts...)
	unary(a, mux, ApproveTransactionProcedure,
		func(ctx context.Context, req *SignRequest) (*TransactionResponse, error) {
			tx, err := gate.Approve(ctx, req.ID, req.Signer)
			if err != nil {
				return nil, err
			}
			return &TransactionResponse{Transaction: tx}, nil
		}, opts...)
	unary(a, mux, RejectTransactionProcedure,
		func(ctx context.Context, req *SignRequest) (*TransactionResponse, error) {
			tx, err := gate.Reject(ctx, req.ID, req.Signer)
			if err != nil {
				return nil, err
			}
			return &TransactionResponse{Transaction: tx}, nil
		}, opts...)
	unary(a, mux, ExecuteTransactionProcedure,
		func(ctx context.Context, req *TransactionIDRequest) (*TransactionResponse, error) {
			tx, err := gate.Execute(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &TransactionResponse{Transaction: tx}, nil
		}, opts...)

	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(
				GovernanceServiceName,
				TreasuryServiceName,
			),
			connect.WithCompressMinBytes(1024),
		),
	)
	return mux
}

// Start begins serving in the background. It returns once the listener is bound.
func (a *API) Start() error {
	if a.config.Engine == nil {
		return errors.New("api requires an engine")
	}
	addr := net.JoinHostPort(a.config.Host, fmt.Sprintf("%d", a.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	a.listener = listener
	useTls := a.config.TlsCertFilePath != "" && a.config.TlsKeyFilePath != ""
	a.server = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	if useTls {
		a.server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		a.config.Logger.Info("starting API TLS listener", "address", listener.Addr().String())
	} else {
		// Use h2c so we can serve HTTP/2 without TLS
		a.server.Handler = h2c.NewHandler(a.server.Handler, &http2.Server{})
		a.config.Logger.Info("starting API listener", "address", listener.Addr().String())
	}
	a.serveWg.Add(1)
	go func() {
		defer a.serveWg.Done()
		var err error
		if useTls {
			err = a.server.ServeTLS(listener, a.config.TlsCertFilePath, a.config.TlsKeyFilePath)
		} else {
			err = a.server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.config.Logger.Error("API server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or nil before Start
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Stop gracefully shuts down the server
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown(ctx)
	a.serveWg.Wait()
	return err
}
