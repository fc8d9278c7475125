// Copyright 2018 The go-n3ro Authors
// This file is part of go-n3ro.
//
// go-n3ro is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-n3ro is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-n3ro. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/internal/n3roapi"
	"github.com/n3roai/go-n3ro/internal/x402"
	"github.com/n3roai/go-n3ro/trade"
)

var (
	httpHostFlag = cli.StringFlag{
		Name:  "http.addr",
		Usage: "HTTP server listening interface",
	}
	httpPortFlag = cli.IntFlag{
		Name:  "http.port",
		Usage: "HTTP server listening port",
	}
	httpCorsFlag = cli.StringFlag{
		Name:  "http.corsdomain",
		Usage: "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
	}
	distributionFlag = cli.BoolFlag{
		Name:  "trade.distribute",
		Usage: "Distribute settlements for executed trades",
	}
	signalFlag = cli.BoolFlag{
		Name:  "trade.signal",
		Usage: "Submit reputation signals for executed trades",
	}

	serveCommand = cli.Command{
		Action:   serve,
		Name:     "serve",
		Usage:    "Serve the HTTP API and trade hooks",
		Flags:    []cli.Flag{httpHostFlag, httpPortFlag, httpCorsFlag, distributionFlag, signalFlag},
		Category: "MISCELLANEOUS COMMANDS",
		Description: `The serve command exposes protocol records over HTTP and accepts executed
trades on POST /trade/execute, running the enabled post-trade hooks as the
configured [Trade] operator and signaler. When [Payment] lists accepted
payment options, trade execution requires an x402 payment verified and
settled by the configured facilitator.`,
	}
)

// applyHTTPFlags overrides the HTTP settings with command line flags.
func applyHTTPFlags(ctx *cli.Context, cfg *nodeConfig) {
	if ctx.IsSet(httpHostFlag.Name) {
		cfg.HTTPHost = ctx.String(httpHostFlag.Name)
	}
	if ctx.IsSet(httpPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(httpPortFlag.Name)
	}
	if ctx.IsSet(httpCorsFlag.Name) {
		cfg.HTTPCors = splitAndTrim(ctx.String(httpCorsFlag.Name))
	}
}

// splitAndTrim splits input separated by a comma and trims excessive white
// space from the substrings.
func splitAndTrim(input string) (ret []string) {
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); len(r) > 0 {
			ret = append(ret, r)
		}
	}
	return ret
}

// makePaywall returns the trade paywall, or nil if no payment is required.
func makePaywall(cfg *x402.Config) (*x402.Paywall, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	paywall, err := x402.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid [Payment] config: %w", err)
	}
	log.Info("Trade execution requires payment", "facilitator", cfg.FacilitatorURL, "options", len(cfg.Accepts))
	return paywall, nil
}

func serve(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	if ctx.IsSet(distributionFlag.Name) {
		cfg.Trade.DistributionEnabled = ctx.Bool(distributionFlag.Name)
	}
	if ctx.IsSet(signalFlag.Name) {
		cfg.Trade.SignalEnabled = ctx.Bool(signalFlag.Name)
	}
	paywall, err := makePaywall(&cfg.Payment)
	if err != nil {
		return err
	}
	p, closeFn := openProtocol(ctx, &cfg)
	defer closeFn()

	trades := trade.NewService(p, cfg.Trade)
	srv := n3roapi.NewServer(n3roapi.NewProtocolAPI(p), trades, paywall)

	addr := net.JoinHostPort(cfg.Node.HTTPHost, fmt.Sprint(cfg.Node.HTTPPort))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(cfg.Node.HTTPCors),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info("HTTP server started", "endpoint", listener.Addr(), "cors", strings.Join(cfg.Node.HTTPCors, ","),
		"distribution", cfg.Trade.DistributionEnabled, "signal", cfg.Trade.SignalEnabled)

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.Serve(listener) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-sigc:
		log.Info("Got interrupt, shutting down...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", "err", err)
	}
	trades.Wait()
	log.Info("HTTP server stopped")
	return nil
}
