// Copyright 2018 The go-n3ro Authors
// This file is part of the go-n3ro library.
//
// The go-n3ro library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-n3ro library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-n3ro library. If not, see <http://www.gnu.org/licenses/>.
package n3roapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/internal/x402"
	"github.com/n3roai/go-n3ro/trade"
)

// maxRequestBodySize bounds trade command bodies.
const maxRequestBodySize = 1 << 20

// Server routes HTTP requests to the protocol API and the trade service.
type Server struct {
	api     *ProtocolAPI
	trades  *trade.Service
	paywall *x402.Paywall
	router  *httprouter.Router
	log     log.Logger
}

// NewServer creates the HTTP surface. trades may be nil, in which case
// trade execution is not served. A non-nil paywall charges for every trade
// execution.
func NewServer(api *ProtocolAPI, trades *trade.Service, paywall *x402.Paywall) *Server {
	s := &Server{
		api:     api,
		trades:  trades,
		paywall: paywall,
		router:  httprouter.New(),
		log:     log.New("module", "http"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)
	if s.trades != nil {
		execute := httprouter.Handle(s.handleExecuteTrade)
		if s.paywall != nil {
			execute = s.paywall.Wrap(execute)
		}
		s.router.POST("/trade/execute", execute)
	}

	s.router.GET("/protocol", s.handleProtocol)
	s.router.GET("/roles/:kind/:member", s.handleRole)
	s.router.GET("/tokens/:address", s.handleTokenAccount)

	s.router.GET("/agents/:id", s.handleAgent)
	s.router.GET("/agents/:id/verification", s.handleVerification)
	s.router.GET("/agents/:id/reputation", s.handleReputation)
	s.router.GET("/agents/:id/split", s.handleSplit)
	s.router.GET("/agents/:id/signals/:trade", s.handleSignal)
	s.router.GET("/agents/:id/receipts/:reference", s.handleReceipt)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server wrapped in a CORS handler for the given
// origins. Without origins the server is returned as is.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return s
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{x402.RequiredHeader, x402.ResponseHeader},
		MaxAge:         600,
	})
	return c.Handler(s)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.log.Debug("Failed to read request body", "err", err)
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	cmd, err := trade.ParseCommand(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.trades.ExecuteTrade(cmd))
}

func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.respond(w, r)(s.api.ProtocolConfig(r.Context()))
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, err := types.ParseRoleKind(ps.ByName("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	member, ok := parseAddress(w, ps.ByName("member"))
	if !ok {
		return
	}
	s.respond(w, r)(s.api.GetRole(r.Context(), kind, member))
}

func (s *Server) handleTokenAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, ok := parseAddress(w, ps.ByName("address"))
	if !ok {
		return
	}
	s.respond(w, r)(s.api.GetTokenAccount(r.Context(), addr))
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetAgent(r.Context(), id))
	}
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetVerification(r.Context(), id))
	}
}

func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetReputation(r.Context(), id))
	}
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetSplit(r.Context(), id))
	}
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetSignal(r.Context(), id, tradeKey(ps.ByName("trade"))))
	}
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := parseAgentID(w, ps); ok {
		s.respond(w, r)(s.api.GetReceipt(r.Context(), id, tradeKey(ps.ByName("reference"))))
	}
}

// respond writes the outcome of an API call.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) func(interface{}, error) {
	return func(result interface{}, err error) {
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, result)
		case errors.Is(err, ErrRecordNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, context.Canceled):
			s.log.Debug("Request cancelled", "path", r.URL.Path)
		default:
			s.log.Error("Unhandled request error", "path", r.URL.Path, "method", r.Method, "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

// tradeKey accepts either a 32 byte hex hash or a raw trade id, which is
// hashed the same way the trade service derives references.
func tradeKey(s string) common.Hash {
	if trade.IsBytes32Hex(s) {
		return common.HexToHash(s)
	}
	return trade.TradeIDHash(s)
}

func parseAgentID(w http.ResponseWriter, ps httprouter.Params) (hexutil.Uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ps.ByName("id")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "agent id must be a non-negative integer")
		return 0, false
	}
	return hexutil.Uint64(id), true
}

func parseAddress(w http.ResponseWriter, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		writeError(w, http.StatusBadRequest, "invalid address "+strconv.Quote(s))
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
