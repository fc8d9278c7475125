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


package x402

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/julienschmidt/httprouter"
)

// HTTP headers carrying x402 messages, all base64 encoded JSON.
const (
	PaymentHeader       = "PAYMENT-SIGNATURE"
	LegacyPaymentHeader = "X-PAYMENT"
	RequiredHeader      = "PAYMENT-REQUIRED"
	ResponseHeader      = "PAYMENT-RESPONSE"
)

var (
	requiredCounter = metrics.NewRegisteredCounter("n3ro/x402/required", nil)
	rejectedCounter = metrics.NewRegisteredCounter("n3ro/x402/rejected", nil)
	settledCounter  = metrics.NewRegisteredCounter("n3ro/x402/settled", nil)
)

// Resource names the gated resource in a 402 response.
type Resource struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// PaymentRequired is the body of a 402 response.
type PaymentRequired struct {
	X402Version int            `json:"x402Version"`
	Error       string         `json:"error,omitempty"`
	Resource    *Resource      `json:"resource,omitempty"`
	Accepts     []Requirements `json:"accepts"`
}

// payload holds the fields of a client payment used to pick the requirement
// it pays for. The full payload is forwarded to the facilitator untouched.
type payload struct {
	X402Version int           `json:"x402Version"`
	Scheme      string        `json:"scheme"`
	Network     string        `json:"network"`
	Accepted    *Requirements `json:"accepted"`
}

// Verifier checks and settles payments, usually a *Facilitator.
type Verifier interface {
	Verify(ctx context.Context, payload json.RawMessage, req Requirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload json.RawMessage, req Requirements) (*SettleResponse, error)
}

// Paywall requires a verified payment before a handler runs and settles it
// once the handler succeeded.
type Paywall struct {
	accepts     []Requirements
	description string
	verifier    Verifier
	log         log.Logger
}

// New creates a paywall for cfg that settles through cfg.FacilitatorURL.
func New(cfg Config) (*Paywall, error) {
	return NewWithVerifier(cfg, NewFacilitator(cfg.FacilitatorURL))
}

// NewWithVerifier creates a paywall for cfg that settles through v.
func NewWithVerifier(cfg Config, v Verifier) (*Paywall, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Paywall{
		accepts:     cfg.Requirements(),
		description: cfg.Description,
		verifier:    v,
		log:         log.New("module", "x402"),
	}, nil
}

// Accepts returns the payment options offered to clients.
func (p *Paywall) Accepts() []Requirements {
	return append([]Requirements(nil), p.accepts...)
}

// Wrap gates h behind the paywall.
func (p *Paywall) Wrap(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get(PaymentHeader)
		if header == "" {
			header = r.Header.Get(LegacyPaymentHeader)
		}
		if header == "" {
			requiredCounter.Inc(1)
			p.require(w, r, "payment required")
			return
		}
		raw, pl, err := decodePayload(header)
		if err != nil {
			rejectedCounter.Inc(1)
			p.require(w, r, "invalid payment header")
			return
		}
		req, ok := p.match(pl)
		if !ok {
			rejectedCounter.Inc(1)
			p.require(w, r, "no matching payment requirements")
			return
		}
		verdict, err := p.verifier.Verify(r.Context(), raw, req)
		if err != nil {
			p.log.Warn("Payment verification failed", "network", req.Network, "err", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment verification unavailable"})
			return
		}
		if !verdict.IsValid {
			rejectedCounter.Inc(1)
			p.log.Debug("Rejected payment", "network", req.Network, "payer", verdict.Payer, "reason", verdict.InvalidReason)
			reason := verdict.InvalidReason
			if reason == "" {
				reason = "invalid payment"
			}
			p.require(w, r, reason)
			return
		}

		buf := newBufferedWriter()
		h(buf, r, ps)
		if buf.status >= http.StatusBadRequest {
			buf.flushTo(w)
			return
		}
		settled, err := p.verifier.Settle(r.Context(), raw, req)
		if err != nil || !settled.Success {
			reason := "payment settlement failed"
			if err == nil && settled.ErrorReason != "" {
				reason = settled.ErrorReason
			}
			p.log.Warn("Payment settlement failed", "network", req.Network, "payer", verdict.Payer, "reason", reason, "err", err)
			p.require(w, r, reason)
			return
		}
		settledCounter.Inc(1)
		p.log.Info("Settled payment", "network", settled.Network, "payer", settled.Payer, "tx", settled.Transaction)
		if enc, err := json.Marshal(settled); err == nil {
			w.Header().Set(ResponseHeader, base64.StdEncoding.EncodeToString(enc))
		}
		buf.flushTo(w)
	}
}

// match returns the offered requirement the payload pays for.
func (p *Paywall) match(pl *payload) (Requirements, bool) {
	scheme, network := pl.Scheme, pl.Network
	if pl.Accepted != nil {
		scheme, network = pl.Accepted.Scheme, pl.Accepted.Network
	}
	for _, req := range p.accepts {
		if req.Scheme != scheme || req.Network != network {
			continue
		}
		if acc := pl.Accepted; acc != nil {
			if acc.Amount != req.Amount || !strings.EqualFold(acc.PayTo, req.PayTo) || !strings.EqualFold(acc.Asset, req.Asset) {
				continue
			}
		}
		return req, true
	}
	return Requirements{}, false
}

// require answers 402 with the offered payment options.
func (p *Paywall) require(w http.ResponseWriter, r *http.Request, reason string) {
	body := &PaymentRequired{
		X402Version: Version,
		Error:       reason,
		Resource:    &Resource{URL: resourceURL(r), Description: p.description, MimeType: "application/json"},
		Accepts:     p.accepts,
	}
	if enc, err := json.Marshal(body); err == nil {
		w.Header().Set(RequiredHeader, base64.StdEncoding.EncodeToString(enc))
	}
	writeJSON(w, http.StatusPaymentRequired, body)
}

func decodePayload(header string) (json.RawMessage, *payload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return nil, nil, err
	}
	var pl payload
	if err := json.Unmarshal(raw, &pl); err != nil {
		return nil, nil, err
	}
	return raw, &pl, nil
}

func resourceURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// bufferedWriter holds a handler's response until the payment is settled.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(data []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(data)
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	w.Write(b.body.Bytes())
}
