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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	facilitatorTimeout      = 15 * time.Second
	maxFacilitatorReplySize = 64 * 1024
)

// VerifyResponse is the facilitator's verdict on a payment payload.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse reports the outcome of settling a verified payment.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

// facilitatorRequest is the body of both /verify and /settle.
type facilitatorRequest struct {
	X402Version         int             `json:"x402Version"`
	PaymentPayload      json.RawMessage `json:"paymentPayload"`
	PaymentRequirements Requirements    `json:"paymentRequirements"`
}

// Facilitator is an HTTP client for an x402 facilitator.
type Facilitator struct {
	url    string
	client *http.Client
}

// NewFacilitator creates a client for the facilitator at url.
func NewFacilitator(url string) *Facilitator {
	return &Facilitator{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: facilitatorTimeout},
	}
}

// Verify asks the facilitator whether payload satisfies req.
func (f *Facilitator) Verify(ctx context.Context, payload json.RawMessage, req Requirements) (*VerifyResponse, error) {
	var res VerifyResponse
	if err := f.post(ctx, "/verify", payload, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Settle asks the facilitator to execute a verified payment.
func (f *Facilitator) Settle(ctx context.Context, payload json.RawMessage, req Requirements) (*SettleResponse, error) {
	var res SettleResponse
	if err := f.post(ctx, "/settle", payload, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (f *Facilitator) post(ctx context.Context, path string, payload json.RawMessage, req Requirements, out interface{}) error {
	body, err := json.Marshal(&facilitatorRequest{
		X402Version:         Version,
		PaymentPayload:      payload,
		PaymentRequirements: req,
	})
	if err != nil {
		return err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := f.client.Do(hreq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFacilitatorReplySize))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("facilitator %s: %s: %s", path, resp.Status, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("facilitator %s: invalid reply: %w", path, err)
	}
	return nil
}
