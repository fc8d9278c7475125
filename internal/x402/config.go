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


// Package x402 gates HTTP resources behind x402 payments settled through a
// remote facilitator.
package x402

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Version is the x402 protocol version spoken by the paywall.
const Version = 2

// SchemeExact is the only payment scheme offered.
const SchemeExact = "exact"

var solanaAddressRE = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

var (
	errNoFacilitator = errors.New("facilitator url must be an absolute http(s) url")
	errNoTimeout     = errors.New("max timeout must be positive")
)

// Option is one accepted way to pay. It is a [[Payment.Accepts]] entry of the
// node configuration file.
type Option struct {
	Network string // CAIP-2 network id, eip155:* or solana:*
	PayTo   string
	Asset   string
	Amount  string // atomic units of Asset
}

// Config is the [Payment] section of the node configuration file. An empty
// Accepts list leaves the gated resource free.
type Config struct {
	FacilitatorURL    string
	MaxTimeoutSeconds uint64
	Description       string
	Accepts           []Option `toml:",omitempty"`
}

// DefaultConfig serves trades without payment.
var DefaultConfig = Config{
	FacilitatorURL:    "https://facilitator.heurist.xyz",
	MaxTimeoutSeconds: 300,
	Description:       "Execute a trade via agent",
}

// Enabled reports whether any payment option is configured.
func (c *Config) Enabled() bool {
	return len(c.Accepts) > 0
}

// Validate checks the facilitator endpoint and every payment option.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.FacilitatorURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errNoFacilitator
	}
	if c.MaxTimeoutSeconds == 0 {
		return errNoTimeout
	}
	for i, opt := range c.Accepts {
		if err := opt.validate(); err != nil {
			return fmt.Errorf("payment option %d: %w", i, err)
		}
	}
	return nil
}

func (o *Option) validate() error {
	switch {
	case strings.HasPrefix(o.Network, "eip155:"):
		for _, field := range []struct{ name, addr string }{{"payTo", o.PayTo}, {"asset", o.Asset}} {
			if !common.IsHexAddress(field.addr) || common.HexToAddress(field.addr) == (common.Address{}) {
				return fmt.Errorf("%s must be a non-zero EVM address", field.name)
			}
		}
	case strings.HasPrefix(o.Network, "solana:"):
		for _, field := range []struct{ name, addr string }{{"payTo", o.PayTo}, {"asset", o.Asset}} {
			if !solanaAddressRE.MatchString(field.addr) {
				return fmt.Errorf("%s must be a base58 Solana address", field.name)
			}
		}
	default:
		return fmt.Errorf("network %q must be CAIP-2 and start with eip155: or solana:", o.Network)
	}
	if o.Amount == "" || o.Amount[0] < '0' || o.Amount[0] > '9' {
		return fmt.Errorf("amount %q must be a positive integer", o.Amount)
	}
	if amount, err := uint256.FromDecimal(o.Amount); err != nil || amount.IsZero() {
		return fmt.Errorf("amount %q must be a positive integer", o.Amount)
	}
	return nil
}

// Requirements describes one accepted payment in a 402 response and in
// facilitator calls.
type Requirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	Amount            string `json:"amount"`
	PayTo             string `json:"payTo"`
	Asset             string `json:"asset"`
	MaxTimeoutSeconds uint64 `json:"maxTimeoutSeconds"`
	Description       string `json:"description,omitempty"`
	MimeType          string `json:"mimeType,omitempty"`
}

// Requirements expands the configured options into their wire form.
func (c *Config) Requirements() []Requirements {
	reqs := make([]Requirements, len(c.Accepts))
	for i, opt := range c.Accepts {
		reqs[i] = Requirements{
			Scheme:            SchemeExact,
			Network:           opt.Network,
			Amount:            opt.Amount,
			PayTo:             opt.PayTo,
			Asset:             opt.Asset,
			MaxTimeoutSeconds: c.MaxTimeoutSeconds,
			Description:       c.Description,
			MimeType:          "application/json",
		}
	}
	return reqs
}
