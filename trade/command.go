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
// Package trade runs the post-trade hooks of an executed trade: settlement
// distribution and reputation signal submission.
package trade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrMissingAgentID   = errors.New("agentId is required")
	ErrMissingTradeID   = errors.New("tradeId is required")
	ErrBadResultHash    = errors.New("resultHash must be bytes32 hex")
	ErrBadContextHash   = errors.New("contextHash must be bytes32 hex")
	ErrBadRiskFlags     = errors.New("riskFlags must be an integer in range [0, 255]")
	ErrBadTokenAccount  = errors.New("agentTokenAccount must be a hex address")
	errAgentIDMalformed = errors.New("agentId must be a non-negative integer")
)

// AgentRef is an agent id given either as a JSON number or a decimal string.
// It is echoed back in the form it was received.
type AgentRef struct {
	ID     uint64
	quoted bool
}

// NewAgentRef returns a numeric reference to id.
func NewAgentRef(id uint64) AgentRef {
	return AgentRef{ID: id}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AgentRef) UnmarshalJSON(input []byte) error {
	input = bytes.TrimSpace(input)
	if len(input) > 0 && input[0] == '"' {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return ErrMissingAgentID
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return errAgentIDMalformed
		}
		*a = AgentRef{ID: id, quoted: true}
		return nil
	}
	id, err := strconv.ParseUint(string(input), 10, 64)
	if err != nil {
		return errAgentIDMalformed
	}
	*a = AgentRef{ID: id}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AgentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.jsonValue())
}

func (a AgentRef) jsonValue() interface{} {
	if a.quoted {
		return strconv.FormatUint(a.ID, 10)
	}
	return a.ID
}

// Command is an executed trade reported by the trading front end.
type Command struct {
	AgentID           AgentRef        `json:"agentId"`
	TradeID           string          `json:"tradeId"`
	Result            json.RawMessage `json:"result,omitempty"`
	ResultHash        string          `json:"resultHash,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	ContextHash       string          `json:"contextHash,omitempty"`
	RiskFlags         *int            `json:"riskFlags,omitempty"`
	AgentTokenAccount string          `json:"agentTokenAccount,omitempty"`

	hasAgentID bool
}

// NewCommand returns a command for a trade of agent with no optional fields.
func NewCommand(agent uint64, tradeID string) *Command {
	return &Command{AgentID: NewAgentRef(agent), TradeID: tradeID, hasAgentID: true}
}

// ParseCommand decodes and validates a trade command.
func ParseCommand(body []byte) (*Command, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, errors.New("request body must be an object")
	}
	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		if errors.Is(err, ErrMissingAgentID) || errors.Is(err, errAgentIDMalformed) {
			return nil, ErrMissingAgentID
		}
		return nil, fmt.Errorf("malformed trade command: %w", err)
	}
	_, cmd.hasAgentID = raw["agentId"]
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// Validate checks the command fields and normalizes the trade id.
func (cmd *Command) Validate() error {
	if !cmd.hasAgentID {
		return ErrMissingAgentID
	}
	cmd.TradeID = strings.TrimSpace(cmd.TradeID)
	if cmd.TradeID == "" {
		return ErrMissingTradeID
	}
	if cmd.ResultHash != "" && !IsBytes32Hex(cmd.ResultHash) {
		return ErrBadResultHash
	}
	if cmd.ContextHash != "" && !IsBytes32Hex(cmd.ContextHash) {
		return ErrBadContextHash
	}
	if cmd.RiskFlags != nil && (*cmd.RiskFlags < 0 || *cmd.RiskFlags > 255) {
		return ErrBadRiskFlags
	}
	cmd.AgentTokenAccount = strings.TrimSpace(cmd.AgentTokenAccount)
	if cmd.AgentTokenAccount != "" && !common.IsHexAddress(cmd.AgentTokenAccount) {
		return ErrBadTokenAccount
	}
	return nil
}

// Response acknowledges a trade. Hooks run after it is returned.
type Response struct {
	OK         bool     `json:"ok"`
	AgentID    AgentRef `json:"agentId"`
	TradeID    string   `json:"tradeId"`
	ReceivedAt string   `json:"receivedAt"`
}
