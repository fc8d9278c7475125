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
// Package n3roapi implements the read API and HTTP surface of the protocol.
package n3roapi

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/n3roai/go-n3ro/core/types"
)

// ErrRecordNotFound is returned when a queried record does not exist.
var ErrRecordNotFound = errors.New("record not found")

// Backend is the protocol state the API reads. It is satisfied by
// *core.Protocol.
type Backend interface {
	Now() uint64
	ProtocolConfig() *types.ProtocolConfig
	Agent(id uint64) *types.AgentIdentity
	Role(kind types.RoleKind, member common.Address) *types.RoleAssignment
	Verification(agent uint64) *types.VerificationRecord
	Signal(agent uint64, tradeIDHash common.Hash) *types.TradeSignal
	Reputation(agent uint64) *types.ReputationState
	Split(agent uint64) *types.RevenueSplitConfig
	Receipt(agent uint64, reference common.Hash) *types.DistributionReceipt
	TokenAccount(addr common.Address) *types.TokenAccount
}

// ProtocolAPI exposes protocol records as JSON-friendly results.
type ProtocolAPI struct {
	b Backend
}

// NewProtocolAPI creates a new protocol API.
func NewProtocolAPI(b Backend) *ProtocolAPI {
	return &ProtocolAPI{b}
}

// RPCVerification is a verification record with its status name and the
// verified flag evaluated at query time.
type RPCVerification struct {
	*types.VerificationRecord
	StatusName string `json:"statusName"`
	Verified   bool   `json:"verified"`
}

// RPCSignal is a trade signal with its scoring state flattened.
type RPCSignal struct {
	*types.TradeSignal
	Scored bool `json:"scored"`
}

// RPCRole is a role assignment with its kind name.
type RPCRole struct {
	*types.RoleAssignment
	RoleName string `json:"roleName"`
}

// ProtocolConfig returns the protocol configuration.
func (api *ProtocolAPI) ProtocolConfig(ctx context.Context) (*types.ProtocolConfig, error) {
	if cfg := api.b.ProtocolConfig(); cfg != nil {
		return cfg, nil
	}
	return nil, ErrRecordNotFound
}

// GetAgent returns the identity of an agent.
func (api *ProtocolAPI) GetAgent(ctx context.Context, id hexutil.Uint64) (*types.AgentIdentity, error) {
	if agent := api.b.Agent(uint64(id)); agent != nil {
		return agent, nil
	}
	return nil, ErrRecordNotFound
}

// GetRole returns the role assignment of member for kind.
func (api *ProtocolAPI) GetRole(ctx context.Context, kind types.RoleKind, member common.Address) (*RPCRole, error) {
	if role := api.b.Role(kind, member); role != nil {
		return &RPCRole{RoleAssignment: role, RoleName: role.Role.String()}, nil
	}
	return nil, ErrRecordNotFound
}

// GetVerification returns the verification record of an agent. An agent that
// never entered the workflow has no record.
func (api *ProtocolAPI) GetVerification(ctx context.Context, agent hexutil.Uint64) (*RPCVerification, error) {
	rec := api.b.Verification(uint64(agent))
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return &RPCVerification{
		VerificationRecord: rec,
		StatusName:         rec.Status.String(),
		Verified:           rec.IsVerified(api.b.Now()),
	}, nil
}

// GetReputation returns the reputation state of an agent.
func (api *ProtocolAPI) GetReputation(ctx context.Context, agent hexutil.Uint64) (*types.ReputationState, error) {
	if rep := api.b.Reputation(uint64(agent)); rep != nil {
		return rep, nil
	}
	return nil, ErrRecordNotFound
}

// GetSplit returns the revenue split of an agent.
func (api *ProtocolAPI) GetSplit(ctx context.Context, agent hexutil.Uint64) (*types.RevenueSplitConfig, error) {
	if split := api.b.Split(uint64(agent)); split != nil {
		return split, nil
	}
	return nil, ErrRecordNotFound
}

// GetSignal returns the signal reported for a trade of an agent.
func (api *ProtocolAPI) GetSignal(ctx context.Context, agent hexutil.Uint64, tradeIDHash common.Hash) (*RPCSignal, error) {
	sig := api.b.Signal(uint64(agent), tradeIDHash)
	if sig == nil {
		return nil, ErrRecordNotFound
	}
	return &RPCSignal{TradeSignal: sig, Scored: sig.Scored()}, nil
}

// GetReceipt returns the distribution receipt recorded under reference.
func (api *ProtocolAPI) GetReceipt(ctx context.Context, agent hexutil.Uint64, reference common.Hash) (*types.DistributionReceipt, error) {
	if receipt := api.b.Receipt(uint64(agent), reference); receipt != nil {
		return receipt, nil
	}
	return nil, ErrRecordNotFound
}

// GetTokenAccount returns a token account.
func (api *ProtocolAPI) GetTokenAccount(ctx context.Context, addr common.Address) (*types.TokenAccount, error) {
	if acct := api.b.TokenAccount(addr); acct != nil {
		return acct, nil
	}
	return nil, ErrRecordNotFound
}
