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
// Package core implements the protocol engine: role-gated authorization, the
// agent verification workflow, reputation scoring and revenue-split settlement.
package core

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/n3roai/go-n3ro/common/math"
	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/state"
	"github.com/n3roai/go-n3ro/core/token"
	"github.com/n3roai/go-n3ro/core/types"
)

// Protocol executes protocol actions against a key-value store. Each action
// runs as one all-or-nothing transaction: its writes are staged in a journaled
// overlay and committed in a single batch only if the action succeeds.
type Protocol struct {
	mu    sync.RWMutex
	db    ethdb.KeyValueStore
	state *state.StateDB
	clock Clock
	log   log.Logger
}

// Config tunes a Protocol instance.
type Config struct {
	Clock     Clock // defaults to SystemClock
	CacheSize int   // committed records kept in memory
}

// New opens the protocol engine over db.
func New(db ethdb.KeyValueStore, config *Config) (*Protocol, error) {
	if config == nil {
		config = new(Config)
	}
	clock := config.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	st, err := state.New(db, config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Protocol{
		db:    db,
		state: st,
		clock: clock,
		log:   log.New("module", "protocol"),
	}, nil
}

// txn is the view of the store handed to a single action.
type txn struct {
	db     *state.StateDB
	ledger *token.Ledger
	now    uint64
}

// apply runs fn as one atomic action named by action.
func (p *Protocol) apply(action string, fn func(tx *txn) error) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { markAction(action, err) }()

	snap := p.state.Snapshot()
	tx := &txn{
		db:     p.state,
		ledger: token.NewLedger(p.state),
		now:    p.clock.Now(),
	}
	if err = fn(tx); err != nil {
		p.state.RevertToSnapshot(snap)
		p.log.Debug("Action rejected", "action", action, "err", err)
		return err
	}
	if err = p.state.Commit(); err != nil {
		p.state.Discard()
		p.log.Error("Failed to commit action", "action", action, "err", err)
		return err
	}
	return nil
}

// view runs fn against committed state.
func (p *Protocol) view(fn func(db ethdb.KeyValueReader)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.state)
}

// Now returns the engine clock reading.
func (p *Protocol) Now() uint64 {
	return p.clock.Now()
}

// Database returns the backing store, e.g. for prefix scans.
func (p *Protocol) Database() ethdb.KeyValueStore {
	return p.db
}

// config loads the protocol configuration by value.
func (tx *txn) config() (types.ProtocolConfig, error) {
	cfg := rawdb.ReadProtocolConfig(tx.db)
	if cfg == nil {
		ok, err := rawdb.HasProtocolConfig(tx.db)
		switch {
		case err != nil:
			return types.ProtocolConfig{}, err
		case ok:
			return types.ProtocolConfig{}, ErrCorruptRecord
		}
		return types.ProtocolConfig{}, ErrNotInitialized
	}
	return *cfg, nil
}

func (tx *txn) agent(id uint64) (*types.AgentIdentity, error) {
	agent := rawdb.ReadAgent(tx.db, id)
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// ownedAgent loads an agent and checks that caller owns it.
func (tx *txn) ownedAgent(id uint64, caller common.Address) (*types.AgentIdentity, error) {
	agent, err := tx.agent(id)
	if err != nil {
		return nil, err
	}
	if agent.Owner != caller {
		return nil, ErrUnauthorized
	}
	return agent, nil
}

// overflow maps arithmetic helper failures onto the protocol error.
func overflow(err error) error {
	if errors.Is(err, math.ErrOverflow) {
		return ErrMathOverflow
	}
	return err
}

// ProtocolConfig returns the current protocol configuration.
func (p *Protocol) ProtocolConfig() (cfg *types.ProtocolConfig) {
	p.view(func(db ethdb.KeyValueReader) { cfg = rawdb.ReadProtocolConfig(db) })
	return cfg
}

// IdentityRegistry returns the registry singleton, nil before initialization.
func (p *Protocol) IdentityRegistry() (reg *types.IdentityRegistry) {
	p.view(func(db ethdb.KeyValueReader) { reg = rawdb.ReadIdentityRegistry(db) })
	return reg
}

// Agent returns a registered agent.
func (p *Protocol) Agent(id uint64) (agent *types.AgentIdentity) {
	p.view(func(db ethdb.KeyValueReader) { agent = rawdb.ReadAgent(db, id) })
	return agent
}

// Role returns the role slot of (kind, member).
func (p *Protocol) Role(kind types.RoleKind, member common.Address) (role *types.RoleAssignment) {
	p.view(func(db ethdb.KeyValueReader) { role = rawdb.ReadRoleAssignment(db, kind, member) })
	return role
}

// Verification returns the verification record of an agent.
func (p *Protocol) Verification(agent uint64) (rec *types.VerificationRecord) {
	p.view(func(db ethdb.KeyValueReader) { rec = rawdb.ReadVerification(db, agent) })
	return rec
}

// Signal returns the trade signal of (agent, tradeIDHash).
func (p *Protocol) Signal(agent uint64, tradeIDHash common.Hash) (sig *types.TradeSignal) {
	p.view(func(db ethdb.KeyValueReader) { sig = rawdb.ReadSignal(db, agent, tradeIDHash) })
	return sig
}

// Reputation returns the reputation state of an agent.
func (p *Protocol) Reputation(agent uint64) (rep *types.ReputationState) {
	p.view(func(db ethdb.KeyValueReader) { rep = rawdb.ReadReputation(db, agent) })
	return rep
}

// Split returns the revenue split of an agent.
func (p *Protocol) Split(agent uint64) (split *types.RevenueSplitConfig) {
	p.view(func(db ethdb.KeyValueReader) { split = rawdb.ReadSplit(db, agent) })
	return split
}

// Receipt returns the distribution receipt of (agent, reference).
func (p *Protocol) Receipt(agent uint64, reference common.Hash) (receipt *types.DistributionReceipt) {
	p.view(func(db ethdb.KeyValueReader) { receipt = rawdb.ReadReceipt(db, agent, reference) })
	return receipt
}

// TokenAccount returns the token account at addr.
func (p *Protocol) TokenAccount(addr common.Address) (acct *types.TokenAccount) {
	p.view(func(db ethdb.KeyValueReader) { acct = rawdb.ReadTokenAccount(db, addr) })
	return acct
}

// OpenTokenAccount creates an empty token account at addr.
func (p *Protocol) OpenTokenAccount(addr, owner, mint common.Address) error {
	return p.apply("token/open", func(tx *txn) error {
		_, err := tx.ledger.Open(addr, owner, mint)
		return err
	})
}

// OpenAssociatedTokenAccount creates the associated account of (owner, mint)
// and returns its address.
func (p *Protocol) OpenAssociatedTokenAccount(owner, mint common.Address) (addr common.Address, err error) {
	err = p.apply("token/open", func(tx *txn) error {
		acct, err := tx.ledger.OpenAssociated(owner, mint)
		if err != nil {
			return err
		}
		addr = acct.Address
		return nil
	})
	return addr, err
}

// MintTo credits amount to the token account at addr.
func (p *Protocol) MintTo(addr common.Address, amount uint64) error {
	return p.apply("token/mint", func(tx *txn) error {
		return overflow(tx.ledger.Mint(addr, amount))
	})
}
