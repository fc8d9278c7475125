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
package trade

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/n3roai/go-n3ro/core"
	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/crypto"
)

var (
	tradesReceivedCounter = metrics.NewRegisteredCounter("n3ro/trade/received", nil)
	hookOkCounter         = metrics.NewRegisteredCounter("n3ro/trade/hook/ok", nil)
	hookFailCounter       = metrics.NewRegisteredCounter("n3ro/trade/hook/fail", nil)
)

// Engine is the protocol surface the hooks act on. It is satisfied by
// *core.Protocol.
type Engine interface {
	ProtocolConfig() *types.ProtocolConfig
	Agent(id uint64) *types.AgentIdentity
	Split(agent uint64) *types.RevenueSplitConfig
	DistributeSettlement(caller common.Address, agentID uint64, reference common.Hash, amount uint64, accts core.SettlementAccounts) (types.Partition, error)
	SubmitSignal(caller common.Address, sub core.SignalSubmission) error
}

// Config selects which post-trade hooks run and who signs for them.
type Config struct {
	DistributionEnabled bool
	SignalEnabled       bool

	Operator common.Address // revenue operator that distributes settlements
	Signaler common.Address // signaler that reports trade outcomes

	SettlementAmount uint64
	DefaultRiskFlags uint8
}

// DefaultConfig runs no hooks.
var DefaultConfig = Config{}

// Service acknowledges executed trades and runs their post-trade hooks in
// the background. Hook failures are logged and never reach the caller.
type Service struct {
	engine Engine
	config Config
	now    func() time.Time
	log    log.Logger

	wg sync.WaitGroup
}

// NewService creates a trade service on top of engine.
func NewService(engine Engine, config Config) *Service {
	return &Service{
		engine: engine,
		config: config,
		now:    time.Now,
		log:    log.New("module", "trade"),
	}
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.config
}

// ExecuteTrade acknowledges cmd and schedules its hooks. The command must
// already be validated.
func (s *Service) ExecuteTrade(cmd *Command) Response {
	tradesReceivedCounter.Inc(1)
	resp := Response{
		OK:         true,
		AgentID:    cmd.AgentID,
		TradeID:    cmd.TradeID,
		ReceivedAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if !s.config.DistributionEnabled && !s.config.SignalEnabled {
		return resp
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runHooks(cmd)
	}()
	return resp
}

// Wait blocks until every scheduled hook has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) runHooks(cmd *Command) {
	if s.config.DistributionEnabled {
		s.report("distribution", cmd, s.distribute(cmd))
	}
	if s.config.SignalEnabled {
		s.report("signal", cmd, s.signal(cmd))
	}
}

func (s *Service) report(hook string, cmd *Command, err error) {
	if err != nil {
		hookFailCounter.Inc(1)
		s.log.Error("Post-trade hook failed", "hook", hook, "agent", cmd.AgentID.ID, "trade", cmd.TradeID, "err", err)
		return
	}
	hookOkCounter.Inc(1)
	s.log.Info("Post-trade hook completed", "hook", hook, "agent", cmd.AgentID.ID, "trade", cmd.TradeID)
}

func (s *Service) distribute(cmd *Command) error {
	accts, err := s.SettlementAccounts(cmd)
	if err != nil {
		return err
	}
	_, err = s.engine.DistributeSettlement(s.config.Operator, cmd.AgentID.ID, TradeIDHash(cmd.TradeID), s.config.SettlementAmount, accts)
	return err
}

// SettlementAccounts derives the token accounts a distribution for cmd
// touches. Parties without a share are pointed at the settlement vault.
func (s *Service) SettlementAccounts(cmd *Command) (core.SettlementAccounts, error) {
	cfg := s.engine.ProtocolConfig()
	if cfg == nil {
		return core.SettlementAccounts{}, core.ErrNotInitialized
	}
	agent := s.engine.Agent(cmd.AgentID.ID)
	if agent == nil {
		return core.SettlementAccounts{}, core.ErrAgentNotFound
	}
	split := s.engine.Split(cmd.AgentID.ID)
	if split == nil {
		return core.SettlementAccounts{}, core.ErrSplitNotFound
	}
	accts := core.SettlementAccounts{
		Vault:    cfg.SettlementVault,
		Treasury: cfg.ProtocolTreasury,
		Agent:    crypto.AssociatedTokenAccount(agent.Wallet, cfg.SettlementMint),
	}
	if cmd.AgentTokenAccount != "" {
		accts.Agent = common.HexToAddress(cmd.AgentTokenAccount)
	}
	party := func(owner common.Address, bps uint16) common.Address {
		if bps > 0 {
			return crypto.AssociatedTokenAccount(owner, cfg.SettlementMint)
		}
		return cfg.SettlementVault
	}
	accts.Platform = party(split.Platform, split.PlatformBps)
	accts.Referrer = party(split.Referrer, split.ReferrerBps)
	accts.Reserve = party(split.ReserveVault, split.ReserveBps)
	return accts, nil
}

func (s *Service) signal(cmd *Command) error {
	resultHash, err := ResultHash(cmd)
	if err != nil {
		return err
	}
	contextHash, err := ContextHash(cmd)
	if err != nil {
		return err
	}
	risk := s.config.DefaultRiskFlags
	if cmd.RiskFlags != nil {
		risk = uint8(*cmd.RiskFlags)
	}
	return s.engine.SubmitSignal(s.config.Signaler, core.SignalSubmission{
		Agent:       cmd.AgentID.ID,
		TradeIDHash: TradeIDHash(cmd.TradeID),
		ResultHash:  resultHash,
		ContextHash: contextHash,
		RiskFlags:   risk,
	})
}
