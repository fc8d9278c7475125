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
package core

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/n3roai/go-n3ro/common/math"
	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/params"
)

// SignalSubmission is a trade outcome reported by a signaler.
type SignalSubmission struct {
	Agent       uint64
	TradeIDHash common.Hash
	ResultHash  common.Hash
	ContextHash common.Hash
	RiskFlags   uint8
}

// ScoreSubmission is an oracle verdict on a previously reported signal.
type ScoreSubmission struct {
	Agent         uint64
	TradeIDHash   common.Hash
	Score         uint16
	ConfidenceBps uint16
	ScoreHash     common.Hash
}

// SubmitSignal records an unscored trade signal. A signal can be reported only
// once per (agent, trade id hash).
func (p *Protocol) SubmitSignal(caller common.Address, sub SignalSubmission) error {
	return p.apply("reputation/signal", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if _, err := tx.agent(sub.Agent); err != nil {
			return err
		}
		if ok, err := rawdb.HasSignal(tx.db, sub.Agent, sub.TradeIDHash); err != nil {
			return err
		} else if ok {
			return ErrSignalExists
		}
		if err := requireNotPaused(&cfg); err != nil {
			return err
		}
		if err := tx.assertRole(caller, types.RoleSignaler); err != nil {
			return err
		}
		if isZeroHash(sub.TradeIDHash) || isZeroHash(sub.ResultHash) {
			return ErrInvalidHash
		}
		rawdb.WriteSignal(tx.db, &types.TradeSignal{
			Agent:       sub.Agent,
			TradeIDHash: sub.TradeIDHash,
			ResultHash:  sub.ResultHash,
			ContextHash: sub.ContextHash,
			Reporter:    caller,
			SubmittedAt: tx.now,
			RiskFlags:   sub.RiskFlags,
		})
		p.log.Debug("Trade signal submitted", "agent", sub.Agent, "trade", sub.TradeIDHash, "risk", sub.RiskFlags)
		return nil
	})
}

// SubmitScore scores a signal and folds the result into the agent reputation.
// A signal accepts exactly one score.
func (p *Protocol) SubmitScore(caller common.Address, sub ScoreSubmission) error {
	return p.apply("reputation/score", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if _, err := tx.agent(sub.Agent); err != nil {
			return err
		}
		sig := rawdb.ReadSignal(tx.db, sub.Agent, sub.TradeIDHash)
		if sig == nil {
			return ErrSignalNotFound
		}
		if err := requireNotPaused(&cfg); err != nil {
			return err
		}
		if err := tx.assertRole(caller, types.RoleOracle); err != nil {
			return err
		}
		if sub.Score > params.MaxScore {
			return ErrInvalidScore
		}
		if sub.ConfidenceBps > params.MaxBps || sub.ConfidenceBps < cfg.MinConfidenceBps {
			return ErrInvalidConfidence
		}
		if isZeroHash(sub.ScoreHash) {
			return ErrInvalidHash
		}
		if sig.Scored() {
			return ErrScoreAlreadySubmitted
		}
		if cfg.MaxSignalAge > 0 {
			elapsed, err := math.SafeSub(tx.now, sig.SubmittedAt)
			if err != nil {
				return overflow(err)
			}
			if elapsed > cfg.MaxSignalAge {
				return ErrSignalTooOld
			}
		}
		rec := tx.getOrInitVerification(sub.Agent)
		if cfg.RequireVerifiedForScore && !rec.IsVerified(tx.now) {
			return ErrVerificationRequired
		}
		rawdb.WriteVerification(tx.db, rec)

		sig.MarkScored(types.SignalScore{
			Hash:          sub.ScoreHash,
			Score:         sub.Score,
			ConfidenceBps: sub.ConfidenceBps,
			Oracle:        caller,
			SubmittedAt:   tx.now,
		})
		rawdb.WriteSignal(tx.db, sig)

		rep := tx.getOrInitReputation(sub.Agent)
		if err := applyScore(rep, sub.Score, sub.ConfidenceBps, cfg.ScoreAlphaBps, tx.now); err != nil {
			return err
		}
		rawdb.WriteReputation(tx.db, rep)
		scoreEventCounter.Inc(1)
		p.log.Debug("Trade signal scored", "agent", sub.Agent, "trade", sub.TradeIDHash,
			"score", sub.Score, "confidence", sub.ConfidenceBps, "rolling", rep.RollingScore)
		return nil
	})
}

// getOrInitReputation returns the reputation of agent, or the never-scored
// state if none was stored yet.
func (tx *txn) getOrInitReputation(agent uint64) *types.ReputationState {
	if rep := rawdb.ReadReputation(tx.db, agent); rep != nil {
		return rep
	}
	return types.NewReputationState(agent)
}

// EffectiveScore discounts score by confidence: floor(score*confidence/10000).
func EffectiveScore(score, confidenceBps uint16) (uint16, error) {
	eff, err := math.MulDivBps(uint64(score), confidenceBps)
	if err != nil {
		return 0, overflow(err)
	}
	return uint16(eff), nil
}

// applyScore folds one scoring event into rep. The first event seeds the
// rolling score directly; later events blend in with weight alphaBps. rep is
// left untouched on error.
func applyScore(rep *types.ReputationState, score, confidenceBps, alphaBps uint16, now uint64) error {
	weighted, err := math.AccumulateWide(rep.TotalWeightedScore, math.MulWide(uint64(score), uint64(confidenceBps)))
	if err != nil {
		return overflow(err)
	}
	totalWeight, err := math.SafeAdd(rep.TotalWeight, uint64(confidenceBps))
	if err != nil {
		return overflow(err)
	}
	effective, err := EffectiveScore(score, confidenceBps)
	if err != nil {
		return err
	}
	rolling := effective
	if rep.Seeded() {
		avg, err := math.WeightedAverage(uint64(rep.RollingScore), uint64(effective), alphaBps)
		if err != nil {
			return overflow(err)
		}
		rolling = uint16(avg)
	}
	if rep.ScoreCount == ^uint32(0) {
		return ErrMathOverflow
	}
	rep.TotalWeightedScore = weighted
	rep.TotalWeight = totalWeight
	rep.RollingScore = rolling
	rep.LastScore = score
	rep.LastConfidenceBps = confidenceBps
	rep.ScoreCount++
	rep.LastUpdated = now
	return nil
}
