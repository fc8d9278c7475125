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
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/params"
)

// newScoringEnv returns an environment whose agent is verified and has
// min confidence 5000, alpha 2000.
func newScoringEnv(t *testing.T, mutate func(*params.ProtocolSettings)) *testEnv {
	env := newTestEnv(t, func(s *params.ProtocolSettings) {
		s.MinConfidenceBps = 5000
		s.ScoreAlphaBps = 2000
		if mutate != nil {
			mutate(s)
		}
	})
	require.NoError(t, env.p.SetVerificationStatus(verifier, env.agent, types.StatusVerified, evidenceHash, policyHash, 0))
	return env
}

func tradeHash(n int) common.Hash {
	return common.BigToHash(big.NewInt(int64(n) + 1))
}

func (env *testEnv) signal(t *testing.T, n int) common.Hash {
	t.Helper()
	h := tradeHash(n)
	require.NoError(t, env.p.SubmitSignal(signaler, SignalSubmission{
		Agent:       env.agent,
		TradeIDHash: h,
		ResultHash:  common.HexToHash("0x7e57"),
		ContextHash: common.HexToHash("0xc7c7"),
		RiskFlags:   1,
	}))
	return h
}

func (env *testEnv) score(trade common.Hash, score, confidence uint16) error {
	return env.p.SubmitScore(oracle, ScoreSubmission{
		Agent:         env.agent,
		TradeIDHash:   trade,
		Score:         score,
		ConfidenceBps: confidence,
		ScoreHash:     common.HexToHash("0x5c0e"),
	})
}

func TestSubmitSignal(t *testing.T) {
	env := newScoringEnv(t, nil)
	p := env.p
	sub := SignalSubmission{Agent: env.agent, TradeIDHash: tradeHash(0), ResultHash: common.HexToHash("0x01")}

	assert.ErrorIs(t, p.SubmitSignal(oracle, sub), ErrUnauthorized)
	bad := sub
	bad.ResultHash = common.Hash{}
	assert.ErrorIs(t, p.SubmitSignal(signaler, bad), ErrInvalidHash)
	bad = sub
	bad.TradeIDHash = common.Hash{}
	assert.ErrorIs(t, p.SubmitSignal(signaler, bad), ErrInvalidHash)

	require.NoError(t, p.SubmitSignal(signaler, sub))
	assert.ErrorIs(t, p.SubmitSignal(signaler, sub), ErrSignalExists)

	sig := p.Signal(env.agent, sub.TradeIDHash)
	require.NotNil(t, sig)
	assert.False(t, sig.Scored())
	assert.Equal(t, signaler, sig.Reporter)
	assert.Equal(t, startTime, sig.SubmittedAt)
}

// Two events: 8000@9000 seeds 7200, then 6000@5000 (effective 3000) blends
// to floor((7200*8000 + 3000*2000)/10000) = 6360.
func TestScoreEMA(t *testing.T) {
	env := newScoringEnv(t, nil)

	require.NoError(t, env.score(env.signal(t, 0), 8000, 9000))
	rep := env.p.Reputation(env.agent)
	require.NotNil(t, rep)
	assert.Equal(t, uint16(7200), rep.RollingScore)
	assert.Equal(t, uint32(1), rep.ScoreCount)

	env.clock.Advance(10)
	require.NoError(t, env.score(env.signal(t, 1), 6000, 5000))
	rep = env.p.Reputation(env.agent)
	assert.Equal(t, uint16(6360), rep.RollingScore)
	assert.Equal(t, uint16(6000), rep.LastScore)
	assert.Equal(t, uint16(5000), rep.LastConfidenceBps)
	assert.Equal(t, uint32(2), rep.ScoreCount)
	assert.Equal(t, uint64(14000), rep.TotalWeight)
	assert.Zero(t, big.NewInt(8000*9000+6000*5000).Cmp(rep.TotalWeightedScore))
	assert.Equal(t, startTime+10, rep.LastUpdated)
}

func TestScoreLowConfidenceLeavesStateUntouched(t *testing.T) {
	env := newScoringEnv(t, nil)
	trade := env.signal(t, 0)

	assert.ErrorIs(t, env.score(trade, 8000, 4999), ErrInvalidConfidence)
	assert.False(t, env.p.Signal(env.agent, trade).Scored())
	assert.Nil(t, env.p.Reputation(env.agent))
}

func TestScoreValidation(t *testing.T) {
	env := newScoringEnv(t, nil)
	trade := env.signal(t, 0)

	assert.ErrorIs(t, env.score(trade, 10_001, 9000), ErrInvalidScore)
	assert.ErrorIs(t, env.score(trade, 5000, 10_001), ErrInvalidConfidence)
	assert.ErrorIs(t, env.score(tradeHash(99), 5000, 9000), ErrSignalNotFound)
	assert.ErrorIs(t, env.p.SubmitScore(signaler, ScoreSubmission{Agent: env.agent, TradeIDHash: trade, Score: 1, ConfidenceBps: 9000, ScoreHash: common.HexToHash("0x01")}), ErrUnauthorized)
	assert.ErrorIs(t, env.p.SubmitScore(oracle, ScoreSubmission{Agent: env.agent, TradeIDHash: trade, Score: 1, ConfidenceBps: 9000}), ErrInvalidHash)
	assert.NoError(t, env.score(trade, 10_000, 10_000))
}

func TestScoreLatch(t *testing.T) {
	env := newScoringEnv(t, nil)
	trade := env.signal(t, 0)

	require.NoError(t, env.score(trade, 8000, 9000))
	before := env.p.Reputation(env.agent)

	assert.ErrorIs(t, env.score(trade, 1000, 6000), ErrScoreAlreadySubmitted)
	assert.ErrorIs(t, env.score(trade, 8000, 9000), ErrScoreAlreadySubmitted)

	sig := env.p.Signal(env.agent, trade)
	assert.Equal(t, uint16(8000), sig.Score.Score)
	assert.Equal(t, oracle, sig.Score.Oracle)
	assert.Equal(t, before, env.p.Reputation(env.agent))
}

func TestScoreSignalAge(t *testing.T) {
	env := newScoringEnv(t, func(s *params.ProtocolSettings) { s.MaxSignalAge = 300 })
	fresh := env.signal(t, 0)
	stale := env.signal(t, 1)

	env.clock.Advance(300)
	require.NoError(t, env.score(fresh, 5000, 9000), "age equal to the limit is accepted")
	env.clock.Advance(1)
	assert.ErrorIs(t, env.score(stale, 5000, 9000), ErrSignalTooOld)

	// A clock running behind the signal is a malformed interval
	env.clock.Set(startTime - 1)
	assert.ErrorIs(t, env.score(stale, 5000, 9000), ErrMathOverflow)

	// Zero disables the age limit
	require.NoError(t, env.p.SetScoreConfig(admin, 5000, 2000, 0))
	env.clock.Set(startTime + 10*365*24*3600)
	assert.NoError(t, env.score(stale, 5000, 9000))
}

func TestScoreVerificationGate(t *testing.T) {
	env := newTestEnv(t, nil)
	trade := env.signal(t, 0)

	assert.ErrorIs(t, env.score(trade, 5000, 9000), ErrVerificationRequired)
	assert.Nil(t, env.p.Verification(env.agent), "failed action must not leave a record")

	require.NoError(t, env.p.SetVerificationStatus(verifier, env.agent, types.StatusVerified, evidenceHash, policyHash, startTime+5))
	env.clock.Advance(6)
	assert.ErrorIs(t, env.score(trade, 5000, 9000), ErrVerificationRequired)

	require.NoError(t, env.p.SetRequireVerifiedForScore(admin, false))
	assert.NoError(t, env.score(trade, 5000, 9000))
}

func TestScoreCreatesEmptyVerificationRecord(t *testing.T) {
	env := newTestEnv(t, func(s *params.ProtocolSettings) { s.RequireVerifiedForScore = false })
	require.NoError(t, env.score(env.signal(t, 0), 5000, 9000))

	rec := env.p.Verification(env.agent)
	require.NotNil(t, rec)
	assert.Equal(t, env.agent, rec.Agent)
	assert.Equal(t, types.StatusNone, rec.Status)
	assert.False(t, env.p.IsVerified(env.agent))
}

// A first event that smooths to zero still counts as the seed: the next event
// blends with it instead of replacing it.
func TestZeroScoreSeedsRollingAverage(t *testing.T) {
	env := newScoringEnv(t, nil)

	require.NoError(t, env.score(env.signal(t, 0), 0, 9000))
	rep := env.p.Reputation(env.agent)
	assert.Equal(t, uint16(0), rep.RollingScore)
	assert.True(t, rep.Seeded())

	require.NoError(t, env.score(env.signal(t, 1), 10_000, 10_000))
	assert.Equal(t, uint16(2000), env.p.Reputation(env.agent).RollingScore)
}

func TestApplyScoreBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for run := 0; run < 20; run++ {
		rep := types.NewReputationState(1)
		alpha := uint16(rnd.Intn(params.MaxBps) + 1)
		for i := 0; i < 200; i++ {
			score := uint16(rnd.Intn(params.MaxBps + 1))
			conf := uint16(rnd.Intn(params.MaxBps + 1))
			require.NoError(t, applyScore(rep, score, conf, alpha, uint64(i)))
			require.LessOrEqual(t, rep.RollingScore, uint16(params.MaxBps))
		}
		assert.Equal(t, uint32(200), rep.ScoreCount)
	}
}

func TestApplyScoreOverflow(t *testing.T) {
	rep := types.NewReputationState(1)
	rep.TotalWeightedScore = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	assert.ErrorIs(t, applyScore(rep, 1, 1, 2000, 0), ErrMathOverflow)

	rep = types.NewReputationState(1)
	rep.TotalWeight = ^uint64(0)
	assert.ErrorIs(t, applyScore(rep, 1, 1, 2000, 0), ErrMathOverflow)

	rep = types.NewReputationState(1)
	rep.ScoreCount = ^uint32(0)
	assert.ErrorIs(t, applyScore(rep, 1, 1, 2000, 0), ErrMathOverflow)
	assert.Equal(t, uint64(0), rep.TotalWeight, "failed update must not mutate state")
}
