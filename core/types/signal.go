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
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SignalScore is the oracle verdict attached to a trade signal.
type SignalScore struct {
	Hash          common.Hash    `json:"scoreHash"`
	Score         uint16         `json:"score"`
	ConfidenceBps uint16         `json:"confidenceBps"`
	Oracle        common.Address `json:"oracle"`
	SubmittedAt   uint64         `json:"submittedAt"`
}

// TradeSignal is a reported trade outcome keyed by (agent, trade id hash).
// A nil Score means the signal is still waiting for an oracle.
type TradeSignal struct {
	Agent       uint64         `json:"agent"`
	TradeIDHash common.Hash    `json:"tradeIdHash"`
	ResultHash  common.Hash    `json:"resultHash"`
	ContextHash common.Hash    `json:"contextHash"`
	Reporter    common.Address `json:"reporter"`
	SubmittedAt uint64         `json:"submittedAt"`
	RiskFlags   uint8          `json:"riskFlags"`
	Score       *SignalScore   `json:"score" rlp:"nil"`
}

// Scored reports whether an oracle has already scored the signal.
func (s *TradeSignal) Scored() bool {
	return s.Score != nil
}

// MarkScored attaches the score once. It returns false, leaving the signal
// untouched, if a score is already present.
func (s *TradeSignal) MarkScored(score SignalScore) bool {
	if s.Scored() {
		return false
	}
	s.Score = &score
	return true
}

// ReputationState holds the cumulative and smoothed trust metrics of an agent.
type ReputationState struct {
	Agent              uint64   `json:"agent"`
	TotalWeightedScore *big.Int `json:"totalWeightedScore"`
	TotalWeight        uint64   `json:"totalWeight"`
	RollingScore       uint16   `json:"rollingScore"`
	LastScore          uint16   `json:"lastScore"`
	LastConfidenceBps  uint16   `json:"lastConfidenceBps"`
	ScoreCount         uint32   `json:"scoreCount"`
	LastUpdated        uint64   `json:"lastUpdated"`
}

// NewReputationState returns the empty state of an agent that was never scored.
func NewReputationState(agent uint64) *ReputationState {
	return &ReputationState{Agent: agent, TotalWeightedScore: new(big.Int)}
}

// Seeded reports whether the rolling score carries at least one event.
func (r *ReputationState) Seeded() bool {
	return r.ScoreCount > 0
}
