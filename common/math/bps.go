// Copyright 2024 The go-n3ro Authors
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

// Package math provides overflow-checked fixed-point helpers for basis-point
// arithmetic. Every operation reports overflow instead of wrapping.
package math

import (
	"errors"
	"math/big"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"github.com/n3roai/go-n3ro/params"
)

// ErrOverflow is returned when a checked operation exceeds its integer width.
var ErrOverflow = errors.New("math overflow")

// Width of the cumulative reputation accumulators.
const accumulatorBits = 128

var maxBps = uint256.NewInt(params.MaxBps)

// MulDivBps returns floor(amount * bps / 10000). The product is formed in 256
// bits, so it never overflows for a 64-bit amount; the quotient is checked
// against 64 bits all the same.
func MulDivBps(amount uint64, bps uint16) (uint64, error) {
	prod, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(uint64(bps)))
	if overflow {
		return 0, ErrOverflow
	}
	prod.Div(prod, maxBps)
	if !prod.IsUint64() {
		return 0, ErrOverflow
	}
	return prod.Uint64(), nil
}

// SumBps adds basis-point shares with overflow checking. It does not enforce
// the 10000 ceiling; callers compare the result against params.MaxBps.
func SumBps(shares ...uint16) (uint64, error) {
	var total uint64
	for _, s := range shares {
		var overflow bool
		if total, overflow = gmath.SafeAdd(total, uint64(s)); overflow {
			return 0, ErrOverflow
		}
	}
	return total, nil
}

// SafeAdd returns x+y or ErrOverflow.
func SafeAdd(x, y uint64) (uint64, error) {
	sum, overflow := gmath.SafeAdd(x, y)
	if overflow {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SafeSub returns x-y or ErrOverflow when y > x.
func SafeSub(x, y uint64) (uint64, error) {
	diff, overflow := gmath.SafeSub(x, y)
	if overflow {
		return 0, ErrOverflow
	}
	return diff, nil
}

// SafeSubChain subtracts every y from x in order, failing on the first underflow.
func SafeSubChain(x uint64, ys ...uint64) (uint64, error) {
	var err error
	for _, y := range ys {
		if x, err = SafeSub(x, y); err != nil {
			return 0, err
		}
	}
	return x, nil
}

// MulWide returns x*y as a 256-bit value.
func MulWide(x, y uint64) *uint256.Int {
	// Two 64-bit factors cannot overflow 256 bits.
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
}

// AccumulateWide returns acc+delta, failing if the sum leaves the 128-bit
// accumulator range. A nil acc is treated as zero. acc is not modified.
func AccumulateWide(acc *big.Int, delta *uint256.Int) (*big.Int, error) {
	cur := new(uint256.Int)
	if acc != nil {
		if acc.Sign() < 0 {
			return nil, ErrOverflow
		}
		var overflow bool
		if cur, overflow = uint256.FromBig(acc); overflow {
			return nil, ErrOverflow
		}
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur, delta)
	if overflow || sum.BitLen() > accumulatorBits {
		return nil, ErrOverflow
	}
	return sum.ToBig(), nil
}

// WeightedAverage folds next into prev using an alpha expressed in basis
// points: floor((prev*(10000-alpha) + next*alpha) / 10000). The result never
// exceeds max(prev, next).
func WeightedAverage(prev, next uint64, alphaBps uint16) (uint64, error) {
	if alphaBps > params.MaxBps {
		return 0, ErrOverflow
	}
	keep, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(prev), uint256.NewInt(uint64(params.MaxBps-alphaBps)))
	if overflow {
		return 0, ErrOverflow
	}
	take, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(next), uint256.NewInt(uint64(alphaBps)))
	if overflow {
		return 0, ErrOverflow
	}
	sum, overflow := new(uint256.Int).AddOverflow(keep, take)
	if overflow {
		return 0, ErrOverflow
	}
	sum.Div(sum, maxBps)
	if !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}
