// Copyright 2018 The go-n3ro Authors
// This file is part of go-n3ro.
//
// go-n3ro is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-n3ro is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-n3ro. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/trade"
)

// args reads positional command arguments, keeping the first error.
type args struct {
	ctx *cli.Context
	err error
}

func newArgs(ctx *cli.Context, min int) *args {
	a := &args{ctx: ctx}
	if ctx.NArg() < min {
		a.err = fmt.Errorf("%s: expected %d arguments, got %d (usage: %s)", ctx.Command.Name, min, ctx.NArg(), ctx.Command.ArgsUsage)
	}
	return a
}

func (a *args) raw(i int, name string) (string, bool) {
	if a.err != nil {
		return "", false
	}
	if i >= a.ctx.NArg() {
		return "", false
	}
	return a.ctx.Args().Get(i), true
}

func (a *args) fail(name, value string, err error) {
	if a.err == nil {
		a.err = fmt.Errorf("invalid %s %q: %v", name, value, err)
	}
}

func (a *args) string(i int, name string) string {
	s, _ := a.raw(i, name)
	return s
}

func (a *args) uint64(i int, name string) uint64 {
	s, ok := a.raw(i, name)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		a.fail(name, s, err)
	}
	return v
}

func (a *args) uint16(i int, name string) uint16 {
	s, ok := a.raw(i, name)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		a.fail(name, s, err)
	}
	return uint16(v)
}

func (a *args) bool(i int, name string, def bool) bool {
	s, ok := a.raw(i, name)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		a.fail(name, s, err)
	}
	return v
}

func (a *args) address(i int, name string) common.Address {
	s, ok := a.raw(i, name)
	if !ok {
		return common.Address{}
	}
	addr, err := parseAddress(s)
	if err != nil {
		a.fail(name, s, err)
	}
	return addr
}

func (a *args) hash(i int, name string) common.Hash {
	s, ok := a.raw(i, name)
	if !ok {
		return common.Hash{}
	}
	h, err := parseHash(s)
	if err != nil {
		a.fail(name, s, err)
	}
	return h
}

// tradeKey reads a trade reference given either as a 32 byte hash or as a
// raw trade id.
func (a *args) tradeKey(i int, name string) common.Hash {
	s, ok := a.raw(i, name)
	if !ok {
		return common.Hash{}
	}
	if trade.IsBytes32Hex(s) {
		return common.HexToHash(s)
	}
	return trade.TradeIDHash(s)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("not a hex address")
	}
	return common.HexToAddress(s), nil
}

// parseHash accepts 0x-prefixed hex of at most 32 bytes, left padded.
func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("longer than %d bytes", common.HashLength)
	}
	return common.BytesToHash(b), nil
}

func hashFlag(ctx *cli.Context, name string) (common.Hash, error) {
	if !ctx.IsSet(name) {
		return common.Hash{}, nil
	}
	return parseHash(ctx.String(name))
}

func addressFlag(ctx *cli.Context, name string) (common.Address, error) {
	if !ctx.IsSet(name) {
		return common.Address{}, nil
	}
	return parseAddress(ctx.String(name))
}
