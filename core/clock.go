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
	"sync/atomic"
	"time"
)

// Clock supplies the current time in unix seconds.
type Clock interface {
	Now() uint64
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock for tests and replay tooling.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a clock frozen at now.
func NewManualClock(now uint64) *ManualClock {
	c := new(ManualClock)
	c.now.Store(now)
	return c
}

// Now implements Clock.
func (c *ManualClock) Now() uint64 { return c.now.Load() }

// Set moves the clock to now.
func (c *ManualClock) Set(now uint64) { c.now.Store(now) }

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) { c.now.Add(d) }
