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
	"sync"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	settlementVolumeCounter = metrics.NewRegisteredCounter("n3ro/settlement/volume", nil)
	settlementFeeCounter    = metrics.NewRegisteredCounter("n3ro/settlement/fees", nil)
	scoreEventCounter       = metrics.NewRegisteredCounter("n3ro/reputation/scores", nil)

	actionCounters sync.Map // action name -> *actionMeters
)

type actionMeters struct {
	ok   metrics.Counter
	fail metrics.Counter
}

// markAction counts the outcome of one protocol action.
func markAction(action string, err error) {
	m, ok := actionCounters.Load(action)
	if !ok {
		m, _ = actionCounters.LoadOrStore(action, &actionMeters{
			ok:   metrics.GetOrRegisterCounter("n3ro/"+action+"/ok", nil),
			fail: metrics.GetOrRegisterCounter("n3ro/"+action+"/fail", nil),
		})
	}
	meters := m.(*actionMeters)
	if err != nil {
		meters.fail.Inc(1)
	} else {
		meters.ok.Inc(1)
	}
}
