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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hash32 = "0x00000000000000000000000000000000000000000000000000000000000000ab"

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"agentId":3,"tradeId":"  t-9 ","riskFlags":4,"resultHash":"` + hash32 + `"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cmd.AgentID.ID)
	assert.Equal(t, "t-9", cmd.TradeID)
	require.NotNil(t, cmd.RiskFlags)
	assert.Equal(t, 4, *cmd.RiskFlags)

	cmd, err = ParseCommand([]byte(`{"agentId":"12","tradeId":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), cmd.AgentID.ID)
	out, err := json.Marshal(cmd.AgentID)
	require.NoError(t, err)
	assert.Equal(t, `"12"`, string(out))
}

func TestParseCommandRejects(t *testing.T) {
	tests := []struct {
		body string
		want error
	}{
		{`{"tradeId":"x"}`, ErrMissingAgentID},
		{`{"agentId":"","tradeId":"x"}`, ErrMissingAgentID},
		{`{"agentId":1}`, ErrMissingTradeID},
		{`{"agentId":1,"tradeId":"   "}`, ErrMissingTradeID},
		{`{"agentId":1,"tradeId":"x","resultHash":"0x12"}`, ErrBadResultHash},
		{`{"agentId":1,"tradeId":"x","contextHash":"nothex"}`, ErrBadContextHash},
		{`{"agentId":1,"tradeId":"x","riskFlags":256}`, ErrBadRiskFlags},
		{`{"agentId":1,"tradeId":"x","riskFlags":-1}`, ErrBadRiskFlags},
		{`{"agentId":1,"tradeId":"x","agentTokenAccount":"bogus"}`, ErrBadTokenAccount},
	}
	for _, tt := range tests {
		_, err := ParseCommand([]byte(tt.body))
		assert.ErrorIs(t, err, tt.want, tt.body)
	}
	_, err := ParseCommand([]byte(`[1,2]`))
	assert.Error(t, err)
}
