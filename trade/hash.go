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
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var bytes32Hex = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// IsBytes32Hex reports whether s is a 0x-prefixed 32 byte hex string.
func IsBytes32Hex(s string) bool {
	return bytes32Hex.MatchString(s)
}

// TradeIDHash is keccak256 of the UTF-8 trade id. It doubles as the
// settlement reference of the trade.
func TradeIDHash(tradeID string) common.Hash {
	return crypto.Keccak256Hash([]byte(tradeID))
}

// ResultHash returns the explicit result hash of cmd, or the hash of its
// result document. Without a result the document is
// {"agentId":..,"status":"EXECUTED","tradeId":..}.
func ResultHash(cmd *Command) (common.Hash, error) {
	if IsBytes32Hex(cmd.ResultHash) {
		return common.HexToHash(cmd.ResultHash), nil
	}
	var doc interface{}
	if present(cmd.Result) {
		doc = cmd.Result
	} else {
		doc = map[string]interface{}{
			"status":  "EXECUTED",
			"tradeId": cmd.TradeID,
			"agentId": cmd.AgentID.jsonValue(),
		}
	}
	return hashDocument(doc)
}

// ContextHash returns the explicit context hash of cmd, or the hash of its
// context document. Without a context the document is
// {"agentId":..,"result":..|null,"tradeId":..}.
func ContextHash(cmd *Command) (common.Hash, error) {
	if IsBytes32Hex(cmd.ContextHash) {
		return common.HexToHash(cmd.ContextHash), nil
	}
	var doc interface{}
	if present(cmd.Context) {
		doc = cmd.Context
	} else {
		var result interface{} = json.RawMessage("null")
		if present(cmd.Result) {
			result = cmd.Result
		}
		doc = map[string]interface{}{
			"agentId": cmd.AgentID.jsonValue(),
			"tradeId": cmd.TradeID,
			"result":  result,
		}
	}
	return hashDocument(doc)
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func hashDocument(doc interface{}) (common.Hash, error) {
	enc, err := StableJSON(doc)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(enc)), nil
}

// StableJSON encodes v as compact JSON with object keys sorted at every
// level. Raw JSON values are decoded first so their keys are sorted too.
func StableJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := writeStable(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeStable(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(val, &decoded); err != nil {
			return fmt.Errorf("invalid json document: %w", err)
		}
		return writeStable(buf, decoded)
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeStable(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeStable(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return writeScalar(buf, val)
	}
}

// writeScalar encodes a leaf value without HTML escaping.
func writeScalar(buf *bytes.Buffer, v interface{}) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(out.Bytes(), "\n"))
	return nil
}
