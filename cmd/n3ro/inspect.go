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
	"io"
	"math/big"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/core"
	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/types"
)

var inspectCommand = cli.Command{
	Name:      "inspect",
	Usage:     "Print protocol records",
	ArgsUsage: "[agentId]",
	Category:  "MISCELLANEOUS COMMANDS",
	Description: `Without arguments inspect prints the protocol configuration. Given an
agent id it prints the agent identity, verification, reputation, split,
signals and distribution receipts.`,
	Action: action(func(ctx *cli.Context, p *core.Protocol) error {
		if ctx.NArg() == 0 {
			return renderProtocol(os.Stdout, p)
		}
		a := newArgs(ctx, 1)
		id := a.uint64(0, "agent id")
		if a.err != nil {
			return a.err
		}
		return renderAgent(os.Stdout, p, id)
	}),
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func renderProtocol(out io.Writer, p *core.Protocol) error {
	cfg := p.ProtocolConfig()
	if cfg == nil {
		return core.ErrNotInitialized
	}
	table := newTable(out, "Field", "Value")
	table.AppendBulk([][]string{
		{"admin", cfg.Admin.Hex()},
		{"settlement mint", cfg.SettlementMint.Hex()},
		{"settlement vault", cfg.SettlementVault.Hex()},
		{"protocol treasury", cfg.ProtocolTreasury.Hex()},
		{"vault authority", cfg.VaultAuthority.Hex()},
		{"protocol fee (bps)", strconv.Itoa(int(cfg.ProtocolFeeBps))},
		{"min confidence (bps)", strconv.Itoa(int(cfg.MinConfidenceBps))},
		{"score alpha (bps)", strconv.Itoa(int(cfg.ScoreAlphaBps))},
		{"max signal age (s)", strconv.FormatUint(cfg.MaxSignalAge, 10)},
		{"require verified", strconv.FormatBool(cfg.RequireVerifiedForScore)},
		{"enforce settlement token", strconv.FormatBool(cfg.EnforceSettlementToken)},
		{"paused", strconv.FormatBool(cfg.Paused)},
	})
	table.Render()
	return nil
}

func renderAgent(out io.Writer, p *core.Protocol, id uint64) error {
	agent := p.Agent(id)
	if agent == nil {
		return core.ErrAgentNotFound
	}
	table := newTable(out, "Field", "Value")
	table.AppendBulk([][]string{
		{"id", strconv.FormatUint(agent.ID, 10)},
		{"owner", agent.Owner.Hex()},
		{"wallet", agent.Wallet.Hex()},
		{"uri", agent.URI},
		{"metadata hash", agent.MetadataHash.Hex()},
	})
	if rec := p.Verification(id); rec != nil {
		table.AppendBulk([][]string{
			{"verification", rec.Status.String()},
			{"verified now", strconv.FormatBool(rec.IsVerified(p.Now()))},
			{"verification expires", strconv.FormatUint(rec.ExpiresAt, 10)},
		})
	} else {
		table.Append([]string{"verification", types.StatusNone.String()})
	}
	if rep := p.Reputation(id); rep != nil {
		table.AppendBulk([][]string{
			{"rolling score", strconv.Itoa(int(rep.RollingScore))},
			{"last score", strconv.Itoa(int(rep.LastScore))},
			{"scores", strconv.FormatUint(uint64(rep.ScoreCount), 10)},
			{"weighted average", fmt.Sprint(weightedAverage(rep))},
		})
	}
	if split := p.Split(id); split != nil {
		table.AppendBulk([][]string{
			{"platform", fmt.Sprintf("%s (%d bps)", split.Platform.Hex(), split.PlatformBps)},
			{"referrer", fmt.Sprintf("%s (%d bps)", split.Referrer.Hex(), split.ReferrerBps)},
			{"reserve", fmt.Sprintf("%s (%d bps)", split.ReserveVault.Hex(), split.ReserveBps)},
		})
	}
	table.Render()

	signals := rawdb.ReadAgentSignals(p.Database(), id)
	if len(signals) > 0 {
		fmt.Fprintln(out)
		st := newTable(out, "Trade", "Reporter", "Submitted", "Risk", "Score", "Confidence")
		for _, sig := range signals {
			score, conf := "-", "-"
			if sig.Scored() {
				score, conf = strconv.Itoa(int(sig.Score.Score)), strconv.Itoa(int(sig.Score.ConfidenceBps))
			}
			st.Append([]string{sig.TradeIDHash.TerminalString(), sig.Reporter.Hex(), strconv.FormatUint(sig.SubmittedAt, 10),
				strconv.Itoa(int(sig.RiskFlags)), score, conf})
		}
		st.Render()
	}
	receipts := rawdb.ReadAgentReceipts(p.Database(), id)
	if len(receipts) > 0 {
		fmt.Fprintln(out)
		rt := newTable(out, "Reference", "Amount", "Operator", "Distributed")
		for _, r := range receipts {
			rt.Append([]string{r.Reference.TerminalString(), strconv.FormatUint(r.Amount, 10), r.Operator.Hex(),
				strconv.FormatUint(r.DistributedAt, 10)})
		}
		rt.Render()
	}
	return nil
}

func weightedAverage(rep *types.ReputationState) uint64 {
	if rep.TotalWeight == 0 || rep.TotalWeightedScore == nil {
		return 0
	}
	avg := new(big.Int).Div(rep.TotalWeightedScore, new(big.Int).SetUint64(rep.TotalWeight))
	return avg.Uint64()
}
