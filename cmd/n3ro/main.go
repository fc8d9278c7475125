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
// n3ro is the command line client of the agent protocol engine.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/core"
	"github.com/n3roai/go-n3ro/params"
)

const (
	clientIdentifier = "n3ro"
	databaseName     = "protocoldata"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""

	app = cli.NewApp()
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the protocol database",
		Value: defaultDataDir(),
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "Address of the identity issuing the action",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the database",
	}
)

func init() {
	app.Name = clientIdentifier
	app.Usage = "the agent protocol command line interface"
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Flags = []cli.Flag{
		dataDirFlag,
		configFileFlag,
		verbosityFlag,
		fromFlag,
		cacheFlag,
	}
	app.Commands = []cli.Command{
		dumpConfigCommand,
		inspectCommand,
		serveCommand,
	}
	app.Commands = append(app.Commands, identityCommands...)
	app.Commands = append(app.Commands, adminCommands...)
	app.Commands = append(app.Commands, workflowCommands...)
	app.Commands = append(app.Commands, tokenCommand)
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx.GlobalInt(verbosityFlag.Name))
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(verbosity int) {
	var (
		output   io.Writer = colorable.NewColorableStderr()
		useColor           = isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	)
	if !useColor {
		output = os.Stderr
	}
	handler := log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".n3ro")
	}
	return ""
}

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// openProtocol opens the protocol database in the configured data directory.
// The returned function closes it.
func openProtocol(ctx *cli.Context, cfg *n3roConfig) (*core.Protocol, func()) {
	db, err := leveldb.New(filepath.Join(cfg.Node.DataDir, databaseName), cfg.Node.DatabaseCache, cfg.Node.DatabaseHandles, "n3ro/db/protocol/", false)
	if err != nil {
		Fatalf("Failed to open database: %v", err)
	}
	p, err := core.New(db, &core.Config{CacheSize: cfg.Node.RecordCache})
	if err != nil {
		db.Close()
		Fatalf("Failed to load protocol state: %v", err)
	}
	return p, func() { db.Close() }
}

// caller returns the --from identity, which every action requires.
func caller(ctx *cli.Context) common.Address {
	from := ctx.GlobalString(fromFlag.Name)
	if !common.IsHexAddress(from) {
		Fatalf("--%s must be a hex address, got %q", fromFlag.Name, from)
	}
	return common.HexToAddress(from)
}
