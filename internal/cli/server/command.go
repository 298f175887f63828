// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package server

import (
	"strings"

	"github.com/chainsync/node/log"
	"github.com/mitchellh/cli"
)

// Command is the "server" subcommand: it loads configuration and exposes
// it through Config. It does not construct or start a
// downloader.Downloader, which needs a Chain and PeerPool supplied by an
// embedding node; cmd/syncnode does not supply them either.
type Command struct {
	UI cli.Ui

	config *Config
}

// Help implements cli.Command.
func (c *Command) Help() string {
	return `Usage: syncnode server [-config=<path>]

  Load the block sync engine configuration from a TOML file.`
}

// Synopsis implements cli.Command.
func (c *Command) Synopsis() string { return "Load the block sync engine configuration" }

// checkConfigFlag extracts the -config/--config flag value without
// pulling in a full flag.FlagSet, matching the teacher's own minimal
// argument scan.
func checkConfigFlag(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-config") || strings.HasPrefix(arg, "--config") {
			if parts := strings.SplitN(arg, "=", 2); len(parts) == 2 {
				return parts[1]
			}
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// Run implements cli.Command.
func (c *Command) Run(args []string) int {
	path := checkConfigFlag(args)

	conf := DefaultConfig()
	if path != "" {
		log.Info("reading config file", "path", path)
		loaded, err := readConfigFile(path)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		conf = loaded
	}
	c.config = conf

	c.UI.Output("configuration loaded; starting the engine needs a chain and peer pool from an embedding node")
	return 0
}

// Config returns the configuration Run most recently loaded.
func (c *Command) Config() *Config { return c.config }
