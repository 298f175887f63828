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

// Package server wires eth/downloader.Config to a TOML file and a
// mitchellh/cli command, the same split the teacher uses for its own
// server configuration.
package server

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chainsync/node/eth/downloader"
)

// Config is the on-disk shape of the sync engine's configuration. Its
// field names are the TOML keys a deployment's config file uses;
// ToDownloaderConfig converts it to the engine's own Config type.
type Config struct {
	SyncEnabled bool `toml:"sync_enabled"`

	HeaderBacklogCap int `toml:"header_backlog_cap"`
	ImportQueueCap   int `toml:"import_queue_cap"`

	BodyRequestBatch int `toml:"body_request_batch"`
	BodyRequestChunk int `toml:"body_request_chunk"`

	PrefetchWorkers int `toml:"prefetch_workers"`
	PrefetchBuffer  int `toml:"prefetch_buffer"`

	FetchWaitTimeoutMS int `toml:"fetch_wait_timeout_ms"`
	LogIntervalSeconds int `toml:"log_interval_seconds"`

	ChainID uint64 `toml:"chain_id"`
}

// DefaultConfig returns the on-disk default, mirroring
// downloader.DefaultConfig's values.
func DefaultConfig() *Config {
	d := downloader.DefaultConfig()
	return &Config{
		SyncEnabled:        d.SyncEnabled,
		HeaderBacklogCap:   d.HeaderBacklogCap,
		ImportQueueCap:     d.ImportQueueCap,
		BodyRequestBatch:   d.BodyRequestBatch,
		BodyRequestChunk:   d.BodyRequestChunk,
		PrefetchWorkers:    d.PrefetchWorkers,
		PrefetchBuffer:     d.PrefetchBuffer,
		FetchWaitTimeoutMS: int(d.FetchWaitTimeout / time.Millisecond),
		LogIntervalSeconds: int(d.LogInterval / time.Second),
	}
}

// readConfigFile decodes a TOML config file into the default config,
// so unset fields keep their defaults instead of zero-ing out.
func readConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read toml config file: %w", err)
	}

	conf := DefaultConfig()
	if _, err := toml.Decode(string(data), conf); err != nil {
		return nil, fmt.Errorf("failed to decode toml config file: %w", err)
	}
	return conf, nil
}

// ToDownloaderConfig converts the on-disk shape to the engine's own
// Config type.
func (c *Config) ToDownloaderConfig() downloader.Config {
	return downloader.Config{
		SyncEnabled:      c.SyncEnabled,
		HeaderBacklogCap: c.HeaderBacklogCap,
		ImportQueueCap:   c.ImportQueueCap,
		BodyRequestBatch: c.BodyRequestBatch,
		BodyRequestChunk: c.BodyRequestChunk,
		PrefetchWorkers:  c.PrefetchWorkers,
		PrefetchBuffer:   c.PrefetchBuffer,
		FetchWaitTimeout: time.Duration(c.FetchWaitTimeoutMS) * time.Millisecond,
		LogInterval:      time.Duration(c.LogIntervalSeconds) * time.Second,
		ChainID:          c.ChainID,
	}
}
