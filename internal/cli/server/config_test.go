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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigRoundTripsToDownloaderConfig(t *testing.T) {
	conf := DefaultConfig()
	dl := conf.ToDownloaderConfig()

	require.Equal(t, conf.SyncEnabled, dl.SyncEnabled)
	require.Equal(t, conf.HeaderBacklogCap, dl.HeaderBacklogCap)
	require.Equal(t, time.Duration(conf.FetchWaitTimeoutMS)*time.Millisecond, dl.FetchWaitTimeout)
	require.Equal(t, time.Duration(conf.LogIntervalSeconds)*time.Second, dl.LogInterval)
}

func TestReadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncnode.toml")
	contents := `
sync_enabled = false
header_backlog_cap = 5000
chain_id = 42
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	conf, err := readConfigFile(path)
	require.NoError(t, err)
	require.False(t, conf.SyncEnabled)
	require.Equal(t, 5000, conf.HeaderBacklogCap)
	require.Equal(t, uint64(42), conf.ChainID)
	// Unset fields keep the default rather than zeroing out.
	require.Equal(t, DefaultConfig().BodyRequestBatch, conf.BodyRequestBatch)
}
