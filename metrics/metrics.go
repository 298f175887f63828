// Copyright 2014 The go-ethereum Authors
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

// Package metrics provides the Meter/Timer/Gauge counters this module
// registers as package-level variables next to the code that updates
// them (e.g. eth/downloader/headerfetcher.go), following the teacher's
// own metrics.NewRegisteredX call shape.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	defaultRegistry = newRegistry()
)

type registry struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newRegistry() *registry {
	return &registry{items: make(map[string]interface{})}
}

// Meter counts events; it does not compute rates.
type Meter struct {
	count atomic.Int64
}

func (m *Meter) Mark(n int64) { m.count.Add(n) }
func (m *Meter) Count() int64 { return m.count.Load() }

// Timer counts recorded durations and keeps their total; it does not
// track their distribution or rate.
type Timer struct {
	count atomic.Int64
	total atomic.Int64 // nanoseconds
}

func (t *Timer) Update(d time.Duration) {
	t.count.Add(1)
	t.total.Add(int64(d))
}

func (t *Timer) UpdateSince(start time.Time) { t.Update(time.Since(start)) }

func (t *Timer) Count() int64 { return t.count.Load() }

// Gauge tracks a single instantaneous value.
type Gauge struct {
	value atomic.Int64
}

func (g *Gauge) Update(v int64)   { g.value.Store(v) }
func (g *Gauge) Value() int64     { return g.value.Load() }
func (g *Gauge) Inc(delta int64)  { g.value.Add(delta) }
func (g *Gauge) Dec(delta int64)  { g.value.Add(-delta) }

func register[T any](name string, create func() T) T {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	if existing, ok := defaultRegistry.items[name]; ok {
		return existing.(T)
	}
	v := create()
	defaultRegistry.items[name] = v
	return v
}

// NewRegisteredMeter returns the named Meter, creating it on first use.
// The tags parameter matches the teacher's call shape and is currently
// unused (no label dimensions are needed by this module's metrics).
func NewRegisteredMeter(name string, tags map[string]string) *Meter {
	return register(name, func() *Meter { return new(Meter) })
}

// NewRegisteredTimer returns the named Timer, creating it on first use.
func NewRegisteredTimer(name string, tags map[string]string) *Timer {
	return register(name, func() *Timer { return new(Timer) })
}

// NewRegisteredGauge returns the named Gauge, creating it on first use.
func NewRegisteredGauge(name string, tags map[string]string) *Gauge {
	return register(name, func() *Gauge { return new(Gauge) })
}
