// Copyright 2019 The go-ethereum Authors
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

package log

import "log/slog"

var root = new(swapHandler[Logger])

func init() {
	root.Swap(NewLogger(NewTerminalHandler()))
}

// SetDefault swaps the package-level logger used by the free functions below.
func SetDefault(l Logger) { root.Swap(l) }

func Root() Logger { return root.Get() }

func New(ctx ...interface{}) Logger { return root.Get().New(ctx...) }

func Trace(msg string, ctx ...interface{}) { root.Get().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Get().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Get().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Get().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Get().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Get().Crit(msg, ctx...) }

// SetLevel adjusts the minimum enabled level of the root logger's handler,
// if the handler supports it.
func SetLevel(lvl slog.Level) {
	if lh, ok := root.Get().Handler().(*levelFilterHandler); ok {
		lh.SetLevel(lvl)
	}
}
