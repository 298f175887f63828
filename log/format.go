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

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
	LevelCrit:  "CRIT ",
}

var levelColors = map[slog.Level]int{
	LevelTrace: 35, // magenta
	LevelDebug: 36, // cyan
	LevelInfo:  32, // green
	LevelWarn:  33, // yellow
	LevelError: 31, // red
	LevelCrit:  35, // magenta
}

// terminalHandler renders records as human-readable, optionally colored
// lines, the way the teacher's own terminal handler does.
type terminalHandler struct {
	mu     sync.Mutex
	wr     io.Writer
	color  bool
	attrs  []slog.Attr
	levelF slog.Level
}

// levelFilterHandler is a thin decorator that drops records below a
// configurable minimum level; SetLevel mutates it in place.
type levelFilterHandler struct {
	inner *terminalHandler
}

func (h *levelFilterHandler) SetLevel(lvl slog.Level) { h.inner.levelF = lvl }

func (h *levelFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *levelFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelFilterHandler{inner: h.inner.WithAttrs(attrs).(*terminalHandler)}
}

func (h *levelFilterHandler) WithGroup(name string) slog.Handler {
	return h
}

// NewTerminalHandler returns a slog.Handler that writes colorized,
// human-readable log lines to stderr when attached to a terminal, and
// plain lines otherwise.
func NewTerminalHandler() slog.Handler {
	out := colorable.NewColorableStderr()
	isTerm := isatty.IsTerminal(os.Stderr.Fd())
	return &levelFilterHandler{inner: &terminalHandler{wr: out, color: isTerm, levelF: LevelTrace}}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.levelF
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &terminalHandler{
		wr:     h.wr,
		color:  h.color,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		levelF: h.levelF,
	}
	return next
}

func (h *terminalHandler) WithGroup(name string) slog.Handler { return h }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	b.WriteString(formatTime(r.Time))
	b.WriteByte(' ')

	name, color := levelNames[r.Level], levelColors[r.Level]
	if name == "" {
		name, color = r.Level.String(), 37
	}
	if h.color {
		fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m", color, name)
	} else {
		b.WriteString(name)
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)

	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.wr, b.String())
	return err
}
