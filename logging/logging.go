/*
 * adiprobe - Logging.
 *
 * Copyright 2026, adiprobe contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package logging wraps zap so every record fans out to a log file
// (always, down to debug level) and to stderr (info and above, or debug
// too once SetDebug flips the toggle).
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Handler owns the dual file/stderr fan-out and the debug toggle.
type Handler struct {
	core  zapcore.Core
	debug *bool
}

// debugGate lets stderr output promote debug-level records once the
// handler's debug flag is set, without rebuilding the core.
type debugGate struct {
	h *Handler
}

func (g debugGate) Enabled(level zapcore.Level) bool {
	if level > zapcore.DebugLevel {
		return true
	}
	return g.h.debug != nil && *g.h.debug
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// NewHandler builds a Handler that always writes to file (if non-nil) and
// writes info-and-above (or everything, once debug is true) to stderr.
func NewHandler(file io.Writer, debug *bool) *Handler {
	encoder := zapcore.NewConsoleEncoder(encoderConfig())
	h := &Handler{debug: debug}

	var cores []zapcore.Core
	if file != nil {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(file)), zapcore.DebugLevel))
	}
	cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), debugGate{h: h}))

	h.core = zapcore.NewTee(cores...)
	return h
}

// SetDebug repoints the stderr gate at a new debug flag.
func (h *Handler) SetDebug(debug *bool) {
	h.debug = debug
}

// Logger returns a zap.Logger backed by this handler's core.
func (h *Handler) Logger() *zap.Logger {
	return zap.New(h.core)
}

// New is a convenience constructor used by main and by tests that only
// need a throwaway logger writing to stderr.
func New(file io.Writer, debug bool) *zap.Logger {
	return NewHandler(file, &debug).Logger()
}
