/*
 * adiprobe - Command parser tests.
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

package parser_test

import (
	"testing"

	CD "github.com/cornwell-labs/adiprobe/chipdb"
	P "github.com/cornwell-labs/adiprobe/command/parser"
	MX "github.com/cornwell-labs/adiprobe/metrics"
	S "github.com/cornwell-labs/adiprobe/session"
	T "github.com/cornwell-labs/adiprobe/transport"
)

func setup(t *testing.T) *S.Session {
	t.Helper()
	mx, _ := MX.New()
	s, _, err := S.Attach(T.NewMock(), CD.New(), mx, nil)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return s
}

func TestHaltAbbreviation(t *testing.T) {
	s := setup(t)
	quit, err := P.ProcessCommand("h", s, nil)
	if err != nil {
		t.Fatalf("ProcessCommand(h): %v", err)
	}
	if quit {
		t.Error("ProcessCommand(h) returned quit=true")
	}
}

func TestUnknownCommand(t *testing.T) {
	s := setup(t)
	if _, err := P.ProcessCommand("frobnicate", s, nil); err == nil {
		t.Error("ProcessCommand(frobnicate) unexpectedly succeeded")
	}
}

func TestAmbiguousAbbreviation(t *testing.T) {
	s := setup(t)
	if _, err := P.ProcessCommand("re", s, nil); err == nil {
		t.Error("ProcessCommand(re) unexpectedly succeeded: matches both read and reset")
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	s := setup(t)
	if _, err := P.ProcessCommand("write 20000000 cafef00d", s, nil); err != nil {
		t.Fatalf("ProcessCommand(write): %v", err)
	}
	if _, err := P.ProcessCommand("read 20000000", s, nil); err != nil {
		t.Fatalf("ProcessCommand(read): %v", err)
	}
}

func TestQuitReturnsTrue(t *testing.T) {
	s := setup(t)
	quit, err := P.ProcessCommand("quit", s, nil)
	if err != nil {
		t.Fatalf("ProcessCommand(quit): %v", err)
	}
	if !quit {
		t.Error("ProcessCommand(quit) returned quit=false")
	}
}

func TestCompleteCmd(t *testing.T) {
	matches := P.CompleteCmd("r")
	if len(matches) != 1 || matches[0] != "run" {
		t.Errorf("CompleteCmd(r) = %v, want [run] (read's min prefix length is 2)", matches)
	}
}

func TestCompleteCmdAmbiguousPrefix(t *testing.T) {
	matches := P.CompleteCmd("re")
	if len(matches) != 2 {
		t.Errorf("CompleteCmd(re) = %v, want 2 matches (read, reset)", matches)
	}
}
