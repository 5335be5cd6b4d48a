/*
 * adiprobe - Command parser.
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

// Package parser implements the interactive console's command table: a
// word matches a command when it is a prefix of the command's name at
// least that command's minimum length long; a word matching more than one
// command is rejected as ambiguous. The reader's liner completer uses the
// same matching.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cornwell-labs/adiprobe/cortexm"
	"github.com/cornwell-labs/adiprobe/internal/hexdump"
	"github.com/cornwell-labs/adiprobe/memap"
	"github.com/cornwell-labs/adiprobe/session"
)

type cmd struct {
	name     string
	min      int
	process  func(*cmdLine, *session.Session, *zap.Logger) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "halt", min: 1, process: haltCmd},
	{name: "run", min: 1, process: runCmd},
	{name: "step", min: 2, process: stepCmd},
	{name: "reset", min: 2, process: resetCmd},
	{name: "read", min: 2, process: readCmd},
	{name: "write", min: 2, process: writeCmd},
	{name: "id", min: 2, process: idCmd},
	{name: "quit", min: 1, process: quitCmd},
}

// ProcessCommand dispatches one line of console input against s.
func ProcessCommand(commandLine string, s *session.Session, log *zap.Logger) (bool, error) {
	line := cmdLine{line: commandLine}
	word := line.getWord()

	match := matchList(word)
	if len(match) == 0 {
		return false, errors.New("command not found: " + word)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + word)
	}
	return match[0].process(&line, s, log)
}

// CompleteCmd returns the set of command names matching the word typed so
// far, for liner's tab completion.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	word := line.getWord()
	matches := matchList(word)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func matchCommand(m cmd, word string) bool {
	if len(word) > len(m.name) || len(word) < m.min {
		return false
	}
	return m.name[:len(word)] == word
}

func matchList(word string) []cmd {
	if word == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, word) {
			match = append(match, m)
		}
	}
	return match
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && line.line[line.pos] == ' ' {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool { return line.pos >= len(line.line) }

func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && line.line[line.pos] != ' ' {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

func (line *cmdLine) getHex32() (uint32, error) {
	word := line.getWord()
	if word == "" {
		return 0, errors.New("expected a hex address")
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(word, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", word, err)
	}
	return uint32(v), nil
}

func haltCmd(_ *cmdLine, s *session.Session, _ *zap.Logger) (bool, error) {
	core := s.Core()
	if core == nil {
		return false, errors.New("no core handle available")
	}
	return false, core.Halt()
}

func runCmd(_ *cmdLine, s *session.Session, _ *zap.Logger) (bool, error) {
	core := s.Core()
	if core == nil {
		return false, errors.New("no core handle available")
	}
	return false, core.Run()
}

func stepCmd(_ *cmdLine, s *session.Session, _ *zap.Logger) (bool, error) {
	core := s.Core()
	if core == nil {
		return false, errors.New("no core handle available")
	}
	return false, core.Step()
}

func resetCmd(line *cmdLine, s *session.Session, _ *zap.Logger) (bool, error) {
	core := s.Core()
	if core == nil {
		return false, errors.New("no core handle available")
	}
	mode := line.getWord()
	if mode == "halt" {
		return false, core.ResetAndHalt()
	}
	return false, core.Reset()
}

func readCmd(line *cmdLine, s *session.Session, log *zap.Logger) (bool, error) {
	addr, err := line.getHex32()
	if err != nil {
		return false, err
	}
	v, err := s.ReadWord(addr, memap.Width32)
	if err != nil {
		return false, err
	}
	fmt.Printf("0x%08x: %s\n", addr, hexdump.Word(v))
	return false, nil
}

func writeCmd(line *cmdLine, s *session.Session, log *zap.Logger) (bool, error) {
	addr, err := line.getHex32()
	if err != nil {
		return false, err
	}
	value, err := line.getHex32()
	if err != nil {
		return false, err
	}
	return false, s.WriteWord(addr, memap.Width32, value)
}

func idCmd(_ *cmdLine, s *session.Session, _ *zap.Logger) (bool, error) {
	chip := s.Chip()
	fmt.Printf("chip: %s  flash: 0x%08x  page size: %d\n", chip.Name, chip.FlashBase, chip.PageSize)
	core := s.Core()
	if core == nil {
		fmt.Println("core: unknown")
		return false, nil
	}
	state, reason, err := core.Status()
	if err != nil {
		return false, err
	}
	if state == cortexm.Halted {
		fmt.Printf("core state: %s (%s)\n", state, reason)
	} else {
		fmt.Printf("core state: %s\n", state)
	}
	return false, nil
}

func quitCmd(_ *cmdLine, _ *session.Session, _ *zap.Logger) (bool, error) {
	return true, nil
}
