/*
 * adiprobe - Flash programmer tests.
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

package flash_test

import (
	"strings"
	"testing"

	AP "github.com/cornwell-labs/adiprobe/ap"
	DP "github.com/cornwell-labs/adiprobe/dp"
	F "github.com/cornwell-labs/adiprobe/flash"
	H "github.com/cornwell-labs/adiprobe/hexfile"
	M "github.com/cornwell-labs/adiprobe/memap"
	T "github.com/cornwell-labs/adiprobe/transport"
)

func setup(t *testing.T) *M.Engine {
	t.Helper()
	m := T.NewMock()
	d := DP.New(m)
	if err := d.EnterDebugMode(); err != nil {
		t.Fatalf("EnterDebugMode: %v", err)
	}
	acc := AP.New(d, m, 0)
	return M.New(d, acc, false)
}

func TestErasePageSetsAllOnes(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)
	if err := c.WriteWord(0, 0x00000000); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	if err := c.ErasePage(0); err != nil {
		t.Fatalf("ErasePage: %v", err)
	}
	v, err := e.ReadWord(0, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0xFFFFFFFF {
		t.Errorf("ReadWord(0) after erase = 0x%08x, want 0xffffffff", v)
	}
}

func TestWriteWordClearsBitsOnly(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)
	if err := c.WriteWord(0, 0x12345678); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	v, err := e.ReadWord(0, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("ReadWord(0) = 0x%08x, want 0x12345678", v)
	}
}

func TestProgramRejectsStreamMissingEndOfFile(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)
	r := H.NewReader(strings.NewReader(":0400000000100020CC\n"))
	if err := c.Program(r, nil); err != H.ErrNoEndOfFile {
		t.Errorf("Program(no EOF record) = %v, want ErrNoEndOfFile", err)
	}
}

func TestProgramHelloWorldImage(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)

	// Two words of a toy vector table at address 0: initial SP, reset handler.
	hex := ":0400000000100020CC\n" +
		":04000400B505000836\n" +
		":00000001FF\n"
	r := H.NewReader(strings.NewReader(hex))

	var progressCalls int
	err := c.Program(r, func(written int) { progressCalls++ })
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if progressCalls == 0 {
		t.Error("Program never invoked the progress callback")
	}

	sp, err := e.ReadWord(0, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord(0): %v", err)
	}
	if sp != 0x20001000 {
		t.Errorf("initial SP = 0x%08x, want 0x20001000", sp)
	}
	pc, err := e.ReadWord(4, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord(4): %v", err)
	}
	if pc != 0x080005B5 {
		t.Errorf("reset handler = 0x%08x, want 0x080005b5", pc)
	}
}

func TestProgramResolvesExtendedSegmentAddress(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)

	// Extended segment address 0x1000 (-> base 0x10000), one data word at
	// offset 0.
	hex := ":020000021000EC\n" +
		":04000000AABBCCDDEE\n" +
		":00000001FF\n"
	r := H.NewReader(strings.NewReader(hex))
	if err := c.Program(r, nil); err != nil {
		t.Fatalf("Program: %v", err)
	}

	v, err := e.ReadWord(0x10000, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord(0x10000): %v", err)
	}
	if v != 0xDDCCBBAA {
		t.Errorf("ReadWord(0x10000) = 0x%08x, want 0xddccbbaa (seg<<4 + offset)", v)
	}
}

func TestProgramSegmentAddressSurvivesAZeroLinearAddressRecord(t *testing.T) {
	e := setup(t)
	c := F.New(e, T.MockNVMCBase, T.MockPageSize, T.MockFlashBase)

	// A zero ExtendedLinearAddress record follows the segment address
	// record; the segment base must still apply to the data that follows,
	// per the "add seg to addr whenever the effective linear address is
	// zero" resolution rule.
	hex := ":020000021000EC\n" +
		":020000040000FA\n" +
		":040010001122334442\n" +
		":00000001FF\n"
	r := H.NewReader(strings.NewReader(hex))
	if err := c.Program(r, nil); err != nil {
		t.Fatalf("Program: %v", err)
	}

	v, err := e.ReadWord(0x10010, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord(0x10010): %v", err)
	}
	if v != 0x44332211 {
		t.Errorf("ReadWord(0x10010) = 0x%08x, want 0x44332211: the segment base must survive a zero linear-address record", v)
	}
}
