/*
 * adiprobe - MEM-AP memory engine tests.
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

package memap_test

import (
	"testing"

	AP "github.com/cornwell-labs/adiprobe/ap"
	DP "github.com/cornwell-labs/adiprobe/dp"
	M "github.com/cornwell-labs/adiprobe/memap"
	T "github.com/cornwell-labs/adiprobe/transport"
)

const ramBase = 0x20000000

func setup(t *testing.T) (*T.Mock, *M.Engine) {
	t.Helper()
	m := T.NewMock()
	d := DP.New(m)
	if err := d.EnterDebugMode(); err != nil {
		t.Fatalf("EnterDebugMode: %v", err)
	}
	acc := AP.New(d, m, 0)
	return m, M.New(d, acc, false)
}

func TestWordRoundTrip(t *testing.T) {
	_, e := setup(t)
	if err := e.WriteWord(ramBase, M.Width32, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	v, err := e.ReadWord(ramBase, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("ReadWord() = 0x%08x, want 0xDEADBEEF", v)
	}
}

func TestSubWordReadModifyWrite(t *testing.T) {
	_, e := setup(t)
	if err := e.WriteWord(ramBase, M.Width32, 0x11223344); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	if err := e.WriteWord(ramBase+1, M.Width8, 0xAB); err != nil {
		t.Fatalf("WriteWord(byte): %v", err)
	}
	v, err := e.ReadWord(ramBase, M.Width32)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0x1122AB44 {
		t.Errorf("ReadWord() = 0x%08x, want 0x1122ab44 after byte write at lane 1", v)
	}
	b, err := e.ReadWord(ramBase+1, M.Width8)
	if err != nil {
		t.Fatalf("ReadWord(byte): %v", err)
	}
	if b != 0xAB {
		t.Errorf("ReadWord(byte) = 0x%02x, want 0xab", b)
	}
}

func TestUnalignedAddressRejected(t *testing.T) {
	_, e := setup(t)
	if _, err := e.ReadWord(ramBase+1, M.Width32); err == nil {
		t.Error("ReadWord at an unaligned 32-bit address unexpectedly succeeded")
	}
	if _, err := e.ReadWord(ramBase+1, M.Width16); err == nil {
		t.Error("ReadWord at an unaligned 16-bit address unexpectedly succeeded")
	}
}

func TestBlockWriteReadRoundTrip(t *testing.T) {
	_, e := setup(t)
	values := make([]uint32, 16)
	for i := range values {
		values[i] = uint32(i) * 0x1000
	}
	if err := e.WriteBlock32(ramBase, values); err != nil {
		t.Fatalf("WriteBlock32: %v", err)
	}
	got, err := e.ReadBlock32(ramBase, len(values))
	if err != nil {
		t.Fatalf("ReadBlock32: %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("got[%d] = 0x%08x, want 0x%08x", i, got[i], values[i])
		}
	}
}

// TestBlockCrossesWindowBoundary writes a block spanning a 1KiB TAR
// window and checks the engine re-issues TAR at the boundary instead of
// relying on hardware auto-increment to carry across it.
func TestBlockCrossesWindowBoundary(t *testing.T) {
	m, e := setup(t)
	addr := uint32(ramBase + 1024 - 8) // 2 words before the first window boundary
	values := make([]uint32, 8)       // spans well past the boundary
	for i := range values {
		values[i] = uint32(0xA0000000 + i)
	}
	if err := e.WriteBlock32(addr, values); err != nil {
		t.Fatalf("WriteBlock32: %v", err)
	}
	got, err := e.ReadBlock32(addr, len(values))
	if err != nil {
		t.Fatalf("ReadBlock32: %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("got[%d] = 0x%08x, want 0x%08x", i, got[i], values[i])
		}
	}
	if len(m.TARWrites) < 2 {
		t.Errorf("len(TARWrites) = %d, want at least 2 TAR writes across a window boundary", len(m.TARWrites))
	}
}

func TestOnly32BitFallsBackForSubWordAccess(t *testing.T) {
	m := T.NewMock()
	d := DP.New(m)
	if err := d.EnterDebugMode(); err != nil {
		t.Fatalf("EnterDebugMode: %v", err)
	}
	acc := AP.New(d, m, 0)
	e := M.New(d, acc, true)

	if err := e.WriteWord(ramBase, M.Width32, 0x11223344); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	b, err := e.ReadWord(ramBase+2, M.Width16)
	if err != nil {
		t.Fatalf("ReadWord(half) on a byte-incapable AP: %v", err)
	}
	if b != 0x1122 {
		t.Errorf("ReadWord(half) = 0x%04x, want 0x1122", b)
	}
}
