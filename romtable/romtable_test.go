/*
 * adiprobe - CoreSight ROM table walker tests.
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

package romtable_test

import (
	"testing"

	AP "github.com/cornwell-labs/adiprobe/ap"
	DP "github.com/cornwell-labs/adiprobe/dp"
	M "github.com/cornwell-labs/adiprobe/memap"
	R "github.com/cornwell-labs/adiprobe/romtable"
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

func TestIsROMTableFalseForALeafComponent(t *testing.T) {
	e := setup(t)
	isTable, err := R.IsROMTable(e, T.MockDebugBase)
	if err != nil {
		t.Fatalf("IsROMTable: %v", err)
	}
	if isTable {
		t.Error("IsROMTable() = true, want false: the mock's component carries CID1 class 9, a generic leaf")
	}
}

func TestReadIdentity(t *testing.T) {
	e := setup(t)
	id, ok, err := R.ReadIdentity(e, T.MockDebugBase)
	if err != nil {
		t.Fatalf("ReadIdentity: %v", err)
	}
	if !ok {
		t.Fatal("ReadIdentity() ok = false, want true")
	}
	if id.Part != 0x0006 {
		t.Errorf("Part = 0x%04x, want 0x0006", id.Part)
	}
}

func TestWalkOnALeafComponentReturnsOneIdentity(t *testing.T) {
	e := setup(t)
	ids, err := R.Walk(e, T.MockDebugBase)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("len(ids) = %d, want 1", len(ids))
	}
	if ids[0].Part != 0x0006 {
		t.Errorf("Part = 0x%04x, want 0x0006", ids[0].Part)
	}
}
