/*
 * adiprobe - Intel-HEX record reader tests.
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

package hexfile_test

import (
	"io"
	"strings"
	"testing"

	H "github.com/cornwell-labs/adiprobe/hexfile"
)

func TestReadsDataRecord(t *testing.T) {
	// :03 0030 00 02337A 1E  -> byte count 3, offset 0x0030, type 0, data 02 33 7A, checksum 1E
	r := H.NewReader(strings.NewReader(":0300300002337A1E\n"))
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Type != H.TypeData {
		t.Fatalf("Type = %v, want TypeData", rec.Type)
	}
	if rec.Offset != 0x0030 {
		t.Errorf("Offset = 0x%04x, want 0x0030", rec.Offset)
	}
	want := []byte{0x02, 0x33, 0x7A}
	if len(rec.Data) != len(want) {
		t.Fatalf("len(Data) = %d, want %d", len(rec.Data), len(want))
	}
	for i, b := range want {
		if rec.Data[i] != b {
			t.Errorf("Data[%d] = 0x%02x, want 0x%02x", i, rec.Data[i], b)
		}
	}
}

func TestEndOfFileTerminatesTheStream(t *testing.T) {
	r := H.NewReader(strings.NewReader(":00000001FF\n"))
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Type != H.TypeEndOfFile {
		t.Fatalf("Type = %v, want TypeEndOfFile", rec.Type)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after EOF record returned %v, want io.EOF", err)
	}
}

func TestExtendedLinearAddressRecord(t *testing.T) {
	// :02 0000 04 0800 F2 -> sets upper 16 bits to 0x0800
	r := H.NewReader(strings.NewReader(":020000040800F2\n"))
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Type != H.TypeExtendedLinearAddress {
		t.Fatalf("Type = %v, want TypeExtendedLinearAddress", rec.Type)
	}
	if rec.Lin != 0x0800 {
		t.Errorf("Lin = 0x%04x, want 0x0800", rec.Lin)
	}
}

func TestBadChecksumRejected(t *testing.T) {
	r := H.NewReader(strings.NewReader(":0300300002337A00\n"))
	if _, err := r.Next(); err == nil {
		t.Error("Next() with a corrupted checksum unexpectedly succeeded")
	}
}

func TestMissingColonRejected(t *testing.T) {
	r := H.NewReader(strings.NewReader("0300300002337A1E\n"))
	if _, err := r.Next(); err == nil {
		t.Error("Next() on a line missing the ':' marker unexpectedly succeeded")
	}
}

func TestStreamWithoutEndOfFileRecord(t *testing.T) {
	r := H.NewReader(strings.NewReader(":0300300002337A1E\n"))
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next (data record): %v", err)
	}
	if _, err := r.Next(); err != H.ErrNoEndOfFile {
		t.Errorf("Next() at end of a stream with no EOF record = %v, want ErrNoEndOfFile", err)
	}
}

func TestBlankLinesSkipped(t *testing.T) {
	r := H.NewReader(strings.NewReader("\n\n:00000001FF\n"))
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Type != H.TypeEndOfFile {
		t.Fatalf("Type = %v, want TypeEndOfFile", rec.Type)
	}
}
