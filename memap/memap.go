/*
 * adiprobe - MEM-AP memory engine.
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

// Package memap implements the MEM-AP memory engine: TAR windowing, width
// policy, block transfers, and sticky-fault recovery. It is
// grounded on probe-rs's memory-access window logic
// (probe-rs and
// communication_interface.rs). Fault recovery writes ABORT to clear the
// sticky flags and returns the original error; it reads nothing back.
package memap

import (
	"fmt"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/ap"
	"github.com/cornwell-labs/adiprobe/dp"
)

// windowSize is the byte span a MEM-AP's TAR auto-increments within
// before hardware wraps it back to the window's base (1KiB, 10 address
// bits).
const windowSize = 1024

// Width is a memory transfer width in bytes.
type Width uint32

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

func (w Width) cswSize() uint32 {
	switch w {
	case Width8:
		return ap.CSWSizeByte
	case Width16:
		return ap.CSWSizeHalf
	default:
		return ap.CSWSizeWord
	}
}

// Engine is the memory-access surface for one MEM-AP.
type Engine struct {
	d            *dp.Interface
	acc          *ap.Accessor
	only32Bit    bool
	curCSWSize   uint32
	cswValid     bool
}

// New returns an Engine bound to acc. only32Bit should be set once
// ap.ProbeTransferWidths shows the AP rejects byte/half CSW sizes.
func New(d *dp.Interface, acc *ap.Accessor, only32Bit bool) *Engine {
	return &Engine{d: d, acc: acc, only32Bit: only32Bit}
}

func (e *Engine) ensureCSW(size uint32) error {
	if e.cswValid && e.curCSWSize == size {
		return nil
	}
	if err := e.acc.WriteRegister(ap.AddrCSW, size|ap.CSWAddrIncSingle); err != nil {
		return err
	}
	e.curCSWSize = size
	e.cswValid = true
	return nil
}

// align4 reports whether addr is word-aligned.
func align4(addr uint32) bool { return addr&3 == 0 }

func (e *Engine) checkAlignment(addr uint32, w Width) error {
	switch w {
	case Width16:
		if addr&1 != 0 {
			return adierr.ErrUnalignedAddress
		}
	case Width32:
		if addr&3 != 0 {
			return adierr.ErrUnalignedAddress
		}
	}
	return nil
}

// ReadWord reads one unit of width w at addr, transparently falling back
// to a 32-bit read-and-extract when the AP cannot do sub-word transfers
// directly.
func (e *Engine) ReadWord(addr uint32, w Width) (uint32, error) {
	if err := e.checkAlignment(addr, w); err != nil {
		return 0, err
	}
	if w != Width32 && e.only32Bit {
		word, err := e.ReadWord(addr&^3, Width32)
		if err != nil {
			return 0, err
		}
		lane := (addr & 3) * 8
		if w == Width16 {
			return (word >> lane) & 0xFFFF, nil
		}
		return (word >> lane) & 0xFF, nil
	}
	if err := e.ensureCSW(w.cswSize()); err != nil {
		return 0, adierr.Wrap("setting MEM-AP transfer width", err)
	}
	if err := e.acc.WriteRegister(ap.AddrTAR, addr); err != nil {
		return 0, adierr.Wrap(fmt.Sprintf("setting TAR to 0x%08x", addr), err)
	}
	v, err := e.acc.ReadRegister(ap.AddrDRW)
	if err != nil {
		return 0, e.recoverFault(fmt.Sprintf("reading memory at 0x%08x", addr), err)
	}
	lane := (addr & 3) * 8
	switch w {
	case Width8:
		return (v >> lane) & 0xFF, nil
	case Width16:
		return (v >> lane) & 0xFFFF, nil
	default:
		return v, nil
	}
}

// WriteWord writes one unit of width w at addr, falling back to a
// read-modify-write 32-bit transaction when the AP cannot do sub-word
// transfers directly.
func (e *Engine) WriteWord(addr uint32, w Width, value uint32) error {
	if err := e.checkAlignment(addr, w); err != nil {
		return err
	}
	if w != Width32 && e.only32Bit {
		base := addr &^ 3
		cur, err := e.ReadWord(base, Width32)
		if err != nil {
			return err
		}
		lane := (addr & 3) * 8
		var mask uint32
		if w == Width16 {
			mask = 0xFFFF
		} else {
			mask = 0xFF
		}
		cur = (cur &^ (mask << lane)) | ((value & mask) << lane)
		return e.WriteWord(base, Width32, cur)
	}
	if err := e.ensureCSW(w.cswSize()); err != nil {
		return adierr.Wrap("setting MEM-AP transfer width", err)
	}
	if err := e.acc.WriteRegister(ap.AddrTAR, addr); err != nil {
		return adierr.Wrap(fmt.Sprintf("setting TAR to 0x%08x", addr), err)
	}
	lane := (addr & 3) * 8
	wire := value << lane
	if err := e.acc.WriteRegister(ap.AddrDRW, wire); err != nil {
		return e.recoverFault(fmt.Sprintf("writing memory at 0x%08x", addr), err)
	}
	return nil
}

// ReadBlock32 reads count words starting at addr (which must be
// word-aligned), re-issuing TAR at every 1KiB boundary so auto-increment
// never has to cross the window hardware wraps within. Each window is
// issued as one transport-level block transfer (the underlying CMSIS-DAP
// transfer-block command where available) rather than one DRW transfer
// per word.
func (e *Engine) ReadBlock32(addr uint32, count int) ([]uint32, error) {
	if !align4(addr) {
		return nil, adierr.ErrUnalignedAddress
	}
	if err := e.ensureCSW(ap.CSWSizeWord); err != nil {
		return nil, adierr.Wrap("setting MEM-AP transfer width", err)
	}
	out := make([]uint32, 0, count)
	cur := addr
	for len(out) < count {
		if err := e.acc.WriteRegister(ap.AddrTAR, cur); err != nil {
			return out, adierr.Wrap(fmt.Sprintf("setting TAR to 0x%08x", cur), err)
		}
		remainInWindow := int((windowSize - cur%windowSize) / 4)
		n := count - len(out)
		if n > remainInWindow {
			n = remainInWindow
		}
		v, err := e.acc.ReadBlockRegister(ap.AddrDRW, n)
		if err != nil {
			return out, e.recoverFault(fmt.Sprintf("reading %d words at 0x%08x", n, cur), err)
		}
		out = append(out, v...)
		cur += uint32(n) * 4
	}
	return out, nil
}

// WriteBlock32 writes values starting at addr, word-windowed and issued
// as one transport-level block transfer per window the same way
// ReadBlock32 reads.
func (e *Engine) WriteBlock32(addr uint32, values []uint32) error {
	if !align4(addr) {
		return adierr.ErrUnalignedAddress
	}
	if err := e.ensureCSW(ap.CSWSizeWord); err != nil {
		return adierr.Wrap("setting MEM-AP transfer width", err)
	}
	cur := addr
	i := 0
	for i < len(values) {
		if err := e.acc.WriteRegister(ap.AddrTAR, cur); err != nil {
			return adierr.Wrap(fmt.Sprintf("setting TAR to 0x%08x", cur), err)
		}
		remainInWindow := int((windowSize - cur%windowSize) / 4)
		n := len(values) - i
		if n > remainInWindow {
			n = remainInWindow
		}
		if err := e.acc.WriteBlockRegister(ap.AddrDRW, values[i:i+n]); err != nil {
			return e.recoverFault(fmt.Sprintf("writing %d words at 0x%08x", n, cur), err)
		}
		i += n
		cur += uint32(n) * 4
	}
	return nil
}

// recoverFault clears the DP's sticky error flags so the link is usable
// again, then surfaces the original error unchanged. It never retries
// the failed transfer.
func (e *Engine) recoverFault(operation string, cause error) error {
	if err := e.d.ClearSticky(); err != nil {
		return adierr.Wrap(operation, fmt.Errorf("%w (also failed clearing sticky error: %v)", cause, err))
	}
	e.cswValid = false
	return adierr.Wrap(operation, cause)
}
