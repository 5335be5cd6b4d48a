/*
 * adiprobe - Flash Patch and Breakpoint unit.
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

// Package fpb drives the Cortex-M Flash Patch and Breakpoint unit: code
// comparator enumeration and the Rev0/Rev1 address-encoding split.
// Grounded on probe-rs's m4 core driver and the usual
// register-constant-table idiom.
package fpb

import (
	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/memap"
)

// Register addresses.
const (
	AddrFPCTRL uint32 = 0xE0002000
	compBase   uint32 = 0xE0002008
)

// FP_CTRL bits.
const (
	fpCtrlEnable uint32 = 1 << 0
	fpCtrlKey    uint32 = 1 << 1
	numCodeLoMask = 0xF
	numCodeLoShift = 4
	numCodeHiMask = 0x7
	numCodeHiShift = 12
	revShift       = 28
	revMask        = 0xF
)

// Comparator register bits, Rev1 encoding.
const (
	rev1Enable uint32 = 1 << 0
)

// Comparator register bits, Rev0 encoding.
const (
	rev0Enable     uint32 = 1 << 0
	rev0ReplaceShift = 30
	rev0AddrMask   uint32 = 0x1FFFFFFC
	rev0MaxAddress uint32 = 1 << 29 // low 512MiB representable by a Rev0 comparator
)

// Rev0 REPLACE field values, selecting which halfword of the matched
// word a breakpoint applies to.
const (
	rev0ReplaceLower uint32 = 1
	rev0ReplaceUpper uint32 = 2
	rev0ReplaceBoth  uint32 = 3
)

// Unit is a handle to the FPB on one core.
type Unit struct {
	e        *memap.Engine
	revision uint8
	numCode  int
}

// New returns a Unit bound to e. Enumerate must be called before Set or
// Clear.
func New(e *memap.Engine) *Unit {
	return &Unit{e: e}
}

// Revision returns the FPB hardware revision latched by Enumerate (0 or
// 1).
func (u *Unit) Revision() uint8 { return u.revision }

// NumCodeComparators returns the number of code comparators latched by
// Enumerate.
func (u *Unit) NumCodeComparators() int { return u.numCode }

// Enumerate reads FP_CTRL to discover the comparator count and hardware
// revision. A revision other than 0 or 1 fails with UnsupportedFpbError.
func (u *Unit) Enumerate() error {
	v, err := u.e.ReadWord(AddrFPCTRL, memap.Width32)
	if err != nil {
		return adierr.Wrap("reading FP_CTRL", err)
	}
	rev := uint8((v >> revShift) & revMask)
	if rev > 1 {
		return &adierr.UnsupportedFpbError{Revision: rev}
	}
	lo := (v >> numCodeLoShift) & numCodeLoMask
	hi := (v >> numCodeHiShift) & numCodeHiMask
	u.numCode = int(lo) | int(hi)<<4
	u.revision = rev
	return nil
}

// Enable turns the FPB unit on. Individual comparators still need their
// own enable bit set via Set.
func (u *Unit) Enable() error {
	v, err := u.e.ReadWord(AddrFPCTRL, memap.Width32)
	if err != nil {
		return adierr.Wrap("reading FP_CTRL", err)
	}
	return u.e.WriteWord(AddrFPCTRL, memap.Width32, v|fpCtrlEnable|fpCtrlKey)
}

// Disable turns the FPB unit off, which disables every comparator at
// once without altering their individual stored state.
func (u *Unit) Disable() error {
	v, err := u.e.ReadWord(AddrFPCTRL, memap.Width32)
	if err != nil {
		return adierr.Wrap("reading FP_CTRL", err)
	}
	return u.e.WriteWord(AddrFPCTRL, memap.Width32, (v&^fpCtrlEnable)|fpCtrlKey)
}

func (u *Unit) comparatorAddr(slot int) uint32 {
	return compBase + uint32(slot)*4
}

// ComparatorAddr returns the FP_COMP register address for slot, exported
// so callers (and tests) can read a comparator back without reaching
// into unit internals.
func (u *Unit) ComparatorAddr(slot int) uint32 {
	return u.comparatorAddr(slot)
}

// Set programs comparator slot to break on addr, using the Rev0 or Rev1
// comparator encoding according to the latched hardware revision.
// Rev0 comparators can only represent addresses in the
// low 512MiB and encode which halfword of the matched word triggers;
// Rev1 comparators store the full address directly.
func (u *Unit) Set(slot int, addr uint32) error {
	if slot < 0 || slot >= u.numCode {
		return adierr.ErrUnexpectedCoreState
	}
	switch u.revision {
	case 0:
		if addr >= rev0MaxAddress {
			return &adierr.UnsupportedBreakpointAddressError{Address: addr}
		}
		replace := rev0ReplaceLower
		if addr&0x2 != 0 {
			replace = rev0ReplaceUpper
		}
		word := (addr & rev0AddrMask) | replace<<rev0ReplaceShift | rev0Enable
		return u.e.WriteWord(u.comparatorAddr(slot), memap.Width32, word)
	case 1:
		word := (addr &^ 1) | rev1Enable
		return u.e.WriteWord(u.comparatorAddr(slot), memap.Width32, word)
	default:
		return &adierr.UnsupportedFpbError{Revision: u.revision}
	}
}

// Clear disables comparator slot without forgetting the rest of the
// unit's enabled state.
func (u *Unit) Clear(slot int) error {
	if slot < 0 || slot >= u.numCode {
		return adierr.ErrUnexpectedCoreState
	}
	return u.e.WriteWord(u.comparatorAddr(slot), memap.Width32, 0)
}
