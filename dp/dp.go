/*
 * adiprobe - Debug Port transaction layer.
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

// Package dp implements the ADIv5 Debug Port transaction layer: bank
// selection, version gating, the power-up handshake, and sticky-error
// clearing. It follows the bit-constant table idiom device.go uses for
// its register fields, and probe-rs's enter_debug_mode for the power-up
// sequencing.
package dp

import (
	"fmt"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/transport"
)

// Version is the DP architecture version latched from DPIDR bits [15:12].
// Values above 2 are unsupported: they are recorded faithfully and
// String reports them as unsupported, but register gating only compares
// against each register's minimum version, so they still pass it.
type Version uint8

const (
	V0 Version = 0
	V1 Version = 1
	V2 Version = 2
)

// Supported reports whether this DP version is one the register file
// gating logic recognizes.
func (v Version) Supported() bool { return v <= V2 }

func (v Version) String() string {
	if v.Supported() {
		return fmt.Sprintf("v%d", uint8(v))
	}
	return fmt.Sprintf("unsupported(%d)", uint8(v))
}

// Register addresses.
const (
	AddrDPIDR     uint8 = 0x0
	AddrABORT     uint8 = 0x0
	AddrCtrlStat  uint8 = 0x4
	AddrSelect    uint8 = 0x8
	AddrResend    uint8 = 0x8
	AddrRDBuff    uint8 = 0xC
)

// ABORT bits.
const (
	AbortOrunErrClr uint32 = 1 << 4
	AbortWDErrClr   uint32 = 1 << 3
	AbortStkErrClr  uint32 = 1 << 2
	AbortStkCmpClr  uint32 = 1 << 1
	AbortDapAbort   uint32 = 1 << 0

	abortAllStickyClr = AbortOrunErrClr | AbortWDErrClr | AbortStkErrClr | AbortStkCmpClr
)

// CTRL/STAT bits.
const (
	CtrlStatCSysPwrUpReq uint32 = 1 << 30
	CtrlStatCSysPwrUpAck uint32 = 1 << 31
	CtrlStatCDbgPwrUpReq uint32 = 1 << 28
	CtrlStatCDbgPwrUpAck uint32 = 1 << 29
)

// SELECT fields.
const (
	selectAPSelShift     = 24
	selectAPBankSelShift = 4
	selectDPBankSelMask  = 0xF
)

// Bank identifies a register's DP SELECT bank requirement: either a
// specific bank, or "don't care" (the register is accessible regardless of
// the current DPBANKSEL).
type Bank struct {
	fixed bool
	value uint8
}

// FixedBank returns a Bank requiring DPBANKSEL == b.
func FixedBank(b uint8) Bank { return Bank{fixed: true, value: b} }

// DontCare is the Bank value for registers accessible in any bank.
var DontCare = Bank{}

// RegisterDescriptor describes one DP register: its address, which SELECT
// bank it lives in (if any), and the minimum DP version required to touch
// it.
type RegisterDescriptor struct {
	Name       string
	Address    uint8
	DPBank     Bank
	MinVersion Version
}

// Well-known DP registers.
var (
	RegDPIDR    = RegisterDescriptor{Name: "DPIDR", Address: AddrDPIDR, DPBank: DontCare, MinVersion: V0}
	RegCtrlStat = RegisterDescriptor{Name: "CTRL/STAT", Address: AddrCtrlStat, DPBank: FixedBank(0), MinVersion: V0}
	RegSelect   = RegisterDescriptor{Name: "SELECT", Address: AddrSelect, DPBank: DontCare, MinVersion: V0}
)

// Interface is the cached, version-gated view of one target's Debug Port.
// It owns the SELECT cache (current_dpbanksel, current_apsel,
// current_apbanksel) and is the only thing in this repo
// allowed to write SELECT. session.Session embeds one of these as a plain
// field — borrowed state passed explicitly down the call chain, never a
// ref-counted interior-mutable cell.
type Interface struct {
	t transport.Transport

	initialized bool
	version     Version

	curDPBank uint8
	curAPSel  uint8
	curAPBank uint8
}

// New returns an Interface bound to t. EnterDebugMode must be called once
// before any register access.
func New(t transport.Transport) *Interface {
	return &Interface{t: t}
}

// Version returns the DP version latched by EnterDebugMode.
func (d *Interface) Version() Version { return d.version }

// Initialized reports whether the power-up handshake has completed.
func (d *Interface) Initialized() bool { return d.initialized }

// CurrentAPSelect returns the last APSEL/APBANKSEL written to SELECT.
func (d *Interface) CurrentAPSelect() (apsel, apbank uint8) {
	return d.curAPSel, d.curAPBank
}

// selectWord builds the SELECT register value from the given fields using
// the cached values for anything not being changed.
func (d *Interface) selectWord(dpbank, apsel, apbank uint8) uint32 {
	return uint32(apsel)<<selectAPSelShift | uint32(apbank)<<selectAPBankSelShift | uint32(dpbank)&selectDPBankSelMask
}

// ensureBank writes SELECT only if the requested DP bank differs from the
// cached value, preserving the current AP selection. Combined with
// ensureAPSelect, SELECT is written only when the requested
// (apsel, apbanksel, dpbanksel) tuple actually changes.
func (d *Interface) ensureBank(bank Bank) error {
	if !bank.fixed || bank.value == d.curDPBank {
		return nil
	}
	word := d.selectWord(bank.value, d.curAPSel, d.curAPBank)
	if err := d.t.WriteRegister(transport.DP(), AddrSelect, word); err != nil {
		return err
	}
	d.curDPBank = bank.value
	return nil
}

// ensureAPSelect writes SELECT only if either the AP number or AP bank
// differ from cache, preserving the current DP bank.
func (d *Interface) ensureAPSelect(apsel, apbank uint8) error {
	if apsel == d.curAPSel && apbank == d.curAPBank {
		return nil
	}
	word := d.selectWord(d.curDPBank, apsel, apbank)
	if err := d.t.WriteRegister(transport.DP(), AddrSelect, word); err != nil {
		return err
	}
	d.curAPSel = apsel
	d.curAPBank = apbank
	return nil
}

// InvalidateSelectCache forces the next register access to re-issue
// SELECT regardless of its cached value. Useful as a defensive measure
// after a transport error leaves the last-attempted state ambiguous.
func (d *Interface) InvalidateSelectCache() {
	d.curDPBank = 0xFF
	d.curAPSel = 0xFF
	d.curAPBank = 0xFF
}

// ReadRegister reads a DP register, enforcing version gating and bank
// selection.
func (d *Interface) ReadRegister(r RegisterDescriptor) (uint32, error) {
	if r.MinVersion > d.version {
		return 0, &adierr.UnsupportedRegisterError{Name: r.Name, MinVersion: uint8(r.MinVersion), GotVersion: uint8(d.version)}
	}
	if err := d.ensureBank(r.DPBank); err != nil {
		return 0, adierr.Wrap(fmt.Sprintf("selecting DP bank for %s", r.Name), err)
	}
	v, err := d.t.ReadRegister(transport.DP(), r.Address)
	if err != nil {
		return 0, adierr.Wrap(fmt.Sprintf("reading DP register %s", r.Name), err)
	}
	return v, nil
}

// WriteRegister writes a DP register, enforcing version gating and bank
// selection.
func (d *Interface) WriteRegister(r RegisterDescriptor, value uint32) error {
	if r.MinVersion > d.version {
		return &adierr.UnsupportedRegisterError{Name: r.Name, MinVersion: uint8(r.MinVersion), GotVersion: uint8(d.version)}
	}
	if err := d.ensureBank(r.DPBank); err != nil {
		return adierr.Wrap(fmt.Sprintf("selecting DP bank for %s", r.Name), err)
	}
	if err := d.t.WriteRegister(transport.DP(), r.Address, value); err != nil {
		return adierr.Wrap(fmt.Sprintf("writing DP register %s", r.Name), err)
	}
	return nil
}

// SelectAP is called by package ap to issue the SELECT write needed to
// address a given AP/bank pair, reusing the DP's cache and elision logic.
func (d *Interface) SelectAP(apsel, apbank uint8) error {
	return d.ensureAPSelect(apsel, apbank)
}

// ClearSticky writes ABORT with the bits needed to clear the sticky
// OVERRUN/WDATAERR/STICKYERR/STICKYCMP flags.
func (d *Interface) ClearSticky() error {
	if err := d.t.WriteRegister(transport.DP(), AddrABORT, abortAllStickyClr); err != nil {
		return adierr.Wrap("clearing sticky DP error flags", err)
	}
	return nil
}

// EnterDebugMode runs the power-up sequence. session.Attach calls it once;
// calling it again is harmless but re-does the handshake.
func (d *Interface) EnterDebugMode() error {
	dpidr, err := d.t.ReadRegister(transport.DP(), AddrDPIDR)
	if err != nil {
		return adierr.Wrap("reading DPIDR", err)
	}
	d.version = Version((dpidr >> 12) & 0xF)

	if err := d.ClearSticky(); err != nil {
		return err
	}

	if err := d.t.WriteRegister(transport.DP(), AddrSelect, 0); err != nil {
		return adierr.Wrap("writing initial SELECT", err)
	}
	d.curDPBank, d.curAPSel, d.curAPBank = 0, 0, 0

	if err := d.t.WriteRegister(transport.DP(), AddrCtrlStat, CtrlStatCSysPwrUpReq|CtrlStatCDbgPwrUpReq); err != nil {
		return adierr.Wrap("requesting target power-up", err)
	}

	status, err := d.t.ReadRegister(transport.DP(), AddrCtrlStat)
	if err != nil {
		return adierr.Wrap("reading CTRL/STAT after power-up request", err)
	}
	const wantAck = CtrlStatCSysPwrUpAck | CtrlStatCDbgPwrUpAck
	if status&wantAck != wantAck {
		return adierr.ErrTargetPowerUpFailed
	}

	d.initialized = true
	return nil
}
