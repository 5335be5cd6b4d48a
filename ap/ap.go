/*
 * adiprobe - Access Port enumeration.
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

// Package ap implements Access Port enumeration and generic AP register
// access: APSEL/APBANKSEL-cached reads and writes layered on top of a
// dp.Interface's SELECT cache. It follows the same bit-constant-table
// idiom as dp, and probe-rs's AP discovery loop for enumeration.
package ap

import (
	"fmt"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/dp"
	"github.com/cornwell-labs/adiprobe/transport"
)

// Register offsets within an AP's currently-selected bank (the 2-bit wire
// address, A[3:2]).
const (
	OffsetLow0 uint8 = 0x0
	OffsetLow4 uint8 = 0x4
	OffsetLow8 uint8 = 0x8
	OffsetLowC uint8 = 0xC
)

// Full AP register addresses (bank<<4 | offset), used to compute which
// APBANKSEL a register lives in.
const (
	AddrCSW   uint8 = 0x00
	AddrTAR   uint8 = 0x04
	AddrDRW   uint8 = 0x0C
	AddrBASE2 uint8 = 0xF0
	AddrBASE  uint8 = 0xF8
	AddrIDR   uint8 = 0xFC
)

// IDR CLASS field values.
const (
	IDRClassMemAP uint32 = 0x8
)

// CSW transfer size field values.
const (
	CSWSizeByte uint32 = 0
	CSWSizeHalf uint32 = 1
	CSWSizeWord uint32 = 2

	CSWAddrIncSingle uint32 = 1 << 4
)

// bank returns the APBANKSEL nibble a full register address lives in.
func bank(addr uint8) uint8 { return addr >> 4 }

// offset returns the 2-bit wire offset of a full register address.
func offset(addr uint8) uint8 { return addr & 0xF }

// AP is one discovered Access Port.
type AP struct {
	Num   uint16
	IDR   uint32
	Class uint32
}

// IsMemAP reports whether this AP's IDR CLASS field identifies it as a
// MEM-AP.
func (a AP) IsMemAP() bool { return a.Class == IDRClassMemAP }

// Accessor performs bank-cached register access to one
// fixed AP number through a shared dp.Interface.
type Accessor struct {
	d   *dp.Interface
	t   transport.Transport
	num uint16
}

// New returns an Accessor bound to AP number num.
func New(d *dp.Interface, t transport.Transport, num uint16) *Accessor {
	return &Accessor{d: d, t: t, num: num}
}

// Num reports the AP number this Accessor addresses.
func (a *Accessor) Num() uint16 { return a.num }

// ReadRegister reads the AP register at the given full address (bank and
// offset), issuing a SELECT write first only if APSEL or APBANKSEL
// differ from the DP's cache.
func (a *Accessor) ReadRegister(addr uint8) (uint32, error) {
	if err := a.d.SelectAP(uint8(a.num), bank(addr)); err != nil {
		return 0, adierr.Wrap(fmt.Sprintf("selecting AP%d bank for register 0x%02x", a.num, addr), err)
	}
	v, err := a.t.ReadRegister(transport.AP(a.num), offset(addr))
	if err != nil {
		return 0, adierr.Wrap(fmt.Sprintf("reading AP%d register 0x%02x", a.num, addr), err)
	}
	return v, nil
}

// WriteRegister writes the AP register at the given full address.
func (a *Accessor) WriteRegister(addr uint8, value uint32) error {
	if err := a.d.SelectAP(uint8(a.num), bank(addr)); err != nil {
		return adierr.Wrap(fmt.Sprintf("selecting AP%d bank for register 0x%02x", a.num, addr), err)
	}
	if err := a.t.WriteRegister(transport.AP(a.num), offset(addr), value); err != nil {
		return adierr.Wrap(fmt.Sprintf("writing AP%d register 0x%02x", a.num, addr), err)
	}
	return nil
}

// ReadBlockRegister reads count words from the AP register at addr using
// the transport's native block-transfer command (CMSIS-DAP's transfer
// block, where available), issuing SELECT once up front instead of once
// per word.
func (a *Accessor) ReadBlockRegister(addr uint8, count int) ([]uint32, error) {
	if err := a.d.SelectAP(uint8(a.num), bank(addr)); err != nil {
		return nil, adierr.Wrap(fmt.Sprintf("selecting AP%d bank for register 0x%02x", a.num, addr), err)
	}
	v, err := a.t.ReadBlock(transport.AP(a.num), offset(addr), count)
	if err != nil {
		return nil, adierr.Wrap(fmt.Sprintf("block-reading AP%d register 0x%02x", a.num, addr), err)
	}
	return v, nil
}

// WriteBlockRegister writes values to the AP register at addr using the
// transport's native block-transfer command.
func (a *Accessor) WriteBlockRegister(addr uint8, values []uint32) error {
	if err := a.d.SelectAP(uint8(a.num), bank(addr)); err != nil {
		return adierr.Wrap(fmt.Sprintf("selecting AP%d bank for register 0x%02x", a.num, addr), err)
	}
	if err := a.t.WriteBlock(transport.AP(a.num), offset(addr), values); err != nil {
		return adierr.Wrap(fmt.Sprintf("block-writing AP%d register 0x%02x", a.num, addr), err)
	}
	return nil
}

// ReadIDR reads this AP's identification register.
func (a *Accessor) ReadIDR() (uint32, error) {
	return a.ReadRegister(AddrIDR)
}

// ReadBase reads BASE and, for the ADIv5.1+ 64-bit format, BASE2, and
// returns the combined debug-entry base address. Bit 1 of BASE distinguishes the legacy 32-bit
// format (BASE2 does not exist) from the 64-bit format.
func (a *Accessor) ReadBase() (uint64, error) {
	base, err := a.ReadRegister(AddrBASE)
	if err != nil {
		return 0, err
	}
	const legacyFormat = 1 << 1
	if base&legacyFormat == 0 {
		base2, err := a.ReadRegister(AddrBASE2)
		if err != nil {
			return 0, err
		}
		return uint64(base2)<<32 | uint64(base&^0xFFF), nil
	}
	const entryPresent = 1 << 0
	if base&entryPresent == 0 {
		return 0, nil
	}
	return uint64(base &^ 0xFFF), nil
}

// Enumerate walks AP numbers 0..255, stopping at the first IDR of zero.
func Enumerate(d *dp.Interface, t transport.Transport) ([]AP, error) {
	var found []AP
	for n := uint16(0); n < 256; n++ {
		acc := New(d, t, n)
		idr, err := acc.ReadIDR()
		if err != nil {
			return found, adierr.Wrap(fmt.Sprintf("probing AP%d", n), err)
		}
		if idr == 0 {
			break
		}
		class := (idr >> 13) & 0xF
		found = append(found, AP{Num: n, IDR: idr, Class: class})
	}
	return found, nil
}

// ProbeTransferWidths reports which CSW SIZE values this AP accepts by
// writing each candidate and reading CSW back. The caller is responsible for restoring CSW
// afterward if it cares about the prior value.
func ProbeTransferWidths(a *Accessor) (map[uint32]bool, error) {
	supported := make(map[uint32]bool, 3)
	for _, size := range []uint32{CSWSizeByte, CSWSizeHalf, CSWSizeWord} {
		if err := a.WriteRegister(AddrCSW, size); err != nil {
			return nil, err
		}
		got, err := a.ReadRegister(AddrCSW)
		if err != nil {
			return nil, err
		}
		supported[size] = got&0x7 == size
	}
	return supported, nil
}
