/*
 * adiprobe - Flash programmer.
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

// Package flash programs NVMC-style flash controllers from a streamed
// Intel-HEX image, the way probe-rs's page-buffered flash writer does,
// reusing cortexm's bounded-polling idiom for the controller's READY
// handshake.
package flash

import (
	"time"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/hexfile"
	"github.com/cornwell-labs/adiprobe/memap"
)

// NVMC register offsets, relative to the controller's base address
// (nRF51/nRF52-shaped).
const (
	offREADY      uint32 = 0x400
	offCONFIG     uint32 = 0x504
	offERASEPAGE  uint32 = 0x508
)

// CONFIG values.
const (
	configREN uint32 = 0x00
	configWEN uint32 = 0x01
	configEEN uint32 = 0x02
)

const (
	pollInterval      = time.Millisecond
	maxPollIterations = 100
)

// Controller drives one NVMC-style flash controller sitting at Base, with
// pages of size PageSize starting at FlashBase.
type Controller struct {
	e         *memap.Engine
	base      uint32
	pageSize  uint32
	flashBase uint32
}

// New returns a Controller for the NVMC at base, with the given page size
// and the flash region's base address on the target's memory map.
func New(e *memap.Engine, base, pageSize, flashBase uint32) *Controller {
	return &Controller{e: e, base: base, pageSize: pageSize, flashBase: flashBase}
}

func (c *Controller) waitReady() error {
	for i := 0; i < maxPollIterations; i++ {
		v, err := c.e.ReadWord(c.base+offREADY, memap.Width32)
		if err != nil {
			return adierr.Wrap("reading NVMC READY", err)
		}
		if v&1 != 0 {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return &adierr.TimeoutError{Operation: "NVMC ready", Iterations: maxPollIterations}
}

func (c *Controller) setConfig(v uint32) error {
	if err := c.e.WriteWord(c.base+offCONFIG, memap.Width32, v); err != nil {
		return adierr.Wrap("writing NVMC CONFIG", err)
	}
	return c.waitReady()
}

// ErasePage erases the page containing addr.
func (c *Controller) ErasePage(addr uint32) error {
	if err := c.setConfig(configEEN); err != nil {
		return err
	}
	page := addr &^ (c.pageSize - 1)
	if err := c.e.WriteWord(c.base+offERASEPAGE, memap.Width32, page); err != nil {
		return adierr.Wrap("writing NVMC ERASEPAGE", err)
	}
	if err := c.waitReady(); err != nil {
		return adierr.ErrEraseFailed
	}
	return c.setConfig(configREN)
}

// WriteWord programs one 32-bit flash word. The target word must already
// be erased (all-ones); NVMC-style controllers can only clear bits, never
// set them, on a programmed word.
func (c *Controller) WriteWord(addr, value uint32) error {
	if err := c.setConfig(configWEN); err != nil {
		return err
	}
	if err := c.e.WriteWord(addr, memap.Width32, value); err != nil {
		return adierr.ErrProgramFailed
	}
	if err := c.waitReady(); err != nil {
		return adierr.ErrProgramFailed
	}
	return c.setConfig(configREN)
}

// Progress reports programming progress in whole bytes written. Counting
// 32-bit words instead misreports total size for anything but a
// 4-byte-aligned image.
type Progress func(bytesWritten int)

// Program streams records from r, erasing and writing whichever flash
// pages the image touches, page by page, and invokes progress after every
// completed page with the number of image bytes programmed so far.
//
// Address resolution follows the two Intel-HEX extended-addressing modes:
// an ExtendedLinearAddress record sets the upper 16 bits of a 32-bit
// address; an ExtendedSegmentAddress record sets a 16-bit segment whose
// value is shifted left 4 bits and added to the record offset, per the
// Intel-HEX format. The two modes are mutually exclusive: whichever
// extended-address record was seen most recently determines how
// subsequent Data record offsets are resolved, except that an
// ExtendedLinearAddress record of zero leaves a segment base already in
// effect in place.
func (c *Controller) Program(r *hexfile.Reader, progress Progress) error {
	type addrMode int
	const (
		modeNone addrMode = iota
		modeSegment
		modeLinear
	)
	mode := modeNone
	var upperSegment, upperLinear uint32

	pageBuf := make(map[uint32]byte)
	var pagesTouched []uint32
	seenPage := make(map[uint32]bool)
	totalWritten := 0

	resolve := func(offset uint16) uint32 {
		switch mode {
		case modeSegment:
			return upperSegment + uint32(offset)
		case modeLinear:
			return upperLinear + uint32(offset)
		default:
			return uint32(offset)
		}
	}

	flushPage := func(page uint32) error {
		if err := c.ErasePage(page); err != nil {
			return err
		}
		for off := uint32(0); off < c.pageSize; off += 4 {
			addr := page + off
			var word uint32
			present := 0
			for b := uint32(0); b < 4; b++ {
				if v, ok := pageBuf[addr+b]; ok {
					word |= uint32(v) << (b * 8)
					present++
				} else {
					word |= 0xFF << (b * 8)
				}
			}
			if present == 0 {
				continue
			}
			if err := c.WriteWord(addr, word); err != nil {
				return err
			}
			totalWritten += present
		}
		return nil
	}

	for {
		rec, err := r.Next()
		if err != nil {
			return err
		}
		switch rec.Type {
		case hexfile.TypeExtendedSegmentAddress:
			mode = modeSegment
			upperSegment = uint32(rec.Seg) << 4
		case hexfile.TypeExtendedLinearAddress:
			if rec.Lin == 0 && mode == modeSegment {
				// A zero linear address does not cancel a segment base
				// already in effect; keep resolving through it.
				break
			}
			mode = modeLinear
			upperLinear = uint32(rec.Lin) << 16
		case hexfile.TypeData:
			addr := resolve(rec.Offset)
			for i, b := range rec.Data {
				a := addr + uint32(i)
				pageBuf[a] = b
				page := (a - c.flashBase) &^ (c.pageSize - 1) + c.flashBase
				if !seenPage[page] {
					seenPage[page] = true
					pagesTouched = append(pagesTouched, page)
				}
			}
		case hexfile.TypeEndOfFile:
			for _, page := range pagesTouched {
				if err := flushPage(page); err != nil {
					return err
				}
				if progress != nil {
					progress(totalWritten)
				}
			}
			return nil
		}
	}
}
