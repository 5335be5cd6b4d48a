/*
 * adiprobe - Target session.
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

// Package session owns one attached target end to end: the DP, the
// enumerated APs, the MEM-AP memory engine, the Cortex-M core, and the
// FPB unit, wired together the way probe-rs's communication interface
// hands a borrowed reference down through each layer rather than sharing
// interior-mutable state. Session is not safe for concurrent use: every
// method must be called from a single goroutine.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/ap"
	"github.com/cornwell-labs/adiprobe/chipdb"
	"github.com/cornwell-labs/adiprobe/cortexm"
	"github.com/cornwell-labs/adiprobe/dp"
	"github.com/cornwell-labs/adiprobe/fpb"
	"github.com/cornwell-labs/adiprobe/memap"
	"github.com/cornwell-labs/adiprobe/metrics"
	"github.com/cornwell-labs/adiprobe/romtable"
	"github.com/cornwell-labs/adiprobe/transport"
)

// Session is the live handle a CLI command or REPL operates on after
// Attach succeeds.
type Session struct {
	log  *zap.Logger
	mx   *metrics.Counters
	t    transport.Transport
	dp   *dp.Interface
	aps  []ap.AP
	acc  *ap.Accessor
	mem  *memap.Engine
	core *cortexm.Core
	fpb  *fpb.Unit
	chip chipdb.Profile
}

// Identity summarizes what Attach discovered about the target, returned
// so a CLI "id" command has something to print.
type Identity struct {
	DPVersion dp.Version
	APs       []ap.AP
	JEP106CC  uint8
	JEP106ID  uint8
	Part      uint16
	Chip      chipdb.Profile
	ChipKnown bool
}

// Attach runs the full bring-up sequence: DP power-up, AP enumeration,
// ROM-table identification, and memap/cortexm/fpb construction. Chip
// identification only gates the flash/NVMC profile; core control and the
// FPB work against any Cortex-M target.
func Attach(t transport.Transport, db *chipdb.DB, mx *metrics.Counters, log *zap.Logger) (*Session, Identity, error) {
	d := dp.New(t)
	if err := d.EnterDebugMode(); err != nil {
		return nil, Identity{}, adierr.Wrap("entering debug mode", err)
	}
	mx.IncRegisterRead()
	mx.IncRegisterWrite()

	aps, err := ap.Enumerate(d, t)
	if err != nil {
		return nil, Identity{}, adierr.Wrap("enumerating access ports", err)
	}
	if len(aps) == 0 {
		return nil, Identity{}, fmt.Errorf("no access ports found")
	}

	var memAP *ap.AP
	for i := range aps {
		if aps[i].IsMemAP() {
			memAP = &aps[i]
			break
		}
	}
	if memAP == nil {
		return nil, Identity{}, fmt.Errorf("no MEM-AP found among %d access ports", len(aps))
	}

	acc := ap.New(d, t, memAP.Num)
	widths, err := ap.ProbeTransferWidths(acc)
	if err != nil {
		return nil, Identity{}, adierr.Wrap("probing MEM-AP transfer widths", err)
	}
	only32 := !widths[ap.CSWSizeByte]

	base, err := acc.ReadBase()
	if err != nil {
		return nil, Identity{}, adierr.Wrap("reading MEM-AP BASE", err)
	}

	mem := memap.New(d, acc, only32)

	ids, err := romtable.Walk(mem, uint32(base))
	if err != nil {
		return nil, Identity{}, adierr.Wrap("walking ROM table", err)
	}

	id := Identity{DPVersion: d.Version(), APs: aps}
	if len(ids) > 0 {
		id.JEP106CC = ids[0].ContinuationCode
		id.JEP106ID = ids[0].IdentityCode
		id.Part = ids[0].Part
		if p, ok := db.Lookup(id.JEP106CC, id.JEP106ID, id.Part); ok {
			id.Chip, id.ChipKnown = p, true
		}
	}

	s := &Session{log: log, mx: mx, t: t, dp: d, aps: aps, acc: acc, mem: mem, chip: id.Chip}

	// Cortex-M core control and FPB sit at architecturally-fixed SCS
	// addresses and need no chip profile, so they come up regardless of
	// whether the ROM table's JEP106/part matched a known chip. Only the
	// flash/NVMC path below genuinely depends on the chip profile.
	s.core = cortexm.New(mem)
	fpbUnit := fpb.New(mem)
	if err := fpbUnit.Enumerate(); err == nil {
		s.fpb = fpbUnit
	}

	if log != nil {
		log.Info("attached to target",
			zap.Stringer("dp_version", d.Version()),
			zap.Int("ap_count", len(aps)),
			zap.Bool("chip_known", id.ChipKnown))
	}
	return s, id, nil
}

// Core returns the session's Cortex-M core handle. It is always non-nil
// once Attach succeeds: core control needs no chip profile.
func (s *Session) Core() *cortexm.Core { return s.core }

// FPB returns the session's FPB handle, or nil if FP_CTRL enumeration
// failed (for instance a non-Cortex-M target with no FPB at all).
func (s *Session) FPB() *fpb.Unit { return s.fpb }

// Chip returns the resolved chip profile, if any.
func (s *Session) Chip() chipdb.Profile { return s.chip }

// ReadMemory reads a block of 32-bit words from target memory, a
// convenience wrapper over the raw AP access for bulk RAM round-trips.
func (s *Session) ReadMemory(addr uint32, count int) ([]uint32, error) {
	v, err := s.mem.ReadBlock32(addr, count)
	if err == nil {
		s.mx.AddBytesTransferred(count * 4)
	}
	return v, err
}

// WriteMemory writes a block of 32-bit words to target memory.
func (s *Session) WriteMemory(addr uint32, values []uint32) error {
	err := s.mem.WriteBlock32(addr, values)
	if err == nil {
		s.mx.AddBytesTransferred(len(values) * 4)
	}
	return err
}

// ReadWord reads a single word of the given width at addr.
func (s *Session) ReadWord(addr uint32, w memap.Width) (uint32, error) {
	return s.mem.ReadWord(addr, w)
}

// WriteWord writes a single word of the given width at addr.
func (s *Session) WriteWord(addr uint32, w memap.Width, value uint32) error {
	return s.mem.WriteWord(addr, w, value)
}

// Engine exposes the underlying memap.Engine for packages (flash) that
// need direct memory access alongside core control.
func (s *Session) Engine() *memap.Engine { return s.mem }

// Close releases the session. The mock and real transports currently
// hold no resources that need explicit release, but Close exists so
// callers have one place to add it (closing a USB handle, for instance)
// without changing every call site.
func (s *Session) Close() error {
	return nil
}
