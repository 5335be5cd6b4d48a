/*
 * adiprobe - Mock transport.
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

package transport

import (
	"fmt"
)

// Mock is a deterministic in-memory stand-in for a real CMSIS-DAP probe and
// an attached Cortex-M target. It is the fake every other package's tests
// are written against, playing the role the usual test_dev.TestDev
// fake Device played for emu/sys_channel's tests: a real implementation of
// the Transport contract, not a hand-rolled mock framework.
//
// Mock simulates exactly one MEM-AP (APSEL 0) wired to a byte-addressable
// bus. Cortex-M debug registers, the FPB, NVMC, and CoreSight ROM table ID
// registers all live on that same bus at their architected addresses, so
// higher layers exercise Mock purely through DP/AP register transactions —
// there is no back door.
type Mock struct {
	mem map[uint32]byte

	dpidr    uint32
	ctrlStat uint32
	selDP    uint8
	selAP    uint8
	selBank  uint8
	powered  bool

	apIDR uint32
	csw   uint32
	tar   uint32

	coreRegs map[uint8]uint32
	demcr    uint32
	dfsr     uint32
	halted   bool
	lockedUp bool

	// SelectWrites counts WriteRegister calls targeting the DP SELECT
	// register, letting tests assert on SELECT-elision.
	SelectWrites int
	// TARWrites records every value written to the MEM-AP TAR register,
	// in order, letting tests assert on 1KiB windowing.
	TARWrites []uint32
	// Asleep makes DHCSR report S_SLEEP, simulating a core parked in WFI.
	// Nothing in the mock's own instruction model ever sets it; tests
	// flip it directly to exercise the Sleeping status path.
	Asleep bool
}

// Bus addresses the mock target's fixed peripherals are wired at.
// MockDebugBase is purely a CoreSight ROM-table/component identity
// address (used by romtable); the Cortex-M debug registers live at their
// architecturally-fixed System Control Space addresses regardless of
// debug_base, mirrored here from the cortexm package's constants.
const (
	MockDebugBase uint32 = 0xE00FF000
	mockDHCSR     uint32 = 0xE000EDF0
	mockDCRSR     uint32 = 0xE000EDF4
	mockDCRDR     uint32 = 0xE000EDF8
	mockDEMCR     uint32 = 0xE000EDFC
	mockAIRCR     uint32 = 0xE000ED0C
	mockDFSR      uint32 = 0xE000ED30
	MockFPBBase   uint32 = 0xE0002000
	MockNVMCBase  uint32 = 0x4001E000
	MockFlashBase uint32 = 0x00000000
	MockFlashSize uint32 = 256 * 1024
	MockPageSize  uint32 = 1024
	mockRAMBase   uint32 = 0x20000000
	dcrsrRegWnR   uint32 = 1 << 16
)

// NewMock returns a Mock preloaded with a Nordic-nRF52-shaped ROM table
// (JEP106 cc=0x02, id=0x44, part=0x0006) at MockDebugBase, an FPB with two
// code comparators, and flash erased to all-ones.
func NewMock() *Mock {
	m := &Mock{
		mem:      make(map[uint32]byte),
		dpidr:    0x2BA01477, // designer 0x23B (ARM), DPIDR version field = 1
		apIDR:    0x24770011, // MEM-AP, JEP106 ARM, AP class, type AMBA-AHB
		coreRegs: make(map[uint8]uint32),
	}
	m.writeWordLocked(mockRAMBase+4, 0x08000100) // reset vector -> entry point in flash
	m.writeFPBIDRegisters()
	m.writeROMTable()
	for a := MockFlashBase; a < MockFlashBase+MockFlashSize; a += 4 {
		m.writeWordLocked(a, 0xFFFFFFFF)
	}
	m.writeWordLocked(MockNVMCBase+0x400, 1) // READY
	return m
}

func (m *Mock) writeWordLocked(addr, v uint32) {
	m.mem[addr+0] = byte(v)
	m.mem[addr+1] = byte(v >> 8)
	m.mem[addr+2] = byte(v >> 16)
	m.mem[addr+3] = byte(v >> 24)
}

func (m *Mock) readWordLocked(addr uint32) uint32 {
	return uint32(m.mem[addr]) | uint32(m.mem[addr+1])<<8 | uint32(m.mem[addr+2])<<16 | uint32(m.mem[addr+3])<<24
}

// writeROMTable lays down the CoreSight component/peripheral ID registers
// romtable reads to recover JEP106/part at MockDebugBase. CID1 marks the
// component as class 9, so romtable.Walk treats it as a leaf and never
// reads the single entry word written at offset 0.
func (m *Mock) writeROMTable() {
	base := MockDebugBase
	m.writeWordLocked(base+0x000, 0x00000001) // one entry, present, 32-bit format
	m.writeWordLocked(base+0xFE0, 0x06) // PID0: part[7:0] = 0x06
	m.writeWordLocked(base+0xFE4, 0x40) // PID1: part[11:8]=0, JEP106 id low nibble = 0x4
	m.writeWordLocked(base+0xFE8, 0x0C) // PID2: JEDEC-used bit set, idCode bits[2:0]=0x4
	m.writeWordLocked(base+0xFEC, 0x00) // PID3
	m.writeWordLocked(base+0xFD0, 0x02) // PID4: JEP106 continuation count = 2
	m.writeWordLocked(base+0xFF0, 0x0D) // CID0
	m.writeWordLocked(base+0xFF4, 0x90) // CID1: class 9 (CoreSight component, a Walk leaf)
	m.writeWordLocked(base+0xFF8, 0x05) // CID2
	m.writeWordLocked(base+0xFFC, 0xB1) // CID3
}

func (m *Mock) writeFPBIDRegisters() {
	m.writeWordLocked(MockFPBBase, 0x10000020) // FP_CTRL: NUM_CODE=2, REV=1
}

// ReadRegister implements Transport.
func (m *Mock) ReadRegister(port Port, addr uint8) (uint32, error) {
	if port.Type == DebugPort {
		return m.readDP(addr)
	}
	return m.readAP(port, addr)
}

// WriteRegister implements Transport.
func (m *Mock) WriteRegister(port Port, addr uint8, value uint32) error {
	if port.Type == DebugPort {
		return m.writeDP(addr, value)
	}
	return m.writeAP(port, addr, value)
}

// ReadBlock implements Transport by fanning out to ReadRegister; the mock
// target has no native block-transfer command, so it uses the default
// ReadBlockBySingle fallback.
func (m *Mock) ReadBlock(port Port, addr uint8, count int) ([]uint32, error) {
	return ReadBlockBySingle(m, port, addr, count)
}

// WriteBlock implements Transport by fanning out to WriteRegister.
func (m *Mock) WriteBlock(port Port, addr uint8, values []uint32) error {
	return WriteBlockBySingle(m, port, addr, values)
}

// Flush is a no-op: Mock never batches.
func (m *Mock) Flush() error { return nil }

const (
	dpAddrDPIDR    = 0x0
	dpAddrABORT    = 0x0
	dpAddrCtrlStat = 0x4
	dpAddrSelect   = 0x8
	dpAddrRDBuff   = 0xC
)

func (m *Mock) readDP(addr uint8) (uint32, error) {
	switch addr {
	case dpAddrDPIDR:
		return m.dpidr, nil
	case dpAddrCtrlStat:
		return m.ctrlStat, nil
	case dpAddrRDBuff:
		return 0, nil
	default:
		return 0, fmt.Errorf("mock: no such DP register 0x%x", addr)
	}
}

func (m *Mock) writeDP(addr uint8, value uint32) error {
	switch addr {
	case dpAddrABORT:
		return nil // sticky flags not modeled; clearing always succeeds
	case dpAddrCtrlStat:
		m.ctrlStat = value
		const req = (1 << 30) | (1 << 28)
		if value&req == req {
			m.powered = true
		}
		if m.powered {
			m.ctrlStat |= (1 << 30) | (1 << 31) | (1 << 28) | (1 << 29)
		}
		return nil
	case dpAddrSelect:
		m.SelectWrites++
		m.selAP = uint8(value >> 24)
		m.selBank = uint8((value >> 4) & 0xFF)
		m.selDP = uint8(value & 0xF)
		return nil
	default:
		return fmt.Errorf("mock: no such DP register 0x%x", addr)
	}
}

func (m *Mock) apRegAddr(offset uint8) uint32 {
	return uint32(m.selBank)<<4 | uint32(offset&0xF)
}

func (m *Mock) readAP(port Port, offset uint8) (uint32, error) {
	if m.selAP != 0 {
		return 0, nil // only APSEL 0 is populated; enumeration sees IDR==0 elsewhere
	}
	switch m.apRegAddr(offset) {
	case 0x00:
		return m.csw, nil
	case 0x04:
		return m.tar, nil
	case 0x0C:
		v := m.readMemLane(m.tar, m.csw&0x7)
		m.autoIncrement()
		return v, nil
	case 0xF8:
		return MockDebugBase | 0x3, nil // BASE: legacy format, present, debug entry present
	case 0xF0:
		return 0, nil // BASE2 unused (legacy BASE already holds the full address)
	case 0xFC:
		return m.apIDR, nil
	default:
		return 0, fmt.Errorf("mock: no such AP register 0x%x", m.apRegAddr(offset))
	}
}

func (m *Mock) writeAP(port Port, offset uint8, value uint32) error {
	if m.selAP != 0 {
		return fmt.Errorf("mock: no AP at APSEL %d", m.selAP)
	}
	switch m.apRegAddr(offset) {
	case 0x00:
		m.csw = value
		return nil
	case 0x04:
		m.tar = value
		m.TARWrites = append(m.TARWrites, value)
		return nil
	case 0x0C:
		m.writeMemLane(m.tar, m.csw&0x7, value)
		m.autoIncrement()
		return nil
	default:
		return fmt.Errorf("mock: AP register 0x%x is not writable", m.apRegAddr(offset))
	}
}

// autoIncrement mimics real MEM-AP hardware TAR auto-increment, which
// wraps within the current 1KiB-aligned window rather than carrying into
// the next one (the reason memap must re-issue TAR at each boundary).
func (m *Mock) autoIncrement() {
	addrInc := (m.csw >> 4) & 0x3
	if addrInc == 0 {
		return
	}
	size := uint32(1) << (m.csw & 0x7)
	low := (m.tar & (MockPageSize - 1)) + size
	m.tar = (m.tar &^ (MockPageSize - 1)) | (low & (MockPageSize - 1))
}

func (m *Mock) readMemLane(addr, size uint32) uint32 {
	if addr&^3 == mockDHCSR {
		m.syncDHCSR()
	}
	if addr&^3 == mockDFSR {
		return m.dfsr
	}
	word := m.readWordLocked(addr &^ 3)
	switch size {
	case 0:
		lane := (addr & 3) * 8
		return (word >> lane) & 0xFF << lane
	case 1:
		lane := (addr & 2) * 8
		return (word >> lane) & 0xFFFF << lane
	default:
		return word
	}
}

func (m *Mock) writeMemLane(addr, size, value uint32) {
	aligned := addr &^ 3
	if aligned == mockDFSR {
		m.dfsr &^= value // DFSR is write-one-to-clear
		return
	}
	word := m.readWordLocked(aligned)
	switch size {
	case 0:
		lane := (addr & 3) * 8
		word = (word &^ (0xFF << lane)) | (value & (0xFF << lane))
	case 1:
		lane := (addr & 2) * 8
		word = (word &^ (0xFFFF << lane)) | (value & (0xFFFF << lane))
	default:
		word = value
	}
	m.postWriteSideEffects(aligned, word)
	m.writeWordLocked(aligned, word)
}

// postWriteSideEffects implements the handful of memory-mapped registers
// that do more than store a value: DHCSR's halt/run handshake, AIRCR
// reset, DCRSR/DCRDR core-register transfer, and NVMC page erase.
func (m *Mock) postWriteSideEffects(addr, word uint32) {
	switch addr {
	case mockDHCSR:
		if word>>16 != 0xA05F {
			return
		}
		const cHalt = 1 << 1
		const cStep = 1 << 2
		// A C_STEP request executes one instruction and halts again at once.
		m.halted = word&(cHalt|cStep) != 0
	case mockDCRSR:
		regsel := uint8(word & 0x1F)
		if word&dcrsrRegWnR != 0 {
			m.coreRegs[regsel] = m.readWordLocked(mockDCRDR)
		} else {
			m.writeWordLocked(mockDCRDR, m.coreRegs[regsel])
		}
	case mockDCRDR: // plain storage, read back by DCRSR logic above
	case mockDEMCR:
		m.demcr = word
	case mockAIRCR:
		const vectKey = 0x05FA0000
		const sysResetReq = 1 << 2
		if word&0xFFFF0000 == vectKey && word&sysResetReq != 0 {
			m.resetCore()
		}
	case MockNVMCBase + 0x508: // ERASEPAGE
		page := word &^ (MockPageSize - 1)
		for a := page; a < page+MockPageSize; a += 4 {
			m.writeWordLocked(a, 0xFFFFFFFF)
		}
	}
}

// syncDHCSR recomputes the DHCSR status bits (S_REGRDY, S_HALT, S_LOCKUP)
// from current mock state before a read exposes them.
func (m *Mock) syncDHCSR() {
	const sRegRdy = 1 << 16
	const sHalt = 1 << 17
	const sSleep = 1 << 18
	const sLockup = 1 << 19
	word := uint32(sRegRdy)
	if m.halted {
		word |= sHalt
	}
	if m.Asleep {
		word |= sSleep
	}
	if m.lockedUp {
		word |= sLockup
	}
	m.writeWordLocked(mockDHCSR, word)
}

func (m *Mock) resetCore() {
	const dfsrVCatch = 1 << 3
	m.coreRegs = make(map[uint8]uint32)
	m.coreRegs[15] = m.readWordLocked(mockRAMBase + 4) // PC <- reset vector
	m.coreRegs[16] = 0x01000000                        // XPSR Thumb bit set
	if m.demcr&(1<<0) != 0 {                            // VC_CORERESET
		m.halted = true
		m.dfsr |= dfsrVCatch
	} else {
		m.halted = false
	}
}
