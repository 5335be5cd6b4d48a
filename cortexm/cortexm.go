/*
 * adiprobe - Cortex-M core control.
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

// Package cortexm implements Cortex-M core control: the run/halt/step/
// reset state machine, core-register transfer, and vector-catch-driven
// reset-and-halt. It is grounded on probe-rs's M-profile
// core driver (probe-rs) and reuses the
// teacher's bounded cpu-halt polling idiom (emu/cpu halt/run handling)
// generalized into the pollUntil helper below.
package cortexm

import (
	"time"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/memap"
)

// Debug register addresses, fixed by the Cortex-M architecture.
const (
	AddrDHCSR uint32 = 0xE000EDF0
	AddrDCRSR uint32 = 0xE000EDF4
	AddrDCRDR uint32 = 0xE000EDF8
	AddrDEMCR uint32 = 0xE000EDFC
	AddrAIRCR uint32 = 0xE000ED0C
	AddrDFSR  uint32 = 0xE000ED30
)

// DHCSR bits.
const (
	dhcsrDbgKey  uint32 = 0xA05F << 16
	DHCSRCDebugEn uint32 = 1 << 0
	DHCSRCHalt    uint32 = 1 << 1
	DHCSRCStep    uint32 = 1 << 2
	DHCSRSRegRdy  uint32 = 1 << 16
	DHCSRSHalt    uint32 = 1 << 17
	DHCSRSSleep   uint32 = 1 << 18
	DHCSRSLockup  uint32 = 1 << 19
)

// DFSR bits. All five are sticky and write-one-to-clear.
const (
	dfsrHalted   uint32 = 1 << 0
	dfsrBkpt     uint32 = 1 << 1
	dfsrDwtTrap  uint32 = 1 << 2
	dfsrVCatch   uint32 = 1 << 3
	dfsrExternal uint32 = 1 << 4
	dfsrAll      uint32 = dfsrHalted | dfsrBkpt | dfsrDwtTrap | dfsrVCatch | dfsrExternal
)

// DEMCR bits.
const (
	DEMCRVCCorereset uint32 = 1 << 0
)

// AIRCR bits.
const (
	aircrVectKey     uint32 = 0x05FA << 16
	AIRCRSysResetReq uint32 = 1 << 2
)

// DCRSR bits.
const (
	dcrsrRegWnR uint32 = 1 << 16
)

// Core register selector indices (DCRSR REGSEL).
const (
	RegR0   uint8 = 0
	RegSP   uint8 = 13
	RegLR   uint8 = 14
	RegPC   uint8 = 15
	RegXPSR uint8 = 16
)

// State is the core's run/halt/lockup classification.
type State int

const (
	Running State = iota
	Sleeping
	Halted
	LockedUp
	Unknown
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Halted:
		return "halted"
	case LockedUp:
		return "locked up"
	default:
		return "unknown"
	}
}

// HaltReason classifies why a Halted core actually stopped, decoded from
// DFSR. It is meaningful only when Status reports Halted.
type HaltReason int

const (
	ReasonNone HaltReason = iota
	ReasonExternal
	ReasonVector
	ReasonDWTTrap
	ReasonBKPT
	ReasonStep
	ReasonUnknown
)

func (r HaltReason) String() string {
	switch r {
	case ReasonExternal:
		return "external"
	case ReasonVector:
		return "vector"
	case ReasonDWTTrap:
		return "dwt trap"
	case ReasonBKPT:
		return "breakpoint"
	case ReasonStep:
		return "step"
	case ReasonUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// haltReasonFromDFSR classifies a DFSR snapshot into the HaltReason the
// core most likely stopped for. ARMv7-M can set more than one sticky bit
// for a single debug event; this ranks the more specific causes first,
// falling to the generic halt-request bit (Step covers both a C_STEP
// completion and a plain C_HALT request, since DFSR cannot tell them
// apart) and then Unknown if nothing is set.
func haltReasonFromDFSR(v uint32) HaltReason {
	switch {
	case v&dfsrExternal != 0:
		return ReasonExternal
	case v&dfsrVCatch != 0:
		return ReasonVector
	case v&dfsrDwtTrap != 0:
		return ReasonDWTTrap
	case v&dfsrBkpt != 0:
		return ReasonBKPT
	case v&dfsrHalted != 0:
		return ReasonStep
	default:
		return ReasonUnknown
	}
}

// pollInterval is the floor sleep between bounded status-bit polls.
const pollInterval = time.Millisecond

// maxPollIterations bounds every polling loop in this package so a dead
// target produces a TimeoutError instead of hanging the caller forever.
const maxPollIterations = 100

// pollUntil calls check up to maxPollIterations times, sleeping
// pollInterval between attempts, until check returns true or an error.
func pollUntil(operation string, check func() (bool, error)) error {
	for i := 0; i < maxPollIterations; i++ {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return &adierr.TimeoutError{Operation: operation, Iterations: maxPollIterations}
}

// Core is a handle to one Cortex-M core reachable through a memap.Engine.
type Core struct {
	e *memap.Engine
}

// New returns a Core driving the given memory engine.
func New(e *memap.Engine) *Core {
	return &Core{e: e}
}

func (c *Core) readDHCSR() (uint32, error) {
	return c.e.ReadWord(AddrDHCSR, memap.Width32)
}

func (c *Core) writeDHCSR(bits uint32) error {
	return c.e.WriteWord(AddrDHCSR, memap.Width32, dhcsrDbgKey|bits)
}

func (c *Core) readDFSR() (uint32, error) {
	return c.e.ReadWord(AddrDFSR, memap.Width32)
}

// clearDFSR clears every sticky DFSR bit via the register's
// write-one-to-clear convention.
func (c *Core) clearDFSR() error {
	return c.e.WriteWord(AddrDFSR, memap.Width32, dfsrAll)
}

// Status reads DHCSR and classifies the core's current State. When the
// core is Halted it also reads DFSR to determine the HaltReason and
// clears DFSR's sticky bits so the next halt starts from a clean slate.
func (c *Core) Status() (State, HaltReason, error) {
	v, err := c.readDHCSR()
	if err != nil {
		return Unknown, ReasonNone, err
	}
	if v&DHCSRSLockup != 0 {
		return LockedUp, ReasonNone, nil
	}
	if v&DHCSRSSleep != 0 {
		return Sleeping, ReasonNone, nil
	}
	if v&DHCSRSHalt != 0 {
		dfsr, err := c.readDFSR()
		if err != nil {
			return Halted, ReasonNone, adierr.Wrap("reading DFSR", err)
		}
		reason := haltReasonFromDFSR(dfsr)
		if err := c.clearDFSR(); err != nil {
			return Halted, reason, adierr.Wrap("clearing DFSR", err)
		}
		return Halted, reason, nil
	}
	return Running, ReasonNone, nil
}

// Halt requests a debug halt and waits for S_HALT to assert.
func (c *Core) Halt() error {
	if err := c.writeDHCSR(DHCSRCDebugEn | DHCSRCHalt); err != nil {
		return adierr.Wrap("requesting core halt", err)
	}
	return pollUntil("core halt", func() (bool, error) {
		v, err := c.readDHCSR()
		if err != nil {
			return false, err
		}
		return v&DHCSRSHalt != 0, nil
	})
}

// Run requests the core resume execution. It does not wait for S_HALT to
// clear: a running core may re-halt immediately on a breakpoint, and
// that is indistinguishable here from a failed resume.
func (c *Core) Run() error {
	if err := c.writeDHCSR(DHCSRCDebugEn); err != nil {
		return adierr.Wrap("requesting core run", err)
	}
	return nil
}

// Step requests a single instruction step and waits for the core to
// re-halt.
func (c *Core) Step() error {
	state, _, err := c.Status()
	if err != nil {
		return err
	}
	if state != Halted {
		return adierr.ErrUnexpectedCoreState
	}
	if err := c.writeDHCSR(DHCSRCDebugEn | DHCSRCStep); err != nil {
		return adierr.Wrap("requesting single step", err)
	}
	return pollUntil("single step", func() (bool, error) {
		v, err := c.readDHCSR()
		if err != nil {
			return false, err
		}
		return v&DHCSRSHalt != 0, nil
	})
}

// readDEMCR and writeDEMCR access the vector-catch control register.
func (c *Core) readDEMCR() (uint32, error) {
	return c.e.ReadWord(AddrDEMCR, memap.Width32)
}

func (c *Core) writeDEMCR(v uint32) error {
	return c.e.WriteWord(AddrDEMCR, memap.Width32, v)
}

// Reset issues a system reset via AIRCR without halting on the reset
// vector.
func (c *Core) Reset() error {
	demcr, err := c.readDEMCR()
	if err != nil {
		return adierr.Wrap("reading DEMCR before reset", err)
	}
	if err := c.writeDEMCR(demcr &^ DEMCRVCCorereset); err != nil {
		return adierr.Wrap("clearing vector catch before reset", err)
	}
	if err := c.e.WriteWord(AddrAIRCR, memap.Width32, aircrVectKey|AIRCRSysResetReq); err != nil {
		return adierr.Wrap("writing AIRCR SYSRESETREQ", err)
	}
	return nil
}

// ResetAndHalt sets VC_CORERESET so the core halts on the reset vector,
// issues the reset, waits for the halt, then fixes up XPSR's Thumb bit
// the way probe-rs's reset_and_halt does for cores that come up with it
// cleared.
func (c *Core) ResetAndHalt() error {
	demcr, err := c.readDEMCR()
	if err != nil {
		return adierr.Wrap("reading DEMCR before reset-and-halt", err)
	}
	if err := c.writeDEMCR(demcr | DEMCRVCCorereset); err != nil {
		return adierr.Wrap("setting vector catch for reset-and-halt", err)
	}
	if err := c.e.WriteWord(AddrAIRCR, memap.Width32, aircrVectKey|AIRCRSysResetReq); err != nil {
		return adierr.Wrap("writing AIRCR SYSRESETREQ", err)
	}

	if err := pollUntil("reset-and-halt", func() (bool, error) {
		v, err := c.readDHCSR()
		if err != nil {
			return false, err
		}
		return v&DHCSRSHalt != 0, nil
	}); err != nil {
		return err
	}

	xpsr, err := c.ReadCoreRegister(RegXPSR)
	if err != nil {
		return adierr.Wrap("reading XPSR after reset-and-halt", err)
	}
	const thumbBit = 1 << 24
	if xpsr&thumbBit == 0 {
		if err := c.WriteCoreRegister(RegXPSR, xpsr|thumbBit); err != nil {
			return adierr.Wrap("fixing up XPSR Thumb bit after reset-and-halt", err)
		}
	}
	return nil
}

// waitRegReady polls DHCSR's S_REGRDY bit, which the core clears while a
// DCRSR transfer is in flight and sets once DCRDR is valid.
func (c *Core) waitRegReady() error {
	return pollUntil("core register transfer", func() (bool, error) {
		v, err := c.readDHCSR()
		if err != nil {
			return false, err
		}
		return v&DHCSRSRegRdy != 0, nil
	})
}

// ReadCoreRegister reads one core register via the DCRSR/DCRDR handshake.
func (c *Core) ReadCoreRegister(reg uint8) (uint32, error) {
	if err := c.e.WriteWord(AddrDCRSR, memap.Width32, uint32(reg)); err != nil {
		return 0, adierr.Wrap("requesting core register read", err)
	}
	if err := c.waitRegReady(); err != nil {
		return 0, err
	}
	v, err := c.e.ReadWord(AddrDCRDR, memap.Width32)
	if err != nil {
		return 0, adierr.Wrap("reading DCRDR", err)
	}
	return v, nil
}

// WriteCoreRegister writes one core register via the DCRSR/DCRDR
// handshake.
func (c *Core) WriteCoreRegister(reg uint8, value uint32) error {
	if err := c.e.WriteWord(AddrDCRDR, memap.Width32, value); err != nil {
		return adierr.Wrap("staging DCRDR for core register write", err)
	}
	if err := c.e.WriteWord(AddrDCRSR, memap.Width32, uint32(reg)|dcrsrRegWnR); err != nil {
		return adierr.Wrap("requesting core register write", err)
	}
	return c.waitRegReady()
}
