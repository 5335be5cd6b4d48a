/*
 * adiprobe - Chip profile database.
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

// Package chipdb holds the built-in target profiles used to resolve a
// chip's debug-port base address, NVMC base, and flash page size once
// romtable has identified its JEP106/part.
package chipdb

import "fmt"

// Profile describes one known target's fixed addresses, used to drive
// session.Attach past raw register discovery into a usable memap/fpb/
// flash setup without the caller hand-supplying every address.
type Profile struct {
	Name      string
	JEP106CC  uint8
	JEP106ID  uint8
	Part      uint16
	DebugBase uint32
	NVMCBase  uint32
	FlashBase uint32
	PageSize  uint32
}

// builtins is the default profile table. Entries are looked up by the
// (JEP106 continuation code, identity code, part) triple romtable.Walk
// recovers.
var builtins = []Profile{
	{
		Name:      "nRF52832",
		JEP106CC:  0x02,
		JEP106ID:  0x44,
		Part:      0x0006,
		DebugBase: 0xE00FF000,
		NVMCBase:  0x4001E000,
		FlashBase: 0x00000000,
		PageSize:  4096,
	},
	{
		Name:      "nRF51822",
		JEP106CC:  0x02,
		JEP106ID:  0x44,
		Part:      0x0001,
		DebugBase: 0xE00FF000,
		NVMCBase:  0x4001E000,
		FlashBase: 0x00000000,
		PageSize:  1024,
	},
}

// DB is a mutable set of profiles, seeded from the built-in table and
// extendable by config.Load with user-supplied entries.
type DB struct {
	profiles []Profile
}

// New returns a DB seeded with the built-in profiles.
func New() *DB {
	db := &DB{}
	db.profiles = append(db.profiles, builtins...)
	return db
}

// NewEmpty returns a DB with no profiles at all, for tests and for a
// --no-builtin-chips style override.
func NewEmpty() *DB {
	return &DB{}
}

// Add appends or replaces (by Name) a profile, letting a config file
// override or extend the built-ins.
func (db *DB) Add(p Profile) {
	for i, existing := range db.profiles {
		if existing.Name == p.Name {
			db.profiles[i] = p
			return
		}
	}
	db.profiles = append(db.profiles, p)
}

// Lookup returns the profile matching a JEP106/part identity, as
// recovered by romtable.Walk.
func (db *DB) Lookup(cc, id uint8, part uint16) (Profile, bool) {
	for _, p := range db.profiles {
		if p.JEP106CC == cc && p.JEP106ID == id && p.Part == part {
			return p, true
		}
	}
	return Profile{}, false
}

// ByName returns the profile with the given name, for explicit
// --chip-style overrides.
func (db *DB) ByName(name string) (Profile, bool) {
	for _, p := range db.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// ErrUnknownChip reports a JEP106/part combination with no matching
// profile and no explicit override.
type ErrUnknownChip struct {
	CC, ID uint8
	Part   uint16
}

func (e *ErrUnknownChip) Error() string {
	return fmt.Sprintf("no chip profile for JEP106 cc=0x%02x id=0x%02x part=0x%04x", e.CC, e.ID, e.Part)
}
