/*
 * adiprobe - CoreSight ROM table walker.
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

// Package romtable walks CoreSight component identification registers to
// recover a target's JEP106 manufacturer code and part number, the way
// probe-rs's ARM debug component scan does, reusing memap.Engine for the
// underlying reads.
package romtable

import "github.com/cornwell-labs/adiprobe/memap"

// Identity is the JEP106 continuation-code/identity byte and part number
// recovered from a CoreSight component's peripheral ID registers.
type Identity struct {
	ContinuationCode uint8
	IdentityCode     uint8
	Part             uint16
}

// classROMTable is the CIDR1 CLASS field value for a Class-1 (ROM table)
// CoreSight component.
const classROMTable = 0x1

// offsets of the component/peripheral ID registers relative to a
// component's base address.
const (
	offPID4 = 0xFD0
	offPID0 = 0xFE0
	offPID1 = 0xFE4
	offPID2 = 0xFE8
	offPID3 = 0xFEC
	offCID0 = 0xFF0
	offCID1 = 0xFF4
	offCID2 = 0xFF8
	offCID3 = 0xFFC
)

const (
	cidMagic0 = 0x0D
	cidMagic2 = 0x05
	cidMagic3 = 0xB1
)

// ReadIdentity reads the component/peripheral ID registers at base and
// decodes them into an Identity. It returns ok=false if the component ID
// magic bytes don't match a CoreSight component.
func ReadIdentity(e *memap.Engine, base uint32) (Identity, bool, error) {
	cid0, err := e.ReadWord(base+offCID0, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	cid2, err := e.ReadWord(base+offCID2, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	cid3, err := e.ReadWord(base+offCID3, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	if cid0&0xFF != cidMagic0 || cid2&0xFF != cidMagic2 || cid3&0xFF != cidMagic3 {
		return Identity{}, false, nil
	}

	pid0, err := e.ReadWord(base+offPID0, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	pid1, err := e.ReadWord(base+offPID1, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	pid2, err := e.ReadWord(base+offPID2, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}
	pid4, err := e.ReadWord(base+offPID4, memap.Width32)
	if err != nil {
		return Identity{}, false, err
	}

	part := uint16(pid0&0xFF) | uint16(pid1&0xF)<<8
	idCode := uint8(pid1>>4)&0xF | uint8(pid2&0x7)<<4
	cc := uint8(pid4 & 0xF)

	return Identity{ContinuationCode: cc, IdentityCode: idCode, Part: part}, true, nil
}

// IsROMTable reports whether the component at base is itself a Class-1
// ROM table, by inspecting CID1's CLASS field.
func IsROMTable(e *memap.Engine, base uint32) (bool, error) {
	cid1, err := e.ReadWord(base+offCID1, memap.Width32)
	if err != nil {
		return false, err
	}
	class := (cid1 >> 4) & 0xF
	return class == classROMTable, nil
}

// Entry is one populated slot of a Class-1 ROM table.
type Entry struct {
	ComponentBase uint32
}

// ReadEntries reads a Class-1 ROM table's entries starting at base,
// stopping at the first all-zero word.
// Entries marked not-present (bit 0 clear) are skipped.
func ReadEntries(e *memap.Engine, base uint32) ([]Entry, error) {
	var entries []Entry
	for i := uint32(0); i < 960*4; i += 4 { // ROM table entry area spans 0x000-0xEFC (960 entries)
		addr := base + i
		word, err := e.ReadWord(addr, memap.Width32)
		if err != nil {
			return entries, err
		}
		if word == 0 {
			break
		}
		const present = 1 << 0
		if word&present == 0 {
			continue
		}
		offset := int32(word &^ 0xFFF)
		entries = append(entries, Entry{ComponentBase: uint32(int64(base) + int64(offset))})
	}
	return entries, nil
}

// Walk reads the component at base, descending one level into a Class-1
// ROM table if that's what it finds, and returns the Identity of every
// leaf component reached.
func Walk(e *memap.Engine, base uint32) ([]Identity, error) {
	isTable, err := IsROMTable(e, base)
	if err != nil {
		return nil, err
	}
	if !isTable {
		id, ok, err := ReadIdentity(e, base)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []Identity{id}, nil
	}

	entries, err := ReadEntries(e, base)
	if err != nil {
		return nil, err
	}
	var out []Identity
	for _, entry := range entries {
		id, ok, err := ReadIdentity(e, entry.ComponentBase)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}
