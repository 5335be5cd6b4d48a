/*
 * adiprobe - Intel-HEX record reader.
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

// Package hexfile implements a lazy Intel-HEX record reader.
package hexfile

import (
	"bufio"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"github.com/cornwell-labs/adiprobe/adierr"
)

// RecordType is an Intel-HEX record type byte.
type RecordType uint8

const (
	TypeData                   RecordType = 0x00
	TypeEndOfFile              RecordType = 0x01
	TypeExtendedSegmentAddress RecordType = 0x02
	TypeStartSegmentAddress    RecordType = 0x03
	TypeExtendedLinearAddress  RecordType = 0x04
	TypeStartLinearAddress     RecordType = 0x05
)

// Record is one decoded, checksum-validated Intel-HEX line. Exactly one
// of the fields is meaningful, selected by Type.
type Record struct {
	Type RecordType

	// Data/ExtendedSegmentAddress/ExtendedLinearAddress payloads.
	Offset uint16
	Data   []byte
	Seg    uint16 // ExtendedSegmentAddress's 16-bit segment value
	Lin    uint16 // ExtendedLinearAddress's upper 16 bits of a 32-bit address

	// StartSegmentAddress/StartLinearAddress payload (CS:IP or EIP).
	StartAddress uint32
}

// Reader iterates over the records of an Intel-HEX stream one line at a
// time, validating each line's checksum as it goes.
type Reader struct {
	scan *bufio.Scanner
	line int
	done bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scan: bufio.NewScanner(r)}
}

// Next returns the next record. Once the End Of File record has been
// returned it returns io.EOF; if the stream runs out without one it
// returns ErrNoEndOfFile, and io.EOF on every later call.
func (rd *Reader) Next() (Record, error) {
	if rd.done {
		return Record{}, io.EOF
	}
	for rd.scan.Scan() {
		rd.line++
		text := strings.TrimSpace(rd.scan.Text())
		if text == "" {
			continue
		}
		rec, err := parseLine(rd.line, text)
		if err != nil {
			return Record{}, err
		}
		if rec.Type == TypeEndOfFile {
			rd.done = true
		}
		return rec, nil
	}
	if err := rd.scan.Err(); err != nil {
		return Record{}, err
	}
	rd.done = true
	return Record{}, ErrNoEndOfFile
}

func parseLine(line int, text string) (Record, error) {
	if len(text) < 11 || text[0] != ':' {
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "missing ':' start marker"}
	}
	raw, err := hex.DecodeString(text[1:])
	if err != nil {
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "invalid hex digits"}
	}
	if len(raw) < 5 {
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "record too short"}
	}
	byteCount := int(raw[0])
	if len(raw) != byteCount+5 {
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "byte count does not match record length"}
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "checksum mismatch"}
	}

	offset := uint16(raw[1])<<8 | uint16(raw[2])
	rtype := RecordType(raw[3])
	payload := raw[4 : 4+byteCount]

	rec := Record{Type: rtype, Offset: offset}
	switch rtype {
	case TypeData:
		rec.Data = append([]byte(nil), payload...)
	case TypeEndOfFile:
	case TypeExtendedSegmentAddress:
		if len(payload) != 2 {
			return Record{}, &adierr.HexReaderError{Line: line, Kind: "malformed extended segment address record"}
		}
		rec.Seg = uint16(payload[0])<<8 | uint16(payload[1])
	case TypeExtendedLinearAddress:
		if len(payload) != 2 {
			return Record{}, &adierr.HexReaderError{Line: line, Kind: "malformed extended linear address record"}
		}
		rec.Lin = uint16(payload[0])<<8 | uint16(payload[1])
	case TypeStartSegmentAddress:
		if len(payload) != 4 {
			return Record{}, &adierr.HexReaderError{Line: line, Kind: "malformed start segment address record"}
		}
		rec.StartAddress = uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
	case TypeStartLinearAddress:
		if len(payload) != 4 {
			return Record{}, &adierr.HexReaderError{Line: line, Kind: "malformed start linear address record"}
		}
		rec.StartAddress = uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
	default:
		return Record{}, &adierr.HexReaderError{Line: line, Kind: "unknown record type"}
	}
	return rec, nil
}

// ErrNoEndOfFile is returned by Next when the underlying stream is
// exhausted without ever producing a TypeEndOfFile record.
var ErrNoEndOfFile = errors.New("hex stream ended without an end-of-file record")
