/*
 * adiprobe - Hex dump helper.
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

// Package hexdump formats register and memory values for the console and
// CLI "read" output.
package hexdump

import "strings"

var hexDigits = "0123456789ABCDEF"

// FormatWords appends a space-separated, 8-digit-per-word hex dump of words
// to str.
func FormatWords(str *strings.Builder, words []uint32) {
	for _, full := range words {
		shift := 28
		for range 8 {
			str.WriteByte(hexDigits[(full>>shift)&0xf])
			shift -= 4
		}
		str.WriteByte(' ')
	}
}

// FormatBytes appends a hex dump of data to str, two digits per byte,
// followed by a space after each byte when space is true.
func FormatBytes(str *strings.Builder, space bool, data []byte) {
	for _, by := range data {
		str.WriteByte(hexDigits[(by>>4)&0xf])
		str.WriteByte(hexDigits[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}

// Word formats a single 32-bit value as an 8-digit hex string.
func Word(v uint32) string {
	var b strings.Builder
	FormatWords(&b, []uint32{v})
	return strings.TrimSpace(b.String())
}

// Bytes formats a byte slice as a space-separated hex dump.
func Bytes(data []byte) string {
	var b strings.Builder
	FormatBytes(&b, true, data)
	return strings.TrimSpace(b.String())
}
