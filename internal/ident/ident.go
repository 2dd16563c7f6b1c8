// Package ident generates the short opaque identifiers used for records and
// blob object names.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

const fragmentLen = 9

// Fragment returns n random base-36 characters.
func Fragment(n int) string {
	var b strings.Builder
	b.Grow(n)
	for b.Len() < n {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			panic(err)
		}
		chunk := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
		if len(chunk) > n-b.Len() {
			chunk = chunk[:n-b.Len()]
		}
		b.WriteString(chunk)
	}
	return b.String()
}

// Base36Millis renders t as Unix milliseconds in base 36.
func Base36Millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36)
}

// New returns a random fragment followed by the current time in base 36.
// Unique with high probability within a process; not suitable as a secret.
func New() string {
	return NewAt(time.Now())
}

// NewAt is New with an explicit timestamp.
func NewAt(t time.Time) string {
	return Fragment(fragmentLen) + Base36Millis(t)
}
