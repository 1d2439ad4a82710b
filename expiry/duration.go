// Package expiry holds the expiration index: the optional absolute time
// after which a token stops being visible to non-privileged readers.
//
// Expiry never deletes anything. A token past its expiry stays in storage
// and is hidden lazily on every read.
package expiry

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidDuration is returned by ParseDuration for malformed input.
var ErrInvalidDuration = errors.New("expiry: invalid duration")

// Unit multipliers in nanoseconds.
const (
	Second uint64 = 1_000_000_000
	Minute        = 60 * Second
	Hour          = 60 * Minute
	Day           = 24 * Hour
)

// ParseDuration converts a duration string such as "30s", "5m", "12h" or
// "7d" into nanoseconds.
//
// The grammar is one or more ASCII digits followed by exactly one unit
// character. Signs, fractions, whitespace and composite units ("1h30m")
// are rejected, as is any value that overflows 64 bits.
func ParseDuration(text string) (uint64, error) {
	n := len(text)
	if n < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}

	var unit uint64
	switch text[n-1] {
	case 's':
		unit = Second
	case 'm':
		unit = Minute
	case 'h':
		unit = Hour
	case 'd':
		unit = Day
	default:
		return 0, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidDuration, text, text[n-1])
	}

	var num uint64
	for i := 0; i < n-1; i++ {
		c := text[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q: unexpected %q", ErrInvalidDuration, text, c)
		}
		hi, lo := bits.Mul64(num, 10)
		sum, carry := bits.Add64(lo, uint64(c-'0'), 0)
		if hi != 0 || carry != 0 {
			return 0, fmt.Errorf("%w: %q: overflow", ErrInvalidDuration, text)
		}
		num = sum
	}

	hi, ns := bits.Mul64(num, unit)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %q: overflow", ErrInvalidDuration, text)
	}
	return ns, nil
}

// Deadline returns now+offset. It fails with ErrInvalidDuration when the
// sum does not fit in 64 bits.
func Deadline(now, offset uint64) (uint64, error) {
	sum, carry := bits.Add64(now, offset, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: deadline overflows", ErrInvalidDuration)
	}
	return sum, nil
}
