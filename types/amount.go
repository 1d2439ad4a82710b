package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"

	"lukechampine.com/uint128"
)

// ErrInvalidAmount is returned when a string is not a non-negative
// base-10 integer that fits in 128 bits.
var ErrInvalidAmount = errors.New("types: invalid amount")

// Amount is a non-negative quantity of the smallest native unit (yocto).
// All arithmetic is integer-only and 128 bits wide. The zero value is 0.
//
// Amounts marshal to JSON as decimal strings so that values above 2^53
// survive JavaScript clients.
type Amount struct {
	v uint128.Uint128
}

// Zero is the zero Amount.
var Zero Amount

// OneYocto is the smallest positive Amount. Transfers gated on a
// payout require exactly this much to be attached.
var OneYocto = NewAmount(1)

// NewAmount creates an Amount from a uint64.
func NewAmount(v uint64) Amount { return Amount{v: uint128.From64(v)} }

// AmountFromUint128 wraps a raw 128-bit value.
func AmountFromUint128(v uint128.Uint128) Amount { return Amount{v: v} }

// ParseAmount parses a base-10 string. Signs, whitespace and prefixes
// are rejected.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	v, err := uint128.FromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return Amount{v: v}, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Uint128 returns the raw 128-bit value.
func (a Amount) Uint128() uint128.Uint128 { return a.v }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Equals(b.v) }

// Less reports whether a < b.
func (a Amount) Less(b Amount) bool { return a.v.Cmp(b.v) < 0 }

// Add returns a+b. The boolean is false on overflow.
func (a Amount) Add(b Amount) (Amount, bool) {
	lo, carry := bits.Add64(a.v.Lo, b.v.Lo, 0)
	hi, carry := bits.Add64(a.v.Hi, b.v.Hi, carry)
	if carry != 0 {
		return Zero, false
	}
	return Amount{v: uint128.New(lo, hi)}, true
}

// Sub returns a-b. The boolean is false when b > a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.v.Cmp(b.v) < 0 {
		return Zero, false
	}
	return Amount{v: a.v.Sub(b.v)}, true
}

// MulUint64 returns a*n. The boolean is false on overflow.
func (a Amount) MulUint64(n uint64) (Amount, bool) {
	hi, lo := bits.Mul64(a.v.Lo, n)
	p0, p1 := bits.Mul64(a.v.Hi, n)
	hi, c := bits.Add64(hi, p1, 0)
	if p0 != 0 || c != 0 {
		return Zero, false
	}
	return Amount{v: uint128.New(lo, hi)}, true
}

// MulDiv returns floor(a * num / den) without intermediate overflow.
// num must not exceed den and den must be non-zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	if den == 0 {
		panic("amount: division by zero")
	}
	if num > den {
		panic("amount: MulDiv numerator exceeds denominator")
	}
	// a = q*den + r, so a*num/den = q*num + r*num/den with r < den.
	q, r := a.v.QuoRem64(den)
	whole := q.Mul64(num)
	frac := uint128.From64(r).Mul64(num).Div64(den)
	return Amount{v: whole.Add(frac)}
}

// String returns the base-10 representation.
func (a Amount) String() string { return a.v.String() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	return a.UnmarshalText([]byte(s))
}
