package types

import (
	"errors"
	"fmt"
)

// ErrInvalidAccountID is returned when an account identifier is malformed.
var ErrInvalidAccountID = errors.New("types: invalid account id")

// Account id length bounds.
const (
	MinAccountIDLen = 2
	MaxAccountIDLen = 64
)

// AccountID names an account that can own tokens, receive royalties or
// hold a balance. Valid ids are 2-64 characters of lowercase letters,
// digits and the separators '-', '_' and '.'. Separators may not lead,
// trail or repeat.
type AccountID string

// String returns the account id as a plain string.
func (a AccountID) String() string { return string(a) }

// Validate checks the account id against the naming rules.
func (a AccountID) Validate() error {
	s := string(a)
	if len(s) < MinAccountIDLen || len(s) > MaxAccountIDLen {
		return fmt.Errorf("%w: %q: length must be between %d and %d", ErrInvalidAccountID, s, MinAccountIDLen, MaxAccountIDLen)
	}

	prevSeparator := true // a separator may not lead
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSeparator = false
		case c == '-' || c == '_' || c == '.':
			if prevSeparator {
				return fmt.Errorf("%w: %q: misplaced separator at %d", ErrInvalidAccountID, s, i)
			}
			prevSeparator = true
		default:
			return fmt.Errorf("%w: %q: invalid character %q", ErrInvalidAccountID, s, c)
		}
	}
	if prevSeparator {
		return fmt.Errorf("%w: %q: trailing separator", ErrInvalidAccountID, s)
	}
	return nil
}

// ParseAccountID validates s and returns it as an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	a := AccountID(s)
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}
