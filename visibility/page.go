package visibility

import (
	"errors"
	"fmt"

	"github.com/xraph/mintage/token"
)

var (
	// ErrZeroLimit is returned for a page limit of 0.
	ErrZeroLimit = errors.New("visibility: limit must be greater than zero")
	// ErrIndexOutOfBounds is returned when a page starts past the end of
	// the collection.
	ErrIndexOutOfBounds = errors.New("visibility: from_index out of bounds")
)

// Page selects a window of an enumeration. Nil fields take their
// defaults: start at 0, no limit.
type Page struct {
	FromIndex *uint64 `json:"from_index,omitempty"`
	Limit     *uint64 `json:"limit,omitempty"`
}

// Bound selects how FromIndex is checked against the collection size.
type Bound int

const (
	// Inclusive allows FromIndex == size, yielding an empty page. Global
	// enumeration uses it.
	Inclusive Bound = iota
	// Exclusive requires FromIndex < size. Per-owner enumeration uses it.
	Exclusive
)

// Check validates the page against a collection of size entries. The
// bound is checked against the unfiltered size.
func (p Page) Check(size uint64, bound Bound) error {
	if p.Limit != nil && *p.Limit == 0 {
		return ErrZeroLimit
	}
	from := p.from()
	switch bound {
	case Exclusive:
		if from >= size {
			return fmt.Errorf("%w: %d >= %d", ErrIndexOutOfBounds, from, size)
		}
	default:
		if from > size {
			return fmt.Errorf("%w: %d > %d", ErrIndexOutOfBounds, from, size)
		}
	}
	return nil
}

func (p Page) from() uint64 {
	if p.FromIndex == nil {
		return 0
	}
	return *p.FromIndex
}

// Select filters entries with keep, then skips FromIndex survivors and
// takes at most Limit. Filtering happens before paging, so indexes count
// only the entries that survive. Call Check first.
func (p Page) Select(entries []token.Entry, keep func(token.Entry) (bool, error)) ([]token.Entry, error) {
	skip := p.from()
	out := make([]token.Entry, 0)
	for _, e := range entries {
		if p.Limit != nil && uint64(len(out)) >= *p.Limit {
			break
		}
		ok, err := keep(e)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
