package uidmapshift

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxID is the exclusive upper bound of the identifier space. UIDs and
// GIDs are 32-bit values on every system we care about.
const MaxID = 1 << 32

// Kind names one of the two independent identifier spaces.
type Kind string

const (
	UID Kind = "uid"
	GID Kind = "gid"
)

// Range is a half-open [Start, End) interval of identifiers. Bounds are
// uint64 so that End may be MaxID.
type Range struct {
	Start uint64
	End   uint64
}

// ParseRange parses the "start[-end]" command-line form, where both
// bounds are base-0 integers (so hex and octal work) and end is
// inclusive. An omitted start means 0, an omitted end means the top of
// the identifier space, and a bare value denotes that single identifier.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return Range{}, errors.New("empty identifier range")
	}

	sstart, send, dashed := strings.Cut(s, "-")
	if !dashed {
		id, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return Range{}, errors.Wrapf(err, "malformed identifier range %q", s)
		}
		if id >= MaxID {
			return Range{}, errors.Errorf("identifier range %q exceeds the identifier space", s)
		}
		return Range{Start: id, End: id + 1}, nil
	}

	r := Range{Start: 0, End: MaxID}
	if sstart != "" {
		start, err := strconv.ParseUint(sstart, 0, 64)
		if err != nil {
			return Range{}, errors.Wrapf(err, "malformed identifier range %q", s)
		}
		r.Start = start
	}
	if send != "" {
		end, err := strconv.ParseUint(send, 0, 64)
		if err != nil {
			return Range{}, errors.Wrapf(err, "malformed identifier range %q", s)
		}
		r.End = end + 1
	}

	return r, r.validate(s)
}

func (r Range) validate(s string) error {
	if r.Start >= MaxID || r.End > MaxID {
		return errors.Errorf("identifier range %q exceeds the identifier space", s)
	}
	if r.End <= r.Start {
		return errors.Errorf("inverted identifier range %q", s)
	}
	return nil
}

// Contains reports whether id falls within the range.
func (r Range) Contains(id uint32) bool {
	return uint64(id) >= r.Start && uint64(id) < r.End
}

// IDMap shifts identifiers of one space by a fixed signed offset,
// leaving identifiers inside any exclusion range untouched.
type IDMap struct {
	Kind    Kind
	Offset  int64
	Exclude []Range
}

// Remap computes the shifted identifier for id. The boolean is false
// when no mutation is needed, either because id is excluded from
// shifting or because the offset maps it onto itself. Pure: same inputs
// always produce the same result.
func (m IDMap) Remap(id uint32) (uint32, bool, error) {
	for _, r := range m.Exclude {
		if r.Contains(id) {
			return id, false, nil
		}
	}

	mapped := int64(id) + m.Offset
	if mapped < 0 || mapped >= MaxID {
		return id, false, &OutOfRangeError{Kind: m.Kind, ID: id, Mapped: mapped}
	}

	return uint32(mapped), mapped != int64(id), nil
}
