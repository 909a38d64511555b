package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// CEID identifies a cloud element by its 1-based frame number and its 1-based
// sequence number within that frame.
type CEID struct {
	Frame int `json:"frame" msgpack:"frame"`
	Seq   int `json:"seq" msgpack:"seq"`
}

// String renders the id as F<frame>CE<seq>.
func (id CEID) String() string {
	return fmt.Sprintf("F%dCE%d", id.Frame, id.Seq)
}

// Compare orders ids by frame, then by sequence.
func (id CEID) Compare(other CEID) int {
	if c := cmp.Compare(id.Frame, other.Frame); c != 0 {
		return c
	}
	return cmp.Compare(id.Seq, other.Seq)
}

// Less reports whether id sorts before other.
func (id CEID) Less(other CEID) bool {
	return id.Compare(other) < 0
}

// IsZero reports whether the id is unset.
func (id CEID) IsZero() bool {
	return id.Frame == 0 && id.Seq == 0
}

// MarshalText implements encoding.TextMarshaler so ids serialize as F<n>CE<m>.
// The zero id serializes as the empty string.
func (id CEID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The empty string decodes
// to the zero id.
func (id *CEID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = CEID{}
		return nil
	}
	parsed, err := ParseCEID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseCEID parses the F<frame>CE<seq> form.
func ParseCEID(s string) (CEID, error) {
	var id CEID
	n, err := fmt.Sscanf(s, "F%dCE%d", &id.Frame, &id.Seq)
	if err != nil || n != 2 {
		return CEID{}, fmt.Errorf("parse cloud element id %q: malformed", s)
	}
	if id.Frame < 1 || id.Seq < 1 || id.String() != s {
		return CEID{}, fmt.Errorf("parse cloud element id %q: malformed", s)
	}
	return id, nil
}

// SortCEIDs sorts ids in place, earliest first.
func SortCEIDs(ids []CEID) {
	slices.SortFunc(ids, CEID.Compare)
}

// UniqueSortedCEIDs returns a sorted copy of ids with duplicates removed.
func UniqueSortedCEIDs(ids []CEID) []CEID {
	out := slices.Clone(ids)
	SortCEIDs(out)
	return slices.Compact(out)
}
