package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// ReferenceSeparator splits the table and key parts of a composite reference.
const ReferenceSeparator = "/"

// ErrMalformedReference is returned for strings that are not "table/key".
var ErrMalformedReference = errors.New("malformed reference")

// Reference points at one record in one table, written "table/key".
type Reference struct {
	Table string
	Key   string
}

// NewReference creates a reference to key in table.
func NewReference(table, key string) Reference {
	return Reference{Table: table, Key: key}
}

// ParseReference splits s at the first separator. Both parts must be non-empty.
func ParseReference(s string) (Reference, error) {
	table, key, found := strings.Cut(s, ReferenceSeparator)
	if !found || table == "" || key == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, s)
	}
	return Reference{Table: table, Key: key}, nil
}

// String renders the reference in its composite form.
func (r Reference) String() string {
	return r.Table + ReferenceSeparator + r.Key
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Table == "" && r.Key == ""
}
