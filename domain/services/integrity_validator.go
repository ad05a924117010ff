package services

import (
	"fmt"
	"sort"
	"strings"

	"multinet/domain/core/valueobjects"
)

// TableLookup answers questions about the tables that already exist.
type TableLookup interface {
	// Exists reports whether a table with the given name is defined.
	Exists(table string) bool
	// KeysOf returns every key stored in an existing table.
	KeysOf(table string) valueobjects.KeySet
}

// Violations is the ordered list of integrity problems found in an edge set.
// An empty list means every edge endpoint resolves.
type Violations []string

// OK reports whether no violations were found.
func (v Violations) OK() bool {
	return len(v) == 0
}

// UndefinedTableMessage formats the violation for a reference to a table
// that does not exist.
func UndefinedTableMessage(table string) string {
	return fmt.Sprintf("Reference to undefined table: %s", table)
}

// NonexistentKeysMessage formats the violation for keys missing from table.
func NonexistentKeysMessage(table string, keys []string) string {
	return fmt.Sprintf("Nonexistent keys %s referenced in table: %s", strings.Join(keys, ", "), table)
}

// ValidateEdges checks that every _from and _to endpoint in edges names an
// existing table and an existing key in it. All problems are reported: one
// message per undefined table, then one message per table listing all of its
// missing keys. Tables and keys are reported in sorted order.
//
// An endpoint that is absent, not a string or not of the form "table/key" is
// reported as an undefined table using its raw text.
func ValidateEdges(edges []valueobjects.Record, lookup TableLookup) Violations {
	exists := make(map[string]bool)
	tableExists := func(table string) bool {
		ok, seen := exists[table]
		if !seen {
			ok = lookup.Exists(table)
			exists[table] = ok
		}
		return ok
	}

	invalid := valueobjects.NewKeySet()
	referenced := make(map[string]valueobjects.KeySet)

	for _, edge := range edges {
		for _, field := range []string{valueobjects.FieldFrom, valueobjects.FieldTo} {
			raw := endpointText(edge, field)
			ref, err := valueobjects.ParseReference(raw)
			if err != nil {
				invalid.Add(raw)
				continue
			}
			if !tableExists(ref.Table) {
				invalid.Add(ref.Table)
				continue
			}
			keys, ok := referenced[ref.Table]
			if !ok {
				keys = valueobjects.NewKeySet()
				referenced[ref.Table] = keys
			}
			keys.Add(ref.Key)
		}
	}

	violations := Violations{}
	for _, table := range invalid.Sorted() {
		violations = append(violations, UndefinedTableMessage(table))
	}

	tables := make([]string, 0, len(referenced))
	for table := range referenced {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		missing := referenced[table].Difference(lookup.KeysOf(table))
		if missing.Len() > 0 {
			violations = append(violations, NonexistentKeysMessage(table, missing.Sorted()))
		}
	}
	return violations
}

// endpointText returns the raw text of an edge endpoint field. Missing fields
// render as an empty string and non-string values with their default format.
func endpointText(edge valueobjects.Record, field string) string {
	v, ok := edge.Get(field)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
