package services

import (
	"testing"

	"multinet/domain/core/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup serves table keys from memory and counts how often each table
// is consulted.
type fakeLookup struct {
	tables      map[string]valueobjects.KeySet
	existsCalls map[string]int
	keysCalls   map[string]int
}

func newFakeLookup(tables map[string][]string) *fakeLookup {
	l := &fakeLookup{
		tables:      make(map[string]valueobjects.KeySet),
		existsCalls: make(map[string]int),
		keysCalls:   make(map[string]int),
	}
	for name, keys := range tables {
		l.tables[name] = valueobjects.NewKeySet(keys...)
	}
	return l
}

func (l *fakeLookup) Exists(table string) bool {
	l.existsCalls[table]++
	_, ok := l.tables[table]
	return ok
}

func (l *fakeLookup) KeysOf(table string) valueobjects.KeySet {
	l.keysCalls[table]++
	return l.tables[table]
}

func edge(from, to string) valueobjects.Record {
	return valueobjects.NewRecord(
		valueobjects.Field{Name: valueobjects.FieldFrom, Value: from},
		valueobjects.Field{Name: valueobjects.FieldTo, Value: to},
	)
}

func TestValidateEdges(t *testing.T) {
	tables := map[string][]string{
		"people":     {"alice", "bob", "carol"},
		"membership": {"m1", "m2"},
		"clubs":      {"chess"},
	}

	tests := []struct {
		name  string
		edges []valueobjects.Record
		want  Violations
	}{
		{
			name:  "no edges",
			edges: nil,
			want:  Violations{},
		},
		{
			name: "all endpoints resolve",
			edges: []valueobjects.Record{
				edge("people/alice", "clubs/chess"),
				edge("people/bob", "clubs/chess"),
			},
			want: Violations{},
		},
		{
			name: "undefined table",
			edges: []valueobjects.Record{
				edge("people/alice", "teams/red"),
			},
			want: Violations{"Reference to undefined table: teams"},
		},
		{
			name: "missing keys aggregated per table",
			edges: []valueobjects.Record{
				edge("people/zed", "clubs/chess"),
				edge("people/alice", "clubs/go"),
				edge("people/yan", "clubs/chess"),
			},
			want: Violations{
				"Nonexistent keys go referenced in table: clubs",
				"Nonexistent keys yan, zed referenced in table: people",
			},
		},
		{
			name: "undefined tables reported once each, before missing keys",
			edges: []valueobjects.Record{
				edge("people/nobody", "teams/red"),
				edge("people/nobody", "teams/blue"),
				edge("groups/g1", "clubs/chess"),
			},
			want: Violations{
				"Reference to undefined table: groups",
				"Reference to undefined table: teams",
				"Nonexistent keys nobody referenced in table: people",
			},
		},
		{
			name: "malformed endpoints are undefined tables",
			edges: []valueobjects.Record{
				edge("alice", "clubs/chess"),
				edge("people/", "/chess"),
			},
			want: Violations{
				"Reference to undefined table: /chess",
				"Reference to undefined table: alice",
				"Reference to undefined table: people/",
			},
		},
		{
			name: "key containing separator",
			edges: []valueobjects.Record{
				edge("people/alice/extra", "clubs/chess"),
			},
			want: Violations{"Nonexistent keys alice/extra referenced in table: people"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEdges(tt.edges, newFakeLookup(tables))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) == 0, got.OK())
		})
	}
}

func TestValidateEdges_Exhaustive(t *testing.T) {
	tables := map[string][]string{"people": {"alice"}}
	edges := []valueobjects.Record{
		edge("ghosts/g1", "people/alice"),
		edge("people/bob", "people/alice"),
		edge("phantoms/p1", "people/carol"),
	}
	want := Violations{
		"Reference to undefined table: ghosts",
		"Reference to undefined table: phantoms",
		"Nonexistent keys bob, carol referenced in table: people",
	}

	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range permutations {
		shuffled := make([]valueobjects.Record, 0, len(edges))
		for _, i := range order {
			shuffled = append(shuffled, edges[i])
		}
		assert.Equal(t, want, ValidateEdges(shuffled, newFakeLookup(tables)), "order %v", order)
	}
}

func TestValidateEdges_ConsultsEachTableOnce(t *testing.T) {
	lookup := newFakeLookup(map[string][]string{
		"people": {"alice", "bob"},
		"clubs":  {"chess"},
	})
	edges := []valueobjects.Record{
		edge("people/alice", "clubs/chess"),
		edge("people/bob", "clubs/chess"),
		edge("people/carol", "clubs/go"),
		edge("teams/red", "teams/blue"),
	}

	ValidateEdges(edges, lookup)

	for table, n := range lookup.existsCalls {
		assert.Equal(t, 1, n, "Exists(%s)", table)
	}
	assert.Equal(t, map[string]int{"people": 1, "clubs": 1}, lookup.keysCalls)
}

func TestValidateEdges_MissingOrNonStringEndpoint(t *testing.T) {
	lookup := newFakeLookup(map[string][]string{"people": {"alice"}})
	edges := []valueobjects.Record{
		valueobjects.NewRecord(valueobjects.Field{Name: valueobjects.FieldFrom, Value: "people/alice"}),
		valueobjects.NewRecord(
			valueobjects.Field{Name: valueobjects.FieldFrom, Value: 42},
			valueobjects.Field{Name: valueobjects.FieldTo, Value: "people/alice"},
		),
	}

	got := ValidateEdges(edges, lookup)

	require.Len(t, got, 2)
	assert.Equal(t, UndefinedTableMessage(""), got[0])
	assert.Equal(t, UndefinedTableMessage("42"), got[1])
}

func TestValidateEdges_UndefinedMembershipTable(t *testing.T) {
	lookup := newFakeLookup(map[string][]string{"people": {"alice"}})
	edges := []valueobjects.Record{edge("membership/alice", "people/alice")}

	got := ValidateEdges(edges, lookup)

	assert.Equal(t, Violations{"Reference to undefined table: membership"}, got)
	assert.False(t, got.OK())
}
