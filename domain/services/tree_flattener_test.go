package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

func keysOf(t *testing.T, records []valueobjects.Record) []string {
	t.Helper()
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		key, ok := rec.Key()
		require.True(t, ok, "record without _key: %v", rec.ToMap())
		keys = append(keys, key)
	}
	return keys
}

func endpoints(t *testing.T, edges []valueobjects.Record) [][2]string {
	t.Helper()
	out := make([][2]string, 0, len(edges))
	for _, edge := range edges {
		from, ok := edge.GetString(valueobjects.FieldFrom)
		require.True(t, ok)
		to, ok := edge.GetString(valueobjects.FieldTo)
		require.True(t, ok)
		out = append(out, [2]string{from, to})
	}
	return out
}

func leaf(fields ...valueobjects.Field) Branch {
	return Branch{Tree: Tree{NodeData: valueobjects.NewRecord(fields...)}}
}

func TestFlattenTree_EmptyTree(t *testing.T) {
	result := FlattenTree(&Tree{}, "T_int", "T_leaf")

	assert.Empty(t, result.InternalNodes)
	assert.Empty(t, result.Edges)
	require.Len(t, result.LeafNodes, 1)
	assert.Equal(t, []string{"100"}, keysOf(t, result.LeafNodes))
}

func TestFlattenTree_NilTreeIsEmpty(t *testing.T) {
	result := FlattenTree(nil, "T_int", "T_leaf")

	assert.Equal(t, []string{"100"}, keysOf(t, result.LeafNodes))
	assert.Empty(t, result.Edges)
}

func TestFlattenTree_RootWithOneChild(t *testing.T) {
	tree := &Tree{Children: []Branch{leaf()}}

	result := FlattenTree(tree, "T_int", "T_leaf")

	require.Len(t, result.InternalNodes, 1)
	require.Len(t, result.LeafNodes, 1)
	require.Len(t, result.Edges, 1)

	rootKey := keysOf(t, result.InternalNodes)[0]
	childKey := keysOf(t, result.LeafNodes)[0]
	assert.Equal(t, [][2]string{{"T_leaf/" + childKey, "T_int/" + rootKey}}, endpoints(t, result.Edges))
}

func TestFlattenTree_SiblingEdgesBeforeDescent(t *testing.T) {
	// root
	// ├── a
	// │   └── c
	// └── b
	tree := &Tree{
		NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "name", Value: "root"}),
		Children: []Branch{
			{Tree: Tree{
				NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "name", Value: "a"}),
				Children: []Branch{leaf(valueobjects.Field{Name: "name", Value: "c"})},
			}},
			leaf(valueobjects.Field{Name: "name", Value: "b"}),
		},
	}

	result := FlattenTree(tree, "T_int", "T_leaf")

	assert.Equal(t, []string{"100", "101"}, keysOf(t, result.InternalNodes))
	assert.Equal(t, []string{"103", "102"}, keysOf(t, result.LeafNodes))
	assert.Equal(t, [][2]string{
		{"T_int/101", "T_int/100"},
		{"T_leaf/102", "T_int/100"},
		{"T_leaf/103", "T_int/101"},
	}, endpoints(t, result.Edges))

	name, _ := result.LeafNodes[0].GetString("name")
	assert.Equal(t, "c", name)
}

func TestFlattenTree_Counts(t *testing.T) {
	tree := &Tree{Children: []Branch{
		{Tree: Tree{Children: []Branch{leaf(), leaf(), leaf()}}},
		{Tree: Tree{Children: []Branch{
			{Tree: Tree{Children: []Branch{leaf()}}},
		}}},
		leaf(),
	}}

	result := FlattenTree(tree, "i", "l")

	size := tree.Size()
	assert.Equal(t, 9, size)
	assert.Equal(t, size, len(result.InternalNodes)+len(result.LeafNodes))
	assert.Len(t, result.Edges, size-1)
	assert.Len(t, result.InternalNodes, 4)
	assert.Len(t, result.LeafNodes, 5)

	seen := make(map[string]bool)
	for _, key := range append(keysOf(t, result.InternalNodes), keysOf(t, result.LeafNodes)...) {
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestFlattenTree_Keys(t *testing.T) {
	tests := []struct {
		name     string
		tree     *Tree
		wantKeys []string // internal nodes first, then leaves
	}{
		{
			name: "supplied string keys are kept",
			tree: &Tree{
				NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "_key", Value: "root"}),
				Children: []Branch{leaf(valueobjects.Field{Name: "_key", Value: "kid"})},
			},
			wantKeys: []string{"root", "kid"},
		},
		{
			name: "numeric keys become text",
			tree: &Tree{
				NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "_key", Value: json.Number("7")}),
				Children: []Branch{leaf(valueobjects.Field{Name: "_key", Value: 8})},
			},
			wantKeys: []string{"7", "8"},
		},
		{
			name: "generated keys skip supplied ones",
			tree: &Tree{
				NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "_key", Value: "101"}),
				Children: []Branch{leaf(), leaf()},
			},
			wantKeys: []string{"101", "100", "102"},
		},
		{
			name: "empty key is replaced",
			tree: &Tree{
				NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "_key", Value: ""}),
			},
			wantKeys: []string{"100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FlattenTree(tt.tree, "i", "l")

			got := append(keysOf(t, result.InternalNodes), keysOf(t, result.LeafNodes)...)
			assert.Equal(t, tt.wantKeys, got)
			for _, rec := range append(result.InternalNodes, result.LeafNodes...) {
				_, isString := rec.GetString(valueobjects.FieldKey)
				assert.True(t, isString)
			}
		})
	}
}

func TestFlattenTree_EdgeDataCopied(t *testing.T) {
	edgeData := valueobjects.NewRecord(
		valueobjects.Field{Name: "weight", Value: json.Number("3")},
		valueobjects.Field{Name: "_to", Value: "ignored/x"},
	)
	child := Branch{EdgeData: edgeData, Tree: Tree{NodeData: valueobjects.NewRecord(valueobjects.Field{Name: "label", Value: "x"})}}
	tree := &Tree{Children: []Branch{child}}

	result := FlattenTree(tree, "T_int", "T_leaf")

	require.Len(t, result.Edges, 1)
	edge := result.Edges[0]
	weight, ok := edge.Get("weight")
	require.True(t, ok)
	assert.Equal(t, json.Number("3"), weight)
	to, _ := edge.GetString(valueobjects.FieldTo)
	assert.Equal(t, "T_int/100", to)

	// caller data is untouched
	assert.Equal(t, 2, edgeData.Len())
	orig, _ := edgeData.GetString(valueobjects.FieldTo)
	assert.Equal(t, "ignored/x", orig)
	assert.False(t, tree.NodeData.Has(valueobjects.FieldKey))
	assert.False(t, tree.Children[0].NodeData.Has(valueobjects.FieldKey))
	assert.False(t, tree.Children[0].EdgeData.Has(valueobjects.FieldFrom))
}

func TestFlattenTree_RunsAreIndependent(t *testing.T) {
	tree := &Tree{Children: []Branch{leaf(), leaf()}}

	first := FlattenTree(tree, "i", "l")
	second := FlattenTree(tree, "i", "l")

	assert.Equal(t, keysOf(t, first.LeafNodes), keysOf(t, second.LeafNodes))
	assert.Equal(t, endpoints(t, first.Edges), endpoints(t, second.Edges))
}

func TestFlattenTreeFrom_ThreadsCounter(t *testing.T) {
	tree := &Tree{Children: []Branch{leaf()}}

	first, next := FlattenTreeFrom(tree, "i", "l", 500)
	assert.Equal(t, []string{"500"}, keysOf(t, first.InternalNodes))
	assert.Equal(t, 502, next)

	second, next := FlattenTreeFrom(tree, "i", "l", next)
	assert.Equal(t, []string{"502"}, keysOf(t, second.InternalNodes))
	assert.Equal(t, []string{"503"}, keysOf(t, second.LeafNodes))
	assert.Equal(t, 504, next)
}

func TestParseTree(t *testing.T) {
	doc := `{
		"node_data": {"name": "root", "size": 10},
		"children": [
			{"node_data": {"name": "a"}, "edge_data": {"kind": "contains"}, "children": [
				{"node_data": {"name": "a1"}}
			]},
			{"node_data": {"_key": "b", "name": "b"}}
		]
	}`

	tree, err := ParseTree([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Size())

	result := FlattenTree(tree, "tree_internal_nodes", "tree_leaf_nodes")

	assert.Equal(t, []string{"100", "101"}, keysOf(t, result.InternalNodes))
	assert.Equal(t, []string{"102", "b"}, keysOf(t, result.LeafNodes))
	assert.Equal(t, [][2]string{
		{"tree_internal_nodes/101", "tree_internal_nodes/100"},
		{"tree_leaf_nodes/b", "tree_internal_nodes/100"},
		{"tree_leaf_nodes/102", "tree_internal_nodes/101"},
	}, endpoints(t, result.Edges))

	kind, _ := result.Edges[0].GetString("kind")
	assert.Equal(t, "contains", kind)

	// field order of node data survives, with _key appended
	names := make([]string, 0)
	for _, f := range result.InternalNodes[0].Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "size", "_key"}, names)
}

func TestParseTree_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{"node_data":`},
		{name: "node data not object", doc: `{"node_data": [1, 2]}`},
		{name: "children not list", doc: `{"children": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseTree([]byte(tt.doc))
			assert.Error(t, err)
			assert.Nil(t, tree)
		})
	}
}

func TestParseTree_SuppliedKeys(t *testing.T) {
	tree, err := ParseTree([]byte(`{"node_data": {"_key": 7}, "children": [{"node_data": {"_key": "x"}}]}`))
	require.NoError(t, err)

	result := FlattenTree(tree, "t_internal_nodes", "t_leaf_nodes")
	assert.Equal(t, []string{"7"}, keysOf(t, result.InternalNodes))
	assert.Equal(t, []string{"x"}, keysOf(t, result.LeafNodes))

	tests := []struct {
		name string
		doc  string
	}{
		{name: "boolean root key", doc: `{"node_data": {"_key": true}}`},
		{name: "null key", doc: `{"node_data": {"_key": null}}`},
		{name: "empty key", doc: `{"node_data": {"_key": ""}}`},
		{name: "object key in a child", doc: `{"children": [{"node_data": {"_key": {"id": 1}}}]}`},
		{name: "list key in edge data", doc: `{"children": [{"edge_data": {"_key": [1]}}]}`},
		{name: "deep child", doc: `{"children": [{"children": [{"node_data": {"_key": false}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseTree([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, tree)
			assert.True(t, pkgerrors.IsValidation(err), err.Error())
			assert.Contains(t, err.Error(), "_key")
		})
	}
}
