package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// DefaultKeySeed is the first key handed out when a tree node has no _key.
const DefaultKeySeed = 100

// Tree is one level of a nested hierarchical document.
type Tree struct {
	NodeData valueobjects.Record `json:"node_data"`
	Children []Branch            `json:"children,omitempty"`
}

// Branch is a child subtree together with the extra fields for the edge
// that connects it to its parent.
type Branch struct {
	EdgeData valueobjects.Record `json:"edge_data"`
	Tree
}

// IsInternal reports whether the node has at least one child.
func (t *Tree) IsInternal() bool {
	return len(t.Children) > 0
}

// Size returns the number of tree nodes, including t.
func (t *Tree) Size() int {
	n := 1
	for i := range t.Children {
		n += t.Children[i].Size()
	}
	return n
}

// ParseTree decodes a nested JSON document. Missing node_data and children
// default to an empty record and no children.
func ParseTree(data []byte) (*Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, pkgerrors.NewDecodeFailed(err)
	}
	if err := tree.checkKeys(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// checkKeys rejects a supplied _key that cannot name a record: anything but
// a non-empty string or a number.
func (t *Tree) checkKeys() error {
	if err := checkKey("node_data", t.NodeData); err != nil {
		return err
	}
	for i := range t.Children {
		if err := checkKey("edge_data", t.Children[i].EdgeData); err != nil {
			return err
		}
		if err := t.Children[i].checkKeys(); err != nil {
			return err
		}
	}
	return nil
}

func checkKey(section string, rec valueobjects.Record) error {
	raw, present := rec.Get(valueobjects.FieldKey)
	if !present {
		return nil
	}
	if _, ok := rec.Key(); !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf(
			"%s.%s must be a non-empty string or number, got %v", section, valueobjects.FieldKey, raw))
	}
	return nil
}

// FlattenResult holds the three record sets produced from one tree.
type FlattenResult struct {
	InternalNodes []valueobjects.Record
	LeafNodes     []valueobjects.Record
	Edges         []valueobjects.Record
}

// FlattenTree converts tree into internal-node, leaf-node and edge records.
// Every edge points from a child (in the internal or leaf table, depending on
// whether it has children) to its parent in the internal table. Nodes without
// a _key get one from a counter starting at DefaultKeySeed; the counter lives
// only for this call.
func FlattenTree(tree *Tree, internalTable, leafTable string) FlattenResult {
	result, _ := FlattenTreeFrom(tree, internalTable, leafTable, DefaultKeySeed)
	return result
}

// FlattenTreeFrom is FlattenTree with an explicit counter seed. It returns
// the next unused counter value so callers can chain runs without collisions.
func FlattenTreeFrom(tree *Tree, internalTable, leafTable string, seed int) (FlattenResult, int) {
	f := &flattener{
		internalTable: internalTable,
		leafTable:     leafTable,
		keys:          newKeyCounter(seed),
		result: FlattenResult{
			InternalNodes: []valueobjects.Record{},
			LeafNodes:     []valueobjects.Record{},
			Edges:         []valueobjects.Record{},
		},
	}
	if tree == nil {
		tree = &Tree{}
	}

	root := f.keys.keyed(tree.NodeData)
	f.walk(tree, root)
	return f.result, f.keys.next
}

type flattener struct {
	internalTable string
	leafTable     string
	keys          *keyCounter
	result        FlattenResult
}

// walk records node (already keyed as rec), then emits the edges for all of
// its children before descending into any of them.
func (f *flattener) walk(node *Tree, rec valueobjects.Record) {
	if node.IsInternal() {
		f.result.InternalNodes = append(f.result.InternalNodes, rec)
	} else {
		f.result.LeafNodes = append(f.result.LeafNodes, rec)
	}

	parentKey, _ := rec.Key()
	keyedChildren := make([]valueobjects.Record, len(node.Children))

	for i := range node.Children {
		child := &node.Children[i]
		childRec := f.keys.keyed(child.NodeData)
		keyedChildren[i] = childRec
		childKey, _ := childRec.Key()

		childTable := f.leafTable
		if child.IsInternal() {
			childTable = f.internalTable
		}

		edge := child.EdgeData.Clone()
		edge.Set(valueobjects.FieldFrom, valueobjects.NewReference(childTable, childKey).String())
		edge.Set(valueobjects.FieldTo, valueobjects.NewReference(f.internalTable, parentKey).String())
		f.result.Edges = append(f.result.Edges, edge)
	}

	for i := range node.Children {
		f.walk(&node.Children[i].Tree, keyedChildren[i])
	}
}

// keyCounter hands out synthetic keys for one flattening run and remembers
// every key seen so generated keys never repeat one already used.
type keyCounter struct {
	next int
	seen map[string]struct{}
}

func newKeyCounter(seed int) *keyCounter {
	return &keyCounter{next: seed, seen: make(map[string]struct{})}
}

// keyed returns a copy of rec that carries a string _key.
func (c *keyCounter) keyed(rec valueobjects.Record) valueobjects.Record {
	out := rec.Clone()
	if key, ok := out.Key(); ok {
		out.Set(valueobjects.FieldKey, key)
		c.seen[key] = struct{}{}
		return out
	}

	key := c.generate()
	out.Set(valueobjects.FieldKey, key)
	return out
}

func (c *keyCounter) generate() string {
	for {
		key := strconv.Itoa(c.next)
		c.next++
		if _, taken := c.seen[key]; !taken {
			c.seen[key] = struct{}{}
			return key
		}
	}
}
