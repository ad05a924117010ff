package commands

import (
	"errors"
	"unicode/utf8"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
	"multinet/pkg/validation"
)

// Suffixes appended to the upload table name for a nested JSON upload
const (
	EdgeTableSuffix         = "_edges"
	InternalNodeTableSuffix = "_internal_nodes"
	LeafNodeTableSuffix     = "_leaf_nodes"
)

// UploadNestedJSONCommand stores a nested JSON tree as an internal-node
// table, a leaf-node table and an edge table derived from Table.
type UploadNestedJSONCommand struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Table     string `json:"table" validate:"required,name"`
	Data      []byte `json:"-"`
}

// Validate checks the command fields and that the derived table names are usable
func (c UploadNestedJSONCommand) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	for _, name := range []string{c.EdgeTable(), c.InternalNodeTable(), c.LeafNodeTable()} {
		if err := valueobjects.ValidateName("table", name); err != nil {
			return err
		}
	}
	return validateBody(c.Data)
}

// EdgeTable returns the name of the edge table
func (c UploadNestedJSONCommand) EdgeTable() string {
	return c.Table + EdgeTableSuffix
}

// InternalNodeTable returns the name of the table for nodes with children
func (c UploadNestedJSONCommand) InternalNodeTable() string {
	return c.Table + InternalNodeTableSuffix
}

// LeafNodeTable returns the name of the table for nodes without children
func (c UploadNestedJSONCommand) LeafNodeTable() string {
	return c.Table + LeafNodeTableSuffix
}

// UploadNestedJSONResult reports how many records went to each table
type UploadNestedJSONResult struct {
	EdgeCount     int `json:"edgecount"`
	IntNodeCount  int `json:"int_nodecount"`
	LeafNodeCount int `json:"leaf_nodecount"`
}

// UploadCSVCommand stores CSV rows into one table. A header containing both
// _from and _to makes it an edge table.
type UploadCSVCommand struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Table     string `json:"table" validate:"required,name"`
	Data      []byte `json:"-"`
}

// Validate checks the command fields
func (c UploadCSVCommand) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return validateBody(c.Data)
}

// UploadCSVResult describes the written table
type UploadCSVResult struct {
	Count int    `json:"count"`
	Table string `json:"table"`
	Type  string `json:"type"`
}

var errInvalidUTF8 = errors.New("body is not valid UTF-8")

func validateBody(data []byte) error {
	if len(data) == 0 {
		return pkgerrors.NewMalformedRequestBody("")
	}
	if !utf8.Valid(data) {
		return pkgerrors.NewDecodeFailed(errInvalidUTF8)
	}
	return nil
}
