// Package persistence holds what the store implementations share: the
// errors they return and decorators that add resilience and telemetry.
package persistence

import (
	"fmt"

	pkgerrors "multinet/pkg/errors"
)

// WorkspaceNotFound is returned by workspace-scoped calls on a missing workspace
func WorkspaceNotFound(workspace string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("workspace '%s'", workspace))
}

// TableNotFound is returned for a missing table
func TableNotFound(workspace, table string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("table '%s' in workspace '%s'", table, workspace))
}

// GraphNotFound is returned for a missing graph definition
func GraphNotFound(workspace, graph string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("graph '%s' in workspace '%s'", graph, workspace))
}

// RecordNotFound is returned for a missing record
func RecordNotFound(table, key string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("record '%s/%s'", table, key))
}

// MissingKey is returned when a record without _key is written
func MissingKey(table string) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("record in table '%s' has no _key", table))
}
