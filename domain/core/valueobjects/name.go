package valueobjects

import (
	"fmt"
	"regexp"

	pkgerrors "multinet/pkg/errors"
)

// MaxNameLength bounds workspace, table and graph names.
const MaxNameLength = 256

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateName checks a workspace, table or graph name. kind is used in the
// error message ("workspace", "table", ...).
func ValidateName(kind, name string) error {
	if name == "" {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s name is required", kind))
	}
	if len(name) > MaxNameLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s name exceeds %d characters", kind, MaxNameLength))
	}
	if !namePattern.MatchString(name) {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("%s name %q must start with a letter and contain only letters, digits, '_' or '-'", kind, name))
	}
	return nil
}
