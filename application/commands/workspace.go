package commands

import "multinet/pkg/validation"

// CreateWorkspaceCommand creates an empty workspace
type CreateWorkspaceCommand struct {
	Workspace string `json:"workspace" validate:"required,name"`
}

// Validate checks the command fields
func (c CreateWorkspaceCommand) Validate() error {
	return validation.Struct(c)
}

// DeleteWorkspaceCommand removes a workspace and everything in it
type DeleteWorkspaceCommand struct {
	Workspace string `json:"workspace" validate:"required,name"`
}

// Validate checks the command fields
func (c DeleteWorkspaceCommand) Validate() error {
	return validation.Struct(c)
}
