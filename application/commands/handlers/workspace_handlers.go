package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/ports"
	"multinet/domain/events"
	pkgerrors "multinet/pkg/errors"
)

// CreateWorkspaceHandler handles CreateWorkspaceCommand
type CreateWorkspaceHandler struct {
	workspaces ports.WorkspaceRepository
	eventBus   ports.EventPublisher
	logger     *zap.Logger
}

// NewCreateWorkspaceHandler creates a new handler instance
func NewCreateWorkspaceHandler(workspaces ports.WorkspaceRepository, eventBus ports.EventPublisher, logger *zap.Logger) *CreateWorkspaceHandler {
	return &CreateWorkspaceHandler{workspaces: workspaces, eventBus: eventBus, logger: logger}
}

// Handle creates the workspace. An existing workspace is a conflict.
func (h *CreateWorkspaceHandler) Handle(ctx context.Context, cmd commands.CreateWorkspaceCommand) (string, error) {
	ok, err := h.workspaces.HasWorkspace(ctx, cmd.Workspace)
	if err != nil {
		return "", storeError("has_workspace", err)
	}
	if ok {
		return "", pkgerrors.NewAlreadyExists("Workspace", cmd.Workspace)
	}

	if err := h.workspaces.CreateWorkspace(ctx, cmd.Workspace); err != nil {
		return "", storeError("create_workspace", err)
	}

	h.logger.Info("Workspace created", zap.String("workspace", cmd.Workspace))
	publish(ctx, h.eventBus, h.logger, events.NewWorkspaceCreated(cmd.Workspace, time.Now().UTC()))
	return cmd.Workspace, nil
}

// DeleteWorkspaceHandler handles DeleteWorkspaceCommand
type DeleteWorkspaceHandler struct {
	workspaces ports.WorkspaceRepository
	eventBus   ports.EventPublisher
	logger     *zap.Logger
}

// NewDeleteWorkspaceHandler creates a new handler instance
func NewDeleteWorkspaceHandler(workspaces ports.WorkspaceRepository, eventBus ports.EventPublisher, logger *zap.Logger) *DeleteWorkspaceHandler {
	return &DeleteWorkspaceHandler{workspaces: workspaces, eventBus: eventBus, logger: logger}
}

// Handle deletes the workspace with its tables and graphs
func (h *DeleteWorkspaceHandler) Handle(ctx context.Context, cmd commands.DeleteWorkspaceCommand) (string, error) {
	if err := requireWorkspace(ctx, h.workspaces, cmd.Workspace); err != nil {
		return "", err
	}
	if err := h.workspaces.DeleteWorkspace(ctx, cmd.Workspace); err != nil {
		return "", storeError("delete_workspace", err)
	}

	h.logger.Info("Workspace deleted", zap.String("workspace", cmd.Workspace))
	publish(ctx, h.eventBus, h.logger, events.NewWorkspaceDeleted(cmd.Workspace, time.Now().UTC()))
	return cmd.Workspace, nil
}
