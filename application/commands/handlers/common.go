package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/domain/core/entities"
	"multinet/domain/events"
	pkgerrors "multinet/pkg/errors"
)

// storeError passes AppErrors through and wraps anything else as a
// database failure of op.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(op, err)
}

// requireWorkspace returns NotFound unless the workspace exists
func requireWorkspace(ctx context.Context, repo ports.WorkspaceRepository, workspace string) error {
	ok, err := repo.HasWorkspace(ctx, workspace)
	if err != nil {
		return storeError("has_workspace", err)
	}
	if !ok {
		return pkgerrors.NewNotFoundError("workspace '" + workspace + "'")
	}
	return nil
}

// ensureTable returns the named table, creating it with role if absent.
// A table created concurrently by another request is reused. An existing
// table with a different role is a conflict.
func ensureTable(ctx context.Context, repo ports.TableRepository, workspace, name string, role entities.TableRole) (*entities.Table, error) {
	ok, err := repo.HasTable(ctx, workspace, name)
	if err != nil {
		return nil, storeError("has_table", err)
	}
	if ok {
		return existingTable(ctx, repo, workspace, name, role)
	}

	table, err := entities.NewTable(workspace, name, role)
	if err != nil {
		return nil, err
	}
	if err := repo.CreateTable(ctx, table); err != nil {
		if pkgerrors.IsConflict(err) {
			return existingTable(ctx, repo, workspace, name, role)
		}
		return nil, storeError("create_table", err)
	}
	return table, nil
}

func existingTable(ctx context.Context, repo ports.TableRepository, workspace, name string, role entities.TableRole) (*entities.Table, error) {
	table, err := repo.GetTable(ctx, workspace, name)
	if err != nil {
		return nil, storeError("get_table", err)
	}
	if table.Role != role {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("table '%s' is a %s table, cannot store %s records", name, table.Role, role))
	}
	return table, nil
}

// publish sends events and only logs failures
func publish(ctx context.Context, bus ports.EventPublisher, logger *zap.Logger, evts ...events.DomainEvent) {
	if bus == nil || len(evts) == 0 {
		return
	}
	if err := bus.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish events",
			zap.Int("count", len(evts)),
			zap.String("event_type", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}
