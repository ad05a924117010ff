package handlers

import (
	"context"

	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/valueobjects"
	"multinet/domain/events"
	"multinet/domain/services"
	pkgerrors "multinet/pkg/errors"
)

// CreateGraphHandler handles CreateGraphCommand
type CreateGraphHandler struct {
	store    ports.Store
	eventBus ports.EventPublisher
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewCreateGraphHandler creates a new handler instance
func NewCreateGraphHandler(store ports.Store, eventBus ports.EventPublisher, metrics ports.Metrics, logger *zap.Logger) *CreateGraphHandler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CreateGraphHandler{store: store, eventBus: eventBus, metrics: metrics, logger: logger}
}

// Handle checks the edge table against every table in the workspace and
// stores the graph definition only when all edges resolve. A graph name that
// is already defined is rejected before any validation work.
func (h *CreateGraphHandler) Handle(ctx context.Context, cmd commands.CreateGraphCommand) (*commands.CreateGraphResult, error) {
	if err := requireWorkspace(ctx, h.store, cmd.Workspace); err != nil {
		return nil, err
	}

	exists, err := h.store.HasGraph(ctx, cmd.Workspace, cmd.Graph)
	if err != nil {
		return nil, storeError("has_graph", err)
	}
	if exists {
		return nil, pkgerrors.NewAlreadyExists("Graph", cmd.Graph)
	}

	definition, err := aggregates.NewGraphDefinition(cmd.Workspace, cmd.Graph, cmd.NodeTables, cmd.EdgeTable)
	if err != nil {
		return nil, err
	}

	edgeTable, err := h.store.GetTable(ctx, cmd.Workspace, cmd.EdgeTable)
	if err != nil {
		return nil, storeError("get_table", err)
	}
	if !edgeTable.IsEdge() {
		return nil, pkgerrors.NewValidationError("Table '" + cmd.EdgeTable + "' is not an edge table")
	}

	tables, err := h.store.ListTables(ctx, cmd.Workspace)
	if err != nil {
		return nil, storeError("list_tables", err)
	}

	edges, err := h.store.All(ctx, cmd.Workspace, cmd.EdgeTable)
	if err != nil {
		return nil, storeError("all", err)
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	lookup := newStoreLookup(ctx, h.store, cmd.Workspace, names)

	violations := services.ValidateEdges(edges, lookup)
	if lookup.err != nil {
		return nil, storeError("keys_of", lookup.err)
	}

	h.metrics.GraphValidation(violations.OK(), len(violations))
	if !violations.OK() {
		h.logger.Info("Graph rejected by integrity check",
			zap.String("workspace", cmd.Workspace),
			zap.String("graph", cmd.Graph),
			zap.String("edge_table", cmd.EdgeTable),
			zap.Int("violations", len(violations)),
		)
		return nil, pkgerrors.NewValidationFailed(violations)
	}

	if err := h.store.DefineGraph(ctx, definition); err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, pkgerrors.NewAlreadyExists("Graph", cmd.Graph)
		}
		return nil, storeError("define_graph", err)
	}

	h.logger.Info("Graph created",
		zap.String("workspace", cmd.Workspace),
		zap.String("graph", cmd.Graph),
		zap.Strings("node_tables", definition.NodeTables()),
		zap.String("edge_table", definition.EdgeTable()),
		zap.Int("edges", len(edges)),
	)
	publish(ctx, h.eventBus, h.logger, events.NewGraphCreated(
		cmd.Workspace, cmd.Graph, definition.NodeTables(), definition.EdgeTable(), definition.CreatedAt()))

	return &commands.CreateGraphResult{
		Workspace:  cmd.Workspace,
		Graph:      cmd.Graph,
		NodeTables: definition.NodeTables(),
		EdgeTable:  definition.EdgeTable(),
	}, nil
}

// storeLookup answers integrity-check questions from the store. Table
// existence comes from one listing; keys are loaded once per table. The
// first storage failure is kept and later lookups return empty results.
type storeLookup struct {
	ctx       context.Context
	tables    ports.TableRepository
	workspace string
	existing  valueobjects.KeySet
	err       error
}

func newStoreLookup(ctx context.Context, tables ports.TableRepository, workspace string, names []string) *storeLookup {
	return &storeLookup{
		ctx:       ctx,
		tables:    tables,
		workspace: workspace,
		existing:  valueobjects.NewKeySet(names...),
	}
}

func (l *storeLookup) Exists(table string) bool {
	return l.existing.Has(table)
}

func (l *storeLookup) KeysOf(table string) valueobjects.KeySet {
	if l.err != nil {
		return valueobjects.NewKeySet()
	}
	keys, err := l.tables.KeysOf(l.ctx, l.workspace, table)
	if err != nil {
		l.err = err
		return valueobjects.NewKeySet()
	}
	return keys
}

var _ services.TableLookup = (*storeLookup)(nil)
