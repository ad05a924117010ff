package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/ports"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/domain/events"
	"multinet/domain/services"
	pkgerrors "multinet/pkg/errors"
)

// UploadNestedJSONHandler handles UploadNestedJSONCommand
type UploadNestedJSONHandler struct {
	store    ports.Store
	eventBus ports.EventPublisher
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewUploadNestedJSONHandler creates a new handler instance
func NewUploadNestedJSONHandler(store ports.Store, eventBus ports.EventPublisher, metrics ports.Metrics, logger *zap.Logger) *UploadNestedJSONHandler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UploadNestedJSONHandler{store: store, eventBus: eventBus, metrics: metrics, logger: logger}
}

// Handle flattens the uploaded tree and writes its three tables
func (h *UploadNestedJSONHandler) Handle(ctx context.Context, cmd commands.UploadNestedJSONCommand) (*commands.UploadNestedJSONResult, error) {
	if err := requireWorkspace(ctx, h.store, cmd.Workspace); err != nil {
		return nil, err
	}

	tree, err := services.ParseTree(cmd.Data)
	if err != nil {
		return nil, err
	}

	edgeTable, err := ensureTable(ctx, h.store, cmd.Workspace, cmd.EdgeTable(), entities.RoleEdge)
	if err != nil {
		return nil, err
	}
	internalTable, err := ensureTable(ctx, h.store, cmd.Workspace, cmd.InternalNodeTable(), entities.RoleNode)
	if err != nil {
		return nil, err
	}
	leafTable, err := ensureTable(ctx, h.store, cmd.Workspace, cmd.LeafNodeTable(), entities.RoleNode)
	if err != nil {
		return nil, err
	}

	result := services.FlattenTree(tree, internalTable.Name, leafTable.Name)
	edges := assignKeys(result.Edges)

	writes := []struct {
		table   *entities.Table
		records []valueobjects.Record
	}{
		{edgeTable, edges},
		{internalTable, result.InternalNodes},
		{leafTable, result.LeafNodes},
	}

	now := time.Now().UTC()
	uploaded := make([]events.DomainEvent, 0, len(writes))
	for _, w := range writes {
		if len(w.records) == 0 {
			continue
		}
		n, err := h.store.InsertMany(ctx, cmd.Workspace, w.table.Name, w.records)
		if err != nil {
			return nil, storeError("insert_many", err)
		}
		h.metrics.RecordsIngested(string(w.table.Role), n)
		uploaded = append(uploaded, events.NewTableUploaded(cmd.Workspace, w.table.Name, string(w.table.Role), n, now))
	}

	h.logger.Info("Nested JSON uploaded",
		zap.String("workspace", cmd.Workspace),
		zap.String("table", cmd.Table),
		zap.Int("edges", len(edges)),
		zap.Int("internal_nodes", len(result.InternalNodes)),
		zap.Int("leaf_nodes", len(result.LeafNodes)),
	)
	publish(ctx, h.eventBus, h.logger, uploaded...)

	return &commands.UploadNestedJSONResult{
		EdgeCount:     len(edges),
		IntNodeCount:  len(result.InternalNodes),
		LeafNodeCount: len(result.LeafNodes),
	}, nil
}

// assignKeys gives every record without a _key a random one
func assignKeys(records []valueobjects.Record) []valueobjects.Record {
	for i := range records {
		if _, ok := records[i].Key(); !ok {
			records[i].Set(valueobjects.FieldKey, uuid.NewString())
		}
	}
	return records
}

// UploadCSVHandler handles UploadCSVCommand
type UploadCSVHandler struct {
	store    ports.Store
	eventBus ports.EventPublisher
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewUploadCSVHandler creates a new handler instance
func NewUploadCSVHandler(store ports.Store, eventBus ports.EventPublisher, metrics ports.Metrics, logger *zap.Logger) *UploadCSVHandler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UploadCSVHandler{store: store, eventBus: eventBus, metrics: metrics, logger: logger}
}

// Handle parses the CSV body and writes its rows to the table
func (h *UploadCSVHandler) Handle(ctx context.Context, cmd commands.UploadCSVCommand) (*commands.UploadCSVResult, error) {
	if err := requireWorkspace(ctx, h.store, cmd.Workspace); err != nil {
		return nil, err
	}

	header, records, err := ParseCSV(cmd.Data)
	if err != nil {
		return nil, err
	}

	role := entities.RoleNode
	if hasColumns(header, valueobjects.FieldFrom, valueobjects.FieldTo) {
		role = entities.RoleEdge
	}

	table, err := ensureTable(ctx, h.store, cmd.Workspace, cmd.Table, role)
	if err != nil {
		return nil, err
	}

	records = assignKeys(records)
	for _, rec := range records {
		if err := table.CheckRecord(rec); err != nil {
			return nil, err
		}
	}

	n, err := h.store.InsertMany(ctx, cmd.Workspace, table.Name, records)
	if err != nil {
		return nil, storeError("insert_many", err)
	}
	h.metrics.RecordsIngested(string(table.Role), n)

	h.logger.Info("CSV uploaded",
		zap.String("workspace", cmd.Workspace),
		zap.String("table", table.Name),
		zap.String("role", string(table.Role)),
		zap.Int("rows", n),
	)
	publish(ctx, h.eventBus, h.logger,
		events.NewTableUploaded(cmd.Workspace, table.Name, string(table.Role), n, time.Now().UTC()))

	return &commands.UploadCSVResult{Count: n, Table: table.Name, Type: string(table.Role)}, nil
}

// ParseCSV reads a header row followed by data rows. Each row becomes a
// record with string values in header order. A row shorter or longer than
// the header is rejected.
func ParseCSV(data []byte) ([]string, []valueobjects.Record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, pkgerrors.NewMalformedRequestBody("")
		}
		return nil, nil, pkgerrors.NewDecodeFailed(err)
	}

	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if col == "" || seen[col] {
			return nil, nil, pkgerrors.NewValidationError("CSV header has an empty or repeated column: '" + col + "'")
		}
		seen[col] = true
	}

	var records []valueobjects.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, pkgerrors.NewDecodeFailed(err)
		}

		fields := make([]valueobjects.Field, len(header))
		for i, col := range header {
			fields[i] = valueobjects.Field{Name: col, Value: row[i]}
		}
		records = append(records, valueobjects.NewRecord(fields...))
	}
	return header, records, nil
}

func hasColumns(header []string, names ...string) bool {
	for _, name := range names {
		found := false
		for _, col := range header {
			if col == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
