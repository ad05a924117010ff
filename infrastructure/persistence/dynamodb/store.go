// Package dynamodb implements ports.Store on a single DynamoDB table.
//
// Key layout:
//
//	PK=WORKSPACES                   SK=WORKSPACE#<ws>   workspace marker
//	PK=WORKSPACE#<ws>               SK=TABLE#<name>     table descriptor
//	PK=WORKSPACE#<ws>               SK=GRAPH#<name>     graph definition
//	PK=WORKSPACE#<ws>#TABLE#<name>  SK=KEY#<key>        record document
//
// Records carry a Seq attribute so reads return them in insertion order.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/infrastructure/persistence"
	pkgerrors "multinet/pkg/errors"
)

const (
	workspacesPK = "WORKSPACES"

	prefixWorkspace = "WORKSPACE#"
	prefixTable     = "TABLE#"
	prefixGraph     = "GRAPH#"
	prefixKey       = "KEY#"

	entityWorkspace = "Workspace"
	entityTable     = "Table"
	entityGraph     = "Graph"
	entityRecord    = "Record"

	// BatchWriteItem accepts at most 25 requests
	maxBatchSize = 25
	maxRetries   = 5
)

// Client is the subset of the DynamoDB API the store uses
type Client interface {
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *awsdynamodb.BatchWriteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error)
}

var _ Client = (*awsdynamodb.Client)(nil)

type workspaceItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Name       string `dynamodbav:"Name"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

type tableItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Name       string `dynamodbav:"Name"`
	Role       string `dynamodbav:"Role"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

type graphItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	Name       string   `dynamodbav:"Name"`
	NodeTables []string `dynamodbav:"NodeTables"`
	EdgeTable  string   `dynamodbav:"EdgeTable"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
}

type recordItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Key        string `dynamodbav:"Key"`
	Seq        int64  `dynamodbav:"Seq"`
	Doc        string `dynamodbav:"Doc"`
}

// Store implements ports.Store on DynamoDB
type Store struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a store over the given DynamoDB table
func NewStore(client Client, tableName string, logger *zap.Logger) *Store {
	return &Store{client: client, tableName: tableName, logger: logger}
}

func workspacePK(ws string) string     { return prefixWorkspace + ws }
func recordPK(ws, table string) string { return prefixWorkspace + ws + "#" + prefixTable + table }

func stringKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// CreateWorkspace creates an empty workspace
func (s *Store) CreateWorkspace(ctx context.Context, name string) error {
	item := workspaceItem{
		PK:         workspacesPK,
		SK:         prefixWorkspace + name,
		EntityType: entityWorkspace,
		Name:       name,
		CreatedAt:  formatTime(time.Now()),
	}
	err := s.putNew(ctx, "create_workspace", item)
	if errors.Is(err, errItemExists) {
		return pkgerrors.NewAlreadyExists("Workspace", name)
	}
	return err
}

// DeleteWorkspace removes a workspace with its tables, records and graphs
func (s *Store) DeleteWorkspace(ctx context.Context, name string) error {
	if err := s.requireWorkspace(ctx, name); err != nil {
		return err
	}

	meta, err := s.query(ctx, "delete_workspace", workspacePK(name), "")
	if err != nil {
		return err
	}

	var keys []map[string]types.AttributeValue
	for _, item := range meta {
		var head struct {
			PK         string `dynamodbav:"PK"`
			SK         string `dynamodbav:"SK"`
			EntityType string `dynamodbav:"EntityType"`
			Name       string `dynamodbav:"Name"`
		}
		if err := attributevalue.UnmarshalMap(item, &head); err != nil {
			return pkgerrors.NewDatabaseError("delete_workspace", err)
		}
		if head.EntityType == entityTable {
			records, err := s.query(ctx, "delete_workspace", recordPK(name, head.Name), "")
			if err != nil {
				return err
			}
			for _, rec := range records {
				keys = append(keys, map[string]types.AttributeValue{"PK": rec["PK"], "SK": rec["SK"]})
			}
		}
		keys = append(keys, stringKey(head.PK, head.SK))
	}

	requests := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}
	if err := s.batchWrite(ctx, "delete_workspace", requests); err != nil {
		return err
	}

	if _, err := s.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       stringKey(workspacesPK, prefixWorkspace+name),
	}); err != nil {
		return s.classify("delete_workspace", err)
	}

	s.logger.Debug("Workspace deleted",
		zap.String("workspace", name),
		zap.Int("items", len(keys)+1),
	)
	return nil
}

// HasWorkspace reports whether the workspace exists
func (s *Store) HasWorkspace(ctx context.Context, name string) (bool, error) {
	item, err := s.get(ctx, "has_workspace", workspacesPK, prefixWorkspace+name)
	return item != nil, err
}

// ListWorkspaces returns workspace names in ascending order
func (s *Store) ListWorkspaces(ctx context.Context) ([]string, error) {
	items, err := s.query(ctx, "list_workspaces", workspacesPK, prefixWorkspace)
	if err != nil {
		return nil, err
	}
	return names(items, prefixWorkspace), nil
}

// HasTable reports whether the table exists
func (s *Store) HasTable(ctx context.Context, ws, name string) (bool, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return false, err
	}
	item, err := s.get(ctx, "has_table", workspacePK(ws), prefixTable+name)
	return item != nil, err
}

// CreateTable creates an empty table
func (s *Store) CreateTable(ctx context.Context, t *entities.Table) error {
	if err := s.requireWorkspace(ctx, t.Workspace); err != nil {
		return err
	}
	item := tableItem{
		PK:         workspacePK(t.Workspace),
		SK:         prefixTable + t.Name,
		EntityType: entityTable,
		Name:       t.Name,
		Role:       string(t.Role),
		CreatedAt:  formatTime(t.CreatedAt),
	}
	err := s.putNew(ctx, "create_table", item)
	if errors.Is(err, errItemExists) {
		return pkgerrors.NewAlreadyExists("Table", t.Name)
	}
	return err
}

// GetTable returns the table descriptor
func (s *Store) GetTable(ctx context.Context, ws, name string) (*entities.Table, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	item, err := s.get(ctx, "get_table", workspacePK(ws), prefixTable+name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, persistence.TableNotFound(ws, name)
	}
	return toTable(ws, item)
}

// ListTables returns every table ordered by name
func (s *Store) ListTables(ctx context.Context, ws string) ([]*entities.Table, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	items, err := s.query(ctx, "list_tables", workspacePK(ws), prefixTable)
	if err != nil {
		return nil, err
	}

	tables := make([]*entities.Table, 0, len(items))
	for _, item := range items {
		t, err := toTable(ws, item)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

// InsertMany upserts records by _key. A replaced record keeps its sequence
// number and therefore its position.
func (s *Store) InsertMany(ctx context.Context, ws, name string, records []valueobjects.Record) (int, error) {
	for _, rec := range records {
		if _, ok := rec.Key(); !ok {
			return 0, persistence.MissingKey(name)
		}
	}
	if err := s.requireTable(ctx, ws, name); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	existing, err := s.loadRecords(ctx, "insert_many", ws, name)
	if err != nil {
		return 0, err
	}
	seqs := make(map[string]int64, len(existing))
	var next int64
	for _, item := range existing {
		seqs[item.Key] = item.Seq
		if item.Seq >= next {
			next = item.Seq + 1
		}
	}

	// a key repeated within one call is written once, with its last value
	pending := make(map[string]int, len(records))
	requests := make([]types.WriteRequest, 0, len(records))
	for _, rec := range records {
		key, _ := rec.Key()
		seq, ok := seqs[key]
		if !ok {
			seq = next
			seqs[key] = seq
			next++
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return 0, pkgerrors.NewValidationError(fmt.Sprintf("record %s/%s cannot be encoded: %v", name, key, err))
		}
		av, err := attributevalue.MarshalMap(recordItem{
			PK:         recordPK(ws, name),
			SK:         prefixKey + key,
			EntityType: entityRecord,
			Key:        key,
			Seq:        seq,
			Doc:        string(doc),
		})
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("insert_many", err)
		}
		req := types.WriteRequest{PutRequest: &types.PutRequest{Item: av}}
		if i, dup := pending[key]; dup {
			requests[i] = req
			continue
		}
		pending[key] = len(requests)
		requests = append(requests, req)
	}

	if err := s.batchWrite(ctx, "insert_many", requests); err != nil {
		return 0, err
	}

	s.logger.Debug("Records written",
		zap.String("workspace", ws),
		zap.String("table", name),
		zap.Int("count", len(records)),
	)
	return len(records), nil
}

// All returns every record in insertion order
func (s *Store) All(ctx context.Context, ws, name string) ([]valueobjects.Record, error) {
	rows, _, err := s.Rows(ctx, ws, name, ports.Page{})
	return rows, err
}

// Rows returns one page of records and the total count
func (s *Store) Rows(ctx context.Context, ws, name string, page ports.Page) ([]valueobjects.Record, int, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return nil, 0, err
	}
	items, err := s.loadRecords(ctx, "rows", ws, name)
	if err != nil {
		return nil, 0, err
	}

	start, end := page.Window(len(items))
	rows := make([]valueobjects.Record, 0, end-start)
	for _, item := range items[start:end] {
		rec, err := decodeRecord(item.Doc)
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, rec)
	}
	return rows, len(items), nil
}

// GetRecord returns the record with the given key
func (s *Store) GetRecord(ctx context.Context, ws, name, key string) (valueobjects.Record, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return valueobjects.Record{}, err
	}
	item, err := s.get(ctx, "get_record", recordPK(ws, name), prefixKey+key)
	if err != nil {
		return valueobjects.Record{}, err
	}
	if item == nil {
		return valueobjects.Record{}, persistence.RecordNotFound(name, key)
	}

	var rec recordItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return valueobjects.Record{}, pkgerrors.NewDatabaseError("get_record", err)
	}
	return decodeRecord(rec.Doc)
}

// KeysOf returns every key in the table
func (s *Store) KeysOf(ctx context.Context, ws, name string) (valueobjects.KeySet, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return nil, err
	}
	items, err := s.query(ctx, "keys_of", recordPK(ws, name), prefixKey)
	if err != nil {
		return nil, err
	}
	keys := valueobjects.NewKeySet()
	for _, item := range items {
		if sk, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			keys.Add(strings.TrimPrefix(sk.Value, prefixKey))
		}
	}
	return keys, nil
}

// HasGraph reports whether the graph is defined
func (s *Store) HasGraph(ctx context.Context, ws, name string) (bool, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return false, err
	}
	item, err := s.get(ctx, "has_graph", workspacePK(ws), prefixGraph+name)
	return item != nil, err
}

// DefineGraph stores a new graph definition. The put is conditional on the
// item not existing, so concurrent definitions of one name leave one winner.
func (s *Store) DefineGraph(ctx context.Context, graph *aggregates.GraphDefinition) error {
	if err := s.requireWorkspace(ctx, graph.Workspace()); err != nil {
		return err
	}
	item := graphItem{
		PK:         workspacePK(graph.Workspace()),
		SK:         prefixGraph + graph.Name(),
		EntityType: entityGraph,
		Name:       graph.Name(),
		NodeTables: graph.NodeTables(),
		EdgeTable:  graph.EdgeTable(),
		CreatedAt:  formatTime(graph.CreatedAt()),
	}
	err := s.putNew(ctx, "define_graph", item)
	if errors.Is(err, errItemExists) {
		return pkgerrors.NewAlreadyExists("Graph", graph.Name())
	}
	return err
}

// GetGraph returns a graph definition
func (s *Store) GetGraph(ctx context.Context, ws, name string) (*aggregates.GraphDefinition, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	item, err := s.get(ctx, "get_graph", workspacePK(ws), prefixGraph+name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, persistence.GraphNotFound(ws, name)
	}

	var g graphItem
	if err := attributevalue.UnmarshalMap(item, &g); err != nil {
		return nil, pkgerrors.NewDatabaseError("get_graph", err)
	}
	created, err := parseTime(g.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_graph", err)
	}
	return aggregates.RestoreGraphDefinition(ws, g.Name, g.NodeTables, g.EdgeTable, created), nil
}

// ListGraphs returns graph names in ascending order
func (s *Store) ListGraphs(ctx context.Context, ws string) ([]string, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	items, err := s.query(ctx, "list_graphs", workspacePK(ws), prefixGraph)
	if err != nil {
		return nil, err
	}
	return names(items, prefixGraph), nil
}

// Ping describes the backing table
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return pkgerrors.NewDatabaseNotLive(err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (s *Store) Close() error { return nil }

var errItemExists = errors.New("item already exists")

// putNew writes v only when no item with the same key exists
func (s *Store) putNew(ctx context.Context, op string, v interface{}) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}

	condition := expression.Name("PK").AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}

	_, err = s.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return errItemExists
		}
		return s.classify(op, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, op, pk, sk string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            stringKey(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.classify(op, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// query reads a whole partition, optionally narrowed to a sort key prefix,
// following LastEvaluatedKey until the partition is exhausted.
func (s *Store) query(ctx context.Context, op, pk, skPrefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError(op, err)
	}

	input := &awsdynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, s.classify(op, err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// loadRecords returns a table's record items ordered by sequence number
func (s *Store) loadRecords(ctx context.Context, op, ws, name string) ([]recordItem, error) {
	items, err := s.query(ctx, op, recordPK(ws, name), prefixKey)
	if err != nil {
		return nil, err
	}
	var records []recordItem
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, pkgerrors.NewDatabaseError(op, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

// batchWrite sends requests in chunks of 25, retrying unprocessed items with
// backoff.
func (s *Store) batchWrite(ctx context.Context, op string, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(requests) {
			end = len(requests)
		}

		unprocessed := requests[start:end]
		var lastErr error
		for retry := 0; retry < maxRetries && len(unprocessed) > 0; retry++ {
			if retry > 0 {
				backoff := time.Duration(retry*retry) * 50 * time.Millisecond
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
			}

			out, err := s.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.tableName: unprocessed},
			})
			if err != nil {
				lastErr = err
				s.logger.Warn("Batch write failed, retrying",
					zap.String("operation", op),
					zap.Int("retry", retry+1),
					zap.Error(err),
				)
				continue
			}
			lastErr = nil
			unprocessed = out.UnprocessedItems[s.tableName]
			if len(unprocessed) > 0 {
				s.logger.Debug("Found unprocessed items, retrying",
					zap.String("operation", op),
					zap.Int("unprocessed", len(unprocessed)),
				)
			}
		}

		if lastErr != nil {
			return s.classify(op, lastErr)
		}
		if len(unprocessed) > 0 {
			return pkgerrors.NewDatabaseError(op,
				fmt.Errorf("%d items unprocessed after %d retries", len(unprocessed), maxRetries))
		}
	}
	return nil
}

// classify maps DynamoDB API errors onto application errors
func (s *Store) classify(op string, err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return pkgerrors.NewDatabaseError(op, err)
	}

	s.logger.Warn("DynamoDB request failed",
		zap.String("operation", op),
		zap.String("code", ae.ErrorCode()),
		zap.String("message", ae.ErrorMessage()),
	)
	switch ae.ErrorCode() {
	case "ResourceNotFoundException":
		return pkgerrors.NewDatabaseNotLive(err)
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	default:
		return pkgerrors.NewDatabaseError(op, err)
	}
}

func (s *Store) requireWorkspace(ctx context.Context, ws string) error {
	ok, err := s.HasWorkspace(ctx, ws)
	if err != nil {
		return err
	}
	if !ok {
		return persistence.WorkspaceNotFound(ws)
	}
	return nil
}

func (s *Store) requireTable(ctx context.Context, ws, name string) error {
	ok, err := s.HasTable(ctx, ws, name)
	if err != nil {
		return err
	}
	if !ok {
		return persistence.TableNotFound(ws, name)
	}
	return nil
}

func toTable(ws string, item map[string]types.AttributeValue) (*entities.Table, error) {
	var t tableItem
	if err := attributevalue.UnmarshalMap(item, &t); err != nil {
		return nil, pkgerrors.NewDatabaseError("decode_table", err)
	}
	role, err := entities.ParseTableRole(t.Role)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("decode_table", err)
	}
	created, err := parseTime(t.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("decode_table", err)
	}
	return &entities.Table{Workspace: ws, Name: t.Name, Role: role, CreatedAt: created}, nil
}

// names strips prefix from each item's sort key and sorts the result
func names(items []map[string]types.AttributeValue, prefix string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if sk, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			out = append(out, strings.TrimPrefix(sk.Value, prefix))
		}
	}
	sort.Strings(out)
	return out
}

func decodeRecord(doc string) (valueobjects.Record, error) {
	rec, err := valueobjects.ParseRecord([]byte(doc))
	if err != nil {
		return valueobjects.Record{}, pkgerrors.NewDatabaseError("decode_record", err)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
