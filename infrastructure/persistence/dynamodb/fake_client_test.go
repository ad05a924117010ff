package dynamodb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	equalCond      = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)
	beginsWithCond = regexp.MustCompile(`begins_with\s*\(\s*(#\w+)\s*,\s*(:\w+)\s*\)`)
	notExistsCond  = regexp.MustCompile(`attribute_not_exists\s*\(\s*(#\w+)\s*\)`)
)

type item = map[string]types.AttributeValue

// fakeClient keeps items in memory and understands the handful of
// expressions the store builds. Query results are paged to pageSize items.
type fakeClient struct {
	mu         sync.Mutex
	partitions map[string]map[string]item
	pageSize   int

	// throttleBatches makes the next n BatchWriteItem calls leave their
	// last request unprocessed
	throttleBatches int
	batchCalls      int
	queryCalls      int
}

var _ Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{partitions: make(map[string]map[string]item), pageSize: 7}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeClient) GetItem(ctx context.Context, in *awsdynamodb.GetItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.partitions[str(in.Key["PK"])][str(in.Key["SK"])]
	if !ok {
		return &awsdynamodb.GetItemOutput{}, nil
	}
	return &awsdynamodb.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *awsdynamodb.PutItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk, sk := str(in.Item["PK"]), str(in.Item["SK"])
	if in.ConditionExpression != nil {
		m := notExistsCond.FindStringSubmatch(*in.ConditionExpression)
		if m == nil {
			return nil, fmt.Errorf("fake: unsupported condition %q", *in.ConditionExpression)
		}
		if _, exists := f.partitions[pk][sk]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.put(in.Item)
	return &awsdynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *awsdynamodb.DeleteItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delete(in.Key)
	return &awsdynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *awsdynamodb.QueryInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++

	expr := aws.ToString(in.KeyConditionExpression)
	var pk, prefix string
	for _, m := range equalCond.FindAllStringSubmatch(expr, -1) {
		if in.ExpressionAttributeNames[m[1]] == "PK" {
			pk = str(in.ExpressionAttributeValues[m[2]])
		}
	}
	if m := beginsWithCond.FindStringSubmatch(expr); m != nil {
		prefix = str(in.ExpressionAttributeValues[m[2]])
	}
	if pk == "" {
		return nil, fmt.Errorf("fake: no partition key in %q", expr)
	}

	partition := f.partitions[pk]
	sks := make([]string, 0, len(partition))
	for sk := range partition {
		if strings.HasPrefix(sk, prefix) {
			sks = append(sks, sk)
		}
	}
	sort.Strings(sks)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := str(in.ExclusiveStartKey["SK"])
		start = sort.SearchStrings(sks, after)
		if start < len(sks) && sks[start] == after {
			start++
		}
	}
	end := start + f.pageSize
	if end > len(sks) {
		end = len(sks)
	}

	out := &awsdynamodb.QueryOutput{}
	for _, sk := range sks[start:end] {
		out.Items = append(out.Items, copyItem(partition[sk]))
	}
	if end < len(sks) {
		out.LastEvaluatedKey = stringKey(pk, sks[end-1])
	}
	return out, nil
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *awsdynamodb.BatchWriteItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &awsdynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, requests := range in.RequestItems {
		if len(requests) > 25 {
			return nil, fmt.Errorf("fake: %d requests exceeds batch limit", len(requests))
		}
		if f.throttleBatches > 0 && len(requests) > 0 {
			f.throttleBatches--
			out.UnprocessedItems[table] = requests[len(requests)-1:]
			requests = requests[:len(requests)-1]
		}
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				f.put(req.PutRequest.Item)
			case req.DeleteRequest != nil:
				f.delete(req.DeleteRequest.Key)
			}
		}
	}
	return out, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *awsdynamodb.DescribeTableInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error) {
	return &awsdynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName, TableStatus: types.TableStatusActive},
	}, nil
}

func (f *fakeClient) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, p := range f.partitions {
		n += len(p)
	}
	return n
}

// put and delete must be called with the lock held
func (f *fakeClient) put(it item) {
	pk := str(it["PK"])
	if f.partitions[pk] == nil {
		f.partitions[pk] = make(map[string]item)
	}
	f.partitions[pk][str(it["SK"])] = copyItem(it)
}

func (f *fakeClient) delete(key item) {
	pk := str(key["PK"])
	delete(f.partitions[pk], str(key["SK"]))
	if len(f.partitions[pk]) == 0 {
		delete(f.partitions, pk)
	}
}

func copyItem(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}
