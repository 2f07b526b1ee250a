// Package dynamodb implements the database abstractions on a single DynamoDB
// table with a composite (PK, SK) primary key and one global secondary index
// (GSI1PK, GSI1SK).
package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"pillarscan/internal/constants"
	"pillarscan/internal/database"
	apperrors "pillarscan/internal/errors"
	"pillarscan/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the subset of the DynamoDB API the store depends on.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store implements database.KeyValueStore against one DynamoDB table.
type Store struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewStore creates a single-table store.
func NewStore(client Client, tableName string, log *slog.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// Put inserts or fully replaces an item.
func (s *Store) Put(ctx context.Context, item database.Item) error {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.PutItem", "table", s.tableName)

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to put item", err)
	}
	return nil
}

// Get fetches one item by primary key. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, pk, sk string) (database.Item, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.GetItem", "table", s.tableName, "pk", pk, "sk", sk)

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       primaryKey(pk, sk),
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get item", err)
	}
	if result.Item == nil {
		return nil, nil
	}
	return result.Item, nil
}

// QueryByPrefix returns all items in a partition whose sort key begins with
// skPrefix, ordered by sort key. A missing partition yields an empty slice.
func (s *Store) QueryByPrefix(ctx context.Context, pk, skPrefix string) ([]database.Item, error) {
	keyCond := expression.Key(constants.AttrPK).Equal(expression.Value(pk))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key(constants.AttrSK).BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build query expression", err)
	}

	return s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// QueryByIndex looks items up through a secondary index. An empty sk matches
// every item under the index partition key.
func (s *Store) QueryByIndex(ctx context.Context, index, pk, sk string) ([]database.Item, error) {
	keyCond := expression.Key(constants.AttrGSI1PK).Equal(expression.Value(pk))
	if sk != "" {
		keyCond = keyCond.And(expression.Key(constants.AttrGSI1SK).Equal(expression.Value(sk)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build index expression", err)
	}

	return s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// queryAll runs a query and follows pagination until exhaustion.
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]database.Item, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.Query", "table", s.tableName)

	items := []database.Item{}
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.ErrDatabaseError("failed to query items", err)
		}
		for _, item := range result.Items {
			items = append(items, item)
		}
		if result.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// ScanPrefix walks the full table and filters on a partition-key prefix and
// an exact sort key. The partition key cannot be prefix-queried, so this is a
// paginated table scan. Acceptable for small tables only.
func (s *Store) ScanPrefix(ctx context.Context, pkPrefix, sk string) ([]database.Item, error) {
	filter := expression.Name(constants.AttrPK).BeginsWith(pkPrefix).
		And(expression.Name(constants.AttrSK).Equal(expression.Value(sk)))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build scan expression", err)
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.Scan", "table", s.tableName, "pkPrefix", pkPrefix)

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	items := []database.Item{}
	for {
		result, scanErr := s.client.Scan(ctx, input)
		if scanErr != nil {
			return nil, apperrors.ErrDatabaseError("failed to scan items", scanErr)
		}
		for _, item := range result.Items {
			items = append(items, item)
		}
		if result.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// Update merges the named attributes into an existing item. The update
// expression names only the supplied attributes, so everything else on the
// item survives untouched.
func (s *Store) Update(ctx context.Context, pk, sk string, updates database.Item) error {
	return s.update(ctx, pk, sk, updates, "", nil)
}

// UpdateIf is Update guarded by an equality condition on one attribute.
func (s *Store) UpdateIf(ctx context.Context, pk, sk string, updates database.Item, condAttr string, condValue types.AttributeValue) error {
	return s.update(ctx, pk, sk, updates, condAttr, []types.AttributeValue{condValue})
}

// UpdateIfIn is Update guarded by a membership condition: the stored value of
// condAttr must equal one of condValues.
func (s *Store) UpdateIfIn(ctx context.Context, pk, sk string, updates database.Item, condAttr string, condValues []types.AttributeValue) error {
	return s.update(ctx, pk, sk, updates, condAttr, condValues)
}

func (s *Store) update(ctx context.Context, pk, sk string, updates database.Item, condAttr string, condValues []types.AttributeValue) error {
	if len(updates) == 0 {
		return nil
	}

	// Deterministic attribute order keeps the expression stable for logging
	// and testing.
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	for _, k := range keys {
		sets = append(sets, fmt.Sprintf("#%s = :%s", k, k))
		names["#"+k] = k
		values[":"+k] = updates[k]
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       primaryKey(pk, sk),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if condAttr != "" && len(condValues) > 0 {
		names["#cond_"+condAttr] = condAttr
		placeholders := make([]string, 0, len(condValues))
		for i, v := range condValues {
			p := fmt.Sprintf(":cond_%s_%d", condAttr, i)
			placeholders = append(placeholders, p)
			values[p] = v
		}
		input.ConditionExpression = aws.String(
			fmt.Sprintf("#cond_%s IN (%s)", condAttr, strings.Join(placeholders, ", ")))
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.UpdateItem", "table", s.tableName, "pk", pk, "sk", sk)

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return database.ErrConditionFailed
		}
		return apperrors.ErrDatabaseError("failed to update item", err)
	}
	return nil
}

// Delete removes one item. Deleting a missing item is not an error.
func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	reqLogger.Debug("calling external service",
		"operation", "DynamoDB.DeleteItem", "table", s.tableName, "pk", pk, "sk", sk)

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       primaryKey(pk, sk),
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to delete item", err)
	}
	return nil
}

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		constants.AttrPK: &types.AttributeValueMemberS{Value: pk},
		constants.AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}
