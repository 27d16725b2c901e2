package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lathe/internal/services"
)

// DynamoAPI is the DynamoDB client surface the store uses.
type DynamoAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore persists artifact records in one DynamoDB table keyed by
// (id, createdDate).
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore binds a store to a metadata table.
func NewDynamoStore(client DynamoAPI, table string) (*DynamoStore, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "dynamo", "client is required", nil)
	}
	if strings.TrimSpace(table) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "dynamo", "table name is required", nil)
	}
	return &DynamoStore{client: client, table: table}, nil
}

func (s *DynamoStore) Query(ctx context.Context, id string) (*Record, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "catalog", "query", id, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var record Record
	if err := attributevalue.UnmarshalMap(out.Items[0], &record); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "catalog", "query", "unmarshal record", err)
	}
	return &record, nil
}

func (s *DynamoStore) ScanPromotable(ctx context.Context) ([]*Record, error) {
	var records []*Record
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("#status = :status AND attribute_not_exists(promotionStatus)"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(StatusProcessed)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrExternalCall, "catalog", "scan", "promotable records", err)
		}

		var page []*Record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, services.Wrap(services.ErrExternalCall, "catalog", "scan", "unmarshal records", err)
		}
		records = append(records, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return records, nil
}

func (s *DynamoStore) Put(ctx context.Context, record *Record) error {
	if record == nil {
		return services.Wrap(services.ErrValidation, "catalog", "put", "record is nil", nil)
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return services.Wrap(services.ErrExternalCall, "catalog", "put", "marshal record", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return services.Wrap(services.ErrExternalCall, "catalog", "put", record.ID, err)
	}
	return nil
}

func (s *DynamoStore) Update(ctx context.Context, key Key, fields FieldSet) error {
	sets := make([]string, 0, 3)
	values := make(map[string]types.AttributeValue, 3)
	names := make(map[string]string, 3)

	if fields.Status != nil {
		names["#status"] = "status"
		sets = append(sets, "#status = :status")
		values[":status"] = &types.AttributeValueMemberS{Value: string(*fields.Status)}
	}
	if fields.PromotionStatus != nil {
		sets = append(sets, "promotionStatus = :promotionStatus")
		values[":promotionStatus"] = &types.AttributeValueMemberS{Value: *fields.PromotionStatus}
	}
	if fields.PromotedAt != nil {
		sets = append(sets, "promotedAt = :promotedAt")
		values[":promotedAt"] = &types.AttributeValueMemberS{Value: fields.PromotedAt.UTC().Format(time.RFC3339)}
	}
	if len(sets) == 0 {
		return nil
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id":          &types.AttributeValueMemberS{Value: key.ID},
			"createdDate": &types.AttributeValueMemberS{Value: key.CreatedDate},
		},
		UpdateExpression:          aws.String(fmt.Sprintf("SET %s", strings.Join(sets, ", "))),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return services.Wrap(services.ErrExternalCall, "catalog", "update", key.ID, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id":          &types.AttributeValueMemberS{Value: key.ID},
			"createdDate": &types.AttributeValueMemberS{Value: key.CreatedDate},
		},
	}); err != nil {
		return services.Wrap(services.ErrExternalCall, "catalog", "delete", key.ID, err)
	}
	return nil
}
