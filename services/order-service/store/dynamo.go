package store

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoHashKey is the partition key attribute of the kv table.
const DynamoHashKey = "key"

// DynamoAPI is the slice of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type dynamoItem struct {
	Key     string `dynamodbav:"key"`
	Value   string `dynamodbav:"value"`
	Version int64  `dynamodbav:"version"`
}

// DynamoStore keeps one item per key with a version counter bumped on every
// write. DynamoDB has no push feed here, so Watch polls the version.
type DynamoStore struct {
	client   DynamoAPI
	table    string
	interval time.Duration
	logger   *zap.Logger
}

func NewDynamoStore(client DynamoAPI, table string, interval time.Duration, logger *zap.Logger) *DynamoStore {
	if interval <= 0 {
		interval = time.Second
	}
	return &DynamoStore{client: client, table: table, interval: interval, logger: logger}
}

func (s *DynamoStore) keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		DynamoHashKey: &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) read(ctx context.Context, key string) (*dynamoItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      sdkaws.String(s.table),
		Key:            s.keyAttr(key),
		ConsistentRead: sdkaws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamodb decode %s: %w", key, err)
	}
	return &item, nil
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := s.read(ctx, key)
	if err != nil || item == nil {
		return nil, err
	}
	return []byte(item.Value), nil
}

func (s *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        sdkaws.String(s.table),
		Key:              s.keyAttr(key),
		UpdateExpression: sdkaws.String("SET #v = :v ADD #ver :one"),
		ExpressionAttributeNames: map[string]string{
			"#v":   "value",
			"#ver": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":   &types.AttributeValueMemberS{Value: string(value)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb set %s: %w", key, err)
	}
	return nil
}

func (s *DynamoStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	item, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	var last int64
	if item != nil {
		last = item.Version
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				item, err := s.read(ctx, key)
				if err != nil {
					if ctx.Err() == nil {
						s.logger.Warn("dynamodb watch read failed", zap.String("key", key), zap.Error(err))
					}
					continue
				}
				if item == nil || item.Version == last {
					continue
				}
				last = item.Version
				offer(out, []byte(item.Value))
			}
		}
	}()
	return out, nil
}

func (s *DynamoStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:                sdkaws.String(s.table),
		ProjectionExpression:     sdkaws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#k": DynamoHashKey},
	}
	if prefix != "" {
		input.FilterExpression = sdkaws.String("begins_with(#k, :p)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: prefix},
		}
	}

	var keys []string
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan: %w", err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			keys = append(keys, it.Key)
		}
	}
	return keys, nil
}

func (s *DynamoStore) Close() error { return nil }
