package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/serroba/shorturl/internal/shortener"
)

const (
	attrShort   = "short"
	attrLongURL = "long_url"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	dynamodb.DescribeTableAPIClient
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type dynamoItem struct {
	Short     string `dynamodbav:"short"`
	LongURL   string `dynamodbav:"long_url"`
	CreatedAt int64  `dynamodbav:"created_at,omitempty"` // unix nanos
}

// DynamoStore is a DynamoDB implementation of Table.
type DynamoStore struct {
	client      DynamoAPI
	table       string
	schema      KeySchema
	createWait  time.Duration
	consistency *bool
}

// NewDynamoStore creates a new DynamoDB-backed mapping table.
func NewDynamoStore(client DynamoAPI, table string, schema KeySchema) *DynamoStore {
	return &DynamoStore{
		client:      client,
		table:       table,
		schema:      schema,
		createWait:  2 * time.Minute,
		consistency: aws.Bool(true),
	}
}

func (d *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("%w: describe table %s: %w", shortener.ErrStorageUnavailable, d.table, err)
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrShort), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrShort), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}

	if d.schema == KeySchemaHashRange {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(attrLongURL), AttributeType: types.ScalarAttributeTypeS,
		})
		input.KeySchema = append(input.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(attrLongURL), KeyType: types.KeyTypeRange,
		})
	}

	if _, err = d.client.CreateTable(ctx, input); err != nil {
		// Another process created it first.
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("%w: create table %s: %w", shortener.ErrStorageUnavailable, d.table, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(d.client)

	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)}, d.createWait)
	if err != nil {
		return fmt.Errorf("%w: wait for table %s: %w", shortener.ErrStorageUnavailable, d.table, err)
	}

	return nil
}

// Insert relies on attribute_not_exists so the check and the write are one request.
func (d *DynamoStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	item, err := attributevalue.MarshalMap(toDynamoItem(shortURL))
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#short)"),
		ExpressionAttributeNames: map[string]string{"#short": attrShort}, // SHORT is a reserved word
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return shortener.ErrAlreadyExists
		}

		return err
	}

	return nil
}

func (d *DynamoStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if d.schema == KeySchemaHashRange {
		return d.queryByCode(ctx, code)
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			attrShort: &types.AttributeValueMemberS{Value: string(code)},
		},
		ConsistentRead: d.consistency,
	})
	if err != nil {
		return nil, err
	}

	if out.Item == nil {
		return nil, shortener.ErrNotFound
	}

	return fromDynamoItem(out.Item)
}

func (d *DynamoStore) queryByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	keyCond := expression.Key(attrShort).Equal(expression.Value(string(code)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            d.consistency,
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}

	if len(out.Items) == 0 {
		return nil, shortener.ErrNotFound
	}

	return fromDynamoItem(out.Items[0])
}

// GetByURL scans the table with a long_url filter; there is no secondary index.
func (d *DynamoStore) GetByURL(ctx context.Context, longURL string) (*shortener.ShortURL, error) {
	filter := expression.Name(attrLongURL).Equal(expression.Value(longURL))

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            d.consistency,
	}

	var found *shortener.ShortURL

	err = d.scanPages(ctx, input, func(entry *shortener.ShortURL) error {
		found = entry

		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}

	if found == nil {
		return nil, shortener.ErrNotFound
	}

	return found, nil
}

func (d *DynamoStore) Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error {
	return d.scanPages(ctx, &dynamodb.ScanInput{
		TableName:      aws.String(d.table),
		ConsistentRead: d.consistency,
	}, fn)
}

func (d *DynamoStore) scanPages(
	ctx context.Context, input *dynamodb.ScanInput, fn func(*shortener.ShortURL) error,
) error {
	paginator := dynamodb.NewScanPaginator(d.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			entry, err := fromDynamoItem(item)
			if err != nil {
				return err
			}

			if err := fn(entry); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d *DynamoStore) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})

	return err
}

// Shutdown is a no-op for DynamoStore (the SDK client holds no connections to release).
func (d *DynamoStore) Shutdown() error {
	return nil
}

func toDynamoItem(shortURL *shortener.ShortURL) dynamoItem {
	item := dynamoItem{
		Short:   string(shortURL.Code),
		LongURL: shortURL.LongURL,
	}

	if !shortURL.CreatedAt.IsZero() {
		item.CreatedAt = shortURL.CreatedAt.UnixNano()
	}

	return item
}

func fromDynamoItem(av map[string]types.AttributeValue) (*shortener.ShortURL, error) {
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}

	url := &shortener.ShortURL{
		Code:    shortener.Code(item.Short),
		LongURL: item.LongURL,
	}

	if item.CreatedAt != 0 {
		url.CreatedAt = time.Unix(0, item.CreatedAt).UTC()
	}

	return url, nil
}

// Compile-time check.
var _ Table = (*DynamoStore)(nil)
