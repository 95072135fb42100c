package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/rs/zerolog"
)

// operatorItem is one operator in the operators table
type operatorItem struct {
	Email         string
	DisplayName   string
	LastUpdatedAt string // RFC3339Nano UTC, empty when never versioned
	Document      string
}

// DynamoDBStore implements Repository using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// Build the client directly: LoadDefaultConfig probes the EC2 IMDS
		// endpoint, which hangs when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	logger = logger.With().Str("component", "dynamo_store").Logger()
	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.OperatorsTable).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) Get(ctx context.Context, email string) (*types.OperatorRecord, error) {
	key := types.NormalizeEmail(email)
	if key == "" {
		return nil, nil
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.OperatorsTable),
		Key: map[string]dbtypes.AttributeValue{
			"Email": &dbtypes.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get operator record: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item operatorItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operator record: %w", err)
	}
	return decodeStored(item.Email, []byte(item.Document), key), nil
}

func (s *DynamoDBStore) Put(ctx context.Context, rec *types.OperatorRecord, expected time.Time) error {
	out, data, err := canonical(rec)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(operatorItem{
		Email:         out.Email,
		DisplayName:   out.DisplayName,
		LastUpdatedAt: formatVersion(out.LastUpdatedAt),
		Document:      string(data),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal operator record: %w", err)
	}

	expr, err := putCondition(expected)
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.OperatorsTable),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			current, getErr := s.Get(ctx, out.Email)
			if getErr != nil {
				return getErr
			}
			if err := checkVersion(current, expected); err != nil {
				return err
			}
			return ErrConflict
		}
		return fmt.Errorf("failed to save operator record: %w", err)
	}
	return nil
}

// putCondition only lets a write through when the stored version is the one
// the writer read
func putCondition(expected time.Time) (expression.Expression, error) {
	cond := expression.Name("LastUpdatedAt").Equal(expression.Value(formatVersion(expected)))
	if expected.IsZero() {
		cond = expression.AttributeNotExists(expression.Name("Email")).Or(cond)
	}
	return expression.NewBuilder().WithCondition(cond).Build()
}

func (s *DynamoDBStore) List(ctx context.Context) ([]*types.OperatorRecord, error) {
	var lastKey map[string]dbtypes.AttributeValue
	var records []*types.OperatorRecord

	for {
		input := &dynamodb.ScanInput{
			TableName: aws.String(s.config.OperatorsTable),
			Limit:     aws.Int32(500),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator records: %w", err)
		}

		var items []operatorItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operator records: %w", err)
		}
		for _, item := range items {
			if rec := decodeStored(item.Email, []byte(item.Document), item.Email); rec != nil {
				records = append(records, rec)
			} else {
				s.logger.Warn().Str("email", item.Email).Msg("skipping unreadable operator record")
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Email < records[j].Email })
	return records, nil
}

func (s *DynamoDBStore) Close() error { return nil }
