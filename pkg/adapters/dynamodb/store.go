package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrClient   = "client_id"
	attrDialogue = "dialogue"
	attrPayload  = "payload"
	attrModified = "modified_at"
	attrExpires  = "expires_at"
)

// API is the subset of the DynamoDB client used by the store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements ports.SnapshotStore on a DynamoDB table keyed by
// client_id (partition) and dialogue (sort).
type Store struct {
	client API
	table  string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets an expires_at attribute on every item so DynamoDB TTL can reap
// abandoned dialogues.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, table, region, profile string, opts ...Option) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb store requires a table name")
	}
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewFromClient(dynamodb.NewFromConfig(cfg), table, opts...), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client API, table string, opts ...Option) *Store {
	s := &Store{client: client, table: table}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(clientID, dialogue string) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{
		attrClient:   &dbtypes.AttributeValueMemberS{Value: clientID},
		attrDialogue: &dbtypes.AttributeValueMemberS{Value: dialogue},
	}
}

// Save writes the snapshot, replacing any previous item.
func (s *Store) Save(ctx context.Context, clientID string, snap *domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	item := key(clientID, snap.DialogueName)
	item[attrPayload] = &dbtypes.AttributeValueMemberB{Value: payload}
	item[attrModified] = &dbtypes.AttributeValueMemberN{Value: strconv.FormatInt(snap.ModifiedAt.Unix(), 10)}
	if s.ttl > 0 {
		item[attrExpires] = &dbtypes.AttributeValueMemberN{
			Value: strconv.FormatInt(snap.ModifiedAt.Add(s.ttl).Unix(), 10),
		}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot.
func (s *Store) Load(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(clientID, dialogue),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrSnapshotNotFound
	}

	payload, ok := out.Item[attrPayload].(*dbtypes.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("snapshot item %s/%s has no payload", clientID, dialogue)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload.Value, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a snapshot. Deleting a missing item is not an error.
func (s *Store) Delete(ctx context.Context, clientID, dialogue string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(clientID, dialogue),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the dialogues stored for a client.
func (s *Store) List(ctx context.Context, clientID string) ([]string, error) {
	dialogues := []string{}
	var start map[string]dbtypes.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("client_id = :c"),
			ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
				":c": &dbtypes.AttributeValueMemberS{Value: clientID},
			},
			ProjectionExpression: aws.String(attrDialogue),
			ExclusiveStartKey:    start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query snapshots: %w", err)
		}
		for _, item := range out.Items {
			if d, ok := item[attrDialogue].(*dbtypes.AttributeValueMemberS); ok {
				dialogues = append(dialogues, d.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return dialogues, nil
		}
		start = out.LastEvaluatedKey
	}
}
