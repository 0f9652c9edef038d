// Package dynamodb stores model metadata in a DynamoDB table.
//
// Table schema:
//   - Partition key: model_id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecfield-models \
//	  --attribute-definitions AttributeName=model_id,AttributeType=S \
//	  --key-schema AttributeName=model_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/model"
)

const (
	attrID          = "model_id"
	attrEngine      = "engine"
	attrSpaceType   = "space_type"
	attrDimension   = "dimension"
	attrState       = "state"
	attrDescription = "description"
	attrError       = "error"
	attrCreatedAt   = "created_at"
)

// ErrModelExists is returned by Create when the id is taken.
var ErrModelExists = errors.New("model already exists")

// Client is the subset of the DynamoDB API used by Registry.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Registry is a model.Store backed by DynamoDB.
type Registry struct {
	client     Client
	tableName  string
	consistent bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithConsistentReads enables strongly consistent GetItem calls.
func WithConsistentReads() Option {
	return func(r *Registry) { r.consistent = true }
}

// New creates a Registry using the default AWS configuration.
func New(ctx context.Context, tableName string, opts ...Option) (*Registry, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewRegistry(dynamodb.NewFromConfig(cfg), tableName, opts...), nil
}

// NewRegistry creates a Registry from an existing client.
func NewRegistry(client Client, tableName string, opts ...Option) *Registry {
	r := &Registry{client: client, tableName: tableName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrID: &types.AttributeValueMemberS{Value: id}}
}

// Get implements model.Registry.
func (r *Registry) Get(ctx context.Context, id string) (model.Metadata, error) {
	resp, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key(id),
		ConsistentRead: aws.Bool(r.consistent),
	})
	if err != nil {
		return model.Metadata{}, fmt.Errorf("get model %q: %w", id, err)
	}
	if len(resp.Item) == 0 {
		return model.Metadata{}, fmt.Errorf("%w: %q", model.ErrNotFound, id)
	}
	return decodeItem(resp.Item)
}

// Put stores m, replacing any existing item.
func (r *Registry) Put(ctx context.Context, m model.Metadata) error {
	return r.put(ctx, m, nil)
}

// Create stores m only if no model with the same id exists.
func (r *Registry) Create(ctx context.Context, m model.Metadata) error {
	err := r.put(ctx, m, aws.String("attribute_not_exists(model_id)"))
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %q", ErrModelExists, m.ID)
	}
	return err
}

func (r *Registry) put(ctx context.Context, m model.Metadata, cond *string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                encodeItem(m),
		ConditionExpression: cond,
	})
	if err != nil {
		return fmt.Errorf("put model %q: %w", m.ID, err)
	}
	return nil
}

// Delete removes id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       key(id),
	})
	if err != nil {
		return fmt.Errorf("delete model %q: %w", id, err)
	}
	return nil
}

func encodeItem(m model.Metadata) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrID:        &types.AttributeValueMemberS{Value: m.ID},
		attrEngine:    &types.AttributeValueMemberS{Value: string(m.Engine)},
		attrSpaceType: &types.AttributeValueMemberS{Value: string(m.SpaceType)},
		attrDimension: &types.AttributeValueMemberN{Value: strconv.Itoa(m.Dimension)},
		attrState:     &types.AttributeValueMemberS{Value: string(m.State)},
		attrCreatedAt: &types.AttributeValueMemberS{Value: m.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
	if m.Description != "" {
		item[attrDescription] = &types.AttributeValueMemberS{Value: m.Description}
	}
	if m.Error != "" {
		item[attrError] = &types.AttributeValueMemberS{Value: m.Error}
	}
	return item
}

func decodeItem(item map[string]types.AttributeValue) (model.Metadata, error) {
	var m model.Metadata

	id, ok := str(item, attrID)
	if !ok {
		return model.Metadata{}, errors.New("invalid model_id attribute in DynamoDB")
	}
	m.ID = id

	e, _ := str(item, attrEngine)
	m.Engine = engine.ID(e)
	s, _ := str(item, attrSpaceType)
	m.SpaceType = engine.SpaceType(s)
	st, _ := str(item, attrState)
	m.State = model.State(st)
	m.Description, _ = str(item, attrDescription)
	m.Error, _ = str(item, attrError)

	if n, ok := item[attrDimension].(*types.AttributeValueMemberN); ok {
		d, err := strconv.Atoi(n.Value)
		if err != nil {
			return model.Metadata{}, fmt.Errorf("model %q: parse dimension: %w", id, err)
		}
		m.Dimension = d
	}
	if ts, ok := str(item, attrCreatedAt); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return model.Metadata{}, fmt.Errorf("model %q: parse created_at: %w", id, err)
		}
		m.CreatedAt = t
	}
	return m, nil
}

func str(item map[string]types.AttributeValue, name string) (string, bool) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}
