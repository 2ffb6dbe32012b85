package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/questcraft/go-hunt-photoflow/internal/assetstore"
	internalaws "github.com/questcraft/go-hunt-photoflow/internal/aws"
)

// Store encapsulates operations on the hunt_progress table.
type Store struct {
	client    internalaws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new progress Store.
func NewStore(client internalaws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// UpsertCompletion atomically inserts or updates the (team, location) row:
// asset reference, done flag and completion timestamp are SET, created_at is
// set only on first insert, and unrelated attributes already on the row
// (notes, hints_revealed) are left untouched. Replays with an equivalent
// asset converge to the same row instead of duplicating it.
func (s *Store) UpsertCompletion(ctx context.Context, team, location string, asset *assetstore.AssetRecord, completedAt time.Time) (*Record, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"team":     &types.AttributeValueMemberS{Value: team},
			"location": &types.AttributeValueMemberS{Value: location},
		},
		UpdateExpression: awsString("SET asset_key = :ak, asset_location = :al, done = :d, completed_at = :ca, updated_at = :ua, created_at = if_not_exists(created_at, :ua)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ak": &types.AttributeValueMemberS{Value: asset.ObjectKey},
			":al": &types.AttributeValueMemberS{Value: asset.Location},
			":d":  &types.AttributeValueMemberBOOL{Value: true},
			":ca": &types.AttributeValueMemberS{Value: completedAt.UTC().Format(time.RFC3339)},
			":ua": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal completion row: %w", err)
	}
	return &rec, nil
}

// Get fetches the row for (team, location). Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, team, location string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"team":     &types.AttributeValueMemberS{Value: team},
			"location": &types.AttributeValueMemberS{Value: location},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal progress row: %w", err)
	}
	return &rec, nil
}

func awsString(s string) *string { return &s }
