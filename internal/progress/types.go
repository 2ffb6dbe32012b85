package progress

import "time"

// Record represents the item stored in the hunt_progress DynamoDB table.
// The table is keyed (team, location): partition key team, sort key location,
// so there is at most one row per stop per team.
type Record struct {
	Team          string    `dynamodbav:"team"`     // PK
	Location      string    `dynamodbav:"location"` // SK
	AssetKey      string    `dynamodbav:"asset_key,omitempty"`      // object key in the photo bucket
	AssetLocation string    `dynamodbav:"asset_location,omitempty"` // s3://bucket/key
	Done          bool      `dynamodbav:"done"`
	CompletedAt   time.Time `dynamodbav:"completed_at"`
	Notes         string    `dynamodbav:"notes,omitempty"`          // free-form, never touched by the upsert
	HintsRevealed int       `dynamodbav:"hints_revealed,omitempty"` // carried over from prior state
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}
