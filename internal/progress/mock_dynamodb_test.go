package progress

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for GetItem/UpdateItem used in unit tests.
// NOTE: This is intentionally minimal and not production-grade.
type simpleMock struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue // "team|location" -> item

	getCalls    int
	updateCalls int

	updateErr error // returned by UpdateItem when set
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func compositeKey(key map[string]types.AttributeValue) (string, error) {
	team, ok := key["team"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing team key")
	}
	location, ok := key["location"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing location key")
	}
	return team.Value + "|" + location.Value, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k, err := compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// UpdateItem implements just enough of the upsert expression used by the
// store: SET of asset/done/timestamps plus if_not_exists(created_at, ...).
// Attributes not named in the expression are preserved.
func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	k, err := compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		// upsert: create the row with its key attributes
		item = map[string]types.AttributeValue{}
		for name, v := range params.Key {
			item[name] = v
		}
	}
	vals := params.ExpressionAttributeValues
	if v, ok := vals[":ak"]; ok {
		item["asset_key"] = v
	}
	if v, ok := vals[":al"]; ok {
		item["asset_location"] = v
	}
	if v, ok := vals[":d"]; ok {
		item["done"] = v
	}
	if v, ok := vals[":ca"]; ok {
		item["completed_at"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
		if _, exists := item["created_at"]; !exists {
			item["created_at"] = v
		}
	}
	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
