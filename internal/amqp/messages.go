package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by a change message.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// Collections a change message can refer to.
const (
	CollectionExpenses   = "expenses"
	CollectionCategories = "categories"
	CollectionBudgets    = "budgets"
)

// ChangeMessage announces one local mutation. It carries only the
// coordinates of the change; the worker loads the current record from the
// shared local store, so a stale or re-delivered message converges on the
// latest state.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, op, id string) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		Op:         op,
		ID:         id,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *ChangeMessage) Validate() error {
	switch m.Collection {
	case CollectionExpenses, CollectionCategories, CollectionBudgets:
	default:
		return fmt.Errorf("unknown collection %q", m.Collection)
	}
	switch m.Op {
	case OpUpsert, OpDelete:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.ID == "" {
		return fmt.Errorf("missing record id")
	}
	return nil
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
