package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage(CollectionExpenses, OpUpsert, "exp_1")

	if msg.Collection != CollectionExpenses || msg.Op != OpUpsert || msg.ID != "exp_1" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("fresh message should validate: %v", err)
	}
}

func TestChangeMessageJSONRoundTrip(t *testing.T) {
	msg := &ChangeMessage{
		Collection: CollectionBudgets,
		Op:         OpDelete,
		ID:         "budget_1",
		Timestamp:  time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Collection != msg.Collection || parsed.Op != msg.Op || parsed.ID != msg.ID {
		t.Errorf("parsed = %+v", parsed)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestChangeMessageValidation(t *testing.T) {
	cases := []struct {
		name string
		msg  ChangeMessage
	}{
		{"unknown collection", ChangeMessage{Collection: "users", Op: OpUpsert, ID: "x"}},
		{"unknown op", ChangeMessage{Collection: CollectionExpenses, Op: "replace", ID: "x"}},
		{"missing id", ChangeMessage{Collection: CollectionExpenses, Op: OpUpsert}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestChangeMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte(`{broken`)); err == nil {
		t.Error("garbage should not decode")
	}
	if _, err := ChangeMessageFromJSON([]byte(`{"collection":"expenses","op":"noop","id":"x"}`)); err == nil {
		t.Error("invalid message should not decode")
	}
}
