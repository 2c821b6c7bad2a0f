package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestPartitionMessages(t *testing.T) {
	good := NewUserCreatedEvent(1, "ana1")
	goodValues, err := good.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	streams := []redis.XStream{
		{
			Stream: StreamIdentity,
			Messages: []redis.XMessage{
				{ID: "1-0", Values: goodValues},
				{ID: "1-1", Values: map[string]interface{}{"type": EventUserCreated}}, // no data field
				{ID: "1-2", Values: map[string]interface{}{"data": "{broken"}},
			},
		},
	}

	messages, malformed := partitionMessages(streams)

	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if messages[0].ID != "1-0" || messages[0].Event != good {
		t.Errorf("message = %+v, want id 1-0 with the original event", messages[0])
	}

	// Unparseable entries must be reported so the reader can ack them;
	// otherwise they pile up in the group's pending list.
	if len(malformed) != 2 {
		t.Fatalf("malformed = %v, want 2 ids", malformed)
	}
	if malformed[0] != "1-1" || malformed[1] != "1-2" {
		t.Errorf("malformed = %v, want [1-1 1-2]", malformed)
	}
}
