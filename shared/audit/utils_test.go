package audit

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		wantJSON string
	}{
		{name: "nil metadata", metadata: nil},
		{name: "empty metadata", metadata: map[string]interface{}{}, wantJSON: "{}"},
		{name: "simple metadata", metadata: map[string]interface{}{"key": "value"}, wantJSON: `{"key":"value"}`},
		{
			name: "webhook metadata",
			metadata: map[string]interface{}{
				"subscriptionStatus": "active",
				"cancelled":          false,
				"extensionDays":      30,
			},
			wantJSON: `{"cancelled":false,"extensionDays":30,"subscriptionStatus":"active"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarshalMetadata(tt.metadata)
			if tt.wantJSON == "" {
				assert.Nil(t, got)
				return
			}
			assert.JSONEq(t, tt.wantJSON, string(got))
		})
	}
}

func TestMarshalMetadata_InvalidData(t *testing.T) {
	got := MarshalMetadata(map[string]interface{}{"bad": math.Inf(1)})
	assert.Equal(t, json.RawMessage("{}"), got)
}

func TestCurrentTimestamp(t *testing.T) {
	timestamp := CurrentTimestamp()

	parsed, err := time.Parse(time.RFC3339, timestamp)
	require.NoError(t, err)
	assert.Equal(t, "UTC", parsed.Location().String())
	assert.WithinDuration(t, time.Now().UTC(), parsed, 5*time.Second)
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventTypeMemberLogin, ActionRead, ActorTypeMember, "a@b.com", "MEMBERS", StatusFailure).
		WithTraceID("trace-1").
		WithMetadata(map[string]interface{}{"reason": "invalid_credentials"})

	require.NotNil(t, event.EventType)
	assert.Equal(t, "MEMBER_LOGIN", *event.EventType)
	assert.Equal(t, "READ", *event.EventAction)
	assert.Equal(t, "MEMBER", event.ActorType)
	assert.Equal(t, "a@b.com", event.ActorID)
	assert.Equal(t, "RESOURCE", event.TargetType)
	assert.Equal(t, "MEMBERS", *event.TargetID)
	assert.Equal(t, "FAILURE", event.Status)
	assert.Equal(t, "trace-1", *event.TraceID)
	assert.JSONEq(t, `{"reason":"invalid_credentials"}`, string(event.AdditionalMetadata))

	bare := NewEvent(EventTypeMemberLogin, ActionRead, ActorTypeMember, "a@b.com", "", StatusSuccess).WithTraceID("")
	assert.Nil(t, bare.TargetID)
	assert.Nil(t, bare.TraceID)
}
