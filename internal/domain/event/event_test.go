package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	for _, typ := range AllTypes() {
		t.Run(typ.String(), func(t *testing.T) {
			assert.True(t, typ.IsValid())
			assert.NotEmpty(t, typ.Action())
		})
	}

	assert.False(t, Type("unknown.type").IsValid())
	assert.False(t, Type("").IsValid())
	assert.Empty(t, Type("unknown.type").Action())
}

func TestType_Action(t *testing.T) {
	assert.Equal(t, "APPROVE_REQUEST", TypeRequestApproved.Action())
	assert.Equal(t, "REVERT_COMPLETE", TypeRequestCompleteReverted.Action())
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeRequestApproved, 42, "manager-1", map[string]interface{}{
		"total_amount": "1000.00",
	})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, int64(42), evt.RequestID)
	assert.Equal(t, "manager-1", evt.UserID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, "1000.00", evt.GetPayloadString("total_amount"))
	assert.Empty(t, evt.GetPayloadString("missing"))

	other := NewEvent(TypeRequestApproved, 42, "manager-1", nil)
	assert.NotEqual(t, evt.ID, other.ID)
	assert.NotNil(t, other.Payload)
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeRequestCreated, 1, "u", map[string]interface{}{"a": "1"})
	updated := original.WithPayload("b", "2")

	assert.Equal(t, "2", updated.GetPayloadString("b"))
	assert.Empty(t, original.GetPayloadString("b"), "original payload must not change")
	assert.Equal(t, original.ID, updated.ID)
}

func TestEvent_MetadataJSON(t *testing.T) {
	evt := NewEvent(TypeRequestRejected, 7, "u", map[string]interface{}{"reason": "over budget"})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(evt.MetadataJSON()), &decoded))
	assert.Equal(t, "over budget", decoded["reason"])
}
