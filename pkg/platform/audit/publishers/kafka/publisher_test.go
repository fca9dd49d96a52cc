package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sportclub/pkg/domain"
	audit "sportclub/pkg/platform/audit"
)

func TestToRecord(t *testing.T) {
	user := id.UserID(uuid.New())
	event := audit.Event{
		Action:    audit.EventMemberRegistered,
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UserID:    user,
		Client:    audit.ClientInfo{Browser: "Firefox 128.0"},
	}

	rec, err := toRecord(event)
	require.NoError(t, err)
	assert.Equal(t, user.String(), string(rec.Key))
	require.Len(t, rec.Headers, 2)
	assert.Equal(t, "member_registered", string(rec.Headers[0].Value))
	assert.Equal(t, "compliance", string(rec.Headers[1].Value))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestNewRequiresBrokersAndTopic(t *testing.T) {
	_, err := New(nil, "audit")
	assert.Error(t, err)
	_, err = New([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
