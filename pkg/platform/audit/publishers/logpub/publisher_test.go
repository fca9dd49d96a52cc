package logpub

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sportclub/pkg/domain"
	audit "sportclub/pkg/platform/audit"
)

func TestEmitLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	p := New(slog.New(slog.NewJSONHandler(&buf, nil)))
	user := id.UserID(uuid.New())

	err := p.Emit(context.Background(), audit.Event{
		Action:    audit.EventSlateCommitted,
		Category:  audit.CategoryCompliance,
		UserID:    user,
		ClubID:    "club-1",
		RequestID: "req-9",
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "slate_committed", entry["action"])
	assert.Equal(t, user.String(), entry["user_id"])
	assert.Equal(t, "req-9", entry["request_id"])
}
