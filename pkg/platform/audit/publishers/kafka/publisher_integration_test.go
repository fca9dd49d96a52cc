//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "sportclub/pkg/domain"
	audit "sportclub/pkg/platform/audit"
	"sportclub/pkg/testutil/containers"
)

func TestPublisherRoundTrip(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pub, err := New(broker.Brokers, "sportclub.audit.test")
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.EnsureTopic(ctx, 1))
	require.NoError(t, pub.EnsureTopic(ctx, 1), "second ensure must tolerate an existing topic")

	user := id.UserID(uuid.New())
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.EventSlateCommitted, UserID: user, ClubID: "club-1"}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics("sportclub.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, user, got.UserID)
	assert.Equal(t, "club-1", got.ClubID)
}
