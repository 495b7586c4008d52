//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"vanshavali/pkg/testutil/containers"
)

func TestKafkaSinkPublish(t *testing.T) {
	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)

	sink, err := NewKafkaSink(ctx, []string{rp.Broker}, "audit.test")
	require.NoError(t, err)
	defer sink.Close()

	event := Event{
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Actor:     "admin@example.com",
		Action:    ActionRegistrationApproved,
		TargetID:  "member-1",
		SerNo:     42,
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics("audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, string(ActionRegistrationApproved), string(records[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.Actor, got.Actor)
	assert.Equal(t, event.TargetID, got.TargetID)
	assert.Equal(t, int64(42), got.SerNo)
}

func TestKafkaSinkTopicAlreadyExists(t *testing.T) {
	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)

	first, err := NewKafkaSink(ctx, []string{rp.Broker}, "audit.test")
	require.NoError(t, err)
	first.Close()

	// Reconnecting against the existing topic must not fail.
	second, err := NewKafkaSink(ctx, []string{rp.Broker}, "audit.test")
	require.NoError(t, err)
	second.Close()
}
