//go:build integration

package stream_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycvault/internal/provenance"
	"kycvault/internal/provenance/stream"
	"kycvault/pkg/domain"
	"kycvault/pkg/testutil/containers"
)

func TestPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redpanda := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	const topic = "kycvault.provenance.test"
	publisher, err := stream.New(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer publisher.Close()

	event := provenance.Event{
		ID:          domain.NewEventID(),
		ArchiveName: "kyc_ori_data_Accra_Ghana.zip",
		Action:      provenance.ActionArchiveRegistered,
		Actor:       "amina",
		Digest:      "60303ae22b998861bce3b28f33eec1be758a213c86c93c076dbe9f558c11c752",
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		Hash:        "deadbeef",
	}
	require.NoError(t, publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, event.ArchiveName, string(records[0].Key))

	var got provenance.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.Hash, got.Hash)
}
