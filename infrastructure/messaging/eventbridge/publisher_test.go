package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-backend/domain/events"
)

type fakeClient struct {
	calls    [][]types.PutEventsRequestEntry
	failings []int // entries to fail in the next calls, by index
	err      error
}

func (f *fakeClient) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in.Entries)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{Entries: make([]types.PutEventsResultEntry, len(in.Entries))}
	if len(f.failings) > 0 {
		idx := f.failings[0]
		f.failings = f.failings[1:]
		out.Entries[idx].ErrorCode = aws.String("ThrottlingException")
		out.FailedEntryCount = 1
	}
	return out, nil
}

func newEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewOrderPlaced("o", "u", "Ann", "card", 10, time.Now())
	}
	return out
}

func newPublisher(c Client) *Publisher {
	p := NewPublisher(c, "storefront-events", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func TestPublishBatchChunks(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, newPublisher(client).PublishBatch(context.Background(), newEvents(23)))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0], 10)
	assert.Len(t, client.calls[2], 3)
	entry := client.calls[0][0]
	assert.Equal(t, events.SourceStorefront, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeOrderPlaced, aws.ToString(entry.DetailType))
	assert.Contains(t, aws.ToString(entry.Detail), `"customer_name":"Ann"`)
}

func TestPublishRetriesFailedEntries(t *testing.T) {
	client := &fakeClient{failings: []int{1}}
	require.NoError(t, newPublisher(client).PublishBatch(context.Background(), newEvents(3)))

	require.Len(t, client.calls, 2)
	assert.Len(t, client.calls[1], 1, "only the failed entry is resent")
}

func TestPublishGivesUp(t *testing.T) {
	client := &fakeClient{err: errors.New("network down")}
	err := newPublisher(client).Publish(context.Background(), newEvents(1)[0])
	require.Error(t, err)
	assert.Len(t, client.calls, 3)
}
