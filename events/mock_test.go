package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both publishers satisfy the Publisher interface.
var (
	_ Publisher = (*JetStreamPublisher)(nil)
	_ Publisher = (*MockPublisher)(nil)
)

func TestMockPublisher_RecordsEvents(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()

	require.NoError(t, mock.PublishPayment(ctx, &PaymentEvent{Reference: "ref-a", Signature: "sig-1"}))
	require.NoError(t, mock.PublishPayment(ctx, &PaymentEvent{Reference: "ref-b", Signature: "sig-2"}))

	assert.Equal(t, 2, mock.GetPublishedEventCount())

	events := mock.GetPublishedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "sig-1", events[0].Signature)
	assert.Equal(t, "sig-2", events[1].Signature)

	forA := mock.GetPublishedEventsForReference("ref-a")
	require.Len(t, forA, 1)
	assert.Equal(t, "sig-1", forA[0].Signature)
	assert.Empty(t, mock.GetPublishedEventsForReference("ref-c"))
}

func TestMockPublisher_PublishError(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()
	mock.SetPublishError(assert.AnError)

	err := mock.PublishPayment(ctx, &PaymentEvent{Reference: "ref-a"})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, mock.GetPublishedEventCount())

	mock.Reset()
	require.NoError(t, mock.PublishPayment(ctx, &PaymentEvent{Reference: "ref-a"}))
	assert.Equal(t, 1, mock.GetPublishedEventCount())
}

func TestMockPublisher_Close(t *testing.T) {
	mock := NewMockPublisher()
	assert.False(t, mock.IsClosed())
	require.NoError(t, mock.Close())
	assert.True(t, mock.IsClosed())
}
