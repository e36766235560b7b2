package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/pkg/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Deliver(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestEmitSyncPersistsAndTimestamps(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), Event{
		Actor:    domain.Address("GADMIN"),
		Action:   ActionCredentialAdminMinted,
		Subject:  "token:7",
		Decision: "minted",
	})
	require.NoError(t, err)

	events, err := store.ListByActor(context.Background(), "GADMIN")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionCredentialAdminMinted, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), Event{
			Actor:  domain.Address("GUSER"),
			Action: ActionCredentialIssued,
		}))
	}
	pub.Close()

	events, err := store.ListByActor(context.Background(), "GUSER")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestEmitFansOutToSink(t *testing.T) {
	store := NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store, WithSink(sink))

	require.NoError(t, pub.Emit(context.Background(), Event{
		Actor:     domain.Address("GUSER"),
		Action:    ActionProofRejected,
		Timestamp: time.Now(),
	}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	assert.Equal(t, ActionProofRejected, sink.events[0].Action)
}
