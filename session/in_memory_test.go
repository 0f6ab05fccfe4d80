package session

import (
	"sync"
	"testing"

	"github.com/intelmesh/intelmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationIDOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationID("collector", "analyst"), ConversationID("analyst", "collector"))
	assert.Equal(t, "analyst<->collector", ConversationID("collector", "analyst"))
}

func TestGetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()
	conv, err := store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", conv.ID)
	assert.Empty(t, conv.Messages)
	assert.Equal(t, []string{"run-1"}, store.IDs())
}

func TestAppendAndHistory(t *testing.T) {
	store := NewInMemoryStore()
	id := ConversationID("collector", "analyst")

	m1 := core.NewMessage("collector", "analyst", core.KindDataShare, map[string]any{"n": 1})
	m2 := core.NewMessage("analyst", "collector", core.KindStatusUpdate, nil)
	require.NoError(t, store.Append(id, m1))
	require.NoError(t, store.Append(id, m2))

	history, err := store.History(id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m1.ID, history[0].ID)
	assert.Equal(t, m2.ID, history[1].ID)
}

func TestHistoryUnknownIDIsEmpty(t *testing.T) {
	history, err := NewInMemoryStore().History("missing")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClonePreventsExternalMutation(t *testing.T) {
	store := NewInMemoryStore()
	msg := core.NewMessage("a", "b", core.KindDataShare, nil)
	require.NoError(t, store.Append("c1", msg))

	conv, err := store.Get("c1")
	require.NoError(t, err)
	conv.Messages[0].Sender = "tampered"
	conv.Messages = append(conv.Messages, core.NewMessage("x", "y", core.KindDataShare, nil))

	history, err := store.History("c1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a", history[0].Sender)
}

func TestClearDiscardsEverything(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("c1", core.NewMessage("a", "b", core.KindDataShare, nil)))
	store.Clear()
	assert.Empty(t, store.IDs())
}

func TestConcurrentAppends(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = store.Append("shared", core.NewMessage("a", "b", core.KindDataShare, nil))
			}
		}()
	}
	wg.Wait()

	history, err := store.History("shared")
	require.NoError(t, err)
	assert.Len(t, history, 200)
}
