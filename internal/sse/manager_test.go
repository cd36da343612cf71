package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		t.Fatalf("unexpected event %s", evt.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_DeliversToOwningUser(t *testing.T) {
	m := startManager(t)
	alice := m.Connect("uA")
	bob := m.Connect("uB")
	assert.Equal(t, 2, m.ClientCount())

	m.FavoriteChanged("uA", 603, true)

	evt := receive(t, alice)
	assert.Equal(t, EventFavoritesChanged, evt.Type)
	assert.Equal(t, FavoritesChangedEventData{MovieID: 603, IsFavorite: true}, evt.Data)
	assertNoEvent(t, bob)
}

func TestManager_BroadcastWithoutUser(t *testing.T) {
	m := startManager(t)
	alice := m.Connect("uA")
	bob := m.Connect("uB")

	m.Emit(NewHeartbeatEvent())

	assert.Equal(t, EventHeartbeat, receive(t, alice).Type)
	assert.Equal(t, EventHeartbeat, receive(t, bob).Type)
}

func TestManager_SessionAndSuggestions(t *testing.T) {
	m := startManager(t)
	c := m.Connect("uA")

	m.SessionChanged(domain.SessionEvent{
		Type:    domain.SessionSignedOut,
		Session: domain.Session{ID: "s1", UserID: "uA", Email: "a@example.com"},
	})
	evt := receive(t, c)
	assert.Equal(t, EventSessionChanged, evt.Type)
	assert.Equal(t, domain.SessionSignedOut, evt.Data.(SessionChangedEventData).Type)

	m.PublishSuggestions("uA", "mat", nil)
	evt = receive(t, c)
	require.Equal(t, EventSuggestionsUpdated, evt.Type)
	assert.NotNil(t, evt.Data.(SuggestionsEventData).Suggestions)
}

func TestManager_DropsForSlowClient(t *testing.T) {
	m := NewManager(nil)
	c := m.Connect("uA")

	// Broadcast directly so the queue is not involved.
	for range clientBufferSize + 5 {
		m.deliver(NewFavoritesChangedEvent("uA", 1, true))
	}
	assert.Len(t, c.EventChan, clientBufferSize)
}

func TestManager_Disconnect(t *testing.T) {
	m := NewManager(nil)
	c := m.Connect("uA")

	m.Disconnect(c)
	m.Disconnect(c)

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_Shutdown(t *testing.T) {
	m := startManager(t)
	c := m.Connect("uA")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	assert.False(t, m.IsRunning())
	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)

	// Emits after shutdown are dropped without panicking.
	m.FavoriteChanged("uA", 1, false)
}

func TestManager_EveryStreamOfUserReceives(t *testing.T) {
	m := startManager(t)
	tab1 := m.Connect("uA")
	tab2 := m.Connect("uA")

	m.FavoriteChanged("uA", 42, false)

	assert.Equal(t, EventFavoritesChanged, receive(t, tab1).Type)
	assert.Equal(t, EventFavoritesChanged, receive(t, tab2).Type)

	m.Disconnect(tab1)
	assert.Equal(t, 1, m.ClientCount())
}
