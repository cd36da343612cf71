package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	clientBufferSize = 100
	eventBufferSize  = 1000

	// DefaultHeartbeatInterval is how often idle clients receive a heartbeat.
	DefaultHeartbeatInterval = 30 * time.Second
)

// Client is a connected SSE stream belonging to one user.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	UserID      string
}

// Manager routes events to the streams of the user they belong to. A user
// may have several streams open (one per browser tab).
type Manager struct {
	logger            *slog.Logger
	queue             chan Event
	heartbeatInterval time.Duration
	loop              sync.WaitGroup

	mu     sync.RWMutex
	byUser map[string]map[string]*Client // userID -> clientID -> client

	// stateMu guards closed and the close of queue.
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager. Call Start to begin delivering events.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:            logger,
		queue:             make(chan Event, eventBufferSize),
		heartbeatInterval: DefaultHeartbeatInterval,
		byUser:            make(map[string]map[string]*Client),
	}
}

// Start delivers queued events until ctx is done or Shutdown closes the
// queue. Heartbeats go to every stream.
func (m *Manager) Start(ctx context.Context) {
	m.loop.Add(1)
	defer m.loop.Done()

	m.logger.Info("SSE manager starting")

	heartbeat := time.NewTicker(m.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				m.disconnectAll()
				return
			}
			m.deliver(event)

		case <-heartbeat.C:
			m.deliver(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.markClosed()
			m.disconnectAll()
			return
		}
	}
}

// Shutdown stops accepting events, drains the queue and disconnects every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.markClosed() {
		return nil
	}

	drained := make(chan struct{})
	go func() {
		m.loop.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		m.logger.Info("SSE manager shutdown complete")
	case <-ctx.Done():
		m.logger.Warn("SSE shutdown timed out, some events may be lost")
	}

	// Start may never have run.
	m.disconnectAll()
	return nil
}

// markClosed closes the queue once. It reports whether this call closed it.
func (m *Manager) markClosed() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.closed {
		return false
	}
	m.closed = true
	close(m.queue)
	return true
}

// deliver hands event to its user's streams, or to every stream when the
// event has no user. A full client buffer drops the event for that client.
func (m *Manager) deliver(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var delivered, dropped int
	send := func(c *Client) {
		select {
		case c.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", c.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.UserID == "" {
		for _, clients := range m.byUser {
			for _, c := range clients {
				send(c)
			}
		}
	} else {
		for _, c := range m.byUser[event.UserID] {
			send(c)
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event delivered",
			slog.String("event_type", string(event.Type)),
			slog.String("user_id", event.UserID),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	}
}

// Connect registers a stream for userID.
func (m *Manager) Connect(userID string) *Client {
	client := &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	streams, ok := m.byUser[userID]
	if !ok {
		streams = make(map[string]*Client)
		m.byUser[userID] = streams
	}
	streams[client.ID] = client
	open := len(streams)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", client.ID),
		slog.String("user_id", userID),
		slog.Int("user_streams", open))
	return client
}

// Disconnect removes a stream and closes its channels. Unknown clients are ignored.
func (m *Manager) Disconnect(client *Client) {
	m.mu.Lock()
	streams := m.byUser[client.UserID]
	if _, ok := streams[client.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(streams, client.ID)
	if len(streams) == 0 {
		delete(m.byUser, client.UserID)
	}
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", client.ID),
		slog.String("user_id", client.UserID),
		slog.Duration("duration", time.Since(client.ConnectedAt)))
}

// Emit queues event for delivery. Events are dropped once the manager is
// closed or when the queue is full.
func (m *Manager) Emit(event Event) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.queue <- event:
	default:
		m.logger.Error("SSE event queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, streams := range m.byUser {
		n += len(streams)
	}
	return n
}

// IsRunning reports whether the manager still accepts events.
func (m *Manager) IsRunning() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return !m.closed
}

func (m *Manager) disconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, streams := range m.byUser {
		for _, c := range streams {
			close(c.Done)
			close(c.EventChan)
		}
	}
	m.byUser = make(map[string]map[string]*Client)

	m.logger.Info("all SSE clients disconnected")
}
