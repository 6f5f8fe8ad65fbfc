package sse

import (
	"context"
	"sync"

	"club-pos/internal/models"
)

// SessionEventEmitter manages SSE connections and event broadcasting for
// the live dashboard
type SessionEventEmitter struct {
	// Feed clients get every session event in the club
	feedClients     []chan models.SessionEvent
	feedClientMutex sync.RWMutex

	// Table channel clients map - key: table name, value: slice of client channels
	tableClients     map[string][]chan models.SessionEvent
	tableClientMutex sync.RWMutex
}

// NewSessionEventEmitter creates a new SSE event emitter for session events
func NewSessionEventEmitter() *SessionEventEmitter {
	return &SessionEventEmitter{
		feedClients:  []chan models.SessionEvent{},
		tableClients: make(map[string][]chan models.SessionEvent),
	}
}

// SubscribeToFeed adds a client to the club-wide session feed
func (e *SessionEventEmitter) SubscribeToFeed(ctx context.Context) chan models.SessionEvent {
	clientChan := make(chan models.SessionEvent, 10)

	e.feedClientMutex.Lock()
	e.feedClients = append(e.feedClients, clientChan)
	e.feedClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeFeedClient(clientChan)
	}()

	return clientChan
}

// SubscribeToTable adds a client to one table's session events
func (e *SessionEventEmitter) SubscribeToTable(ctx context.Context, table string) chan models.SessionEvent {
	clientChan := make(chan models.SessionEvent, 10)

	e.tableClientMutex.Lock()
	if e.tableClients[table] == nil {
		e.tableClients[table] = []chan models.SessionEvent{}
	}
	e.tableClients[table] = append(e.tableClients[table], clientChan)
	e.tableClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeTableClient(table, clientChan)
	}()

	return clientChan
}

// Emit broadcasts a session event to all subscribed clients
func (e *SessionEventEmitter) Emit(event models.SessionEvent) {
	e.feedClientMutex.RLock()
	feedClients := make([]chan models.SessionEvent, len(e.feedClients))
	copy(feedClients, e.feedClients)
	e.feedClientMutex.RUnlock()

	for _, clientChan := range feedClients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- event:
			// Successfully sent
		default:
			// Channel buffer full, skip this client for now
		}
	}

	e.tableClientMutex.RLock()
	tableClients := e.tableClients[event.Table]
	e.tableClientMutex.RUnlock()

	for _, clientChan := range tableClients {
		select {
		case clientChan <- event:
		default:
		}
	}
}

// Helper methods to remove clients when they disconnect
func (e *SessionEventEmitter) removeFeedClient(clientChan chan models.SessionEvent) {
	e.feedClientMutex.Lock()
	defer e.feedClientMutex.Unlock()

	for i, ch := range e.feedClients {
		if ch == clientChan {
			e.feedClients = append(e.feedClients[:i], e.feedClients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

func (e *SessionEventEmitter) removeTableClient(table string, clientChan chan models.SessionEvent) {
	e.tableClientMutex.Lock()
	defer e.tableClientMutex.Unlock()

	clients := e.tableClients[table]
	for i, ch := range clients {
		if ch == clientChan {
			e.tableClients[table] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	// Clean up map entry if no more clients
	if len(e.tableClients[table]) == 0 {
		delete(e.tableClients, table)
	}
}

// GetFeedClientCount returns the number of clients on the club-wide feed
func (e *SessionEventEmitter) GetFeedClientCount() int {
	e.feedClientMutex.RLock()
	defer e.feedClientMutex.RUnlock()
	return len(e.feedClients)
}

// GetTableClientCount returns the number of clients watching one table
func (e *SessionEventEmitter) GetTableClientCount(table string) int {
	e.tableClientMutex.RLock()
	defer e.tableClientMutex.RUnlock()
	return len(e.tableClients[table])
}
