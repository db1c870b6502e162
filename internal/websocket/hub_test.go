package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id          string
	workspaceID int32
	messages    [][]byte
	mu          sync.Mutex
	closed      bool
}

func newMockClient(id string, workspaceID int32) *mockClient {
	return &mockClient{
		id:          id,
		workspaceID: workspaceID,
		messages:    make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) WorkspaceID() int32 {
	return m.workspaceID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", 1)
	client2 := newMockClient("client-2", 1)
	client3 := newMockClient("client-3", 2)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))
	assert.Equal(t, 0, hub.ClientCount(999))

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(1))
	assert.Equal(t, 0, hub.ClientCount(2))
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", 1)

	// Must not panic when the client was never registered
	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount(1))
}

func TestHub_BroadcastScopedToWorkspace(t *testing.T) {
	hub := NewHub()

	inWorkspace := newMockClient("client-1", 1)
	alsoIn := newMockClient("client-2", 1)
	outside := newMockClient("client-3", 2)

	hub.Register(inWorkspace)
	hub.Register(alsoIn)
	hub.Register(outside)

	event := LoanUpdated(map[string]interface{}{"id": 42})
	hub.Broadcast(1, event)

	require.Len(t, inWorkspace.GetMessages(), 1)
	require.Len(t, alsoIn.GetMessages(), 1)
	assert.Empty(t, outside.GetMessages())
}

func TestHub_BroadcastToEmptyWorkspace(t *testing.T) {
	hub := NewHub()

	// Must not panic with no registered clients
	hub.Broadcast(1, BillUpdated(nil))
}

func TestHub_BroadcastSkipsClosedClient(t *testing.T) {
	hub := NewHub()

	open := newMockClient("client-1", 1)
	closed := newMockClient("client-2", 1)
	closed.Close()

	hub.Register(open)
	hub.Register(closed)

	hub.Broadcast(1, LoanCreated(map[string]interface{}{"id": 7}))

	require.Len(t, open.GetMessages(), 1)
	assert.Empty(t, closed.GetMessages())
}

func TestHub_ConcurrentRegisterBroadcast(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client := newMockClient(string(rune('a'+n)), 1)
			hub.Register(client)
			hub.Broadcast(1, LoanLinePaid(map[string]interface{}{"sequence": n}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, hub.ClientCount(1))
}
