package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetActiveConnections() == n }, time.Second, 5*time.Millisecond)
}

// TestHub_Routing tests delivery by user, user type and ride subscription
func TestHub_Routing(t *testing.T) {
	hub := startHub(t)
	log := logger.NewNop()

	rider := NewClient(hub, nil, "rider-1", UserTypeRider, log)
	driverA := NewClient(hub, nil, "driver-1", UserTypeDriver, log)
	driverB := NewClient(hub, nil, "driver-2", UserTypeDriver, log)
	for _, c := range []*Client{rider, driverA, driverB} {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)
	assert.Equal(t, 2, hub.GetClientsByUserType(UserTypeDriver))

	rider.Subscribe("ride-9")
	rider.Subscribe("")
	assert.True(t, rider.IsSubscribedToRide("ride-9"))
	assert.False(t, rider.IsSubscribedToRide(""))

	assert.Equal(t, 2, hub.BroadcastToType(UserTypeDriver, Message{Type: "ride.requested"}))
	assert.Equal(t, 1, hub.SendToUser("driver-2", Message{Type: "offer.accepted"}))
	assert.Equal(t, 1, hub.BroadcastToRide("ride-9", Message{Type: "ride.status_changed", Data: map[string]string{"status": "accepted"}}))
	assert.Equal(t, 0, hub.BroadcastToRide("ride-10", Message{Type: "ride.status_changed"}))

	var msg Message
	require.NoError(t, json.Unmarshal(<-rider.Send, &msg))
	assert.Equal(t, "ride.status_changed", msg.Type)

	assert.Len(t, driverA.Send, 1)
	assert.Len(t, driverB.Send, 2)

	hub.Unregister(driverA)
	waitForClients(t, hub, 2)
	_, open := <-driverA.Send
	for open {
		_, open = <-driverA.Send
	}
}

// TestHub_StoppedHubDoesNotBlock tests that Register and Unregister return once Run has exited
func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := NewClient(hub, nil, "rider-1", UserTypeRider, logger.NewNop())
	hub.Register(live)
	waitForClients(t, hub, 1)

	cancel()
	<-stopped
	assert.Equal(t, 0, hub.GetActiveConnections())

	late := NewClient(hub, nil, "driver-1", UserTypeDriver, logger.NewNop())
	returned := make(chan struct{})
	go func() {
		hub.Register(late)
		hub.Unregister(late)
		hub.Unregister(live)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked on a stopped hub")
	}

	_, open := <-late.Send
	assert.False(t, open, "late client should be closed")
	_, open = <-live.Send
	assert.False(t, open, "registered client should be closed by Run")
	assert.Equal(t, 0, hub.GetActiveConnections())
}

// TestClient_HandleMessage tests subscribe, unsubscribe, ping and malformed frames
func TestClient_HandleMessage(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := NewClient(hub, nil, "rider-1", UserTypeRider, logger.NewNop())

	c.handleMessage([]byte(`{"type":"subscribe","entity_id":"ride-1"}`))
	assert.True(t, c.IsSubscribedToRide("ride-1"))

	c.handleMessage([]byte(`{"type":"unsubscribe","entity_id":"ride-1"}`))
	assert.False(t, c.IsSubscribedToRide("ride-1"))

	c.handleMessage([]byte(`{"type":"ping"}`))
	c.handleMessage([]byte(`not json`))
	assert.Len(t, c.Send, 3)
}
