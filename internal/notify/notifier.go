package notify

import (
	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/poolup/ride-sharing/pkg/websocket"
)

// Notifier is the best-effort event sink the services publish lifecycle
// events into. Delivery failures are logged and swallowed; the state
// mutation that produced the event is already committed and authoritative.
type Notifier interface {
	// ToUser sends an event to a specific connected user
	ToUser(userID uuid.UUID, event string, data map[string]interface{})

	// ToDashboard broadcasts an event to dashboard clients
	ToDashboard(event string, data map[string]interface{})
}

// HubNotifier delivers events over the WebSocket hub
type HubNotifier struct {
	hub    *websocket.Hub
	logger *logger.Logger
}

// NewHubNotifier creates a hub-backed notifier
func NewHubNotifier(hub *websocket.Hub, logger *logger.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

// ToUser sends an event to a specific connected user
func (n *HubNotifier) ToUser(userID uuid.UUID, event string, data map[string]interface{}) {
	n.hub.SendToUser(userID.String(), map[string]interface{}{
		"type": event,
		"data": data,
	})
}

// ToDashboard broadcasts an event to dashboard clients
func (n *HubNotifier) ToDashboard(event string, data map[string]interface{}) {
	n.hub.BroadcastToType("dashboard", map[string]interface{}{
		"type": event,
		"data": data,
	})
}

// Nop is a notifier that drops everything, used where no hub is wired
type Nop struct{}

// ToUser drops the event
func (Nop) ToUser(uuid.UUID, string, map[string]interface{}) {}

// ToDashboard drops the event
func (Nop) ToDashboard(string, map[string]interface{}) {}
