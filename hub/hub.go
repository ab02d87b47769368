package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ordengo/floor-api/utils"
)

// Event types
const (
	EventTableFreed           = "table_freed"
	EventTableUpdated         = "table_updated"
	EventNewOrder             = "new_order"
	EventOrderStatusUpdate    = "order_status_update"
	EventOrderUpdated         = "order_updated"
	EventNewNotification      = "new_notification"
	EventNotificationResolved = "notification_resolved"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// TenantChannel is the staff/kitchen audience of one restaurant.
func TenantChannel(restaurantID uint) string {
	return fmt.Sprintf("tenant:%d", restaurantID)
}

// TableChannel is the guest-facing tablet audience of one table.
func TableChannel(tableID uint) string {
	return fmt.Sprintf("table:%d", tableID)
}

// FloorHub holds every connected client and the channels it subscribed to.
// Delivery is best-effort: there is no queueing and no replay, a client that
// reconnects must re-fetch current state.
type FloorHub struct {
	clients map[*websocket.Conn]map[string]bool
	mutex   sync.Mutex
}

var floorHub = FloorHub{
	clients: make(map[*websocket.Conn]map[string]bool),
}

// RegisterClient adds a connection subscribed to the given channels.
func RegisterClient(conn *websocket.Conn, channels ...string) {
	floorHub.mutex.Lock()
	defer floorHub.mutex.Unlock()

	subs := make(map[string]bool, len(channels))
	for _, ch := range channels {
		subs[ch] = true
	}
	floorHub.clients[conn] = subs
}

// UnregisterClient releases a connection.
func UnregisterClient(conn *websocket.Conn) {
	floorHub.mutex.Lock()
	defer floorHub.mutex.Unlock()
	delete(floorHub.clients, conn)
	conn.Close()
}

// Publish sends a message to every client subscribed to the channel. Callers
// must publish only after their unit of work committed, so subscribers never
// observe a write that later rolled back.
func Publish(channel string, msg Message) {
	floorHub.mutex.Lock()
	defer floorHub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling hub message: %v", err)
		return
	}

	for conn, subs := range floorHub.clients {
		if !subs[channel] {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending to subscriber of %s: %v", channel, err)
		}
	}
}

// ClientCount reports connected clients, used by tests and the health endpoint.
func ClientCount() int {
	floorHub.mutex.Lock()
	defer floorHub.mutex.Unlock()
	return len(floorHub.clients)
}
