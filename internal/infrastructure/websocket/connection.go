package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the frame format pushed to clients.
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Connection wraps a gorilla websocket connection. Room broadcasts and
// direct replies may race, so writes are serialized with a mutex.
type Connection struct {
	conn      *websocket.Conn
	clientID  string
	writeLock sync.Mutex
}

func NewConnection(conn *websocket.Conn, clientID string) *Connection {
	return &Connection{
		conn:     conn,
		clientID: clientID,
	}
}

func (c *Connection) Send(event string, payload interface{}) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteJSON(envelope{Event: event, Data: payload})
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) ClientID() string {
	return c.clientID
}
