// Package handlers/client.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/4cecoder/shipsync/protocol"
)

// ErrGaveUp is returned by Run once every reconnect attempt has failed.
var ErrGaveUp = errors.New("maximum reconnect attempts reached")

type ClientConfig struct {
	URL               string
	ReconnectInterval time.Duration
	MaxRetryAttempts  int
}

// Client is the event socket to the game server. Inbound events are
// delivered in arrival order on Events(); Emit may be called from any
// goroutine.
type Client struct {
	ID                string
	URL               string
	Send              chan []byte
	reconnectInterval time.Duration
	maxRetryAttempts  int
	retryAttempts     int
	connected         atomic.Bool
	messageQueue      *MessageQueue
	EventQueue        chan Event

	dial func(url, clientID string) (*websocket.Conn, error)
}

func NewClient(cfg ClientConfig, messageQueue *MessageQueue) *Client {
	if messageQueue == nil {
		messageQueue = NewMessageQueue("")
	}
	return &Client{
		ID:                generateClientID(),
		URL:               cfg.URL,
		Send:              make(chan []byte, 256),
		reconnectInterval: cfg.ReconnectInterval,
		maxRetryAttempts:  cfg.MaxRetryAttempts,
		messageQueue:      messageQueue,
		EventQueue:        make(chan Event, 64),
		dial:              dial,
	}
}

func (c *Client) Events() <-chan Event {
	return c.EventQueue
}

// Emit encodes a socket.io event and queues it for the write pump.
func (c *Client) Emit(event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}
	return c.SendMessage(frame)
}

func (c *Client) SendMessage(message []byte) error {
	if !c.connected.Load() || c.messageQueue.QueueSize(c.ID) > 0 {
		return c.messageQueue.Enqueue(c.ID, message)
	}
	select {
	case c.Send <- message:
		return nil
	default:
		log.Printf("Send buffer is full, buffering message for client %s", c.ID)
		return c.messageQueue.Enqueue(c.ID, message)
	}
}

// Run keeps the socket up until ctx is done or reconnecting fails
// maxRetryAttempts times in a row. EventQueue is closed on return and any
// frames still queued for this client are dropped.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.EventQueue)
	defer c.messageQueue.ClearQueue(c.ID)
	for {
		err := c.serve(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.emitEvent(ctx, Event{Name: protocol.EventClose, Err: err})

		if c.retryAttempts >= c.maxRetryAttempts {
			log.Printf("Maximum reconnect attempts reached for client %s, disconnecting", c.ID)
			return fmt.Errorf("%w: %v", ErrGaveUp, err)
		}
		c.retryAttempts++
		log.Printf("Attempting to reconnect client %s (attempt %d/%d)", c.ID, c.retryAttempts, c.maxRetryAttempts)
		select {
		case <-time.After(c.reconnectInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// serve runs one connection until it drops. Engine control frames go
// through a channel owned by this connection so none outlive it.
func (c *Client) serve(ctx context.Context) error {
	conn, err := c.dial(c.URL, c.ID)
	if err != nil {
		c.emitEvent(ctx, Event{Name: protocol.EventError, Err: err})
		return err
	}

	connCtx, cancel := context.WithCancel(ctx)
	control := make(chan []byte, 8)
	writeDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer close(writeDone)
		c.WritePump(connCtx, conn, control)
	}()
	go func() {
		defer wg.Done()
		<-connCtx.Done()
		<-writeDone
		_ = closeConn(conn)
	}()

	err = c.ReadPump(connCtx, conn, control)
	c.connected.Store(false)
	cancel()
	wg.Wait()
	return err
}

func (c *Client) ReadPump(ctx context.Context, conn *websocket.Conn, control chan<- []byte) error {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Printf("websocket error: %v", err)
				c.emitEvent(ctx, Event{Name: protocol.EventError, Err: err})
			}
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		packet, err := protocol.Decode(message)
		if err != nil {
			log.Printf("Error decoding frame from server: %v", err)
			continue
		}
		if done, err := c.handlePacket(ctx, conn, control, packet); done {
			return err
		}
	}
}

// handlePacket deals with transport-level packets and forwards events. It
// reports true when the server ended the session.
func (c *Client) handlePacket(ctx context.Context, conn *websocket.Conn, control chan<- []byte, p protocol.Packet) (bool, error) {
	switch p.Kind {
	case protocol.KindOpen:
		_ = conn.SetReadDeadline(time.Now().Add(keepAlive(p.Data)))
		c.queueControl(control, protocol.ConnectFrame())
	case protocol.KindPing:
		_ = conn.SetReadDeadline(time.Now().Add(defaultKeepOpen))
		c.queueControl(control, protocol.PongFrame())
	case protocol.KindConnect:
		c.connected.Store(true)
		c.retryAttempts = 0
		c.emitEvent(ctx, Event{Name: protocol.EventOpen, Data: p.Data})
	case protocol.KindEvent:
		c.emitEvent(ctx, Event{Name: p.Event, Data: p.Data})
	case protocol.KindConnectError:
		err := fmt.Errorf("connect refused: %s", protocol.DecodeError(p.Data).Message)
		c.emitEvent(ctx, Event{Name: protocol.EventError, Err: err})
		return true, err
	case protocol.KindClose, protocol.KindDisconnect:
		return true, fmt.Errorf("server closed the session")
	}
	return false, nil
}

// WritePump writes control frames as they come. Event frames wait until
// the namespace is connected, so nothing goes out ahead of the connect.
func (c *Client) WritePump(ctx context.Context, conn *websocket.Conn, control <-chan []byte) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		var send <-chan []byte
		if c.connected.Load() {
			send = c.Send
		}
		select {
		case <-ctx.Done():
			return
		case frame := <-control:
			if err := writeFrame(conn, frame); err != nil {
				log.Printf("error writing control frame: %v", err)
				_ = conn.Close()
				return
			}
		case message := <-send:
			if err := writeFrame(conn, message); err != nil {
				log.Printf("error writing to websocket: %v", err)
				c.requeue(message)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if !c.connected.Load() {
				continue
			}
			backlog := c.messageQueue.Drain(c.ID)
			for i, message := range backlog {
				if err := writeFrame(conn, message); err != nil {
					log.Printf("Error resending message for client %s: %v", c.ID, err)
					c.requeue(backlog[i:]...)
					_ = conn.Close()
					return
				}
			}
		}
	}
}

// queueControl pushes engine.io control frames ahead of the backlog.
func (c *Client) queueControl(control chan<- []byte, frame []byte) {
	select {
	case control <- frame:
	default:
		log.Printf("Send buffer is full, dropping control frame for client %s", c.ID)
	}
}

func (c *Client) requeue(messages ...[]byte) {
	for _, message := range messages {
		if err := c.messageQueue.Enqueue(c.ID, message); err != nil {
			log.Println("error re-enqueueing message:", err)
			return
		}
	}
}

func (c *Client) emitEvent(ctx context.Context, event Event) {
	select {
	case c.EventQueue <- event:
	case <-ctx.Done():
	}
}

func generateClientID() string {
	// just use uuid for now
	return uuid.New().String()
}
