package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/4cecoder/shipsync/protocol"
)

var dialer = websocket.Dialer{
	Proxy:             http.ProxyFromEnvironment,
	HandshakeTimeout:  10 * time.Second,
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: false, // Disable compression
}

const (
	writeWait       = 10 * time.Second
	maxFrameSize    = 1 << 20
	defaultKeepOpen = 60 * time.Second
)

func dial(url, clientID string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("X-Client-ID", clientID)
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(defaultKeepOpen))
	return conn, nil
}

// keepAlive returns how long the connection may stay silent, per the
// engine.io handshake.
func keepAlive(data json.RawMessage) time.Duration {
	var hs protocol.Handshake
	if err := json.Unmarshal(data, &hs); err != nil || hs.PingInterval <= 0 {
		return defaultKeepOpen
	}
	return time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
}

func writeFrame(conn *websocket.Conn, frame []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func closeConn(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return conn.Close()
}
