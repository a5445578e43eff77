package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyFrame = errors.New("empty frame")

// Kind identifies an engine.io / socket.io packet.
type Kind int

const (
	KindOpen Kind = iota
	KindClose
	KindPing
	KindPong
	KindNoop
	KindConnect
	KindDisconnect
	KindEvent
	KindConnectError
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindNoop:
		return "noop"
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindEvent:
		return "event"
	case KindConnectError:
		return "connect_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Packet struct {
	Kind  Kind
	Event string
	Data  json.RawMessage
}

// Handshake is the payload of the engine.io open packet. Intervals are in
// milliseconds.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
}

var (
	framePong    = []byte("3")
	frameConnect = []byte("40")
)

func PongFrame() []byte {
	return framePong
}

func ConnectFrame() []byte {
	return frameConnect
}

// Encode builds a socket.io event frame: 42["event",payload].
func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("trying to encode event with empty name")
	}
	body, err := json.Marshal([]any{event, payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, '4', '2')
	return append(frame, body...), nil
}

func Decode(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, ErrEmptyFrame
	}
	rest := frame[1:]
	switch frame[0] {
	case '0':
		return Packet{Kind: KindOpen, Data: json.RawMessage(rest)}, nil
	case '1':
		return Packet{Kind: KindClose}, nil
	case '2':
		return Packet{Kind: KindPing, Data: json.RawMessage(rest)}, nil
	case '3':
		return Packet{Kind: KindPong, Data: json.RawMessage(rest)}, nil
	case '4':
		return decodeMessage(rest)
	case '6':
		return Packet{Kind: KindNoop}, nil
	default:
		return Packet{}, fmt.Errorf("unknown engine packet type %q", frame[0])
	}
}

func decodeMessage(b []byte) (Packet, error) {
	if len(b) == 0 {
		return Packet{}, ErrEmptyFrame
	}
	rest := skipNamespace(b[1:])
	switch b[0] {
	case '0':
		return Packet{Kind: KindConnect, Data: json.RawMessage(rest)}, nil
	case '1':
		return Packet{Kind: KindDisconnect}, nil
	case '2':
		return decodeEvent(skipAckID(rest))
	case '4':
		return Packet{Kind: KindConnectError, Data: json.RawMessage(rest)}, nil
	default:
		return Packet{}, fmt.Errorf("unsupported socket packet type %q", b[0])
	}
}

func decodeEvent(b []byte) (Packet, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return Packet{}, fmt.Errorf("decode event body: %w", err)
	}
	if len(parts) == 0 {
		return Packet{}, fmt.Errorf("event without a name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Packet{}, fmt.Errorf("decode event name: %w", err)
	}
	p := Packet{Kind: KindEvent, Event: name}
	if len(parts) > 1 {
		p.Data = parts[1]
	}
	return p, nil
}

// skipNamespace drops a leading "/nsp," prefix.
func skipNamespace(b []byte) []byte {
	if len(b) == 0 || b[0] != '/' {
		return b
	}
	i := bytes.IndexByte(b, ',')
	if i < 0 {
		return nil
	}
	return b[i+1:]
}

func skipAckID(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return b[i:]
}
