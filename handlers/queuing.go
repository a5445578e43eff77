// Package handlers queuing.go holds outbound frames that could not be written
// straight away, optionally mirroring them to the file system.
package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type queuedMessage struct {
	seq  uint64
	data []byte
}

type MessageQueue struct {
	mu       sync.Mutex
	dir      string
	seq      uint64
	messages map[string][]queuedMessage // map of client ID to message queue
}

// NewMessageQueue returns an in-memory queue. When dir is not empty every
// queued frame is also written under dir/<clientID>/ until it is dequeued.
func NewMessageQueue(dir string) *MessageQueue {
	return &MessageQueue{
		dir:      dir,
		messages: make(map[string][]queuedMessage),
	}
}

func (mq *MessageQueue) Enqueue(clientID string, message []byte) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	mq.seq++
	m := queuedMessage{seq: mq.seq, data: append([]byte(nil), message...)}
	mq.messages[clientID] = append(mq.messages[clientID], m)

	if err := mq.persistMessage(clientID, m); err != nil {
		log.Printf("Failed to persist message for client %s: %v", clientID, err)
		return fmt.Errorf("failed to persist message: %w", err)
	}
	return nil
}

// Drain removes and returns every queued frame for clientID, oldest first.
func (mq *MessageQueue) Drain(clientID string) [][]byte {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	messages := mq.messages[clientID]
	delete(mq.messages, clientID)
	out := make([][]byte, 0, len(messages))
	for _, m := range messages {
		mq.forget(clientID, m)
		out = append(out, m.data)
	}
	return out
}

func (mq *MessageQueue) persistMessage(clientID string, m queuedMessage) error {
	if mq.dir == "" {
		return nil
	}
	filePath := mq.path(clientID, m.seq)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err = os.WriteFile(filePath, m.data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write message to file: %w", err)
	}
	return nil
}

func (mq *MessageQueue) forget(clientID string, m queuedMessage) {
	if mq.dir == "" {
		return
	}
	if err := os.Remove(mq.path(clientID, m.seq)); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove persisted message for client %s: %v", clientID, err)
	}
}

func (mq *MessageQueue) path(clientID string, seq uint64) string {
	return filepath.Join(mq.dir, clientID, fmt.Sprintf("%020d", seq))
}

func (mq *MessageQueue) QueueSize(clientID string) int {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	return len(mq.messages[clientID])
}

// ClearQueue drops every queued frame for clientID, persisted copies included.
func (mq *MessageQueue) ClearQueue(clientID string) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	for _, m := range mq.messages[clientID] {
		mq.forget(clientID, m)
	}
	delete(mq.messages, clientID)
}
