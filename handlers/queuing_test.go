package handlers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMessageQueueFIFO(t *testing.T) {
	mq := NewMessageQueue("")
	for _, m := range []string{"a", "b", "c"} {
		if err := mq.Enqueue("c1", []byte(m)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if mq.QueueSize("c1") != 3 {
		t.Fatalf("expected 3 queued, got %d", mq.QueueSize("c1"))
	}
	got := mq.Drain("c1")
	if len(got) != 3 || string(got[0]) != "a" || string(got[1]) != "b" || string(got[2]) != "c" {
		t.Fatalf("drain: %q", got)
	}
	if mq.QueueSize("c1") != 0 || len(mq.Drain("c1")) != 0 {
		t.Fatalf("expected empty queue after drain")
	}
}

func TestMessageQueueCopiesInput(t *testing.T) {
	mq := NewMessageQueue("")
	buf := []byte("frame")
	_ = mq.Enqueue("c1", buf)
	buf[0] = 'X'
	got := mq.Drain("c1")
	if len(got) != 1 || string(got[0]) != "frame" {
		t.Fatalf("queued frame aliased caller buffer: %q", got)
	}
}

func TestMessageQueuePersistence(t *testing.T) {
	dir := t.TempDir()
	mq := NewMessageQueue(dir)
	_ = mq.Enqueue("c1", []byte("one"))
	_ = mq.Enqueue("c1", []byte("two"))

	files, err := os.ReadDir(filepath.Join(dir, "c1"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 persisted frames, got %d", len(files))
	}

	_ = mq.Drain("c1")
	files, _ = os.ReadDir(filepath.Join(dir, "c1"))
	if len(files) != 0 {
		t.Fatalf("expected no persisted frames after drain, got %d", len(files))
	}

	_ = mq.Enqueue("c1", []byte("three"))
	mq.ClearQueue("c1")
	files, _ = os.ReadDir(filepath.Join(dir, "c1"))
	if len(files) != 0 || mq.QueueSize("c1") != 0 {
		t.Fatalf("clear left %d files", len(files))
	}
}
