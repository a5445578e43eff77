package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/4cecoder/shipsync/handlers"
)

// Record is one line of a recording.
type Record struct {
	T     time.Time       `json:"t"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Writer appends inbound events to a zstd-compressed JSONL file.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	now func() time.Time
}

func FileName(t time.Time) string {
	return "events-" + t.UTC().Format("20060102-150405") + ".jsonl.zst"
}

func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriter(enc), now: time.Now}, nil
}

func (w *Writer) Record(event string, data json.RawMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("recorder closed")
	}

	b, err := json.Marshal(Record{T: w.now().UTC(), Event: event, Data: data})
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	var errs []error
	errs = append(errs, w.w.Flush(), w.enc.Close(), w.f.Close())
	w.w, w.enc, w.f = nil, nil, nil
	return errors.Join(errs...)
}

type Reader struct {
	f       *os.File
	dec     *zstd.Decoder
	scanner *bufio.Scanner
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	return &Reader{f: f, dec: dec, scanner: scanner}, nil
}

// Next returns the next record, or io.EOF at the end of the recording.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return rec, err
		}
		return rec, io.EOF
	}
	if err := json.Unmarshal(r.scanner.Bytes(), &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// Replay feeds a recording into out and closes it when done. With paced
// set, the original gaps between events are kept.
func Replay(ctx context.Context, path string, out chan<- handlers.Event, paced bool) error {
	defer close(out)
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var last time.Time
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if paced && !last.IsZero() {
			if gap := rec.T.Sub(last); gap > 0 {
				select {
				case <-time.After(gap):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		last = rec.T

		select {
		case out <- handlers.Event{Name: rec.Event, Data: rec.Data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
