// Package trace records one compressed JSON line per tick: what the core saw
// and which orders it gave.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Entry is one traced tick.
type Entry struct {
	Iteration int             `json:"iteration"`
	GameTime  float64         `json:"gameTime"`
	Mode      string          `json:"mode,omitempty"`
	Faults    map[string]int  `json:"faults,omitempty"`
	Commands  []model.Command `json:"commands"`
}

// Writer appends entries to a zstd-compressed JSONL stream.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens a new trace file under dir, named after player and the
// current time.
func Create(dir, player string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trace dir: %w", err)
	}
	if player == "" {
		player = "unknown"
	}
	name := fmt.Sprintf("%s-%s.jsonl.zst", player, time.Now().UTC().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	w, err := newWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewWriter writes the trace to out. Close flushes but does not close out.
func NewWriter(out io.Writer) (*Writer, error) {
	return newWriter(out)
}

func newWriter(out io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return &Writer{enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Record appends e. Entries are buffered; they reach the file on Close.
func (w *Writer) Record(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("trace closed")
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	var first error
	if err := w.w.Flush(); err != nil {
		first = err
	}
	if err := w.enc.Close(); err != nil && first == nil {
		first = err
	}
	if w.f != nil {
		if err := w.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.w, w.enc, w.f = nil, nil, nil
	return first
}

// Read decodes every entry of a trace stream.
func Read(in io.Reader) ([]Entry, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	var out []Entry
	jd := json.NewDecoder(dec)
	for jd.More() {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			return out, fmt.Errorf("decode entry %d: %w", len(out), err)
		}
		out = append(out, e)
	}
	return out, nil
}
