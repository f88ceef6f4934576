package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

func TestRecordAndRead(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		e := Entry{Iteration: i, GameTime: float64(i) / 22.4, Mode: "balanced"}
		if i == 2 {
			e.Commands = []model.Command{{Tag: 9, Kind: model.OrderMove, Target: model.Pt(1, 2)}}
		}
		if err := w.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Record(Entry{}); err == nil {
		t.Error("record after close should fail")
	}

	entries, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if got := entries[1].Commands; len(got) != 1 || got[0].Tag != 9 || got[0].Target != model.Pt(1, 2) {
		t.Errorf("commands = %+v", got)
	}
}

func TestCreateWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	w, err := Create(dir, "p1")
	if err != nil {
		t.Fatal(err)
	}
	w.Record(Entry{Iteration: 1})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "p1-*.jsonl.zst"))
	if len(matches) != 1 {
		t.Fatalf("trace files = %v", matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil || len(entries) != 1 {
		t.Errorf("entries = %v, %v", entries, err)
	}
}
