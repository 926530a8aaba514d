package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/watcher"
)

func startTail(t *testing.T, logPath string, fromStart bool) (*Tailer, context.CancelFunc) {
	t.Helper()
	w, err := watcher.New([]string{logPath})
	if err != nil {
		t.Fatal(err)
	}

	ckpt, err := NewCheckpoint(filepath.Join(filepath.Dir(logPath), ".esoloom-state.json"))
	if err != nil {
		t.Fatal(err)
	}

	tail := New(w, ckpt, fromStart)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	go tail.Start(ctx)

	// Give the tailer a moment to initialize and seek.
	time.Sleep(300 * time.Millisecond)
	return tail, func() {
		// Cancel and allow goroutines to stop before TempDir cleanup.
		cancel()
		time.Sleep(200 * time.Millisecond)
	}
}

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(text)
	f.Close()
}

func next(t *testing.T, tail *Tailer) model.RawLine {
	t.Helper()
	select {
	case raw := <-tail.Lines():
		return raw
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for line")
	}
	return model.RawLine{}
}

func TestTailNewLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "Encounter.log")
	if err := os.WriteFile(logPath, []byte("0,BEGIN_COMBAT\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tail, stop := startTail(t, logPath, false)
	defer stop()

	// Append a new line; it should be picked up.
	appendTo(t, logPath, "100,END_COMBAT\n")

	raw := next(t, tail)
	if raw.Text != "100,END_COMBAT" {
		t.Errorf("expected '100,END_COMBAT', got %q", raw.Text)
	}
	if raw.Source != logPath {
		t.Errorf("expected source %q, got %q", logPath, raw.Source)
	}
}

func TestTailFromStart(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "Encounter.log")
	if err := os.WriteFile(logPath, []byte("0,BEGIN_COMBAT\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tail, stop := startTail(t, logPath, true)
	defer stop()

	if raw := next(t, tail); raw.Text != "0,BEGIN_COMBAT" {
		t.Errorf("expected existing line with CR stripped, got %q", raw.Text)
	}
}

func TestTailHoldsPartialLine(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "Encounter.log")
	if err := os.WriteFile(logPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tail, stop := startTail(t, logPath, false)
	defer stop()

	appendTo(t, logPath, `100,ZONE_CHANGED,1000,"Sun`)
	select {
	case raw := <-tail.Lines():
		t.Fatalf("expected partial line to be held back, got %q", raw.Text)
	case <-time.After(300 * time.Millisecond):
	}

	appendTo(t, logPath, "spire\",VETERAN\n")
	if raw := next(t, tail); raw.Text != `100,ZONE_CHANGED,1000,"Sunspire",VETERAN` {
		t.Errorf("expected joined line, got %q", raw.Text)
	}
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "Encounter.log")
	if err := os.WriteFile(logPath, []byte("1,BEGIN_COMBAT\n\n2,END_COMBAT"), 0644); err != nil {
		t.Fatal(err)
	}

	lines, errc, err := Replay(context.Background(), logPath)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for raw := range lines {
		got = append(got, raw.Text)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "1,BEGIN_COMBAT" || got[1] != "" || got[2] != "2,END_COMBAT" {
		t.Errorf("expected three lines in order, got %q", got)
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, _, err := Replay(context.Background(), filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCheckpointSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.json")

	// Create and save checkpoint.
	c1, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Set("/logs/Encounter.log", 42)
	c1.Set("/logs/Encounter-old.log", 1024)
	c1.Set("/logs/gone.log", 7)
	c1.Forget("/logs/gone.log")
	if err := c1.Save(); err != nil {
		t.Fatal(err)
	}

	// Load checkpoint in a new instance.
	c2, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	v1, ok := c2.Get("/logs/Encounter.log")
	if !ok || v1 != 42 {
		t.Errorf("expected 42, got %d (found=%v)", v1, ok)
	}

	v2, ok := c2.Get("/logs/Encounter-old.log")
	if !ok || v2 != 1024 {
		t.Errorf("expected 1024, got %d (found=%v)", v2, ok)
	}

	if _, ok = c2.Get("/logs/gone.log"); ok {
		t.Error("expected forgotten key to return false")
	}
}

func TestCheckpointInMemory(t *testing.T) {
	c, err := NewCheckpoint("")
	if err != nil {
		t.Fatal(err)
	}
	c.Set("a", 1)
	if err := c.Save(); err != nil {
		t.Errorf("expected in-memory save to succeed, got %v", err)
	}
}

func TestCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCheckpoint(path); err == nil {
		t.Error("expected error for corrupt checkpoint")
	}
}
