package tailer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/watcher"
)

// Tailer reads newly appended lines from watched files and emits RawLine
// values in write order.
type Tailer struct {
	mu        sync.Mutex
	files     map[string]*trackedFile
	out       chan model.RawLine
	ckpt      *Checkpoint
	events    <-chan watcher.Event
	watch     *watcher.Watcher
	fromStart bool
}

type trackedFile struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	offset int64  // end of the last complete line emitted
	buf    string // partial line buffer
}

// New creates a Tailer that reads events from the given Watcher. Files with
// no checkpoint start at their end unless fromStart is set.
func New(w *watcher.Watcher, ckpt *Checkpoint, fromStart bool) *Tailer {
	return &Tailer{
		files:     make(map[string]*trackedFile),
		out:       make(chan model.RawLine, 512),
		ckpt:      ckpt,
		events:    w.Events,
		watch:     w,
		fromStart: fromStart,
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start begins processing watcher events. Blocks until context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	// Open all initially watched files and catch up on anything unread.
	for _, p := range t.watch.Paths() {
		t.openFile(p, t.fromStart)
		t.readNewLines(ctx, p)
	}

	// Periodic checkpoint save.
	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

// handleEvent dispatches watcher events to the appropriate handler.
func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Create != 0:
		// A new log: read it from the beginning.
		t.closeFile(ev.Path)
		t.ckpt.Forget(ev.Path)
		t.openFile(ev.Path, true)
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Write != 0:
		t.openFile(ev.Path, true)
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		t.closeFile(ev.Path)
		t.ckpt.Forget(ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed offset.
// Without a checkpoint it starts at the beginning or the end per fromStart.
func (t *Tailer) openFile(path string, fromStart bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("cannot open %s: %v", path, err)
		return
	}

	var offset int64
	if saved, ok := t.ckpt.Get(path); ok {
		offset = saved
	} else if !fromStart {
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	if info, err := f.Stat(); err == nil && info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		log.Printf("cannot seek %s: %v", path, err)
		f.Close()
		return
	}

	t.files[path] = &trackedFile{
		path:   path,
		file:   f,
		reader: bufio.NewReaderSize(f, 64*1024),
		offset: offset,
	}
}

// readNewLines reads to EOF and emits complete lines. A trailing line with
// no newline yet is held back until the rest of it is written.
func (t *Tailer) readNewLines(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	if info, err := tf.file.Stat(); err == nil && info.Size() < tf.offset+int64(len(tf.buf)) {
		log.Printf("%s was truncated, reading from the start", path)
		if _, err := tf.file.Seek(0, io.SeekStart); err != nil {
			log.Printf("cannot seek %s: %v", path, err)
			return
		}
		tf.reader.Reset(tf.file)
		tf.offset, tf.buf = 0, ""
	}

	for {
		chunk, err := tf.reader.ReadString('\n')
		if err != nil {
			tf.buf += chunk
			if !errors.Is(err, io.EOF) {
				log.Printf("read error on %s: %v", path, err)
			}
			break
		}
		line := tf.buf + chunk
		tf.buf = ""
		tf.offset += int64(len(line))

		select {
		case t.out <- model.RawLine{Text: strings.TrimRight(line, "\r\n"), Source: path}:
		case <-ctx.Done():
			return
		}
	}

	t.ckpt.Set(path, tf.offset)
}

// closeFile releases a tracked file.
func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// saveCheckpoint persists the current offsets to disk.
func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		log.Printf("checkpoint save failed: %v", err)
	}
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}

// Replay reads a whole file into a channel of RawLines, closing it at EOF.
// It is the batch counterpart to Start for files that are no longer written.
func Replay(ctx context.Context, path string) (<-chan model.RawLine, <-chan error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	out := make(chan model.RawLine, 512)
	errc := make(chan error, 1)
	go func() {
		defer f.Close()
		defer close(out)
		defer close(errc)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			select {
			case out <- model.RawLine{Text: strings.TrimRight(scanner.Text(), "\r"), Source: path}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- fmt.Errorf("read %s: %w", path, err)
		}
	}()
	return out, errc, nil
}
