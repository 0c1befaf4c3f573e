package datasource

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	channerics "github.com/niceyeti/channerics/channels"

	"github.com/holycrab/minerview/internal/telemetry"
)

// Watcher tails a JSON-lines telemetry feed written by an external
// simulation and forwards each line, in file order, as a Sample.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once

	out    *telemetry.Channel
	logger *slog.Logger

	// Owned by pump.
	offset  int64
	partial []byte
	reset   atomic.Bool
}

// NewWatcher starts tailing path into out. Lines already in the file are
// forwarded first. It watches the parent directory so the feed may be
// created or replaced after startup.
func NewWatcher(path string, out *telemetry.Channel, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		path:     path,
		debounce: 50 * time.Millisecond,
		onChange: make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		out:      out,
		logger:   logger,
	}
	watcher.onChange <- struct{}{}

	go watcher.loop()
	go watcher.pump()
	return watcher, nil
}

// Stopped is closed once the watcher has stopped forwarding, either after
// Close or because the consumer closed the channel.
func (w *Watcher) Stopped() <-chan struct{} {
	return w.stopped
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.reset.Store(true)
			}
			// Debounce: reset timer on each write.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case w.onChange <- struct{}{}:
				default: // already signaled, skip
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("feed watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) pump() {
	defer close(w.stopped)
	var changes <-chan struct{} = w.onChange
	for range channerics.OrDone(w.done, changes) {
		if stop := w.drain(); stop {
			return
		}
	}
}

// drain forwards every complete line appended since the last call and
// reports whether the consumer has gone away.
func (w *Watcher) drain() bool {
	if w.reset.Swap(false) {
		w.offset, w.partial = 0, nil
	}

	f, err := os.Open(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("open feed", "path", w.path, "err", err)
		}
		return false
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < w.offset {
		// Truncated: start over.
		w.offset, w.partial = 0, nil
	}
	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		w.logger.Warn("seek feed", "path", w.path, "err", err)
		return false
	}
	data, err := io.ReadAll(f)
	if err != nil {
		w.logger.Warn("read feed", "path", w.path, "err", err)
	}
	w.offset += int64(len(data))

	buf := append(w.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(buf[:i])
		buf = buf[i+1:]
		if len(line) == 0 {
			continue
		}
		var s telemetry.Sample
		if err := json.Unmarshal(line, &s); err != nil {
			w.logger.Warn("skipping malformed feed line", "line", string(line), "err", err)
			continue
		}
		if err := w.out.Send(s); err != nil {
			w.logger.Info("telemetry channel closed, feed stopped", "path", w.path)
			return true
		}
	}
	w.partial = append([]byte(nil), buf...)
	return false
}
