package serve

import (
	"context"
	"fmt"
	"geoblog/internal/domain/content"
	"github.com/fsnotify/fsnotify"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const reloadDebounce = 200 * time.Millisecond

// startWatch watches the article roots and tells connected editors to
// reload after a burst of changes settles. Nothing is cached, so there is
// nothing to rebuild.
func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		for _, dir := range s.dirs {
			if e := w.Add(dir); e != nil {
				err = fmt.Errorf("watch %s: %w", dir, e)
				return
			}
		}
		go s.watchLoop(ctx)
	})
	return err
}

// relevant skips temp files from atomic writes and anything not markdown.
func relevant(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.HasSuffix(base, content.Ext)
}

func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info().Strs("dirs", s.dirs).Msg("watching for article changes")
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	var changed []string
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !relevant(ev.Name) {
				continue
			}
			changed = append(changed, filepath.Base(ev.Name))
			debounce.Reset(reloadDebounce)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn().Err(err).Msg("watcher error")
		case <-debounce.C:
			s.log.Debug().Strs("files", changed).Msg("articles changed")
			changed = changed[:0]
			s.broadcastSSE("reload")
		}
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		close(ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}
