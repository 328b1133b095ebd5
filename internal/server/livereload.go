package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/reqaz/internal/metrics"
)

// Live reload endpoints. The script path is what the livereload modifier injects.
const (
	LiveReloadEventsPath = "/_reqaz/livereload"
	LiveReloadScriptPath = "/_reqaz/livereload.js"
)

const liveReloadHeartbeat = 30 * time.Second

// LiveReloadHub manages SSE clients for change broadcasts.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	lastHash string
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates a hub seeded with a startup hash, so every client
// learns a baseline on connect and reloads on the first real change.
func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	return &LiveReloadHub{
		clients:  map[int]*lrClient{},
		recorder: metrics.OrNoop(rec),
		lastHash: changeHash(time.Now()),
	}
}

// changeHash derives a broadcast hash from the time of a change.
func changeHash(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

// ClientCount returns the number of connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP implements the SSE endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	count := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLiveReloadClients(count)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write", "error", err)
			return false
		}
		if err := bw.Flush(); err != nil {
			slog.Debug("livereload flush", "error", err)
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n" + hashEvent(current)) {
		h.removeClient(client.id)
		return
	}

	hb := time.NewTicker(liveReloadHeartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				h.removeClient(client.id)
				return
			}
		case hash := <-client.ch:
			if !send(hashEvent(hash)) {
				h.removeClient(client.id)
				return
			}
		}
	}
}

func hashEvent(hash string) string {
	return "data: {\"hash\":\"" + hash + "\"}\n\n"
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetLiveReloadClients(count)
	}
}

// Broadcast sends hash to all clients. Clients whose buffers are full are dropped.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.recorder.IncLiveReloadBroadcast()
	slog.Debug("livereload broadcast", "hash", hash, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}

// serveLiveReloadScript serves the client that reloads the page on change events.
func serveLiveReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(liveReloadScript))
}

const liveReloadScript = `(() => {
  if (window.__REQAZ_LR__) return;
  window.__REQAZ_LR__ = true;
  function connect() {
    const es = new EventSource('` + LiveReloadEventsPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash && p.hash !== current) {
          console.log('[reqaz] change detected, reloading');
          location.reload();
        }
      } catch (_) {}
    };
    es.onerror = () => {
      console.warn('[reqaz] livereload error - retrying');
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`
