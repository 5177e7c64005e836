package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"storyreel/internal/batch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API binds to loopback; browser origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans progress records out to connected websocket clients. Slow or dead
// clients are dropped rather than allowed to stall a run.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *hub) broadcast(rec batch.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(rec); err != nil {
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}
