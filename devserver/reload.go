package devserver

import (
	"bytes"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadPath is the WebSocket endpoint browsers connect to.
const ReloadPath = "/__reload"

const writeWait = 5 * time.Second

// Message is sent to every connected browser. Path names the changed file
// that caused a reload, if known.
type Message struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// FullReload asks clients to reload the page.
var FullReload = Message{Type: "full-reload"}

// Hub tracks connected live-reload clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Pages may be opened via any host name that reaches the server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Reload client upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		// Clients never send anything; reading only detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends msg to all clients and returns how many received it.
// Clients that fail to receive it are dropped.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Dropping reload client %s: %v", conn.RemoteAddr(), err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
}

const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  function connect() {
    var ws = new WebSocket(proto + "//" + location.host + "` + ReloadPath + `");
    ws.onmessage = function (e) {
      if (JSON.parse(e.data).type === "full-reload") location.reload();
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>
`

// InjectReloadScript inserts the live-reload client before the closing
// body tag, or appends it when there is none.
func InjectReloadScript(html []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(html), []byte("</body>"))
	if idx < 0 {
		return append(append([]byte{}, html...), reloadScript...)
	}
	out := make([]byte, 0, len(html)+len(reloadScript))
	out = append(out, html[:idx]...)
	out = append(out, reloadScript...)
	out = append(out, html[idx:]...)
	return out
}
