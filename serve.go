package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vl4deee11/predprey/sim"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// viewer is one websocket connection. Writes come from both the broadcaster
// and the handler, so they are serialized.
type viewer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (v *viewer) send(msg interface{}) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn.WriteJSON(msg)
}

// hub fans the published frames out to every websocket viewer.
type hub struct {
	width, height float64

	mu      sync.Mutex
	clients map[*viewer]struct{}
	last    *sim.Frame
}

func newHub(width, height float64) *hub {
	return &hub{
		width:   width,
		height:  height,
		clients: make(map[*viewer]struct{}),
	}
}

func (h *hub) broadcast(frames <-chan sim.Frame) {
	for f := range frames {
		frame := f

		h.mu.Lock()
		h.last = &frame
		viewers := make([]*viewer, 0, len(h.clients))
		for v := range h.clients {
			viewers = append(viewers, v)
		}
		h.mu.Unlock()

		for _, v := range viewers {
			if err := v.send(frame); err != nil {
				log.Printf("viewer send error: %v", err)
				h.drop(v)
			}
		}
	}
}

func (h *hub) drop(v *viewer) {
	h.mu.Lock()
	delete(h.clients, v)
	h.mu.Unlock()
	v.conn.Close()
}

func (h *hub) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.serveWS).Methods("GET")
	r.HandleFunc("/stats", h.stats).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("static")))
	return r
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	v := &viewer{conn: conn}
	h.mu.Lock()
	h.clients[v] = struct{}{}
	h.mu.Unlock()

	_ = v.send(map[string]interface{}{"type": "config", "w": h.width, "h": h.height})

	// viewers only watch; reading keeps the close handshake going
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(v)
}

// stats serves the overlay counts of the last published frame.
func (h *hub) stats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	var stats []sim.Stat
	if h.last != nil {
		stats = h.last.Stats
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Printf("stats encode error: %v", err)
	}
}

// listenFrom binds the first free port in base..base+tries-1. Port 0 asks
// the system for any free port.
func listenFrom(base, tries int) (net.Listener, error) {
	err := errors.Errorf("no ports to try from %d", base)
	for port := base; port < base+tries; port++ {
		var ln net.Listener
		if ln, err = net.Listen("tcp", fmt.Sprintf(":%d", port)); err == nil {
			return ln, nil
		}
		log.Printf("port %d unavailable: %v", port, err)
	}
	return nil, errors.Wrapf(err, "no free port in %d..%d", base, base+tries-1)
}

// serve blocks serving the viewer routes on ln.
func (h *hub) serve(ln net.Listener) error {
	log.Printf("viewer at http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)
	return errors.Wrap(http.Serve(ln, h.router()), "serve")
}
