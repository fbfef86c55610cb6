// Package progress pushes per-quiz progress snapshots to websocket
// subscribers. The engine publishes after every mutation, the hub fans out.
package progress

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/topaz-quiz/quizd/internal/quiz"
)

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan quiz.ProgressSnapshot
}

// Hub implements quiz.ProgressSink. Subscribers register per quiz file; slow
// or closed clients are dropped rather than blocking the grading path.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[string]*subscriber // quizFile -> subscriber id
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subs: map[string]map[string]*subscriber{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Publish fans a snapshot out to every subscriber of its quiz file.
func (h *Hub) Publish(snap quiz.ProgressSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[snap.QuizFile] {
		select {
		case sub.send <- snap:
		default:
			// Subscriber is not keeping up; close it out.
			go h.drop(snap.QuizFile, sub)
		}
	}
}

// ServeWS upgrades the request and streams snapshots for quizFile until the
// client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, quizFile string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("progress: upgrade failed: %v", err)
		return
	}
	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan quiz.ProgressSnapshot, 8),
	}

	h.mu.Lock()
	if h.subs[quizFile] == nil {
		h.subs[quizFile] = map[string]*subscriber{}
	}
	h.subs[quizFile][sub.id] = sub
	h.mu.Unlock()

	go h.writePump(quizFile, sub)
	h.readPump(quizFile, sub)
}

func (h *Hub) writePump(quizFile string, sub *subscriber) {
	for snap := range sub.send {
		if err := sub.conn.WriteJSON(snap); err != nil {
			h.drop(quizFile, sub)
			return
		}
	}
}

// readPump discards client messages; its job is noticing the close.
func (h *Hub) readPump(quizFile string, sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.drop(quizFile, sub)
			return
		}
	}
}

func (h *Hub) drop(quizFile string, sub *subscriber) {
	h.mu.Lock()
	if m, ok := h.subs[quizFile]; ok {
		if _, present := m[sub.id]; present {
			delete(m, sub.id)
			close(sub.send)
			if len(m) == 0 {
				delete(h.subs, quizFile)
			}
		}
		h.mu.Unlock()
		sub.conn.Close()
		return
	}
	h.mu.Unlock()
}
