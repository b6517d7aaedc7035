package match

import (
    "log"
    "net/http"

    "github.com/gorilla/websocket"

    "github.com/evinjohnn/tinder-clone-sub000/internal/auth"
)

var upgrader = websocket.Upgrader{
    CheckOrigin: func(r *http.Request) bool {
        // Configure origin checking in production
        return true
    },
}

// Hub tracks connected users and fans notification events out to them. It
// implements NotificationDispatcher; nothing outside this file touches the
// connection map.
type Hub struct {
    clients    map[int64]*client
    broadcast  chan targetedEvent
    register   chan *client
    unregister chan *client
    done       chan struct{}
}

type client struct {
    hub    *Hub
    conn   *websocket.Conn
    send   chan Event
    userID int64
}

type targetedEvent struct {
    userID int64
    event  Event
}

func NewHub() *Hub {
    return &Hub{
        clients:    make(map[int64]*client),
        broadcast:  make(chan targetedEvent, 64),
        register:   make(chan *client),
        unregister: make(chan *client),
        done:       make(chan struct{}),
    }
}

func (h *Hub) Run() {
    for {
        select {
        case c := <-h.register:
            h.clients[c.userID] = c

        case c := <-h.unregister:
            if _, ok := h.clients[c.userID]; ok {
                delete(h.clients, c.userID)
                close(c.send)
            }

        case t := <-h.broadcast:
            if c, ok := h.clients[t.userID]; ok {
                select {
                case c.send <- t.event:
                default:
                    close(c.send)
                    delete(h.clients, c.userID)
                }
            }

        case <-h.done:
            for id, c := range h.clients {
                close(c.send)
                delete(h.clients, id)
            }
            return
        }
    }
}

func (h *Hub) Shutdown() {
    close(h.done)
}

// add hands the client to Run. After Shutdown there is no receiver on the
// register channel, so the send is guarded by done; false means the hub is
// gone and the connection should be dropped.
func (h *Hub) add(c *client) bool {
    select {
    case h.register <- c:
        return true
    case <-h.done:
        return false
    }
}

func (h *Hub) remove(c *client) {
    select {
    case h.unregister <- c:
    case <-h.done:
    }
}

// Notify queues an event for the user if they are currently connected.
// Offline users are skipped; offline delivery belongs to an external
// channel, not this engine.
func (h *Hub) Notify(userID int64, event Event) {
    select {
    case h.broadcast <- targetedEvent{userID: userID, event: event}:
    default:
        log.Printf("notification dropped for user %d: hub backlog full", userID)
    }
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        http.Error(w, "unauthorized", http.StatusUnauthorized)
        return
    }

    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        log.Println(err)
        return
    }

    c := &client{
        hub:    h,
        conn:   conn,
        send:   make(chan Event, 64),
        userID: userID,
    }

    if !h.add(c) {
        conn.Close()
        return
    }

    go c.writePump()
    go c.readPump()
}

func (c *client) readPump() {
    defer func() {
        c.hub.remove(c)
        c.conn.Close()
    }()

    for {
        if _, _, err := c.conn.ReadMessage(); err != nil {
            break
        }
    }
}

func (c *client) writePump() {
    defer c.conn.Close()

    for event := range c.send {
        if err := c.conn.WriteJSON(event); err != nil {
            return
        }
    }
    c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
