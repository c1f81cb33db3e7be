package signal

import (
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	l4g "github.com/alecthomas/log4go"
)

const (
	DefaultRoom = "default"
	MaxPeers    = 8

	writeWait = time.Second * 5
	joinWait  = time.Second * 10
)

var statusPage = template.Must(template.New("status").Parse(`<html><body>
<h3>waiting rooms</h3>
<table>
<tr><th>room</th><th>waiting</th><th>next</th></tr>
{{range .}}<tr><td>{{.Room}}</td><td>{{.Waiting}}</td><td>{{.Next}}</td></tr>
{{end}}</table>
<p>{{len .}} rooms waiting</p>
</body></html>`))

type member struct {
	peer Peer
	ws   *websocket.Conn
}

type group struct {
	next    int
	members []*member
}

// RoomStatus one room still filling up
type RoomStatus struct {
	Room    string
	Waiting int
	Next    int
}

// Server groups websocket clients per room
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	rooms   map[string]*group
	matched int64
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*group),
	}
}

// Matched number of complete groups sent out
func (s *Server) Matched() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matched
}

// Status rooms with clients waiting, sorted by name
func (s *Server) Status() []RoomStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]RoomStatus, 0, len(s.rooms))
	for name, g := range s.rooms {
		ret = append(ret, RoomStatus{Room: name, Waiting: len(g.members), Next: g.next})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Room < ret[j].Room })
	return ret
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := statusPage.Execute(w, s.Status()); err != nil {
			l4g.Error("[signal] status page: %v", err)
		}
		return
	}

	room := strings.Trim(r.URL.Path, "/")
	if room == "" {
		room = DefaultRoom
	}
	next, err := strconv.Atoi(r.URL.Query().Get("next"))
	if err != nil || next < 1 || next > MaxPeers {
		http.Error(w, "next must be 1.."+strconv.Itoa(MaxPeers), http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l4g.Error("[signal] upgrade error: %v", err)
		return
	}
	s.serve(ws, room, next)
}

func (s *Server) serve(ws *websocket.Conn, room string, next int) {
	defer ws.Close()

	ws.SetReadLimit(4096)
	ws.SetReadDeadline(time.Now().Add(joinWait))
	var join message
	if err := ws.ReadJSON(&join); err != nil || join.Type != typeJoin || join.Addr == "" {
		l4g.Warn("[signal(%s)] bad join from %s: %v", room, ws.RemoteAddr(), err)
		write(ws, message{Type: typeError, Error: "expected join with an address"})
		return
	}

	m := &member{peer: Peer{ID: uuid.NewString(), Addr: join.Addr}, ws: ws}
	if err := write(ws, message{Type: typeWelcome, ID: m.peer.ID}); err != nil {
		return
	}

	full, err := s.join(room, next, m)
	if err != nil {
		write(ws, message{Type: typeError, Error: err.Error()})
		return
	}
	if full != nil {
		s.announce(room, full)
		return
	}

	// wait for the group to fill; a read error means the client left
	ws.SetReadDeadline(time.Time{})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			s.leave(room, m)
			return
		}
	}
}

// join adds m to the room and returns the members once the group is full
func (s *Server) join(room string, next int, m *member) ([]*member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.rooms[room]
	if !ok {
		g = &group{next: next}
		s.rooms[room] = g
	}
	if g.next != next {
		return nil, ErrRejected
	}
	g.members = append(g.members, m)
	l4g.Info("[signal(%s)] %s joined from %s, %d/%d", room, m.peer.ID, m.peer.Addr, len(g.members), g.next)

	if len(g.members) < g.next {
		return nil, nil
	}
	delete(s.rooms, room)
	s.matched++
	return g.members, nil
}

func (s *Server) leave(room string, m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.rooms[room]
	if !ok {
		return
	}
	for i, v := range g.members {
		if v == m {
			g.members = append(g.members[:i], g.members[i+1:]...)
			l4g.Info("[signal(%s)] %s left", room, m.peer.ID)
			break
		}
	}
	if len(g.members) == 0 {
		delete(s.rooms, room)
	}
}

// announce sends the peer list to every member and closes their sockets
func (s *Server) announce(room string, members []*member) {
	peers := make([]Peer, len(members))
	for i, m := range members {
		peers[i] = m.peer
	}
	l4g.Info("[signal(%s)] matched %v", room, peers)
	for _, m := range members {
		if err := write(m.ws, message{Type: typeMatch, Peers: peers}); err != nil {
			l4g.Warn("[signal(%s)] send match to %s: %v", room, m.peer.ID, err)
		}
		m.ws.Close()
	}
}

func write(ws *websocket.Conn, m message) error {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(m)
}
