package signal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type result struct {
	peers []Peer
	err   error
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func matchmake(url, addr string) chan result {
	ch := make(chan result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		peers, err := Matchmake(ctx, url, addr)
		ch <- result{peers, err}
	}()
	return ch
}

func waitFor(t *testing.T, s *Server, room string, n int) {
	deadline := time.Now().Add(time.Second * 5)
	for {
		for _, st := range s.Status() {
			if st.Room == room && st.Waiting == n {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("room %s never reached %d waiting: %v", room, n, s.Status())
		}
		time.Sleep(time.Millisecond * 10)
	}
}

func Test_Matchmake(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := wsURL(ts, "/duel?next=2")
	first := matchmake(url, "10.0.0.1:1000")
	waitFor(t, s, "duel", 1)
	second := matchmake(url, "10.0.0.2:2000")

	a, b := <-first, <-second
	if a.err != nil || b.err != nil {
		t.Fatal(a.err, b.err)
	}
	if len(a.peers) != 2 || len(b.peers) != 2 {
		t.Fatalf("peers %v %v", a.peers, b.peers)
	}
	for i := range a.peers {
		if a.peers[i].ID != b.peers[i].ID || a.peers[i].Addr != b.peers[i].Addr {
			t.Errorf("order differs at %d: %v %v", i, a.peers[i], b.peers[i])
		}
	}
	if a.peers[0].Addr != "10.0.0.1:1000" || !a.peers[0].Local || a.peers[1].Local {
		t.Errorf("first client view %+v", a.peers)
	}
	if !b.peers[1].Local || b.peers[0].Local {
		t.Errorf("second client view %+v", b.peers)
	}
	if s.Matched() != 1 || len(s.Status()) != 0 {
		t.Errorf("matched %d status %v", s.Matched(), s.Status())
	}
}

func Test_NextMismatch(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s)
	defer ts.Close()

	first := matchmake(wsURL(ts, "/r?next=2"), "a:1")
	waitFor(t, s, "r", 1)

	res := <-matchmake(wsURL(ts, "/r?next=3"), "b:1")
	if !errors.Is(res.err, ErrRejected) {
		t.Errorf("mismatched next: %v", res.err)
	}

	// the first client still gets matched by a compatible one
	second := matchmake(wsURL(ts, "/r?next=2"), "c:1")
	if r := <-first; r.err != nil || len(r.peers) != 2 {
		t.Errorf("first %v %v", r.peers, r.err)
	}
	<-second
}

func Test_Cancel(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Matchmake(ctx, wsURL(ts, "/lonely?next=2"), "a:1")
		done <- err
	}()
	waitFor(t, s, "lonely", 1)
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("cancel: %v", err)
	}
	deadline := time.Now().Add(time.Second * 5)
	for len(s.Status()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("left client still waiting: %v", s.Status())
		}
		time.Sleep(time.Millisecond * 10)
	}
}

func Test_StatusPage(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s)
	defer ts.Close()

	first := matchmake(wsURL(ts, "/lobby?next=2"), "a:1")
	waitFor(t, s, "lobby", 1)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "lobby") {
		t.Errorf("status page %s", body)
	}

	resp, err = http.Get(ts.URL + "/lobby?next=0")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("plain get on a room: %d", resp.StatusCode)
	}

	matchmake(wsURL(ts, "/lobby?next=2"), "b:1")
	<-first
}
