package api

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/byebyebruce/rollbacknet/pkg/signal"

	l4g "github.com/alecthomas/log4go"
)

// WebAPI http api: the signaling endpoint, a status page and pprof
type WebAPI struct {
	s *signal.Server
}

// NewWebAPI serves s on addr in the background
func NewWebAPI(addr string, s *signal.Server) *WebAPI {
	r := &WebAPI{
		s: s,
	}

	http.HandleFunc("/matched", r.matched)
	http.Handle("/", s)

	go func() {
		l4g.Info("[api] web api listen on %s", addr)
		e := http.ListenAndServe(addr, nil)
		if nil != e {
			panic(e)
		}
	}()

	return r
}

func (h *WebAPI) matched(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "matched=[%d] waiting=[%d]", h.s.Matched(), len(h.s.Status()))
}
