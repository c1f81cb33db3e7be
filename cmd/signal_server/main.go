package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/byebyebruce/rollbacknet/cmd/signal_server/api"
	"github.com/byebyebruce/rollbacknet/pkg/log4gox"
	signaling "github.com/byebyebruce/rollbacknet/pkg/signal"

	l4g "github.com/alecthomas/log4go"
)

var (
	httpAddress = flag.String("web", ":3536", "signaling listen address")
	logFile     = flag.String("logfile", "", "rotating log file, empty for console only")
	debugLog    = flag.Bool("log", true, "debug log")
)

func main() {
	flag.Parse()

	level := l4g.INFO
	if *debugLog {
		level = l4g.DEBUG
	}
	log4gox.Setup(level, log4gox.RotateConfig{Filename: *logFile})
	defer l4g.Close()

	s := signaling.NewServer()
	_ = api.NewWebAPI(*httpAddress, s)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	l4g.Info("[main] start...")
QUIT:
	for {
		select {
		case sig := <-sigs:
			l4g.Info("Signal: %s", sig.String())
			break QUIT
		case <-ticker.C:
			l4g.Info("[main] matched %d, rooms waiting %v", s.Matched(), s.Status())
		}
	}
	l4g.Info("[main] quiting...")
}
