package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/byebyebruce/rollbacknet/config"
	"github.com/byebyebruce/rollbacknet/logic"
	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/logic/room"
	"github.com/byebyebruce/rollbacknet/pkg/log4gox"
	signaling "github.com/byebyebruce/rollbacknet/pkg/signal"
	"github.com/byebyebruce/rollbacknet/server"
	"github.com/byebyebruce/rollbacknet/util"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

var (
	configFile = flag.String("config", "", "xml config file, empty for defaults")
	listen     = flag.String("udp", ":10086", "kcp listen address(':10086' means use $localip:10086)")
	signalURL  = flag.String("signal", "", "signaling server url, overrides the config")
	roomName   = flag.String("room", "", "signaling room, overrides the config")
	seed       = flag.Int64("seed", time.Now().UnixNano(), "bot seed")
	local      = flag.Bool("local", false, "run two bots in this process over an in-memory link")
	latency    = flag.Int("latency", 4, "one way latency in ticks for -local")
	duration   = flag.Duration("time", room.TimeoutTime, "match length cap")
	debugLog   = flag.Bool("log", false, "debug log")
	showIP     = flag.Bool("ip", false, "show ip info")
)

func main() {
	flag.Parse()
	if *showIP {
		ip, err := util.GetOutboundIP()
		fmt.Println("GetOutboundIP", ip, err)
		fmt.Println("GetLocalIP", util.GetLocalIP())
		fmt.Println("GetExternalIP", util.GetExternalIP())
		os.Exit(0)
	}

	if *configFile != "" {
		if err := config.LoadConfig(*configFile); err != nil {
			panic(fmt.Sprintf("[main] load config %v fail: %v", *configFile, err))
		}
	}
	if *signalURL != "" {
		config.Cfg.SignalURL = *signalURL
	}
	if *roomName != "" {
		config.Cfg.Room = *roomName
	}

	level := l4g.INFO
	if *debugLog {
		level = l4g.DEBUG
	}
	log4gox.Setup(level, log4gox.RotateConfig{Filename: config.Cfg.LogFile})
	defer func() {
		time.Sleep(time.Millisecond * 100)
		l4g.Close()
	}()

	mgr := logic.NewRoomManager()
	var err error
	if *local {
		err = runLocal(mgr)
	} else {
		err = runNetwork(mgr)
	}
	if err != nil {
		l4g.Error("[main] %v", err)
		return
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

QUIT:
	for {
		select {
		case sig := <-sigs:
			l4g.Info("Signal: %s", sig.String())
			break QUIT
		case <-ticker.C:
			if mgr.RoomNum() == 0 {
				break QUIT
			}
		}
	}
	l4g.Info("[main] quiting...")
	mgr.Stop()
}

func roomOptions(name string) []room.Option {
	rate := config.Cfg.TickRate
	return []room.Option{
		room.WithTick(time.Second / time.Duration(rate)),
		room.WithTimeout(*duration),
		room.WithPresenter(&logPresenter{name: name, every: rate}),
	}
}

// runNetwork matchmakes through the signaling server and plays over kcp
func runNetwork(mgr *logic.RoomManager) error {
	host, err := server.Listen(*listen)
	if err != nil {
		return err
	}

	ip, err := util.GetOutboundIP()
	if err != nil {
		host.Close()
		return err
	}
	advertise, err := util.AdvertiseAddr(host.Addr().String(), ip.String())
	if err != nil {
		host.Close()
		return err
	}

	u, err := url.Parse(config.Cfg.SignalURL)
	if err != nil {
		host.Close()
		return errors.Wrap(err, "signal url")
	}
	u.Path = "/" + config.Cfg.Room
	u.RawQuery = "next=" + strconv.Itoa(config.Cfg.Players)

	l4g.Info("[main] matchmaking at %s as %s", u, advertise)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	peers, err := signaling.Matchmake(ctx, u.String(), advertise)
	cancel()
	if err != nil {
		host.Close()
		return err
	}

	r, err := room.NewRoom(config.Cfg.Session(), room.NewBot(*seed), roomOptions("client")...)
	if err != nil {
		host.Close()
		return err
	}
	s := r.Session()
	for _, p := range peers {
		if _, err := s.AddPlayer(game.PlayerInfo{ID: p.ID, Addr: p.Addr, Local: p.Local}); err != nil {
			host.Close()
			return err
		}
	}
	if err := host.Bind(s); err != nil {
		host.Close()
		return err
	}
	if err := s.Attach(host); err != nil {
		host.Close()
		return err
	}
	if err := host.Connect(); err != nil {
		s.Stop()
		return err
	}

	return mgr.Start(config.Cfg.Room, r)
}

// runLocal plays two bots against each other through a game.Pipe
func runLocal(mgr *logic.RoomManager) error {
	cfg := config.Cfg.Session()
	cfg.Players = 2
	pipe := game.NewPipe(*latency)

	ids := []string{"left", "right"}
	for h, id := range ids {
		r, err := room.NewRoom(cfg, room.NewBot(*seed+int64(h)), roomOptions(id)...)
		if err != nil {
			return err
		}
		s := r.Session()
		for i, pid := range ids {
			if _, err := s.AddPlayer(game.PlayerInfo{ID: pid, Local: i == h}); err != nil {
				return err
			}
		}
		if err := s.Attach(pipe.Join(h, s)); err != nil {
			return err
		}
		if err := mgr.Start(id, r); err != nil {
			return err
		}
	}

	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(config.Cfg.TickRate))
		defer ticker.Stop()
		for range ticker.C {
			if mgr.RoomNum() == 0 {
				return
			}
			pipe.Pump()
		}
	}()
	return nil
}
