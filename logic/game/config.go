package game

import (
	"hash/crc32"

	"github.com/byebyebruce/rollbacknet/logic/sim"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxInputsPerMsg = 60 // frames of input per message
	checksumHistory = 16 // checksum rounds kept while waiting for peers
	inboxSize       = 2048
)

// Config session parameters. Players, InputDelay, MaxHealth and Sim must be
// equal on every peer; the handshake compares their Digest.
type Config struct {
	Players                int
	InputDelay             int // frames between sampling and using local input
	Window                 int // rollback window in frames
	MaxHealth              int32
	ChecksumInterval       int // confirmed frames between checksum exchanges, 0 disables
	MaxFrameAdvantage      int // stall when this many frames ahead, 0 disables
	DisconnectNotifyFrames int // silent frames before a peer counts as interrupted
	SyncRetryFrames        int // ticks between handshake resends
	Sim                    sim.Config
}

func DefaultConfig() Config {
	return Config{
		Players:                2,
		InputDelay:             2,
		Window:                 8,
		MaxHealth:              world.DefaultHealth,
		ChecksumInterval:       60,
		MaxFrameAdvantage:      4,
		DisconnectNotifyFrames: 90,
		SyncRetryFrames:        10,
		Sim:                    sim.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	switch {
	case c.Players < 1:
		return errors.Errorf("players %d", c.Players)
	case c.InputDelay < 0:
		return errors.Errorf("input delay %d", c.InputDelay)
	case c.Window < 1:
		return errors.Errorf("rollback window %d", c.Window)
	case c.MaxHealth <= 0:
		return errors.Errorf("max health %d", c.MaxHealth)
	case c.Sim.ArenaHalfExtent <= 0 || c.Sim.PlayerRadius <= 0 || c.Sim.ProjectileRadius < 0:
		return errors.New("arena and radii must be positive")
	}
	return nil
}

type digestFields struct {
	Players    int        `msgpack:"p"`
	InputDelay int        `msgpack:"d"`
	MaxHealth  int32      `msgpack:"h"`
	Sim        sim.Config `msgpack:"s"`
}

// Digest fingerprints the parameters peers must agree on.
func (c Config) Digest() uint32 {
	b, err := msgpack.Marshal(&digestFields{
		Players:    c.Players,
		InputDelay: c.InputDelay,
		MaxHealth:  c.MaxHealth,
		Sim:        c.Sim,
	})
	if err != nil {
		// plain ints only, cannot fail
		panic(err)
	}
	return crc32.ChecksumIEEE(b)
}
