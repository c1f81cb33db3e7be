package world

import (
	"hash/crc32"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is bumped whenever a serialized field changes.
const SnapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is a serialized world tagged with its frame.
type Snapshot struct {
	Frame    Frame
	Data     []byte
	Checksum uint32
}

type envelope struct {
	Version     int           `msgpack:"v"`
	Players     []PlayerState `msgpack:"players"`
	Projectiles []Projectile  `msgpack:"projectiles"`
}

// Encode serializes w for frame f.
func Encode(f Frame, w *World) (Snapshot, error) {
	data, err := msgpack.Marshal(&envelope{
		Version:     SnapshotVersion,
		Players:     w.Players,
		Projectiles: w.Projectiles,
	})
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "encode frame %d", f)
	}
	return Snapshot{
		Frame:    f,
		Data:     data,
		Checksum: crc(data),
	}, nil
}

// Decode restores the world held by s and verifies its checksum.
func (s Snapshot) Decode() (*World, error) {
	if crc(s.Data) != s.Checksum {
		return nil, errors.Errorf("snapshot %d checksum mismatch", s.Frame)
	}
	var env envelope
	if err := msgpack.Unmarshal(s.Data, &env); err != nil {
		return nil, errors.Wrapf(err, "decode frame %d", s.Frame)
	}
	if env.Version != SnapshotVersion {
		return nil, errors.Wrapf(ErrSnapshotVersion, "frame %d version %d", s.Frame, env.Version)
	}
	w := &World{
		Players:     env.Players,
		Projectiles: env.Projectiles,
	}
	if w.Players == nil {
		w.Players = []PlayerState{}
	}
	return w, nil
}

func crc(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}
