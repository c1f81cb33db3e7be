package logic

import (
	"sync"

	"github.com/byebyebruce/rollbacknet/logic/room"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

// RoomManager runs rooms on their own goroutines
type RoomManager struct {
	room map[string]*room.Room
	wg   sync.WaitGroup
	rw   sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		room: make(map[string]*room.Room),
	}
}

// Start runs r under id until it ends
func (m *RoomManager) Start(id string, r *room.Room) error {
	m.rw.Lock()
	defer m.rw.Unlock()

	if _, ok := m.room[id]; ok {
		return errors.Errorf("room id[%s] exists", id)
	}
	m.room[id] = r

	m.wg.Add(1)
	go func() {
		defer func() {
			m.rw.Lock()
			delete(m.room, id)
			m.rw.Unlock()

			m.wg.Done()
		}()
		if err := r.Run(); err != nil {
			l4g.Warn("[manager] room %s ended: %v", id, err)
		}
	}()

	return nil
}

func (m *RoomManager) GetRoom(id string) *room.Room {
	m.rw.RLock()
	defer m.rw.RUnlock()

	return m.room[id]
}

func (m *RoomManager) RoomNum() int {
	m.rw.RLock()
	defer m.rw.RUnlock()

	return len(m.room)
}

// Wait blocks until every room has ended
func (m *RoomManager) Wait() {
	m.wg.Wait()
}

// Stop stops all rooms
func (m *RoomManager) Stop() {
	m.rw.RLock()
	rooms := make([]*room.Room, 0, len(m.room))
	for _, v := range m.room {
		rooms = append(rooms, v)
	}
	m.rw.RUnlock()

	for _, r := range rooms {
		r.Stop()
	}
	m.wg.Wait()
}
